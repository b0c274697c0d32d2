package allocation

import "github.com/gin-gonic/gin"

type Router struct{}

func (rt Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/slurm/periodic")
	{
		v1.POST("/transition", HandlerApplyTransition)            // POST /api/v1/slurm/periodic/transition
		v1.POST("/transition/batch", HandlerApplyTransitionBatch) // POST /api/v1/slurm/periodic/transition/batch
		v1.GET("/preview", HandlerPreview)                        // GET  /api/v1/slurm/periodic/preview?account=xxx
		v1.GET("/limits", HandlerCurrentLimits)                   // GET  /api/v1/slurm/periodic/limits?account=xxx
	}
}
