package usage

import "github.com/gin-gonic/gin"

type Router struct{}

func (rt Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/slurm/usage")
	{
		v1.GET("/historical", HandlerHistorical) // GET /api/v1/slurm/usage/historical?accounts=xxx&year=xxx&month=xxx
		v1.GET("/current", HandlerCurrent)       // GET /api/v1/slurm/usage/current?accounts=xxx
	}
}
