package membership

import "github.com/gin-gonic/gin"

type Router struct{}

func (rt Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/slurm/membership")
	{
		v1.GET("", HandlerListMembers)     // GET    /api/v1/slurm/membership?account=xxx
		v1.POST("", HandlerAddMember)      // POST   /api/v1/slurm/membership
		v1.DELETE("", HandlerRemoveMember) // DELETE /api/v1/slurm/membership?account=xxx&username=xxx
		v1.GET("/users/:username", HandlerGetUser)
	}
}
