package accounting

import "github.com/gin-gonic/gin"

type Router struct{}

func (rt Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/slurm/accounting")
	{
		v1.GET("/accounts", HandlerListAccts)     // GET  /api/v1/slurm/accounting/accounts
		v1.POST("/accounts", HandlerCreateAcct)   // POST /api/v1/slurm/accounting/accounts
		v1.GET("/accounts/:name", HandlerGetAcct) // GET  /api/v1/slurm/accounting/accounts/{name}
		v1.GET("/qos", HandlerGetQoS)             // GET  /api/v1/slurm/accounting/qos
	}
}
