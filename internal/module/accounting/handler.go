package accounting

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spard/internal/pkg/backend"
	"spard/internal/pkg/client/slurmcli"
	slurmdbc "spard/internal/pkg/client/slurmdb"
	"spard/internal/pkg/common/response"
	"spard/internal/pkg/model"
)

// CreateAcctRequest 创建账户请求体
type CreateAcctRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Organization string `json:"organization"`
}

// @Summary 创建 Slurm 账户
// @Description 通过 sacctmgr 创建账户，description/organization 缺省为账户名
// @Tags slurm-accounting, account
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/slurm/accounting/accounts [post]
func HandlerCreateAcct(c *gin.Context) {
	b := backend.Default()
	if b == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend not initialized"})
		return
	}
	var req CreateAcctRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
		return
	}
	cmds, err := b.ProvisionAccount(c.Request.Context(), req.Name, req.Description, req.Organization)
	if err != nil {
		var ve *backend.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
		case errors.Is(err, slurmcli.ErrUnavailable):
			c.JSON(http.StatusBadGateway, response.Response{Detail: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, response.Response{Results: gin.H{"commands": cmds}})
}

// @Summary 获取 Slurm 账户列表（分页）
// @Description 获取 deleted=0 的账户，支持分页参数 page、page_size
// @Tags slurm-accounting, account
// @Produce json
// @Param page query int false "页码，从 1 开始"
// @Param page_size query int false "每页数量，1-1000"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/slurm/accounting/accounts [get]
func HandlerListAccts(c *gin.Context) {
	client := slurmdbc.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "slurmdb client not initialized"})
		return
	}

	var pq model.PagingQuery
	_ = c.ShouldBindQuery(&pq)
	pq.SetDefaults(1, 20, 100)
	if err := pq.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid paging parameters"})
		return
	}

	deleted := 0
	accts, total, err := client.GetAcctsPaged(c.Request.Context(), &deleted, pq.Offset(), pq.Limit())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	prevURL, nextURL := response.BuildPageLinks(c.Request.URL, pq.Page, pq.PageSize, int(total))
	c.JSON(http.StatusOK, response.Response{
		Count:    int(total),
		Previous: prevURL,
		Next:     nextURL,
		Results:  accts,
	})
}

// @Summary 获取单个账户详情
// @Description 返回 acct_table 中的账户信息及其 association 限额
// @Tags slurm-accounting, account
// @Produce json
// @Param name path string true "账户名"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/slurm/accounting/accounts/{name} [get]
func HandlerGetAcct(c *gin.Context) {
	client := slurmdbc.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "slurmdb client not initialized"})
		return
	}
	name := c.Param("name")
	deleted := 0
	acct, err := client.GetAcctByName(c.Request.Context(), name, &deleted)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Response{Detail: err.Error()})
		return
	}
	out := gin.H{"account": acct}
	if assoc, err := client.GetAccountAssociation(c.Request.Context(), name); err == nil {
		out["association"] = assoc
	}
	c.JSON(http.StatusOK, response.Response{Results: out})
}

// @Summary 获取 QoS 列表
// @Description 获取 qos_table 中未删除的 QoS 定义
// @Tags slurm-accounting, qos
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/slurm/accounting/qos [get]
func HandlerGetQoS(c *gin.Context) {
	client := slurmdbc.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "slurmdb client not initialized"})
		return
	}
	qoses, err := client.GetQos(c.Request.Context(), -1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{Count: len(qoses), Results: qoses})
}
