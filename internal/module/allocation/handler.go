package allocation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spard/internal/pkg/backend"
	"spard/internal/pkg/client/slurmcli"
	slurmdbc "spard/internal/pkg/client/slurmdb"
	"spard/internal/pkg/common/response"
)

func writeBackendError(c *gin.Context, err error) {
	var ve *backend.ValidationError
	var fe *slurmcli.FlagError
	switch {
	case errors.As(err, &ve), errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
	case errors.Is(err, backend.ErrAccountNotFound), errors.Is(err, backend.ErrUserNotFound):
		c.JSON(http.StatusNotFound, response.Response{Detail: err.Error()})
	case errors.Is(err, slurmcli.ErrUnavailable):
		c.JSON(http.StatusBadGateway, response.Response{Detail: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
	}
}

// @Summary 为账户执行周期切换
// @Description 计算新周期的配额（含衰减结转）并通过 sacctmgr 应用 fairshare、限额与 QoS
// @Tags periodic
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/slurm/periodic/transition [post]
func HandlerApplyTransition(c *gin.Context) {
	b := backend.Default()
	if b == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend not initialized"})
		return
	}
	var req backend.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
		return
	}
	res, err := b.ApplyPeriodicSettings(c.Request.Context(), req)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Results: res})
}

// @Summary 批量周期切换
// @Description 逐账户执行周期切换；单账户失败不会中断其余账户
// @Tags periodic
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/slurm/periodic/transition/batch [post]
func HandlerApplyTransitionBatch(c *gin.Context) {
	b := backend.Default()
	if b == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend not initialized"})
		return
	}
	var reqs []backend.TransitionRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
		return
	}
	items := b.ApplyPeriodicSettingsBatch(c.Request.Context(), reqs)
	c.JSON(http.StatusOK, response.Response{Count: len(items), Results: items})
}

// @Summary 预览周期设置
// @Description 计算周期设置但不修改集群；附带账户当前 association 限额
// @Tags periodic
// @Produce json
// @Param account query string true "账户名"
// @Param base_allocation query number true "基础配额"
// @Param current_level query string false "当前 QoS 级别" Enums(normal, slowdown, blocked)
// @Param last_period query string false "上次记录的周期标签，如 2024-Q1"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/slurm/periodic/preview [get]
func HandlerPreview(c *gin.Context) {
	b := backend.Default()
	if b == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend not initialized"})
		return
	}
	account := c.Query("account")
	if account == "" {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "account is required"})
		return
	}
	base, err := strconv.ParseFloat(c.Query("base_allocation"), 64)
	if err != nil || base < 0 {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "base_allocation must be a non-negative number"})
		return
	}
	req := backend.TransitionRequest{
		Account:        account,
		BaseAllocation: base,
		CurrentLevel:   c.Query("current_level"),
		LastPeriod:     c.Query("last_period"),
	}
	res, err := b.PreviewPeriodicSettings(c.Request.Context(), req)
	if err != nil {
		writeBackendError(c, err)
		return
	}

	out := gin.H{"preview": res}
	if db := slurmdbc.Default(); db != nil {
		if assoc, err := db.GetAccountAssociation(c.Request.Context(), account); err == nil {
			out["current"] = assoc
		}
	}
	c.JSON(http.StatusOK, response.Response{Results: out})
}

// @Summary 查询账户当前限额
// @Description 通过 sacctmgr show association 读取账户当前 fairshare、限额与 QoS
// @Tags periodic
// @Produce json
// @Param account query string true "账户名"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/slurm/periodic/limits [get]
func HandlerCurrentLimits(c *gin.Context) {
	b := backend.Default()
	if b == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend not initialized"})
		return
	}
	limits, err := b.CurrentLimits(c.Request.Context(), c.Query("account"))
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Count: len(limits), Results: limits})
}
