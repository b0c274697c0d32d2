package usage

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"spard/internal/pkg/backend"
	"spard/internal/pkg/client/slurmcli"
	"spard/internal/pkg/common/response"
)

// splitAccounts turns a comma-separated accounts query into a clean list.
func splitAccounts(raw string) []string {
	parts := strings.Split(raw, ",")
	accounts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			accounts = append(accounts, p)
		}
	}
	return accounts
}

// @Summary 获取历史月度用量报表
// @Description 查询指定年月内各账户的用量，按组件单位换算后返回（含 TOTAL_ACCOUNT_USAGE 聚合）
// @Tags usage
// @Produce json
// @Param accounts query string true "账户列表，逗号分隔"
// @Param year query int true "年份"
// @Param month query int true "月份 1-12"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/slurm/usage/historical [get]
func HandlerHistorical(c *gin.Context) {
	b := backend.Default()
	if b == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend not initialized"})
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "year must be an integer"})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "month must be an integer"})
		return
	}
	accounts := splitAccounts(c.Query("accounts"))

	report, err := b.GetHistoricalUsageReport(c.Request.Context(), accounts, year, month)
	if err != nil {
		var ve *backend.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, response.Response{Detail: ve.Error()})
			return
		}
		if errors.Is(err, slurmcli.ErrUnavailable) {
			c.JSON(http.StatusBadGateway, response.Response{Detail: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{Count: len(report), Results: report})
}

// @Summary 获取当前月度用量报表
// @Description 查询当月（1 日至今）各账户的用量
// @Tags usage
// @Produce json
// @Param accounts query string true "账户列表，逗号分隔"
// @Success 200 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/slurm/usage/current [get]
func HandlerCurrent(c *gin.Context) {
	b := backend.Default()
	if b == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend not initialized"})
		return
	}
	accounts := splitAccounts(c.Query("accounts"))
	report, err := b.GetCurrentUsageReport(c.Request.Context(), accounts)
	if err != nil {
		if errors.Is(err, slurmcli.ErrUnavailable) {
			c.JSON(http.StatusBadGateway, response.Response{Detail: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{Count: len(report), Results: report})
}
