package membership

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"spard/internal/pkg/backend"
	ldapc "spard/internal/pkg/client/ldap"
	"spard/internal/pkg/client/slurmcli"
	slurmdbc "spard/internal/pkg/client/slurmdb"
	"spard/internal/pkg/common/response"
)

// MemberRequest identifies one (account, user) association.
type MemberRequest struct {
	Account  string `json:"account" form:"account" binding:"required"`
	Username string `json:"username" form:"username" binding:"required"`
}

// @Summary 将用户加入账户
// @Description 校验用户存在（LDAP 或本地）后通过 sacctmgr 建立 association
// @Tags membership
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/slurm/membership [post]
func HandlerAddMember(c *gin.Context) {
	b := backend.Default()
	if b == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend not initialized"})
		return
	}
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
		return
	}
	cmds, err := b.AddMember(c.Request.Context(), req.Account, req.Username)
	if err != nil {
		writeMembershipError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Results: gin.H{"commands": cmds}})
}

// @Summary 将用户移出账户
// @Description 先取消该用户在账户下的作业，再移除 association
// @Tags membership
// @Produce json
// @Param account query string true "账户名"
// @Param username query string true "用户名"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/slurm/membership [delete]
func HandlerRemoveMember(c *gin.Context) {
	b := backend.Default()
	if b == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "backend not initialized"})
		return
	}
	var req MemberRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: err.Error()})
		return
	}
	cmds, err := b.RemoveMember(c.Request.Context(), req.Account, req.Username)
	if err != nil {
		writeMembershipError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Response{Results: gin.H{"commands": cmds}})
}

// @Summary 列出账户成员
// @Description 从 slurmdb association 表读取账户下的用户名
// @Tags membership
// @Produce json
// @Param account query string true "账户名"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/slurm/membership [get]
func HandlerListMembers(c *gin.Context) {
	db := slurmdbc.Default()
	if db == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "slurmdb client not initialized"})
		return
	}
	account := c.Query("account")
	if account == "" {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "account is required"})
		return
	}
	users, err := db.GetUserNamesByAccount(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.Response{Count: len(users), Results: users})
}

// @Summary 查询用户目录属性
// @Description 从 LDAP 读取用户条目的全部属性；未启用 LDAP 时返回 404
// @Tags membership
// @Produce json
// @Param username path string true "用户名"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/slurm/membership/users/{username} [get]
func HandlerGetUser(c *gin.Context) {
	lc := ldapc.Default()
	if lc == nil {
		c.JSON(http.StatusNotFound, response.Response{Detail: "ldap is not enabled"})
		return
	}
	attrs, err := lc.GetUserAttrs(c.Param("username"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	if attrs == nil {
		c.JSON(http.StatusNotFound, response.Response{Detail: "user not found"})
		return
	}
	c.JSON(http.StatusOK, response.Response{Results: attrs})
}

func writeMembershipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, backend.ErrUserNotFound), errors.Is(err, backend.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, response.Response{Detail: err.Error()})
	case errors.Is(err, slurmcli.ErrUnavailable):
		c.JSON(http.StatusBadGateway, response.Response{Detail: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
	}
}
