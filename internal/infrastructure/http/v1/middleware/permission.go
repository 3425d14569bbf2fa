package middleware

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/pkg/logger"
)

// HeaderManagerPIN carries a manager override PIN.
const HeaderManagerPIN = "X-Manager-PIN"

// PINChecker verifies manager override PINs.
type PINChecker interface {
	Enabled() bool
	Verify(pin string) error
}

// RequireApprover lets managers and admins through. Other callers pass only
// with a valid manager PIN; the override is logged against their user id.
func RequireApprover(pins PINChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if appctx.CanApprove(ctx) {
			c.Next()
			return
		}

		pin := c.GetHeader(HeaderManagerPIN)
		if pin == "" || pins == nil || !pins.Enabled() {
			_ = c.Error(apperror.NewForbidden("manager approval required").
				WithDetail("required_roles", []string{appctx.RoleManager, appctx.RoleAdmin}))
			c.Abort()
			return
		}

		if err := pins.Verify(pin); err != nil {
			logger.Warn(ctx, "manager pin rejected", "path", c.FullPath())
			_ = c.Error(apperror.NewForbidden("invalid manager pin"))
			c.Abort()
			return
		}

		logger.Info(ctx, "manager pin override", "path", c.FullPath())
		c.Set("manager_override", true)
		c.Next()
	}
}
