package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"admissions/internal/core/apperror"
	appctx "admissions/internal/core/context"
)

// RequireDepartment restricts staff to the department named by the route
// parameter param. Must run after Auth and RequireRole.
func RequireDepartment(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := appctx.GetPrincipal(c.Request.Context())
		if principal == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		requested := c.Param(param)
		if !strings.EqualFold(principal.DepartmentCode, requested) {
			_ = c.Error(
				apperror.NewForbidden("Access restricted to your department").
					WithDetail("department_code", requested),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
