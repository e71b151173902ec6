package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wltrading/whitelabel-backend/shared/activity"
)

// Handlers that already record a specific event set this to suppress the
// automatic request log.
const activityLoggedKey = "activity_logged"

// MarkActivityLogged tells the request logger that the handler recorded its
// own event for this request.
func MarkActivityLogged(c *gin.Context) {
	c.Set(activityLoggedKey, true)
}

// ActivityLogger auto-records an activity event after each request, deriving
// the action type from the route. Only tenant-scoped principals are logged;
// super-admin traffic carries no tenant and is skipped, matching the
// aggregator's per-tenant rollup inputs.
func ActivityLogger(logger *activity.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.GetBool(activityLoggedKey) {
			return
		}

		claims, ok := ClaimsFromContext(c)
		if !ok || claims.TenantID == nil {
			return
		}

		actionType := activity.Classify(c.Request.URL.Path, c.Request.Method)
		if actionType == "" {
			return
		}

		details := fmt.Sprintf("%s %s - %d (%.2fs)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Seconds())

		logger.Record(c.Request.Context(), claims.TenantID, claims.TokenID,
			actionType, details, c.ClientIP(), c.Request.UserAgent())
	}
}
