package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wltrading/whitelabel-backend/shared/activity"
	"github.com/wltrading/whitelabel-backend/shared/analytics"
	"github.com/wltrading/whitelabel-backend/shared/middleware"
	"github.com/wltrading/whitelabel-backend/shared/models"
	"github.com/wltrading/whitelabel-backend/shared/utils"
)

const summaryCacheTTL = time.Minute

func summaryCacheKey(tenantID uint, days int) string {
	return fmt.Sprintf("%s%d", summaryCachePrefix(tenantID), days)
}

func summaryCachePrefix(tenantID uint) string {
	return fmt.Sprintf("analytics:summary:%d:", tenantID)
}

// LogActivityRequest represents a manually recorded activity event
type LogActivityRequest struct {
	ActionType    string `json:"action_type" binding:"required"`
	ActionDetails string `json:"action_details"`
}

func parseDays(c *gin.Context, fallback int) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(fallback)))
	if err != nil || days < 1 || days > 365 {
		return fallback
	}
	return days
}

func parseLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit < 1 || limit > 500 {
		return fallback
	}
	return limit
}

// clientSummary serves a tenant's range summary with a short cache in front,
// since dashboards poll it.
func clientSummary(c *gin.Context, agg *analytics.Aggregator, cache *utils.Cache, tenantID uint) {
	ctx := c.Request.Context()
	days := parseDays(c, 30)

	key := summaryCacheKey(tenantID, days)
	var cached analytics.Summary
	if err := cache.GetJSON(ctx, key, &cached); err == nil {
		utils.OKResponse(c, "Analytics summary retrieved", &cached)
		return
	}

	summary, err := agg.Summarize(ctx, tenantID, days)
	if err != nil {
		utils.InternalServerErrorResponse(c, "Failed to compute summary")
		return
	}
	_ = cache.SetJSON(ctx, key, summary, summaryCacheTTL)

	utils.OKResponse(c, "Analytics summary retrieved", summary)
}

func clientActivityLog(c *gin.Context, db *gorm.DB, tenantID uint, defaultLimit int) {
	ctx := c.Request.Context()
	limit := parseLimit(c, defaultLimit)

	query := db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if actionType := c.Query("action_type"); actionType != "" {
		query = query.Where("action_type = ?", actionType)
	}

	var logs []models.ActivityLog
	if err := query.Order("timestamp DESC").Limit(limit).Find(&logs).Error; err != nil {
		utils.InternalServerErrorResponse(c, "Failed to fetch activity")
		return
	}

	utils.OKResponse(c, "Activity retrieved", gin.H{
		"activities": logs,
		"total":      len(logs),
	})
}

// handleClientSummary returns the authenticated tenant's analytics summary
func handleClientSummary(agg *analytics.Aggregator, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)
		clientSummary(c, agg, cache, tenantID)
	}
}

// handleClientDaily returns the tenant's raw daily rollup rows
func handleClientDaily(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)
		days := parseDays(c, 30)
		// Midnight-truncated so the oldest day in range stays included.
		since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days)

		var rollups []models.Analytics
		if err := db.WithContext(c.Request.Context()).
			Where("tenant_id = ? AND date >= ?", tenantID, since).
			Order("date").
			Find(&rollups).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch daily analytics")
			return
		}

		utils.OKResponse(c, "Daily analytics retrieved", gin.H{
			"daily_data": rollups,
			"days":       days,
		})
	}
}

// handleClientActivity returns the tenant's recent activity log
func handleClientActivity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)
		clientActivityLog(c, db, tenantID, 50)
	}
}

// handleClientRecompute recomputes today's rollup for the authenticated
// tenant on demand
func handleClientRecompute(agg *analytics.Aggregator, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _ := middleware.TenantIDFromContext(c)
		ctx := c.Request.Context()

		rollup, err := agg.RecomputeDaily(ctx, tenantID, time.Now().UTC())
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to recompute analytics")
			return
		}
		// Summaries derived from the old rollup are stale now, whatever
		// range they were cached for.
		_ = cache.DeleteByPrefix(ctx, summaryCachePrefix(tenantID))

		utils.OKResponse(c, "Analytics recomputed", rollup)
	}
}

// handleSystemSummary returns the cross-tenant analytics summary
func handleSystemSummary(agg *analytics.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := parseDays(c, 30)

		summary, err := agg.SummarizeSystem(c.Request.Context(), days)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to compute system summary")
			return
		}

		utils.OKResponse(c, "System summary retrieved", summary)
	}
}

// handleRecomputeAll recomputes today's rollup for every active tenant and
// reports per-tenant outcomes
func handleRecomputeAll(agg *analytics.Aggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := time.Now().UTC()
		if raw := c.Query("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				utils.BadRequestResponse(c, "date must be YYYY-MM-DD")
				return
			}
			date = parsed
		}

		results, err := agg.RecomputeAll(c.Request.Context(), date)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to recompute analytics")
			return
		}

		success, failed := 0, 0
		for _, r := range results {
			if r.Status == "success" {
				success++
			} else {
				failed++
			}
		}

		utils.OKResponse(c, "Analytics recomputed", gin.H{
			"success": success,
			"errors":  failed,
			"results": results,
		})
	}
}

// handleSpecificClientSummary returns any tenant's summary for the super admin
func handleSpecificClientSummary(agg *analytics.Aggregator, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := parseIDParam(c, "id")
		if err != nil {
			utils.BadRequestResponse(c, "Invalid client id")
			return
		}
		clientSummary(c, agg, cache, clientID)
	}
}

// handleSpecificClientActivity returns any tenant's activity log for the
// super admin
func handleSpecificClientActivity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, err := parseIDParam(c, "id")
		if err != nil {
			utils.BadRequestResponse(c, "Invalid client id")
			return
		}
		clientActivityLog(c, db, clientID, 100)
	}
}

// handleLogActivity records a custom activity event for the authenticated
// tenant-scoped principal
func handleLogActivity(activityLog *activity.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.ClaimsFromContext(c)
		if !ok || claims.TenantID == nil {
			utils.ForbiddenResponse(c, "Tenant-scoped credential required")
			return
		}

		var req LogActivityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "action_type is required")
			return
		}

		meta := middleware.RequestMeta(c)
		activityLog.Record(c.Request.Context(), claims.TenantID, claims.TokenID,
			req.ActionType, req.ActionDetails, meta.IP, meta.UserAgent)
		middleware.MarkActivityLogged(c)

		utils.CreatedResponse(c, "Activity logged", nil)
	}
}
