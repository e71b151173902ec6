package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wltrading/whitelabel-backend/shared/models"
)

// DailyTotals is one calendar day of rollup fields summed across all tenants.
type DailyTotals struct {
	Date          time.Time `json:"date"`
	TotalLogins   int       `json:"total_logins"`
	UniqueTokens  int       `json:"unique_tokens"`
	TotalAPICalls int       `json:"total_api_calls"`
	ActiveTokens  int       `json:"active_tokens"`
}

// Store is the persistence surface the aggregator reads activity from and
// writes rollups to.
type Store interface {
	ActiveTenants(ctx context.Context) ([]models.Tenant, error)
	CountActivities(ctx context.Context, tenantID uint, actionType string, from, to time.Time) (int64, error)
	CountDistinctTokensUsed(ctx context.Context, tenantID uint, from, to time.Time) (int64, error)
	CountActiveTokens(ctx context.Context, tenantID uint) (int64, error)
	UpsertRollup(ctx context.Context, rollup *models.Analytics) error
	RollupsSince(ctx context.Context, tenantID uint, since time.Time) ([]models.Analytics, error)
	SystemRollupsSince(ctx context.Context, since time.Time) ([]DailyTotals, error)
}

// RecomputeResult is the per-tenant outcome of a batch recompute.
type RecomputeResult struct {
	TenantID   uint              `json:"client_id"`
	TenantName string            `json:"client_name"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Rollup     *models.Analytics `json:"analytics,omitempty"`
}

// Summary is the range aggregate served to a tenant admin. Averages divide
// by the number of rollup rows present in the range, not by the requested
// day count: tenants with gaps are averaged over sparse data by design.
type Summary struct {
	TotalLogins      int                `json:"total_logins"`
	TotalAPICalls    int                `json:"total_api_calls"`
	AvgDailyLogins   float64            `json:"avg_daily_logins"`
	AvgDailyAPICalls float64            `json:"avg_daily_api_calls"`
	UniqueTokensUsed int                `json:"unique_tokens_used"`
	DailyData        []models.Analytics `json:"daily_data"`
}

// SystemSummary is the cross-tenant range aggregate.
type SystemSummary struct {
	TotalLogins       int           `json:"total_logins"`
	TotalAPICalls     int           `json:"total_api_calls"`
	TotalUniqueTokens int           `json:"total_unique_tokens"`
	AvgDailyLogins    float64       `json:"avg_daily_logins"`
	DailyData         []DailyTotals `json:"daily_data"`
}

// Aggregator computes daily rollups from raw activity and answers range
// summary queries over them.
type Aggregator struct {
	store Store
}

// NewAggregator creates an Aggregator.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// dayBounds returns the inclusive [start, end] window of the given calendar
// day in UTC.
func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}

// RecomputeDaily recomputes a tenant's rollup for one calendar day from raw
// activity logs and upserts it. Re-running for the same (tenant, date)
// overwrites rather than double-counts.
func (a *Aggregator) RecomputeDaily(ctx context.Context, tenantID uint, date time.Time) (*models.Analytics, error) {
	start, end := dayBounds(date)

	logins, err := a.store.CountActivities(ctx, tenantID, models.ActionLogin, start, end)
	if err != nil {
		return nil, fmt.Errorf("count logins: %w", err)
	}
	uniqueTokens, err := a.store.CountDistinctTokensUsed(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("count unique tokens: %w", err)
	}
	apiCalls, err := a.store.CountActivities(ctx, tenantID, models.ActionAPICall, start, end)
	if err != nil {
		return nil, fmt.Errorf("count api calls: %w", err)
	}
	// Snapshot of currently-active tokens, not a per-day figure.
	activeTokens, err := a.store.CountActiveTokens(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count active tokens: %w", err)
	}

	rollup := &models.Analytics{
		TenantID:         tenantID,
		Date:             start,
		TotalLogins:      int(logins),
		UniqueTokensUsed: int(uniqueTokens),
		TotalAPICalls:    int(apiCalls),
		ActiveTokens:     int(activeTokens),
	}
	if err := a.store.UpsertRollup(ctx, rollup); err != nil {
		return nil, fmt.Errorf("upsert rollup: %w", err)
	}
	return rollup, nil
}

// RecomputeAll recomputes the given day's rollup for every active tenant.
// Each tenant is isolated: one tenant's failure becomes an error entry and
// does not stop the batch. The result always carries one entry per active
// tenant, in store order.
func (a *Aggregator) RecomputeAll(ctx context.Context, date time.Time) ([]RecomputeResult, error) {
	tenants, err := a.store.ActiveTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	results := make([]RecomputeResult, 0, len(tenants))
	for _, tenant := range tenants {
		result := RecomputeResult{TenantID: tenant.ID, TenantName: tenant.ClientName}
		rollup, err := a.RecomputeDaily(ctx, tenant.ID, date)
		if err != nil {
			result.Status = "error"
			result.Error = err.Error()
		} else {
			result.Status = "success"
			result.Rollup = rollup
		}
		results = append(results, result)
	}
	return results, nil
}

// rangeStart returns the inclusive lower bound of a trailing range of days.
// Rollup dates are midnight-truncated, so the bound must be too or the
// oldest day in range would fall out of a date >= since comparison.
func rangeStart(days int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days)
}

// Summarize aggregates a tenant's rollups over the trailing range of days.
// With no rollups in range it returns the zero-valued shape, not an error.
func (a *Aggregator) Summarize(ctx context.Context, tenantID uint, days int) (*Summary, error) {
	since := rangeStart(days)
	rollups, err := a.store.RollupsSince(ctx, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("load rollups: %w", err)
	}

	summary := &Summary{DailyData: rollups}
	if len(rollups) == 0 {
		summary.DailyData = []models.Analytics{}
		return summary, nil
	}

	for _, r := range rollups {
		summary.TotalLogins += r.TotalLogins
		summary.TotalAPICalls += r.TotalAPICalls
		summary.UniqueTokensUsed += r.UniqueTokensUsed
	}
	summary.AvgDailyLogins = round2(float64(summary.TotalLogins) / float64(len(rollups)))
	summary.AvgDailyAPICalls = round2(float64(summary.TotalAPICalls) / float64(len(rollups)))
	return summary, nil
}

// SummarizeSystem aggregates rollups across all tenants grouped by calendar
// date, then reduces over the per-date totals.
func (a *Aggregator) SummarizeSystem(ctx context.Context, days int) (*SystemSummary, error) {
	since := rangeStart(days)
	daily, err := a.store.SystemRollupsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load system rollups: %w", err)
	}

	summary := &SystemSummary{DailyData: daily}
	if len(daily) == 0 {
		summary.DailyData = []DailyTotals{}
		return summary, nil
	}

	for _, d := range daily {
		summary.TotalLogins += d.TotalLogins
		summary.TotalAPICalls += d.TotalAPICalls
		summary.TotalUniqueTokens += d.UniqueTokens
	}
	summary.AvgDailyLogins = round2(float64(summary.TotalLogins) / float64(len(daily)))
	return summary, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
