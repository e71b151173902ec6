package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wltrading/whitelabel-backend/shared/models"
)

type rollupKey struct {
	tenantID uint
	date     time.Time
}

// mockAnalyticsStore is a hand-rolled in-memory Store for aggregator tests.
type mockAnalyticsStore struct {
	tenants       []models.Tenant
	logins        map[uint]int64
	apiCalls      map[uint]int64
	uniqueTokens  map[uint]int64
	activeTokens  map[uint]int64
	failTenantID  uint
	rollups       map[rollupKey]models.Analytics
	systemDaily   []DailyTotals
	lastFrom      time.Time
	lastTo        time.Time
	upsertCount   int
}

func newMockAnalyticsStore() *mockAnalyticsStore {
	return &mockAnalyticsStore{
		logins:       map[uint]int64{},
		apiCalls:     map[uint]int64{},
		uniqueTokens: map[uint]int64{},
		activeTokens: map[uint]int64{},
		rollups:      map[rollupKey]models.Analytics{},
	}
}

func (m *mockAnalyticsStore) ActiveTenants(_ context.Context) ([]models.Tenant, error) {
	return m.tenants, nil
}

func (m *mockAnalyticsStore) CountActivities(_ context.Context, tenantID uint, actionType string, from, to time.Time) (int64, error) {
	if tenantID == m.failTenantID {
		return 0, errors.New("query timeout")
	}
	m.lastFrom, m.lastTo = from, to
	switch actionType {
	case models.ActionLogin:
		return m.logins[tenantID], nil
	case models.ActionAPICall:
		return m.apiCalls[tenantID], nil
	}
	return 0, nil
}

func (m *mockAnalyticsStore) CountDistinctTokensUsed(_ context.Context, tenantID uint, _, _ time.Time) (int64, error) {
	return m.uniqueTokens[tenantID], nil
}

func (m *mockAnalyticsStore) CountActiveTokens(_ context.Context, tenantID uint) (int64, error) {
	return m.activeTokens[tenantID], nil
}

func (m *mockAnalyticsStore) UpsertRollup(_ context.Context, rollup *models.Analytics) error {
	m.upsertCount++
	m.rollups[rollupKey{tenantID: rollup.TenantID, date: rollup.Date}] = *rollup
	return nil
}

func (m *mockAnalyticsStore) RollupsSince(_ context.Context, tenantID uint, since time.Time) ([]models.Analytics, error) {
	var out []models.Analytics
	for key, rollup := range m.rollups {
		if key.tenantID == tenantID && !key.date.Before(since) {
			out = append(out, rollup)
		}
	}
	return out, nil
}

func (m *mockAnalyticsStore) SystemRollupsSince(_ context.Context, _ time.Time) ([]DailyTotals, error) {
	return m.systemDaily, nil
}

func TestRecomputeDaily(t *testing.T) {
	st := newMockAnalyticsStore()
	st.logins[3] = 12
	st.apiCalls[3] = 200
	st.uniqueTokens[3] = 5
	st.activeTokens[3] = 7
	agg := NewAggregator(st)

	day := time.Date(2026, 8, 15, 14, 30, 0, 0, time.UTC)
	rollup, err := agg.RecomputeDaily(context.Background(), 3, day)
	if err != nil {
		t.Fatalf("RecomputeDaily: %v", err)
	}

	if rollup.TotalLogins != 12 || rollup.TotalAPICalls != 200 ||
		rollup.UniqueTokensUsed != 5 || rollup.ActiveTokens != 7 {
		t.Errorf("unexpected rollup %+v", rollup)
	}

	wantStart := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if !rollup.Date.Equal(wantStart) {
		t.Errorf("rollup date = %v, want %v", rollup.Date, wantStart)
	}
	if !st.lastFrom.Equal(wantStart) {
		t.Errorf("window start = %v, want %v", st.lastFrom, wantStart)
	}
	wantEnd := wantStart.Add(24*time.Hour - time.Nanosecond)
	if !st.lastTo.Equal(wantEnd) {
		t.Errorf("window end = %v, want %v", st.lastTo, wantEnd)
	}
}

func TestRecomputeDailyIdempotent(t *testing.T) {
	st := newMockAnalyticsStore()
	st.logins[3] = 4
	agg := NewAggregator(st)

	day := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if _, err := agg.RecomputeDaily(context.Background(), 3, day); err != nil {
		t.Fatalf("first recompute: %v", err)
	}

	st.logins[3] = 9
	if _, err := agg.RecomputeDaily(context.Background(), 3, day); err != nil {
		t.Fatalf("second recompute: %v", err)
	}

	if len(st.rollups) != 1 {
		t.Fatalf("rollup rows = %d, want 1 (overwrite, not append)", len(st.rollups))
	}
	got := st.rollups[rollupKey{tenantID: 3, date: day}]
	if got.TotalLogins != 9 {
		t.Errorf("total logins = %d, want 9 after overwrite", got.TotalLogins)
	}
}

func TestRecomputeAllIsolatesFailures(t *testing.T) {
	st := newMockAnalyticsStore()
	st.tenants = []models.Tenant{
		{ID: 1, ClientName: "Alpha"},
		{ID: 2, ClientName: "Beta"},
		{ID: 3, ClientName: "Gamma"},
	}
	st.failTenantID = 2
	agg := NewAggregator(st)

	results, err := agg.RecomputeAll(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want one per tenant", len(results))
	}

	for i, want := range []string{"success", "error", "success"} {
		if results[i].Status != want {
			t.Errorf("result[%d].Status = %q, want %q", i, results[i].Status, want)
		}
	}
	if results[1].Error == "" {
		t.Error("failed tenant must carry its error message")
	}
	if results[1].TenantName != "Beta" {
		t.Errorf("failed tenant name = %q, want Beta", results[1].TenantName)
	}
	if results[0].Rollup == nil || results[2].Rollup == nil {
		t.Error("successful tenants must carry their rollup")
	}
}

func TestSummarizeEmptyRange(t *testing.T) {
	agg := NewAggregator(newMockAnalyticsStore())

	summary, err := agg.Summarize(context.Background(), 3, 30)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.TotalLogins != 0 || summary.AvgDailyLogins != 0 {
		t.Errorf("expected zero-valued summary, got %+v", summary)
	}
	if summary.DailyData == nil || len(summary.DailyData) != 0 {
		t.Error("DailyData must be an empty slice, not nil")
	}
}

func TestSummarizeSparseAverages(t *testing.T) {
	st := newMockAnalyticsStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	// Two rollup rows inside a 30-day window; averages divide by 2.
	st.rollups[rollupKey{tenantID: 3, date: today.AddDate(0, 0, -1)}] = models.Analytics{
		TenantID: 3, Date: today.AddDate(0, 0, -1), TotalLogins: 10, TotalAPICalls: 100, UniqueTokensUsed: 2,
	}
	st.rollups[rollupKey{tenantID: 3, date: today.AddDate(0, 0, -2)}] = models.Analytics{
		TenantID: 3, Date: today.AddDate(0, 0, -2), TotalLogins: 5, TotalAPICalls: 50, UniqueTokensUsed: 1,
	}
	agg := NewAggregator(st)

	summary, err := agg.Summarize(context.Background(), 3, 30)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.TotalLogins != 15 || summary.TotalAPICalls != 150 {
		t.Errorf("totals = %d/%d, want 15/150", summary.TotalLogins, summary.TotalAPICalls)
	}
	if summary.AvgDailyLogins != 7.5 {
		t.Errorf("avg daily logins = %v, want 7.5", summary.AvgDailyLogins)
	}
	if summary.AvgDailyAPICalls != 75 {
		t.Errorf("avg daily api calls = %v, want 75", summary.AvgDailyAPICalls)
	}
	if summary.UniqueTokensUsed != 3 {
		t.Errorf("unique tokens = %d, want 3", summary.UniqueTokensUsed)
	}
}

func TestSummarizeIncludesOldestDayInRange(t *testing.T) {
	st := newMockAnalyticsStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	// A rollup dated exactly 30 days ago sits on the range boundary and must
	// still be counted for days=30.
	boundary := today.AddDate(0, 0, -30)
	st.rollups[rollupKey{tenantID: 3, date: boundary}] = models.Analytics{
		TenantID: 3, Date: boundary, TotalLogins: 10, TotalAPICalls: 40, UniqueTokensUsed: 2,
	}
	agg := NewAggregator(st)

	summary, err := agg.Summarize(context.Background(), 3, 30)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.TotalLogins != 10 || summary.TotalAPICalls != 40 {
		t.Errorf("totals = %d/%d, want 10/40 (boundary day dropped)", summary.TotalLogins, summary.TotalAPICalls)
	}
	if len(summary.DailyData) != 1 {
		t.Errorf("daily rows = %d, want 1", len(summary.DailyData))
	}
}

func TestSummarizeRounding(t *testing.T) {
	st := newMockAnalyticsStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i, logins := range []int{1, 1, 2} {
		date := today.AddDate(0, 0, -(i + 1))
		st.rollups[rollupKey{tenantID: 3, date: date}] = models.Analytics{
			TenantID: 3, Date: date, TotalLogins: logins,
		}
	}
	agg := NewAggregator(st)

	summary, err := agg.Summarize(context.Background(), 3, 30)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	// 4 logins over 3 rows rounds to 1.33.
	if summary.AvgDailyLogins != 1.33 {
		t.Errorf("avg daily logins = %v, want 1.33", summary.AvgDailyLogins)
	}
}

func TestSummarizeSystem(t *testing.T) {
	st := newMockAnalyticsStore()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	st.systemDaily = []DailyTotals{
		{Date: today.AddDate(0, 0, -2), TotalLogins: 20, TotalAPICalls: 300, UniqueTokens: 4, ActiveTokens: 10},
		{Date: today.AddDate(0, 0, -1), TotalLogins: 10, TotalAPICalls: 100, UniqueTokens: 2, ActiveTokens: 10},
	}
	agg := NewAggregator(st)

	summary, err := agg.SummarizeSystem(context.Background(), 30)
	if err != nil {
		t.Fatalf("SummarizeSystem: %v", err)
	}
	if summary.TotalLogins != 30 || summary.TotalAPICalls != 400 || summary.TotalUniqueTokens != 6 {
		t.Errorf("unexpected totals %+v", summary)
	}
	if summary.AvgDailyLogins != 15 {
		t.Errorf("avg daily logins = %v, want 15", summary.AvgDailyLogins)
	}
	if len(summary.DailyData) != 2 {
		t.Errorf("daily data rows = %d, want 2", len(summary.DailyData))
	}
}

func TestSummarizeSystemEmpty(t *testing.T) {
	agg := NewAggregator(newMockAnalyticsStore())

	summary, err := agg.SummarizeSystem(context.Background(), 7)
	if err != nil {
		t.Fatalf("SummarizeSystem: %v", err)
	}
	if summary.DailyData == nil || len(summary.DailyData) != 0 {
		t.Error("DailyData must be an empty slice, not nil")
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.0},
		{1.335, 1.33},
		{2.675, 2.67},
		{7.5, 7.5},
	}
	for _, tc := range cases {
		if got := round2(tc.in); got != tc.want {
			t.Errorf("round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
