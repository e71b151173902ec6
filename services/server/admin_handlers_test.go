package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wltrading/whitelabel-backend/shared/models"
)

type mockTokenCounter struct {
	totals    map[uint]int64
	actives   map[uint]int64
	failTotal uint
}

func (m *mockTokenCounter) CountTokens(_ context.Context, tenantID uint) (int64, error) {
	if tenantID == m.failTotal {
		return 0, errors.New("count failed")
	}
	return m.totals[tenantID], nil
}

func (m *mockTokenCounter) CountActiveTokens(_ context.Context, tenantID uint) (int64, error) {
	return m.actives[tenantID], nil
}

func TestClientListEntries(t *testing.T) {
	tenants := []models.Tenant{{ID: 1, ClientName: "Alpha"}, {ID: 2, ClientName: "Beta"}}
	counts := &mockTokenCounter{
		totals:  map[uint]int64{1: 5, 2: 3},
		actives: map[uint]int64{1: 4, 2: 3},
	}

	entries, err := clientListEntries(context.Background(), counts, tenants)
	if err != nil {
		t.Fatalf("clientListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].TotalTokens != 5 || entries[0].ActiveTokens != 4 {
		t.Errorf("entry[0] counts = %d/%d, want 5/4", entries[0].TotalTokens, entries[0].ActiveTokens)
	}
}

func TestClientListEntriesPropagatesCountError(t *testing.T) {
	tenants := []models.Tenant{{ID: 1}, {ID: 2}}
	counts := &mockTokenCounter{
		totals:    map[uint]int64{1: 5},
		actives:   map[uint]int64{1: 4},
		failTotal: 2,
	}

	if _, err := clientListEntries(context.Background(), counts, tenants); err == nil {
		t.Fatal("a failing count must fail the listing, not render as zero")
	}
}

func TestSummaryCacheKeys(t *testing.T) {
	if got := summaryCacheKey(3, 30); got != "analytics:summary:3:30" {
		t.Errorf("key = %q", got)
	}
	if !strings.HasPrefix(summaryCacheKey(3, 7), summaryCachePrefix(3)) {
		t.Error("every days variant must share the tenant prefix")
	}
	// Tenant 3's prefix must not sweep tenant 30's keys.
	if strings.HasPrefix(summaryCacheKey(30, 30), summaryCachePrefix(3)) {
		t.Error("prefix for tenant 3 matches tenant 30")
	}
}
