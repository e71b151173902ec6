package activity

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/wltrading/whitelabel-backend/shared/models"
)

type mockActivityStore struct {
	inserted []*models.ActivityLog
	err      error
}

func (m *mockActivityStore) InsertActivity(_ context.Context, log *models.ActivityLog) error {
	if m.err != nil {
		return m.err
	}
	m.inserted = append(m.inserted, log)
	return nil
}

type mockPublisher struct {
	published int
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, _ *models.ActivityLog) error {
	m.published++
	return m.err
}

func quietLogrus() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRecordPersistsAndPublishes(t *testing.T) {
	st := &mockActivityStore{}
	pub := &mockPublisher{}
	logger := NewLogger(st, pub, quietLogrus())

	tenantID := uint(3)
	logger.Record(context.Background(), &tenantID, nil, models.ActionLogin, "login", "1.2.3.4", "ua")

	if len(st.inserted) != 1 {
		t.Fatalf("inserted %d rows, want 1", len(st.inserted))
	}
	entry := st.inserted[0]
	if entry.ActionType != models.ActionLogin || entry.TenantID == nil || *entry.TenantID != 3 {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
	if pub.published != 1 {
		t.Errorf("published %d events, want 1", pub.published)
	}
}

func TestRecordSwallowsStoreError(t *testing.T) {
	st := &mockActivityStore{err: errors.New("db down")}
	pub := &mockPublisher{}
	logger := NewLogger(st, pub, quietLogrus())

	tenantID := uint(3)
	logger.Record(context.Background(), &tenantID, nil, models.ActionAPICall, "", "", "")

	if pub.published != 0 {
		t.Error("must not publish when the store insert failed")
	}
}

func TestRecordSwallowsPublishError(t *testing.T) {
	st := &mockActivityStore{}
	pub := &mockPublisher{err: errors.New("broker down")}
	logger := NewLogger(st, pub, quietLogrus())

	tenantID := uint(3)
	logger.Record(context.Background(), &tenantID, nil, models.ActionAPICall, "", "", "")

	if len(st.inserted) != 1 {
		t.Error("store insert must survive a publish failure")
	}
}

func TestRecordWithoutPublisher(t *testing.T) {
	st := &mockActivityStore{}
	logger := NewLogger(st, nil, quietLogrus())

	logger.Record(context.Background(), nil, nil, models.ActionLogin, "", "", "")

	if len(st.inserted) != 1 {
		t.Fatalf("inserted %d rows, want 1", len(st.inserted))
	}
	if st.inserted[0].TenantID != nil {
		t.Error("global events carry no tenant id")
	}
}
