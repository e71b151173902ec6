package activity

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wltrading/whitelabel-backend/shared/models"
)

// Store is the persistence surface the activity logger writes to.
type Store interface {
	InsertActivity(ctx context.Context, log *models.ActivityLog) error
}

// Publisher pushes recorded events to an external stream. Implementations
// must be safe to call concurrently.
type Publisher interface {
	Publish(ctx context.Context, log *models.ActivityLog) error
}

// Logger records structured activity events. Every failure path is contained:
// a broken store or stream surfaces on the operator log only and never alters
// the outcome of the operation being recorded.
type Logger struct {
	store     Store
	publisher Publisher
	log       *logrus.Logger
}

// NewLogger creates an activity Logger. publisher may be nil to disable the
// event stream.
func NewLogger(store Store, publisher Publisher, log *logrus.Logger) *Logger {
	return &Logger{store: store, publisher: publisher, log: log}
}

// Record persists one activity event, best-effort. TenantID is nil for
// global-role events, TokenID is nil for non-token actors.
func (l *Logger) Record(ctx context.Context, tenantID, tokenID *uint, actionType, details, ip, userAgent string) {
	entry := &models.ActivityLog{
		TenantID:      tenantID,
		TokenID:       tokenID,
		ActionType:    actionType,
		ActionDetails: details,
		IPAddress:     ip,
		UserAgent:     userAgent,
		Timestamp:     time.Now().UTC(),
	}

	if err := l.store.InsertActivity(ctx, entry); err != nil {
		l.log.WithError(err).WithField("action_type", actionType).Error("failed to record activity")
		return
	}

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, entry); err != nil {
			l.log.WithError(err).WithField("action_type", actionType).Warn("failed to publish activity event")
		}
	}
}
