package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
)

// BillingEventsRepository appends flattened billing events to ClickHouse for
// analytics. Best-effort only: callers log and move on when it fails.
type BillingEventsRepository interface {
	Insert(ctx context.Context, rec model.BillingEventRecord) error
}

type BillingEventsRepositoryImpl struct {
	db *sqlx.DB
}

func NewBillingEventsRepository(db *sqlx.DB) *BillingEventsRepositoryImpl {
	return &BillingEventsRepositoryImpl{db: db}
}

var _ BillingEventsRepository = (*BillingEventsRepositoryImpl)(nil)

func (r *BillingEventsRepositoryImpl) Insert(ctx context.Context, rec model.BillingEventRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO billing_events (event_id, type, customer_ref, subscription_ref, status, user_id, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.EventID, rec.Type, rec.CustomerRef, rec.SubscriptionRef, rec.Status, rec.UserID, rec.ReceivedAt)
	return err
}
