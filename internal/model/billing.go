package model

import "time"

// BillingEventRecord is the flattened analytics copy of an inbound payment
// provider event. It is append-only side-channel data, never the source of
// truth for subscription state.
type BillingEventRecord struct {
	EventID         string    `db:"event_id"`
	Type            string    `db:"type"`
	CustomerRef     string    `db:"customer_ref"`
	SubscriptionRef string    `db:"subscription_ref"`
	Status          string    `db:"status"`
	UserID          string    `db:"user_id"`
	ReceivedAt      time.Time `db:"received_at"`
}
