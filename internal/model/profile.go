package model

import (
	"database/sql"
	"time"
)

// DefaultFreeCredits is the free-tier balance granted on first profile access.
const DefaultFreeCredits = 3

// Profile is the per-user ledger row: credit balance plus subscription state.
type Profile struct {
	ID                 string         `db:"id"`
	CreditCount        int            `db:"credit_count"`
	IsSubscribed       bool           `db:"is_subscribed"`
	SubscriptionRef    sql.NullString `db:"subscription_ref"`
	BillingCustomerRef sql.NullString `db:"billing_customer_ref"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// CreditStatus is the answer to a credit check. Credits is -1 for subscribed
// users (unlimited); the stored counter is not consulted while subscribed.
type CreditStatus struct {
	HasCredits   bool `json:"hasCredits"`
	Credits      int  `json:"credits"`
	IsSubscribed bool `json:"isSubscribed"`
}
