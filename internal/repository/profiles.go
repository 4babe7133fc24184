package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
)

type ProfilesRepository interface {
	// EnsureProfile lazily creates the row with the default free-tier
	// balance; existing rows are untouched.
	EnsureProfile(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*model.Profile, error)

	// DeductCredit decrements the counter by one iff it is positive, as a
	// single conditional UPDATE. Returns false when no credit remained.
	DeductCredit(ctx context.Context, userID string) (bool, error)

	SetSubscription(ctx context.Context, userID string, subscribed bool, subscriptionRef string) error
	SetBillingCustomer(ctx context.Context, userID, customerRef string) error
	GetByBillingCustomer(ctx context.Context, customerRef string) (*model.Profile, error)
}

type ProfilesRepositoryImpl struct {
	db *sqlx.DB
}

func NewProfilesRepository(db *sqlx.DB) *ProfilesRepositoryImpl {
	return &ProfilesRepositoryImpl{db: db}
}

var _ ProfilesRepository = (*ProfilesRepositoryImpl)(nil)

func (r *ProfilesRepositoryImpl) EnsureProfile(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, credit_count, is_subscribed, created_at, updated_at)
		VALUES (?, ?, 0, NOW(), NOW())
		ON DUPLICATE KEY UPDATE id = id
	`, userID, model.DefaultFreeCredits)
	return err
}

func (r *ProfilesRepositoryImpl) Get(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, credit_count, is_subscribed, subscription_ref, billing_customer_ref, created_at, updated_at
		  FROM profiles
		 WHERE id = ? LIMIT 1
	`, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeductCredit is the one operation that must not race: two callers
// observing credit_count = 1 must not both succeed, so the check and the
// decrement happen in one statement at the storage tier.
func (r *ProfilesRepositoryImpl) DeductCredit(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		   SET credit_count = credit_count - 1, updated_at = NOW()
		 WHERE id = ? AND credit_count > 0
	`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *ProfilesRepositoryImpl) SetSubscription(ctx context.Context, userID string, subscribed bool, subscriptionRef string) error {
	if subscriptionRef == "" {
		_, err := r.db.ExecContext(ctx, `
			UPDATE profiles
			   SET is_subscribed = ?, updated_at = NOW()
			 WHERE id = ?
		`, subscribed, userID)
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		   SET is_subscribed = ?, subscription_ref = ?, updated_at = NOW()
		 WHERE id = ?
	`, subscribed, subscriptionRef, userID)
	return err
}

func (r *ProfilesRepositoryImpl) SetBillingCustomer(ctx context.Context, userID, customerRef string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		   SET billing_customer_ref = ?, updated_at = NOW()
		 WHERE id = ?
	`, customerRef, userID)
	return err
}

func (r *ProfilesRepositoryImpl) GetByBillingCustomer(ctx context.Context, customerRef string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.GetContext(ctx, &p, `
		SELECT id, credit_count, is_subscribed, subscription_ref, billing_customer_ref, created_at, updated_at
		  FROM profiles
		 WHERE billing_customer_ref = ? LIMIT 1
	`, customerRef)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
