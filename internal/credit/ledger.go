// Package credit owns the per-user profile record: free-tier credit balance,
// subscription flag, and external billing references.
package credit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DivyanshuTiwari-1/makeupai/internal/logger"
	"github.com/DivyanshuTiwari-1/makeupai/internal/metrics"
	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
	"github.com/DivyanshuTiwari-1/makeupai/internal/repository"
)

// UnlimitedCredits is the sentinel reported for subscribed users.
const UnlimitedCredits = -1

var ErrProfileMissing = errors.New("profile missing after ensure")

// Ledger exposes atomic check/deduct/set-subscription operations over the
// profiles table.
type Ledger struct {
	profiles repository.ProfilesRepository
}

func NewLedger(profiles repository.ProfilesRepository) *Ledger {
	return &Ledger{profiles: profiles}
}

// CheckCredits loads (lazily creating) the caller's profile. Subscribed
// users always have credits; the stored counter is not consulted for them.
func (l *Ledger) CheckCredits(ctx context.Context, userID string) (model.CreditStatus, error) {
	p, err := l.loadOrCreate(ctx, userID)
	if err != nil {
		return model.CreditStatus{}, err
	}

	if p.IsSubscribed {
		return model.CreditStatus{HasCredits: true, Credits: UnlimitedCredits, IsSubscribed: true}, nil
	}
	return model.CreditStatus{
		HasCredits:   p.CreditCount > 0,
		Credits:      p.CreditCount,
		IsSubscribed: false,
	}, nil
}

// DeductCredit consumes one credit. Subscription bypasses metering; running
// out returns false without mutation. The decrement is a conditional UPDATE
// at the storage tier, so concurrent callers cannot both spend a last credit.
func (l *Ledger) DeductCredit(ctx context.Context, userID string) (bool, error) {
	p, err := l.loadOrCreate(ctx, userID)
	if err != nil {
		metrics.CreditDeductionsTotal.WithLabelValues("error").Inc()
		return false, err
	}

	if p.IsSubscribed {
		metrics.CreditDeductionsTotal.WithLabelValues("subscribed").Inc()
		return true, nil
	}

	ok, err := l.profiles.DeductCredit(ctx, userID)
	if err != nil {
		metrics.CreditDeductionsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("deduct credit: %w", err)
	}
	if !ok {
		metrics.CreditDeductionsTotal.WithLabelValues("exhausted").Inc()
		return false, nil
	}
	metrics.CreditDeductionsTotal.WithLabelValues("deducted").Inc()
	return true, nil
}

// SetSubscriptionStatus unconditionally overwrites the flag (and the
// subscription ref when supplied). Last write wins: billing events carry no
// ordering, and a stale deleted event can clear a newer subscription.
func (l *Ledger) SetSubscriptionStatus(ctx context.Context, userID string, subscribed bool, subscriptionRef string) error {
	if err := l.profiles.EnsureProfile(ctx, userID); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	if err := l.profiles.SetSubscription(ctx, userID, subscribed, subscriptionRef); err != nil {
		return fmt.Errorf("set subscription: %w", err)
	}
	logger.L().Info("subscription status updated",
		zap.String("user_id", userID),
		zap.Bool("subscribed", subscribed),
	)
	return nil
}

// SetBillingCustomer records the external billing-customer reference.
func (l *Ledger) SetBillingCustomer(ctx context.Context, userID, customerRef string) error {
	if err := l.profiles.EnsureProfile(ctx, userID); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return l.profiles.SetBillingCustomer(ctx, userID, customerRef)
}

// SubscriptionState reports the stored subscribed flag and provider refs,
// empty when never recorded.
func (l *Ledger) SubscriptionState(ctx context.Context, userID string) (subscribed bool, subscriptionRef, customerRef string, err error) {
	p, err := l.loadOrCreate(ctx, userID)
	if err != nil {
		return false, "", "", err
	}
	if p.SubscriptionRef.Valid {
		subscriptionRef = p.SubscriptionRef.String
	}
	if p.BillingCustomerRef.Valid {
		customerRef = p.BillingCustomerRef.String
	}
	return p.IsSubscribed, subscriptionRef, customerRef, nil
}

// BillingCustomerRef returns the stored customer ref, empty when unset.
func (l *Ledger) BillingCustomerRef(ctx context.Context, userID string) (string, error) {
	p, err := l.loadOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}
	if p.BillingCustomerRef.Valid {
		return p.BillingCustomerRef.String, nil
	}
	return "", nil
}

// UserIDForBillingCustomer resolves a webhook's customer ref to a user id,
// empty when no profile references it.
func (l *Ledger) UserIDForBillingCustomer(ctx context.Context, customerRef string) (string, error) {
	p, err := l.profiles.GetByBillingCustomer(ctx, customerRef)
	if err != nil {
		return "", fmt.Errorf("lookup billing customer: %w", err)
	}
	if p == nil {
		return "", nil
	}
	return p.ID, nil
}

func (l *Ledger) loadOrCreate(ctx context.Context, userID string) (*model.Profile, error) {
	if err := l.profiles.EnsureProfile(ctx, userID); err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	p, err := l.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, ErrProfileMissing
	}
	return p, nil
}
