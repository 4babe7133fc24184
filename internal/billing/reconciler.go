package billing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/DivyanshuTiwari-1/makeupai/internal/logger"
	"github.com/DivyanshuTiwari-1/makeupai/internal/metrics"
	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
	"github.com/DivyanshuTiwari-1/makeupai/internal/repository"
)

// SubscriptionLedger is the slice of the credit ledger the reconciler
// mutates.
type SubscriptionLedger interface {
	SetSubscriptionStatus(ctx context.Context, userID string, subscribed bool, subscriptionRef string) error
	UserIDForBillingCustomer(ctx context.Context, customerRef string) (string, error)
}

// CustomerDirectory resolves a provider customer ref to a user id when the
// profiles table has no record of it yet (e.g. checkout completed before
// the ref was persisted).
type CustomerDirectory interface {
	UserIDForCustomer(ctx context.Context, customerRef string) (string, error)
}

// Reconciler applies asynchronous billing events to the ledger. It is
// best-effort: every failure is logged and swallowed, because the event
// source retries on non-2xx and would redeliver an unresolvable event
// forever.
type Reconciler struct {
	ledger    SubscriptionLedger
	directory CustomerDirectory
	analytics repository.BillingEventsRepository
}

// NewReconciler builds the reconciler. directory and analytics may be nil.
func NewReconciler(ledger SubscriptionLedger, directory CustomerDirectory, analytics repository.BillingEventsRepository) *Reconciler {
	return &Reconciler{ledger: ledger, directory: directory, analytics: analytics}
}

// Handle dispatches one event. Only subscription-status events are
// authoritative for the subscribed flag; invoice events are analytics only.
func (r *Reconciler) Handle(ctx context.Context, event stripe.Event) {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		r.applySubscription(ctx, event, StatusGrantsAccess)
	case "customer.subscription.deleted":
		r.applySubscription(ctx, event, func(stripe.SubscriptionStatus) bool { return false })
	case "invoice.payment_succeeded", "invoice.payment_failed":
		r.recordInvoice(ctx, event)
	default:
		metrics.BillingEventsTotal.WithLabelValues(string(event.Type), "ignored").Inc()
	}
}

// StatusGrantsAccess says whether a provider subscription status entitles
// the user to unlimited generations.
func StatusGrantsAccess(s stripe.SubscriptionStatus) bool {
	return s == stripe.SubscriptionStatusActive || s == stripe.SubscriptionStatusTrialing
}

func (r *Reconciler) applySubscription(ctx context.Context, event stripe.Event, active func(stripe.SubscriptionStatus) bool) {
	eventType := string(event.Type)

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		logger.L().Error("billing event payload unreadable",
			zap.String("type", eventType), zap.Error(err))
		metrics.BillingEventsTotal.WithLabelValues(eventType, "error").Inc()
		return
	}

	customerRef := ""
	if sub.Customer != nil {
		customerRef = sub.Customer.ID
	}
	if customerRef == "" {
		logger.L().Error("billing event missing customer ref",
			zap.String("type", eventType), zap.String("subscription", sub.ID))
		metrics.BillingEventsTotal.WithLabelValues(eventType, "error").Inc()
		return
	}

	userID := r.resolveUserID(ctx, customerRef)
	if userID == "" {
		logger.L().Error("no user found for billing customer",
			zap.String("type", eventType), zap.String("customer_ref", customerRef))
		metrics.BillingEventsTotal.WithLabelValues(eventType, "error").Inc()
		return
	}

	isActive := active(sub.Status)
	if err := r.ledger.SetSubscriptionStatus(ctx, userID, isActive, sub.ID); err != nil {
		logger.L().Error("subscription reconciliation failed",
			zap.String("user_id", userID), zap.Error(err))
		metrics.BillingEventsTotal.WithLabelValues(eventType, "error").Inc()
		return
	}

	r.appendAnalytics(ctx, event.ID, eventType, customerRef, sub.ID, string(sub.Status), userID)
	metrics.BillingEventsTotal.WithLabelValues(eventType, "reconciled").Inc()
}

// recordInvoice is a side channel only. An invoice outcome does not imply
// the subscription object's status has been re-synced, so the ledger is
// never mutated from here.
func (r *Reconciler) recordInvoice(ctx context.Context, event stripe.Event) {
	eventType := string(event.Type)

	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		logger.L().Error("invoice event payload unreadable",
			zap.String("type", eventType), zap.Error(err))
		metrics.BillingEventsTotal.WithLabelValues(eventType, "error").Inc()
		return
	}

	customerRef := ""
	if inv.Customer != nil {
		customerRef = inv.Customer.ID
	}
	userID := r.resolveUserID(ctx, customerRef)

	logger.L().Info("invoice event received",
		zap.String("type", eventType),
		zap.String("invoice", inv.ID),
		zap.String("user_id", userID),
	)
	r.appendAnalytics(ctx, event.ID, eventType, customerRef, "", string(inv.Status), userID)
	metrics.BillingEventsTotal.WithLabelValues(eventType, "reconciled").Inc()
}

// resolveUserID tries the profiles table first, then the provider's
// customer metadata. Empty means unresolvable.
func (r *Reconciler) resolveUserID(ctx context.Context, customerRef string) string {
	if customerRef == "" {
		return ""
	}

	userID, err := r.ledger.UserIDForBillingCustomer(ctx, customerRef)
	if err != nil {
		logger.L().Warn("billing customer lookup failed",
			zap.String("customer_ref", customerRef), zap.Error(err))
	}
	if userID != "" {
		return userID
	}

	if r.directory == nil {
		return ""
	}
	userID, err = r.directory.UserIDForCustomer(ctx, customerRef)
	if err != nil {
		logger.L().Warn("provider customer lookup failed",
			zap.String("customer_ref", customerRef), zap.Error(err))
		return ""
	}
	return userID
}

func (r *Reconciler) appendAnalytics(ctx context.Context, eventID, eventType, customerRef, subscriptionRef, status, userID string) {
	if r.analytics == nil {
		return
	}
	rec := model.BillingEventRecord{
		EventID:         eventID,
		Type:            eventType,
		CustomerRef:     customerRef,
		SubscriptionRef: subscriptionRef,
		Status:          status,
		UserID:          userID,
		ReceivedAt:      time.Now().UTC(),
	}
	if err := r.analytics.Insert(ctx, rec); err != nil {
		logger.L().Warn("billing analytics insert failed", zap.Error(err))
	}
}
