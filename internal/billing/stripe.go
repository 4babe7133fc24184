// Package billing integrates the external payment provider: checkout
// session creation on the live-request path and webhook event
// reconciliation on the asynchronous path.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"

	"github.com/DivyanshuTiwari-1/makeupai/internal/config"
)

// ErrUnconfigured distinguishes "not set up" (503) from "broken" (500).
var ErrUnconfigured = errors.New("billing integration not configured")

// Client wraps the provider API for the operations this service needs.
// A nil Client means billing is unconfigured; handlers answer 503.
type Client struct {
	priceID string
	appURL  string
}

// NewClient sets the provider API key and returns the wrapper, or nil when
// no secret key is configured.
func NewClient(cfg config.StripeConfig) *Client {
	if cfg.SecretKey == "" {
		return nil
	}
	stripe.Key = cfg.SecretKey
	return &Client{
		priceID: cfg.PriceID,
		appURL:  strings.TrimRight(cfg.AppURL, "/"),
	}
}

// EnsureCustomer creates a provider customer tagged with the user id so
// webhook events can be traced back to a profile.
func (c *Client) EnsureCustomer(ctx context.Context, userID, email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession starts a subscription-mode checkout for an existing
// billing customer and returns the hosted redirect URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, customerRef, userID string) (sessionID, url string, err error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(customerRef),
		SuccessURL: stripe.String(c.appURL + "/dashboard?success=true"),
		CancelURL:  stripe.String(c.appURL + "/dashboard?canceled=true"),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID)

	if c.priceID != "" {
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		}
	} else {
		// no configured price: fall back to an inline monthly plan
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Premium Plan"),
						Description: stripe.String("Unlimited AI makeup generations"),
					},
					UnitAmount: stripe.Int64(2000),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		}
	}

	sess, err := session.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.ID, sess.URL, nil
}

// SubscriptionStatus retrieves the provider's current view of a
// subscription.
func (c *Client) SubscriptionStatus(ctx context.Context, subscriptionRef string) (stripe.SubscriptionStatus, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionRef, params)
	if err != nil {
		return "", fmt.Errorf("retrieve subscription: %w", err)
	}
	return sub.Status, nil
}

// FindActiveSubscription returns the customer's first active subscription,
// empty id when there is none.
func (c *Client) FindActiveSubscription(ctx context.Context, customerRef string) (string, stripe.SubscriptionStatus, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerRef),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx

	it := subscription.List(params)
	for it.Next() {
		sub := it.Subscription()
		return sub.ID, sub.Status, nil
	}
	if err := it.Err(); err != nil {
		return "", "", fmt.Errorf("list subscriptions: %w", err)
	}
	return "", "", nil
}

// UserIDForCustomer reads the user id tag off a provider customer object.
func (c *Client) UserIDForCustomer(ctx context.Context, customerRef string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := customer.Get(customerRef, params)
	if err != nil {
		return "", fmt.Errorf("retrieve billing customer: %w", err)
	}
	return cust.Metadata["user_id"], nil
}
