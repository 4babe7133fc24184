package http

import (
	"context"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/stripe/stripe-go/v79"

	"github.com/DivyanshuTiwari-1/makeupai/internal/billing"
	"github.com/DivyanshuTiwari-1/makeupai/internal/credit"
	"github.com/DivyanshuTiwari-1/makeupai/internal/http/middleware"
)

// subscriptionVerifier is the slice of the billing client the sync handler
// needs: the provider's current view of a subscription.
type subscriptionVerifier interface {
	SubscriptionStatus(ctx context.Context, subscriptionRef string) (stripe.SubscriptionStatus, error)
	FindActiveSubscription(ctx context.Context, customerRef string) (string, stripe.SubscriptionStatus, error)
}

// subscriptionHandler live-syncs the subscribed flag from the payment
// provider. Webhook events are last-write-wins with no ordering, so this
// read path self-heals any drift between the stored flag and the provider.
func subscriptionHandler(ledger *credit.Ledger, verifier subscriptionVerifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		if verifier == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "billing not configured"})
		}

		ctx := c.Request().Context()

		subscribed, subscriptionRef, customerRef, err := ledger.SubscriptionState(ctx, identity.ID)
		if err != nil {
			log.Errorf("subscription state lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sync subscription status"})
		}

		if customerRef == "" {
			return c.JSON(http.StatusOK, map[string]any{
				"success":      true,
				"isSubscribed": false,
				"message":      "no billing customer found",
			})
		}

		if subscriptionRef != "" {
			status, err := verifier.SubscriptionStatus(ctx, subscriptionRef)
			if err != nil {
				// provider unreachable: report unsubscribed, keep local state
				log.Errorf("subscription retrieve failed: %v", err)

				return c.JSON(http.StatusOK, map[string]any{
					"success":      true,
					"isSubscribed": false,
					"message":      "failed to retrieve subscription from provider",
				})
			}

			isActive := billing.StatusGrantsAccess(status)
			if isActive != subscribed {
				if err := ledger.SetSubscriptionStatus(ctx, identity.ID, isActive, subscriptionRef); err != nil {
					log.Errorf("subscription drift repair failed: %v", err)

					return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sync subscription status"})
				}
			}

			return c.JSON(http.StatusOK, map[string]any{
				"success":            true,
				"isSubscribed":       isActive,
				"subscriptionStatus": string(status),
			})
		}

		// no stored subscription: adopt an active one from the provider
		subID, status, err := verifier.FindActiveSubscription(ctx, customerRef)
		if err != nil {
			log.Errorf("subscription list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sync subscription status"})
		}
		if subID == "" {
			return c.JSON(http.StatusOK, map[string]any{
				"success":      true,
				"isSubscribed": false,
				"message":      "no active subscriptions found",
			})
		}

		if err := ledger.SetSubscriptionStatus(ctx, identity.ID, true, subID); err != nil {
			log.Errorf("subscription adoption failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to sync subscription status"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"success":            true,
			"isSubscribed":       true,
			"subscriptionStatus": string(status),
		})
	}
}
