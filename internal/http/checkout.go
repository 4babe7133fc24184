package http

import (
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/DivyanshuTiwari-1/makeupai/internal/billing"
	"github.com/DivyanshuTiwari-1/makeupai/internal/credit"
	"github.com/DivyanshuTiwari-1/makeupai/internal/http/middleware"
)

// checkoutHandler looks up or creates the caller's billing customer and
// starts a subscription checkout session.
func checkoutHandler(ledger *credit.Ledger, client *billing.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		if client == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "billing not configured"})
		}

		ctx := c.Request().Context()

		customerRef, err := ledger.BillingCustomerRef(ctx, identity.ID)
		if err != nil {
			log.Errorf("billing customer lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to prepare billing"})
		}

		if customerRef == "" {
			customerRef, err = client.EnsureCustomer(ctx, identity.ID, identity.Email)
			if err != nil {
				log.Errorf("billing customer create failed: %v", err)

				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to prepare billing"})
			}
			if err := ledger.SetBillingCustomer(ctx, identity.ID, customerRef); err != nil {
				log.Errorf("billing customer persist failed: %v", err)

				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to prepare billing"})
			}
		}

		sessionID, url, err := client.CreateCheckoutSession(ctx, customerRef, identity.ID)
		if err != nil {
			log.Errorf("checkout session create failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create checkout session"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"success":   true,
			"sessionId": sessionID,
			"url":       url,
		})
	}
}
