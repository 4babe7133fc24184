package http

import (
	"context"
	"io"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const maxWebhookBodyBytes = int64(65536)

// EventSink consumes verified billing events.
type EventSink interface {
	Handle(ctx context.Context, event stripe.Event)
}

// webhookHandler verifies the provider signature against the raw body
// before anything is parsed or dispatched. Once the signature checks out
// the response is always 200: the provider retries on non-2xx, and a
// permanently unresolvable event would otherwise be redelivered forever.
func webhookHandler(signingSecret string, sink EventSink) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		}

		if signingSecret == "" {
			log.Error("billing webhook secret missing")

			return c.JSON(http.StatusBadRequest, map[string]string{"error": "webhook not configured"})
		}

		event, err := webhook.ConstructEventWithOptions(
			body,
			c.Request().Header.Get("Stripe-Signature"),
			signingSecret,
			webhook.ConstructEventOptions{
				IgnoreAPIVersionMismatch: true,
			},
		)
		if err != nil {
			log.Errorf("billing webhook signature failed: %v", err)

			return c.JSON(http.StatusBadRequest, map[string]string{"error": "signature verification failed"})
		}

		sink.Handle(c.Request().Context(), event)

		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}
}
