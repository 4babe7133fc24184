package http

import (
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/DivyanshuTiwari-1/makeupai/internal/credit"
	"github.com/DivyanshuTiwari-1/makeupai/internal/http/middleware"
)

// creditsHandler reports the caller's credit and subscription state.
func creditsHandler(ledger *credit.Ledger) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := middleware.IdentityFromCtx(c)
		if !ok {
			// gate guarantees identity on protected routes; reaching here
			// without one means the gate was not in front of us
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		status, err := ledger.CheckCredits(c.Request().Context(), identity.ID)
		if err != nil {
			log.Errorf("credit check failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch credit information"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"success":      true,
			"userId":       identity.ID,
			"credits":      status.Credits,
			"hasCredits":   status.HasCredits,
			"isSubscribed": status.IsSubscribed,
		})
	}
}
