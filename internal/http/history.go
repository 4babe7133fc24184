package http

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v4"

	"github.com/DivyanshuTiwari-1/makeupai/internal/http/middleware"
	"github.com/DivyanshuTiwari-1/makeupai/internal/repository"
)

// historyHandler pages through the caller's past generations.
func historyHandler(gens repository.GenerationsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		rows, err := gens.ListByUser(c.Request().Context(), identity.ID, limit, offset)
		if err != nil {
			c.Logger().Errorf("history list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
