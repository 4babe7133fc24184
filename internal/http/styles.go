package http

import (
	"net/http"

	echo "github.com/labstack/echo/v4"

	"github.com/DivyanshuTiwari-1/makeupai/internal/inference"
)

// stylesHandler lists the makeup style catalog.
func stylesHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"success": true,
			"styles":  inference.Styles(),
		})
	}
}
