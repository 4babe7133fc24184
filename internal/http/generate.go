package http

import (
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/DivyanshuTiwari-1/makeupai/internal/credit"
	"github.com/DivyanshuTiwari-1/makeupai/internal/http/middleware"
	"github.com/DivyanshuTiwari-1/makeupai/internal/inference"
	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
	"github.com/DivyanshuTiwari-1/makeupai/internal/repository"
	"github.com/DivyanshuTiwari-1/makeupai/internal/util"
)

const maxImageBytes = 8 << 20 // 8 MiB upload ceiling

// generateHandler meters a credit and runs one makeup generation.
func generateHandler(ledger *credit.Ledger, gens repository.GenerationsRepository, generator inference.Generator) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		if generator == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "generation not configured"})
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "no image provided"})
		}
		if fileHeader.Size > maxImageBytes {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "image too large"})
		}

		styleID := strings.TrimSpace(c.FormValue("styleId"))
		if styleID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "no style selected"})
		}
		style, ok := inference.StyleByID(styleID)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid style selected"})
		}
		customPrompt := strings.TrimSpace(c.FormValue("customPrompt"))

		ctx := c.Request().Context()

		status, err := ledger.CheckCredits(ctx, identity.ID)
		if err != nil {
			log.Errorf("credit check failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to check credits"})
		}
		if !status.HasCredits {
			return c.JSON(http.StatusPaymentRequired, map[string]any{
				"error":        "You have no credits remaining. Please upgrade to premium for unlimited generations.",
				"needsUpgrade": true,
			})
		}

		if !status.IsSubscribed {
			deducted, err := ledger.DeductCredit(ctx, identity.ID)
			if err != nil {
				log.Errorf("credit deduction failed: %v", err)

				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to deduct credit"})
			}
			if !deducted {
				// another request spent the last credit first
				return c.JSON(http.StatusPaymentRequired, map[string]any{
					"error":        "You have no credits remaining. Please upgrade to premium for unlimited generations.",
					"needsUpgrade": true,
				})
			}
		}

		dataURL, err := readImageDataURL(fileHeader)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable image"})
		}

		result, err := generator.Generate(ctx, dataURL, style, customPrompt)
		if err != nil {
			log.Errorf("generation failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to generate makeup image"})
		}

		gen := model.Generation{
			ID:        util.NewULID(),
			UserID:    identity.ID,
			Style:     style.Name,
			ImageURL:  result.ImageURL,
			Breakdown: result.Breakdown,
		}
		if err := gens.Insert(ctx, gen); err != nil {
			// history is best-effort; the caller already paid and got a result
			log.Errorf("generation history insert failed: %v", err)
		}

		// advisory only: computed from the pre-deduct snapshot, so a
		// concurrent generation can make the stored counter lower
		creditsRemaining := credit.UnlimitedCredits
		if !status.IsSubscribed {
			creditsRemaining = status.Credits - 1
		}

		return c.JSON(http.StatusOK, map[string]any{
			"success":           true,
			"generatedImageUrl": result.ImageURL,
			"makeupBreakdown":   result.Breakdown,
			"style":             style.Name,
			"creditsRemaining":  creditsRemaining,
			"isSubscribed":      status.IsSubscribed,
		})
	}
}

func readImageDataURL(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		return "", err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
