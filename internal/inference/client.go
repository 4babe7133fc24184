// Package inference calls the hosted image-generation provider. The
// provider is an external collaborator: image plus style in, generated
// image plus text breakdown out.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DivyanshuTiwari-1/makeupai/internal/config"
)

// Result is one completed generation.
type Result struct {
	ImageURL  string
	Breakdown string
}

// Generator is the opaque inference call the generate handler depends on.
type Generator interface {
	Generate(ctx context.Context, imageDataURL string, style Style, customPrompt string) (Result, error)
}

// Client talks to a Replicate-style prediction API. A nil Client means the
// integration is unconfigured and the handler answers 503.
type Client struct {
	baseURL string
	token   string
	model   string
	http    *http.Client
}

func NewClient(cfg config.InferenceConfig) *Client {
	if cfg.Token == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
	}
}

var _ Generator = (*Client)(nil)

type predictionRequest struct {
	Model string          `json:"model"`
	Input predictionInput `json:"input"`
}

type predictionInput struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

type predictionResponse struct {
	Output    []string `json:"output"`
	Breakdown string   `json:"breakdown"`
	Error     string   `json:"error"`
}

func (c *Client) Generate(ctx context.Context, imageDataURL string, style Style, customPrompt string) (Result, error) {
	prompt := style.Prompt
	if customPrompt != "" {
		prompt = prompt + " " + customPrompt
	}

	payload, err := json.Marshal(predictionRequest{
		Model: c.model,
		Input: predictionInput{Image: imageDataURL, Prompt: prompt},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("inference call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("inference call: provider status %d", resp.StatusCode)
	}

	var pr predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return Result{}, fmt.Errorf("decode prediction response: %w", err)
	}
	if pr.Error != "" {
		return Result{}, fmt.Errorf("inference call: %s", pr.Error)
	}
	if len(pr.Output) == 0 {
		return Result{}, fmt.Errorf("inference call: empty output")
	}

	return Result{ImageURL: pr.Output[0], Breakdown: pr.Breakdown}, nil
}
