package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haulmarket/billing-service/internal/application"
	"github.com/haulmarket/billing-service/pkg/logging"
	"github.com/haulmarket/billing-service/pkg/resilience"
)

// Config holds the rendering collaborator endpoint settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   *resilience.RetryConfig
}

// Client calls the document-rendering collaborator over HTTP. Rendering is
// fire-and-forget from the caller's perspective, so every call goes through
// a circuit breaker: a flapping renderer trips the breaker instead of tying
// up issuance goroutines on a dead endpoint. Transient failures retry with
// backoff inside a single breaker execution.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.RetryConfig
	logger     *logging.Logger
}

// NewClient creates a rendering client
func NewClient(config Config, logger *logging.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	retry := config.Retry
	if retry == nil {
		retry = resilience.DefaultRetryConfig()
	}

	return &Client{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker: resilience.NewCircuitBreaker(
			resilience.DefaultCircuitBreakerConfig("document-renderer"),
			logger.Logger,
		),
		retry:  retry,
		logger: logger.WithComponent("renderer-client"),
	}
}

type renderPayload struct {
	OwnerRef     string `json:"ownerRef"`
	DocumentType string `json:"documentType"`
	Filename     string `json:"filename"`
}

// Render asks the collaborator to produce the artifact for a registered
// document
func (c *Client) Render(ctx context.Context, req application.RenderRequest) error {
	payload, err := json.Marshal(renderPayload{
		OwnerRef:     req.OwnerRef,
		DocumentType: req.DocumentType,
		Filename:     req.Filename,
	})
	if err != nil {
		return fmt.Errorf("failed to encode render request: %w", err)
	}

	_, err = c.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, resilience.Retry(ctx, c.retry, c.logger.Logger, func() error {
			return c.post(ctx, payload)
		})
	})
	return err
}

func (c *Client) post(ctx context.Context, payload []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("render call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("renderer returned %d: %s", resp.StatusCode, body)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
