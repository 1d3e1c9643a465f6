package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ngoctd/storefront/internal/logger"
	"github.com/ngoctd/storefront/internal/model"
)

// Client is a stateless wrapper around the remote store API. It holds no
// session: operations needing authentication take the bearer token as an
// argument, so the auth store stays the single owner of credentials.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient creates a store API client. An empty base URL is a configuration
// error and fails immediately, before any request is attempted.
func NewClient(baseURL string, timeout time.Duration, logger *logger.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("store api base url is not configured")
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// statusMessage is the error body shape every endpoint uses for rejections.
type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// do sends a JSON request and decodes a 2xx response into out. Non-2xx
// responses come back as *model.APIError carrying the server message when
// the body has one.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("API client: request failed",
			"method", method,
			"path", path,
			"error", err.Error())
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var msg statusMessage
		// A rejection with an undecodable body still surfaces as an API
		// error, just with the generic fallback message.
		_ = json.NewDecoder(res.Body).Decode(&msg)
		c.logger.Error("API client: server rejected request",
			"method", method,
			"path", path,
			"status", res.StatusCode,
			"message", msg.Message)
		return model.NewAPIError(res.StatusCode, msg.Message)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			c.logger.Error("API client: failed to decode response",
				"method", method,
				"path", path,
				"error", err.Error())
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// errStatus returns the HTTP status carried by err, or zero when err is not
// a server rejection.
func errStatus(err error) int {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
