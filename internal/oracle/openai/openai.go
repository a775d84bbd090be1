package openai

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

	"github.com/charmbracelet/log"

	"ndaredline/internal/logging"
	"ndaredline/internal/oracle"
)

// ErrRateLimited is matched by a *StatusError carrying HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// StatusError reports a non-2xx reply from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai responses failed: %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return nil
}

// Client calls the OpenAI Responses API and implements oracle.Client.
type Client struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	logger *log.Logger
}

// Config configures the Responses API client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Timeout of zero keeps the upstream SDK default of ten minutes.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new Responses API client using the provided configuration.
func NewClient(cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: missing API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		t := cfg.Timeout
		if t == 0 {
			t = 10 * time.Minute
		}
		hc = &http.Client{Timeout: t}
	}
	return &Client{
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/responses",
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		client: hc,
		logger: logging.OrDiscard(logger),
	}, nil
}

type wireTool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids"`
}

type wireRequest struct {
	Model        string     `json:"model"`
	Instructions string     `json:"instructions,omitempty"`
	Input        string     `json:"input"`
	Tools        []wireTool `json:"tools,omitempty"`
}

// Invoke performs exactly one API call and never returns a Go error: every
// transport, status, decode or extraction problem becomes a failure Result.
func (c *Client) Invoke(ctx context.Context, req oracle.Request) oracle.Result {
	resp, err := c.Create(ctx, req)
	if err != nil {
		return oracle.Failure(err)
	}
	text, err := resp.Text()
	if err != nil {
		return oracle.Failure(err)
	}
	return oracle.Success(text)
}

// Create sends the request and decodes the response payload.
func (c *Client) Create(ctx context.Context, req oracle.Request) (*Response, error) {
	body := wireRequest{Model: c.model, Instructions: req.Instructions, Input: req.Input}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, wireTool{Type: "file_search", VectorStoreIDs: t.VectorStoreIDs})
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("calling responses API", "model", c.model, "tools", len(body.Tools), "input_chars", len(req.Input))
	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	c.logger.Debug("responses API returned", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(slurp))}
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

var _ oracle.Client = (*Client)(nil)
