// Package httpgen talks to a plain HTTP text-completion service.
//
// The service receives {"system", "prompt", "model"} as JSON and answers with {"text"}.
package httpgen

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/ai"
)

const (
	contentType    = "application/json"
	userAgent      = "spigell/talent-matcher"
	defaultTimeout = 30 * time.Second
	// answers above this size are treated as malformed
	maxBodyBytes = 1 << 20
)

var errBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)

type request struct {
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

type response struct {
	Text string `json:"text"`
}

// Client is an ai.Generator backed by an HTTP endpoint.
type Client struct {
	URL        string
	APIKey     string
	UserAgent  string
	HTTPClient *http.Client

	model  string
	logger *zap.Logger
}

// New creates a client for the completion endpoint at url.
func New(url, model, apiKey string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("completion endpoint url is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		URL:       url,
		APIKey:    strings.TrimSpace(apiKey),
		UserAgent: userAgent,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		model:  strings.TrimSpace(model),
		logger: logger,
	}, nil
}

// Model returns the model name forwarded to the endpoint.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// GenerateContent posts the prompt and returns the "text" field of the answer.
// Transport failures and non-2xx statuses wrap ai.ErrBackendUnavailable; undecodable
// bodies wrap ai.ErrMalformedResponse.
func (c *Client) GenerateContent(ctx context.Context, system, message string) (string, error) {
	payload, err := json.Marshal(request{System: system, Prompt: message, Model: c.model})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.request(req)
	if err != nil {
		return "", ai.Unavailable(err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if errors.Is(err, errBodyTooLarge) {
		return "", ai.Malformed(err)
	}
	if err != nil {
		return "", ai.Unavailable(fmt.Errorf("read completion response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", ai.Unavailable(fmt.Errorf("bad status: %s", resp.Status))
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", ai.Malformed(fmt.Errorf("decode completion response: %w", err))
	}

	text := strings.TrimSpace(decoded.Text)
	if text == "" {
		return "", ai.Malformed(errors.New("completion response has no text"))
	}

	return text, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", c.UserAgent)
	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBodyBytes {
		return nil, errBodyTooLarge
	}
	return data, nil
}
