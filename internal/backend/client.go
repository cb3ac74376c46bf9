// Package backend talks to the festival registration backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	CreateTeamPath            = "/registration/createteam/"
	JoinTeamPath              = "/account/jointeam/"
	PreRegisterTeamPath       = "/register/team"
	PreRegisterContingentPath = "/register/contingent"
	UserRegisterPath          = "/account/userregister/"
	UpdateInfoPath            = "/account/updateInfo/"
	DisplayProfilePath        = "/account/displayProfile/"
	LoginPath                 = "/account/login/"
	RefereePath               = "/referee"

	maxResponseBytes = 1 << 20
)

// ErrTransport marks failures to reach the backend or read its reply.
var ErrTransport = errors.New("backend unreachable")

// APIError is a non-2xx reply. Message is what the backend reported, if anything.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

type Request struct {
	Method string
	Path   string
	Token  string
	Body   any
}

type Response struct {
	Status  int
	Message string
	Body    json.RawMessage
}

// Decode unmarshals the raw reply body into dst.
func (r *Response) Decode(dst any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.Body, dst)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Do sends req as JSON. A non-2xx reply is returned as *APIError; anything that
// prevents a reply is wrapped in ErrTransport.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	logger := log.Ctx(ctx).With().
		Str("method", req.Method).
		Str("backend_path", req.Path).
		Logger()

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Warn().Err(err).Msg("Backend request failed")
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("Failed to read backend response")
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	message := extractMessage(raw)
	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: message}
	}
	return &Response{
		Status:  resp.StatusCode,
		Message: message,
		Body:    json.RawMessage(raw),
	}, nil
}

type messageBody struct {
	Message   any `json:"message"`
	ErrorText any `json:"Error"`
}

// extractMessage reads "message", falling back to "Error". Non-JSON bodies and
// non-string values yield "".
func extractMessage(raw []byte) string {
	var body messageBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if msg, ok := body.Message.(string); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	if msg, ok := body.ErrorText.(string); ok && strings.TrimSpace(msg) != "" {
		return msg
	}
	return ""
}
