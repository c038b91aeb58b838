package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/codequestlab/codequest-backend/internal/config"
)

// Client errors.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrServiceUnavailable  = errors.New("execution service unavailable")
	ErrExecutionTimeout    = errors.New("execution result not ready after poll budget")
)

// Limits bound a single execution on the judge.
type Limits struct {
	CPUTimeSecs int
	MemoryKB    int
}

// Client talks to a Judge0-compatible execution service. It keeps no state
// between calls beyond the correlation token it returns; every method is a
// single network round-trip except Run, which loops Poll until a terminal
// status or the poll budget runs out.
type Client struct {
	baseURL      string
	authToken    string
	pollInterval time.Duration
	maxPolls     int
	httpClient   *http.Client
	log          zerolog.Logger
}

// NewClient creates a judge client from application config.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL:      cfg.JudgeURL,
		authToken:    cfg.JudgeAuthToken,
		pollInterval: cfg.JudgePollInterval,
		maxPolls:     cfg.JudgeMaxPolls,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		log:          log.With().Str("component", "judge_client").Logger(),
	}
}

type submitRequest struct {
	SourceCode   string `json:"source_code"`
	LanguageID   int    `json:"language_id"`
	Stdin        string `json:"stdin,omitempty"`
	CPUTimeLimit int    `json:"cpu_time_limit"`
	MemoryLimit  int    `json:"memory_limit"`
}

type submitResponse struct {
	Token string `json:"token"`
}

// Submit sends one execution to the judge and returns its correlation token.
// Returns ErrUnsupportedLanguage before any network call if the language has
// no judge mapping, and ErrServiceUnavailable on transport or non-2xx errors.
func (c *Client) Submit(ctx context.Context, code, language, stdin string, limits Limits) (string, error) {
	langID, ok := LanguageID(language)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	body, err := json.Marshal(submitRequest{
		SourceCode:   code,
		LanguageID:   langID,
		Stdin:        stdin,
		CPUTimeLimit: limits.CPUTimeSecs,
		MemoryLimit:  limits.MemoryKB,
	})
	if err != nil {
		return "", fmt.Errorf("marshal submit request: %w", err)
	}

	url := c.baseURL + "/submissions?base64_encoded=false&wait=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: submit returned %d: %s", ErrServiceUnavailable, resp.StatusCode, detail)
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("%w: decode submit response: %v", ErrServiceUnavailable, err)
	}
	if sr.Token == "" {
		return "", fmt.Errorf("%w: submit returned empty token", ErrServiceUnavailable)
	}

	return sr.Token, nil
}

// Poll fetches the current result for a correlation token.
func (c *Client) Poll(ctx context.Context, token string) (*Result, error) {
	url := c.baseURL + "/submissions/" + token
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: poll returned %d: %s", ErrServiceUnavailable, resp.StatusCode, detail)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode poll response: %v", ErrServiceUnavailable, err)
	}
	result.Token = token

	return &result, nil
}

// Run submits one execution and polls until a terminal status is observed.
// The poll budget (maxPolls at pollInterval spacing) bounds how long a
// queued or processing execution can hold the caller; when it is exhausted
// Run fails with ErrExecutionTimeout.
func (c *Client) Run(ctx context.Context, code, language, stdin string, limits Limits) (*Result, error) {
	token, err := c.Submit(ctx, code, language, stdin, limits)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < c.maxPolls; attempt++ {
		result, err := c.Poll(ctx, token)
		if err != nil {
			return nil, err
		}

		if result.Status.Terminal() {
			c.log.Debug().
				Str("token", token).
				Int("status_id", result.Status.ID).
				Int("polls", attempt+1).
				Msg("Execution reached terminal status")
			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	return nil, fmt.Errorf("%w: token %s", ErrExecutionTimeout, token)
}
