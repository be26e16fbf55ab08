package submit

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

var (
	// ErrEmptyScenario is returned when the scenario description is blank.
	ErrEmptyScenario = errors.New("please enter a scenario description")
	// ErrNoEntries is returned when there is nothing to send.
	ErrNoEntries = errors.New("no requests to send")
	// ErrNoSession is returned when the traffic upload succeeds without a session id.
	ErrNoSession = errors.New("traffic upload returned no session_id")
)

// Steps of the submit pipeline, as reported in StatusError.
const (
	StepTraffic  = "traffic"
	StepGenerate = "generate"
)

// StatusError reports a non-2xx response from one pipeline step.
type StatusError struct {
	Step       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	switch e.Step {
	case StepTraffic:
		return fmt.Sprintf("traffic upload failed: %d", e.StatusCode)
	case StepGenerate:
		return fmt.Sprintf("generation failed: %d", e.StatusCode)
	default:
		return fmt.Sprintf("%s failed: %d", e.Step, e.StatusCode)
	}
}

// Result is the outcome of a successful submit.
type Result struct {
	SessionID string
	DocsURL   string
}

// Client sends captured traffic to the documentation backend.
type Client struct {
	baseURL   string
	timeout   time.Duration
	proxyConf *ProxyConfig
	tlsConfig *tls.Config
	log       zerolog.Logger
}

// New creates a client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: normalizeBase(baseURL),
		timeout: 30 * time.Second,
		log:     zerolog.Nop(),
	}
}

// SetTimeout bounds each backend call.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// SetProxy configures proxy settings for the client.
func (c *Client) SetProxy(proxyURL, noProxy string) {
	if proxyURL == "" {
		c.proxyConf = nil
		return
	}
	c.proxyConf = &ProxyConfig{URL: proxyURL, NoProxy: noProxy}
}

// SetTLSConfig sets the TLS configuration used to reach the backend.
func (c *Client) SetTLSConfig(cfg *tls.Config) {
	c.tlsConfig = cfg
}

// SetLogger sets the client logger.
func (c *Client) SetLogger(l zerolog.Logger) {
	c.log = l
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// DocsURL returns where generated documentation can be viewed.
func (c *Client) DocsURL() string { return c.baseURL + "/docs/" }

type trafficRequest struct {
	Scenario string          `json:"scenario"`
	Logs     []capture.Entry `json:"logs"`
}

type generateRequest struct {
	SessionID string `json:"session_id"`
}

// Submit uploads entries under scenario, then triggers documentation
// generation for the returned session. Either step failing ends the call;
// nothing is retried.
func (c *Client) Submit(ctx context.Context, scenario string, entries []capture.Entry) (Result, error) {
	scenario = strings.TrimSpace(scenario)
	if scenario == "" {
		return Result{}, ErrEmptyScenario
	}
	if len(entries) == 0 {
		return Result{}, ErrNoEntries
	}

	transport, err := c.buildTransport()
	if err != nil {
		return Result{}, fmt.Errorf("configuring transport: %w", err)
	}
	client := &http.Client{Timeout: c.timeout, Transport: transport}

	body, err := c.post(ctx, client, StepTraffic, "/api/traffic", trafficRequest{Scenario: scenario, Logs: entries})
	if err != nil {
		return Result{}, err
	}
	sid := gjson.GetBytes(body, "session_id")
	if !sid.Exists() || sid.String() == "" {
		return Result{}, ErrNoSession
	}
	sessionID := sid.String()
	c.log.Info().Str("session_id", sessionID).Int("entries", len(entries)).Msg("traffic uploaded")

	if _, err := c.post(ctx, client, StepGenerate, "/api/generate", generateRequest{SessionID: sessionID}); err != nil {
		return Result{}, err
	}
	c.log.Info().Str("session_id", sessionID).Msg("generation triggered")

	return Result{SessionID: sessionID, DocsURL: c.DocsURL()}, nil
}

func (c *Client) post(ctx context.Context, client *http.Client, step, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", step, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", step, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: sending request: %w", step, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", step, err)
	}
	c.log.Debug().Str("step", step).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Step: step, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// normalizeBase trims whitespace and a single trailing slash.
func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	return strings.TrimSuffix(base, "/")
}
