package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/tidwall/gjson"

	"github.com/sadopc/apidoc-recorder/internal/capture"
	"github.com/sadopc/apidoc-recorder/internal/export/har"
	"github.com/sadopc/apidoc-recorder/internal/recorder"
)

// APIError is a non-2xx response from the control API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("control api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("control api: %s (status %d)", e.Message, e.StatusCode)
}

// Client talks to a running control API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for addr, either host:port or a full URL.
func NewClient(addr string) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{baseURL: base, http: &http.Client{Timeout: 10 * time.Second}}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// State returns the current recording state.
func (c *Client) State(ctx context.Context) (recorder.State, error) {
	var st recorder.State
	err := c.do(ctx, http.MethodGet, "/api/state", nil, &st)
	return st, err
}

// SetState replaces the recording state.
func (c *Client) SetState(ctx context.Context, st recorder.State) error {
	return c.do(ctx, http.MethodPut, "/api/state", st, nil)
}

// Entries returns every recorded entry.
func (c *Client) Entries(ctx context.Context) ([]capture.Entry, error) {
	var entries []capture.Entry
	err := c.do(ctx, http.MethodGet, "/api/requests", nil, &entries)
	return entries, err
}

// Entry returns entry number seq, counting from 1.
func (c *Client) Entry(ctx context.Context, seq int) (capture.Entry, error) {
	var e capture.Entry
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/requests/%d", seq), nil, &e)
	return e, err
}

// Append records e and returns the new count.
func (c *Client) Append(ctx context.Context, e capture.Entry) (int, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/requests", e, &raw); err != nil {
		return 0, err
	}
	return int(gjson.GetBytes(raw, "count").Int()), nil
}

// Clear removes all entries and stops recording.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/requests", nil, nil)
}

// ExportHAR downloads the HAR document and its suggested file name.
func (c *Client) ExportHAR(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/export.har", nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("exporting: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading export: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, "", har.ErrNoEntries
	}
	if resp.StatusCode/100 != 2 {
		return nil, "", apiError(resp.StatusCode, data)
	}

	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return data, name, nil
}

// Watch calls fn for every state change until ctx is cancelled or the
// server closes the stream.
func (c *Client) Watch(ctx context.Context, fn func(recorder.State)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", wsURL, err)
	}
	defer conn.CloseNow()

	for {
		var ev Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("reading event: %w", err)
		}
		if ev.Type == EventStateChanged {
			fn(ev.State)
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return apiError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func apiError(status int, body []byte) error {
	return &APIError{StatusCode: status, Message: gjson.GetBytes(body, "message").String()}
}

// IsUnavailable reports whether err means no server answered.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return err != nil && !errors.As(err, &apiErr) && !errors.Is(err, har.ErrNoEntries)
}
