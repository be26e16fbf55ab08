package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

var sampleEntries = []capture.Entry{{
	Method:      "GET",
	URL:         "http://api.example.com/users?id=5",
	Host:        "api.example.com",
	Path:        "/users",
	QueryParams: map[string][]string{"id": {"5"}},
	StatusCode:  200,
	LatencyMs:   37,
}}

type backend struct {
	trafficStatus  int
	generateStatus int
	trafficBody    string

	trafficCalls  atomic.Int32
	generateCalls atomic.Int32

	mu        sync.Mutex
	scenario  string
	logs      int
	sessionID string
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/traffic", func(w http.ResponseWriter, r *http.Request) {
		b.trafficCalls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("traffic method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("traffic content type = %s", ct)
		}
		var req struct {
			Scenario string            `json:"scenario"`
			Logs     []json.RawMessage `json:"logs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding traffic body: %v", err)
		}
		b.mu.Lock()
		b.scenario = req.Scenario
		b.logs = len(req.Logs)
		b.mu.Unlock()
		if b.trafficStatus != 0 {
			w.WriteHeader(b.trafficStatus)
		}
		body := b.trafficBody
		if body == "" {
			body = `{"session_id":"sess-123"}`
		}
		w.Write([]byte(body))
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		b.generateCalls.Add(1)
		var req struct {
			SessionID string `json:"session_id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.sessionID = req.SessionID
		b.mu.Unlock()
		if b.generateStatus != 0 {
			w.WriteHeader(b.generateStatus)
		}
	})
	return mux
}

func TestSubmit(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	c := New("  " + srv.URL + "/ ")
	res, err := c.Submit(context.Background(), "  user signs up ", sampleEntries)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if res.SessionID != "sess-123" {
		t.Errorf("session = %s", res.SessionID)
	}
	if res.DocsURL != srv.URL+"/docs/" {
		t.Errorf("docs url = %s", res.DocsURL)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scenario != "user signs up" {
		t.Errorf("scenario = %q", b.scenario)
	}
	if b.logs != 1 {
		t.Errorf("logs = %d", b.logs)
	}
	if b.sessionID != "sess-123" {
		t.Errorf("generate session = %q", b.sessionID)
	}
	if b.trafficCalls.Load() != 1 || b.generateCalls.Load() != 1 {
		t.Errorf("calls = %d/%d", b.trafficCalls.Load(), b.generateCalls.Load())
	}
}

func TestSubmitTrafficFailureSkipsGenerate(t *testing.T) {
	b := &backend{trafficStatus: http.StatusInternalServerError, trafficBody: "boom"}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	_, err := New(srv.URL).Submit(context.Background(), "checkout", sampleEntries)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Step != StepTraffic || se.StatusCode != 500 {
		t.Errorf("status error = %+v", se)
	}
	if se.Error() != "traffic upload failed: 500" {
		t.Errorf("message = %q", se.Error())
	}
	if b.generateCalls.Load() != 0 {
		t.Error("generate must not be called after a failed upload")
	}
}

func TestSubmitGenerateFailure(t *testing.T) {
	b := &backend{generateStatus: http.StatusBadGateway}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	_, err := New(srv.URL).Submit(context.Background(), "checkout", sampleEntries)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Step != StepGenerate || se.StatusCode != 502 {
		t.Errorf("status error = %+v", se)
	}
	if se.Error() != "generation failed: 502" {
		t.Errorf("message = %q", se.Error())
	}
}

func TestSubmitMissingSession(t *testing.T) {
	b := &backend{trafficBody: `{"ok":true}`}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	_, err := New(srv.URL).Submit(context.Background(), "checkout", sampleEntries)
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
	if b.generateCalls.Load() != 0 {
		t.Error("generate must not be called without a session")
	}
}

func TestSubmitValidation(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()
	c := New(srv.URL)

	if _, err := c.Submit(context.Background(), "   ", sampleEntries); !errors.Is(err, ErrEmptyScenario) {
		t.Errorf("blank scenario err = %v", err)
	}
	if _, err := c.Submit(context.Background(), "x", nil); !errors.Is(err, ErrNoEntries) {
		t.Errorf("no entries err = %v", err)
	}
	if b.trafficCalls.Load() != 0 {
		t.Error("validation failures must not reach the backend")
	}
}

func TestSubmitTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetTimeout(20 * time.Millisecond)
	if _, err := c.Submit(context.Background(), "x", sampleEntries); err == nil {
		t.Error("expected timeout error")
	}
}

func TestSubmitContextCancelled(t *testing.T) {
	b := &backend{}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(srv.URL).Submit(ctx, "x", sampleEntries); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNormalizeBase(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080/":  "http://localhost:8080",
		"http://localhost:8080":   "http://localhost:8080",
		" http://x.test/api/ ":    "http://x.test/api",
		"http://localhost:8080//": "http://localhost:8080/",
	}
	for in, want := range tests {
		if got := normalizeBase(in); got != want {
			t.Errorf("normalizeBase(%q) = %q, want %q", in, got, want)
		}
	}
}
