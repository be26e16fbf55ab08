package capture

import (
	"context"
	"time"
)

// Entry is one recorded HTTP exchange in its normalized form. The JSON shape
// matches what the documentation backend accepts as a traffic log.
type Entry struct {
	ID                  string              `json:"id,omitempty"`
	Seq                 int                 `json:"seq,omitempty"`
	Timestamp           time.Time           `json:"timestamp"`
	Method              string              `json:"method"`
	URL                 string              `json:"url"`
	Host                string              `json:"host"`
	Path                string              `json:"path"`
	QueryParams         map[string][]string `json:"query_params"`
	RequestHeaders      map[string]string   `json:"request_headers"`
	RequestBody         string              `json:"request_body"`
	ContentType         string              `json:"content_type"`
	StatusCode          int                 `json:"status_code"`
	ResponseHeaders     map[string]string   `json:"response_headers"`
	ResponseBody        string              `json:"response_body"`
	ResponseContentType string              `json:"response_content_type"`
	LatencyMs           int64               `json:"latency_ms"`
}

// Valid reports whether the entry carries the fields every entry must have.
func (e Entry) Valid() bool {
	return e.Method != "" && e.URL != ""
}

// ValidStatus reports whether code is a real HTTP status, or 0 for unknown.
func ValidStatus(code int) bool {
	return code == 0 || (code >= 100 && code <= 599)
}

// Header is a single name/value pair as seen on the wire. Names may repeat.
type Header struct {
	Name  string
	Value string
}

// PostData is the request payload of an exchange.
type PostData struct {
	MimeType string
	Text     string
}

// BodyFunc lazily fetches the response body of an exchange.
type BodyFunc func(ctx context.Context) (string, error)

// Exchange is one finished request/response pair as reported by a capture
// source, before filtering and normalization.
type Exchange struct {
	Method          string
	URL             string
	RequestHeaders  []Header
	PostData        *PostData
	Status          int
	ResponseHeaders []Header
	MimeType        string
	// ElapsedMs is the total time of the exchange. Negative or NaN means unknown.
	ElapsedMs float64
	StartedAt time.Time
	Body      BodyFunc
}

// FetchBody returns the response body, or an empty string when the exchange
// has no fetcher.
func (ex Exchange) FetchBody(ctx context.Context) (string, error) {
	if ex.Body == nil {
		return "", nil
	}
	return ex.Body(ctx)
}

// StaticBody returns a BodyFunc that always yields s.
func StaticBody(s string) BodyFunc {
	return func(context.Context) (string, error) { return s, nil }
}
