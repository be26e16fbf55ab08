package har

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

// Creator identity written into every exported document.
const (
	CreatorName    = "API Doc Recorder"
	CreatorVersion = "1.0.0"
)

// ErrNoEntries is returned when there is nothing to export.
var ErrNoEntries = errors.New("no requests to export")

// HAR represents the HAR 1.2 format for export.
type HAR struct {
	Log HARLog `json:"log"`
}

// HARLog is the top-level log object.
type HARLog struct {
	Version string     `json:"version"`
	Creator HARCreator `json:"creator"`
	Entries []HAREntry `json:"entries"`
}

// HARCreator identifies the tool that created the HAR.
type HARCreator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HAREntry represents a single request/response pair.
type HAREntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         HARRequest  `json:"request"`
	Response        HARResponse `json:"response"`
	Timings         HARTimings  `json:"timings"`
}

// HARRequest is the request portion of an entry.
type HARRequest struct {
	Method      string       `json:"method"`
	URL         string       `json:"url"`
	HTTPVersion string       `json:"httpVersion"`
	Headers     []HARHeader  `json:"headers"`
	QueryString []HARQuery   `json:"queryString"`
	PostData    *HARPostData `json:"postData,omitempty"`
	HeadersSize int          `json:"headersSize"`
	BodySize    int          `json:"bodySize"`
}

// HARResponse is the response portion of an entry.
type HARResponse struct {
	Status      int         `json:"status"`
	StatusText  string      `json:"statusText"`
	HTTPVersion string      `json:"httpVersion"`
	Headers     []HARHeader `json:"headers"`
	Content     HARContent  `json:"content"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
}

// HARHeader is a name/value pair for headers.
type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARQuery is a name/value pair for query string parameters.
type HARQuery struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARPostData is the body of a request.
type HARPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// HARContent is the body of a response.
type HARContent struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// HARTimings holds timing info for an entry. Only the total is known, so it
// is reported as wait time.
type HARTimings struct {
	Send    float64 `json:"send"`
	Wait    float64 `json:"wait"`
	Receive float64 `json:"receive"`
}

// Build converts entries into a HAR document. Entries without a capture
// timestamp are stamped with now.
func Build(entries []capture.Entry, now time.Time) HAR {
	out := make([]HAREntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, buildEntry(e, now))
	}
	return HAR{
		Log: HARLog{
			Version: "1.2",
			Creator: HARCreator{Name: CreatorName, Version: CreatorVersion},
			Entries: out,
		},
	}
}

// Marshal renders the document as indented JSON.
func Marshal(doc HAR) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Export builds and marshals entries in one step.
func Export(entries []capture.Entry, now time.Time) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return Marshal(Build(entries, now))
}

// FileName returns the download name for an export made at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("apidoc-%d.har", now.UnixMilli())
}

// FileMode is the permission of written HAR files. Exports carry full
// request and response bodies.
const FileMode os.FileMode = 0o600

// WriteFile exports entries into dir and returns the path written.
func WriteFile(dir string, entries []capture.Entry, now time.Time) (string, error) {
	data, err := Export(entries, now)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(now))
	if err := Save(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Save writes an exported document to path, creating its directory.
func Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	if err := os.WriteFile(path, data, FileMode); err != nil {
		return fmt.Errorf("writing HAR: %w", err)
	}
	return nil
}

func buildEntry(e capture.Entry, now time.Time) HAREntry {
	started := e.Timestamp
	if started.IsZero() {
		started = now
	}
	latency := float64(e.LatencyMs)

	return HAREntry{
		StartedDateTime: started.UTC().Format(time.RFC3339Nano),
		Time:            latency,
		Request:         buildHARRequest(e),
		Response:        buildHARResponse(e),
		Timings:         HARTimings{Wait: latency},
	}
}

func buildHARRequest(e capture.Entry) HARRequest {
	harReq := HARRequest{
		Method:      e.Method,
		URL:         e.URL,
		HTTPVersion: "HTTP/1.1",
		Headers:     headerList(e.RequestHeaders),
		QueryString: queryList(e.URL, e.QueryParams),
		HeadersSize: -1,
		BodySize:    len(e.RequestBody),
	}

	if e.RequestBody != "" {
		harReq.PostData = &HARPostData{
			MimeType: e.ContentType,
			Text:     e.RequestBody,
		}
	}

	return harReq
}

func buildHARResponse(e capture.Entry) HARResponse {
	return HARResponse{
		Status:      e.StatusCode,
		StatusText:  "",
		HTTPVersion: "HTTP/1.1",
		Headers:     headerList(e.ResponseHeaders),
		HeadersSize: -1,
		BodySize:    len(e.ResponseBody),
		Content: HARContent{
			Size:     len(e.ResponseBody),
			MimeType: e.ResponseContentType,
			Text:     e.ResponseBody,
		},
	}
}

func headerList(m map[string]string) []HARHeader {
	out := make([]HARHeader, 0, len(m))
	for k, v := range m {
		out = append(out, HARHeader{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// queryList flattens params into pairs. Names follow their first appearance
// in rawURL; names the URL does not mention come last, sorted. A nil map
// yields an empty list.
func queryList(rawURL string, params map[string][]string) []HARQuery {
	out := []HARQuery{}
	if len(params) == 0 {
		return out
	}

	seen := make(map[string]bool, len(params))
	var names []string
	for _, name := range capture.QueryKeyOrder(rawURL) {
		if _, ok := params[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var rest []string
	for name := range params {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	for _, name := range names {
		for _, v := range params[name] {
			out = append(out, HARQuery{Name: name, Value: v})
		}
	}
	return out
}
