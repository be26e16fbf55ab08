package har

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

// HAR represents the HAR 1.2 format.
type HAR struct {
	Log HARLog `json:"log"`
}

// HARLog is the top-level log object.
type HARLog struct {
	Version string     `json:"version"`
	Creator *Creator   `json:"creator,omitempty"`
	Entries []HAREntry `json:"entries"`
}

// Creator identifies the tool that created the HAR.
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HAREntry represents a single request/response pair.
type HAREntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         HARRequest  `json:"request"`
	Response        HARResponse `json:"response"`
}

// HARRequest is the request portion of an entry.
type HARRequest struct {
	Method   string       `json:"method"`
	URL      string       `json:"url"`
	Headers  []HARHeader  `json:"headers"`
	PostData *HARPostData `json:"postData,omitempty"`
}

// HARResponse is the response portion of an entry.
type HARResponse struct {
	Status  int         `json:"status"`
	Headers []HARHeader `json:"headers"`
	Content HARContent  `json:"content"`
}

// HARHeader is a name/value pair for headers.
type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARPostData is the body of a request.
type HARPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
}

// HARContent is the body of a response.
type HARContent struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
}

// Parse decodes a HAR document into exchanges ordered by start time.
// Entries without a method or URL are skipped.
func Parse(data []byte) ([]capture.Exchange, error) {
	var har HAR
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, fmt.Errorf("parsing HAR: %w", err)
	}

	if len(har.Log.Entries) == 0 {
		return nil, fmt.Errorf("HAR file contains no entries")
	}

	out := make([]capture.Exchange, 0, len(har.Log.Entries))
	for _, entry := range har.Log.Entries {
		if entry.Request.Method == "" || entry.Request.URL == "" {
			continue
		}
		out = append(out, convertEntry(entry))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("HAR file contains no usable entries")
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

func convertEntry(entry HAREntry) capture.Exchange {
	ex := capture.Exchange{
		Method:          strings.ToUpper(entry.Request.Method),
		URL:             entry.Request.URL,
		RequestHeaders:  convertHeaders(entry.Request.Headers),
		Status:          entry.Response.Status,
		ResponseHeaders: convertHeaders(entry.Response.Headers),
		MimeType:        entry.Response.Content.MimeType,
		ElapsedMs:       entry.Time,
		StartedAt:       parseTime(entry.StartedDateTime),
	}

	if pd := entry.Request.PostData; pd != nil && pd.Text != "" {
		if text, ok := decodeText(pd.Text, pd.Encoding, pd.MimeType); ok {
			ex.PostData = &capture.PostData{MimeType: pd.MimeType, Text: text}
		}
	}

	c := entry.Response.Content
	body, _ := decodeText(c.Text, c.Encoding, c.MimeType)
	ex.Body = capture.StaticBody(body)

	return ex
}

// convertHeaders keeps wire order and drops HTTP/2 pseudo-headers.
func convertHeaders(hs []HARHeader) []capture.Header {
	out := make([]capture.Header, 0, len(hs))
	for _, h := range hs {
		if strings.HasPrefix(h.Name, ":") {
			continue
		}
		out = append(out, capture.Header{Name: h.Name, Value: h.Value})
	}
	return out
}

// decodeText returns the textual form of a body. Binary media and bodies
// with a broken base64 encoding are omitted.
func decodeText(text, encoding, mimeType string) (string, bool) {
	if text == "" || isBinary(mimeType) {
		return "", false
	}
	if strings.EqualFold(encoding, "base64") {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return "", false
		}
		return string(decoded), true
	}
	return text, true
}

func isBinary(mimeType string) bool {
	mt := strings.ToLower(mimeType)
	return strings.HasPrefix(mt, "image/") ||
		strings.HasPrefix(mt, "audio/") ||
		strings.HasPrefix(mt, "video/") ||
		mt == "application/octet-stream"
}

// parseTime accepts RFC 3339 timestamps with or without fractional seconds.
// Anything else yields the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
