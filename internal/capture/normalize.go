package capture

import (
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Normalize converts an exchange that passed the filter into an Entry. It
// never fails: missing or malformed optional fields degrade to empty values.
func Normalize(ex Exchange, body string, capturedAt time.Time) Entry {
	e := Entry{
		ID:                  uuid.New().String(),
		Timestamp:           capturedAt.UTC(),
		Method:              ex.Method,
		URL:                 ex.URL,
		QueryParams:         map[string][]string{},
		RequestHeaders:      FoldHeaders(ex.RequestHeaders),
		StatusCode:          normalizeStatus(ex.Status),
		ResponseHeaders:     FoldHeaders(ex.ResponseHeaders),
		ResponseBody:        body,
		ResponseContentType: ex.MimeType,
		LatencyMs:           roundLatency(ex.ElapsedMs),
	}

	if u, err := url.Parse(ex.URL); err == nil {
		e.Host = hostOf(u)
		e.Path = u.EscapedPath()
		if e.Path == "" && u.Host != "" {
			e.Path = "/"
		}
		e.QueryParams, _ = ParseQuery(u.RawQuery)
	}

	if ex.PostData != nil {
		e.RequestBody = ex.PostData.Text
		e.ContentType = ex.PostData.MimeType
	}

	return e
}

// FoldHeaders turns a header list into a map. A repeated name overwrites the
// earlier value.
func FoldHeaders(hs []Header) map[string]string {
	out := make(map[string]string, len(hs))
	for _, h := range hs {
		out[h.Name] = h.Value
	}
	return out
}

// ParseQuery groups the pairs of a raw query string by name. Values keep the
// order they appear in, and the second result lists names by first
// appearance. Undecodable escapes are kept verbatim.
func ParseQuery(raw string) (map[string][]string, []string) {
	params := map[string][]string{}
	var order []string
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		k = unescapeQuery(k)
		v = unescapeQuery(v)
		if _, seen := params[k]; !seen {
			order = append(order, k)
		}
		params[k] = append(params[k], v)
	}
	return params, order
}

// QueryKeyOrder returns the query parameter names of rawURL in the order they
// first appear.
func QueryKeyOrder(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	_, order := ParseQuery(u.RawQuery)
	return order
}

func unescapeQuery(s string) string {
	if d, err := url.QueryUnescape(s); err == nil {
		return d
	}
	return s
}

func hostOf(u *url.URL) string {
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	return host
}

func normalizeStatus(code int) int {
	if !ValidStatus(code) {
		return 0
	}
	return code
}

func roundLatency(ms float64) int64 {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms <= 0 {
		return 0
	}
	if r := math.Round(ms); r < math.MaxInt64 {
		return int64(r)
	}
	return math.MaxInt64
}
