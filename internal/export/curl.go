package export

import (
	"sort"
	"strings"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

// skipHeaders are set by curl itself or describe the browser's connection.
var skipHeaders = map[string]bool{
	"content-length":    true,
	"host":              true,
	"connection":        true,
	"accept-encoding":   true,
	"transfer-encoding": true,
}

// AsCurl converts a recorded entry to a curl command that replays the
// request. Headers are sorted by name.
func AsCurl(e capture.Entry) string {
	parts := []string{"curl"}

	if e.Method != "" && e.Method != "GET" {
		parts = append(parts, "-X", e.Method)
	}

	names := make([]string, 0, len(e.RequestHeaders))
	for k := range e.RequestHeaders {
		// HTTP/2 pseudo headers such as :authority
		if strings.HasPrefix(k, ":") || skipHeaders[strings.ToLower(k)] {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		parts = append(parts, "-H", shellQuote(k+": "+e.RequestHeaders[k]))
	}

	if e.RequestBody != "" {
		parts = append(parts, "--data-raw", shellQuote(e.RequestBody))
	}

	parts = append(parts, shellQuote(e.URL))
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
