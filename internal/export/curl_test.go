package export

import (
	"strings"
	"testing"

	"github.com/sadopc/apidoc-recorder/internal/capture"
)

func TestAsCurl_GET(t *testing.T) {
	e := capture.Entry{
		Method:         "GET",
		URL:            "https://api.example.com/users?page=2",
		RequestHeaders: map[string]string{"Accept": "application/json"},
	}

	got := AsCurl(e)
	want := `curl -H 'Accept: application/json' 'https://api.example.com/users?page=2'`
	if got != want {
		t.Errorf("AsCurl() = %s\nwant %s", got, want)
	}
}

func TestAsCurl_POST(t *testing.T) {
	e := capture.Entry{
		Method:         "POST",
		URL:            "https://api.example.com/users",
		RequestHeaders: map[string]string{"Content-Type": "application/json", "Authorization": "Bearer t"},
		RequestBody:    `{"name":"o'brien"}`,
	}

	got := AsCurl(e)
	if !strings.HasPrefix(got, "curl -X POST -H 'Authorization: Bearer t' -H 'Content-Type: application/json'") {
		t.Errorf("headers should be sorted after the method, got: %s", got)
	}
	if !strings.Contains(got, `--data-raw '{"name":"o'\''brien"}'`) {
		t.Errorf("body should be shell quoted, got: %s", got)
	}
}

func TestAsCurl_SkipsTransportHeaders(t *testing.T) {
	e := capture.Entry{
		Method: "GET",
		URL:    "https://api.example.com/",
		RequestHeaders: map[string]string{
			":authority":      "api.example.com",
			"Host":            "api.example.com",
			"Content-Length":  "0",
			"Accept-Encoding": "gzip",
			"X-Trace":         "1",
		},
	}

	got := AsCurl(e)
	if got != `curl -H 'X-Trace: 1' 'https://api.example.com/'` {
		t.Errorf("AsCurl() = %s", got)
	}
}
