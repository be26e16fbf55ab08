package har

import (
	"context"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	data := []byte(`{
		"log": {
			"version": "1.2",
			"creator": {"name": "Browser DevTools", "version": "1.0"},
			"entries": [
				{
					"startedDateTime": "2024-01-01T00:00:01.000Z",
					"time": 200.4,
					"request": {
						"method": "post",
						"url": "https://api.example.com/users",
						"headers": [
							{"name": "Content-Type", "value": "application/json"}
						],
						"postData": {
							"mimeType": "application/json",
							"text": "{\"name\":\"John\"}"
						}
					},
					"response": {
						"status": 201,
						"headers": [],
						"content": {
							"size": 10,
							"mimeType": "application/json",
							"text": "{\"id\":1}"
						}
					}
				},
				{
					"startedDateTime": "2024-01-01T00:00:00.000Z",
					"time": 150,
					"request": {
						"method": "GET",
						"url": "https://api.example.com/users?page=1",
						"headers": [
							{"name": "Accept", "value": "application/json"},
							{"name": "Authorization", "value": "Bearer token123"}
						]
					},
					"response": {
						"status": 200,
						"headers": [
							{"name": "Content-Type", "value": "application/json"}
						],
						"content": {
							"size": 42,
							"mimeType": "application/json",
							"text": "eyJ1c2VycyI6W119",
							"encoding": "base64"
						}
					}
				}
			]
		}
	}`)

	exchanges, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exchanges) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(exchanges))
	}

	// Sorted by start time: the GET comes first.
	get := exchanges[0]
	if get.Method != "GET" || get.URL != "https://api.example.com/users?page=1" {
		t.Errorf("first exchange = %s %s", get.Method, get.URL)
	}
	if !get.StartedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("startedAt = %v", get.StartedAt)
	}
	if len(get.RequestHeaders) != 2 || get.RequestHeaders[1].Name != "Authorization" {
		t.Errorf("request headers = %v", get.RequestHeaders)
	}
	if get.PostData != nil {
		t.Error("GET should have no post data")
	}
	body, err := get.FetchBody(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if body != `{"users":[]}` {
		t.Errorf("decoded body = %q", body)
	}
	if get.MimeType != "application/json" || get.Status != 200 || get.ElapsedMs != 150 {
		t.Errorf("response meta = %q %d %v", get.MimeType, get.Status, get.ElapsedMs)
	}

	post := exchanges[1]
	if post.Method != "POST" {
		t.Errorf("expected POST, got %s", post.Method)
	}
	if post.PostData == nil || post.PostData.Text != `{"name":"John"}` {
		t.Fatalf("unexpected post data: %+v", post.PostData)
	}
	if post.ElapsedMs != 200.4 {
		t.Errorf("elapsed = %v", post.ElapsedMs)
	}
}

func TestParse_PseudoHeaders(t *testing.T) {
	data := []byte(`{
		"log": {
			"version": "1.2",
			"entries": [{
				"startedDateTime": "2024-01-01T00:00:00.000Z",
				"time": 100,
				"request": {
					"method": "GET",
					"url": "https://example.com/api",
					"headers": [
						{"name": ":method", "value": "GET"},
						{"name": ":path", "value": "/api"},
						{"name": "Accept", "value": "*/*"}
					]
				},
				"response": {"status": 200, "headers": [], "content": {"size": 0, "mimeType": "application/json", "text": ""}}
			}]
		}
	}`)

	exchanges, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hs := exchanges[0].RequestHeaders
	if len(hs) != 1 || hs[0].Name != "Accept" {
		t.Errorf("expected only Accept, got %v", hs)
	}
}

func TestParse_BinaryAndBrokenBodies(t *testing.T) {
	data := []byte(`{
		"log": {
			"entries": [
				{"request": {"method": "GET", "url": "https://x.test/img"},
				 "response": {"status": 200, "content": {"mimeType": "image/png", "text": "iVBORw0KGgo=", "encoding": "base64"}}},
				{"request": {"method": "GET", "url": "https://x.test/bad"},
				 "response": {"status": 200, "content": {"mimeType": "application/json", "text": "%%%", "encoding": "base64"}}}
			]
		}
	}`)

	exchanges, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, ex := range exchanges {
		body, _ := ex.FetchBody(context.Background())
		if body != "" {
			t.Errorf("%s: expected omitted body, got %q", ex.URL, body)
		}
		if !ex.StartedAt.IsZero() {
			t.Errorf("%s: expected zero start time", ex.URL)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse([]byte(`{"log":{"version":"1.2","entries":[]}}`))
	if err == nil {
		t.Error("expected error for empty entries")
	}
}

func TestParse_NoUsableEntries(t *testing.T) {
	_, err := Parse([]byte(`{"log":{"entries":[{"request":{"method":"","url":""}}]}}`))
	if err == nil {
		t.Error("expected error when every entry lacks method and url")
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("not json"))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		text, encoding, mime string
		want                 string
		ok                   bool
	}{
		{"", "", "application/json", "", false},
		{"plain", "", "text/plain", "plain", true},
		{"aGk=", "base64", "text/plain", "hi", true},
		{"aGk=", "BASE64", "text/plain", "hi", true},
		{"!!", "base64", "text/plain", "", false},
		{"x", "", "video/mp4", "", false},
		{"x", "", "application/octet-stream", "", false},
	}
	for _, tt := range tests {
		got, ok := decodeText(tt.text, tt.encoding, tt.mime)
		if got != tt.want || ok != tt.ok {
			t.Errorf("decodeText(%q, %q, %q) = %q, %v; want %q, %v", tt.text, tt.encoding, tt.mime, got, ok, tt.want, tt.ok)
		}
	}
}
