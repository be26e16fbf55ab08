package capture

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestRedactorEntry(t *testing.T) {
	r := NewRedactor([]string{"Authorization", "cookie"}, []string{"password", "token"}, "")
	in := Entry{
		Method:          "POST",
		URL:             "https://api.example.com/login?token=abc&page=1",
		QueryParams:     map[string][]string{"token": {"abc", "def"}, "page": {"1"}},
		RequestHeaders:  map[string]string{"authorization": "Bearer x", "Accept": "application/json"},
		ResponseHeaders: map[string]string{"Cookie": "sid=1"},
		RequestBody:     `{"user":"a","Password":"p","nested":{"token":"t"},"list":[{"password":"q"}]}`,
	}

	out := r.Entry(in)

	if out.RequestHeaders["authorization"] != DefaultReplacement {
		t.Errorf("authorization not redacted: %q", out.RequestHeaders["authorization"])
	}
	if out.RequestHeaders["Accept"] != "application/json" {
		t.Errorf("Accept changed: %q", out.RequestHeaders["Accept"])
	}
	if out.ResponseHeaders["Cookie"] != DefaultReplacement {
		t.Errorf("cookie not redacted")
	}
	if got := out.QueryParams["token"]; len(got) != 2 || got[0] != DefaultReplacement || got[1] != DefaultReplacement {
		t.Errorf("token params = %v", got)
	}
	if out.QueryParams["page"][0] != "1" {
		t.Errorf("page param changed")
	}
	if strings.Contains(out.URL, "abc") {
		t.Errorf("url still carries the token: %s", out.URL)
	}

	body := gjson.Parse(out.RequestBody)
	if body.Get("user").String() != "a" {
		t.Errorf("user changed: %s", out.RequestBody)
	}
	if body.Get("Password").String() != DefaultReplacement {
		t.Errorf("Password not redacted: %s", out.RequestBody)
	}
	if body.Get("nested.token").String() != DefaultReplacement {
		t.Errorf("nested token not redacted: %s", out.RequestBody)
	}
	if body.Get("list.0.password").String() != DefaultReplacement {
		t.Errorf("list password not redacted: %s", out.RequestBody)
	}

	// The input is untouched.
	if in.RequestHeaders["authorization"] != "Bearer x" || in.QueryParams["token"][0] != "abc" {
		t.Error("input entry was modified")
	}
}

func TestRedactorURL(t *testing.T) {
	r := NewRedactor(nil, []string{"token", "api key"}, "")
	tests := []struct {
		in, want string
	}{
		{"https://api.example.com/a", "https://api.example.com/a"},
		{"https://api.example.com/a?page=1", "https://api.example.com/a?page=1"},
		{"https://api.example.com/a?TOKEN=abc&page=1&token=def#top", "https://api.example.com/a?TOKEN=%2A%2A%2AREDACTED%2A%2A%2A&page=1&token=%2A%2A%2AREDACTED%2A%2A%2A#top"},
		{"https://api.example.com/a?api+key=k&b=%20x", "https://api.example.com/a?api+key=%2A%2A%2AREDACTED%2A%2A%2A&b=%20x"},
		{"https://api.example.com/a?token", "https://api.example.com/a?token=%2A%2A%2AREDACTED%2A%2A%2A"},
		{"https://api.example.com/#frag?token=abc", "https://api.example.com/#frag?token=abc"},
	}
	for _, tt := range tests {
		if got := r.Entry(Entry{URL: tt.in}).URL; got != tt.want {
			t.Errorf("redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	params, _ := ParseQuery("token=%2A%2A%2AREDACTED%2A%2A%2A")
	if params["token"][0] != DefaultReplacement {
		t.Errorf("masked value decodes to %q", params["token"][0])
	}
}

func TestRedactorNonJSONBody(t *testing.T) {
	r := NewRedactor(nil, []string{"password"}, "x")
	out := r.Entry(Entry{RequestBody: "password=hunter2"})
	if out.RequestBody != "password=hunter2" {
		t.Errorf("form body should pass through, got %q", out.RequestBody)
	}
}

func TestRedactorNil(t *testing.T) {
	var r *Redactor
	in := []Entry{{Method: "GET", URL: "https://x.test/"}}
	if got := r.Apply(in); len(got) != 1 || got[0].URL != in[0].URL {
		t.Errorf("nil redactor Apply = %v", got)
	}
}
