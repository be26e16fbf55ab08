package capture

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultReplacement is substituted for redacted values.
const DefaultReplacement = "***REDACTED***"

// Redactor masks sensitive values in entries before they leave the process.
type Redactor struct {
	headers     map[string]struct{}
	fields      map[string]struct{}
	replacement string
}

// NewRedactor builds a redactor for the given header names and body field
// names. Matching is case-insensitive.
func NewRedactor(headers, bodyFields []string, replacement string) *Redactor {
	if replacement == "" {
		replacement = DefaultReplacement
	}
	return &Redactor{
		headers:     lowerSet(headers),
		fields:      lowerSet(bodyFields),
		replacement: replacement,
	}
}

// Apply returns redacted copies of entries. The input slice is not modified.
// A nil redactor returns entries as is.
func (r *Redactor) Apply(entries []Entry) []Entry {
	if r == nil {
		return entries
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = r.Entry(e)
	}
	return out
}

// Entry returns a redacted copy of e.
func (r *Redactor) Entry(e Entry) Entry {
	e.RequestHeaders = r.headerMap(e.RequestHeaders)
	e.ResponseHeaders = r.headerMap(e.ResponseHeaders)
	e.URL = r.rawURL(e.URL)
	e.QueryParams = r.query(e.QueryParams)
	e.RequestBody = r.body(e.RequestBody)
	return e
}

func (r *Redactor) headerMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return in
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if _, ok := r.headers[strings.ToLower(k)]; ok {
			v = r.replacement
		}
		out[k] = v
	}
	return out
}

func (r *Redactor) query(in map[string][]string) map[string][]string {
	if len(in) == 0 {
		return in
	}
	out := make(map[string][]string, len(in))
	for k, vs := range in {
		cp := append([]string(nil), vs...)
		if _, ok := r.fields[strings.ToLower(k)]; ok {
			for i := range cp {
				cp[i] = r.replacement
			}
		}
		out[k] = cp
	}
	return out
}

// rawURL masks the values of matching query keys in the URL itself. Other
// parts of the URL are kept byte for byte.
func (r *Redactor) rawURL(raw string) string {
	if len(r.fields) == 0 {
		return raw
	}
	q := strings.IndexByte(raw, '?')
	if q < 0 {
		return raw
	}
	if h := strings.IndexByte(raw, '#'); h >= 0 && h < q {
		return raw
	}
	query, frag := raw[q+1:], ""
	if h := strings.IndexByte(query, '#'); h >= 0 {
		query, frag = query[:h], query[h:]
	}

	pairs := strings.Split(query, "&")
	masked := url.QueryEscape(r.replacement)
	changed := false
	for i, pair := range pairs {
		k, _, _ := strings.Cut(pair, "=")
		if _, ok := r.fields[strings.ToLower(unescapeQuery(k))]; ok && k != "" {
			pairs[i] = k + "=" + masked
			changed = true
		}
	}
	if !changed {
		return raw
	}
	return raw[:q+1] + strings.Join(pairs, "&") + frag
}

// body rewrites matching fields of a JSON body at any depth. Non-JSON bodies
// pass through untouched.
func (r *Redactor) body(body string) string {
	if len(r.fields) == 0 || !gjson.Valid(body) {
		return body
	}
	var paths []string
	collectPaths(gjson.Parse(body), "", r.fields, &paths)
	for _, p := range paths {
		if updated, err := sjson.Set(body, p, r.replacement); err == nil {
			body = updated
		}
	}
	return body
}

func collectPaths(v gjson.Result, prefix string, fields map[string]struct{}, out *[]string) {
	if !v.IsObject() && !v.IsArray() {
		return
	}
	idx := 0
	v.ForEach(func(key, val gjson.Result) bool {
		var p string
		if v.IsArray() {
			p = joinPath(prefix, strconv.Itoa(idx))
			idx++
		} else {
			p = joinPath(prefix, escapePath(key.String()))
			if _, ok := fields[strings.ToLower(key.String())]; ok {
				*out = append(*out, p)
				return true
			}
		}
		collectPaths(val, p, fields, out)
		return true
	})
}

func joinPath(prefix, part string) string {
	if prefix == "" {
		return part
	}
	return prefix + "." + part
}

// escapePath escapes gjson/sjson path metacharacters in a single key.
func escapePath(key string) string {
	var b strings.Builder
	for _, c := range key {
		switch c {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func lowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, v := range items {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
