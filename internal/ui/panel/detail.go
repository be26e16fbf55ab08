package panel

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/sadopc/apidoc-recorder/internal/capture"
	"github.com/sadopc/apidoc-recorder/internal/ui/theme"
)

// renderDetail formats one entry for the detail viewport.
func renderDetail(e capture.Entry, s theme.Styles, now time.Time) string {
	var b strings.Builder

	b.WriteString(s.MethodStyle(e.Method).Render(e.Method) + " " + s.URL.Render(e.URL) + "\n")

	meta := []string{
		s.StatusStyle(e.StatusCode).Render(fmt.Sprintf("%d", e.StatusCode)),
		fmt.Sprintf("%dms", e.LatencyMs),
		humanize.Bytes(uint64(len(e.ResponseBody))),
	}
	if !e.Timestamp.IsZero() {
		meta = append(meta, humanize.RelTime(e.Timestamp, now, "ago", "from now"))
	}
	b.WriteString(s.Muted.Render(strings.Join(meta, " · ")) + "\n")

	section(&b, s, "Query")
	for _, k := range sortedKeys(e.QueryParams) {
		for _, v := range e.QueryParams[k] {
			b.WriteString(s.Key.Render(k) + " = " + v + "\n")
		}
	}

	section(&b, s, "Request headers")
	writeHeaders(&b, s, e.RequestHeaders)

	if e.RequestBody != "" {
		section(&b, s, "Request body")
		b.WriteString(highlightBody(e.RequestBody, e.ContentType) + "\n")
	}

	section(&b, s, "Response headers")
	writeHeaders(&b, s, e.ResponseHeaders)

	section(&b, s, "Response body")
	if e.ResponseBody == "" {
		b.WriteString(s.Hint.Render("empty") + "\n")
	} else {
		b.WriteString(highlightBody(e.ResponseBody, e.ResponseContentType) + "\n")
	}
	return b.String()
}

func section(b *strings.Builder, s theme.Styles, title string) {
	b.WriteString("\n" + s.Title.Render(title) + "\n")
}

func writeHeaders(b *strings.Builder, s theme.Styles, h map[string]string) {
	if len(h) == 0 {
		b.WriteString(s.Hint.Render("none") + "\n")
		return
	}
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		b.WriteString(s.Key.Render(k) + ": " + h[k] + "\n")
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func highlightBody(body, contentType string) string {
	lexerName := detectLexer(contentType)
	if lexerName == "json" && gjson.Valid(body) {
		body = string(pretty.Pretty([]byte(body)))
	}
	return highlight(strings.TrimRight(body, "\n"), lexerName)
}

// detectLexer maps Content-Type to a chroma lexer name.
func detectLexer(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return "json"
	case strings.Contains(ct, "html"):
		return "html"
	case strings.Contains(ct, "xml"):
		return "xml"
	case strings.Contains(ct, "javascript"):
		return "javascript"
	default:
		return "text"
	}
}

// highlight applies chroma syntax highlighting to source code.
func highlight(source, lexerName string) string {
	lexer := lexers.Get(lexerName)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get("monokai")
	if style == nil {
		style = chromastyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return source
	}
	return buf.String()
}
