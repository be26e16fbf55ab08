package capture

import (
	"net/url"
	"strings"
)

// Reason explains why the filter discarded an exchange.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonStaticAsset
	ReasonContentType
	ReasonScheme
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "kept"
	case ReasonStaticAsset:
		return "static asset"
	case ReasonContentType:
		return "content type"
	case ReasonScheme:
		return "scheme"
	default:
		return "unknown"
	}
}

var ignoreExtensions = []string{
	".js", ".css", ".png", ".jpg", ".gif", ".svg",
	".woff", ".woff2", ".ico", ".map", ".ttf", ".eot",
}

var ignoreContentTypes = []string{
	"text/html", "text/css", "image/", "font/",
	"application/javascript", "text/javascript",
}

// Classify evaluates the capture policy for ex. The checks run in a fixed
// order and the first match wins.
func Classify(ex Exchange) Reason {
	u, err := url.Parse(ex.URL)
	if err != nil {
		return ReasonScheme
	}

	path := u.EscapedPath()
	if u.Opaque != "" {
		path = u.Opaque
	}
	path = strings.ToLower(path)
	for _, ext := range ignoreExtensions {
		if strings.HasSuffix(path, ext) {
			return ReasonStaticAsset
		}
	}

	ct := strings.ToLower(ex.MimeType)
	for _, prefix := range ignoreContentTypes {
		if strings.HasPrefix(ct, prefix) {
			return ReasonContentType
		}
	}

	// Covers data:, blob:, chrome-extension: and friends.
	if !strings.HasPrefix(strings.ToLower(u.Scheme), "http") {
		return ReasonScheme
	}

	return ReasonNone
}

// Keep reports whether ex is API traffic worth recording.
func Keep(ex Exchange) bool {
	return Classify(ex) == ReasonNone
}
