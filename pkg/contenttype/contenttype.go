// Package contenttype interprets Content-Type headers on API responses.
package contenttype

import (
	"mime"
	"strings"
)

// Category represents a broad content-type classification.
type Category string

const (
	JSON   Category = "json"
	XML    Category = "xml"
	CSV    Category = "csv"
	Text   Category = "text"
	Binary Category = "binary"
)

// Classify returns the broad content category for a content-type header
// value. Uses mime.ParseMediaType to strip parameters (charset, name, etc.)
// before matching. Falls back to strings.ToLower for malformed values.
// Returns Binary for empty content-type strings.
func Classify(contentType string) Category {
	if contentType == "" {
		return Binary
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	if strings.Contains(mediaType, "json") {
		return JSON
	}
	if strings.Contains(mediaType, "xml") {
		return XML
	}
	if mediaType == "text/csv" || mediaType == "text/tab-separated-values" {
		return CSV
	}
	if strings.HasPrefix(mediaType, "text/") {
		return Text
	}
	return Binary
}

// Charset returns the lowercased charset parameter, or "" when the header
// carries none or cannot be parsed.
func Charset(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

// Params returns every parameter of the content-type header with quotes
// stripped. File-serving endpoints embed the stored file name and charset
// here (e.g. `application/octet-stream; name="results.pdf"`).
func Params(contentType string) map[string]string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || len(params) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = strings.Trim(v, `"`)
	}
	return out
}
