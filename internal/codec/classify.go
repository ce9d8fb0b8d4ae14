package codec

import (
	"strings"

	"github.com/mark3labs/coreapi2swagger/internal/document"
)

// Media types that change how form and body fields are rendered.
const (
	MediaJSON           = "application/json"
	MediaMultipart      = "multipart/form-data"
	MediaURLEncoded     = "application/x-www-form-urlencoded"
	MediaOctetStream    = "application/octet-stream"
	defaultMethod       = "get"
	mergedParameterName = "data"
)

// Method returns the Swagger method key for a link: its action in lower
// case, or "get" when the link declares none.
func Method(link *document.Link) string {
	method := strings.ToLower(strings.TrimSpace(link.Action))
	if method == "" {
		return defaultMethod
	}
	return method
}

// Location returns where a field is sent. Fields without a declared location
// travel in the query string for get and delete, and in the form otherwise.
func Location(link *document.Link, field document.Field) string {
	if field.Location != "" {
		return field.Location
	}
	switch Method(link) {
	case "get", "delete":
		return document.LocationQuery
	default:
		return document.LocationForm
	}
}

// Encoding returns the request media type for a link. Links that carry a
// form or body field default to JSON; links without one have no request
// body and therefore no encoding.
func Encoding(link *document.Link) string {
	hasBody := false
	for _, f := range link.Fields {
		switch Location(link, f) {
		case document.LocationForm, document.LocationBody:
			hasBody = true
		}
	}
	switch {
	case link.Encoding == "" && hasBody:
		return MediaJSON
	case !hasBody:
		return ""
	default:
		return link.Encoding
	}
}
