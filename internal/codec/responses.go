package codec

import (
	"strings"

	"github.com/mark3labs/coreapi2swagger/internal/document"
	"github.com/mark3labs/coreapi2swagger/internal/swagger"
)

// Responses returns the minimal responses object Swagger requires, keyed by
// the status code the link's action implies.
func Responses(link *document.Link) *swagger.OrderedMap[*swagger.Response] {
	responses := swagger.NewOrderedMap[*swagger.Response]()
	responses.Set(StatusCode(Method(link)), &swagger.Response{})
	return responses
}

// StatusCode maps an action to its success status: post is 201, delete is
// 204, anything else 200.
func StatusCode(action string) string {
	switch strings.ToLower(action) {
	case "post":
		return "201"
	case "delete":
		return "204"
	default:
		return "200"
	}
}
