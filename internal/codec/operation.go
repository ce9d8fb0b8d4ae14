package codec

import (
	"github.com/mark3labs/coreapi2swagger/internal/document"
	"github.com/mark3labs/coreapi2swagger/internal/swagger"
)

// Operation builds the Swagger operation for a link. The caller is
// responsible for operationId uniqueness.
func Operation(operationID string, link *document.Link, tags []string) *swagger.Operation {
	encoding := Encoding(link)

	op := &swagger.Operation{
		OperationID: operationID,
		Description: link.Description,
		Responses:   Responses(link),
		Parameters:  Parameters(link, encoding),
	}
	if encoding != "" {
		op.Consumes = []string{encoding}
	}
	if len(tags) > 0 {
		op.Tags = append([]string(nil), tags...)
	}
	return op
}
