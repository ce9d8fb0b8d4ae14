// Package codec converts Core API documents into Swagger 2.0 documents.
//
// The conversion is a pure function of its input: it never fails, never
// mutates the document and keeps no state between calls.
package codec

import (
	"log/slog"
	"net/url"

	"github.com/mark3labs/coreapi2swagger/internal/document"
	"github.com/mark3labs/coreapi2swagger/internal/swagger"
)

var discardLogger = slog.New(slog.DiscardHandler)

// Option configures Encode.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger reports conversion decisions at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Encode converts doc into a Swagger document. host and schemes are taken
// from the document URL when it has them.
func Encode(doc *document.Document, opts ...Option) *swagger.Swagger {
	o := options{logger: discardLogger}
	for _, opt := range opts {
		opt(&o)
	}

	out := swagger.New(doc.Title)
	if u, err := url.Parse(doc.URL); err == nil {
		if u.Host != "" {
			out.Host = u.Host
		}
		if u.Scheme != "" {
			out.Schemes = []string{u.Scheme}
		}
	} else {
		o.logger.Debug("document url not parsable, omitting host and schemes", "url", doc.URL, "error", err)
	}

	out.Paths = Paths(doc, o.logger)
	return out
}

// Paths builds the paths object. Operations sharing a URL are grouped under
// one path item; a later link with the same URL and method replaces the
// earlier operation.
func Paths(doc *document.Document, logger *slog.Logger) *swagger.OrderedMap[*swagger.PathItem] {
	if logger == nil {
		logger = discardLogger
	}
	links, renamed := resolveLinks(doc)
	if renamed {
		logger.Debug("operation names collide, prefixing tagged operations", "operations", len(links))
	}

	paths := swagger.NewOrderedMap[*swagger.PathItem]()
	for _, l := range links {
		item, ok := paths.Get(l.Link.URL)
		if !ok {
			item = swagger.NewOrderedMap[*swagger.Operation]()
			paths.Set(l.Link.URL, item)
		}
		method := Method(l.Link)
		if _, dup := item.Get(method); dup {
			logger.Debug("operation replaced", "path", l.Link.URL, "method", method, "operationId", l.OperationID)
		}
		item.Set(method, Operation(l.OperationID, l.Link, l.Tags))
	}
	return paths
}
