// Package swagger holds the Swagger 2.0 object graph produced by the codec.
// Maps are insertion ordered so the serialized output follows the order of
// the source document.
package swagger

// Version is the value of the top-level "swagger" field.
const Version = "2.0"

// Parameter locations.
const (
	InPath     = "path"
	InQuery    = "query"
	InHeader   = "header"
	InBody     = "body"
	InFormData = "formData"
)

type Swagger struct {
	Swagger string                 `json:"swagger" yaml:"swagger"`
	Info    Info                   `json:"info" yaml:"info"`
	Host    string                 `json:"host,omitempty" yaml:"host,omitempty"`
	Schemes []string               `json:"schemes,omitempty" yaml:"schemes,omitempty"`
	Paths   *OrderedMap[*PathItem] `json:"paths" yaml:"paths"`
}

type Info struct {
	Title   string `json:"title" yaml:"title"`
	Version string `json:"version" yaml:"version"` // Required, even when empty
}

// PathItem maps lowercase HTTP methods to operations.
type PathItem = OrderedMap[*Operation]

type Operation struct {
	OperationID string                 `json:"operationId" yaml:"operationId"`
	Description string                 `json:"description" yaml:"description"`
	Responses   *OrderedMap[*Response] `json:"responses" yaml:"responses"`
	Parameters  []*Parameter           `json:"parameters" yaml:"parameters"`
	Consumes    []string               `json:"consumes,omitempty" yaml:"consumes,omitempty"`
	Tags        []string               `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Parameter is a Swagger parameter object. Required and Description are
// pointers so field parameters always carry them, even when false or empty,
// while the merged body parameter carries neither.
type Parameter struct {
	Name        string  `json:"name" yaml:"name"`
	Required    *bool   `json:"required,omitempty" yaml:"required,omitempty"`
	In          string  `json:"in" yaml:"in"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string  `json:"type,omitempty" yaml:"type,omitempty"`
	Schema      *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Schema is the subset of a Swagger schema object the codec emits. The zero
// value encodes as an empty object.
type Schema struct {
	Type        string               `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string               `json:"format,omitempty" yaml:"format,omitempty"`
	Description *string              `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  *OrderedMap[*Schema] `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string             `json:"required,omitempty" yaml:"required,omitempty"`
}

type Response struct {
	Description string `json:"description" yaml:"description"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// New returns a document with the version set and empty paths.
func New(title string) *Swagger {
	return &Swagger{
		Swagger: Version,
		Info:    Info{Title: title},
		Paths:   NewOrderedMap[*PathItem](),
	}
}

// Operations calls fn for every operation in path then method order.
func (s *Swagger) Operations(fn func(path, method string, op *Operation)) {
	if s.Paths == nil {
		return
	}
	s.Paths.Range(func(path string, item *PathItem) bool {
		item.Range(func(method string, op *Operation) bool {
			fn(path, method, op)
			return true
		})
		return true
	})
}
