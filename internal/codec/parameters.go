package codec

import (
	"github.com/mark3labs/coreapi2swagger/internal/document"
	"github.com/mark3labs/coreapi2swagger/internal/swagger"
)

// Parameters converts the fields of a link into Swagger parameters, in field
// order.
//
// formData parameters are only valid for multipart and urlencoded bodies, so
// form fields sent with any other encoding are collected into the properties
// of a single object schema, appended last as the "data" body parameter.
// That parameter has no required flag of its own, and its schema lists the
// required properties only when there are any: Swagger rejects an empty
// required array.
func Parameters(link *document.Link, encoding string) []*swagger.Parameter {
	params := make([]*swagger.Parameter, 0, len(link.Fields))
	var form *formBody

	for _, field := range link.Fields {
		location := Location(link, field)
		switch location {
		case document.LocationForm:
			if encoding == MediaMultipart || encoding == MediaURLEncoded {
				params = append(params, &swagger.Parameter{
					Name:        field.Name,
					Required:    swagger.Ptr(field.Required),
					In:          swagger.InFormData,
					Description: swagger.Ptr(field.Description),
					Type:        "string",
				})
				continue
			}
			if form == nil {
				form = newFormBody()
			}
			form.add(field)
		case document.LocationBody:
			schema := &swagger.Schema{}
			if encoding == MediaOctetStream {
				schema = &swagger.Schema{Type: "string", Format: "binary"}
			}
			params = append(params, &swagger.Parameter{
				Name:        field.Name,
				Required:    swagger.Ptr(field.Required),
				In:          swagger.InBody,
				Description: swagger.Ptr(field.Description),
				Schema:      schema,
			})
		default:
			params = append(params, &swagger.Parameter{
				Name:        field.Name,
				Required:    swagger.Ptr(field.Required),
				In:          location,
				Description: swagger.Ptr(field.Description),
				Type:        "string",
			})
		}
	}

	if form != nil {
		params = append(params, form.parameter())
	}
	return params
}

// formBody accumulates form fields for one Parameters call.
type formBody struct {
	properties *swagger.OrderedMap[*swagger.Schema]
	required   []string
}

func newFormBody() *formBody {
	return &formBody{properties: swagger.NewOrderedMap[*swagger.Schema]()}
}

func (b *formBody) add(field document.Field) {
	b.properties.Set(field.Name, &swagger.Schema{Description: swagger.Ptr(field.Description)})
	if field.Required {
		b.required = append(b.required, field.Name)
	}
}

func (b *formBody) parameter() *swagger.Parameter {
	return &swagger.Parameter{
		Name: mergedParameterName,
		In:   swagger.InBody,
		Schema: &swagger.Schema{
			Type:       "object",
			Properties: b.properties,
			Required:   b.required,
		},
	}
}
