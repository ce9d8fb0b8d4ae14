package swagger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleSwagger() *Swagger {
	s := New("Pets")
	s.Host = "pets.example.org"
	s.Schemes = []string{"https"}

	item := NewOrderedMap[*Operation]()
	responses := NewOrderedMap[*Response]()
	responses.Set("200", &Response{})
	item.Set("get", &Operation{
		OperationID: "list",
		Responses:   responses,
		Parameters:  []*Parameter{{Name: "page", In: InQuery, Type: "string"}},
	})
	created := NewOrderedMap[*Response]()
	created.Set("201", &Response{})
	item.Set("post", &Operation{
		OperationID: "create",
		Description: "Add a pet.",
		Responses:   created,
		Parameters:  []*Parameter{{Name: "body", In: InBody, Required: Ptr(true), Schema: &Schema{}}},
		Consumes:    []string{"application/json"},
		Tags:        []string{"pets"},
	})
	s.Paths.Set("/pets/", item)
	return s
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "JSON": FormatJSON, "yaml": FormatYAML, " yml ": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("out/swagger.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("swagger.YML"))
	assert.Equal(t, FormatJSON, FormatForPath("swagger.json"))
	assert.Equal(t, FormatJSON, FormatForPath("-"))
}

func TestMarshal_JSON(t *testing.T) {
	raw, err := Marshal(sampleSwagger(), FormatJSON)
	require.NoError(t, err)
	out := string(raw)

	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, "\n  \"info\": {")
	assert.Less(t, strings.Index(out, `"swagger"`), strings.Index(out, `"paths"`))
	assert.Less(t, strings.Index(out, `"get"`), strings.Index(out, `"post"`))
	assert.Contains(t, out, `"schema": {}`)
}

func TestMarshal_YAML(t *testing.T) {
	raw, err := Marshal(sampleSwagger(), FormatYAML)
	require.NoError(t, err)
	out := string(raw)

	assert.True(t, strings.HasPrefix(out, "swagger: \"2.0\"\n"), out)
	assert.Less(t, strings.Index(out, "get:"), strings.Index(out, "post:"))

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &back))
	assert.Equal(t, "pets.example.org", back["host"])
	paths := back["paths"].(map[string]any)
	post := paths["/pets/"].(map[string]any)["post"].(map[string]any)
	assert.Equal(t, "create", post["operationId"])
	assert.Contains(t, post["responses"], "201")
}

func TestMarshal_UnknownFormat(t *testing.T) {
	_, err := Marshal(sampleSwagger(), Format("xml"))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSwagger(), FormatJSON))
	assert.Contains(t, buf.String(), `"operationId": "create"`)
}

func TestOperations(t *testing.T) {
	var got []string
	sampleSwagger().Operations(func(path, method string, op *Operation) {
		got = append(got, method+" "+path+" "+op.OperationID)
	})
	assert.Equal(t, []string{"get /pets/ list", "post /pets/ create"}, got)
}

func TestParameter_OptionalKeys(t *testing.T) {
	field := &Parameter{Name: "q", Required: Ptr(false), In: InQuery, Description: Ptr(""), Type: "string"}
	merged := &Parameter{Name: "data", In: InBody, Schema: &Schema{Type: "object"}}

	raw, err := yaml.Marshal([]*Parameter{field, merged})
	require.NoError(t, err)

	var back []map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &back))
	require.Len(t, back, 2)
	assert.Equal(t, false, back[0]["required"])
	assert.Equal(t, "", back[0]["description"])
	assert.NotContains(t, back[1], "required")
	assert.NotContains(t, back[1], "description")
}
