package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersCoreJSON = `{
  "_type": "document",
  "_meta": {"url": "https://api.example.org/", "title": "Users API"},
  "search": {
    "_type": "link",
    "url": "/search/",
    "action": "get",
    "fields": [{"name": "q", "required": true, "location": "query", "schema": {"_type": "string", "description": "Search terms"}}]
  },
  "users": {
    "list": {"_type": "link", "url": "/users/", "action": "get", "description": "List users."},
    "create": {
      "_type": "link",
      "url": "/users/",
      "action": "post",
      "encoding": "application/json",
      "fields": [
        {"name": "username", "required": true, "location": "form", "description": "Login name"},
        {"name": "email", "location": "form"}
      ]
    },
    "admin": {"purge": {"_type": "link", "url": "/users/purge/", "action": "post"}}
  },
  "__private": {"hide": {"_type": "link", "url": "/hide/", "action": "get"}},
  "version": "1.2",
  "limits": [1, 2]
}`

func TestParse_CoreJSON(t *testing.T) {
	doc, err := Parse([]byte(usersCoreJSON))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.org/", doc.URL)
	assert.Equal(t, "Users API", doc.Title)
	require.Len(t, doc.Entries, 3)
	assert.Equal(t, "search", doc.Entries[0].Name)
	assert.Equal(t, "users", doc.Entries[1].Name)
	assert.Equal(t, "_private", doc.Entries[2].Name)

	search := doc.Entries[0]
	require.Equal(t, LinkEntry, search.Kind)
	require.Len(t, search.Link.Fields, 1)
	assert.Equal(t, Field{Name: "q", Required: true, Location: "query", Description: "Search terms"}, search.Link.Fields[0])

	users := doc.Entries[1]
	require.Equal(t, ObjectEntry, users.Kind)
	require.Len(t, users.Object.Entries, 3)
	assert.Equal(t, "list", users.Object.Entries[0].Name)
	assert.Equal(t, "List users.", users.Object.Entries[0].Link.Description)

	create := users.Object.Entries[1].Link
	assert.Equal(t, "post", create.Action)
	assert.Equal(t, "application/json", create.Encoding)
	assert.Equal(t, []Field{
		{Name: "username", Required: true, Location: "form", Description: "Login name"},
		{Name: "email", Location: "form"},
	}, create.Fields)

	admin := users.Object.Entries[2]
	assert.Equal(t, ObjectEntry, admin.Kind)
}

func TestParse_YAML(t *testing.T) {
	doc, err := Parse([]byte(`
_type: document
_meta:
  title: YAML API
ping:
  _type: link
  url: /ping/
  fields: [verbose]
`))
	require.NoError(t, err)
	assert.Equal(t, "YAML API", doc.Title)
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, []Field{{Name: "verbose"}}, doc.Entries[0].Link.Fields)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"not an object", `[1, 2]`},
		{"wrong type", `{"_type": "error", "_meta": {"title": "x"}}`},
		{"bad syntax", `{"_type": "document",`},
		{"fields not a list", `{"a": {"_type": "link", "fields": {"name": "x"}}}`},
		{"field without name", `{"a": {"_type": "link", "fields": [{"location": "query"}]}}`},
		{"required not bool", `{"a": {"_type": "link", "fields": [{"name": "x", "required": "maybe"}]}}`},
		{"url not a string", `{"a": {"_type": "link", "url": ["x"]}}`},
		{"meta not an object", `{"_meta": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			require.Error(t, err)
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %T", err)
			assert.Equal(t, ParseError, le.Code)
		})
	}
}

func TestParse_AliasCycles(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"object aliases itself", "_type: document\nusers: &u\n  nested: *u\n"},
		{"object aliases the root", "&root\n_type: document\nusers:\n  back: *root\n"},
		{"cycle through a child", "_type: document\na: &a\n  b: &b\n    again: *a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			require.Error(t, err)
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %T", err)
			assert.Equal(t, ParseError, le.Code)
			assert.Contains(t, err.Error(), "enclosing object")
		})
	}
}

func TestParse_SharedAliasIsNotACycle(t *testing.T) {
	doc, err := Parse([]byte(`_type: document
users: &u
  list: {_type: link, url: /users/, action: get}
admins: *u
`))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "/users/", doc.Entries[1].Object.Entries[0].Link.URL)
}

func nestedObjects(depth int) string {
	return strings.Repeat("{a: ", depth) + "{}" + strings.Repeat("}", depth)
}

func TestParse_Nesting(t *testing.T) {
	_, err := Parse([]byte(nestedObjects(20)))
	require.NoError(t, err)

	_, err = Parse([]byte(nestedObjects(maxNesting + 8)))
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ParseError, le.Code)
	assert.Contains(t, err.Error(), "nested deeper than")
}

func TestParse_AliasFanOut(t *testing.T) {
	// Each level repeats the previous one ten times.
	var b strings.Builder
	b.WriteString("_type: document\nl0: &l0 {_type: link, url: /x/}\n")
	for i := 1; i <= 9; i++ {
		fmt.Fprintf(&b, "l%d: &l%d {", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "k%d: *l%d", j, i-1)
		}
		b.WriteString("}\n")
	}

	_, err := Parse([]byte(b.String()))
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ParseError, le.Code)
	assert.Contains(t, err.Error(), fmt.Sprintf("more than %d entries", maxEntries))
}

func TestParse_AliasedValuesInLinks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"list as a field", "_type: document\nids: &ids [1, 2]\nget: {_type: link, fields: [*ids]}\n", "field must be an object"},
		{"fields list contains itself", "_type: document\nget: {_type: link, fields: &f [*f]}\n", "field must be an object"},
		{"schema refers to itself", "_type: document\nget: {_type: link, fields: [{name: q, schema: &s {description: *s}}]}\n", "description must be a string"},
		{"meta refers to itself", "_type: document\n_meta: &m {url: *m}\n", "url must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	doc, err := Parse([]byte("_type: document\nid: &id {name: id, location: path, required: true}\nget: {_type: link, url: '/x/{id}/', fields: [*id]}\n"))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, []Field{{Name: "id", Required: true, Location: "path"}}, doc.Entries[1].Link.Fields)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(usersCoreJSON), 0o600))

	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Users API", doc.Title)
}

func TestLoad_EmptyInput(t *testing.T) {
	_, err := Load(context.Background(), "  ")
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, InputError, le.Code)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, InputError, le.Code)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_ParseErrorCarriesLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	_, err := Load(context.Background(), path)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, ParseError, le.Code)
	assert.Equal(t, path, le.Location)
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	for _, in := range []string{"ftp://example.com/schema.json", "file://host/etc/hosts"} {
		_, err := Load(context.Background(), in)
		var le *LoadError
		require.True(t, errors.As(err, &le), in)
		assert.Equal(t, InputError, le.Code)
	}
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/coreapi+json")
		_, _ = w.Write([]byte(usersCoreJSON))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/schema/")
	require.NoError(t, err)
	assert.Equal(t, "Users API", doc.Title)
}

func TestLoad_HTTPRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(usersCoreJSON))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL, WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "Users API", doc.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLoad_HTTPClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such schema", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL, WithMaxRetries(3), WithBackoffBase(time.Millisecond))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, NetworkError, le.Code)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoad_NetworkError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, "http://127.0.0.1:1/schema.json",
		WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2), WithBackoffBase(time.Millisecond))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, NetworkError, le.Code)
}
