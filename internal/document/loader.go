package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError   ErrorCode = "InputError"
	NetworkError ErrorCode = "NetworkError"
	ParseError   ErrorCode = "ParseError"
)

// LoadError is a structured error with an optional source location.
type LoadError struct {
	Code     ErrorCode
	Message  string
	Location string // file path or URL
	Cause    error
}

func (e *LoadError) Error() string { return e.Message }
func (e *LoadError) Unwrap() error { return e.Cause }

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	Logger      *slog.Logger
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		Logger:      slog.New(slog.DiscardHandler),
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithLogger(l *slog.Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.Logger = l
		}
	}
}

// Load reads a Core JSON document from a filesystem path or an http/https URL.
func Load(ctx context.Context, input string, opts ...Option) (*Document, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &LoadError{Code: InputError, Message: "document: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return nil, &LoadError{Code: InputError, Message: fmt.Sprintf("document: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		settings.Logger.Debug("fetching document", "url", input)
		raw, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, &LoadError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return parseAt(raw, input)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &LoadError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	settings.Logger.Debug("reading document", "path", abs)
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &LoadError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return parseAt(raw, abs)
}

// Parse decodes a Core JSON document. YAML input is accepted as well.
func Parse(data []byte) (*Document, error) {
	return parseAt(data, "")
}

func parseAt(data []byte, location string) (*Document, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, &LoadError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}
	return doc, nil
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		settings.Logger.Debug("transient fetch failure", "url", rawURL, "attempt", i+1, "error", err)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// fetchOnce performs a single GET. The bool result reports whether a failure
// is worth retrying.
func fetchOnce(ctx context.Context, client *http.Client, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/coreapi+json, application/json;q=0.9, */*;q=0.1")
	resp, err := client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func decodeDocument(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("parse document: empty input")
	}
	node := resolve(root.Content[0])
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: document root must be an object", node.Line)
	}
	if typ := typeOf(node); typ != "" && typ != "document" {
		return nil, fmt.Errorf("line %d: expected _type \"document\", got %q", node.Line, typ)
	}

	doc := &Document{}
	if meta := member(node, "_meta"); meta != nil {
		if meta.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: _meta must be an object", meta.Line)
		}
		var err error
		if doc.URL, err = stringMember(meta, "url"); err != nil {
			return nil, err
		}
		if doc.Title, err = stringMember(meta, "title"); err != nil {
			return nil, err
		}
		if doc.Description, err = stringMember(meta, "description"); err != nil {
			return nil, err
		}
	}

	entries, err := decodeEntries(node)
	if err != nil {
		return nil, err
	}
	doc.Entries = entries
	return doc, nil
}

// Limits on the object walk. Aliases let a small document name an enclosing
// object or repeat one object many times over.
const (
	maxNesting = 32
	maxEntries = 10000
)

func decodeEntries(node *yaml.Node) ([]Entry, error) {
	d := &entryDecoder{open: make(map[*yaml.Node]bool)}
	return d.decode(node, 0)
}

// entryDecoder tracks the objects currently being decoded and the number of
// entries seen so far.
type entryDecoder struct {
	open    map[*yaml.Node]bool
	entries int
}

func (d *entryDecoder) decode(node *yaml.Node, depth int) ([]Entry, error) {
	d.open[node] = true
	defer delete(d.open, node)

	var entries []Entry
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		key, ok := unescapeKey(keyNode.Value)
		if !ok {
			continue
		}
		value := resolve(node.Content[i+1])
		if value.Kind != yaml.MappingNode {
			continue
		}
		d.entries++
		if d.entries > maxEntries {
			return nil, fmt.Errorf("line %d: document has more than %d entries", keyNode.Line, maxEntries)
		}
		switch typeOf(value) {
		case "link":
			link, err := decodeLink(value)
			if err != nil {
				return nil, fmt.Errorf("link %q: %w", key, err)
			}
			entries = setEntry(entries, Entry{Name: key, Kind: LinkEntry, Link: link})
		case "", "object", "document":
			if d.open[value] {
				return nil, fmt.Errorf("line %d: %s: alias refers to an enclosing object", keyNode.Line, key)
			}
			if depth+1 > maxNesting {
				return nil, fmt.Errorf("line %d: %s: objects nested deeper than %d levels", keyNode.Line, key, maxNesting)
			}
			children, err := d.decode(value, depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			entries = setEntry(entries, Entry{Name: key, Kind: ObjectEntry, Object: &Object{Entries: children}})
		}
	}
	return entries, nil
}

func decodeLink(node *yaml.Node) (*Link, error) {
	link := &Link{}
	var err error
	if link.URL, err = stringMember(node, "url"); err != nil {
		return nil, err
	}
	if link.Action, err = stringMember(node, "action"); err != nil {
		return nil, err
	}
	if link.Encoding, err = stringMember(node, "encoding"); err != nil {
		return nil, err
	}
	if link.Title, err = stringMember(node, "title"); err != nil {
		return nil, err
	}
	if link.Description, err = stringMember(node, "description"); err != nil {
		return nil, err
	}

	fields := member(node, "fields")
	if fields == nil {
		return link, nil
	}
	if fields.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: fields must be a list", fields.Line)
	}
	for _, item := range fields.Content {
		field, err := decodeField(resolve(item))
		if err != nil {
			return nil, err
		}
		link.Fields = append(link.Fields, field)
	}
	return link, nil
}

func decodeField(node *yaml.Node) (Field, error) {
	var f Field
	// A bare string is shorthand for an optional field with that name.
	if node.Kind == yaml.ScalarNode {
		f.Name = node.Value
		return f, nil
	}
	if node.Kind != yaml.MappingNode {
		return f, fmt.Errorf("line %d: field must be an object", node.Line)
	}
	var err error
	if f.Name, err = stringMember(node, "name"); err != nil {
		return f, err
	}
	if f.Name == "" {
		return f, fmt.Errorf("line %d: field is missing a name", node.Line)
	}
	if f.Location, err = stringMember(node, "location"); err != nil {
		return f, err
	}
	if req := member(node, "required"); req != nil {
		if err := req.Decode(&f.Required); err != nil {
			return f, fmt.Errorf("line %d: field %q: required must be a boolean", req.Line, f.Name)
		}
	}
	if f.Description, err = stringMember(node, "description"); err != nil {
		return f, err
	}
	if f.Description == "" {
		if schema := member(node, "schema"); schema != nil && schema.Kind == yaml.MappingNode {
			if f.Description, err = stringMember(schema, "description"); err != nil {
				return f, err
			}
		}
	}
	return f, nil
}

// unescapeKey reports whether key names an entry. Keys with a single
// leading underscore are metadata; a double underscore escapes one.
func unescapeKey(key string) (string, bool) {
	if strings.HasPrefix(key, "__") {
		return key[1:], true
	}
	if strings.HasPrefix(key, "_") {
		return "", false
	}
	return key, true
}

func typeOf(node *yaml.Node) string {
	t := member(node, "_type")
	if t == nil || t.Kind != yaml.ScalarNode {
		return ""
	}
	return t.Value
}

func member(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return resolve(node.Content[i+1])
		}
	}
	return nil
}

func stringMember(node *yaml.Node, key string) (string, error) {
	v := member(node, key)
	if v == nil || v.Tag == "!!null" {
		return "", nil
	}
	if v.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: %s must be a string", v.Line, key)
	}
	return v.Value, nil
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}
