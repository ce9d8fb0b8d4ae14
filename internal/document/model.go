package document

// Core API document model. Documents are built by the loader (or by callers
// directly) and are treated as read-only by the converter.

// Field locations understood by the converter.
const (
	LocationPath  = "path"
	LocationQuery = "query"
	LocationForm  = "form"
	LocationBody  = "body"
)

// EntryKind tags the variant held by an Entry.
type EntryKind int

const (
	LinkEntry EntryKind = iota + 1
	ObjectEntry
)

func (k EntryKind) String() string {
	switch k {
	case LinkEntry:
		return "link"
	case ObjectEntry:
		return "object"
	default:
		return "unknown"
	}
}

// Entry is a named member of a Document or Object. Exactly one of Link and
// Object is set, as indicated by Kind.
type Entry struct {
	Name   string
	Kind   EntryKind
	Link   *Link
	Object *Object
}

// Document is the root of a Core API description.
type Document struct {
	URL         string
	Title       string
	Description string
	Entries     []Entry
}

// Object groups links under a name. Its name becomes the tag of the
// operations it contains.
type Object struct {
	Entries []Entry
}

type Link struct {
	URL         string
	Action      string
	Encoding    string
	Title       string
	Description string
	Fields      []Field
}

type Field struct {
	Name        string
	Required    bool
	Location    string // path|query|form|body, empty when undeclared
	Description string
}

// NewDocument returns an empty document for the given base URL and title.
func NewDocument(url, title string) *Document {
	return &Document{URL: url, Title: title}
}

// AddLink sets name to link. An existing entry with the same name is
// replaced in place.
func (d *Document) AddLink(name string, link *Link) *Document {
	d.Entries = setEntry(d.Entries, Entry{Name: name, Kind: LinkEntry, Link: link})
	return d
}

// AddObject sets name to obj. An existing entry with the same name is
// replaced in place.
func (d *Document) AddObject(name string, obj *Object) *Document {
	d.Entries = setEntry(d.Entries, Entry{Name: name, Kind: ObjectEntry, Object: obj})
	return d
}

// Lookup returns the entry stored under name.
func (d *Document) Lookup(name string) (Entry, bool) {
	return lookupEntry(d.Entries, name)
}

// NewObject returns an empty link container.
func NewObject() *Object {
	return &Object{}
}

func (o *Object) AddLink(name string, link *Link) *Object {
	o.Entries = setEntry(o.Entries, Entry{Name: name, Kind: LinkEntry, Link: link})
	return o
}

func (o *Object) AddObject(name string, obj *Object) *Object {
	o.Entries = setEntry(o.Entries, Entry{Name: name, Kind: ObjectEntry, Object: obj})
	return o
}

func (o *Object) Lookup(name string) (Entry, bool) {
	return lookupEntry(o.Entries, name)
}

func setEntry(entries []Entry, e Entry) []Entry {
	for i := range entries {
		if entries[i].Name == e.Name {
			entries[i] = e
			return entries
		}
	}
	return append(entries, e)
}

func lookupEntry(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
