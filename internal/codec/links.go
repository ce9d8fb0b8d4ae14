package codec

import (
	"github.com/mark3labs/coreapi2swagger/internal/document"
)

// NamedLink is a link paired with the operationId and tags it is published
// under.
type NamedLink struct {
	OperationID string
	Link        *document.Link
	Tags        []string
}

// Links flattens a document into its operations: top-level links first,
// then the links of each top-level object tagged with the object's name.
//
// When any name repeats, every tagged operation is renamed to
// "<tag>_<name>". Untagged operations keep their names and may still clash
// with a renamed one.
func Links(doc *document.Document) []NamedLink {
	links, _ := resolveLinks(doc)
	return links
}

// resolveLinks is Links that also reports whether operations were renamed.
func resolveLinks(doc *document.Document) ([]NamedLink, bool) {
	links := collectLinks(doc)
	if unique(links) {
		return links, false
	}
	for i := range links {
		if len(links[i].Tags) > 0 {
			links[i].OperationID = links[i].Tags[0] + "_" + links[i].OperationID
		}
	}
	return links, true
}

func collectLinks(doc *document.Document) []NamedLink {
	var links []NamedLink
	for _, e := range doc.Entries {
		if e.Kind == document.LinkEntry && e.Link != nil {
			links = append(links, NamedLink{OperationID: e.Name, Link: e.Link, Tags: []string{}})
		}
	}
	for _, e := range doc.Entries {
		if e.Kind != document.ObjectEntry || e.Object == nil {
			continue
		}
		for _, nested := range e.Object.Entries {
			if nested.Kind == document.LinkEntry && nested.Link != nil {
				links = append(links, NamedLink{OperationID: nested.Name, Link: nested.Link, Tags: []string{e.Name}})
			}
		}
	}
	return links
}

func unique(links []NamedLink) bool {
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		seen[l.OperationID] = struct{}{}
	}
	return len(seen) == len(links)
}
