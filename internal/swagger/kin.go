package swagger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
)

// Kin converts s into a kin-openapi Swagger document so it can be handed to
// tooling built on that library.
func (s *Swagger) Kin() (*openapi2.T, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal swagger: %w", err)
	}
	var doc openapi2.T
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load into openapi2: %w", err)
	}
	return &doc, nil
}

// Check loads s through kin-openapi and reports operations that downstream
// tooling cannot address: missing or duplicated operationIds and path items
// without operations. It returns nil when the document is consumable.
func (s *Swagger) Check() error {
	doc, err := s.Kin()
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var problems []string
	seen := make(map[string]string)
	for _, p := range paths {
		ops := doc.Paths[p].Operations()
		if len(ops) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no operations", p))
			continue
		}
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			where := strings.ToLower(m) + " " + p
			id := ops[m].OperationID
			if id == "" {
				problems = append(problems, fmt.Sprintf("%s: missing operationId", where))
				continue
			}
			if prev, dup := seen[id]; dup {
				problems = append(problems, fmt.Sprintf("%s: operationId %q already used by %s", where, id, prev))
				continue
			}
			seen[id] = where
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("swagger check failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
