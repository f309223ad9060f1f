package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrStale         = errors.New("document version changed")
	ErrUnavailable   = errors.New("document store unavailable")
	ErrInvalidPatch  = errors.New("invalid patch")
)

type deleteField struct{}

// DeleteField removes a field when used as a patch value.
var DeleteField = deleteField{}

// Document is one snapshot of a stored document.
type Document struct {
	Path      string
	ID        string
	Exists    bool
	Fields    map[string]any
	Version   int64
	UpdatedAt time.Time
}

// Collection returns the path of the collection holding the document.
func (d Document) Collection() string {
	collection, _ := splitPath(d.Path)
	return collection
}

type Filter struct {
	Field string
	Value any
}

type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
}

// Where returns a query with a single equality filter.
func Where(field string, value any) Query {
	return Query{Filters: []Filter{{Field: field, Value: value}}}
}

type patchOptions struct {
	ifVersion int64
}

type PatchOption func(*patchOptions)

// IfVersion makes a patch fail with ErrStale unless the stored version matches.
func IfVersion(version int64) PatchOption {
	return func(o *patchOptions) {
		o.ifVersion = version
	}
}

// Store is a realtime document store with merge-patch writes and per-path subscriptions.
type Store interface {
	Create(ctx context.Context, collection, id string, fields map[string]any) (string, error)
	Get(ctx context.Context, path string) (Document, error)
	Patch(ctx context.Context, path string, fields map[string]any, opts ...PatchOption) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Subscribe(ctx context.Context, path string) (<-chan Document, func(), error)
	Delete(ctx context.Context, path string) error
}

// Join builds a document path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func splitPath(path string) (string, string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

func validPath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return fmt.Errorf("invalid document path %q", path)
	}
	return nil
}

// normalize round-trips fields through JSON so every backend hands out the same value types.
func normalize(fields map[string]any) (map[string]any, error) {
	if fields == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeValue(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// merge applies a patch to base in place. Keys containing dots address nested maps.
func merge(base map[string]any, patch map[string]any) error {
	keys := make([]string, 0, len(patch))
	for key := range patch {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := patch[key]
		parts := strings.Split(key, ".")
		target := base
		for _, part := range parts[:len(parts)-1] {
			next, ok := target[part].(map[string]any)
			if !ok {
				if _, isDelete := value.(deleteField); isDelete {
					target = nil
					break
				}
				if existing := target[part]; existing != nil {
					return fmt.Errorf("%w: %s: %s is not an object", ErrInvalidPatch, key, part)
				}
				next = map[string]any{}
				target[part] = next
			}
			target = next
		}
		if target == nil {
			continue
		}
		last := parts[len(parts)-1]
		if _, isDelete := value.(deleteField); isDelete {
			delete(target, last)
			continue
		}
		normalized, err := normalizeValue(value)
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrInvalidPatch, key, err)
		}
		target[last] = normalized
	}
	return nil
}

func lookup(fields map[string]any, field string) (any, bool) {
	var current any = fields
	for _, part := range strings.Split(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func matches(doc Document, filters []Filter) bool {
	for _, filter := range filters {
		value, ok := lookup(doc.Fields, filter.Field)
		if !ok {
			return false
		}
		want, err := normalizeValue(filter.Value)
		if err != nil {
			return false
		}
		if !equalValues(value, want) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(left) == string(right)
}

func sortDocuments(docs []Document, field string, desc bool) {
	if field == "" {
		sort.SliceStable(docs, func(i, j int) bool {
			return docs[i].Path < docs[j].Path
		})
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := lookup(docs[i].Fields, field)
		b, _ := lookup(docs[j].Fields, field)
		if desc {
			return compareValues(b, a) < 0
		}
		return compareValues(a, b) < 0
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}
	// missing values sort first
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return 0
}

func copyFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out, err := normalize(fields)
	if err != nil {
		return map[string]any{}
	}
	return out
}
