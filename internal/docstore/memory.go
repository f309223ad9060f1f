package docstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryDoc struct {
	fields    map[string]any
	version   int64
	updatedAt time.Time
}

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]*memoryDoc
	hub  *hub
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*memoryDoc),
		hub:  newHub(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(ctx context.Context, collection, id string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	path := Join(collection, id)
	if err := validPath(path); err != nil {
		return "", err
	}
	normalized, err := normalize(fields)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	if _, exists := s.docs[path]; exists {
		s.mu.Unlock()
		return "", ErrAlreadyExists
	}
	doc := &memoryDoc{fields: normalized, version: 1, updatedAt: s.now()}
	s.docs[path] = doc
	s.hub.publish(s.snapshotLocked(path, doc))
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		return Document{}, ErrNotFound
	}
	return s.snapshotLocked(path, doc), nil
}

func (s *MemoryStore) Patch(ctx context.Context, path string, fields map[string]any, opts ...PatchOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var options patchOptions
	for _, opt := range opts {
		opt(&options)
	}
	s.mu.Lock()
	doc, ok := s.docs[path]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if options.ifVersion != 0 && doc.version != options.ifVersion {
		s.mu.Unlock()
		return ErrStale
	}
	next := copyFields(doc.fields)
	if err := merge(next, fields); err != nil {
		s.mu.Unlock()
		return err
	}
	doc.fields = next
	doc.version++
	doc.updatedAt = s.now()
	s.hub.publish(s.snapshotLocked(path, doc))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := collection + "/"
	s.mu.Lock()
	docs := make([]Document, 0)
	for path, doc := range s.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		snapshot := s.snapshotLocked(path, doc)
		if matches(snapshot, q.Filters) {
			docs = append(docs, snapshot)
		}
	}
	s.mu.Unlock()
	sortDocuments(docs, q.OrderBy, q.Desc)
	return docs, nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, path string) (<-chan Document, func(), error) {
	if err := validPath(path); err != nil {
		return nil, nil, err
	}
	// writers publish under s.mu, so the initial snapshot cannot overtake a newer one
	s.mu.Lock()
	sub := s.hub.subscribe(path)
	if isDocumentPath(path) {
		snapshot := Document{Path: path, ID: lastSegment(path)}
		if doc, ok := s.docs[path]; ok {
			snapshot = s.snapshotLocked(path, doc)
		}
		s.hub.deliver(path, sub, snapshot)
	} else {
		prefix := path + "/"
		children := make([]Document, 0)
		for child, doc := range s.docs {
			if strings.HasPrefix(child, prefix) && !strings.Contains(child[len(prefix):], "/") {
				children = append(children, s.snapshotLocked(child, doc))
			}
		}
		sortDocuments(children, "", false)
		for _, child := range children {
			s.hub.deliver(path, sub, child)
		}
	}
	s.mu.Unlock()
	return sub.C(), unsubscribeOnDone(ctx, func() { s.hub.unsubscribe(path, sub) }), nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	doc, ok := s.docs[path]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.docs, path)
	collection, id := splitPath(path)
	s.hub.publish(Document{Path: Join(collection, id), ID: id, Version: doc.version + 1, UpdatedAt: s.now()})
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) snapshotLocked(path string, doc *memoryDoc) Document {
	return Document{
		Path:      path,
		ID:        lastSegment(path),
		Exists:    true,
		Fields:    copyFields(doc.fields),
		Version:   doc.version,
		UpdatedAt: doc.updatedAt,
	}
}

func isDocumentPath(path string) bool {
	return strings.Count(path, "/")%2 == 1
}

func lastSegment(path string) string {
	_, id := splitPath(path)
	return id
}

// unsubscribeOnDone returns an idempotent unsubscribe that also runs when ctx ends.
func unsubscribeOnDone(ctx context.Context, unsubscribe func()) func() {
	var once sync.Once
	done := make(chan struct{})
	stop := func() {
		once.Do(func() {
			close(done)
			unsubscribe()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return stop
}
