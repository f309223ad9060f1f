package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"incommon/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	pgxconn "github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps documents as jsonb rows in postgres. Subscriptions are served
// from the writes made through this process.
type GormStore struct {
	db  *gorm.DB
	hub *hub
	now func() time.Time
}

func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{
		db:  conn,
		hub: newHub(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *GormStore) Create(ctx context.Context, collection, id string, fields map[string]any) (string, error) {
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
	data, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	now := s.now()
	record := db.Document{
		Path:       path,
		Collection: collection,
		Data:       datatypes.JSON(data),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", classify(err)
	}
	s.hub.publishNewer(toDocument(record, normalized))
	return id, nil
}

func (s *GormStore) Get(ctx context.Context, path string) (Document, error) {
	var record db.Document
	if err := s.db.WithContext(ctx).Where("path = ?", path).First(&record).Error; err != nil {
		return Document{}, classify(err)
	}
	return decodeRecord(record)
}

func (s *GormStore) Patch(ctx context.Context, path string, fields map[string]any, opts ...PatchOption) error {
	var options patchOptions
	for _, opt := range opts {
		opt(&options)
	}
	var updated Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record db.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("path = ?", path).First(&record).Error; err != nil {
			return err
		}
		if options.ifVersion != 0 && record.Version != options.ifVersion {
			return ErrStale
		}
		current := map[string]any{}
		if err := json.Unmarshal(record.Data, &current); err != nil {
			return permanentError{fmt.Errorf("decode %s: %w", path, err)}
		}
		if err := merge(current, fields); err != nil {
			return permanentError{err}
		}
		data, err := json.Marshal(current)
		if err != nil {
			return permanentError{err}
		}
		record.Data = datatypes.JSON(data)
		record.Version++
		record.UpdatedAt = s.now()
		if err := tx.Model(&db.Document{}).Where("path = ?", path).Updates(map[string]any{
			"data":       record.Data,
			"version":    record.Version,
			"updated_at": record.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		updated = toDocument(record, current)
		return nil
	})
	if err != nil {
		return classify(err)
	}
	s.hub.publishNewer(updated)
	return nil
}

func (s *GormStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	tx := s.db.WithContext(ctx).Where("collection = ?", collection)
	for _, filter := range q.Filters {
		if _, ok := filter.Value.(string); ok {
			tx = tx.Where(datatypes.JSONQuery("data").Equals(filter.Value, strings.Split(filter.Field, ".")...))
		}
	}
	var records []db.Document
	if err := tx.Find(&records).Error; err != nil {
		return nil, classify(err)
	}
	docs := make([]Document, 0, len(records))
	for _, record := range records {
		doc, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		// non-string filters are only applied here
		if matches(doc, q.Filters) {
			docs = append(docs, doc)
		}
	}
	sortDocuments(docs, q.OrderBy, q.Desc)
	return docs, nil
}

func (s *GormStore) Subscribe(ctx context.Context, path string) (<-chan Document, func(), error) {
	if err := validPath(path); err != nil {
		return nil, nil, err
	}
	sub := s.hub.subscribe(path)
	unsubscribe := unsubscribeOnDone(ctx, func() { s.hub.unsubscribe(path, sub) })
	if isDocumentPath(path) {
		doc, err := s.Get(ctx, path)
		switch {
		case errors.Is(err, ErrNotFound):
			doc = Document{Path: path, ID: lastSegment(path)}
		case err != nil:
			unsubscribe()
			return nil, nil, err
		}
		s.hub.deliverNewer(path, sub, doc)
	} else {
		children, err := s.Query(ctx, path, Query{})
		if err != nil {
			unsubscribe()
			return nil, nil, err
		}
		for _, child := range children {
			s.hub.deliverNewer(path, sub, child)
		}
	}
	return sub.C(), unsubscribe, nil
}

func (s *GormStore) Delete(ctx context.Context, path string) error {
	var record db.Document
	err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Where("path = ?", path).Delete(&record).Error
	if err != nil {
		return classify(err)
	}
	collection, id := splitPath(path)
	s.hub.publishNewer(Document{Path: Join(collection, id), ID: id, Version: record.Version + 1, UpdatedAt: s.now()})
	return nil
}

func decodeRecord(record db.Document) (Document, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(record.Data, &fields); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", record.Path, err)
	}
	return toDocument(record, fields), nil
}

func toDocument(record db.Document, fields map[string]any) Document {
	return Document{
		Path:      record.Path,
		ID:        lastSegment(record.Path),
		Exists:    true,
		Fields:    copyFields(fields),
		Version:   record.Version,
		UpdatedAt: record.UpdatedAt,
	}
}

// permanentError marks failures raised by this package inside a transaction.
// Retrying them cannot succeed, so classify passes them through unchanged.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// classify maps driver failures onto the store's sentinel errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var permanent permanentError
	if errors.As(err, &permanent) {
		return permanent.err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, ErrStale), errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isUniqueViolation(err):
		return ErrAlreadyExists
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pgxErr *pgxconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
