package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/roombooking/internal/persistence"
)

// MemoryStore is an in-process document store. It backs tests and local
// experiments where no database is available.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]persistence.Document
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]persistence.Document)}
}

// Get retrieves a document by id.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (persistence.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return persistence.Document{}, persistence.ErrNotFound
	}
	return cloneDocument(doc), nil
}

// List returns documents of a collection ordered by creation time.
func (s *MemoryStore) List(ctx context.Context, collection string, filter *persistence.Filter) ([]persistence.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]persistence.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		if filter != nil && !FieldEquals(doc.Data, filter.Field, filter.Value) {
			continue
		}
		docs = append(docs, cloneDocument(doc))
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// Create stores a new document.
func (s *MemoryStore) Create(ctx context.Context, collection, id string, data []byte, at time.Time) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]persistence.Document)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return "", fmt.Errorf("docstore: %s/%s: %w", collection, id, persistence.ErrDuplicate)
	}

	docs[id] = persistence.Document{
		Collection: collection,
		ID:         id,
		Data:       append([]byte(nil), data...),
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	return id, nil
}

// Update merges partial into an existing document.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, partial []byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return persistence.ErrNotFound
	}
	merged, err := MergeFields(doc.Data, partial)
	if err != nil {
		return err
	}
	doc.Data = merged
	doc.UpdatedAt = at
	s.collections[collection][id] = doc
	return nil
}

// Delete removes a document.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func cloneDocument(doc persistence.Document) persistence.Document {
	doc.Data = append([]byte(nil), doc.Data...)
	return doc
}
