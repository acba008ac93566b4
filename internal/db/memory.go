package db

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// MemoryStore is an in-process DocumentStore. Documents are copied on the way
// in and out so callers never share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Document)}
}

func (s *MemoryStore) Save(ctx context.Context, collection string, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored, err := normalize(withID(doc))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[stored.ID()] = stored
	return normalize(stored)
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored, err := normalize(withID(doc))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.collection(collection)
	if _, exists := docs[stored.ID()]; exists {
		return nil, fmt.Errorf("insert %s/%s: %w", collection, stored.ID(), ErrAlreadyExists)
	}
	docs[stored.ID()] = stored
	return normalize(stored)
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	return normalize(doc)
}

func (s *MemoryStore) Remove(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Query(collection string) Query {
	return &memoryQuery{store: s, collection: collection}
}

func (s *MemoryStore) Close() error { return nil }

// Count returns the number of documents in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// collection must be called with the write lock held.
func (s *MemoryStore) collection(name string) map[string]Document {
	docs, ok := s.collections[name]
	if !ok {
		docs = make(map[string]Document)
		s.collections[name] = docs
	}
	return docs
}

type memoryFilter struct {
	field string
	value interface{}
}

type memoryQuery struct {
	store      *MemoryStore
	collection string
	filters    []memoryFilter
	limit      int
	err        error
}

func (q *memoryQuery) Eq(field string, value interface{}) Query {
	v, err := normalizeValue(value)
	if err != nil && q.err == nil {
		q.err = fmt.Errorf("query %s.%s: %w", q.collection, field, err)
	}
	q.filters = append(q.filters, memoryFilter{field: field, value: v})
	return q
}

func (q *memoryQuery) Limit(n int) Query {
	q.limit = n
	return q
}

func (q *memoryQuery) Find(ctx context.Context) (QueryResult, error) {
	if q.err != nil {
		return QueryResult{}, q.err
	}
	if err := ctx.Err(); err != nil {
		return QueryResult{}, err
	}

	q.store.mu.RLock()
	defer q.store.mu.RUnlock()

	ids := make([]string, 0, len(q.store.collections[q.collection]))
	for id := range q.store.collections[q.collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result QueryResult
	for _, id := range ids {
		doc := q.store.collections[q.collection][id]
		if !q.matches(doc) {
			continue
		}
		out, err := normalize(doc)
		if err != nil {
			return QueryResult{}, err
		}
		result.Items = append(result.Items, out)
		if q.limit > 0 && len(result.Items) >= q.limit {
			break
		}
	}
	return result, nil
}

func (q *memoryQuery) matches(doc Document) bool {
	for _, f := range q.filters {
		if !reflect.DeepEqual(doc[f.field], f.value) {
			return false
		}
	}
	return true
}
