package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// IDField is the document key every store honours.
const IDField = "_id"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned by Insert when the id is taken.
	ErrAlreadyExists = errors.New("document already exists")
)

// Document is a schemaless record. Its "_id" entry is the document key.
type Document map[string]interface{}

// ID returns the document key, or "" when unset.
func (d Document) ID() string {
	if id, ok := d[IDField].(string); ok {
		return id
	}
	return ""
}

// QueryResult is the outcome of Query.Find.
type QueryResult struct {
	Items []Document
}

// Query is a chainable equality filter over one collection.
type Query interface {
	Eq(field string, value interface{}) Query
	Limit(n int) Query
	Find(ctx context.Context) (QueryResult, error)
}

// DocumentStore is the persistence contract shared by the Firestore, Postgres and in-memory drivers.
type DocumentStore interface {
	// Save upserts doc by its "_id", assigning one when missing.
	Save(ctx context.Context, collection string, doc Document) (Document, error)
	// Insert creates doc and fails with ErrAlreadyExists when the id is taken.
	Insert(ctx context.Context, collection string, doc Document) (Document, error)
	// Get fetches a document by id or returns ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Remove deletes a document; removing a missing document is not an error.
	Remove(ctx context.Context, collection, id string) error
	Query(collection string) Query
	Close() error
}

// withID returns a copy of doc carrying an id, generating one when absent.
func withID(doc Document) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	if out.ID() == "" {
		out[IDField] = uuid.NewString()
	}
	return out
}

// normalize round-trips a document through JSON so every driver sees the same
// value shapes: maps, slices, strings, float64 and bool.
func normalize(doc Document) (Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func normalizeValue(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
