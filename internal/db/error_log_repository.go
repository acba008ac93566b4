package db

import (
	"context"
	"fmt"

	"sellervault-backend-go/internal/models"
)

type errorLogRepository struct {
	store DocumentStore
}

// NewErrorLogRepository creates an ErrorLogRepository over store.
func NewErrorLogRepository(store DocumentStore) ErrorLogRepository {
	return &errorLogRepository{store: store}
}

// Create appends entry with a generated id.
func (r *errorLogRepository) Create(ctx context.Context, entry models.ErrorLog) error {
	entry.ID = ""
	doc, err := toDocument(entry)
	if err != nil {
		return err
	}
	if _, err := r.store.Insert(ctx, models.ErrorLogCollection, doc); err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	return nil
}
