package db

import (
	"context"
	"errors"
	"fmt"

	"sellervault-backend-go/internal/models"
)

type sellerRepository struct {
	store DocumentStore
}

// NewSellerRepository creates a SellerRepository over store.
func NewSellerRepository(store DocumentStore) SellerRepository {
	return &sellerRepository{store: store}
}

// GetByID loads a seller record or returns ErrNotFound.
func (r *sellerRepository) GetByID(ctx context.Context, memberID string) (*models.SellerRecord, error) {
	if memberID == "" {
		return nil, errors.New("memberID cannot be empty for GetByID operation")
	}
	doc, err := r.store.Get(ctx, models.SellerCollection, memberID)
	if err != nil {
		return nil, err
	}
	var record models.SellerRecord
	if err := fromDocument(doc, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Save upserts the full record.
func (r *sellerRepository) Save(ctx context.Context, record *models.SellerRecord) error {
	if record == nil || record.ID == "" {
		return errors.New("seller record must carry an id")
	}
	doc, err := toDocument(record)
	if err != nil {
		return err
	}
	if _, err := r.store.Save(ctx, models.SellerCollection, doc); err != nil {
		return fmt.Errorf("failed to save seller record %s: %w", record.ID, err)
	}
	return nil
}

type approvedSellerRepository struct {
	store DocumentStore
}

// NewApprovedSellerRepository creates an ApprovedSellerRepository over store.
func NewApprovedSellerRepository(store DocumentStore) ApprovedSellerRepository {
	return &approvedSellerRepository{store: store}
}

func (r *approvedSellerRepository) ExistsByMemberID(ctx context.Context, memberID string) (bool, error) {
	res, err := r.store.Query(models.ApprovedSellerCollection).Eq(IDField, memberID).Limit(1).Find(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to query approved sellers for %s: %w", memberID, err)
	}
	return len(res.Items) > 0, nil
}

// FindByMemberID returns the approved seller record or ErrNotFound.
func (r *approvedSellerRepository) FindByMemberID(ctx context.Context, memberID string) (*models.ApprovedSellerRecord, error) {
	res, err := r.store.Query(models.ApprovedSellerCollection).Eq(IDField, memberID).Limit(1).Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved sellers for %s: %w", memberID, err)
	}
	if len(res.Items) == 0 {
		return nil, fmt.Errorf("approved seller %s: %w", memberID, ErrNotFound)
	}
	var record models.ApprovedSellerRecord
	if err := fromDocument(res.Items[0], &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *approvedSellerRepository) Insert(ctx context.Context, record *models.ApprovedSellerRecord) error {
	if record == nil || record.ID == "" {
		return errors.New("approved seller record must carry an id")
	}
	if record.Vault == nil {
		record.Vault = []models.VaultReceipt{}
	}
	doc, err := toDocument(record)
	if err != nil {
		return err
	}
	if _, err := r.store.Insert(ctx, models.ApprovedSellerCollection, doc); err != nil {
		return fmt.Errorf("failed to insert approved seller %s: %w", record.ID, err)
	}
	return nil
}

func (r *approvedSellerRepository) Save(ctx context.Context, record *models.ApprovedSellerRecord) error {
	if record == nil || record.ID == "" {
		return errors.New("approved seller record must carry an id")
	}
	doc, err := toDocument(record)
	if err != nil {
		return err
	}
	if _, err := r.store.Save(ctx, models.ApprovedSellerCollection, doc); err != nil {
		return fmt.Errorf("failed to save approved seller %s: %w", record.ID, err)
	}
	return nil
}
