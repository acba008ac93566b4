package db

import (
	"context"
	"fmt"

	"sellervault-backend-go/internal/models"
)

type vaultSecretRepository struct {
	store DocumentStore
}

// NewVaultSecretRepository creates a VaultSecretRepository over store.
func NewVaultSecretRepository(store DocumentStore) VaultSecretRepository {
	return &vaultSecretRepository{store: store}
}

func (r *vaultSecretRepository) Create(ctx context.Context, secret *models.VaultSecret) error {
	doc, err := toDocument(secret)
	if err != nil {
		return err
	}
	if _, err := r.store.Insert(ctx, models.VaultSecretCollection, doc); err != nil {
		return fmt.Errorf("failed to create vault secret %s: %w", secret.ID, err)
	}
	return nil
}

// GetByID returns the stored secret or ErrNotFound.
func (r *vaultSecretRepository) GetByID(ctx context.Context, vaultID string) (*models.VaultSecret, error) {
	doc, err := r.store.Get(ctx, models.VaultSecretCollection, vaultID)
	if err != nil {
		return nil, err
	}
	var secret models.VaultSecret
	if err := fromDocument(doc, &secret); err != nil {
		return nil, err
	}
	return &secret, nil
}

func (r *vaultSecretRepository) Update(ctx context.Context, secret *models.VaultSecret) error {
	doc, err := toDocument(secret)
	if err != nil {
		return err
	}
	if _, err := r.store.Save(ctx, models.VaultSecretCollection, doc); err != nil {
		return fmt.Errorf("failed to update vault secret %s: %w", secret.ID, err)
	}
	return nil
}
