// Package vault implements the vault backend RPCs on top of the document store.
// Payloads are sealed before they leave the process and are never readable
// from the document store alone.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sellervault-backend-go/internal/crypto"
	"sellervault-backend-go/internal/db"
	"sellervault-backend-go/internal/models"
)

const errNotFound = "not_found"

// StoreBackend keeps sealed payloads in the vaultSecrets collection.
type StoreBackend struct {
	secrets db.VaultSecretRepository
	sealer  *crypto.Sealer
	now     func() time.Time
	logger  *zap.Logger
}

// NewStoreBackend creates a StoreBackend.
func NewStoreBackend(secrets db.VaultSecretRepository, sealer *crypto.Sealer, logger *zap.Logger) *StoreBackend {
	return &StoreBackend{secrets: secrets, sealer: sealer, now: time.Now, logger: logger}
}

// Store seals payload under its vault id with status in_transit.
func (b *StoreBackend) Store(ctx context.Context, payload models.VaultPayload) (*models.VaultResponse, error) {
	if payload.VaultID == "" || payload.UserID == "" {
		return &models.VaultResponse{Success: false, Error: "vaultId and userId are required"}, nil
	}
	if payload.Card == nil && payload.Bank == nil {
		return &models.VaultResponse{Success: false, Error: "payload carries no credential"}, nil
	}

	plain, err := json.Marshal(payload)
	if err != nil {
		return &models.VaultResponse{Success: false, Error: "payload is not encodable"}, nil
	}
	sealed, err := b.sealer.Seal(plain, []byte(payload.VaultID))
	if err != nil {
		return nil, fmt.Errorf("seal payload %s: %w", payload.VaultID, err)
	}

	stamp := b.now().UTC().Format(time.RFC3339Nano)
	secret := &models.VaultSecret{
		ID:        payload.VaultID,
		UserID:    payload.UserID,
		Status:    models.VaultStatusInTransit,
		Sealed:    sealed,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
	if err := b.secrets.Create(ctx, secret); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			return &models.VaultResponse{Success: false, Error: "vault id already in use"}, nil
		}
		return nil, err
	}

	b.logger.Debug("Vault payload sealed", zap.String("vaultId", payload.VaultID))
	return &models.VaultResponse{Success: true, VaultID: payload.VaultID, Status: models.VaultStatusInTransit}, nil
}

// Retrieve unseals a stored payload. Cleaned-up submissions are reported as not found.
func (b *StoreBackend) Retrieve(ctx context.Context, vaultID string) (*models.VaultResponse, error) {
	secret, resp, err := b.load(ctx, vaultID)
	if resp != nil || err != nil {
		return resp, err
	}

	plain, err := b.sealer.Open(secret.Sealed, []byte(vaultID))
	if err != nil {
		b.logger.Error("Failed to open sealed vault payload", zap.String("vaultId", vaultID), zap.Error(err))
		return &models.VaultResponse{Success: false, Error: "payload integrity check failed"}, nil
	}
	var payload models.VaultPayload
	if err := json.Unmarshal(plain, &payload); err != nil {
		return &models.VaultResponse{Success: false, Error: "payload is not decodable"}, nil
	}
	payload.Status = secret.Status
	return &models.VaultResponse{Success: true, VaultID: vaultID, Status: secret.Status, Payload: &payload}, nil
}

// Process records the processing result and moves the submission to processed.
func (b *StoreBackend) Process(ctx context.Context, vaultID string, result map[string]interface{}) (*models.VaultResponse, error) {
	secret, resp, err := b.load(ctx, vaultID)
	if resp != nil || err != nil {
		return resp, err
	}

	secret.Status = models.VaultStatusProcessed
	secret.ProcessingResult = result
	secret.UpdatedAt = b.now().UTC().Format(time.RFC3339Nano)
	if err := b.secrets.Update(ctx, secret); err != nil {
		return nil, err
	}
	return &models.VaultResponse{Success: true, VaultID: vaultID, Status: secret.Status, Result: result}, nil
}

// Cleanup drops the sealed payload and keeps a cleaned_up tombstone.
func (b *StoreBackend) Cleanup(ctx context.Context, vaultID string) (*models.VaultResponse, error) {
	secret, resp, err := b.load(ctx, vaultID)
	if resp != nil || err != nil {
		return resp, err
	}

	secret.Status = models.VaultStatusCleanedUp
	secret.Sealed = ""
	secret.UpdatedAt = b.now().UTC().Format(time.RFC3339Nano)
	if err := b.secrets.Update(ctx, secret); err != nil {
		return nil, err
	}
	return &models.VaultResponse{Success: true, VaultID: vaultID, Status: secret.Status}, nil
}

// load returns the live secret, or a not_found response, or a transport error.
func (b *StoreBackend) load(ctx context.Context, vaultID string) (*models.VaultSecret, *models.VaultResponse, error) {
	if vaultID == "" {
		return nil, &models.VaultResponse{Success: false, Error: errNotFound}, nil
	}
	secret, err := b.secrets.GetByID(ctx, vaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &models.VaultResponse{Success: false, Error: errNotFound}, nil
		}
		return nil, nil, err
	}
	if secret.Status == models.VaultStatusCleanedUp {
		return nil, &models.VaultResponse{Success: false, Error: errNotFound}, nil
	}
	return secret, nil, nil
}
