package db

import (
	"context"

	"sellervault-backend-go/internal/models"
)

// SellerRepository persists SellerRecords in the VerifiedMembers collection.
type SellerRepository interface {
	GetByID(ctx context.Context, memberID string) (*models.SellerRecord, error)
	Save(ctx context.Context, record *models.SellerRecord) error
}

// ApprovedSellerRepository manages the approvedSellers index.
type ApprovedSellerRepository interface {
	// ExistsByMemberID is the read half of the read-then-insert duplicate check.
	ExistsByMemberID(ctx context.Context, memberID string) (bool, error)
	FindByMemberID(ctx context.Context, memberID string) (*models.ApprovedSellerRecord, error)
	Insert(ctx context.Context, record *models.ApprovedSellerRecord) error
	Save(ctx context.Context, record *models.ApprovedSellerRecord) error
}

// ErrorLogRepository appends ErrorLog entries.
type ErrorLogRepository interface {
	Create(ctx context.Context, entry models.ErrorLog) error
}

// VaultSecretRepository stores sealed vault submissions.
type VaultSecretRepository interface {
	Create(ctx context.Context, secret *models.VaultSecret) error
	GetByID(ctx context.Context, vaultID string) (*models.VaultSecret, error)
	Update(ctx context.Context, secret *models.VaultSecret) error
}
