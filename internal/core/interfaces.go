package core

import (
	"context"
	"time"

	"sellervault-backend-go/internal/models"
)

// VaultBackend is the external secret-handling collaborator. A nil error with
// Success=false is a validation or lookup failure reported by the backend; a
// non-nil error means the backend could not be reached.
type VaultBackend interface {
	Store(ctx context.Context, payload models.VaultPayload) (*models.VaultResponse, error)
	Retrieve(ctx context.Context, vaultID string) (*models.VaultResponse, error)
	Process(ctx context.Context, vaultID string, result map[string]interface{}) (*models.VaultResponse, error)
	Cleanup(ctx context.Context, vaultID string) (*models.VaultResponse, error)
}

// SubmissionLedger remembers recent vault submissions by keyed content hash.
type SubmissionLedger interface {
	// Lookup returns nil, nil when key is unknown or expired.
	Lookup(ctx context.Context, key string) (*models.VaultReceipt, error)
	Remember(ctx context.Context, key string, receipt models.VaultReceipt, ttl time.Duration) error
	// Forget drops the entry remembered for vaultID. Unknown ids are not an error.
	Forget(ctx context.Context, vaultID string) error
}

// EventPublisher announces approval transitions to other services.
type EventPublisher interface {
	PublishSellerApproved(ctx context.Context, event models.SellerApprovedEvent) error
}

// ErrorLogService appends caught failures to the error log. It never fails.
type ErrorLogService interface {
	Record(ctx context.Context, err error, context string, memberID string)
}

// VaultClient submits and manages staged credential payloads in the vault.
// No method retries internally.
type VaultClient interface {
	Store(ctx context.Context, payload models.VaultPayload) (*models.VaultReceipt, error)
	Retrieve(ctx context.Context, vaultID string) (*models.VaultPayload, error)
	// Finalize processes a submission and then cleans it up. A cleanup failure
	// is reported through FinalizeResult.CleanupErr, not as an error.
	Finalize(ctx context.Context, vaultID string, processingResult map[string]interface{}) (*models.FinalizeResult, error)
	Cleanup(ctx context.Context, vaultID string) error
}

// ApprovalEngine owns the seller state machine.
type ApprovalEngine interface {
	State(record *models.SellerRecord) SellerState
	Check(ctx context.Context, member *models.Member, record *models.SellerRecord, staging *CredentialStaging) (*ApprovalOutcome, error)
	SaveBothAndAdvance(ctx context.Context, member *models.Member, record *models.SellerRecord, staging *CredentialStaging) (*models.SellerRecord, error)
}

// View is the presentation collaborator driven by the intake controller.
type View interface {
	FieldValue(name string) string
	SetFieldValue(name, value string)
	SetPlaceholder(name, value string)
	Expand(panels ...string)
	Collapse(panels ...string)
	SetButton(name, label string, enabled bool)
	ShowError(message string)
	ShowSuccess(message string)
	Navigate(target string)
}

// IntakeController orchestrates one member's credential intake session.
type IntakeController interface {
	Open(ctx context.Context, member *models.Member, redirectTarget string, view View) (*Session, error)
	SubmitCard(ctx context.Context, member *models.Member, view View) error
	SubmitBank(ctx context.Context, member *models.Member, view View) error
	UpdateCard(ctx context.Context, member *models.Member, view View) error
	UpdateBank(ctx context.Context, member *models.Member, view View) error
	ChangeCard(ctx context.Context, member *models.Member, view View) error
	ChangeBank(ctx context.Context, member *models.Member, view View) error
	CancelCardUpdate(ctx context.Context, member *models.Member, view View) error
	CancelBankUpdate(ctx context.Context, member *models.Member, view View) error
	CheckApproval(ctx context.Context, member *models.Member, view View) (*ApprovalOutcome, error)
	FinalizeVault(ctx context.Context, member *models.Member, vaultID string, processingResult map[string]interface{}) (*models.FinalizeResult, error)
}
