package models

// VaultStatus is the lifecycle state of a vault submission.
type VaultStatus string

const (
	VaultStatusInTransit VaultStatus = "in_transit"
	VaultStatusProcessed VaultStatus = "processed"
	VaultStatusCleanedUp VaultStatus = "cleaned_up"
)

// DraftKind selects the card or bank credential draft.
type DraftKind string

const (
	DraftCard DraftKind = "card"
	DraftBank DraftKind = "bank"
)

// CardDraft holds raw card input for the duration of one action.
type CardDraft struct {
	Number string `json:"number"`
	CVV    string `json:"cvv"`
	Expiry string `json:"expiry"`
}

// IsEmpty reports whether no card field has been captured.
func (d CardDraft) IsEmpty() bool {
	return d.Number == "" && d.CVV == "" && d.Expiry == ""
}

// BankDraft holds raw bank input for the duration of one action.
type BankDraft struct {
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
}

// IsEmpty reports whether no bank field has been captured.
func (d BankDraft) IsEmpty() bool {
	return d.AccountNumber == "" && d.RoutingNumber == ""
}

// StagedFields are the non-sensitive projections accumulated during a session
// and merged into the seller record on save.
type StagedFields struct {
	Last4CC        string        `json:"last4cc,omitempty"`
	Last4ACH       string        `json:"last4ach,omitempty"`
	Last4Route     string        `json:"last4route,omitempty"`
	Payee          string        `json:"payee,omitempty"`
	ApprovedSeller bool          `json:"approvedSeller,omitempty"`
	Receipt        *VaultReceipt `json:"vaultResult,omitempty"`
}

// VaultPayload is what gets sealed into the vault backend.
type VaultPayload struct {
	VaultID   string       `json:"vaultId"`
	UserID    string       `json:"userId"`
	Timestamp string       `json:"timestamp"`
	Status    VaultStatus  `json:"status"`
	Encode    StagedFields `json:"encode"`
	Card      *CardDraft   `json:"card,omitempty"`
	Bank      *BankDraft   `json:"bank,omitempty"`
}

// VaultReceipt is returned by a successful store and appended to the approved seller history.
type VaultReceipt struct {
	VaultID  string      `json:"vaultId" mapstructure:"vaultId"`
	Status   VaultStatus `json:"status" mapstructure:"status"`
	Kind     DraftKind   `json:"kind,omitempty" mapstructure:"kind"`
	StoredAt string      `json:"storedAt" mapstructure:"storedAt"`
}

// VaultResponse is the wire result of every vault backend RPC.
type VaultResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	VaultID string                 `json:"vaultId,omitempty"`
	Status  VaultStatus            `json:"status,omitempty"`
	Payload *VaultPayload          `json:"payload,omitempty"`
	Result  map[string]interface{} `json:"result,omitempty"`
}

// VaultSecret is the stored, sealed form of a vault submission.
type VaultSecret struct {
	ID               string                 `json:"_id" mapstructure:"_id"`
	UserID           string                 `json:"userId" mapstructure:"userId"`
	Status           VaultStatus            `json:"status" mapstructure:"status"`
	Sealed           string                 `json:"sealed,omitempty" mapstructure:"sealed"`
	ProcessingResult map[string]interface{} `json:"processingResult,omitempty" mapstructure:"processingResult"`
	CreatedAt        string                 `json:"createdAt" mapstructure:"createdAt"`
	UpdatedAt        string                 `json:"updatedAt" mapstructure:"updatedAt"`
}

// FinalizeResult reports a processed submission. CleanupErr carries a cleanup
// failure that did not undo the processing.
type FinalizeResult struct {
	VaultID          string                 `json:"vaultId"`
	Status           VaultStatus            `json:"status"`
	ProcessingResult map[string]interface{} `json:"-"`
	CleanupErr       error                  `json:"-"`
}
