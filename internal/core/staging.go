package core

import (
	"fmt"
	"strings"
	"sync"

	"sellervault-backend-go/internal/models"
)

// Field names accepted by CredentialStaging.SetField.
const (
	FieldCardNumber    = "cardNumber"
	FieldCardCVV       = "cvv"
	FieldCardExpiry    = "expiry"
	FieldAccountNumber = "accountNumber"
	FieldRoutingNumber = "routingNumber"
	FieldPayee         = "payee"
	FieldLast4CC       = "last4cc"
	FieldLast4ACH      = "last4ach"
	FieldLast4Route    = "last4route"
)

// CredentialStaging holds the card and bank drafts of one session together with
// the staged fields derived from them. Full numbers only live in the drafts;
// staged fields never carry more than the last four digits.
type CredentialStaging struct {
	mu     sync.Mutex
	card   models.CardDraft
	bank   models.BankDraft
	staged models.StagedFields
}

// NewCredentialStaging returns an empty staging store.
func NewCredentialStaging() *CredentialStaging {
	return &CredentialStaging{}
}

// SetField records one captured value. Raw card and account numbers go to the
// drafts and only their last four digits are staged.
func (s *CredentialStaging) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case FieldCardNumber:
		s.card.Number = value
		s.staged.Last4CC = LastFour(value)
	case FieldCardCVV:
		s.card.CVV = value
	case FieldCardExpiry:
		s.card.Expiry = value
	case FieldAccountNumber:
		s.bank.AccountNumber = value
		s.staged.Last4ACH = LastFour(value)
	case FieldRoutingNumber:
		s.bank.RoutingNumber = value
		s.staged.Last4Route = LastFour(value)
	case FieldPayee:
		s.staged.Payee = value
	case FieldLast4CC:
		s.staged.Last4CC = LastFour(value)
	case FieldLast4ACH:
		s.staged.Last4ACH = LastFour(value)
	case FieldLast4Route:
		s.staged.Last4Route = LastFour(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

// GetDraft returns a copy of the requested draft.
func (s *CredentialStaging) GetDraft(kind models.DraftKind) (models.CardDraft, models.BankDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case models.DraftCard:
		return s.card, models.BankDraft{}
	case models.DraftBank:
		return models.CardDraft{}, s.bank
	}
	return models.CardDraft{}, models.BankDraft{}
}

// ClearDraft drops the raw input of one draft. Staged last-4 values stay. Idempotent.
func (s *CredentialStaging) ClearDraft(kind models.DraftKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case models.DraftCard:
		s.card = models.CardDraft{}
	case models.DraftBank:
		s.bank = models.BankDraft{}
	}
}

// ClearAll releases both drafts and every staged field. Idempotent.
func (s *CredentialStaging) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = models.CardDraft{}
	s.bank = models.BankDraft{}
	s.staged = models.StagedFields{}
}

// Staged returns a copy of the staged fields.
func (s *CredentialStaging) Staged() models.StagedFields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyStaged(s.staged)
}

// Restore replaces the staged fields with an earlier snapshot. Drafts are untouched.
func (s *CredentialStaging) Restore(snapshot models.StagedFields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = copyStaged(snapshot)
}

// MarkApproved stages approvedSeller=true.
func (s *CredentialStaging) MarkApproved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged.ApprovedSeller = true
}

// SetReceipt stages the most recent vault receipt.
func (s *CredentialStaging) SetReceipt(receipt models.VaultReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := receipt
	s.staged.Receipt = &r
}

// HasDraft reports whether any raw input is held.
func (s *CredentialStaging) HasDraft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.card.IsEmpty() || !s.bank.IsEmpty()
}

func copyStaged(in models.StagedFields) models.StagedFields {
	out := in
	if in.Receipt != nil {
		r := *in.Receipt
		out.Receipt = &r
	}
	return out
}

// LastFour returns the last four digits of value, ignoring separators.
func LastFour(value string) string {
	digits := DigitsOnly(value)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsNumberInput accepts digits with optional spaces and dashes and at least four digits.
func IsNumberInput(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for _, r := range value {
		if (r < '0' || r > '9') && r != ' ' && r != '-' {
			return false
		}
	}
	return len(DigitsOnly(value)) >= 4
}

// MaskedValue renders a masked display value for a last-4 marker.
func MaskedValue(last4 string) string {
	return "••••••••••••" + last4
}
