package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across the intake workflow.
var (
	ErrMemberUnresolved  = errors.New("member data not resolved")
	ErrIncompleteData    = errors.New("payment data incomplete")
	ErrVault             = errors.New("vault operation failed")
	ErrPersistence       = errors.New("document store operation failed")
	ErrRedirectRejected  = errors.New("redirect target rejected")
	ErrActionInFlight    = errors.New("action already in progress")
	ErrSellerNotVerified = errors.New("member is not seller verified")
	ErrInvalidInput      = errors.New("invalid credential input")
	ErrUnknownField      = errors.New("unknown staging field")
	ErrSessionNotFound   = errors.New("intake session not found")
	ErrVaultNotOwned     = errors.New("vault submission belongs to another member")
)

// MemberUnresolvedError is returned when an action runs without a resolved member identity.
type MemberUnresolvedError struct {
	Action string
}

func (e *MemberUnresolvedError) Error() string {
	if e.Action == "" {
		return ErrMemberUnresolved.Error()
	}
	return fmt.Sprintf("%s: cannot %s", ErrMemberUnresolved.Error(), e.Action)
}

func (e *MemberUnresolvedError) Unwrap() error { return ErrMemberUnresolved }

// IncompleteDataError lists the staged fields missing for a transition.
type IncompleteDataError struct {
	Fields []string
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("%s - missing required fields: %s", ErrIncompleteData.Error(), strings.Join(e.Fields, ", "))
}

func (e *IncompleteDataError) Unwrap() error { return ErrIncompleteData }

// Vault error kinds.
const (
	VaultErrTransport  = "transport"
	VaultErrValidation = "validation"
	VaultErrNotFound   = "not_found"
)

// VaultError wraps a failure reported by, or while reaching, the vault backend.
type VaultError struct {
	Op      string
	Kind    string
	VaultID string
	Err     error
}

func (e *VaultError) Error() string {
	msg := fmt.Sprintf("vault %s failed (%s)", e.Op, e.Kind)
	if e.VaultID != "" {
		msg += " for " + e.VaultID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *VaultError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrVault}
	}
	return []error{ErrVault, e.Err}
}

// PersistenceError wraps a document store failure. No partial state is committed when it is returned.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// RedirectRejectedError is non-fatal: the caller falls back to the completion view.
type RedirectRejectedError struct {
	Target string
}

func (e *RedirectRejectedError) Error() string {
	return fmt.Sprintf("%s: %q", ErrRedirectRejected.Error(), e.Target)
}

func (e *RedirectRejectedError) Unwrap() error { return ErrRedirectRejected }
