package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"sellervault-backend-go/internal/models"
)

func TestNewVaultID(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		millis int64
		want   string
	}{
		{"long_user_id", "user1234567890123456789", 1700000000123, "v_user1234567890123456_0000000123"},
		{"short_user_id", "abc", 1700000000123, "v_abc_0000000123"},
		{"exactly_20_chars", "abcdefghijklmnopqrst", 1712345678901, "v_abcdefghijklmnopqrst_2345678901"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewVaultID(tt.userID, time.UnixMilli(tt.millis))
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

var testLedgerSecret = []byte("test-ledger-secret")

func fixedClock() func() time.Time {
	return func() time.Time { return time.UnixMilli(1700000000123) }
}

func cardPayload() models.VaultPayload {
	card := models.CardDraft{Number: "4111111111113456", CVV: "123", Expiry: "12/30"}
	return BuildVaultPayload("member-1", models.StagedFields{Last4CC: "3456", Payee: "member-1"}, models.DraftCard, card, models.BankDraft{})
}

func TestVaultClientStore(t *testing.T) {
	backend := newFakeVaultBackend()
	client := NewVaultClient(backend, zaptest.NewLogger(t), WithVaultClock(fixedClock()))

	receipt, err := client.Store(context.Background(), cardPayload())
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if receipt.VaultID != "v_member-1_0000000123" {
		t.Fatalf("unexpected vault id %q", receipt.VaultID)
	}
	if receipt.Kind != models.DraftCard || receipt.Status != models.VaultStatusInTransit {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	stored := backend.payloads[receipt.VaultID]
	if stored.Status != models.VaultStatusInTransit || stored.Bank != nil || stored.Card == nil {
		t.Fatalf("unexpected stored payload %+v", stored)
	}
}

func TestVaultClientStoreFailures(t *testing.T) {
	tests := []struct {
		name     string
		response *models.VaultResponse
		err      error
		wantKind string
	}{
		{"transport", nil, errors.New("connection refused"), VaultErrTransport},
		{"validation", &models.VaultResponse{Success: false, Error: "bad payload"}, nil, VaultErrValidation},
		{"empty_response", nil, nil, VaultErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeVaultBackend()
			backend.storeFunc = func(ctx context.Context, payload models.VaultPayload) (*models.VaultResponse, error) {
				return tt.response, tt.err
			}
			client := NewVaultClient(backend, zaptest.NewLogger(t))

			_, err := client.Store(context.Background(), cardPayload())
			var vErr *VaultError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected VaultError, got %v", err)
			}
			if vErr.Kind != tt.wantKind {
				t.Fatalf("expected kind %s, got %s", tt.wantKind, vErr.Kind)
			}
			if !errors.Is(err, ErrVault) {
				t.Fatalf("expected error to match ErrVault")
			}
		})
	}
}

func TestVaultClientStoreRejectsMissingUser(t *testing.T) {
	client := NewVaultClient(newFakeVaultBackend(), zaptest.NewLogger(t))
	payload := cardPayload()
	payload.UserID = ""
	if _, err := client.Store(context.Background(), payload); !errors.Is(err, ErrVault) {
		t.Fatalf("expected vault validation error, got %v", err)
	}
}

func TestVaultClientDeduplicatesIdenticalSubmissions(t *testing.T) {
	backend := newFakeVaultBackend()
	ledger := newFakeLedger()
	client := NewVaultClient(backend, zaptest.NewLogger(t), WithSubmissionLedger(ledger, testLedgerSecret, time.Minute))

	first, err := client.Store(context.Background(), cardPayload())
	if err != nil {
		t.Fatalf("first Store: %v", err)
	}
	second, err := client.Store(context.Background(), cardPayload())
	if err != nil {
		t.Fatalf("second Store: %v", err)
	}
	if first.VaultID != second.VaultID {
		t.Fatalf("expected duplicate submission to reuse %s, got %s", first.VaultID, second.VaultID)
	}
	if backend.storeCount() != 1 {
		t.Fatalf("expected one backend store, got %d", backend.storeCount())
	}

	changed := cardPayload()
	changed.Card.CVV = "999"
	if _, err := client.Store(context.Background(), changed); err != nil {
		t.Fatalf("third Store: %v", err)
	}
	if backend.storeCount() != 2 {
		t.Fatalf("expected a different payload to reach the backend, got %d stores", backend.storeCount())
	}
}

func TestVaultClientLedgerFailureFallsThrough(t *testing.T) {
	backend := newFakeVaultBackend()
	ledger := newFakeLedger()
	ledger.lookupErr = errors.New("redis down")
	client := NewVaultClient(backend, zaptest.NewLogger(t), WithSubmissionLedger(ledger, testLedgerSecret, time.Minute))

	if _, err := client.Store(context.Background(), cardPayload()); err != nil {
		t.Fatalf("expected store to proceed without the ledger, got %v", err)
	}
	if backend.storeCount() != 1 {
		t.Fatalf("expected one backend store, got %d", backend.storeCount())
	}
}

func TestSubmissionKeyIgnoresIdentityFields(t *testing.T) {
	a := cardPayload()
	b := cardPayload()
	b.VaultID = "v_other"
	b.Timestamp = "2030-01-01T00:00:00Z"
	b.Encode.Receipt = &models.VaultReceipt{VaultID: "v_prev"}

	ka, err := SubmissionKey(testLedgerSecret, a)
	if err != nil {
		t.Fatalf("SubmissionKey: %v", err)
	}
	kb, _ := SubmissionKey(testLedgerSecret, b)
	if ka != kb {
		t.Fatalf("expected identical keys, got %s and %s", ka, kb)
	}
}

func TestSubmissionKeyIsKeyedBySecret(t *testing.T) {
	payload := cardPayload()

	k1, err := SubmissionKey(testLedgerSecret, payload)
	if err != nil {
		t.Fatalf("SubmissionKey: %v", err)
	}
	k2, err := SubmissionKey([]byte("another-ledger-secret"), payload)
	if err != nil {
		t.Fatalf("SubmissionKey: %v", err)
	}
	if k1 == k2 {
		t.Fatalf("expected the key to change with the secret, got %s twice", k1)
	}

	// Without the secret the key cannot be rebuilt from a guessed payload.
	raw, _ := json.Marshal(struct {
		UserID string              `json:"userId"`
		Encode models.StagedFields `json:"encode"`
		Card   *models.CardDraft   `json:"card,omitempty"`
	}{payload.UserID, payload.Encode, payload.Card})
	plain := sha256.Sum256(raw)
	if k1 == ledgerKeyPrefix+hex.EncodeToString(plain[:]) {
		t.Fatalf("expected a keyed hash, got the plain content hash")
	}
	if strings.Contains(k1, DigitsOnly(payload.Card.Number)) {
		t.Fatalf("key %s contains the card number", k1)
	}

	if _, err := SubmissionKey(nil, payload); err == nil {
		t.Fatalf("expected an empty secret to be rejected")
	}
}

func TestVaultClientLedgerWithoutSecretIsDisabled(t *testing.T) {
	backend := newFakeVaultBackend()
	ledger := newFakeLedger()
	client := NewVaultClient(backend, zaptest.NewLogger(t), WithSubmissionLedger(ledger, nil, time.Minute), WithVaultClock(steppingClock()))

	for i := 0; i < 2; i++ {
		if _, err := client.Store(context.Background(), cardPayload()); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
	if backend.storeCount() != 2 || len(ledger.entries) != 0 {
		t.Fatalf("expected dedup off, got %d stores and %d ledger entries", backend.storeCount(), len(ledger.entries))
	}
}

func TestVaultClientFinalizedSubmissionIsNotReused(t *testing.T) {
	ctx := context.Background()
	backend := newFakeVaultBackend()
	ledger := newFakeLedger()
	client := NewVaultClient(backend, zaptest.NewLogger(t), WithSubmissionLedger(ledger, testLedgerSecret, time.Minute), WithVaultClock(steppingClock()))

	first, err := client.Store(ctx, cardPayload())
	if err != nil {
		t.Fatalf("first Store: %v", err)
	}
	result, err := client.Finalize(ctx, first.VaultID, map[string]interface{}{"ok": true})
	if err != nil || result.Status != models.VaultStatusCleanedUp {
		t.Fatalf("Finalize: %+v, %v", result, err)
	}

	second, err := client.Store(ctx, cardPayload())
	if err != nil {
		t.Fatalf("second Store: %v", err)
	}
	if backend.storeCount() != 2 {
		t.Fatalf("expected the repeat to reach the backend, got %d stores", backend.storeCount())
	}
	if second.VaultID == first.VaultID {
		t.Fatalf("expected a fresh vault id, got the cleaned up %s", first.VaultID)
	}
}

func TestVaultClientCleanupForgetsSubmission(t *testing.T) {
	ctx := context.Background()
	backend := newFakeVaultBackend()
	ledger := newFakeLedger()
	client := NewVaultClient(backend, zaptest.NewLogger(t), WithSubmissionLedger(ledger, testLedgerSecret, time.Minute), WithVaultClock(steppingClock()))

	receipt, err := client.Store(ctx, cardPayload())
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := client.Cleanup(ctx, receipt.VaultID); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if len(ledger.entries) != 0 {
		t.Fatalf("expected the ledger entry to be dropped, got %v", ledger.entries)
	}
}

func TestVaultClientRetrieve(t *testing.T) {
	backend := newFakeVaultBackend()
	client := NewVaultClient(backend, zaptest.NewLogger(t), WithVaultClock(fixedClock()))
	receipt, _ := client.Store(context.Background(), cardPayload())

	payload, err := client.Retrieve(context.Background(), receipt.VaultID)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if payload.UserID != "member-1" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	_, err = client.Retrieve(context.Background(), "v_missing")
	var vErr *VaultError
	if !errors.As(err, &vErr) || vErr.Kind != VaultErrNotFound {
		t.Fatalf("expected not_found VaultError, got %v", err)
	}
}

func TestVaultClientFinalizeCleansUp(t *testing.T) {
	backend := newFakeVaultBackend()
	client := NewVaultClient(backend, zaptest.NewLogger(t))
	receipt, _ := client.Store(context.Background(), cardPayload())

	result, err := client.Finalize(context.Background(), receipt.VaultID, map[string]interface{}{"charged": true})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if result.Status != models.VaultStatusCleanedUp || result.CleanupErr != nil {
		t.Fatalf("expected cleaned up result, got %+v", result)
	}
	if _, ok := backend.payloads[receipt.VaultID]; ok {
		t.Fatalf("expected payload to be removed by cleanup")
	}
}

func TestVaultClientFinalizeSurfacesCleanupFailure(t *testing.T) {
	backend := newFakeVaultBackend()
	backend.cleanupFunc = func(ctx context.Context, vaultID string) (*models.VaultResponse, error) {
		return nil, errors.New("timeout")
	}
	client := NewVaultClient(backend, zaptest.NewLogger(t))
	receipt, _ := client.Store(context.Background(), cardPayload())

	result, err := client.Finalize(context.Background(), receipt.VaultID, nil)
	if err != nil {
		t.Fatalf("expected partial success, got error %v", err)
	}
	if result.Status != models.VaultStatusProcessed {
		t.Fatalf("expected processed status, got %s", result.Status)
	}
	if result.CleanupErr == nil || !errors.Is(result.CleanupErr, ErrVault) {
		t.Fatalf("expected cleanup warning, got %v", result.CleanupErr)
	}
}

func TestVaultClientFinalizeUnknownSubmission(t *testing.T) {
	client := NewVaultClient(newFakeVaultBackend(), zaptest.NewLogger(t))
	if _, err := client.Finalize(context.Background(), "v_missing", nil); !errors.Is(err, ErrVault) {
		t.Fatalf("expected vault error, got %v", err)
	}
}
