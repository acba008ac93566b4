package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"sellervault-backend-go/internal/crypto"
	"sellervault-backend-go/internal/db"
	"sellervault-backend-go/internal/models"
)

func newTestBackend(t *testing.T) (*StoreBackend, *db.MemoryStore) {
	t.Helper()
	sealer, err := crypto.NewSealer(bytes.Repeat([]byte{7}, crypto.KeyLength))
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	store := db.NewMemoryStore()
	return NewStoreBackend(db.NewVaultSecretRepository(store), sealer, zaptest.NewLogger(t)), store
}

func cardPayload(vaultID string) models.VaultPayload {
	return models.VaultPayload{
		VaultID:   vaultID,
		UserID:    "member-1",
		Timestamp: "2024-01-01T00:00:00Z",
		Status:    models.VaultStatusInTransit,
		Encode:    models.StagedFields{Last4CC: "3456", Payee: "member-1"},
		Card:      &models.CardDraft{Number: "4111111111113456", CVV: "123", Expiry: "12/30"},
	}
}

func TestStoreBackendLifecycle(t *testing.T) {
	ctx := context.Background()
	backend, store := newTestBackend(t)

	resp, err := backend.Store(ctx, cardPayload("v_member-1_0000000001"))
	if err != nil || !resp.Success {
		t.Fatalf("Store: resp=%+v err=%v", resp, err)
	}

	raw, err := store.Get(ctx, models.VaultSecretCollection, "v_member-1_0000000001")
	if err != nil {
		t.Fatalf("Get stored secret: %v", err)
	}
	encoded, _ := json.Marshal(raw)
	if strings.Contains(string(encoded), "4111111111113456") {
		t.Fatalf("stored document leaks the card number: %s", encoded)
	}

	resp, err = backend.Retrieve(ctx, "v_member-1_0000000001")
	if err != nil || !resp.Success {
		t.Fatalf("Retrieve: resp=%+v err=%v", resp, err)
	}
	if resp.Payload == nil || resp.Payload.Card == nil || resp.Payload.Card.Number != "4111111111113456" {
		t.Fatalf("expected the original card payload, got %+v", resp.Payload)
	}

	resp, err = backend.Process(ctx, "v_member-1_0000000001", map[string]interface{}{"ok": true})
	if err != nil || !resp.Success || resp.Status != models.VaultStatusProcessed {
		t.Fatalf("Process: resp=%+v err=%v", resp, err)
	}

	resp, err = backend.Cleanup(ctx, "v_member-1_0000000001")
	if err != nil || !resp.Success || resp.Status != models.VaultStatusCleanedUp {
		t.Fatalf("Cleanup: resp=%+v err=%v", resp, err)
	}

	resp, err = backend.Retrieve(ctx, "v_member-1_0000000001")
	if err != nil {
		t.Fatalf("Retrieve after cleanup: %v", err)
	}
	if resp.Success || resp.Error != "not_found" {
		t.Fatalf("expected not_found after cleanup, got %+v", resp)
	}
}

func TestStoreBackendValidation(t *testing.T) {
	ctx := context.Background()
	backend, _ := newTestBackend(t)

	noCredential := cardPayload("v_x")
	noCredential.Card = nil
	resp, err := backend.Store(ctx, noCredential)
	if err != nil || resp.Success {
		t.Fatalf("expected validation failure, got resp=%+v err=%v", resp, err)
	}

	if _, err := backend.Store(ctx, cardPayload("v_dup")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	resp, err = backend.Store(ctx, cardPayload("v_dup"))
	if err != nil || resp.Success {
		t.Fatalf("expected duplicate id to be rejected, got resp=%+v err=%v", resp, err)
	}

	resp, err = backend.Retrieve(ctx, "v_unknown")
	if err != nil || resp.Success || resp.Error != "not_found" {
		t.Fatalf("expected not_found, got resp=%+v err=%v", resp, err)
	}
}
