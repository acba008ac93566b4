package db

import (
	"context"
	"errors"
	"testing"

	"sellervault-backend-go/internal/models"
)

func TestMemoryStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	saved, err := store.Save(ctx, "things", Document{"_id": "a", "count": 3, "tags": []string{"x"}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID() != "a" {
		t.Fatalf("expected id a, got %q", saved.ID())
	}

	// Mutating the returned copy must not leak into the store.
	saved["count"] = 99

	got, err := store.Get(ctx, "things", "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["count"] != float64(3) {
		t.Fatalf("expected count 3, got %v", got["count"])
	}

	if _, err := store.Get(ctx, "things", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreInsertRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Insert(ctx, "things", Document{"_id": "a"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := store.Insert(ctx, "things", Document{"_id": "a"}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	generated, err := store.Insert(ctx, "things", Document{"name": "no id"})
	if err != nil {
		t.Fatalf("Insert without id: %v", err)
	}
	if generated.ID() == "" {
		t.Fatalf("expected a generated id")
	}
	if store.Count("things") != 2 {
		t.Fatalf("expected 2 documents, got %d", store.Count("things"))
	}
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, doc := range []Document{
		{"_id": "1", "state": 3, "active": true},
		{"_id": "2", "state": 3, "active": false},
		{"_id": "3", "state": 1, "active": true},
	} {
		if _, err := store.Save(ctx, "members", doc); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	res, err := store.Query("members").Eq("state", 3).Eq("active", true).Find(ctx)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID() != "1" {
		t.Fatalf("expected only document 1, got %v", res.Items)
	}

	res, err = store.Query("members").Eq("state", 3).Limit(1).Find(ctx)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected limit to cap results at 1, got %d", len(res.Items))
	}

	res, err = store.Query("empty").Eq("_id", "x").Find(ctx)
	if err != nil {
		t.Fatalf("Find on empty collection: %v", err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(res.Items))
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemoryStore().Save(ctx, "things", Document{"_id": "a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSellerRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSellerRepository(NewMemoryStore())

	record := &models.SellerRecord{
		ID:             "member-1",
		FirstName:      "Ada",
		SellerVerified: models.Bool(false),
		MemberState:    3,
		Last4CC:        "3456",
	}
	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByID(ctx, "member-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.FirstName != "Ada" || got.MemberState != 3 || got.Last4CC != "3456" {
		t.Fatalf("unexpected record %+v", got)
	}
	if !got.IsSellerBlocked() {
		t.Fatalf("expected explicit sellerVerified=false to survive the round trip")
	}

	if _, err := repo.GetByID(ctx, "member-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApprovedSellerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewApprovedSellerRepository(NewMemoryStore())

	exists, err := repo.ExistsByMemberID(ctx, "member-1")
	if err != nil || exists {
		t.Fatalf("expected no record, got exists=%v err=%v", exists, err)
	}

	record := &models.ApprovedSellerRecord{SellerRecord: models.SellerRecord{ID: "member-1", ApprovedSeller: true, Last4CC: "3456", Last4ACH: "3210"}}
	if err := repo.Insert(ctx, record); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := repo.Insert(ctx, record); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on second insert, got %v", err)
	}

	found, err := repo.FindByMemberID(ctx, "member-1")
	if err != nil {
		t.Fatalf("FindByMemberID: %v", err)
	}
	found.Vault = append(found.Vault, models.VaultReceipt{VaultID: "v_1", Status: models.VaultStatusInTransit, Kind: models.DraftCard})
	if err := repo.Save(ctx, found); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := repo.FindByMemberID(ctx, "member-1")
	if err != nil {
		t.Fatalf("FindByMemberID: %v", err)
	}
	if len(again.Vault) != 1 || again.Vault[0].VaultID != "v_1" || again.Vault[0].Kind != models.DraftCard {
		t.Fatalf("expected one card receipt, got %+v", again.Vault)
	}
	if !again.ApprovedSeller || again.Last4ACH != "3210" {
		t.Fatalf("expected embedded seller fields, got %+v", again.SellerRecord)
	}
}
