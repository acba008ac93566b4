package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"sellervault-backend-go/internal/db"
	"sellervault-backend-go/internal/models"
)

// fakeView records everything the controller renders.
type fakeView struct {
	inputs       map[string]string
	fields       map[string]string
	placeholders map[string]string
	panels       map[string]bool
	buttons      map[string]fakeButton
	errorMsg     string
	successMsg   string
	navigatedTo  string
}

type fakeButton struct {
	label   string
	enabled bool
}

func newFakeView(inputs map[string]string) *fakeView {
	if inputs == nil {
		inputs = map[string]string{}
	}
	return &fakeView{
		inputs:       inputs,
		fields:       map[string]string{},
		placeholders: map[string]string{},
		panels:       map[string]bool{},
		buttons:      map[string]fakeButton{},
	}
}

func (v *fakeView) FieldValue(name string) string { return v.inputs[name] }
func (v *fakeView) SetFieldValue(name, value string) { v.fields[name] = value }
func (v *fakeView) SetPlaceholder(name, value string) { v.placeholders[name] = value }
func (v *fakeView) ShowError(message string) { v.errorMsg = message }
func (v *fakeView) ShowSuccess(message string) { v.successMsg = message }
func (v *fakeView) Navigate(target string) { v.navigatedTo = target }
func (v *fakeView) SetButton(name, label string, enabled bool) {
	v.buttons[name] = fakeButton{label: label, enabled: enabled}
}

func (v *fakeView) Expand(panels ...string) {
	for _, p := range panels {
		v.panels[p] = true
	}
}

func (v *fakeView) Collapse(panels ...string) {
	for _, p := range panels {
		v.panels[p] = false
	}
}

// fakeVaultBackend keeps payloads in memory; func fields override single RPCs.
type fakeVaultBackend struct {
	mu       sync.Mutex
	payloads map[string]models.VaultPayload
	stores   int

	storeFunc   func(ctx context.Context, payload models.VaultPayload) (*models.VaultResponse, error)
	cleanupFunc func(ctx context.Context, vaultID string) (*models.VaultResponse, error)
}

func newFakeVaultBackend() *fakeVaultBackend {
	return &fakeVaultBackend{payloads: map[string]models.VaultPayload{}}
}

func (b *fakeVaultBackend) Store(ctx context.Context, payload models.VaultPayload) (*models.VaultResponse, error) {
	b.mu.Lock()
	b.stores++
	b.mu.Unlock()
	if b.storeFunc != nil {
		return b.storeFunc(ctx, payload)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads[payload.VaultID] = payload
	return &models.VaultResponse{Success: true, VaultID: payload.VaultID, Status: models.VaultStatusInTransit}, nil
}

func (b *fakeVaultBackend) Retrieve(ctx context.Context, vaultID string) (*models.VaultResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.payloads[vaultID]
	if !ok {
		return &models.VaultResponse{Success: false, Error: "not_found"}, nil
	}
	return &models.VaultResponse{Success: true, VaultID: vaultID, Payload: &p}, nil
}

func (b *fakeVaultBackend) Process(ctx context.Context, vaultID string, result map[string]interface{}) (*models.VaultResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.payloads[vaultID]; !ok {
		return &models.VaultResponse{Success: false, Error: "not_found"}, nil
	}
	return &models.VaultResponse{Success: true, VaultID: vaultID, Status: models.VaultStatusProcessed, Result: result}, nil
}

func (b *fakeVaultBackend) Cleanup(ctx context.Context, vaultID string) (*models.VaultResponse, error) {
	if b.cleanupFunc != nil {
		return b.cleanupFunc(ctx, vaultID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.payloads, vaultID)
	return &models.VaultResponse{Success: true, VaultID: vaultID, Status: models.VaultStatusCleanedUp}, nil
}

func (b *fakeVaultBackend) storeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stores
}

// fakeLedger is an in-memory SubmissionLedger.
type fakeLedger struct {
	entries   map[string]models.VaultReceipt
	byVault   map[string]string
	lookupErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: map[string]models.VaultReceipt{}, byVault: map[string]string{}}
}

func (l *fakeLedger) Lookup(ctx context.Context, key string) (*models.VaultReceipt, error) {
	if l.lookupErr != nil {
		return nil, l.lookupErr
	}
	r, ok := l.entries[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (l *fakeLedger) Remember(ctx context.Context, key string, receipt models.VaultReceipt, ttl time.Duration) error {
	l.entries[key] = receipt
	l.byVault[receipt.VaultID] = key
	return nil
}

func (l *fakeLedger) Forget(ctx context.Context, vaultID string) error {
	if key, ok := l.byVault[vaultID]; ok {
		delete(l.entries, key)
		delete(l.byVault, vaultID)
	}
	return nil
}

// failingSellers wraps a SellerRepository and fails Save while saveErr is set.
type failingSellers struct {
	db.SellerRepository
	saveErr   error
	failAfter int
	saves     int
}

func (f *failingSellers) Save(ctx context.Context, record *models.SellerRecord) error {
	f.saves++
	if f.saveErr != nil && f.saves > f.failAfter {
		return f.saveErr
	}
	return f.SellerRepository.Save(ctx, record)
}

// failingApproved wraps an ApprovedSellerRepository with injectable failures.
type failingApproved struct {
	db.ApprovedSellerRepository
	insertErr error
	inserts   int
}

func (f *failingApproved) Insert(ctx context.Context, record *models.ApprovedSellerRecord) error {
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.ApprovedSellerRepository.Insert(ctx, record)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	events []models.SellerApprovedEvent
	err    error
}

func (p *recordingPublisher) PublishSellerApproved(ctx context.Context, event models.SellerApprovedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

// recordingErrorLog captures error log entries.
type recordingErrorLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingErrorLog) Record(ctx context.Context, err error, where string, memberID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, where+": "+err.Error())
}

func (l *recordingErrorLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

var errStoreDown = errors.New("store unavailable")

func testMember() *models.Member {
	return &models.Member{ID: "member-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
}
