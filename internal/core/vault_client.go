package core

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"sellervault-backend-go/internal/models"
)

const (
	vaultIDUserPrefix = 20
	vaultIDTimeDigits = 10

	// DefaultDedupTTL bounds how long an identical submission is answered from the ledger.
	DefaultDedupTTL = 10 * time.Minute

	ledgerKeyPrefix = "vault:submission:"

	// LedgerKeyLabel names the subkey that keys submission hashes.
	LedgerKeyLabel = "sellervault/vault-submission-ledger"
)

// NewVaultID builds v_<first 20 chars of userID>_<last 10 digits of epoch ms>.
func NewVaultID(userID string, now time.Time) string {
	prefix := userID
	if len(prefix) > vaultIDUserPrefix {
		prefix = prefix[:vaultIDUserPrefix]
	}
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ts) > vaultIDTimeDigits {
		ts = ts[len(ts)-vaultIDTimeDigits:]
	}
	return "v_" + prefix + "_" + ts
}

// BuildVaultPayload assembles the payload for one draft. Only the draft named by
// kind is included.
func BuildVaultPayload(userID string, staged models.StagedFields, kind models.DraftKind, card models.CardDraft, bank models.BankDraft) models.VaultPayload {
	staged.Receipt = nil
	payload := models.VaultPayload{UserID: userID, Encode: staged}
	switch kind {
	case models.DraftCard:
		c := card
		payload.Card = &c
	case models.DraftBank:
		b := bank
		payload.Bank = &b
	}
	return payload
}

// SubmissionKey is the keyed content hash used to detect repeated submissions.
// The payload carries full card and account numbers, so the hash is an
// HMAC under secret and is useless without it. Identity fields assigned at
// store time are excluded.
func SubmissionKey(secret []byte, payload models.VaultPayload) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("submission key secret is empty")
	}
	content := struct {
		UserID string              `json:"userId"`
		Encode models.StagedFields `json:"encode"`
		Card   *models.CardDraft   `json:"card,omitempty"`
		Bank   *models.BankDraft   `json:"bank,omitempty"`
	}{
		UserID: payload.UserID,
		Encode: payload.Encode,
		Card:   payload.Card,
		Bank:   payload.Bank,
	}
	content.Encode.Receipt = nil
	raw, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("hash vault payload: %w", err)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(raw)
	return ledgerKeyPrefix + hex.EncodeToString(mac.Sum(nil)), nil
}

type vaultClient struct {
	backend   VaultBackend
	ledger    SubmissionLedger
	ledgerKey []byte
	dedupTTL  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// VaultClientOption customizes a VaultClient.
type VaultClientOption func(*vaultClient)

// WithSubmissionLedger enables keyed content-hash deduplication of stores.
// An empty secret leaves deduplication off.
func WithSubmissionLedger(ledger SubmissionLedger, secret []byte, ttl time.Duration) VaultClientOption {
	return func(c *vaultClient) {
		c.ledger = ledger
		c.ledgerKey = append([]byte(nil), secret...)
		if ttl > 0 {
			c.dedupTTL = ttl
		}
	}
}

// WithVaultClock overrides the clock used for vault ids and timestamps.
func WithVaultClock(now func() time.Time) VaultClientOption {
	return func(c *vaultClient) { c.now = now }
}

// NewVaultClient creates a VaultClient over backend.
func NewVaultClient(backend VaultBackend, logger *zap.Logger, opts ...VaultClientOption) VaultClient {
	c := &vaultClient{
		backend:  backend,
		dedupTTL: DefaultDedupTTL,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ledger != nil && len(c.ledgerKey) == 0 {
		logger.Warn("Submission ledger configured without a secret, vault dedup disabled")
		c.ledger = nil
	}
	return c
}

// Store submits payload and returns its receipt. The vault id, timestamp and
// status of payload are assigned here.
func (c *vaultClient) Store(ctx context.Context, payload models.VaultPayload) (*models.VaultReceipt, error) {
	if payload.UserID == "" {
		return nil, &VaultError{Op: "store", Kind: VaultErrValidation, Err: errors.New("payload has no user id")}
	}

	var key string
	if c.ledger != nil {
		var err error
		if key, err = SubmissionKey(c.ledgerKey, payload); err != nil {
			return nil, &VaultError{Op: "store", Kind: VaultErrValidation, Err: err}
		}
		prior, err := c.ledger.Lookup(ctx, key)
		if err != nil {
			c.logger.Warn("Submission ledger lookup failed, storing without dedup", zap.Error(err))
		} else if prior != nil {
			c.logger.Info("Duplicate vault submission answered from ledger", zap.String("vaultId", prior.VaultID))
			return prior, nil
		}
	}

	now := c.now().UTC()
	payload.VaultID = NewVaultID(payload.UserID, now)
	payload.Timestamp = now.Format(time.RFC3339Nano)
	payload.Status = models.VaultStatusInTransit

	resp, err := c.backend.Store(ctx, payload)
	if err := classifyVaultResponse("store", payload.VaultID, resp, err); err != nil {
		return nil, err
	}

	receipt := models.VaultReceipt{
		VaultID:  payload.VaultID,
		Status:   models.VaultStatusInTransit,
		StoredAt: payload.Timestamp,
	}
	if resp.VaultID != "" {
		receipt.VaultID = resp.VaultID
	}
	if resp.Status != "" {
		receipt.Status = resp.Status
	}
	switch {
	case payload.Card != nil:
		receipt.Kind = models.DraftCard
	case payload.Bank != nil:
		receipt.Kind = models.DraftBank
	}

	if c.ledger != nil {
		if err := c.ledger.Remember(ctx, key, receipt, c.dedupTTL); err != nil {
			c.logger.Warn("Failed to remember vault submission", zap.String("vaultId", receipt.VaultID), zap.Error(err))
		}
	}
	c.logger.Info("Vault submission stored", zap.String("vaultId", receipt.VaultID), zap.String("kind", string(receipt.Kind)))
	return &receipt, nil
}

func (c *vaultClient) Retrieve(ctx context.Context, vaultID string) (*models.VaultPayload, error) {
	resp, err := c.backend.Retrieve(ctx, vaultID)
	if err := classifyVaultResponse("retrieve", vaultID, resp, err); err != nil {
		return nil, err
	}
	if resp.Payload == nil {
		return nil, &VaultError{Op: "retrieve", Kind: VaultErrValidation, VaultID: vaultID, Err: errors.New("backend returned no payload")}
	}
	return resp.Payload, nil
}

func (c *vaultClient) Finalize(ctx context.Context, vaultID string, processingResult map[string]interface{}) (*models.FinalizeResult, error) {
	resp, err := c.backend.Process(ctx, vaultID, processingResult)
	if err := classifyVaultResponse("process", vaultID, resp, err); err != nil {
		return nil, err
	}
	// A processed submission can no longer answer a repeat store.
	c.forget(ctx, vaultID)

	result := &models.FinalizeResult{
		VaultID:          vaultID,
		Status:           models.VaultStatusProcessed,
		ProcessingResult: resp.Result,
	}
	if result.ProcessingResult == nil {
		result.ProcessingResult = processingResult
	}

	if err := c.Cleanup(ctx, vaultID); err != nil {
		c.logger.Warn("Vault cleanup failed after processing", zap.String("vaultId", vaultID), zap.Error(err))
		result.CleanupErr = err
		return result, nil
	}
	result.Status = models.VaultStatusCleanedUp
	return result, nil
}

func (c *vaultClient) Cleanup(ctx context.Context, vaultID string) error {
	c.forget(ctx, vaultID)
	resp, err := c.backend.Cleanup(ctx, vaultID)
	return classifyVaultResponse("cleanup", vaultID, resp, err)
}

func (c *vaultClient) forget(ctx context.Context, vaultID string) {
	if c.ledger == nil {
		return
	}
	if err := c.ledger.Forget(ctx, vaultID); err != nil {
		c.logger.Warn("Failed to drop vault submission from ledger", zap.String("vaultId", vaultID), zap.Error(err))
	}
}

func classifyVaultResponse(op, vaultID string, resp *models.VaultResponse, err error) error {
	if err != nil {
		return &VaultError{Op: op, Kind: VaultErrTransport, VaultID: vaultID, Err: err}
	}
	if resp == nil {
		return &VaultError{Op: op, Kind: VaultErrTransport, VaultID: vaultID, Err: errors.New("empty response")}
	}
	if resp.Success {
		return nil
	}
	kind := VaultErrValidation
	if resp.Error == VaultErrNotFound {
		kind = VaultErrNotFound
	}
	msg := resp.Error
	if msg == "" {
		msg = "backend reported failure"
	}
	return &VaultError{Op: op, Kind: kind, VaultID: vaultID, Err: errors.New(msg)}
}
