package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sellervault-backend-go/internal/models"
)

// vaultIndexPrefix keys the reverse entry from a vault id to its submission key.
const vaultIndexPrefix = "vault:submission-id:"

// SubmissionLedger remembers vault receipts by submission key so an identical
// submission inside the ttl is answered without a second store.
type SubmissionLedger struct {
	cache Cache
}

// NewSubmissionLedger creates a SubmissionLedger over cache.
func NewSubmissionLedger(cache Cache) *SubmissionLedger {
	return &SubmissionLedger{cache: cache}
}

// Lookup returns the remembered receipt, or nil when key is unknown.
func (l *SubmissionLedger) Lookup(ctx context.Context, key string) (*models.VaultReceipt, error) {
	raw, err := l.cache.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	var receipt models.VaultReceipt
	if err := json.Unmarshal([]byte(raw), &receipt); err != nil {
		// A corrupt entry must not block a fresh store.
		_ = l.cache.Delete(ctx, key)
		return nil, fmt.Errorf("ledger entry %s is corrupt: %w", key, err)
	}
	return &receipt, nil
}

func (l *SubmissionLedger) Remember(ctx context.Context, key string, receipt models.VaultReceipt, ttl time.Duration) error {
	raw, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}
	if err := l.cache.Set(ctx, key, string(raw), ttl); err != nil {
		return err
	}
	if receipt.VaultID == "" {
		return nil
	}
	return l.cache.Set(ctx, vaultIndexPrefix+receipt.VaultID, key, ttl)
}

// Forget drops the receipt remembered for vaultID so the next identical
// submission reaches the vault again.
func (l *SubmissionLedger) Forget(ctx context.Context, vaultID string) error {
	indexKey := vaultIndexPrefix + vaultID
	key, err := l.cache.Get(ctx, indexKey)
	if errors.Is(err, ErrCacheMiss) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ledger forget %s: %w", vaultID, err)
	}
	if err := l.cache.Delete(ctx, key); err != nil {
		return fmt.Errorf("ledger forget %s: %w", vaultID, err)
	}
	return l.cache.Delete(ctx, indexKey)
}
