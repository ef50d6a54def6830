package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/infrastructure/kv"
	"github.com/your-org/storefront/internal/pkg/logger"
)

// VoucherKey is where the applied voucher ids of a session live
func VoucherKey(sessionID string) string {
	return fmt.Sprintf("vouchers:session:%s", sessionID)
}

// VoucherSelection stores the ids of the vouchers each session has applied
type VoucherSelection struct {
	store kv.Store
	log   *logrus.Entry
}

func NewVoucherSelection(store kv.Store, log logrus.FieldLogger) *VoucherSelection {
	return &VoucherSelection{
		store: store,
		log:   logger.Component(log, "voucher_selection"),
	}
}

// Load returns the applied voucher ids in application order. Malformed state
// is logged and treated as empty.
func (v *VoucherSelection) Load(ctx context.Context, sessionID string) ([]string, error) {
	data, err := v.store.Get(ctx, VoucherKey(sessionID))
	if errors.Is(err, kv.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load applied vouchers: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		v.log.WithError(err).WithField("session_id", sessionID).Warn("discarding malformed applied vouchers")
		return []string{}, nil
	}
	return ids, nil
}

// Save replaces the applied voucher ids. An empty list removes the key.
func (v *VoucherSelection) Save(ctx context.Context, sessionID string, ids []string) error {
	if len(ids) == 0 {
		return v.Clear(ctx, sessionID)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal applied vouchers: %w", err)
	}
	return v.store.Set(ctx, VoucherKey(sessionID), data)
}

// Clear removes every applied voucher of a session
func (v *VoucherSelection) Clear(ctx context.Context, sessionID string) error {
	return v.store.Delete(ctx, VoucherKey(sessionID))
}
