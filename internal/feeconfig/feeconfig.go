package feeconfig

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/jiahe-fees/internal/models"
	"github.com/hongminglow/jiahe-fees/internal/storage"
)

// ErrNegativeRate rejects rate tables with negative amounts.
var ErrNegativeRate = errors.New("fee rates must not be negative")

// Store holds the community rate table.
type Store struct {
	kv     storage.KV
	key    string
	logger *zap.Logger
	now    func() time.Time

	mu  sync.RWMutex
	cfg models.FeeConfig
}

// Open loads the stored table, falling back to models.DefaultFeeConfig when
// nothing usable is stored.
func Open(ctx context.Context, kv storage.KV, keys storage.Keys, logger *zap.Logger) (*Store, error) {
	s := &Store{kv: kv, key: keys.FeeConfig(), logger: logger, now: time.Now, cfg: models.DefaultFeeConfig()}

	stored := models.DefaultFeeConfig()
	if err := storage.ReadJSON(ctx, kv, s.key, &stored); err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			return nil, err
		}
		logger.Warn("fee config unreadable; using defaults", zap.Error(err))
		return s, nil
	}
	s.cfg = stored
	return s, nil
}

// Get returns the current rate table.
func (s *Store) Get() models.FeeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update replaces the rate table, stamping who changed it.
func (s *Store) Update(ctx context.Context, actorID string, cfg models.FeeConfig) (models.FeeConfig, error) {
	if cfg.Management < 0 || cfg.Motorcycle.Small < 0 || cfg.Motorcycle.Large < 0 ||
		cfg.Car.Small < 0 || cfg.Car.Large < 0 {
		return models.FeeConfig{}, ErrNegativeRate
	}
	now := s.now()
	cfg.LastModifiedBy = actorID
	cfg.LastModifiedAt = &now

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.WriteJSON(ctx, s.kv, s.key, cfg); err != nil {
		return models.FeeConfig{}, err
	}
	s.cfg = cfg
	s.logger.Info("fee config updated",
		zap.String("by", actorID),
		zap.Int64("management", cfg.Management))
	return cfg, nil
}
