// Package service holds application services that sit between handlers and
// repositories: the cached commission setting and the check-in event
// publisher.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
	"github.com/iliyamo/class-meetup-checkin/internal/monitoring"
	"github.com/iliyamo/class-meetup-checkin/internal/payment"
)

// commissionCacheKey holds the cached commission percent string.
const commissionCacheKey = "settings:" + model.SettingCommissionPercent

// ErrInvalidPercent is returned by Update for values outside [0, 100].
var ErrInvalidPercent = errors.New("invalid commission percent")

// SettingsStore is the persistence CommissionSettings reads through to.
type SettingsStore interface {
	Get(ctx context.Context, key string) (model.PlatformSetting, error)
	Upsert(ctx context.Context, key, value, updatedBy string) error
}

// CommissionSettings serves the platform commission percent from Redis,
// falling back to MySQL on a miss.  It implements payment.CommissionSource.
// A nil Redis client disables caching.
type CommissionSettings struct {
	store SettingsStore
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

// NewCommissionSettings wires the read-through cache.
func NewCommissionSettings(store SettingsStore, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CommissionSettings {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommissionSettings{store: store, rdb: rdb, ttl: ttl, log: log}
}

// CommissionPercent returns the stored percent.  Errors are returned
// unmasked; payment.Calculator turns them into the default.
func (s *CommissionSettings) CommissionPercent(ctx context.Context) (decimal.Decimal, error) {
	if s.rdb != nil && s.ttl > 0 {
		raw, err := s.rdb.Get(ctx, commissionCacheKey).Result()
		switch {
		case err == nil:
			if p, perr := decimal.NewFromString(raw); perr == nil {
				monitoring.TrackCommissionLookup("cache")
				return p, nil
			}
			s.log.Warn("discarding malformed cached commission", zap.String("value", raw))
		case !errors.Is(err, redis.Nil):
			s.log.Debug("commission cache read failed", zap.Error(err))
		}
	}

	setting, err := s.store.Get(ctx, model.SettingCommissionPercent)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read %s: %w", model.SettingCommissionPercent, err)
	}
	p, err := decimal.NewFromString(setting.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", model.SettingCommissionPercent, setting.Value, err)
	}
	monitoring.TrackCommissionLookup("store")

	if s.rdb != nil && s.ttl > 0 {
		if err := s.rdb.Set(ctx, commissionCacheKey, p.String(), s.ttl).Err(); err != nil {
			s.log.Debug("commission cache write failed", zap.Error(err))
		}
	}
	return p, nil
}

// Current returns the stored setting row for the admin view.
func (s *CommissionSettings) Current(ctx context.Context) (model.PlatformSetting, error) {
	return s.store.Get(ctx, model.SettingCommissionPercent)
}

// Update validates and stores a new percent, then drops the cached value
// so the next breakdown reads it.
func (s *CommissionSettings) Update(ctx context.Context, percent decimal.Decimal, adminID string) error {
	if err := payment.ValidatePercent(percent); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPercent, err)
	}
	if err := s.store.Upsert(ctx, model.SettingCommissionPercent, percent.String(), adminID); err != nil {
		return fmt.Errorf("store %s: %w", model.SettingCommissionPercent, err)
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, commissionCacheKey).Err(); err != nil {
			s.log.Warn("commission cache invalidation failed; stale value expires with TTL",
				zap.Error(err), zap.Duration("ttl", s.ttl))
		}
	}
	s.log.Info("commission percent updated",
		zap.String("percent", percent.String()),
		zap.String("admin_id", adminID))
	return nil
}
