package kv

import (
	"context"

	"shogi2vs2/internal/config"
)

// NewStore builds the configured Store backend: Redis when enabled, the
// in-memory store otherwise.
func NewStore(ctx context.Context, cfg *config.GameConfig) (Store, error) {
	if cfg != nil && cfg.Redis.Enabled {
		return NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	return NewMemory(), nil
}
