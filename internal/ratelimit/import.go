package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/carebill/carebill/internal/config"
)

const (
	keyImportSource = "import:source:%s"
	keyImportLock   = "import:lock:%s"

	importLockTTL = 5 * time.Minute
)

// ImportLimiter throttles visit file imports and serializes imports of
// the same source file.
type ImportLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	rate  float64
	burst int
}

func NewImportLimiter(cfg config.Config) (*ImportLimiter, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, nil
	}
	if cfg.ImportRate <= 0 || cfg.ImportBurst <= 0 {
		return nil, errors.New("import rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &ImportLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    cfg.ImportRate,
		burst:   cfg.ImportBurst,
	}, nil
}

func (l *ImportLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowSource consumes one import token for the given source key.
func (l *ImportLimiter) AllowSource(ctx context.Context, source string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyImportSource, strings.TrimSpace(source)), l.rate, l.burst)
}

// TryLockSource takes a short exclusive lock so the same file is not
// imported twice concurrently.
func (l *ImportLimiter) TryLockSource(ctx context.Context, source string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, fmt.Sprintf(keyImportLock, strings.TrimSpace(source)), importLockTTL)
}

func (l *ImportLimiter) ReleaseSource(ctx context.Context, source, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, fmt.Sprintf(keyImportLock, strings.TrimSpace(source)), token)
}
