package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/safeguardhq/safeguard/internal/config"
)

const (
	keyTerminalIdentify = "terminal:identify:%s"
	keyCustomerCommit   = "ledger:commit:customer:%s"
)

// TerminalLimiter throttles identify scans per terminal and hands out
// the per-customer commit lock used when several instances share one
// ledger. Disabled entirely when redis is not configured.
type TerminalLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	identifyRate  float64
	identifyBurst int
	lockTTL       time.Duration
}

func NewTerminalLimiter(cfg config.Config) (*TerminalLimiter, error) {
	redisCfg := cfg.Redis
	if !redisCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(redisCfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if redisCfg.IdentifyRate <= 0 || redisCfg.IdentifyBurst <= 0 {
		return nil, errors.New("identify rate limit must be positive")
	}
	if redisCfg.CommitLockTTLSecs <= 0 {
		return nil, errors.New("commit lock ttl must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	return &TerminalLimiter{
		enabled:       true,
		bucket:        NewTokenBucket(client),
		locker:        NewLocker(client),
		identifyRate:  redisCfg.IdentifyRate,
		identifyBurst: redisCfg.IdentifyBurst,
		lockTTL:       time.Duration(redisCfg.CommitLockTTLSecs) * time.Second,
	}, nil
}

func (l *TerminalLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowIdentify returns false when a terminal has exceeded its scan rate.
func (l *TerminalLimiter) AllowIdentify(ctx context.Context, terminalID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	key := fmt.Sprintf(keyTerminalIdentify, strings.TrimSpace(terminalID))
	return l.bucket.Allow(ctx, key, l.identifyRate, l.identifyBurst)
}

// TryLockCustomer serializes ledger commits for one customer across
// instances. The returned token must be passed to ReleaseCustomer.
func (l *TerminalLimiter) TryLockCustomer(ctx context.Context, customerID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyCustomerCommit, strings.TrimSpace(customerID))
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

func (l *TerminalLimiter) ReleaseCustomer(ctx context.Context, customerID, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyCustomerCommit, strings.TrimSpace(customerID))
	return l.locker.Release(ctx, key, token)
}
