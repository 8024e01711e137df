package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/opsdesk/internal/config"
)

const (
	keyPublicIntakeWorkspace = "public:intake:workspace:%s"
	keyPublicIntakeClient    = "public:intake:client:%s"
)

// PublicIntakeLimiter guards the unauthenticated intake endpoints (contact
// form, booking, form submission). Disabled when no redis address is
// configured; every check then passes.
type PublicIntakeLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	rate  float64
	burst int
}

func NewPublicIntakeLimiter(cfg config.Config) *PublicIntakeLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &PublicIntakeLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    cfg.PublicIntakeRate,
		burst:   cfg.PublicIntakeBurst,
	}
}

func (l *PublicIntakeLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowWorkspace limits total public traffic into one workspace.
func (l *PublicIntakeLimiter) AllowWorkspace(ctx context.Context, workspaceID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyPublicIntakeWorkspace, strings.TrimSpace(workspaceID))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}

// AllowClient limits one remote address across all workspaces.
func (l *PublicIntakeLimiter) AllowClient(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyPublicIntakeClient, strings.TrimSpace(clientIP))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}

// TryLockSubmission serializes duplicate public submissions for the same
// workspace and sender while one is in flight.
func (l *PublicIntakeLimiter) TryLockSubmission(ctx context.Context, workspaceID, sender string, ttl time.Duration) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf("public:intake:lock:%s:%s", strings.TrimSpace(workspaceID), strings.TrimSpace(sender))
	return l.locker.TryLock(ctx, key, ttl)
}

func (l *PublicIntakeLimiter) ReleaseSubmission(ctx context.Context, workspaceID, sender, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf("public:intake:lock:%s:%s", strings.TrimSpace(workspaceID), strings.TrimSpace(sender))
	return l.locker.Release(ctx, key, token)
}
