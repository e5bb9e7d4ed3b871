package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-form-relay/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// NonceState is what a claim found for a nonce
type NonceState int

const (
	// NonceNew means the caller now owns the nonce and should deliver
	NonceNew NonceState = iota
	// NonceInFlight means another request holds the nonce and has not finished sending
	NonceInFlight
	// NonceDelivered means the submission was already sent within the window
	NonceDelivered
)

const (
	nonceValueInFlight  = "pending"
	nonceValueDelivered = "sent"
)

// NonceGuard suppresses a repeated client nonce within a window. It is opt-in: with a zero
// window, or when the client sends no nonce, every submission is new.
//
// A nonce moves from claimed to delivered on Confirm, or is forgotten on Release.
type NonceGuard struct {
	window time.Duration
	client func() *goredis.Client

	mu   sync.Mutex
	seen map[string]nonceEntry // used when Redis is not configured
}

type nonceEntry struct {
	value   string
	expires time.Time
}

func NewNonceGuard(window time.Duration) *NonceGuard {
	return &NonceGuard{window: window, client: redis.Client, seen: make(map[string]nonceEntry)}
}

func (g *NonceGuard) Enabled() bool {
	return g != nil && g.window > 0
}

func (g *NonceGuard) key(form, nonce string) string {
	return fmt.Sprintf("dedup:%s:%s", form, HashValue(nonce))
}

// Claim takes nonce for form unless it is already held or delivered.
func (g *NonceGuard) Claim(ctx context.Context, form, nonce string) (NonceState, error) {
	if !g.Enabled() || nonce == "" {
		return NonceNew, nil
	}
	key := g.key(form, nonce)

	if client := g.client(); client != nil {
		set, err := client.SetNX(ctx, key, nonceValueInFlight, g.window).Result()
		if err != nil {
			return NonceNew, fmt.Errorf("dedup claim failed: %w", err)
		}
		if set {
			return NonceNew, nil
		}
		val, err := client.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return NonceNew, fmt.Errorf("dedup lookup failed: %w", err)
		}
		// A key released between SETNX and GET still counts as held
		if val == nonceValueDelivered {
			return NonceDelivered, nil
		}
		return NonceInFlight, nil
	}

	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	for k, e := range g.seen {
		if now.After(e.expires) {
			delete(g.seen, k)
		}
	}
	if e, ok := g.seen[key]; ok {
		if e.value == nonceValueDelivered {
			return NonceDelivered, nil
		}
		return NonceInFlight, nil
	}
	g.seen[key] = nonceEntry{value: nonceValueInFlight, expires: now.Add(g.window)}
	return NonceNew, nil
}

// Confirm marks nonce as delivered for the rest of a fresh window.
func (g *NonceGuard) Confirm(ctx context.Context, form, nonce string) error {
	if !g.Enabled() || nonce == "" {
		return nil
	}
	key := g.key(form, nonce)

	if client := g.client(); client != nil {
		return client.Set(ctx, key, nonceValueDelivered, g.window).Err()
	}

	g.mu.Lock()
	g.seen[key] = nonceEntry{value: nonceValueDelivered, expires: time.Now().Add(g.window)}
	g.mu.Unlock()
	return nil
}

// Release forgets nonce so the same submission can be retried.
func (g *NonceGuard) Release(ctx context.Context, form, nonce string) error {
	if !g.Enabled() || nonce == "" {
		return nil
	}
	key := g.key(form, nonce)

	if client := g.client(); client != nil {
		return client.Del(ctx, key).Err()
	}

	g.mu.Lock()
	delete(g.seen, key)
	g.mu.Unlock()
	return nil
}
