package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Executor drives one provider through its credential pool with bounded
// retries. Policy: draw a credential, retry it up to maxAttempts times on
// transient failures, then advance to the next credential; non-transient
// failures skip the remaining attempts for that credential immediately.
// Every credential exhausted means a provider-level failure carrying the
// last observed error.
type Executor struct {
	provider    Provider
	keys        *KeyRing
	maxAttempts int
	baseDelay   time.Duration
	priority    int
	log         zerolog.Logger
}

func NewExecutor(p Provider, keys *KeyRing, maxAttempts int, baseDelay time.Duration, priority int, log zerolog.Logger) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &Executor{
		provider:    p,
		keys:        keys,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		priority:    priority,
		log:         log.With().Str("provider", p.Name()).Logger(),
	}
}

func (e *Executor) Name() string  { return e.provider.Name() }
func (e *Executor) Priority() int { return e.priority }

// Complete runs the retry loop defined above. Keys are referenced by pool
// slot in logs, never by value.
func (e *Executor) Complete(ctx context.Context, msgs []Message) (string, error) {
	var lastErr error
	for slot := 0; slot < e.keys.Len(); slot++ {
		apiKey := e.keys.Next()
		for attempt := 1; attempt <= e.maxAttempts; attempt++ {
			if attempt > 1 {
				if err := e.backoff(ctx, attempt); err != nil {
					return "", err
				}
			}
			text, err := e.provider.Complete(ctx, apiKey, msgs)
			if err == nil {
				return text, nil
			}
			lastErr = err
			if ctx.Err() != nil {
				return "", err
			}

			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Retryable() {
				e.log.Warn().Int("key_slot", slot).Int("attempt", attempt).
					Str("kind", apiErr.Kind.String()).Msg("transient provider failure")
				continue
			}
			e.log.Warn().Int("key_slot", slot).Err(err).Msg("credential failed, advancing")
			break
		}
	}
	return "", lastErr
}

// backoff sleeps base*2^(attempt-2) before attempt n>=2, honoring ctx.
func (e *Executor) backoff(ctx context.Context, attempt int) error {
	delay := e.baseDelay << (attempt - 2)
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
