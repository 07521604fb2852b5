package provider

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider returns canned results in order and records the key used
// for each call.
type scriptedProvider struct {
	script   []error // nil means success
	keysSeen []string
	calls    int
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(_ context.Context, apiKey string, _ []Message) (string, error) {
	s.keysSeen = append(s.keysSeen, apiKey)
	var err error
	if s.calls < len(s.script) {
		err = s.script[s.calls]
	}
	s.calls++
	if err != nil {
		return "", err
	}
	return "ok", nil
}

func kindErr(kind ErrorKind) *APIError {
	return &APIError{Provider: "scripted", Kind: kind, Message: "boom"}
}

func newTestExecutor(p Provider, keys []string, maxAttempts int) *Executor {
	ring, _ := NewKeyRing(keys)
	return NewExecutor(p, ring, maxAttempts, time.Millisecond, 0, zerolog.Nop())
}

func TestExecutor_SucceedsAfterTransientFailures(t *testing.T) {
	p := &scriptedProvider{script: []error{
		kindErr(KindRateLimited),
		kindErr(KindServerError),
		nil,
	}}
	e := newTestExecutor(p, []string{"k1", "k2"}, 3)

	text, err := e.Complete(context.Background(), []Message{User("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	// Success on attempt 3 stops the loop: same credential throughout, no
	// extra attempts afterwards.
	assert.Equal(t, []string{"k1", "k1", "k1"}, p.keysSeen)
}

func TestExecutor_NonRetryableAdvancesCredential(t *testing.T) {
	p := &scriptedProvider{script: []error{
		kindErr(KindUnauthorized),
		nil,
	}}
	e := newTestExecutor(p, []string{"bad", "good"}, 3)

	text, err := e.Complete(context.Background(), []Message{User("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	// Unauthorized skips the remaining attempts for that credential.
	assert.Equal(t, []string{"bad", "good"}, p.keysSeen)
}

func TestExecutor_EmptyCompletionIsNotRetried(t *testing.T) {
	p := &scriptedProvider{script: []error{
		kindErr(KindEmptyCompletion),
		nil,
	}}
	e := newTestExecutor(p, []string{"k1", "k2"}, 3)

	_, err := e.Complete(context.Background(), []Message{User("hi")})
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, p.keysSeen)
}

func TestExecutor_AllAttemptsExhausted(t *testing.T) {
	p := &scriptedProvider{script: []error{
		kindErr(KindServerError),
		kindErr(KindServerError),
		kindErr(KindRateLimited),
		kindErr(KindServerError),
	}}
	e := newTestExecutor(p, []string{"k1", "k2"}, 2)

	_, err := e.Complete(context.Background(), []Message{User("hi")})
	require.Error(t, err)
	// 2 credentials x 2 attempts, last observed error surfaces.
	assert.Equal(t, 4, p.calls)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindServerError, apiErr.Kind)
}

func TestExecutor_ContextCancelStopsRetries(t *testing.T) {
	p := &scriptedProvider{script: []error{
		kindErr(KindServerError),
		kindErr(KindServerError),
		kindErr(KindServerError),
	}}
	ring, _ := NewKeyRing([]string{"k1"})
	e := NewExecutor(p, ring, 3, time.Hour, 0, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := e.Complete(ctx, []Message{User("hi")})
	require.Error(t, err)
	// The hour-long backoff must be abandoned when the caller goes away.
	assert.Less(t, time.Since(start), time.Second)
}
