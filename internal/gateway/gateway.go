// Package gateway orders the configured LM providers into a fallback chain:
// each inbound completion is tried against providers strictly in priority
// order until one yields a usable answer.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrlearner1606/memory-bot/internal/provider"
)

// ErrNoProviders means the chain was assembled with nothing in it. This is
// a configuration defect and is surfaced at startup, not per request.
var ErrNoProviders = errors.New("no LM providers configured")

// Chain is what the gateway drives: one provider wrapped in its retry
// executor. Satisfied by *provider.Executor.
type Chain interface {
	Name() string
	Priority() int
	Complete(ctx context.Context, msgs []provider.Message) (string, error)
}

// Failure records why one provider was skipped over.
type Failure struct {
	Provider string
	Err      error
}

// ExhaustedError aggregates every provider's failure so operators can see
// which services were unreachable. One diagnostic line per provider.
type ExhaustedError struct {
	Failures []Failure
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	b.WriteString("all providers exhausted:")
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n- %s: %v", f.Provider, f.Err)
	}
	return b.String()
}

type Gateway struct {
	chains []Chain
	log    zerolog.Logger
}

// New sorts the chains by priority rank (lowest first) and returns the
// assembled gateway. Providers are tried sequentially, never in parallel:
// fan-out would issue redundant billed calls.
func New(chains []Chain, log zerolog.Logger) (*Gateway, error) {
	if len(chains) == 0 {
		return nil, ErrNoProviders
	}
	ordered := append([]Chain(nil), chains...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority() < ordered[j].Priority() })
	return &Gateway{chains: ordered, log: log}, nil
}

// Complete returns the first provider success, or an *ExhaustedError when
// every provider failed.
func (g *Gateway) Complete(ctx context.Context, msgs []provider.Message) (string, error) {
	var failures []Failure
	for _, c := range g.chains {
		text, err := c.Complete(ctx, msgs)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		g.log.Warn().Str("provider", c.Name()).Err(err).Msg("provider failed, falling back")
		failures = append(failures, Failure{Provider: c.Name(), Err: err})
	}
	return "", &ExhaustedError{Failures: failures}
}
