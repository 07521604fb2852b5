// Package retrieval resolves search keywords into a deduplicated set of
// stored records: one store query per keyword, results unioned in first-seen
// order.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrlearner1606/memory-bot/internal/store"
)

// Searcher is the store surface the engine needs.
type Searcher interface {
	SearchReference(ctx context.Context, keyword string) ([]store.Record, error)
}

type Engine struct {
	store Searcher
	log   zerolog.Logger
}

func NewEngine(s Searcher, log zerolog.Logger) *Engine {
	return &Engine{store: s, log: log}
}

// Retrieve unions the per-keyword match sets, deduplicating by record id and
// keeping each record at the position it was first seen. An empty keyword
// list yields an empty set, never the whole table. Any single keyword's
// store failure aborts the whole retrieval: an answer grounded in a partial
// view would be silently wrong.
func (e *Engine) Retrieve(ctx context.Context, keywords []string) ([]store.Record, error) {
	var records []store.Record
	seen := make(map[string]struct{})
	for _, kw := range keywords {
		kw = strings.TrimSpace(strings.ToLower(kw))
		if kw == "" {
			continue
		}
		matches, err := e.store.SearchReference(ctx, kw)
		if err != nil {
			return nil, fmt.Errorf("retrieving %q: %w", kw, err)
		}
		for _, r := range matches {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			records = append(records, r)
		}
	}
	e.log.Debug().Int("keywords", len(keywords)).Int("records", len(records)).Msg("retrieval complete")
	return records, nil
}
