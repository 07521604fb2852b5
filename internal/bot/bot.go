// Package bot is the submission pipeline: raw input goes through the intent
// resolver, then either becomes a stored memory or an answer grounded in
// retrieved ones.
package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrlearner1606/memory-bot/internal/answer"
	"github.com/mrlearner1606/memory-bot/internal/intent"
	"github.com/mrlearner1606/memory-bot/internal/retrieval"
)

type Status string

const (
	StatusSaved    Status = "saved"
	StatusAnswered Status = "answered"
	StatusFailed   Status = "failed"
)

// Result is what the inbound surface reports back to the user. Message is
// human-readable and never carries credentials or stack traces.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Inserter is the store surface the bot writes through.
type Inserter interface {
	Insert(ctx context.Context, fields map[string]any) (string, error)
}

type Bot struct {
	resolver  *intent.Resolver
	inserter  Inserter
	retriever *retrieval.Engine
	answerer  *answer.Synthesizer
	log       zerolog.Logger
}

func New(resolver *intent.Resolver, inserter Inserter, retriever *retrieval.Engine, answerer *answer.Synthesizer, log zerolog.Logger) *Bot {
	return &Bot{resolver: resolver, inserter: inserter, retriever: retriever, answerer: answerer, log: log}
}

// Submit handles one user utterance end to end.
func (b *Bot) Submit(ctx context.Context, raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Status: StatusFailed, Message: "empty input"}
	}

	ext, err := b.resolver.Resolve(ctx, raw)
	if err != nil {
		b.log.Error().Err(err).Msg("intent resolution failed")
		return Result{Status: StatusFailed, Message: "could not reach any language model: " + err.Error()}
	}

	switch ext.Kind {
	case intent.KindInsert:
		return b.save(ctx, ext)
	default:
		return b.lookup(ctx, raw, ext.Keywords)
	}
}

func (b *Bot) save(ctx context.Context, ext intent.Extraction) Result {
	fields := map[string]any{
		"Knowledge": ext.Knowledge,
		"Reference": strings.Join(ext.Reference, ","),
		"Date":      ext.Date,
	}
	id, err := b.inserter.Insert(ctx, fields)
	if err != nil {
		b.log.Error().Err(err).Msg("memory insert failed")
		return Result{Status: StatusFailed, Message: "could not save the memory: " + err.Error()}
	}
	b.log.Info().Str("record_id", id).Msg("memory saved")
	return Result{Status: StatusSaved, Message: "Saved your memory successfully."}
}

func (b *Bot) lookup(ctx context.Context, raw string, keywords []string) Result {
	records, err := b.retriever.Retrieve(ctx, keywords)
	if err != nil {
		b.log.Error().Err(err).Msg("retrieval failed")
		return Result{Status: StatusFailed, Message: "could not search your memories: " + err.Error()}
	}
	reply, err := b.answerer.Answer(ctx, raw, records)
	if err != nil {
		b.log.Error().Err(err).Msg("answer synthesis failed")
		return Result{Status: StatusFailed, Message: "could not reach any language model: " + err.Error()}
	}
	return Result{Status: StatusAnswered, Message: reply}
}
