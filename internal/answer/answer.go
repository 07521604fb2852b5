// Package answer grounds the final reply: the user's question plus the
// retrieved records go through the gateway with an instruction to answer
// from those records only.
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mrlearner1606/memory-bot/internal/provider"
	"github.com/mrlearner1606/memory-bot/internal/store"
)

type Gateway interface {
	Complete(ctx context.Context, msgs []provider.Message) (string, error)
}

const groundingPrompt = `You are an assistant that answers ONLY from the memory records provided.
- The records belong to %s. "I", "me", "my" in them refer to the account owner; address the owner in second person ("you").
- Use only facts present in the records. If the records do not contain the answer, say you don't know.
- Keep the answer concise.`

type Synthesizer struct {
	gw    Gateway
	owner string
}

// NewSynthesizer builds the answer stage. owner is how the prompt names the
// account holder; empty falls back to "the account owner".
func NewSynthesizer(gw Gateway, owner string) *Synthesizer {
	if owner == "" {
		owner = "the account owner"
	}
	return &Synthesizer{gw: gw, owner: owner}
}

// Answer serializes the records into a compact context block and asks the
// gateway for a grounded reply. The no-fabrication rule is a prompt-level
// contract; the scenario tests hold the prompt to it.
func (s *Synthesizer) Answer(ctx context.Context, query string, records []store.Record) (string, error) {
	return s.gw.Complete(ctx, []provider.Message{
		provider.System(fmt.Sprintf(groundingPrompt, s.owner)),
		provider.User(fmt.Sprintf("User query: %s\n\nRecords:\n%s", query, contextBlock(records))),
	})
}

// contextBlock renders one record's fields per line as compact JSON, or an
// explicit marker so the model states non-knowledge instead of inventing.
func contextBlock(records []store.Record) string {
	if len(records) == 0 {
		return "No records."
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			continue
		}
		lines = append(lines, string(fields))
	}
	return strings.Join(lines, "\n")
}
