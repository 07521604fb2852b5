// Package intent turns raw user input into a tagged extraction: either a
// storage request (knowledge, reference keywords, date) or a lookup request
// (search keywords). One gateway call does the classification and the field
// extraction together; a local heuristic covers malformed model replies so
// the pipeline never stalls on one.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/mrlearner1606/memory-bot/internal/provider"
	"github.com/mrlearner1606/memory-bot/internal/schema"
)

type Kind string

const (
	KindInsert Kind = "insert"
	KindQuery  Kind = "query"
)

// Extraction is the resolver's result. Exactly one variant is populated:
// Knowledge/Reference/Date for KindInsert, Keywords for KindQuery.
type Extraction struct {
	Kind      Kind
	Knowledge string
	Reference []string
	Date      string
	Keywords  []string
}

// Gateway is the completion surface the resolver needs.
type Gateway interface {
	Complete(ctx context.Context, msgs []provider.Message) (string, error)
}

const extractionSchema = `{
	"type": "object",
	"oneOf": [
		{
			"properties": {
				"intent": {"enum": ["insert"]},
				"knowledge": {"type": "string"},
				"reference": {"type": "array", "items": {"type": "string"}},
				"date": {"type": "string"}
			},
			"required": ["intent", "knowledge"]
		},
		{
			"properties": {
				"intent": {"enum": ["query"]},
				"keywords": {"type": "array", "items": {"type": "string"}, "minItems": 1}
			},
			"required": ["intent", "keywords"]
		}
	]
}`

const promptTemplate = `You are the intent resolver for a personal memory assistant. Decide whether the input stores new information or asks for stored information, then reply with a single JSON object and nothing else.

For a statement that adds information, reply:
{"intent":"insert","knowledge":"<the fact, restated clearly in first person>","reference":["<keyword>","<keyword>"],"date":"<YYYY-MM-DD the fact refers to, or %s if none>"}

For a question or lookup, reply:
{"intent":"query","keywords":["<search keyword>","<search keyword>"]}

Rules:
- Today's date is %s.
- Reference keywords are short lowercase topic words used for later lookup.
- A single-word input is always a query.
- Output strict JSON with double quotes, no prose, no code fences.`

type Resolver struct {
	gw  Gateway
	val *schema.Validator
	now func() time.Time
	log zerolog.Logger
}

func NewResolver(gw Gateway, log zerolog.Logger) *Resolver {
	return &Resolver{gw: gw, val: schema.NewValidator(), now: time.Now, log: log}
}

// Resolve classifies and extracts in one gateway round trip. A reply that
// fails strict validation is recovered locally; only a gateway-level failure
// (every provider down) propagates.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Extraction, error) {
	raw = strings.TrimSpace(raw)
	today := r.now().Format("2006-01-02")

	reply, err := r.gw.Complete(ctx, []provider.Message{
		provider.System(fmt.Sprintf(promptTemplate, today, today)),
		provider.User(raw),
	})
	if err != nil {
		return Extraction{}, err
	}

	ext, ok := r.parse(reply)
	if !ok {
		r.log.Debug().Str("reply", truncate(reply, 120)).Msg("malformed extraction reply, using heuristic")
		ext = classifyLocal(raw, today)
	}
	return normalize(ext, raw, today), nil
}

// parse applies strict schema validation to the model reply, tolerating
// code fences and single-quoted pseudo-JSON around an otherwise valid object.
func (r *Resolver) parse(reply string) (Extraction, bool) {
	doc := extractObject(reply)
	if doc == "" {
		return Extraction{}, false
	}
	if r.val.Validate(extractionSchema, doc) != nil {
		doc = strings.ReplaceAll(doc, `'`, `"`)
		if r.val.Validate(extractionSchema, doc) != nil {
			return Extraction{}, false
		}
	}

	var wire struct {
		Intent    string   `json:"intent"`
		Knowledge string   `json:"knowledge"`
		Reference []string `json:"reference"`
		Date      string   `json:"date"`
		Keywords  []string `json:"keywords"`
	}
	if json.Unmarshal([]byte(doc), &wire) != nil {
		return Extraction{}, false
	}
	switch wire.Intent {
	case "insert":
		return Extraction{Kind: KindInsert, Knowledge: wire.Knowledge, Reference: wire.Reference, Date: wire.Date}, true
	case "query":
		return Extraction{Kind: KindQuery, Keywords: wire.Keywords}, true
	}
	return Extraction{}, false
}

// extractObject isolates the first {...} span, dropping fences and prose.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// classifyLocal is the correctness fallback: ownership or narrative phrasing
// over more than one word reads as storage, everything else as lookup.
func classifyLocal(raw, today string) Extraction {
	words := strings.Fields(raw)
	if len(words) > 1 && hasInsertTrigger(raw) {
		return Extraction{
			Kind:      KindInsert,
			Knowledge: raw,
			Reference: contentWords(words, 4),
			Date:      today,
		}
	}
	keywords := words
	if len(keywords) > 4 {
		keywords = keywords[:4]
	}
	cleaned := make([]string, 0, len(keywords))
	for _, w := range keywords {
		if w = trimPunct(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	return Extraction{Kind: KindQuery, Keywords: cleaned}
}

var insertTriggers = []string{"i am", "i have", "my ", "i was", "i learned", "i did"}

func hasInsertTrigger(raw string) bool {
	lower := strings.ToLower(raw)
	for _, t := range insertTriggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// contentWords picks up to max words of length >= 4 to serve as reference
// keywords when the model gave none.
func contentWords(words []string, max int) []string {
	var out []string
	for _, w := range words {
		w = strings.ToLower(trimPunct(w))
		if len(w) >= 4 {
			out = append(out, w)
			if len(out) == max {
				break
			}
		}
	}
	return out
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize enforces the extraction invariants regardless of which path
// produced it: a single-word input is always a query, empty knowledge
// degrades to the raw input, and a missing or unparsable date becomes today.
func normalize(ext Extraction, raw, today string) Extraction {
	words := strings.Fields(raw)
	if len(words) <= 1 {
		kw := trimPunct(raw)
		if kw == "" {
			kw = raw
		}
		return Extraction{Kind: KindQuery, Keywords: []string{kw}}
	}

	switch ext.Kind {
	case KindInsert:
		if strings.TrimSpace(ext.Knowledge) == "" {
			ext.Knowledge = raw
		}
		if _, err := time.Parse("2006-01-02", ext.Date); err != nil {
			ext.Date = today
		}
		if len(ext.Reference) == 0 {
			ext.Reference = contentWords(words, 4)
		}
		ext.Keywords = nil
	case KindQuery:
		var kept []string
		for _, k := range ext.Keywords {
			if k = strings.TrimSpace(k); k != "" {
				kept = append(kept, k)
			}
		}
		if len(kept) == 0 {
			kept = classifyLocal(raw, today).Keywords
		}
		ext = Extraction{Kind: KindQuery, Keywords: kept}
	}
	return ext
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
