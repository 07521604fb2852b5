package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlearner1606/memory-bot/internal/provider"
)

type fakeGateway struct {
	reply string
	err   error
	msgs  []provider.Message
}

func (f *fakeGateway) Complete(_ context.Context, msgs []provider.Message) (string, error) {
	f.msgs = msgs
	return f.reply, f.err
}

func newTestResolver(gw Gateway) *Resolver {
	r := NewResolver(gw, zerolog.Nop())
	r.now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestResolve_InsertExtraction(t *testing.T) {
	gw := &fakeGateway{reply: `{"intent":"insert","knowledge":"I graduated on July 10, 2015","reference":["graduation","education"],"date":"2015-07-10"}`}
	r := newTestResolver(gw)

	ext, err := r.Resolve(context.Background(), "My graduation day was July 10 2015")
	require.NoError(t, err)
	assert.Equal(t, KindInsert, ext.Kind)
	assert.Equal(t, "I graduated on July 10, 2015", ext.Knowledge)
	assert.Contains(t, ext.Reference, "graduation")
	assert.Equal(t, "2015-07-10", ext.Date)

	// The one gateway call carries the strict-JSON instruction and today's date.
	require.Len(t, gw.msgs, 2)
	assert.Equal(t, provider.RoleSystem, gw.msgs[0].Role)
	assert.Contains(t, gw.msgs[0].Content, "2026-08-26")
	assert.Contains(t, gw.msgs[0].Content, "single JSON object")
}

func TestResolve_QueryExtraction(t *testing.T) {
	gw := &fakeGateway{reply: `{"intent":"query","keywords":["graduate","graduation"]}`}
	r := newTestResolver(gw)

	ext, err := r.Resolve(context.Background(), "When did I graduate?")
	require.NoError(t, err)
	assert.Equal(t, KindQuery, ext.Kind)
	assert.Contains(t, ext.Keywords, "graduate")
	assert.Empty(t, ext.Knowledge)
}

func TestResolve_ToleratesFencedReply(t *testing.T) {
	gw := &fakeGateway{reply: "Here you go:\n```json\n{\"intent\":\"query\",\"keywords\":[\"cat\"]}\n```"}
	r := newTestResolver(gw)

	ext, err := r.Resolve(context.Background(), "what do I know about my cat")
	require.NoError(t, err)
	assert.Equal(t, KindQuery, ext.Kind)
	assert.Equal(t, []string{"cat"}, ext.Keywords)
}

func TestResolve_ToleratesSingleQuotedReply(t *testing.T) {
	gw := &fakeGateway{reply: `{'intent':'query','keywords':['cat']}`}
	r := newTestResolver(gw)

	ext, err := r.Resolve(context.Background(), "what do I know about my cat")
	require.NoError(t, err)
	assert.Equal(t, KindQuery, ext.Kind)
	assert.Equal(t, []string{"cat"}, ext.Keywords)
}

func TestResolve_MalformedReplyFallsBackToHeuristic(t *testing.T) {
	// Narrative phrasing over several words classifies as a storage request.
	gw := &fakeGateway{reply: "I could not produce JSON, sorry."}
	r := newTestResolver(gw)

	ext, err := r.Resolve(context.Background(), "My graduation day was July 10 2015")
	require.NoError(t, err)
	assert.Equal(t, KindInsert, ext.Kind)
	assert.Equal(t, "My graduation day was July 10 2015", ext.Knowledge)
	assert.Contains(t, ext.Reference, "graduation")
	assert.Equal(t, "2026-08-26", ext.Date)
}

func TestResolve_MalformedReplyQuestionIsQuery(t *testing.T) {
	gw := &fakeGateway{reply: "no json here"}
	r := newTestResolver(gw)

	ext, err := r.Resolve(context.Background(), "When did I graduate?")
	require.NoError(t, err)
	assert.Equal(t, KindQuery, ext.Kind)
	assert.Contains(t, ext.Keywords, "When")
	assert.Contains(t, ext.Keywords, "graduate")
}

func TestResolve_SingleWordAlwaysQuery(t *testing.T) {
	replies := map[string]string{
		"model says insert": `{"intent":"insert","knowledge":"graduation","reference":["graduation"],"date":"2026-08-26"}`,
		"model says query":  `{"intent":"query","keywords":["graduation"]}`,
		"model is garbage":  "???",
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			r := newTestResolver(&fakeGateway{reply: reply})
			ext, err := r.Resolve(context.Background(), "graduation")
			require.NoError(t, err)
			assert.Equal(t, KindQuery, ext.Kind)
			assert.Equal(t, []string{"graduation"}, ext.Keywords)
		})
	}
}

func TestResolve_EmptyKnowledgeDegradesToRawInput(t *testing.T) {
	gw := &fakeGateway{reply: `{"intent":"insert","knowledge":"","reference":["swimming"],"date":"2026-01-01"}`}
	r := newTestResolver(gw)

	ext, err := r.Resolve(context.Background(), "I learned to swim last year")
	require.NoError(t, err)
	require.Equal(t, KindInsert, ext.Kind)
	assert.Equal(t, "I learned to swim last year", ext.Knowledge)
}

func TestResolve_BadDateDefaultsToToday(t *testing.T) {
	gw := &fakeGateway{reply: `{"intent":"insert","knowledge":"I got a dog","reference":["dog"],"date":"sometime in spring"}`}
	r := newTestResolver(gw)

	ext, err := r.Resolve(context.Background(), "I got a dog recently")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-26", ext.Date)
}

func TestResolve_GatewayFailurePropagates(t *testing.T) {
	gw := &fakeGateway{err: errors.New("all providers exhausted")}
	r := newTestResolver(gw)

	_, err := r.Resolve(context.Background(), "When did I graduate?")
	require.Error(t, err)
}

func TestClassifyLocal_InsertTriggers(t *testing.T) {
	ext := classifyLocal("I was born in Chennai", "2026-08-26")
	assert.Equal(t, KindInsert, ext.Kind)
	assert.Contains(t, ext.Reference, "born")
	assert.Contains(t, ext.Reference, "chennai")

	ext = classifyLocal("weather in Chennai", "2026-08-26")
	assert.Equal(t, KindQuery, ext.Kind)
}
