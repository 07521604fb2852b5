package retrieval

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlearner1606/memory-bot/internal/store"
)

type fakeSearcher struct {
	byKeyword map[string][]store.Record
	failOn    string
	queried   []string
}

func (f *fakeSearcher) SearchReference(_ context.Context, keyword string) ([]store.Record, error) {
	f.queried = append(f.queried, keyword)
	if keyword == f.failOn {
		return nil, store.ErrUnavailable
	}
	return f.byKeyword[keyword], nil
}

func rec(id string) store.Record {
	return store.Record{ID: id, Fields: map[string]any{"Knowledge": id}}
}

func TestRetrieve_EmptyKeywordsYieldsEmptySet(t *testing.T) {
	s := &fakeSearcher{byKeyword: map[string][]store.Record{
		"anything": {rec("rec1")},
	}}
	e := NewEngine(s, zerolog.Nop())

	records, err := e.Retrieve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, s.queried, "no keywords means no store calls, never a full scan")
}

func TestRetrieve_KeywordsAreCaseFolded(t *testing.T) {
	s := &fakeSearcher{byKeyword: map[string][]store.Record{
		"graduation": {rec("rec1")},
	}}
	e := NewEngine(s, zerolog.Nop())

	records, err := e.Retrieve(context.Background(), []string{"  GradUation "})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"graduation"}, s.queried)
}

func TestRetrieve_DeduplicatesByIDFirstSeen(t *testing.T) {
	s := &fakeSearcher{byKeyword: map[string][]store.Record{
		"graduate":   {rec("recA"), rec("recB")},
		"graduation": {rec("recB"), rec("recC"), rec("recA")},
	}}
	e := NewEngine(s, zerolog.Nop())

	records, err := e.Retrieve(context.Background(), []string{"graduate", "graduation"})
	require.NoError(t, err)

	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	// A record matched by two keywords appears once, at its first position.
	assert.Equal(t, []string{"recA", "recB", "recC"}, ids)
}

func TestRetrieve_StoreFailureAbortsWholeScan(t *testing.T) {
	s := &fakeSearcher{
		byKeyword: map[string][]store.Record{
			"first": {rec("rec1")},
			"third": {rec("rec3")},
		},
		failOn: "second",
	}
	e := NewEngine(s, zerolog.Nop())

	records, err := e.Retrieve(context.Background(), []string{"first", "second", "third"})
	require.ErrorIs(t, err, store.ErrUnavailable)
	assert.Nil(t, records, "no partial result may escape")
	assert.NotContains(t, s.queried, "third", "scan stops at the failing keyword")
}

func TestRetrieve_BlankKeywordsSkipped(t *testing.T) {
	s := &fakeSearcher{byKeyword: map[string][]store.Record{}}
	e := NewEngine(s, zerolog.Nop())

	_, err := e.Retrieve(context.Background(), []string{"", "  ", "real"})
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, s.queried)
}
