package repository

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/ingestor/internal/domain/dedupe"
	"github.com/okian/ingestor/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	exists, err := s.IndexExists(ctx, "tvnews")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = s.Sample(ctx, "tvnews")
	require.ErrorIs(t, err, ErrIndexNotFound)
	_, err = s.Count(ctx, "tvnews", nil)
	require.ErrorIs(t, err, ErrIndexNotFound)

	require.NoError(t, s.CreateIndex(ctx, "tvnews", []byte(`{"mappings":{}}`)))
	require.NoError(t, s.CreateIndex(ctx, "tvnews", nil))

	_, err = s.Sample(ctx, "tvnews")
	require.ErrorIs(t, err, ErrNotFound)

	day := time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := s.Bulk(ctx, "tvnews", []any{
		model.NewsGram{Date: day, Station: "CNN", Word: "quick fox", NGrams: 2, Freq: 42},
		model.NewsGram{Date: day, Station: "CNN", Word: "fox", NGrams: 1, Freq: 3},
		model.NewsGram{Date: day.AddDate(0, 0, 1), Station: "CNN", Word: "fox", NGrams: 1, Freq: 5},
		make(chan int),
	})
	require.NoError(t, err)
	require.Equal(t, 3, res.Indexed)
	require.Equal(t, 1, res.Failed)

	doc, err := s.Sample(ctx, "tvnews")
	require.NoError(t, err)
	require.Equal(t, "quick fox", doc["word"])
	require.Equal(t, "1995-01-01T00:00:00Z", doc["date"])

	count := func(conds ...model.Condition) int64 {
		n, err := s.Count(ctx, "tvnews", conds)
		require.NoError(t, err)
		return n
	}
	require.EqualValues(t, 3, count())
	require.EqualValues(t, 2, count(model.Condition{Field: "date", Op: model.OpContainsDay, Value: "19950101"}))
	require.EqualValues(t, 1, count(
		model.Condition{Field: "date", Op: model.OpContainsDay, Value: "19950101"},
		model.Condition{Field: "ngrams", Op: model.OpEqual, Value: 1},
	))
	require.EqualValues(t, 0, count(model.Condition{Field: "station", Op: model.OpEqual, Value: "BBCNEWS"}))
}

func TestSQLiteNestedFields(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, err := s.Bulk(ctx, "gdelt-events-2.0", []any{model.Event{
		EventID:   7,
		TimeStone: "20210101001500",
		Actor1:    model.Actor{Code: "USA", Types: []string{}},
		Actor2:    model.Actor{Types: []string{}},
	}})
	require.NoError(t, err)

	n, err := s.Count(ctx, "gdelt-events-2.0", []model.Condition{
		{Field: "time_stone", Op: model.OpEqual, Value: "20210101001500"},
		{Field: "actor1.code", Op: model.OpEqual, Value: "USA"},
		{Field: "event_id", Op: model.OpEqual, Value: 7.0},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	doc, err := s.Sample(ctx, "gdelt-events-2.0")
	require.NoError(t, err)
	require.Equal(t, json.Number("7"), doc["event_id"])
}

func TestSQLiteFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ingest.db")

	s, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	_, err = s.Bulk(ctx, "terrorism", []any{model.Incident{IncidentID: 1}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, path, reopened.Path())

	n, err := reopened.Count(ctx, "terrorism", nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSQLiteMissingIndexAtGate(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, err := s.Sample(ctx, "gdelt-events-2.0")
	require.ErrorIs(t, err, model.ErrIndexNotFound)
	_, err = s.Count(ctx, "gdelt-events-2.0", []model.Condition{dedupe.Equal("time_stone", "20200101000000")})
	require.ErrorIs(t, err, model.ErrIndexNotFound)

	for _, gate := range []dedupe.Gate{dedupe.NewSampleGate(s), dedupe.NewExactGate(s)} {
		found, err := gate.Found(ctx, "gdelt-events-2.0", dedupe.Equal("time_stone", "20200101000000"))
		require.NoError(t, err)
		require.False(t, found)
	}
}
