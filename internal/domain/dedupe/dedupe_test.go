package dedupe_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	dedupe "github.com/okian/ingestor/internal/domain/dedupe"
	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeSampler struct {
	doc   string
	err   error
	calls int
}

func (f *fakeSampler) Sample(_ context.Context, _ string) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	dec := json.NewDecoder(strings.NewReader(f.doc))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

type fakeCounter struct {
	n     int64
	err   error
	conds []model.Condition
}

func (f *fakeCounter) Count(_ context.Context, _ string, conds []model.Condition) (int64, error) {
	f.conds = conds
	return f.n, f.err
}

func TestSampleGate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a news sample from 1995-01-01", t, func() {
		s := &fakeSampler{doc: `{"date":"1995-01-01T00:00:00Z","station":"CNN","ngrams":1,"freq":42}`}
		g := dedupe.NewSampleGate(s)

		Convey("When checking the same day and order", func() {
			found, err := g.Found(ctx, "tvnews", dedupe.ContainsDay("date", "19950101"), dedupe.Equal("ngrams", 1))

			Convey("Then the partition is found", func() {
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(s.calls, ShouldEqual, 1)
			})
		})

		Convey("When checking another order", func() {
			found, err := g.Found(ctx, "tvnews", dedupe.ContainsDay("date", "19950101"), dedupe.Equal("ngrams", 2))
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
		})

		Convey("When checking another day", func() {
			found, err := g.Found(ctx, "tvnews", dedupe.ContainsDay("date", "19950102"))
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
		})

		Convey("When checking a missing field", func() {
			found, err := g.Found(ctx, "tvnews", dedupe.Equal("time_stone", "19950101000000"))
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
		})
	})

	Convey("Given an event sample", t, func() {
		g := dedupe.NewSampleGate(&fakeSampler{doc: `{"time_stone":"20210101001500","actor1":{"code":"USA"}}`})

		found, err := g.Found(ctx, "gdelt-events-2.0", dedupe.Equal("time_stone", "20210101001500"))
		So(err, ShouldBeNil)
		So(found, ShouldBeTrue)

		found, _ = g.Found(ctx, "gdelt-events-2.0", dedupe.Equal("actor1.code", "USA"))
		So(found, ShouldBeTrue)
	})

	Convey("Given a missing or empty index", t, func() {
		for _, err := range []error{
			fmt.Errorf("search: %w", model.ErrIndexNotFound),
			model.ErrNotFound,
		} {
			found, gerr := dedupe.NewSampleGate(&fakeSampler{err: err}).Found(ctx, "tvnews", dedupe.ContainsDay("date", "19950101"))
			So(gerr, ShouldBeNil)
			So(found, ShouldBeFalse)
		}
	})

	Convey("Given a failing store", t, func() {
		boom := errors.New("connection refused")
		_, err := dedupe.NewSampleGate(&fakeSampler{err: boom}).Found(ctx, "tvnews")
		So(errors.Is(err, boom), ShouldBeTrue)
	})
}

func TestExactGate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a counter", t, func() {
		Convey("When documents exist", func() {
			c := &fakeCounter{n: 3}
			found, err := dedupe.NewExactGate(c).Found(ctx, "gdelt-events-2.0", dedupe.Equal("time_stone", "20210101001500"))

			So(err, ShouldBeNil)
			So(found, ShouldBeTrue)
			So(c.conds, ShouldHaveLength, 1)
			So(c.conds[0].Op, ShouldEqual, model.OpEqual)
		})

		Convey("When nothing matches", func() {
			found, err := dedupe.NewExactGate(&fakeCounter{}).Found(ctx, "tvnews")
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
		})

		Convey("When the index does not exist", func() {
			found, err := dedupe.NewExactGate(&fakeCounter{err: model.ErrIndexNotFound}).Found(ctx, "tvnews")
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
		})
	})
}

func TestNever(t *testing.T) {
	Convey("Never finds anything", t, func() {
		found, err := dedupe.Never.Found(context.Background(), "tvnews", dedupe.Equal("ngrams", 1))
		So(err, ShouldBeNil)
		So(found, ShouldBeFalse)
	})
}

func TestConditionDay(t *testing.T) {
	Convey("ContainsDay renders the ISO day", t, func() {
		So(dedupe.ContainsDay("date", "19950101").Day(), ShouldEqual, "1995-01-01")
		So(dedupe.ContainsDay("date", "garbage").Day(), ShouldEqual, "garbage")
	})
}
