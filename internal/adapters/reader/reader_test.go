package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/okian/ingestor/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func csvSource(rows int) string {
	var b strings.Builder
	b.WriteString("eventid,iyear,city\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,%d,city-%d\n", 1000+i, 1970+i%50, i)
	}
	return b.String()
}

func readAll(t *testing.T, c *CSV) []int {
	t.Helper()
	var sizes []int
	for {
		f, err := c.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return sizes
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sizes = append(sizes, f.Len())
	}
}

func TestCSVWindows(t *testing.T) {
	convey.Convey("Given CSV sources of N rows and batch size B", t, func() {
		cases := []struct {
			rows, batch int
			want        []int
		}{
			{rows: 7, batch: 3, want: []int{3, 3, 1}},
			{rows: 6, batch: 3, want: []int{3, 3}},
			{rows: 1, batch: 50000, want: []int{1}},
			{rows: 0, batch: 10, want: nil},
		}
		for _, tc := range cases {
			c, err := NewCSV(strings.NewReader(csvSource(tc.rows)), WithBatchSize(tc.batch))
			convey.So(err, convey.ShouldBeNil)

			sizes := readAll(t, c)
			convey.So(sizes, convey.ShouldResemble, tc.want)
			convey.So(c.Windows(), convey.ShouldEqual, (tc.rows+tc.batch-1)/tc.batch)
			for _, s := range sizes {
				convey.So(s, convey.ShouldBeLessThanOrEqualTo, tc.batch)
			}
		}
	})

	convey.Convey("Given consecutive windows", t, func() {
		c, err := NewCSV(strings.NewReader(csvSource(5)), WithBatchSize(2))
		convey.So(err, convey.ShouldBeNil)

		first, _ := c.Next(context.Background())
		second, _ := c.Next(context.Background())

		convey.Convey("Then row positions continue across windows", func() {
			a, b, ok := first.Keys("eventid")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So([]int64{a, b}, convey.ShouldResemble, []int64{0, 1})
			a, b, _ = second.Keys("eventid")
			convey.So([]int64{a, b}, convey.ShouldResemble, []int64{2, 3})
			v, _ := second.Cell("city", 3)
			convey.So(v, convey.ShouldEqual, "city-3")
		})
	})
}

func TestCSVMalformedRows(t *testing.T) {
	convey.Convey("Given a CSV with a short row", t, func() {
		src := "eventid,iyear,city\n1,1970,Lima\n2,1971\n3,1972,\"Santo \"Domingo\"\n"
		c, err := NewCSV(strings.NewReader(src), WithBatchSize(10))
		convey.So(err, convey.ShouldBeNil)

		f, err := c.Next(context.Background())

		convey.Convey("Then the row is skipped and the read continues", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(f.Len(), convey.ShouldEqual, 2)
			convey.So(c.Skipped(), convey.ShouldEqual, 1)
			_, has := f.Cell("eventid", 1)
			convey.So(has, convey.ShouldBeFalse)
			v, _ := f.Cell("eventid", 2)
			convey.So(v, convey.ShouldEqual, "3")
		})
	})

	convey.Convey("Given sources without a header", t, func() {
		_, err := NewCSV(strings.NewReader(""))
		convey.So(errors.Is(err, ErrNoHeader), convey.ShouldBeTrue)
	})

	convey.Convey("Given an unknown encoding", t, func() {
		_, err := NewCSV(strings.NewReader("a\n"), WithEncoding("ebcdic"))
		convey.So(errors.Is(err, ErrUnknownEncoding), convey.ShouldBeTrue)
	})

	convey.Convey("Given a cancelled context", t, func() {
		c, _ := NewCSV(strings.NewReader(csvSource(3)))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Next(ctx)
		convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
	})
}

func TestCSVLatin1(t *testing.T) {
	convey.Convey("Given an ISO-8859-1 encoded source", t, func() {
		src := "eventid,city\n1,Bogot\xe1\n"
		c, err := NewCSV(strings.NewReader(src), WithEncoding(EncodingLatin1))
		convey.So(err, convey.ShouldBeNil)

		f, err := c.Next(context.Background())
		convey.So(err, convey.ShouldBeNil)
		v, _ := f.Cell("city", 0)
		convey.So(v, convey.ShouldEqual, "Bogotá")
	})
}

func TestLinesStream(t *testing.T) {
	keepOdd := func(_ context.Context, line []byte) (any, bool) {
		s := strings.TrimSpace(string(line))
		return s, s != "" && s[len(s)-1]%2 == 1
	}

	convey.Convey("Given a stream of lines", t, func() {
		src := "l1\nl2\nl3\nl5\nl7\nl9"
		var batches [][]any
		flush := func(_ context.Context, b []any) error {
			batches = append(batches, b)
			return nil
		}

		stats, err := NewLines(WithBatchSize(2)).Stream(context.Background(), strings.NewReader(src), keepOdd, flush)

		convey.Convey("Then mapped lines are flushed in bounded batches", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(stats, convey.ShouldResemble, LineStats{Lines: 6, Mapped: 5, Batches: 3})
			convey.So(batches, convey.ShouldHaveLength, 3)
			convey.So(batches[0], convey.ShouldResemble, []any{"l1", "l3"})
			convey.So(batches[2], convey.ShouldResemble, []any{"l9"})
		})
	})

	convey.Convey("Given a stream where nothing maps", t, func() {
		calls := 0
		stats, err := NewLines().Stream(context.Background(), strings.NewReader("l2\nl4\n"), keepOdd,
			func(context.Context, []any) error { calls++; return nil })
		convey.So(err, convey.ShouldBeNil)
		convey.So(calls, convey.ShouldEqual, 0)
		convey.So(stats.Batches, convey.ShouldEqual, 0)
	})

	convey.Convey("Given a failing flush", t, func() {
		boom := errors.New("boom")
		_, err := NewLines(WithBatchSize(1)).Stream(context.Background(), strings.NewReader("l1\nl3\n"), keepOdd,
			func(context.Context, []any) error { return boom })
		convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
	})
}
