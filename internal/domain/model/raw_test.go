package model_test

import (
	"testing"

	model "github.com/okian/ingestor/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestFrameCellWithGaps(t *testing.T) {
	convey.Convey("Given a window whose second row was skipped", t, func() {
		f := model.NewFrame([]string{"eventid", "city"})
		f.Append(10, []string{"1", "Baghdad"})
		f.Append(12, []string{"3", "Mosul"})
		f.Append(13, []string{"4"})

		convey.Convey("Then rows after the gap are addressed by position", func() {
			v, ok := f.Cell("city", 12)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, "Mosul")

			v, ok = f.Cell("eventid", 13)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, "4")

			v, _ = f.Cell("city", 13)
			convey.So(v, convey.ShouldEqual, "")
		})

		convey.Convey("Then the gap and out of range positions are absent", func() {
			for _, pos := range []int64{9, 11, 14} {
				_, ok := f.Cell("eventid", pos)
				convey.So(ok, convey.ShouldBeFalse)
			}
			_, ok := f.Cell("nkill", 10)
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then the keys span the gap", func() {
			first, last, ok := f.Keys("eventid")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(first, convey.ShouldEqual, 10)
			convey.So(last, convey.ShouldEqual, 13)
		})
	})
}
