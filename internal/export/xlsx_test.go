package export_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mkret/measureboard/internal/domain/model"
	"github.com/mkret/measureboard/internal/domain/timeline"
	"github.com/mkret/measureboard/internal/export"
)

func TestWorkbook(t *testing.T) {
	Convey("Given a merged table over two series", t, func() {
		series := []model.Series{
			{ID: 1, Name: "weight"},
			{ID: 2, Name: "pulse"},
		}
		active := []int64{1, 2}
		cache := map[int64][]model.Measurement{
			1: {
				{ID: 10, SeriesID: 1, Value: 80.5, Timestamp: "2024-01-10T08:00:00"},
				{ID: 11, SeriesID: 1, Value: 81, Timestamp: "2024-01-11T08:00:00"},
			},
			2: {
				{ID: 20, SeriesID: 2, Value: 60, Timestamp: "2024-01-10T08:00:00"},
			},
		}
		rows := timeline.Rows(active, cache)

		Convey("The workbook carries a header and one row per timestamp", func() {
			f, err := export.Workbook(series, active, rows)
			So(err, ShouldBeNil)
			defer f.Close()

			got, err := f.GetRows("Measurements")
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 3)
			So(got[0], ShouldResemble, []string{"Timestamp", "weight", "pulse"})
			So(got[1], ShouldResemble, []string{"2024-01-10T08:00:00", "80.5", "60"})
		})

		Convey("A gap leaves the cell blank", func() {
			f, err := export.Workbook(series, active, rows)
			So(err, ShouldBeNil)
			defer f.Close()

			value, err := f.GetCellValue("Measurements", "C3")
			So(err, ShouldBeNil)
			So(value, ShouldBeEmpty)
			value, err = f.GetCellValue("Measurements", "B3")
			So(err, ShouldBeNil)
			So(value, ShouldEqual, "81")
		})

		Convey("An unknown series id falls back to a placeholder header", func() {
			f, err := export.Workbook(series, []int64{1, 9}, rows)
			So(err, ShouldBeNil)
			defer f.Close()

			value, err := f.GetCellValue("Measurements", "C1")
			So(err, ShouldBeNil)
			So(value, ShouldEqual, "series 9")
		})

		Convey("An empty table still produces the header", func() {
			f, err := export.Workbook(series, active, nil)
			So(err, ShouldBeNil)
			defer f.Close()

			got, err := f.GetRows("Measurements")
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
		})
	})
}
