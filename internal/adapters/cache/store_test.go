package cache_test

import (
	"testing"

	"github.com/mkret/measureboard/internal/adapters/cache"
	"github.com/mkret/measureboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func meas(id, seriesID int64, value float64, stamp string) model.Measurement {
	return model.Measurement{ID: id, SeriesID: seriesID, Value: value, Timestamp: stamp}
}

func stamps(list []model.Measurement) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.Timestamp
	}
	return out
}

func TestStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		s := cache.New()

		Convey("When replacing with unsorted fetch results", func() {
			s.ReplaceAll(map[int64][]model.Measurement{
				1: {
					meas(11, 1, 2, "2024-01-10T09:00:00"),
					meas(10, 1, 1, "2024-01-10T08:00:00"),
				},
			})

			Convey("Then the list comes out sorted ascending", func() {
				So(stamps(s.List(1)), ShouldResemble, []string{
					"2024-01-10T08:00:00",
					"2024-01-10T09:00:00",
				})
			})
		})

		Convey("When inserting into one series", func() {
			s.ReplaceAll(map[int64][]model.Measurement{
				1: {meas(10, 1, 1, "2024-01-10T08:00:00")},
				2: {meas(20, 2, 5, "2024-01-10T08:30:00")},
			})
			s.Insert(meas(12, 1, 3, "2024-01-10T07:00:00"))

			Convey("Then that list is re-sorted and others are untouched", func() {
				So(stamps(s.List(1)), ShouldResemble, []string{
					"2024-01-10T07:00:00",
					"2024-01-10T08:00:00",
				})
				So(s.List(2), ShouldHaveLength, 1)
			})
		})

		Convey("When replacing a measurement with a changed timestamp", func() {
			s.ReplaceAll(map[int64][]model.Measurement{
				1: {
					meas(10, 1, 1, "2024-01-10T08:00:00"),
					meas(11, 1, 2, "2024-01-10T09:00:00"),
				},
			})
			s.Replace(meas(10, 1, 1.5, "2024-01-10T10:00:00"))

			Convey("Then the entry moved to its new position", func() {
				So(stamps(s.List(1)), ShouldResemble, []string{
					"2024-01-10T09:00:00",
					"2024-01-10T10:00:00",
				})
				So(s.List(1)[1].Value, ShouldEqual, 1.5)
			})
		})

		Convey("When replacing a measurement the cache never saw", func() {
			s.Replace(meas(99, 1, 7, "2024-01-10T08:00:00"))

			Convey("Then it is appended defensively", func() {
				So(s.List(1), ShouldHaveLength, 1)
				So(s.List(1)[0].ID, ShouldEqual, 99)
			})
		})

		Convey("When removing ids spread across series", func() {
			s.ReplaceAll(map[int64][]model.Measurement{
				1: {meas(10, 1, 1, "2024-01-10T08:00:00"), meas(11, 1, 2, "2024-01-10T09:00:00")},
				2: {meas(20, 2, 5, "2024-01-10T08:30:00")},
			})
			s.Remove(11, 20)

			Convey("Then exactly those ids are gone", func() {
				So(s.List(1), ShouldHaveLength, 1)
				So(s.List(1)[0].ID, ShouldEqual, 10)
				So(s.List(2), ShouldBeEmpty)
				So(s.Len(), ShouldEqual, 1)
			})
		})

		Convey("When dropping a series", func() {
			s.ReplaceAll(map[int64][]model.Measurement{
				1: {meas(10, 1, 1, "2024-01-10T08:00:00")},
				2: {meas(20, 2, 5, "2024-01-10T08:00:00")},
			})
			s.DropSeries(1)

			Convey("Then its list is gone entirely", func() {
				So(s.List(1), ShouldBeEmpty)
				So(s.List(2), ShouldHaveLength, 1)
			})
		})

		Convey("When taking a snapshot", func() {
			s.ReplaceAll(map[int64][]model.Measurement{
				1: {meas(10, 1, 1, "2024-01-10T08:00:00")},
			})
			snap := s.Snapshot()
			snap[1][0].Value = 999

			Convey("Then mutating the snapshot leaves the store alone", func() {
				So(s.List(1)[0].Value, ShouldEqual, 1)
			})
		})
	})

	Convey("Given duplicate timestamps inside one series", t, func() {
		s := cache.New(cache.WithLists(map[int64][]model.Measurement{
			1: {
				meas(10, 1, 1, "2024-01-10T08:00:00"),
				meas(11, 1, 2, "2024-01-10T08:00:00"),
			},
		}))

		Convey("Then both entries are kept in fetch order", func() {
			list := s.List(1)
			So(list, ShouldHaveLength, 2)
			So(list[0].ID, ShouldEqual, 10)
			So(list[1].ID, ShouldEqual, 11)
		})
	})
}
