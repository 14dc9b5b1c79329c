package logger_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/mkret/measureboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		var buf bytes.Buffer
		So(logger.Init(&buf), ShouldBeNil)
		So(logger.SetLevelString("info"), ShouldBeNil)
		log := logger.Get()
		ctx := context.Background()

		Convey("When logging with structured fields", func() {
			log.Info(ctx, "fetched series",
				logger.Int("count", 3),
				logger.String("filter", "date"),
			)

			Convey("Then message and fields appear in the output", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "fetched series")
				So(out, ShouldContainSubstring, "count=3")
				So(out, ShouldContainSubstring, "filter=date")
			})
		})

		Convey("When the level filters a record out", func() {
			log.Debug(ctx, "merge detail")

			Convey("Then nothing is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "merge detail")
			})
		})

		Convey("When the level is lowered to debug", func() {
			So(logger.SetLevelString("debug"), ShouldBeNil)
			log.Debug(ctx, "merge detail")

			Convey("Then debug records pass", func() {
				So(buf.String(), ShouldContainSubstring, "merge detail")
			})
		})

		Convey("When using a named logger", func() {
			logger.Named("engine").Warn(ctx, "stale batch", logger.Int64("generation", 4))

			Convey("Then the group prefixes its fields", func() {
				So(buf.String(), ShouldContainSubstring, "engine.generation=4")
			})
		})

		Convey("When parsing an unknown level", func() {
			err := logger.SetLevelString("chatty")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
