package metrics_test

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkret/measureboard/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager with its own registry", t, func() {
		m := metrics.NewManager(metrics.WithRegistry(prometheus.NewRegistry()))

		Convey("When recording engine activity", func() {
			m.RecordFetchBatch()
			m.RecordStaleDiscard()
			m.RecordMutation("create_measurement")
			m.RecordMutationError("update_measurement")
			m.RecordValidationError()
			m.ObserveMergeDuration(0.002)
			m.UpdateCacheSize(42)
			m.UpdateActiveSeries(3)
			m.UpdateSelectionSize(2)
			m.RecordAPIRequest("list_measurements", "200")
			m.ObserveAPILatency("list_measurements", 0.05)
			m.RecordAPICallError("delete_measurement")

			Convey("Then the handler exposes the recorded samples", func() {
				rec := httptest.NewRecorder()
				req := httptest.NewRequest("GET", "/metrics", nil)
				m.Handler().ServeHTTP(rec, req)

				body := rec.Body.String()
				So(rec.Code, ShouldEqual, 200)
				So(body, ShouldContainSubstring, "measureboard_dashboard_fetch_batches_total 1")
				So(body, ShouldContainSubstring, "measureboard_dashboard_stale_discards_total 1")
				So(body, ShouldContainSubstring, `measureboard_dashboard_mutations_total{kind="create_measurement"} 1`)
				So(body, ShouldContainSubstring, "measureboard_dashboard_cache_measurements 42")
				So(body, ShouldContainSubstring, `measureboard_api_requests_total{endpoint="list_measurements",status="200"} 1`)
			})
		})

		Convey("When metrics are disabled", func() {
			disabled := metrics.NewManager(
				metrics.WithRegistry(prometheus.NewRegistry()),
				metrics.WithMetricsEnabled(false),
			)
			disabled.RecordFetchBatch()
			disabled.UpdateCacheSize(99)

			Convey("Then nothing is recorded", func() {
				rec := httptest.NewRecorder()
				req := httptest.NewRequest("GET", "/metrics", nil)
				disabled.Handler().ServeHTTP(rec, req)
				So(rec.Body.String(), ShouldContainSubstring, "fetch_batches_total 0")
			})
		})
	})

	Convey("Given custom namespace options", t, func() {
		m := metrics.NewManager(
			metrics.WithRegistry(prometheus.NewRegistry()),
			metrics.WithNamespace("custom"),
			metrics.WithSubsystem("engine"),
		)
		m.RecordFetchBatch()

		Convey("Then metric names carry them", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/metrics", nil)
			m.Handler().ServeHTTP(rec, req)
			So(rec.Body.String(), ShouldContainSubstring, "custom_engine_fetch_batches_total 1")
		})
	})
}
