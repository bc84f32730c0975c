package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics should be registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.submissions.WithLabelValues("forwarded").Inc()

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_submissions_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating two managers on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registration should panic", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording domain events", func() {
			before := testutil.ToFloat64(globalManager.submissions.WithLabelValues("duplicate"))
			RecordSubmission("duplicate")
			RecordStandings("team", "local")
			RecordValidationFailure("invalid_format")
			RecordBackendCall("backend.SportTypes", "ok", 12)
			UpdateDedupeSize(3)

			Convey("Then counters and gauges should move", func() {
				So(testutil.ToFloat64(globalManager.submissions.WithLabelValues("duplicate")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.standingsComputed.WithLabelValues("team", "local")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.validationFailures.WithLabelValues("invalid_format")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.backendRequests.WithLabelValues("backend.SportTypes", "ok")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.dedupeSize), ShouldEqual, 3)
			})
		})

		Convey("When recording HTTP, error and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/results", "GET", "200")
				RecordHTTPRequestDuration("/results", "GET", "200", 4.2)
				RecordErrorByType("backend_unavailable", "error")
				RecordErrorByEndpoint("/results", "GET", "backend_unavailable")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then the custom registry should expose them", func() {
				n, err := testutil.GatherAndCount(GetRegistry(), "spartakiad_gateway_http_requests_total")
				So(err, ShouldBeNil)
				So(n, ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When metrics are disabled", func() {
			saved := globalManager
			globalManager = NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
			defer func() { globalManager = saved }()

			RecordSubmission("forwarded")

			Convey("Then nothing should be recorded", func() {
				So(testutil.ToFloat64(globalManager.submissions.WithLabelValues("forwarded")), ShouldEqual, 0)
			})
		})
	})
}

func TestRegistryIsIsolated(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)

		Convey("Then default Go collectors should not be present", func() {
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "go_"), ShouldBeFalse)
			}
		})
	})
}
