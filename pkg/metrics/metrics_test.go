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
		Convey("When creating with a private registry and custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"event": "hackreg"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the collectors are registered under the custom names", func() {
				So(manager, ShouldNotBeNil)
				manager.usersTotal.Set(4)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "test_ns_test_sub_users_total")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording funnel gauges", func() {
			UpdateUserCounts(10, 6, 3, 2)

			Convey("Then the gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.usersTotal), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.usersApplied), ShouldEqual, 6)
				So(testutil.ToFloat64(globalManager.usersAccepted), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.usersConfirmed), ShouldEqual, 2)
			})
		})

		Convey("When recording labelled counters", func() {
			before := testutil.ToFloat64(globalManager.statusResolutions.WithLabelValues("incomplete"))
			RecordStatusResolution("incomplete")
			RecordSubmission("application", "General")
			RecordStatusChange("accepted")

			Convey("Then the counters advance", func() {
				So(testutil.ToFloat64(globalManager.statusResolutions.WithLabelValues("incomplete")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.submissions.WithLabelValues("application", "General")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording an aggregation run", func() {
			So(func() { RecordStatisticsAggregation(1.5, 7, 1) }, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.statisticsEntries), ShouldEqual, 7)
		})

		Convey("Then HTTP and runtime recorders do not panic", func() {
			So(func() {
				RecordHTTPRequest("dashboard", "GET", "200")
				RecordHTTPRequestDuration("dashboard", "GET", "200", 3)
				RecordErrorByEndpoint("dashboard", "GET", "client_error")
				RecordErrorByType("client_error", "medium")
				RecordRepositoryLatency("list_users", 0.4)
				RecordRepositoryError("list_users")
				RecordSubmissionError("application", "closed")
				RecordSettingsUpdate("teams_enabled")
				RecordUnsupportedBrowser()
				UpdateCatalogBranches(3)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given the global manager rebuilt with an event label", t, func() {
		Init(WithConstLabels(map[string]string{"event": "HackGT"}))
		defer Init()
		UpdateCatalogBranches(5)

		Convey("Then the new registry exposes labelled collectors", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			found := false
			for _, f := range families {
				if f.GetName() != "hackreg_registration_catalog_branches" {
					continue
				}
				found = true
				So(f.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 5)
				labels := f.GetMetric()[0].GetLabel()
				So(labels, ShouldHaveLength, 1)
				So(labels[0].GetName(), ShouldEqual, "event")
				So(labels[0].GetValue(), ShouldEqual, "HackGT")
			}
			So(found, ShouldBeTrue)
		})
	})
}

func TestRepositoryErrorCounting(t *testing.T) {
	Convey("Given repository failures", t, func() {
		before := testutil.ToFloat64(globalManager.repositoryErrors.WithLabelValues("get_user_by_email"))
		RecordRepositoryError("get_user_by_email")

		Convey("Then each failure is counted per operation", func() {
			So(testutil.ToFloat64(globalManager.repositoryErrors.WithLabelValues("get_user_by_email")), ShouldEqual, before+1)
		})
	})
}
