package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors should be registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.usersCreated.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make(map[string]bool, len(families))
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_api_users_created_total"], ShouldBeTrue)
			})
		})

		Convey("When registering the same collectors twice", func() {
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto should panic on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording business events", func() {
			before := testutil.ToFloat64(globalManager.usersCreated)
			RecordUserCreated()
			RecordUserConflict()
			RecordUserList(3)

			Convey("Then counters should advance", func() {
				So(testutil.ToFloat64(globalManager.usersCreated), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.userConflicts), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording store activity", func() {
			RecordStoreOperation("insert", "ok", 1.5)
			RecordStoreError("insert", "conflict")

			Convey("Then the labelled counter should be visible", func() {
				So(testutil.ToFloat64(globalManager.storeErrors.WithLabelValues("insert", "conflict")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When publishing pool statistics", func() {
			UpdatePoolStats(PoolStats{MaxOpen: 10, Open: 4, InUse: 3, Idle: 1, WaitCount: 7, WaitDurationMs: 12})

			Convey("Then the gauges should mirror the snapshot", func() {
				So(testutil.ToFloat64(globalManager.poolMaxOpen), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.poolInUse), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.poolWaitCount), ShouldEqual, 7)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			So(func() {
				RecordHTTPRequest("create_user", "POST", "201")
				RecordHTTPRequestDuration("create_user", "POST", "201", 3)
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("create_user", "POST", "client_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the registry should be exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given the global manager rebuilt with a namespace and env label", t, func() {
		Init(WithNamespace("playcode"), WithConstLabels(map[string]string{"env": "staging"}))
		defer Init()

		RecordUserCreated()

		Convey("Then the served registry should expose the renamed, labelled metric", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			var found bool
			for _, f := range families {
				if f.GetName() != "playcode_api_users_created_total" {
					continue
				}
				found = true
				labels := f.GetMetric()[0].GetLabel()
				So(labels, ShouldHaveLength, 1)
				So(labels[0].GetName(), ShouldEqual, "env")
				So(labels[0].GetValue(), ShouldEqual, "staging")
			}
			So(found, ShouldBeTrue)
		})
	})

	Convey("Given Init without options", t, func() {
		Init()
		RecordUserCreated()

		Convey("Then the default namespace should be used", func() {
			So(testutil.ToFloat64(globalManager.usersCreated), ShouldEqual, 1)
			n, err := testutil.GatherAndCount(GetRegistry(), "accounts_api_users_created_total")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})
	})
}
