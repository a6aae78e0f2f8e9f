package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When applying them to a manager", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("recap"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithInstance("eu-1"),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the settings are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "recap")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				So(manager.constLabels["instance"], ShouldEqual, "eu-1")
			})

			Convey("Then metric names carry namespace and subsystem", func() {
				manager.recapsComputed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_recap_recaps_computed_total"], ShouldBeTrue)
			})
		})

		Convey("When passing empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithInstance(""),
				WithRefreshInterval(-1*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "osu")
				So(manager.subsystem, ShouldEqual, "wrapped")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
				So(manager.constLabels, ShouldBeEmpty)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given a manager rebuilt with recording disabled", t, func() {
		manager := Init(WithMetricsEnabled(false), WithRefreshInterval(2*time.Second))
		Reset(func() { Init() })

		Convey("When recording counters", func() {
			RecordRecapComputed(5, 0.1)
			RecordOAuthLogin()
			snap, err := Snapshot()
			So(err, ShouldBeNil)

			Convey("Then nothing is counted on the fresh registry", func() {
				So(snap["osu_wrapped_recaps_computed_total"], ShouldEqual, 0.0)
				So(snap["osu_wrapped_oauth_logins_total"], ShouldEqual, 0.0)
				So(manager.RefreshInterval(), ShouldEqual, 2*time.Second)
			})
		})
	})

	Convey("Given a manager rebuilt for a named instance", t, func() {
		Init(WithInstance("eu-1"))
		Reset(func() { Init() })

		Convey("When a counter moves", func() {
			RecordOAuthLogin()
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			Convey("Then the series is labelled with the instance", func() {
				var found bool
				for _, f := range families {
					if f.GetName() != "osu_wrapped_oauth_logins_total" {
						continue
					}
					found = true
					So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "instance")
					So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "eu-1")
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		before, err := Snapshot()
		So(err, ShouldBeNil)

		Convey("When recording recap activity", func() {
			RecordRecapComputed(42, 0.3)
			RecordRecapFailure("upstream")
			RecordUpstreamRequest("me", 200, 12)
			RecordOAuthLogin()
			RecordOAuthCallbackFailure("invalid_state")
			UpdatePendingStates(3)
			RecordProxyRequest("ok")
			RecordProxyBytes(1024)
			RecordProxyBytes(-5)
			RecordHTTPRequest("/api/recap", "GET", "200")
			RecordHTTPRequestDuration("/api/recap", "GET", "200", 8)
			RecordErrorByEndpoint("/api/recap", "GET", "upstream")
			RecordRateLimited("/api/recap")
			UpdateSystemMemoryUsage(2048)
			UpdateSystemGoroutineCount(7)
			RecordSystemGCPauseTime(0.2)

			after, err := Snapshot()
			So(err, ShouldBeNil)

			Convey("Then counters move by the recorded amounts", func() {
				So(after["osu_wrapped_recaps_computed_total"]-before["osu_wrapped_recaps_computed_total"], ShouldEqual, 1.0)
				So(after["osu_wrapped_recap_failures_total"]-before["osu_wrapped_recap_failures_total"], ShouldEqual, 1.0)
				So(after["osu_wrapped_oauth_logins_total"]-before["osu_wrapped_oauth_logins_total"], ShouldEqual, 1.0)
				So(after["osu_wrapped_proxy_bytes_total"]-before["osu_wrapped_proxy_bytes_total"], ShouldEqual, 1024.0)
				So(after["osu_wrapped_rate_limited_total"]-before["osu_wrapped_rate_limited_total"], ShouldEqual, 1.0)
			})

			Convey("Then gauges hold the last value", func() {
				So(after["osu_wrapped_oauth_pending_states"], ShouldEqual, 3.0)
				So(after["osu_wrapped_system_memory_usage_bytes"], ShouldEqual, 2048.0)
				So(after["osu_wrapped_system_goroutine_count"], ShouldEqual, 7.0)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before, err := Snapshot()
		So(err, ShouldBeNil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordRecapComputed(1, 0.1)
				}
			}()
		}
		wg.Wait()

		after, err := Snapshot()
		So(err, ShouldBeNil)
		So(after["osu_wrapped_recaps_computed_total"]-before["osu_wrapped_recaps_computed_total"], ShouldEqual, 1000.0)
	})
}
