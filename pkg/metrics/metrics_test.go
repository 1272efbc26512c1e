package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "ingestor")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{1, 2, 3}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.partitions.WithLabelValues("tvnews", "done").Inc()

			Convey("Then the metric names should carry the namespace and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)

				var found bool
				for _, mf := range families {
					if mf.GetName() == "test_ns_test_sub_partitions_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel(), ShouldHaveLength, 3)
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

// counterValue sums the samples of a counter family in the process registry
// whose labels include want.
func counterValue(name string, want map[string]string) float64 {
	families, err := Gatherer().Gather()
	if err != nil {
		return -1
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			have := map[string]string{}
			for _, lp := range m.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if have[k] != v {
					continue metrics
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording bulk outcomes", func() {
			before := counterValue("ingestor_pipeline_documents_indexed_total", map[string]string{"index": "rec-index"})
			RecordBulk("rec-index", "success", 12.5)
			RecordIndexed("rec-index", 40)
			RecordFailed("rec-index", 2)

			Convey("Then the counters should move", func() {
				So(counterValue("ingestor_pipeline_documents_indexed_total", map[string]string{"index": "rec-index"}), ShouldEqual, before+40)
				So(counterValue("ingestor_pipeline_documents_failed_total", map[string]string{"index": "rec-index"}), ShouldBeGreaterThanOrEqualTo, 2)
				So(counterValue("ingestor_pipeline_bulk_requests_total", map[string]string{"index": "rec-index", "status": "success"}), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording mapping, reading and crawling", func() {
			So(func() {
				RecordDocumentMapped("news")
				RecordDocumentDropped("news", "stopword")
				RecordWindow("csv")
				RecordRowSkipped("csv")
				RecordPartition("events", "skipped")
				RecordFetch("events", 1024, 33)
			}, ShouldNotPanic)

			So(counterValue("ingestor_pipeline_documents_dropped_total", map[string]string{"kind": "news", "reason": "stopword"}), ShouldBeGreaterThanOrEqualTo, 1)
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a textfile path", t, func() {
		RecordPartition("incidents", "done")
		path := filepath.Join(t.TempDir(), "ingestor.prom")

		Convey("When writing the registry", func() {
			err := WriteTextfile(path)

			Convey("Then the file should contain the pipeline metrics", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "ingestor_pipeline_partitions_total")
			})
		})

		Convey("When the path is empty", func() {
			So(WriteTextfile(""), ShouldBeNil)
		})

		Convey("When the directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
			So(err, ShouldNotBeNil)
		})
	})
}
