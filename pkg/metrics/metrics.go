package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const LinesEmittedMetricName = "tailscope_lines_emitted_total"

var LinesEmitted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: LinesEmittedMetricName,
		Help: "Total complete lines emitted to the output sink.",
	},
	[]string{"source"},
)

const FileChangesMetricName = "tailscope_file_changes_total"

var FileChanges = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: FileChangesMetricName,
		Help: "Total detected file changes, by kind.",
	},
	[]string{"source", "kind"},
)

const StampsWrittenMetricName = "tailscope_stamps_written_total"

var StampsWritten = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: StampsWrittenMetricName,
		Help: "Total timestamps appended to the target file.",
	},
	[]string{"target"},
)

//nolint:gochecknoinits
func init() {
	prometheus.MustRegister(LinesEmitted, FileChanges, StampsWritten)
}
