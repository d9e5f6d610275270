package postsocket

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// defaultMetrics collects the process-wide counters for this package's
// runtime, backed by github.com/VictoriaMetrics/metrics since this package
// has no single long-lived listener object to hang counters off of —
// connections, listeners, and the racer all contribute.
var defaultMetrics = metrics.NewSet()

var (
	metricCandidatesGathered = defaultMetrics.NewCounter("postsocket_candidates_gathered_total")
	metricAttemptsStarted    = defaultMetrics.NewCounter("postsocket_race_attempts_started_total")
	metricAttemptsSucceeded  = defaultMetrics.NewCounter("postsocket_race_attempts_succeeded_total")
	metricAttemptsFailed     = defaultMetrics.NewCounter("postsocket_race_attempts_failed_total")
	metricAttemptsCancelled  = defaultMetrics.NewCounter("postsocket_race_attempts_cancelled_total")

	metricConnectionsEstablished = defaultMetrics.NewCounter("postsocket_connections_established_total")
	metricConnectionsClosed      = defaultMetrics.NewCounter("postsocket_connections_closed_total")
	metricConnectionsAborted     = defaultMetrics.NewCounter("postsocket_connections_aborted_total")

	metricFramerErrors      = defaultMetrics.NewCounter("postsocket_framer_errors_total")
	metricMulticastSources  = defaultMetrics.NewCounter("postsocket_multicast_sources_total")
	metricRendezvousWinners = defaultMetrics.NewCounter("postsocket_rendezvous_winners_total")
)

// WritePrometheus writes this package's process metrics in Prometheus text
// exposition format.
func WritePrometheus(w io.Writer) {
	defaultMetrics.WritePrometheus(w)
}
