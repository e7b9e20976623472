package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	exerciseUpsertGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymlog",
		Subsystem: "identity",
		Name:      "last_exercise_upsert_timestamp_seconds",
		Help:      "Unix timestamp of the most recent canonical exercise upsert.",
	})

	sessionUpsertGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymlog",
		Subsystem: "sessions",
		Name:      "last_session_upsert_timestamp_seconds",
		Help:      "Unix timestamp of the most recent session upsert.",
	})

	importedSessionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymlog",
		Subsystem: "importer",
		Name:      "sessions_imported_total",
		Help:      "Number of sessions written by batch imports.",
	})

	importErrorsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymlog",
		Subsystem: "importer",
		Name:      "import_errors_total",
		Help:      "Number of failed batch import runs.",
	})
)

func init() {
	prometheus.MustRegister(exerciseUpsertGauge, sessionUpsertGauge, importedSessionsCounter, importErrorsCounter)
}

// RecordExerciseUpsert updates the identity upsert watermark.
func RecordExerciseUpsert(ts time.Time) {
	if ts.IsZero() {
		return
	}
	exerciseUpsertGauge.Set(float64(ts.Unix()))
}

// RecordSessionUpsert updates the session upsert watermark.
func RecordSessionUpsert(ts time.Time) {
	if ts.IsZero() {
		return
	}
	sessionUpsertGauge.Set(float64(ts.Unix()))
}

// RecordSessionsImported counts sessions written by a batch import.
func RecordSessionsImported(n int) {
	if n <= 0 {
		return
	}
	importedSessionsCounter.Add(float64(n))
}

// RecordImportError counts a failed import run.
func RecordImportError() {
	importErrorsCounter.Inc()
}
