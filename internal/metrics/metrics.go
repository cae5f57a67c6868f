package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It includes counters for bot activity, conflict handling and sessions,
// and histograms for database, backend and export durations.
type Metrics struct {
	CommandReceived        *prometheus.CounterVec   // Counter for received commands
	SentMessages           *prometheus.CounterVec   // Counter for sent messages
	NewSessions            prometheus.Counter       // Counter for successful logins
	DBQueryDuration        *prometheus.HistogramVec // Histogram for database query durations
	BackendRequestDuration *prometheus.HistogramVec // Histogram for backend API call durations
	Conflicts              *prometheus.CounterVec   // Counter for classified creation conflicts
	Resolutions            *prometheus.CounterVec   // Counter for conflict resolution attempts
	ExportGeneration       prometheus.Histogram     // Histogram for excel export durations
}

// NewMetrics creates a new Metrics instance with the provided Prometheus Registerer.
//
// Parameters:
//   - reg: A Prometheus Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_commands_received_total",
			Help: "Total number of used commands",
		}, []string{"command"}), // command: start, login, employees, create_employee
		SentMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_messages_sent_total",
			Help: "Output bot activity",
		}, []string{"type"}), // type: text, edit, respond, file, error
		NewSessions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "registrar_new_sessions_total",
			Help: "Total number of successful administrator logins",
		}),
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'get_session', 'save_session'
		BackendRequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_backend_request_duration_seconds",
			Help:    "Duration of employee backend API calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}), // status: http status code or 'error'
		Conflicts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_creation_conflicts_total",
			Help: "Employee creation attempts rejected with a conflict",
		}, []string{"scenario"}), // scenario: USER_EXISTS, EMPLOYEE_EXISTS, UNKNOWN
		Resolutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_conflict_resolutions_total",
			Help: "Conflict resolution attempts",
		}, []string{"action", "result"}), // action: confirm_existing, take_phone; result: success, failure
		ExportGeneration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "registrar_export_generation_duration_seconds",
			Help: "Duration of employee excel export generation.",
		}),
	}
}
