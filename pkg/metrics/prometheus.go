package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline stage metrics
	StageExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_stage_executions_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"}, // status: success|error
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prism_stage_duration_seconds",
			Help:    "Pipeline stage execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"stage"},
	)

	// Run metrics
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"trigger", "status"}, // trigger: manual|scheduled|api
	)

	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prism_run_duration_seconds",
			Help:    "Full pipeline run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"trigger"},
	)

	RunLastCompleted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prism_run_last_completed_timestamp",
			Help: "Unix timestamp of the last completed run",
		},
	)

	// Market data fetch metrics
	FetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_fetch_requests_total",
			Help: "Total number of market data fetch requests",
		},
		[]string{"source", "status"},
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prism_fetch_duration_seconds",
			Help:    "Market data fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"source"},
	)

	BarsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_bars_ingested_total",
			Help: "Total number of daily bars ingested",
		},
		[]string{"source"},
	)

	RowsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_rows_rejected_total",
			Help: "Total number of input rows rejected during ingest",
		},
		[]string{"source"},
	)

	// Dataset gauges, refreshed after each run
	TickersTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prism_tickers_tracked",
			Help: "Number of tickers in the current dataset",
		},
	)

	GraphEdges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prism_graph_edges",
			Help: "Number of edges in the last similarity graph",
		},
	)

	CommunitiesDetected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prism_communities_detected",
			Help: "Number of communities in the last partition",
		},
	)

	// HTTP API metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prism_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "path"},
	)

	// WebSocket metrics
	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prism_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	// Scheduler metrics
	JobExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_job_executions_total",
			Help: "Total number of scheduled job executions",
		},
		[]string{"job", "status"},
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prism_job_duration_seconds",
			Help:    "Scheduled job duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"job"},
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prism_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Pipeline metrics
	prometheus.MustRegister(StageExecutions)
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(RunLastCompleted)

	// Fetch metrics
	prometheus.MustRegister(FetchRequests)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(BarsIngested)
	prometheus.MustRegister(RowsRejected)

	// Dataset gauges
	prometheus.MustRegister(TickersTracked)
	prometheus.MustRegister(GraphEdges)
	prometheus.MustRegister(CommunitiesDetected)

	// HTTP metrics
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
	prometheus.MustRegister(WebSocketConnections)

	// Scheduler metrics
	prometheus.MustRegister(JobExecutions)
	prometheus.MustRegister(JobDuration)

	// Database metrics
	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(DBQueryDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordStage records a pipeline stage execution
func RecordStage(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	StageExecutions.WithLabelValues(stage, status).Inc()
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRun records a full pipeline run
func RecordRun(trigger string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	RunsTotal.WithLabelValues(trigger, status).Inc()
	RunDuration.WithLabelValues(trigger).Observe(duration.Seconds())

	if err == nil {
		RunLastCompleted.SetToCurrentTime()
	}
}

// RecordFetch records a market data fetch
func RecordFetch(source string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	FetchRequests.WithLabelValues(source, status).Inc()
	FetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordIngest records accepted and rejected rows for a source
func RecordIngest(source string, accepted, rejected int) {
	if accepted > 0 {
		BarsIngested.WithLabelValues(source).Add(float64(accepted))
	}
	if rejected > 0 {
		RowsRejected.WithLabelValues(source).Add(float64(rejected))
	}
}

// RecordHTTPRequest records an inbound HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, path, status).Inc()
	HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordJob records a scheduled job execution
func RecordJob(job string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	JobExecutions.WithLabelValues(job, status).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordDBQuery records a database query
func RecordDBQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	DBQueries.WithLabelValues(operation, status).Inc()
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDatasetGauges refreshes the dataset gauges after a run
func SetDatasetGauges(tickers, edges, communities int) {
	TickersTracked.Set(float64(tickers))
	GraphEdges.Set(float64(edges))
	CommunitiesDetected.Set(float64(communities))
}
