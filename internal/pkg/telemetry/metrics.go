package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Generation quality
	MetricRouteAccuracy      = "generation.route_accuracy"
	MetricGenerationDuration = "generation.run_duration"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricRunsCompleted = "business.runs_completed"
	MetricGPXExports    = "business.gpx_exports"
)
