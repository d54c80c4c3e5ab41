package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Road database dependency
	MetricRoadLookupLatency = "roadapi.lookup_latency"
	MetricRoadLookupErrors  = "roadapi.lookup_errors"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricPlansSaved     = "business.plans_saved"
	MetricRoadSelections = "business.roads_selected"
)
