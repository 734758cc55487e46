package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// ValidationMetrics is returned by GET /v1/metrics/validations.
type ValidationMetrics struct {
	TotalRequests    int64   `json:"totalRequests"`
	ValidCards       int64   `json:"validCards"`
	InvalidCards     int64   `json:"invalidCards"`
	ClientErrors     int64   `json:"clientErrors"`
	GatewayErrors    int64   `json:"gatewayErrors"`
	UnexpectedErrors int64   `json:"unexpectedErrors"`
	ErrorRate        float64 `json:"errorRate"`
	Period           string  `json:"period"`
}
