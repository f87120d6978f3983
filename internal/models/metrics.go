package models

import "time"

// GatewayMetrics is a lightweight snapshot of gateway activity.
type GatewayMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	BackendFetches           uint64    `json:"backendFetches"`
	AverageBackendFetchMs    float64   `json:"averageBackendFetchMs"`
	ExportsTotal             uint64    `json:"exportsTotal"`
	ExportFailures           uint64    `json:"exportFailures"`
	LogoCacheHitRatio        float64   `json:"logoCacheHitRatio"`
	ActiveSessions           int64     `json:"activeSessions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
