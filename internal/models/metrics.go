package models

import "time"

// SystemMetrics is a point-in-time summary of console activity.
type SystemMetrics struct {
	RequestsTotal             uint64    `json:"requestsTotal"`
	AverageRequestDurationMs  float64   `json:"averageRequestDurationMs"`
	UpstreamRequestsTotal     uint64    `json:"upstreamRequestsTotal"`
	UpstreamFailuresTotal     uint64    `json:"upstreamFailuresTotal"`
	AverageUpstreamDurationMs float64   `json:"averageUpstreamDurationMs"`
	ProjectionFallbacksTotal  uint64    `json:"projectionFallbacksTotal"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generatedAt"`
}
