package handler

// Swagger type definitions for API documentation.

// HealthResponse is the body of the liveness and readiness probes.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"object storage not reachable"`
}
