package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/chanwatch/chanwatch/internal/ingest"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Telegram string `json:"telegram"`
	NATS     string `json:"nats,omitempty"`
}

// EntityResponse represents a monitored entity in API responses.
type EntityResponse struct {
	ID         uuid.UUID `json:"id"`
	Identifier string    `json:"identifier"`
	Title      string    `json:"title,omitempty"`
	Invite     bool      `json:"invite"`
	CreatedAt  time.Time `json:"created_at"`
}

// EntitiesListResponse wraps the monitored entity list.
type EntitiesListResponse struct {
	Entities []EntityResponse `json:"entities"`
	Total    int              `json:"total"`
}

// LastPassResponse reports the most recent synchronization pass.
type LastPassResponse struct {
	Ran  bool               `json:"ran"`
	Pass *ingest.PassResult `json:"pass,omitempty"`
}
