package api

import (
	"log"
	"time"

	"bikeshare-backend/internal/engine"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine *engine.Engine
	loc    *time.Location
}

// NewHandler creates a new API handler. Timestamps are additionally
// rendered in loc; nil means UTC.
func NewHandler(e *engine.Engine, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		engine: e,
		loc:    loc,
	}
}

// LoadLocation resolves a timezone name, falling back to UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Warning: could not load timezone %q: %v. Using UTC.", name, err)
		return time.UTC
	}
	return loc
}
