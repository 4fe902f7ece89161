package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bikeshare-backend/internal/model"
	"bikeshare-backend/internal/query"
	"bikeshare-backend/internal/store"
)

// stationResponse adds presentation fields to a stored station.
type stationResponse struct {
	model.Station
	Occupancy       float64   `json:"occupancy"`
	LastUpdateUTC   time.Time `json:"lastUpdateUtc"`
	LastUpdateLocal time.Time `json:"lastUpdateLocal"`
}

func (h *Handler) present(s model.Station) stationResponse {
	utc := s.LastUpdateTime()
	return stationResponse{
		Station:         s,
		Occupancy:       s.Occupancy(),
		LastUpdateUTC:   utc,
		LastUpdateLocal: utc.In(h.loc),
	}
}

// ListStations handles GET /api/v1/stations.
func (h *Handler) ListStations(c *gin.Context) {
	params := query.Params{
		Status: c.Query("status"),
		Search: c.Query("q"),
		Sort:   c.Query("sort"),
		Dir:    c.Query("dir"),
	}

	var err error
	if raw := c.Query("minBikes"); raw != "" {
		minBikes, convErr := strconv.Atoi(raw)
		if convErr != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid minBikes"})
			return
		}
		params.MinBikes = &minBikes
	}
	if params.Page, err = intQuery(c, "page"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}
	if params.PageSize, err = intQuery(c, "pageSize"); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid pageSize"})
		return
	}

	stations, err := h.engine.ListStations(c.Request.Context(), params)
	if err != nil {
		writeError(c, err)
		return
	}

	response := make([]stationResponse, 0, len(stations))
	for _, s := range stations {
		response = append(response, h.present(s))
	}
	c.JSON(http.StatusOK, response)
}

// GetStation handles GET /api/v1/stations/:number.
func (h *Handler) GetStation(c *gin.Context) {
	number, ok := numberParam(c)
	if !ok {
		return
	}
	station, err := h.engine.GetStation(c.Request.Context(), number)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(station))
}

// GetSummary handles GET /api/v1/stations/summary.
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.engine.GetSummary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CreateStation handles POST /api/v1/stations.
func (h *Handler) CreateStation(c *gin.Context) {
	var req model.Station
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	created, err := h.engine.CreateStation(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/stations/%d", created.Number))
	c.JSON(http.StatusCreated, h.present(created))
}

// UpdateStation handles PUT /api/v1/stations/:number.
func (h *Handler) UpdateStation(c *gin.Context) {
	number, ok := numberParam(c)
	if !ok {
		return
	}
	var req model.Station
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.engine.UpdateStation(c.Request.Context(), number, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.present(updated))
}

// Health handles GET /healthz by summarizing the store.
func (h *Handler) Health(c *gin.Context) {
	summary, err := h.engine.GetSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"stations": summary.TotalStations,
		"cache":    h.engine.CacheStats(),
	})
}

func numberParam(c *gin.Context) (int, bool) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid station number"})
		return 0, false
	}
	return number, true
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "station not found"})
	case errors.Is(err, store.ErrDuplicateNumber):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Station number already exists."})
	case errors.Is(err, store.ErrConcurrentUpdate):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "station was modified concurrently, retry"})
	default:
		log.Printf("Station request failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
