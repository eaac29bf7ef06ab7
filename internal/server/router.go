package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/gps-tracker/internal/locations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const distanceUnit = "meters"

var (
	errMissingLocationService = errors.New("location service dependency required")
	errNonFiniteCoordinate    = errors.New("coordinates must be finite numbers")
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

type LocationService interface {
	Save(ctx context.Context, fix locations.Fix) (locations.Fix, error)
	FindByID(ctx context.Context, id int64) (locations.Fix, bool, error)
	History(ctx context.Context, userID int64) ([]locations.Fix, error)
	Latest(ctx context.Context, userID int64) (locations.Fix, bool, error)
	Range(ctx context.Context, userID int64, start, end time.Time) ([]locations.Fix, error)
	Delete(ctx context.Context, id int64) error
	Distance(lat1, lon1, lat2, lon2 float64) float64
}

type Dependencies struct {
	LocationService LocationService
	Logger          *zap.Logger
	// TimeZone interprets zone-less range timestamps. Defaults to time.Local.
	TimeZone *time.Location
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.LocationService == nil {
		return nil, errMissingLocationService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	zone := deps.TimeZone
	if zone == nil {
		zone = time.Local
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger(logger))

	handler := &httpHandler{
		locations: deps.LocationService,
		logger:    logger,
		zone:      zone,
	}

	api := router.Group("/api/location")
	api.POST("/submit", handler.handleSubmit)
	api.GET("/history/:userId", handler.handleHistory)
	api.GET("/latest/:userId", handler.handleLatest)
	api.GET("/range/:userId", handler.handleRange)
	api.GET("/distance", handler.handleDistance)
	api.GET("/:id", handler.handleGet)
	api.DELETE("/:id", handler.handleDelete)

	return router, nil
}

type httpHandler struct {
	locations LocationService
	logger    *zap.Logger
	zone      *time.Location
}

type submitRequestPayload struct {
	UserID    *int64   `json:"userId"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Accuracy  *float32 `json:"accuracy"`
	Speed     *float32 `json:"speed"`
	Direction *float32 `json:"direction"`
}

type userPathParams struct {
	UserID int64 `uri:"userId"`
}

type idPathParams struct {
	ID int64 `uri:"id"`
}

type rangeQueryParams struct {
	StartTime string `form:"startTime" binding:"required"`
	EndTime   string `form:"endTime" binding:"required"`
}

type distanceQueryParams struct {
	Lat1 *float64 `form:"lat1" binding:"required"`
	Lon1 *float64 `form:"lon1" binding:"required"`
	Lat2 *float64 `form:"lat2" binding:"required"`
	Lon2 *float64 `form:"lon2" binding:"required"`
}

type distancePayload struct {
	Distance float64 `json:"distance"`
	Unit     string  `json:"unit"`
}

func (h *httpHandler) handleSubmit(c *gin.Context) {
	const action = "save location"

	var request submitRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondFailure(c, action, err)
		return
	}

	fix := locations.Fix{
		UserID:    locations.DefaultUserID,
		Latitude:  *request.Latitude,
		Longitude: *request.Longitude,
		Accuracy:  request.Accuracy,
		Speed:     request.Speed,
		Direction: request.Direction,
	}
	if request.UserID != nil {
		fix.UserID = *request.UserID
	}

	saved, err := h.locations.Save(c.Request.Context(), fix)
	if err != nil {
		h.logger.Warn("location submit failed", zap.Int64("user_id", fix.UserID), zap.Error(err))
		respondFailure(c, action, err)
		return
	}
	respondOK(c, "location saved", saved)
}

func (h *httpHandler) handleHistory(c *gin.Context) {
	const action = "load location history"

	var params userPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		respondFailure(c, action, err)
		return
	}

	fixes, err := h.locations.History(c.Request.Context(), params.UserID)
	if err != nil {
		respondFailure(c, action, err)
		return
	}
	respondOK(c, "location history loaded", fixes)
}

func (h *httpHandler) handleLatest(c *gin.Context) {
	const action = "load latest location"

	var params userPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		respondFailure(c, action, err)
		return
	}

	fix, found, err := h.locations.Latest(c.Request.Context(), params.UserID)
	if err != nil {
		respondFailure(c, action, err)
		return
	}
	if !found {
		respondNotFound(c, "location not found")
		return
	}
	respondOK(c, "latest location loaded", fix)
}

func (h *httpHandler) handleRange(c *gin.Context) {
	const action = "load locations in time range"

	var params userPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		respondFailure(c, action, err)
		return
	}
	var query rangeQueryParams
	if err := c.ShouldBindQuery(&query); err != nil {
		respondFailure(c, action, err)
		return
	}

	start, err := parseTimestamp(query.StartTime, h.zone)
	if err != nil {
		respondFailure(c, action, err)
		return
	}
	end, err := parseTimestamp(query.EndTime, h.zone)
	if err != nil {
		respondFailure(c, action, err)
		return
	}

	fixes, err := h.locations.Range(c.Request.Context(), params.UserID, start, end)
	if err != nil {
		respondFailure(c, action, err)
		return
	}
	respondOK(c, "locations in time range loaded", fixes)
}

func (h *httpHandler) handleDistance(c *gin.Context) {
	const action = "calculate distance"

	var query distanceQueryParams
	if err := c.ShouldBindQuery(&query); err != nil {
		respondFailure(c, action, err)
		return
	}
	for _, value := range []float64{*query.Lat1, *query.Lon1, *query.Lat2, *query.Lon2} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			respondFailure(c, action, errNonFiniteCoordinate)
			return
		}
	}

	distance := h.locations.Distance(*query.Lat1, *query.Lon1, *query.Lat2, *query.Lon2)
	respondOK(c, "distance calculated", distancePayload{Distance: distance, Unit: distanceUnit})
}

func (h *httpHandler) handleGet(c *gin.Context) {
	const action = "load location"

	var params idPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		respondFailure(c, action, err)
		return
	}

	fix, found, err := h.locations.FindByID(c.Request.Context(), params.ID)
	if err != nil {
		respondFailure(c, action, err)
		return
	}
	if !found {
		respondNotFound(c, "location not found")
		return
	}
	respondOK(c, "location loaded", fix)
}

func (h *httpHandler) handleDelete(c *gin.Context) {
	const action = "delete location"

	var params idPathParams
	if err := c.ShouldBindUri(&params); err != nil {
		respondFailure(c, action, err)
		return
	}

	if err := h.locations.Delete(c.Request.Context(), params.ID); err != nil {
		h.logger.Warn("location delete failed", zap.Int64("location_id", params.ID), zap.Error(err))
		respondFailure(c, action, err)
		return
	}
	respondOK(c, "location deleted", nil)
}

// parseTimestamp accepts "YYYY-MM-DD HH:MM:SS[.fffffffff]" in the given zone or an RFC 3339 value.
func parseTimestamp(value string, zone *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, trimmed, zone); err == nil {
			return parsed, nil
		}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: expected YYYY-MM-DD HH:MM:SS", value)
}
