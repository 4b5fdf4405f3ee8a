package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

const (
	msgInvalidCoordinateData = "Invalid GPS coordinate data."
	msgCoordinateStored      = "GPS coordinate stored successfully."
	msgCoordinateStoreFailed = "An error occurred while storing the GPS coordinate: "
)

type geolocationService interface {
	StoreCoordinate(ctx context.Context, c *domain.Coordinate) error
}

// coordinateRequest uses pointers so a missing field is told apart from zero.
type coordinateRequest struct {
	VehicleID string   `json:"vehicle_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timestamp *int64   `json:"timestamp"`
}

type GeolocationHandler struct {
	geolocation geolocationService
}

func NewGeolocationHandler(geolocation geolocationService) *GeolocationHandler {
	return &GeolocationHandler{geolocation: geolocation}
}

func (h *GeolocationHandler) Register(r *gin.RouterGroup) {
	r.POST("/geolocation/store-coordinate", h.StoreCoordinate)
}

func (h *GeolocationHandler) StoreCoordinate(c *gin.Context) {
	var body coordinateRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.VehicleID == "" || body.Latitude == nil || body.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidCoordinateData})
		return
	}

	coord := &domain.Coordinate{
		VehicleID: body.VehicleID,
		Lat:       *body.Latitude,
		Lon:       *body.Longitude,
	}
	if body.Timestamp != nil {
		coord.Timestamp = time.Unix(*body.Timestamp, 0).UTC()
	}

	if err := h.geolocation.StoreCoordinate(c.Request.Context(), coord); err != nil {
		if domain.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgCoordinateStoreFailed + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgCoordinateStored})
}
