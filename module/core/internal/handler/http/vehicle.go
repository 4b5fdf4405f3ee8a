package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

type locationService interface {
	LastCoordinate(ctx context.Context, vehicleID string) (*domain.Coordinate, error)
	DeleteCoordinate(ctx context.Context, vehicleID string) error
}

type vehicleService interface {
	GetVehicles(ctx context.Context) ([]domain.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *domain.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

type locationResponse struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

type VehicleHandler struct {
	locationSvc locationService
	vehicleSvc  vehicleService
}

func NewVehicleHandler(locationSvc locationService, vehicleSvc vehicleService) *VehicleHandler {
	return &VehicleHandler{locationSvc: locationSvc, vehicleSvc: vehicleSvc}
}

func (h *VehicleHandler) Register(r *gin.RouterGroup) {
	r.GET("/vehicles", h.GetVehicles)
	r.GET("/vehicles/:vehicle_id", h.GetVehicle)
	r.PUT("/vehicles/:vehicle_id", h.UpdateVehicle)
	r.DELETE("/vehicles/:vehicle_id", h.DeleteVehicle)
	r.GET("/vehicles/:vehicle_id/location", h.GetLatestLocation)
	r.DELETE("/vehicles/:vehicle_id/location", h.DeleteLocation)
}

func (h *VehicleHandler) GetVehicles(c *gin.Context) {
	vehicles, err := h.vehicleSvc.GetVehicles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch vehicles"})
		return
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}

	c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	v, err := h.vehicleSvc.GetVehicle(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch vehicle"})
		return
	}

	c.JSON(http.StatusOK, v)
}

func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	var v domain.Vehicle
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if v.ID != c.Param("vehicle_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El id de la URL no coincide con el del cuerpo de la solicitud."})
		return
	}

	if err := h.vehicleSvc.UpdateVehicle(c.Request.Context(), &v); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update vehicle"})
		return
	}

	c.JSON(http.StatusOK, v)
}

// DeleteVehicle removes the vehicle from the database and the cache together.
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	if err := h.vehicleSvc.DeleteVehicle(c.Request.Context(), c.Param("vehicle_id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo eliminar el vehículo."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vehículo eliminado correctamente."})
}

func (h *VehicleHandler) GetLatestLocation(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	coord, err := h.locationSvc.LastCoordinate(c.Request.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(coord))
}

func (h *VehicleHandler) DeleteLocation(c *gin.Context) {
	err := h.locationSvc.DeleteCoordinate(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete location"})
		return
	}

	c.Status(http.StatusNoContent)
}

func toLocationResponse(c *domain.Coordinate) locationResponse {
	return locationResponse{
		VehicleID: c.VehicleID,
		Latitude:  c.Lat,
		Longitude: c.Lon,
		Timestamp: c.Timestamp.Unix(),
	}
}
