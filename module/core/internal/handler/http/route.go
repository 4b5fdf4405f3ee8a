package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/service"
)

type routeLog interface {
	Record(ctx context.Context, route *domain.Route) error
	GetRoutes(ctx context.Context) ([]domain.Route, error)
	GetHistory(ctx context.Context, query *domain.RouteQuery) ([]domain.Route, error)
}

type RouteHandler struct {
	routes routeLog
	now    func() time.Time
}

func NewRouteHandler(routes routeLog) *RouteHandler {
	return &RouteHandler{routes: routes, now: time.Now}
}

func (h *RouteHandler) Register(r *gin.RouterGroup) {
	r.GET("/routes", h.GetRoutes)
	r.POST("/routes", h.AddRoute)
}

func (h *RouteHandler) AddRoute(c *gin.Context) {
	var route domain.Route
	if err := c.ShouldBindJSON(&route); err != nil || route.VehicleID == "" || len(route.Path) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid route"})
		return
	}
	if route.CalculatedAt.IsZero() {
		route.CalculatedAt = h.now().UTC()
	}

	if err := h.routes.Record(c.Request.Context(), &route); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record route"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ruta registrada."})
}

// GetRoutes lists the whole route log, or one vehicle's routes between the
// from and to unix timestamps when vehicle_id is given.
func (h *RouteHandler) GetRoutes(c *gin.Context) {
	vehicleID := c.Query("vehicle_id")
	if vehicleID == "" {
		routes, err := h.routes.GetRoutes(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch routes"})
			return
		}
		c.JSON(http.StatusOK, routes)
		return
	}

	from, err := parseUnix(c.Query("from"), time.Unix(0, 0))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from parameter"})
		return
	}
	to, err := parseUnix(c.Query("to"), h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to parameter"})
		return
	}

	query := &domain.RouteQuery{VehicleID: vehicleID, From: from, To: to}
	routes, err := h.routes.GetHistory(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, routes)
}

func parseUnix(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback.UTC(), nil
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}
