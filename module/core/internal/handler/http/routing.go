package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-routing/internal/logging"
	"github.com/nandanugg/fleet-routing/module/core/domain"
)

const (
	msgCircuitOpen  = "Servicio de ruteo desactivado por fallos consecutivos."
	msgCircuitReset = "Circuito reiniciado."
)

type routingService interface {
	CalculateRoute(ctx context.Context, req *domain.RouteRequest) (*domain.Route, error)
}

type circuitBreaker interface {
	IsOpen() bool
	RegisterFailure()
	Reset()
	Status() domain.CircuitStatus
}

type auditLogger interface {
	Log(ctx context.Context, vehicleID string, event domain.AuditEvent, details string) error
}

type RoutingHandler struct {
	routing    routingService
	breaker    circuitBreaker
	audit      auditLogger
	log        logging.Logger
	retryAfter time.Duration
}

// NewRoutingHandler gates routing behind breaker. retryAfter is sent as a
// Retry-After hint alongside the 500 for a busy zone.
func NewRoutingHandler(routing routingService, breaker circuitBreaker, audit auditLogger, log logging.Logger, retryAfter time.Duration) *RoutingHandler {
	if log == nil {
		log = logging.Noop()
	}
	return &RoutingHandler{
		routing:    routing,
		breaker:    breaker,
		audit:      audit,
		log:        log,
		retryAfter: retryAfter,
	}
}

func (h *RoutingHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/routing")
	g.POST("/calculate", h.CalculateRoute)
	g.POST("/reset-circuit", h.ResetCircuit)
	g.GET("/circuit-status", h.CircuitStatus)
}

func (h *RoutingHandler) CalculateRoute(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if h.breaker.IsOpen() {
		h.record(ctx, req.VehicleID, domain.AuditCircuitOpen, "Servicio de ruteo desactivado.")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgCircuitOpen})
		return
	}

	route, err := h.routing.CalculateRoute(ctx, &req)
	if err != nil {
		h.breaker.RegisterFailure()
		switch {
		case errors.Is(err, domain.ErrInvalidRoute):
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidRoute.Error()})
		case errors.Is(err, domain.ErrZoneBusy):
			if h.retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(h.retryAfter.Seconds())))
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno: " + domain.ErrZoneBusy.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno: " + err.Error()})
		}
		return
	}

	h.breaker.Reset()
	h.record(ctx, req.VehicleID, domain.AuditRouteCalculated, "Ruta calculada: "+strings.Join(route.Path, "->"))
	c.JSON(http.StatusOK, route)
}

func (h *RoutingHandler) ResetCircuit(c *gin.Context) {
	h.breaker.Reset()
	h.record(c.Request.Context(), "", domain.AuditCircuitReset, msgCircuitReset)
	c.JSON(http.StatusOK, gin.H{"message": msgCircuitReset})
}

func (h *RoutingHandler) CircuitStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.breaker.Status())
}

func (h *RoutingHandler) record(ctx context.Context, vehicleID string, event domain.AuditEvent, details string) {
	if err := h.audit.Log(ctx, vehicleID, event, details); err != nil {
		h.log.Warn(ctx, "audit log failed",
			logging.String("event", string(event)),
			logging.Err(err),
		)
	}
}
