package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

type alertService interface {
	AddAlert(ctx context.Context, alert *domain.Alert) error
	GetAlerts(ctx context.Context) ([]domain.Alert, error)
}

type alertRequest struct {
	VehicleID string           `json:"vehicle_id"`
	Type      domain.AlertType `json:"type"`
	Message   string           `json:"message"`
}

type AlertHandler struct {
	alerts alertService
}

func NewAlertHandler(alerts alertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

func (h *AlertHandler) Register(r *gin.RouterGroup) {
	r.GET("/alerts", h.GetAlerts)
	r.POST("/alerts", h.AddAlert)
}

func (h *AlertHandler) AddAlert(c *gin.Context) {
	var body alertRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Type == "" || body.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert"})
		return
	}

	alert := &domain.Alert{VehicleID: body.VehicleID, Type: body.Type, Message: body.Message}
	if err := h.alerts.AddAlert(c.Request.Context(), alert); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alerta registrada."})
}

func (h *AlertHandler) GetAlerts(c *gin.Context) {
	alerts, err := h.alerts.GetAlerts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alerts"})
		return
	}

	c.JSON(http.StatusOK, alerts)
}
