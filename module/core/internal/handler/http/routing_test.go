package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/service"
)

type mockRoutingService struct {
	calculateFn func(ctx context.Context, req *domain.RouteRequest) (*domain.Route, error)
	calls       int
}

func (m *mockRoutingService) CalculateRoute(ctx context.Context, req *domain.RouteRequest) (*domain.Route, error) {
	m.calls++
	return m.calculateFn(ctx, req)
}

type mockAuditLogger struct {
	events []domain.AuditEvent
	logFn  func() error
}

func (m *mockAuditLogger) Log(_ context.Context, _ string, event domain.AuditEvent, _ string) error {
	m.events = append(m.events, event)
	if m.logFn != nil {
		return m.logFn()
	}
	return nil
}

func setupRoutingRouter(svc routingService, breaker circuitBreaker, audit auditLogger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewRoutingHandler(svc, breaker, audit, nil, 10*time.Second)
	h.Register(r.Group(""))
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return resp["error"]
}

const routeBody = `{"vehicle_id":"V1","origin":"A","destination":"B"}`

func TestCalculateRoute_Success(t *testing.T) {
	svc := &mockRoutingService{calculateFn: func(_ context.Context, req *domain.RouteRequest) (*domain.Route, error) {
		return &domain.Route{VehicleID: req.VehicleID, Path: []string{"A", "X", "B"}, Distance: 12.5}, nil
	}}
	breaker := service.NewCircuitBreaker(3, nil)
	breaker.RegisterFailure()
	audit := &mockAuditLogger{}

	w := postJSON(setupRoutingRouter(svc, breaker, audit), "/routing/calculate", routeBody)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var route domain.Route
	if err := json.Unmarshal(w.Body.Bytes(), &route); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if route.Distance != 12.5 || len(route.Path) != 3 {
		t.Errorf("unexpected route %+v", route)
	}
	if breaker.ConsecutiveFailures() != 0 {
		t.Errorf("expected breaker reset on success, got %d failures", breaker.ConsecutiveFailures())
	}
	if len(audit.events) != 1 || audit.events[0] != domain.AuditRouteCalculated {
		t.Errorf("expected RouteCalculated audit, got %v", audit.events)
	}
}

func TestCalculateRoute_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", fmt.Errorf("%w: %w", domain.ErrRoutingService, domain.ErrInvalidRoute), http.StatusBadRequest, "Origen y destino son obligatorios."},
		{"zone busy", domain.ErrZoneBusy, http.StatusInternalServerError, "Error interno: Zona ocupada, intente nuevamente más tarde."},
		{"internal", fmt.Errorf("%w: %w", domain.ErrRoutingService, errors.New("redis down")), http.StatusInternalServerError, "Error interno: Error en el servicio de ruteo.: redis down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockRoutingService{calculateFn: func(context.Context, *domain.RouteRequest) (*domain.Route, error) {
				return nil, tt.err
			}}
			breaker := service.NewCircuitBreaker(3, nil)

			w := postJSON(setupRoutingRouter(svc, breaker, &mockAuditLogger{}), "/routing/calculate", routeBody)

			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, w.Code)
			}
			if msg := errorBody(t, w); msg != tt.message {
				t.Errorf("expected %q, got %q", tt.message, msg)
			}
			if breaker.ConsecutiveFailures() != 1 {
				t.Errorf("expected 1 failure registered, got %d", breaker.ConsecutiveFailures())
			}
		})
	}
}

func TestCalculateRoute_ZoneBusyRetryAfter(t *testing.T) {
	svc := &mockRoutingService{calculateFn: func(context.Context, *domain.RouteRequest) (*domain.Route, error) {
		return nil, domain.ErrZoneBusy
	}}

	w := postJSON(setupRoutingRouter(svc, service.NewCircuitBreaker(3, nil), &mockAuditLogger{}), "/routing/calculate", routeBody)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "10" {
		t.Errorf("expected Retry-After 10, got %q", got)
	}
}

func TestCalculateRoute_CircuitOpens(t *testing.T) {
	svc := &mockRoutingService{calculateFn: func(context.Context, *domain.RouteRequest) (*domain.Route, error) {
		return nil, errors.New("boom")
	}}
	breaker := service.NewCircuitBreaker(3, nil)
	audit := &mockAuditLogger{}
	r := setupRoutingRouter(svc, breaker, audit)

	for i := 0; i < 3; i++ {
		if w := postJSON(r, "/routing/calculate", routeBody); w.Code != http.StatusInternalServerError {
			t.Fatalf("call %d: expected 500, got %d", i, w.Code)
		}
	}

	w := postJSON(r, "/routing/calculate", routeBody)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if msg := errorBody(t, w); msg != "Servicio de ruteo desactivado por fallos consecutivos." {
		t.Errorf("unexpected message %q", msg)
	}
	if svc.calls != 3 {
		t.Errorf("coordinator must not be called while open, got %d calls", svc.calls)
	}
	if len(audit.events) != 1 || audit.events[0] != domain.AuditCircuitOpen {
		t.Errorf("expected CircuitBreakerOpen audit, got %v", audit.events)
	}
}

func TestCalculateRoute_InvalidBody(t *testing.T) {
	svc := &mockRoutingService{}
	w := postJSON(setupRoutingRouter(svc, service.NewCircuitBreaker(3, nil), &mockAuditLogger{}), "/routing/calculate", `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if svc.calls != 0 {
		t.Errorf("expected no coordinator call, got %d", svc.calls)
	}
}

func TestResetCircuit(t *testing.T) {
	breaker := service.NewCircuitBreaker(1, nil)
	breaker.RegisterFailure()
	audit := &mockAuditLogger{logFn: func() error { return errors.New("db down") }}
	r := setupRoutingRouter(&mockRoutingService{}, breaker, audit)

	w := postJSON(r, "/routing/reset-circuit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if breaker.IsOpen() {
		t.Error("expected breaker closed")
	}
	if len(audit.events) != 1 || audit.events[0] != domain.AuditCircuitReset {
		t.Errorf("expected CircuitBreakerReset audit, got %v", audit.events)
	}

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/routing/circuit-status", nil)
	r.ServeHTTP(w, req)
	var st domain.CircuitStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.IsOpen || st.ConsecutiveFailures != 0 || st.FailureThreshold != 1 {
		t.Errorf("unexpected status %+v", st)
	}
}
