package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/dealerhub/api/transport"
	"github.com/fastygo/dealerhub/internal/infrastructure/monitor"
	"github.com/fastygo/dealerhub/pkg/httpcontext"
)

// StatusReporter is satisfied by *monitor.Monitor.
type StatusReporter interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusReporter
}

func NewHealthHandler(mon StatusReporter, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Success 200 {object} transport.HealthResponse
// @Failure 503 {object} transport.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	services := map[string]bool{"postgresql": status.PostgreSQL}
	if status.RedisEnabled {
		services["redis"] = status.Redis
	}
	payload := transport.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Services:  services,
	}

	if status.Healthy() {
		h.respondJSON(ctx, http.StatusOK, payload)
		return
	}
	payload.Status = "degraded"
	h.respondJSON(ctx, http.StatusServiceUnavailable, payload)
}
