package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store    Pinger
	draining func() bool
	log      *slog.Logger
}

// create a new instance of the health handler; draining may be nil
func NewHealthHandler(store Pinger, draining func() bool, log *slog.Logger) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	if draining == nil {
		draining = func() bool { return false }
	}
	return &HealthHandler{store: store, draining: draining, log: log}
}

// GET /
func (h *HealthHandler) Root(ctx *gin.Context) {
	ctx.String(http.StatusOK, "Backend is running!")
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.draining() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}

	if h.store != nil {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.store.Ping(cctx); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "readiness check failed", "err", err)
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
