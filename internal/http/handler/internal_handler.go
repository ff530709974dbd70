package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/potensiadev/onesns.ai-sub001/internal/service/refresh"
)

// Sweeper triggers refresh sweeps.
type Sweeper interface {
	Run(ctx context.Context) (*refresh.Report, error)
}

// InternalHandler serves operator endpoints guarded by the internal token.
type InternalHandler struct {
	Sweeper Sweeper
	Logger  *zap.Logger
}

// NewInternalHandler constructs the internal handler.
func NewInternalHandler(sweeper Sweeper, logger *zap.Logger) *InternalHandler {
	return &InternalHandler{Sweeper: sweeper, Logger: logger}
}

// RefreshSweep triggers one sweep and reports per-account outcomes. When
// another sweep already holds the lock the trigger reports skipped
// instead of failing.
func (h *InternalHandler) RefreshSweep(c *gin.Context) {
	report, err := h.Sweeper.Run(c.Request.Context())
	if err != nil {
		h.log().Error("manual refresh sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"skipped":    report.Skipped,
		"started_at": report.StartedAt,
		"examined":   report.Examined,
		"refreshed":  report.Refreshed,
		"failed":     report.Failed,
		"results":    report.Results,
	})
}

func (h *InternalHandler) log() *zap.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}
