package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"serviceconnect/internal/api"
	"serviceconnect/internal/email"
)

type SystemHandler struct {
	db    *sqlx.DB
	email *email.Service
}

func NewSystemHandler(db *sqlx.DB, emailService *email.Service) *SystemHandler {
	return &SystemHandler{db: db, email: emailService}
}

type QueueResponse struct {
	Pending int64 `json:"pending"`
}

// @Summary      Health check
// @Description  Reports ok when the database answers a ping.
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Pending notification emails
// @Tags         admin
// @Security     ApiKeyAuth
// @Produce      json
// @Success      200 {object} QueueResponse
// @Router       /admin/email/queue [get]
func (h *SystemHandler) EmailQueue(c *gin.Context) {
	if h.email == nil {
		c.JSON(http.StatusOK, QueueResponse{})
		return
	}
	c.JSON(http.StatusOK, QueueResponse{Pending: h.email.QueueLength(c.Request.Context())})
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
