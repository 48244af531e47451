package wsapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires the websocket upgrade and ops endpoints
// (/healthz, /metrics) onto r.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/ws", h.HandleWS())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
