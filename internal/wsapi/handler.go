package wsapi

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"contactgame/internal/engine"
	"contactgame/internal/logger"
	"contactgame/internal/repository"
	"contactgame/internal/session"
	"contactgame/internal/store"
)

// Handler holds the dependencies a connecting websocket needs.
type Handler struct {
	registry *session.Registry
	store    store.Store
	repo     *repository.Repository
	cfg      engine.Config
	tokens   *TokenIssuer
}

func NewHandler(registry *session.Registry, st store.Store, repo *repository.Repository, cfg engine.Config, tokens *TokenIssuer) *Handler {
	return &Handler{registry: registry, store: st, repo: repo, cfg: cfg, tokens: tokens}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		allowed := os.Getenv("ALLOWED_ORIGIN")
		if allowed == "" {
			return true
		}
		return r.Header.Get("Origin") == allowed
	},
}

// HandleWS upgrades the connection, resolves the player's username
// from the bearer token, and hands the connection off to a new
// session.Hub.
func (h *Handler) HandleWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		username, err := h.tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("wsapi: upgrade failed", "err", err)
			return
		}

		hub, err := session.New(conn, h.registry, h.store, h.repo, h.cfg, username)
		if err != nil {
			logger.Error("wsapi: failed to construct session", "user", username, "err", err)
			conn.Close()
			return
		}
		go hub.Run()
	}
}
