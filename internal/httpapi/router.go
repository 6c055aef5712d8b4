package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/friendschat/chatroom/internal/common"
	"github.com/friendschat/chatroom/internal/httpapi/handlers"
	"github.com/friendschat/chatroom/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoMethod(func(c *gin.Context) {
		common.Error(c, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NoRoute(noRoute(h.Cfg.FrontendDir))

	r.GET("/ping", h.Ping)

	api := r.Group("/api")

	api.POST("/auth/login", h.Login)
	api.POST("/auth/mfa_request", h.RequestMFACode)
	api.POST("/auth/mfa_verify", h.VerifyMFA)

	api.POST("/chat/join", h.JoinChat)
	api.POST("/chat/channels", h.ListChannels)
	api.POST("/chat/create", h.CreateChannel)
	api.POST("/chat/delete", h.DeleteChannel)
	api.POST("/chat/messages", h.ListMessages)
	api.POST("/chat/post", h.PostMessage)
	api.POST("/chat/message/delete", h.DeleteMessage)
	api.POST("/chat/presence", h.PresenceHandler)
	api.POST("/chat/typing", h.SetTyping)
	api.POST("/chat/meeting/start", h.StartMeeting)

	api.POST("/dao/cap_table", h.CapTable)
	api.POST("/dao/ledger", h.Ledger)
	api.POST("/dao/award", h.AwardPoints)
	api.POST("/dao/summary", h.Summary)
	api.POST("/dao/summary/async", h.SummaryAsync)
	api.GET("/dao/jobs/:job_id", h.GetSummaryJob)

	return r
}

// noRoute serves the built frontend when configured. Unknown paths fall back
// to index.html so client-side routing survives a refresh; /api paths still
// get a JSON 404.
func noRoute(frontendDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || frontendDir == "" {
			common.Error(c, http.StatusNotFound, "route not found")
			return
		}
		path := filepath.Join(frontendDir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			c.File(path)
			return
		}
		c.File(filepath.Join(frontendDir, "index.html"))
	}
}
