package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/friendschat/chatroom/internal/auth"
	"github.com/friendschat/chatroom/internal/chat"
	"github.com/friendschat/chatroom/internal/common"
	"github.com/friendschat/chatroom/internal/config"
	"github.com/friendschat/chatroom/internal/dao"
	"github.com/friendschat/chatroom/internal/meeting"
	"github.com/friendschat/chatroom/internal/presence"
	"github.com/friendschat/chatroom/internal/session"
	"github.com/friendschat/chatroom/internal/store/redisstore"
	"github.com/friendschat/chatroom/internal/users"
)

// JobPublisher enqueues async summary jobs. Nil disables the async path.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Handler struct {
	Cfg      config.Config
	Users    *users.Directory
	Sessions *session.Store
	Channels *chat.Store
	Presence *presence.Tracker
	Meetings *meeting.Registry
	Verifier auth.Verifier
	Codes    *redisstore.Store // only set for MFA_MODE=otp
	Dao      *dao.Service
	Rabbit   JobPublisher
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireSession resolves the body-carried token and enforces the MFA gate.
// On failure it has already written the 401 response.
func (h *Handler) requireSession(c *gin.Context, token string) (session.Session, bool) {
	if token == "" {
		common.Error(c, http.StatusUnauthorized, "Invalid session")
		return session.Session{}, false
	}
	sess, err := h.Sessions.Resolve(token)
	if err != nil {
		common.Error(c, http.StatusUnauthorized, "Invalid session")
		return session.Session{}, false
	}
	if !sess.MFAVerified {
		common.Error(c, http.StatusUnauthorized, "MFA not verified")
		return session.Session{}, false
	}
	return sess, true
}
