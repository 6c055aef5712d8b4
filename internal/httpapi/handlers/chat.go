package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/friendschat/chatroom/internal/common"
)

type sessionOnlyReq struct {
	SessionID string `json:"session_id"`
}

type channelReq struct {
	SessionID string `json:"session_id"`
	ChannelID int64  `json:"channel_id"`
}

// ListChannels returns every channel the caller belongs to.
func (h *Handler) ListChannels(c *gin.Context) {
	var req sessionOnlyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}
	common.Result(c, h.Channels.ListFor(sess.LoginKey))
}

type createChannelReq struct {
	SessionID string   `json:"session_id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	IsPrivate bool     `json:"is_private"`
}

func (h *Handler) CreateChannel(c *gin.Context) {
	var req createChannelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}

	ch, err := h.Channels.Create(sess.LoginKey, req.Name, req.Members, req.IsPrivate)
	if err != nil {
		common.Error(c, http.StatusBadRequest, "channel name required")
		return
	}
	common.Result(c, gin.H{"id": ch.ID, "name": ch.Name})
}

func (h *Handler) DeleteChannel(c *gin.Context) {
	var req channelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}

	switch err := h.Channels.Delete(req.ChannelID, sess.LoginKey); {
	case err == nil:
		common.Result(c, gin.H{"status": "success"})
	case errors.Is(err, common.ErrForbidden):
		common.Error(c, http.StatusForbidden, "only the channel admin can delete it")
	case errors.Is(err, common.ErrNotFound):
		common.Error(c, http.StatusNotFound, "Channel not found")
	default:
		common.Error(c, http.StatusInternalServerError, "failed to delete channel")
	}
}

// JoinChat drops the caller into the first channel they belong to, which is
// the seeded default channel for every known user.
func (h *Handler) JoinChat(c *gin.Context) {
	var req sessionOnlyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}

	ch, err := h.Channels.FirstFor(sess.LoginKey)
	if err != nil {
		common.Error(c, http.StatusNotFound, "no channel membership")
		return
	}
	common.Result(c, gin.H{"channel_id": ch.ID, "name": ch.Name})
}

// ListMessages returns the recent window (newest first) plus who is typing.
func (h *Handler) ListMessages(c *gin.Context) {
	var req channelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}

	ch, err := h.Channels.Get(req.ChannelID)
	if err != nil {
		common.Error(c, http.StatusNotFound, "Channel not found")
		return
	}
	if !ch.IsMember(sess.LoginKey) {
		common.Error(c, http.StatusForbidden, "not a channel member")
		return
	}

	common.Result(c, gin.H{
		"messages": ch.Recent(0),
		"typing":   ch.ActiveTyping(time.Now()),
	})
}

type postMessageReq struct {
	SessionID string `json:"session_id"`
	ChannelID int64  `json:"channel_id"`
	Body      string `json:"body"`
}

func (h *Handler) PostMessage(c *gin.Context) {
	var req postMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		common.Error(c, http.StatusBadRequest, "message body required")
		return
	}

	ch, err := h.Channels.Get(req.ChannelID)
	if err != nil {
		common.Error(c, http.StatusNotFound, "Channel not found")
		return
	}
	if !ch.IsMember(sess.LoginKey) {
		common.Error(c, http.StatusForbidden, "not a channel member")
		return
	}

	msg := ch.Append(sess.DisplayName, req.Body, time.Now())
	common.Result(c, gin.H{"status": "success", "message_id": msg.ID})
}

type deleteMessageReq struct {
	SessionID string `json:"session_id"`
	ChannelID int64  `json:"channel_id"`
	MessageID int64  `json:"message_id"`
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	var req deleteMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}

	ch, err := h.Channels.Get(req.ChannelID)
	if err != nil {
		common.Error(c, http.StatusNotFound, "Channel not found")
		return
	}
	if !ch.IsMember(sess.LoginKey) {
		common.Error(c, http.StatusForbidden, "not a channel member")
		return
	}

	switch err := ch.DeleteMessage(req.MessageID, sess.LoginKey, sess.DisplayName); {
	case err == nil:
		common.Result(c, gin.H{"status": "success"})
	case errors.Is(err, common.ErrForbidden):
		common.Error(c, http.StatusForbidden, "only the author or the channel admin can delete a message")
	case errors.Is(err, common.ErrNotFound):
		common.Error(c, http.StatusNotFound, "Message not found")
	default:
		common.Error(c, http.StatusInternalServerError, "failed to delete message")
	}
}

// Presence records a heartbeat and returns the online set plus the channel's
// meeting, if any. Presence itself is global; the meeting slot is only shown
// to channel members.
func (h *Handler) PresenceHandler(c *gin.Context) {
	var req channelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}

	online := h.Presence.Touch(sess.DisplayName, time.Now())

	var meetingInfo any
	if ch, err := h.Channels.Get(req.ChannelID); err == nil && ch.IsMember(sess.LoginKey) {
		if rec, found := h.Meetings.Get(req.ChannelID); found {
			meetingInfo = rec
		}
	}

	common.Result(c, gin.H{
		"status":  "success",
		"online":  online,
		"meeting": meetingInfo,
	})
}

type typingReq struct {
	SessionID string `json:"session_id"`
	ChannelID int64  `json:"channel_id"`
	IsTyping  bool   `json:"is_typing"`
}

func (h *Handler) SetTyping(c *gin.Context) {
	var req typingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}

	ch, err := h.Channels.Get(req.ChannelID)
	if err != nil {
		common.Error(c, http.StatusNotFound, "Channel not found")
		return
	}
	if !ch.IsMember(sess.LoginKey) {
		common.Error(c, http.StatusForbidden, "not a channel member")
		return
	}

	ch.SetTyping(sess.DisplayName, req.IsTyping, time.Now())
	common.Result(c, gin.H{"status": "success"})
}

type startMeetingReq struct {
	SessionID string `json:"session_id"`
	ChannelID int64  `json:"channel_id"`
	URL       string `json:"url"`
}

func (h *Handler) StartMeeting(c *gin.Context) {
	var req startMeetingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		common.Error(c, http.StatusBadRequest, "meeting url required")
		return
	}

	ch, err := h.Channels.Get(req.ChannelID)
	if err != nil {
		common.Error(c, http.StatusNotFound, "Channel not found")
		return
	}
	if !ch.IsMember(sess.LoginKey) {
		common.Error(c, http.StatusForbidden, "not a channel member")
		return
	}

	h.Meetings.Start(req.ChannelID, req.URL, sess.DisplayName, time.Now())
	common.Result(c, gin.H{"status": "success"})
}
