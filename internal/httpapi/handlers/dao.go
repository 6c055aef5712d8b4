package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/friendschat/chatroom/internal/common"
	"github.com/friendschat/chatroom/internal/dao"
)

func (h *Handler) CapTable(c *gin.Context) {
	var req sessionOnlyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	if _, ok := h.requireSession(c, req.SessionID); !ok {
		return
	}

	rows, err := h.Dao.CapTable(c.Request.Context())
	if err != nil {
		log.Printf("[CapTable] err=%v", err)
		common.Error(c, http.StatusInternalServerError, "failed to load cap table")
		return
	}
	common.Result(c, rows)
}

func (h *Handler) Ledger(c *gin.Context) {
	var req sessionOnlyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	if _, ok := h.requireSession(c, req.SessionID); !ok {
		return
	}

	entries, err := h.Dao.Ledger(c.Request.Context())
	if err != nil {
		log.Printf("[Ledger] err=%v", err)
		common.Error(c, http.StatusInternalServerError, "failed to load ledger")
		return
	}
	common.Result(c, entries)
}

type awardReq struct {
	SessionID string `json:"session_id"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

func (h *Handler) AwardPoints(c *gin.Context) {
	var req awardReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	if _, ok := h.requireSession(c, req.SessionID); !ok {
		return
	}

	txHash, block, err := h.Dao.Award(c.Request.Context(), req.To, req.Amount, req.Reason)
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			common.Error(c, http.StatusBadRequest, "recipient and a positive amount are required")
			return
		}
		log.Printf("[AwardPoints] to=%s err=%v", req.To, err)
		common.Error(c, http.StatusInternalServerError, "failed to record award")
		return
	}
	common.Result(c, gin.H{"status": "success", "tx_hash": txHash, "block": block})
}

// Summary runs the LLM call inline, matching the original synchronous
// endpoint.
func (h *Handler) Summary(c *gin.Context) {
	var req sessionOnlyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	if _, ok := h.requireSession(c, req.SessionID); !ok {
		return
	}

	summary, err := h.Dao.Summarize(c.Request.Context())
	if err != nil {
		log.Printf("[Summary] err=%v", err)
		common.Error(c, http.StatusBadGateway, "AI generation failed")
		return
	}
	common.Result(c, gin.H{"summary": summary})
}

// SummaryAsync queues a summary job for the worker and returns its id for
// polling. Honors an optional Idempotency-Key header.
func (h *Handler) SummaryAsync(c *gin.Context) {
	var req sessionOnlyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, ok := h.requireSession(c, req.SessionID)
	if !ok {
		return
	}

	if h.Rabbit == nil {
		common.Error(c, http.StatusNotFound, "async summaries are not enabled")
		return
	}

	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		common.Error(c, http.StatusBadRequest, "idempotency key too long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	jobID, err := common.NewULID()
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "internal error")
		return
	}

	job := &dao.SummaryJob{
		ID:             jobID,
		RequestedBy:    sess.LoginKey,
		IdempotencyKey: idempoKeyPtr,
		Status:         dao.JobQueued,
	}
	job, created, err := h.Dao.CreateJobOrGetExisting(c.Request.Context(), job)
	if err != nil {
		log.Printf("[SummaryAsync] create job login=%s err=%v", sess.LoginKey, err)
		common.Error(c, http.StatusInternalServerError, "internal error")
		return
	}

	if created {
		if err := h.Rabbit.PublishJob(c.Request.Context(), job.ID); err != nil {
			log.Printf("[SummaryAsync] publish job=%s err=%v", job.ID, err)
			common.Error(c, http.StatusInternalServerError, "enqueue failed")
			return
		}
	}

	common.Result(c, gin.H{"job_id": job.ID})
}

func (h *Handler) GetSummaryJob(c *gin.Context) {
	sess, ok := h.requireSession(c, c.Query("session_id"))
	if !ok {
		return
	}

	jobID := c.Param("job_id")
	if jobID == "" {
		common.Error(c, http.StatusBadRequest, "job_id required")
		return
	}

	job, err := h.Dao.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Error(c, http.StatusNotFound, "job not found")
			return
		}
		log.Printf("[GetSummaryJob] job=%s err=%v", jobID, err)
		common.Error(c, http.StatusInternalServerError, "internal error")
		return
	}
	if job.RequestedBy != sess.LoginKey {
		// hide existence
		common.Error(c, http.StatusNotFound, "job not found")
		return
	}

	common.Result(c, gin.H{
		"job": gin.H{
			"id":         job.ID,
			"status":     job.Status,
			"summary":    job.Summary,
			"error":      job.Error,
			"created_at": job.CreatedAt,
			"updated_at": job.UpdatedAt,
		},
	})
}
