package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
)

// Registry 内存模式下的客户和会议纪要登记。
// Postgres 模式由上游服务写表，不挂这组路由。
type Registry interface {
	PutClient(cc timeline.ClientContext)
	PutMeetingNote(n timeline.MeetingNote)
}

type RegistryHandler struct {
	reg    Registry
	logger *zap.Logger
}

func NewRegistryHandler(reg Registry, logger *zap.Logger) *RegistryHandler {
	return &RegistryHandler{reg: reg, logger: logger}
}

type putClientRequest struct {
	TenantID  string    `json:"tenant_id" binding:"required"`
	EventDate time.Time `json:"event_date" binding:"required"`
}

// PutClient PUT /clients/:id
func (h *RegistryHandler) PutClient(c *gin.Context) {
	var req putClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	cc := timeline.ClientContext{
		ClientID:  c.Param("id"),
		TenantID:  req.TenantID,
		EventDate: req.EventDate.UTC(),
	}
	h.reg.PutClient(cc)
	h.logger.Info("Client registered",
		zap.String("client_id", cc.ClientID),
		zap.Time("event_date", cc.EventDate),
	)
	c.JSON(http.StatusOK, cc)
}

type putMeetingNoteRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	TenantID string `json:"tenant_id" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body"`
	Deleted  bool   `json:"deleted"`
}

// PutMeetingNote PUT /meeting-notes/:id
func (h *RegistryHandler) PutMeetingNote(c *gin.Context) {
	var req putMeetingNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	n := timeline.MeetingNote{
		ID:       c.Param("id"),
		ClientID: req.ClientID,
		TenantID: req.TenantID,
		Title:    req.Title,
		Body:     req.Body,
		Deleted:  req.Deleted,
	}
	h.reg.PutMeetingNote(n)
	c.JSON(http.StatusOK, n)
}
