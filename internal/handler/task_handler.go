package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weddingtimeline/internal/service/task"
)

type TaskHandler struct {
	svc    *task.Service
	logger *zap.Logger
}

func NewTaskHandler(svc *task.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

// CreateTask POST /tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var in task.CreateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	in.ActorID = actorID(c)

	t, err := h.svc.CreateTask(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, "CreateTask", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// CreateFromMeetingNote POST /tasks/from-meeting-note
func (h *TaskHandler) CreateFromMeetingNote(c *gin.Context) {
	var in task.MeetingNoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	in.ActorID = actorID(c)

	t, err := h.svc.CreateFromMeetingNote(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, "CreateFromMeetingNote", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListTasks GET /tasks?client_id=&status=&category=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	clientID := c.Query("client_id")
	tasks, err := h.svc.ListByClient(c.Request.Context(), clientID, task.ListFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
	})
	if err != nil {
		writeError(c, h.logger, "ListTasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// GetTask GET /tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "GetTask", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus PATCH /tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	t, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, actorID(c))
	if err != nil {
		writeError(c, h.logger, "UpdateStatus", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTask DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		writeError(c, h.logger, "DeleteTask", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

// AddComment POST /tasks/:id/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	cm, err := h.svc.AddComment(c.Request.Context(), c.Param("id"), actorID(c), req.Content)
	if err != nil {
		writeError(c, h.logger, "AddComment", err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

// ListComments GET /tasks/:id/comments
func (h *TaskHandler) ListComments(c *gin.Context) {
	comments, err := h.svc.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "ListComments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// UpdateComment PATCH /tasks/:id/comments/:commentID
func (h *TaskHandler) UpdateComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	cm, err := h.svc.UpdateComment(c.Request.Context(), c.Param("id"), c.Param("commentID"), actorID(c), req.Content)
	if err != nil {
		writeError(c, h.logger, "UpdateComment", err)
		return
	}
	c.JSON(http.StatusOK, cm)
}

// DeleteComment DELETE /tasks/:id/comments/:commentID
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	if err := h.svc.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("commentID"), actorID(c)); err != nil {
		writeError(c, h.logger, "DeleteComment", err)
		return
	}
	c.Status(http.StatusNoContent)
}
