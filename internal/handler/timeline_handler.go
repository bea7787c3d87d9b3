package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weddingtimeline/internal/service/activation"
	"weddingtimeline/internal/timeline"
)

// TimelineHandler 模板目录、分类和手动触发物化
type TimelineHandler struct {
	catalog    *timeline.Catalog
	classifier *timeline.Classifier
	activator  *activation.Activator
	logger     *zap.Logger
	now        func() time.Time
}

func NewTimelineHandler(catalog *timeline.Catalog, classifier *timeline.Classifier, activator *activation.Activator, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{
		catalog:    catalog,
		classifier: classifier,
		activator:  activator,
		logger:     logger,
		now:        time.Now,
	}
}

// ListCategories GET /categories
func (h *TimelineHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.classifier.Categories()})
}

type classifyRequest struct {
	Titles []string `json:"titles" binding:"required,min=1,max=500"`
}

type classifiedTitle struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Classify POST /classify
func (h *TimelineHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	out := make([]classifiedTitle, 0, len(req.Titles))
	for _, title := range req.Titles {
		out = append(out, classifiedTitle{Title: title, Category: h.classifier.Classify(title)})
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

type sectionView struct {
	Index     int                     `json:"index"`
	Section   string                  `json:"section"`
	Templates []timeline.TaskTemplate `json:"templates"`
}

// ListTemplates GET /templates[?section=]
func (h *TimelineHandler) ListTemplates(c *gin.Context) {
	filter := c.Query("section")
	sections := []sectionView{}
	for _, b := range h.catalog.Buckets() {
		if filter != "" && b.Section != filter {
			continue
		}
		sections = append(sections, sectionView{Index: b.Index, Section: b.Section, Templates: h.catalog.Section(b)})
	}
	if filter != "" && len(sections) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown section"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections, "count": h.catalog.Len()})
}

type materializeRequest struct {
	TenantID  string     `json:"tenant_id"`
	EventDate *time.Time `json:"event_date"`
}

// Materialize POST /clients/:id/materialize
// 可选 body 覆盖登记的婚期和租户
func (h *TimelineHandler) Materialize(c *gin.Context) {
	clientID := c.Param("id")
	var req materializeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
	}
	override := activation.ClientOverride{TenantID: req.TenantID, EventDate: req.EventDate}
	events, err := h.activator.MaterializeClientWith(c.Request.Context(), clientID, actorID(c), override, h.now())
	if err != nil && len(events) == 0 {
		writeError(c, h.logger, "Materialize", err)
		return
	}
	resp := gin.H{"client_id": clientID, "activated": events, "count": len(events)}
	if err != nil {
		// 部分模板失败，已创建的照常返回
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
