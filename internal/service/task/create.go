package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
	"weddingtimeline/pkg/logger"
	"weddingtimeline/pkg/metrics"
)

// CreateFromTemplate 为客户物化一个模板。
// 返回 created=false 表示该客户已经有这个模板的任务，此时实例为 nil。
func (s *Service) CreateFromTemplate(ctx context.Context, tpl timeline.TaskTemplate, cc timeline.ClientContext) (*timeline.TaskInstance, bool, error) {
	const op = "task.create_from_template"
	if tpl.Key == "" {
		return nil, false, timeline.Validationf(op, "template has no key")
	}
	if cc.ClientID == "" {
		return nil, false, timeline.Validationf(op, "client_id is required")
	}

	assigneeType := timeline.AssigneeFor(tpl.Owner)
	assigneeID := cc.ClientID
	if assigneeType == timeline.AssigneeTenant {
		assigneeID = cc.TenantID
	}
	creator := cc.ActorID
	if creator == "" {
		creator = SystemActor
	}

	now := s.clock()
	key := tpl.Key
	t := &timeline.TaskInstance{
		ID:              s.newID(),
		ClientID:        cc.ClientID,
		TenantID:        cc.TenantID,
		TemplateKey:     &key,
		Title:           tpl.Title,
		DueDate:         s.dueDate(tpl.Section, cc.EventDate),
		Priority:        timeline.PriorityFromImportance(tpl.Importance),
		Status:          timeline.StatusTodo,
		AssigneeType:    assigneeType,
		AssigneeID:      assigneeID,
		CreatedByUserID: creator,
		Source:          timeline.SourceManual,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := t.Validate(); err != nil {
		return nil, false, err
	}

	created, err := s.store.InsertTask(ctx, t)
	if err != nil {
		return nil, false, err
	}
	if !created {
		return nil, false, nil
	}
	metrics.IncrementTaskCreated("template")
	logger.WithTrace(ctx, s.logger).Info("Task materialized from template",
		zap.String("task_id", t.ID),
		zap.String("client_id", t.ClientID),
		zap.String("template_key", key),
	)
	return t, true, nil
}

// dueDate 分段截止日期；没有婚期或分段未知时为空
func (s *Service) dueDate(section string, eventDate time.Time) *time.Time {
	if eventDate.IsZero() || s.catalog == nil {
		return nil
	}
	b, ok := s.catalog.BucketOf(section)
	if !ok {
		return nil
	}
	w, err := s.schedule.Window(b, eventDate)
	if err != nil {
		return nil
	}
	due := w.Due.UTC()
	return &due
}

// MeetingNoteInput 从会议纪要创建任务的参数。
// AssigneeType 为空时指派给租户；AssigneeID 为空时取纪要所属的租户或客户。
//
// RequestID 非空时任务 ID 由它确定性生成，同一请求重复投递只创建一个任务。
type MeetingNoteInput struct {
	MeetingNoteID string     `json:"meeting_note_id"`
	RequestID     string     `json:"request_id"`
	ActorID       string     `json:"-"`
	AssigneeType  string     `json:"assignee_type"`
	AssigneeID    string     `json:"assignee_id"`
	Priority      string     `json:"priority"`
	DueDate       *time.Time `json:"due_date"`
}

func (s *Service) CreateFromMeetingNote(ctx context.Context, in MeetingNoteInput) (*timeline.TaskInstance, error) {
	const op = "task.create_from_meeting_note"
	noteID := strings.TrimSpace(in.MeetingNoteID)
	if noteID == "" {
		return nil, timeline.Validationf(op, "meeting_note_id is required")
	}
	if in.ActorID == "" {
		return nil, timeline.Validationf(op, "actor is required")
	}

	note, err := s.notes.GetMeetingNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.Deleted {
		return nil, timeline.Validationf(op, "meeting note %s has been deleted", noteID)
	}

	assigneeType := timeline.AssigneeTenant
	if in.AssigneeType != "" {
		if assigneeType, err = timeline.ParseAssigneeType(in.AssigneeType); err != nil {
			return nil, err
		}
	}
	assigneeID := in.AssigneeID
	if assigneeID == "" {
		assigneeID = note.TenantID
		if assigneeType == timeline.AssigneeClient {
			assigneeID = note.ClientID
		}
	}
	priority := timeline.PriorityMedium
	if in.Priority != "" {
		if priority, err = timeline.ParsePriority(in.Priority); err != nil {
			return nil, err
		}
	}

	taskID := s.newID()
	if in.RequestID != "" {
		taskID = requestTaskID(noteID, in.RequestID)
		if existing, err := s.store.GetTask(ctx, taskID); err == nil {
			logger.WithTrace(ctx, s.logger).Info("Meeting note request already handled",
				zap.String("task_id", taskID),
				zap.String("request_id", in.RequestID),
			)
			return existing, nil
		} else if !errors.Is(err, timeline.ErrNotFound) {
			return nil, err
		}
	}

	now := s.clock()
	id := noteID
	t := &timeline.TaskInstance{
		ID:              taskID,
		ClientID:        note.ClientID,
		TenantID:        note.TenantID,
		Title:           strings.TrimSpace(note.Title),
		Description:     note.Body,
		DueDate:         utcPtr(in.DueDate),
		Priority:        priority,
		Status:          timeline.StatusTodo,
		AssigneeType:    assigneeType,
		AssigneeID:      assigneeID,
		CreatedByUserID: in.ActorID,
		Source:          timeline.SourceMeetingNote,
		MeetingNoteID:   &id,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.InsertTask(ctx, t); err != nil {
		if in.RequestID != "" && errors.Is(err, timeline.ErrConflict) {
			// 并发重复投递，另一方已经写入
			return s.store.GetTask(ctx, taskID)
		}
		return nil, err
	}
	metrics.IncrementTaskCreated("meeting_note")
	logger.WithTrace(ctx, s.logger).Info("Task created from meeting note",
		zap.String("task_id", t.ID),
		zap.String("meeting_note_id", noteID),
		zap.String("client_id", t.ClientID),
	)
	return t, nil
}

// meetingNoteRequestNS 由请求 ID 派生任务 ID 的命名空间
var meetingNoteRequestNS = uuid.MustParse("6f1c2a4e-3b5d-4e8f-9a7c-2d4b6e8f0a1c")

func requestTaskID(noteID, requestID string) string {
	return uuid.NewSHA1(meetingNoteRequestNS, []byte(noteID+"\x00"+requestID)).String()
}

// CreateTaskInput 手动创建任务
type CreateTaskInput struct {
	ClientID     string     `json:"client_id" validate:"required,max=64"`
	TenantID     string     `json:"tenant_id" validate:"required,max=64"`
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description" validate:"max=4000"`
	DueDate      *time.Time `json:"due_date"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH low medium high"`
	AssigneeType string     `json:"assignee_type" validate:"required,oneof=TENANT CLIENT tenant client"`
	AssigneeID   string     `json:"assignee_id" validate:"required,max=64"`
	ActorID      string     `json:"-" validate:"required"`
}

func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*timeline.TaskInstance, error) {
	const op = "task.create"
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return nil, timeline.Validationf(op, "%s", describeValidation(err))
	}

	assigneeType, err := timeline.ParseAssigneeType(in.AssigneeType)
	if err != nil {
		return nil, err
	}
	priority := timeline.PriorityMedium
	if in.Priority != "" {
		if priority, err = timeline.ParsePriority(in.Priority); err != nil {
			return nil, err
		}
	}

	now := s.clock()
	t := &timeline.TaskInstance{
		ID:              s.newID(),
		ClientID:        in.ClientID,
		TenantID:        in.TenantID,
		Title:           in.Title,
		Description:     in.Description,
		DueDate:         utcPtr(in.DueDate),
		Priority:        priority,
		Status:          timeline.StatusTodo,
		AssigneeType:    assigneeType,
		AssigneeID:      in.AssigneeID,
		CreatedByUserID: in.ActorID,
		Source:          timeline.SourceManual,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.InsertTask(ctx, t); err != nil {
		return nil, err
	}
	metrics.IncrementTaskCreated("manual")
	logger.WithTrace(ctx, s.logger).Info("Task created",
		zap.String("task_id", t.ID),
		zap.String("client_id", t.ClientID),
		zap.String("actor_id", in.ActorID),
	)
	return t, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Microsecond)
	return &u
}
