package mqhandler

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	mqcontracts "weddingtimeline/contracts/mq"
	"weddingtimeline/internal/authz"
	"weddingtimeline/internal/service/task"
	"weddingtimeline/internal/timeline"
	"weddingtimeline/pkg/logger"
	"weddingtimeline/pkg/mq"
)

// TaskCreator 从会议纪要创建任务（*task.Service）
type TaskCreator interface {
	CreateFromMeetingNote(ctx context.Context, in task.MeetingNoteInput) (*timeline.TaskInstance, error)
}

type MeetingNoteTaskRequestedHandler struct {
	creator TaskCreator
	logger  *zap.Logger
}

func NewMeetingNoteTaskRequestedHandler(creator TaskCreator, logger *zap.Logger) *MeetingNoteTaskRequestedHandler {
	return &MeetingNoteTaskRequestedHandler{creator: creator, logger: logger}
}

// Handle 校验错误、纪要不存在或无权限时不重试，其余错误交给 Consumer 重新入队一次
func (h *MeetingNoteTaskRequestedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	log := logger.WithTrace(ctx, h.logger)

	var p mqcontracts.MeetingNoteTaskRequestedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error("Failed to unmarshal MeetingNoteTaskRequestedPayload", zap.Error(err))
		return mq.Permanent(err)
	}

	log.Info("Handling meeting_note.task_requested event",
		zap.String("meeting_note_id", p.MeetingNoteID),
		zap.String("request_id", p.RequestID),
		zap.String("actor_id", p.ActorID),
	)

	ctx = authz.WithRole(ctx, authz.RoleSystem)
	t, err := h.creator.CreateFromMeetingNote(ctx, task.MeetingNoteInput{
		MeetingNoteID: p.MeetingNoteID,
		RequestID:     p.RequestID,
		ActorID:       p.ActorID,
		AssigneeType:  p.AssigneeType,
		AssigneeID:    p.AssigneeID,
		Priority:      p.Priority,
		DueDate:       p.DueDate,
	})
	if err != nil {
		if errors.Is(err, timeline.ErrValidation) || errors.Is(err, timeline.ErrNotFound) || errors.Is(err, timeline.ErrAuthorization) {
			log.Warn("Rejected meeting note task request",
				zap.String("meeting_note_id", p.MeetingNoteID),
				zap.Error(err),
			)
			return mq.Permanent(err)
		}
		log.Error("Failed to create task from meeting note", zap.Error(err))
		return err
	}

	log.Info("Task created from meeting note event",
		zap.String("task_id", t.ID),
		zap.String("meeting_note_id", p.MeetingNoteID),
	)
	return nil
}
