package task

import (
	"context"

	"go.uber.org/zap"

	"weddingtimeline/internal/timeline"
	"weddingtimeline/pkg/logger"
	"weddingtimeline/pkg/metrics"
)

// UpdateStatus 任意状态之间都可以切换，是否允许由 Authorizer 决定。
// 从非 DONE 进入 DONE 且来源模板带 milestone/confetti 时触发庆祝；离开 DONE 重置标记。
// 乐观锁冲突时重读重试一次。
func (s *Service) UpdateStatus(ctx context.Context, id, status, actorID string) (*timeline.TaskInstance, error) {
	const op = "task.update_status"
	next, err := timeline.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	log := logger.WithTrace(ctx, s.logger)

	for attempt := 0; ; attempt++ {
		cur, err := s.store.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if !s.authz.CanEdit(ctx, actorID, cur) {
			return nil, timeline.Unauthorizedf(op, "actor %s cannot edit task %s", actorID, id)
		}
		if cur.Status == next {
			return cur, nil
		}

		upd := *cur
		upd.Status = next
		upd.UpdatedAt = s.nextUpdatedAt(cur.UpdatedAt)

		var (
			tpl       timeline.TaskTemplate
			celebrate bool
		)
		switch {
		case next == timeline.StatusDone:
			tpl, celebrate = s.celebrationTemplate(cur)
			if celebrate {
				upd.Celebrated = true
			}
		case cur.Status == timeline.StatusDone:
			upd.Celebrated = false
		}

		err = s.store.UpdateTaskStatus(ctx, &upd, cur.UpdatedAt)
		if isConflict(err) && attempt == 0 {
			metrics.IncrementConflict("update_status", "retried")
			log.Info("Status update conflict, retrying", zap.String("task_id", id))
			continue
		}
		if isConflict(err) {
			metrics.IncrementConflict("update_status", "surfaced")
		}
		if err != nil {
			return nil, err
		}

		metrics.IncrementStatusTransition(string(cur.Status), string(next))
		log.Info("Task status updated",
			zap.String("task_id", id),
			zap.String("from", string(cur.Status)),
			zap.String("to", string(next)),
			zap.String("actor_id", actorID),
		)
		if celebrate {
			s.celebrate(ctx, &upd, tpl, actorID)
		}
		return &upd, nil
	}
}

// celebrationTemplate 按快照的模板 key 查找来源模板
func (s *Service) celebrationTemplate(t *timeline.TaskInstance) (timeline.TaskTemplate, bool) {
	if t.TemplateKey == nil || t.Celebrated || s.catalog == nil {
		return timeline.TaskTemplate{}, false
	}
	tpl, ok := s.catalog.Lookup(*t.TemplateKey)
	if !ok || !tpl.Celebrates() {
		return timeline.TaskTemplate{}, false
	}
	return tpl, true
}

// celebrate 发布失败只记录日志，不影响状态变更
func (s *Service) celebrate(ctx context.Context, t *timeline.TaskInstance, tpl timeline.TaskTemplate, actorID string) {
	metrics.IncrementCelebration()
	if s.celebrations == nil {
		return
	}
	if err := s.celebrations.PublishCelebrated(ctx, t, tpl, actorID); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Celebration signal dropped",
			zap.String("task_id", t.ID),
			zap.Error(err),
		)
	}
}

// Delete 创建者可以删除自己的任务，其他人需要 CanDelete。评论和附件一并删除。
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	const op = "task.delete"
	cur, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if cur.CreatedByUserID != actorID && !s.authz.CanDelete(ctx, actorID, cur) {
		return timeline.Unauthorizedf(op, "actor %s cannot delete task %s", actorID, id)
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Task deleted",
		zap.String("task_id", id),
		zap.String("actor_id", actorID),
	)
	return nil
}
