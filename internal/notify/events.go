package notify

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	mqcontracts "weddingtimeline/contracts/mq"
	"weddingtimeline/internal/timeline"
	"weddingtimeline/pkg/logger"
)

// EventPublisher 发布任务激活和庆祝事件
type EventPublisher struct {
	pub    Publisher
	logger *zap.Logger
	now    func() time.Time
}

func NewEventPublisher(pub Publisher, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{pub: pub, logger: logger, now: time.Now}
}

func (p *EventPublisher) PublishActivated(ctx context.Context, ev timeline.ActivationEvent) error {
	payload := mqcontracts.TaskActivatedPayload{
		ClientID:       ev.ClientID,
		TenantID:       ev.TenantID,
		TaskID:         ev.TaskID,
		TemplateKey:    ev.TemplateKey,
		Section:        ev.Section,
		PushOnActivate: ev.PushOnActivate,
		Confetti:       ev.Confetti,
		Milestone:      ev.Milestone,
		ActivatedAt:    ev.ActivatedAt,
	}
	if err := p.pub.PublishWithContext(ctx, mqcontracts.RoutingTaskActivated, payload); err != nil {
		return timeline.DependencyError("publish.activated", err)
	}
	return nil
}

// PublishCelebrated 任务首次进入 DONE 且模板带有 milestone/confetti 时调用
func (p *EventPublisher) PublishCelebrated(ctx context.Context, t *timeline.TaskInstance, tpl timeline.TaskTemplate, actorID string) error {
	payload := mqcontracts.TaskCelebratedPayload{
		ClientID:     t.ClientID,
		TenantID:     t.TenantID,
		TaskID:       t.ID,
		TemplateKey:  tpl.Key,
		Title:        t.Title,
		Milestone:    tpl.Milestone,
		Confetti:     tpl.Confetti,
		ActorID:      actorID,
		CelebratedAt: p.now().UTC(),
	}
	if err := p.pub.PublishWithContext(ctx, mqcontracts.RoutingTaskCelebrated, payload); err != nil {
		logger.WithTrace(ctx, p.logger).Warn("Failed to publish celebration",
			zap.String("task_id", t.ID),
			zap.Error(err),
		)
		return timeline.DependencyError("publish.celebrated", err)
	}
	return nil
}

// LogPublisher 没有 MQ 的本地模式下把事件写进日志
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	logger.WithTrace(ctx, p.logger).Info("event",
		zap.String("routing_key", routingKey),
		zap.ByteString("payload", body),
	)
	return nil
}
