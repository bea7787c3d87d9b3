package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	mqcontracts "weddingtimeline/contracts/mq"
	"weddingtimeline/internal/timeline"
	"weddingtimeline/pkg/logger"
	"weddingtimeline/pkg/metrics"
)

const ChannelPush = "push"

// Publisher 事件发布方，*mq.Publisher 实现了它
type Publisher interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// Dispatcher 把通知请求发布到 notification.requested，由下游通知服务投递
type Dispatcher struct {
	pub     Publisher
	breaker *CircuitBreaker
	logger  *zap.Logger
	now     func() time.Time
}

func NewDispatcher(pub Publisher, breaker *CircuitBreaker, logger *zap.Logger) *Dispatcher {
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultBreakerConfig())
	}
	return &Dispatcher{pub: pub, breaker: breaker, logger: logger, now: time.Now}
}

// Notify 请求向客户推送模板通知，失败时返回 ErrDependency 类错误
func (d *Dispatcher) Notify(ctx context.Context, clientID, templateKey, channel string) error {
	log := logger.WithTrace(ctx, d.logger)

	payload := mqcontracts.NotificationRequestedPayload{
		ClientID:    clientID,
		TemplateKey: templateKey,
		Channel:     channel,
		RequestedAt: d.now().UTC(),
	}
	err := d.breaker.Execute(func() error {
		return d.pub.PublishWithContext(ctx, mqcontracts.RoutingNotificationRequested, payload)
	})
	switch {
	case err == nil:
		metrics.IncrementNotification(channel, "sent")
		log.Debug("Notification requested",
			zap.String("client_id", clientID),
			zap.String("template_key", templateKey),
			zap.String("channel", channel),
		)
		return nil
	case errors.Is(err, ErrCircuitOpen):
		metrics.IncrementNotification(channel, "rejected")
	default:
		metrics.IncrementNotification(channel, "failed")
	}
	log.Warn("Notification dispatch failed",
		zap.String("client_id", clientID),
		zap.String("template_key", templateKey),
		zap.String("channel", channel),
		zap.String("breaker_state", d.breaker.State().String()),
		zap.Error(err),
	)
	return timeline.DependencyError("notify", err)
}
