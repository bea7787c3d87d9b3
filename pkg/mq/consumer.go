package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"weddingtimeline/pkg/trace"
)

type MessageHandler func(ctx context.Context, data json.RawMessage) error

type Consumer struct {
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
	conn       *amqp091.Connection
	logger     *zap.Logger
	stopOnce   sync.Once
}

// NewConsumer creates a consumer for a specific routing key.
func NewConsumer(url, exchange, queueName, routingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareExchange(ch, exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := ch.Qos(10, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		routingKey,
		exchangeOrDefault(exchange),
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info("Consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", queueName),
		zap.String("exchange", exchangeOrDefault(exchange)),
	)

	return &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// IsConnected 连接和 channel 都未关闭
func (c *Consumer) IsConnected() bool {
	if c.conn == nil || c.channel == nil {
		return false
	}
	return !c.conn.IsClosed() && !c.channel.IsClosed()
}

// Stop 关闭 channel 和连接，StartConsuming 随之返回
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		if c.channel != nil {
			_ = c.channel.Close()
		}
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Close is an alias of Stop.
func (c *Consumer) Close() {
	c.Stop()
}

// StartConsuming starts consuming messages. It blocks until ctx is done or the
// delivery channel closes, and should be called in a goroutine.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		"",
		false, // 手动ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer stopping", zap.String("queue", c.queue.Name))
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

// handle 保证每条消息都会被 ack 或 nack
func (c *Consumer) handle(parent context.Context, msg amqp091.Delivery) {
	ctx := parent
	if traceID, ok := msg.Headers[TraceHeader].(string); ok && traceID != "" {
		ctx = trace.WithContext(ctx, traceID)
	} else {
		ctx = trace.WithContext(ctx, trace.GenerateTraceID())
	}
	log := c.logger.With(zap.String("trace_id", trace.FromContext(ctx)))

	log.Debug("Received message",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
		zap.Int("message_size", len(msg.Body)),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Handler panic recovered",
				zap.String("routing_key", c.routingKey),
				zap.Any("panic", r),
			)
			// panic 通常不会因重试消失，不再重新入队
			if err := msg.Nack(false, false); err != nil {
				log.Error("Failed to nack message after panic", zap.Error(err))
			}
		}
	}()

	if err := c.handler(ctx, msg.Body); err != nil {
		requeue := !IsPermanent(err) && !msg.Redelivered
		log.Error("Handler error",
			zap.String("routing_key", c.routingKey),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
		if err := msg.Nack(false, requeue); err != nil {
			log.Error("Failed to nack message", zap.Error(err))
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		log.Error("Failed to ack message", zap.Error(err))
	}
}
