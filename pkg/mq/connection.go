package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName 默认 topic exchange
	ExchangeName = "timeline.events"

	// TraceHeader 消息头中携带 trace_id 的键
	TraceHeader = "x-trace-id"
)

// NewConnection creates a new RabbitMQ connection.
func NewConnection(url string) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange declares the topic exchange; empty name falls back to ExchangeName.
func DeclareExchange(ch *amqp091.Channel, name string) error {
	return ch.ExchangeDeclare(
		exchangeOrDefault(name),
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

func exchangeOrDefault(name string) string {
	if name == "" {
		return ExchangeName
	}
	return name
}
