package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// notificationMessage is the wire shape consumed by the delivery pipeline.
type notificationMessage struct {
	Destination  string            `json:"destination"`
	TemplateType string            `json:"template_type"`
	Data         map[string]string `json:"data,omitempty"`
}

// RabbitMQSender publishes notification messages to a RabbitMQ queue; the
// delivery pipeline consumes them downstream.
type RabbitMQSender struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queueName  string
	exchange   string
	routingKey string
}

// NewRabbitMQSender connects, declares the exchange/queue pair and binds
// them.
func NewRabbitMQSender(url, exchange, queue, routingKey string) (*RabbitMQSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.QueueBind(
		queue,
		routingKey,
		exchange,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQSender{
		conn:       conn,
		channel:    ch,
		queueName:  queue,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

func (r *RabbitMQSender) Notify(ctx context.Context, destination, templateType string, data map[string]string) error {
	body, err := json.Marshal(notificationMessage{
		Destination:  destination,
		TemplateType: templateType,
		Data:         data,
	})
	if err != nil {
		return err
	}

	return r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (r *RabbitMQSender) Close() error {
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}
