package queue

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBroker implements Publisher and Consumer on top of a RabbitMQ queue.
//
// The queue is declared durable and messages are published with persistent
// delivery mode, so tasks survive a broker restart. Consumption runs with a
// prefetch limit of exactly one unacknowledged message per consumer.
type AMQPBroker struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	label string
}

// DialAMQP connects to the broker at url and declares the durable queue.
// The connection is owned by the returned broker and released by Close.
func DialAMQP(url, queueName, label string) (*AMQPBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare %q: %w", queueName, err)
	}

	return &AMQPBroker{
		conn:  conn,
		ch:    ch,
		queue: queueName,
		label: label,
	}, nil
}

// Publish sends a persistent message to the queue via the default exchange.
func (b *AMQPBroker) Publish(ctx context.Context, body []byte) error {
	if b.conn.IsClosed() {
		return ErrClosed
	}

	return b.ch.PublishWithContext(ctx,
		"",      // default exchange
		b.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

// Consume opens a manually-acknowledged delivery stream with prefetch=1.
func (b *AMQPBroker) Consume(ctx context.Context) (<-chan Delivery, error) {
	if b.conn.IsClosed() {
		return nil, ErrClosed
	}

	// One unacknowledged message at a time per consumer instance.
	if err := b.ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("amqp qos: %w", err)
	}

	msgs, err := b.ch.ConsumeWithContext(ctx,
		b.queue,
		b.label,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("amqp consume %q: %w", b.queue, err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for msg := range msgs {
			select {
			case out <- &amqpDelivery{msg: msg}:
			case <-ctx.Done():
				// The unsettled message redelivers once the channel closes.
				return
			}
		}
	}()
	return out, nil
}

// Close releases the channel and connection.
func (b *AMQPBroker) Close() error {
	return errors.Join(b.ch.Close(), b.conn.Close())
}

type amqpDelivery struct {
	msg amqp.Delivery
}

func (d *amqpDelivery) Body() []byte { return d.msg.Body }

func (d *amqpDelivery) Ack() error { return d.msg.Ack(false) }

func (d *amqpDelivery) Nack(requeue bool) error { return d.msg.Nack(false, requeue) }
