// Package amqp connects the ledger to the spreadsheet mirror queue.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"paghetta/internal/core"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange.
	err = c.channel.QueueBind(
		c.queueName,
		c.queueName,
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishRecordSync asks the worker to mirror one record by id.
func (c *Client) PublishRecordSync(ctx context.Context, id int64) error {
	body, err := wrap(MessageTypeSync, RecordSyncMessage{ID: id})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published record sync message",
		"id", id,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishRecordDelete tells the worker to drop the matching spreadsheet
// row for a record that no longer exists locally.
func (c *Client) PublishRecordDelete(ctx context.Context, rec core.Record) error {
	body, err := wrap(MessageTypeDelete, RecordDeleteMessage{
		ID:         rec.ID,
		Date:       rec.Date,
		AmountCent: rec.Amount.Cents,
		Note:       rec.Note,
		Category:   rec.Category,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published record delete message",
		"id", rec.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Handlers dispatches consumed messages by envelope type.
type Handlers struct {
	Sync   func(context.Context, *RecordSyncMessage) error
	Delete func(context.Context, *RecordDeleteMessage) error
}

// Consume reads from the queue until ctx is cancelled. Malformed messages
// are rejected without requeue; handler failures requeue for retry.
func (c *Client) Consume(ctx context.Context, handlers Handlers) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming mirror messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := c.dispatch(ctx, delivery.Body, handlers); err != nil {
				if errors.Is(err, errBadMessage) {
					slog.ErrorContext(ctx, "Failed to decode message", "error", err)
					delivery.Nack(false, false)
					continue
				}
				slog.ErrorContext(ctx, "Failed to handle message", "error", err)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

// errBadMessage marks deliveries that can never succeed, so they are
// dropped instead of requeued.
var errBadMessage = errors.New("bad message")

func (c *Client) dispatch(ctx context.Context, body []byte, handlers Handlers) error {
	env, err := EnvelopeFromJSON(body)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadMessage, err)
	}

	switch env.Type {
	case MessageTypeSync:
		var msg RecordSyncMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return fmt.Errorf("%w: %v", errBadMessage, err)
		}
		if handlers.Sync == nil {
			return fmt.Errorf("%w: no sync handler registered", errBadMessage)
		}
		slog.InfoContext(ctx, "Processing record sync message", "id", msg.ID)
		return handlers.Sync(ctx, &msg)
	case MessageTypeDelete:
		var msg RecordDeleteMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return fmt.Errorf("%w: %v", errBadMessage, err)
		}
		if handlers.Delete == nil {
			return fmt.Errorf("%w: no delete handler registered", errBadMessage)
		}
		slog.InfoContext(ctx, "Processing record delete message", "id", msg.ID)
		return handlers.Delete(ctx, &msg)
	default:
		return fmt.Errorf("%w: unknown message type %q", errBadMessage, env.Type)
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
