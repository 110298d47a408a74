package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"denuncias/internal/models"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// ComplaintQueue receives every complaint lifecycle event.
const ComplaintQueue = "complaint_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	logger  *zap.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ, opens a channel and declares the complaint queue.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("RabbitMQ client connected", zap.String("queue", ComplaintQueue))

	return &Client{
		conn:    conn,
		channel: ch,
		logger:  logger,
	}, nil
}

func declareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		ComplaintQueue, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", ComplaintQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishComplaintEvent publishes event to the complaint queue as JSON.
func (c *Client) PublishComplaintEvent(event models.ComplaintEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal complaint event: %w", err)
	}
	return c.publish(ComplaintQueue, body)
}

func (c *Client) publish(routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		"",         // default exchange
		routingKey, // routing key: the queue name
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// ConsumeComplaintEvents starts a goroutine delivering complaint events to
// messageHandler. A handler error nacks the message without requeueing it.
func (c *Client) ConsumeComplaintEvents(messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		ComplaintQueue, // queue
		"",             // consumer tag
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := messageHandler(msg); err != nil {
				c.logger.Warn("failed to process complaint event",
					zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
				if nackErr := msg.Nack(false, false); nackErr != nil {
					c.logger.Error("failed to nack message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(nackErr))
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Error("failed to ack message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(ackErr))
			}
		}
	}()

	return nil
}

// DecodeComplaintEvent parses a delivery body.
func DecodeComplaintEvent(body []byte) (models.ComplaintEvent, error) {
	var event models.ComplaintEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("invalid complaint event: %w", err)
	}
	if event.Event == "" || event.ComplaintID == "" {
		return event, fmt.Errorf("invalid complaint event: missing event or complaint_id")
	}
	return event, nil
}

// LogComplaintEvents returns a consumer handler that writes each event to
// the audit log.
func LogComplaintEvents(logger *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		event, err := DecodeComplaintEvent(msg.Body)
		if err != nil {
			return err
		}
		logger.Info("complaint event",
			zap.String("event", event.Event),
			zap.String("complaint_id", event.ComplaintID),
			zap.String("owner_id", event.OwnerID),
			zap.String("actor_id", event.ActorID),
			zap.String("status", event.Status),
			zap.Strings("fields", event.Fields),
		)
		return nil
	}
}
