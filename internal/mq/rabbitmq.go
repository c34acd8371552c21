package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aryanprajapat98/REMS/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes and consumes through the default exchange, one
// queue per channel name. Publishing runs on its own AMQP channel so request
// handlers never contend with the notify worker's consumers.
type RabbitMQClient struct {
	conn    *amqp.Connection
	consume *amqp.Channel

	publishMu sync.Mutex
	publish   *amqp.Channel
	declared  map[string]bool

	queueDurable    bool
	queueAutoDelete bool
}

func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	publish, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	consume, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if cfg.PrefetchCount > 0 {
		if err := consume.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:            conn,
		consume:         consume,
		publish:         publish,
		declared:        map[string]bool{},
		queueDurable:    cfg.QueueDurable,
		queueAutoDelete: cfg.QueueAutoDelete,
	}, nil
}

// Publish sends a persistent message to the named queue.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}

	headers := amqp.Table{}
	for key, value := range attrs {
		headers[key] = value
	}
	messageID := uuid.NewString()

	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	if !r.declared[channel] {
		if _, err := r.declareQueue(r.publish, channel); err != nil {
			return "", err
		}
		r.declared[channel] = true
	}

	err := r.publish.PublishWithContext(ctx, "", channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now(),
		Headers:      headers,
		Body:         data,
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe consumes the named queue until ctx is done. A handler error
// requeues the delivery.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	if _, err := r.declareQueue(r.consume, channel); err != nil {
		return err
	}

	consumerTag := "rems-" + channel + "-" + uuid.NewString()
	deliveries, err := r.consume.Consume(channel, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.consume.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq deliveries for %s closed", channel)
			}
			message := Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			}
			if err := handler(ctx, message); err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes both channels and the connection.
func (r *RabbitMQClient) Close() error {
	_ = r.publish.Close()
	_ = r.consume.Close()
	return r.conn.Close()
}

func (r *RabbitMQClient) declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, r.queueDurable, r.queueAutoDelete, false, false, nil)
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
