package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/julianstephens/habitual/internal/logger"
)

// AMQP publishes events as persistent JSON messages to a durable queue and
// waits for the broker to confirm each one.
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	confirms chan amqp.Confirmation
	// published is the delivery tag of the last message sent on ch. The
	// broker numbers confirms from 1 per channel.
	published uint64
}

func NewAMQP(url, queue string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err := <-closed; err != nil {
			logger.Warn("Message broker connection closed", "error", err)
		}
	}()

	return &AMQP{
		conn:     conn,
		ch:       ch,
		queue:    q.Name,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 16)),
	}, nil
}

func (p *AMQP) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         string(e.Type),
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	p.published++

	ack, err := awaitConfirm(ctx, p.confirms, p.published)
	if err != nil {
		return fmt.Errorf("%s not confirmed: %w", e.Type, err)
	}
	if !ack {
		return fmt.Errorf("broker rejected %s", e.Type)
	}
	return nil
}

// awaitConfirm waits for the confirmation of tag. Confirmations for earlier
// tags belong to publishes that gave up waiting and are dropped.
func awaitConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, tag uint64) (bool, error) {
	for {
		select {
		case confirm, ok := <-confirms:
			if !ok {
				return false, fmt.Errorf("channel closed")
			}
			if confirm.DeliveryTag < tag {
				continue
			}
			if confirm.DeliveryTag > tag {
				return false, fmt.Errorf("confirmation %d skipped past %d", confirm.DeliveryTag, tag)
			}
			return confirm.Ack, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

func (p *AMQP) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
