package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/class-meetup-checkin/internal/model"
	"github.com/iliyamo/class-meetup-checkin/internal/monitoring"
	"github.com/iliyamo/class-meetup-checkin/internal/queue"
)

// amqpChannel is the subset of *amqp.Channel the publisher uses.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// CheckInPublisher sends TicketCheckedInEvent messages to RabbitMQ.  It
// satisfies ticket.CheckInNotifier.  Each publish opens its own
// connection, which is acceptable at check-in rates.
type CheckInPublisher struct {
	open func() (amqpChannel, func(), error)
	log  *zap.Logger
}

// NewCheckInPublisher returns a publisher dialing url for every message.
func NewCheckInPublisher(url string, log *zap.Logger) *CheckInPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckInPublisher{
		open: func() (amqpChannel, func(), error) {
			conn, err := amqp.Dial(url)
			if err != nil {
				return nil, nil, fmt.Errorf("dial: %w", err)
			}
			ch, err := conn.Channel()
			if err != nil {
				_ = conn.Close()
				return nil, nil, fmt.Errorf("channel open: %w", err)
			}
			return ch, func() { _ = conn.Close() }, nil
		},
		log: log,
	}
}

// NewCheckInEvent builds the message for a committed check-in.
func NewCheckInEvent(t model.Ticket, ev model.EventRef, scannerID string) queue.TicketCheckedInEvent {
	checkedIn := time.Now().UTC()
	if t.UsedAt != nil {
		checkedIn = t.UsedAt.UTC()
	}
	return queue.TicketCheckedInEvent{
		TicketID:      t.ID,
		TicketNumber:  t.TicketNumber,
		OwnerUserID:   t.OwnerUserID,
		ScannerUserID: scannerID,
		EventKind:     ev.Kind,
		EventID:       ev.ID,
		EventTitle:    ev.Title,
		CheckedInAt:   checkedIn.Format(time.RFC3339Nano),
	}
}

// TicketCheckedIn publishes the event.  Errors are logged and returned so
// the caller can ignore them.
func (p *CheckInPublisher) TicketCheckedIn(ctx context.Context, t model.Ticket, ev model.EventRef, scannerID string) error {
	if err := p.publish(ctx, NewCheckInEvent(t, ev, scannerID)); err != nil {
		monitoring.TrackCheckInEvent("publish_failed")
		p.log.Warn("rabbitmq: publish check-in failed", zap.String("ticket_id", t.ID), zap.Error(err))
		return err
	}
	monitoring.TrackCheckInEvent("published")
	return nil
}

func (p *CheckInPublisher) publish(ctx context.Context, event queue.TicketCheckedInEvent) error {
	ch, closeConn, err := p.open()
	if err != nil {
		return err
	}
	defer closeConn()
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.CheckInQueueName, // name
		true,                   // durable
		false,                  // autoDelete
		false,                  // exclusive
		false,                  // noWait
		nil,                    // args
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.TicketID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.CheckInQueueName, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
