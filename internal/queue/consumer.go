package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
)

// Consumer listens to order events and appends one human readable line per
// event to a notification log, standing in for the customer e-mail.
type Consumer struct {
	url      string
	exchange string
	queue    string
	logPath  string
	mu       sync.Mutex
}

func NewConsumer(url, exchange, queue, logPath string) *Consumer {
	return &Consumer{url: url, exchange: exchange, queue: queue, logPath: logPath}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broken
// connections are retried with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	log := logging.FromContext(ctx).WithField("component", "order-consumer")
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, log *logrus.Entry) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("set QoS failed")
	}
	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, key := range []string{RoutingOrderConfirmed, RoutingOrderCancelled} {
		if err := ch.QueueBind(q.Name, key, c.exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	msgs, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handleMessage(d.Body); err != nil {
			log.WithError(err).WithField("message_id", d.MessageId).Error("handle message failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line, err := formatNotification(ev)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if dir := filepath.Dir(c.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir logs: %w", err)
		}
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatNotification(ev OrderEvent) (string, error) {
	var verb string
	switch ev.Type {
	case RoutingOrderConfirmed:
		verb = "Order confirmed"
	case RoutingOrderCancelled:
		verb = "Order cancelled"
	default:
		return "", fmt.Errorf("unknown event type %q", ev.Type)
	}

	shows := make([]string, 0, len(ev.Bookings))
	for _, b := range ev.Bookings {
		shows = append(shows, fmt.Sprintf("%s @ %s/%s %s seats=[%s]",
			b.MovieTitle, b.CinemaName, b.HallName, b.StartsAt.UTC().Format(time.RFC3339), strings.Join(b.Seats, ",")))
	}
	snacks := make([]string, 0, len(ev.Snacks))
	for _, s := range ev.Snacks {
		snacks = append(snacks, fmt.Sprintf("%dx %s", s.Quantity, s.Name))
	}

	return fmt.Sprintf("[%s] %s | order=%s | to=%s | total=%d %s | shows=%q | snacks=%q\n",
		ev.OccurredAt.UTC().Format(time.RFC3339), verb, ev.OrderCode, ev.UserEmail,
		ev.TotalCents, strings.ToUpper(ev.Currency), strings.Join(shows, "; "), strings.Join(snacks, ", ")), nil
}
