package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for operator notifications.
const (
	KeyReportFiled      = "moderation.report.filed"
	KeyVolunteerApplied = "volunteer.application.received"
	KeyPasswordReset    = "auth.password_reset.requested"
	KeyTopicCreated     = "forum.topic.created"
)

// Publisher emits JSON events on a topic exchange. A nil Publisher is valid
// and drops events, so the API runs without a broker in development.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) publishJSON(key string, v any) {
	if p == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("notify marshal failed", "key", key, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        b,
	})
	if err != nil {
		// Notifications are best-effort; the triggering write already succeeded.
		slog.Error("notify publish failed", "key", key, "error", err)
	}
}

func (p *Publisher) ReportFiled(topicID, reporterName, reason string) {
	p.publishJSON(KeyReportFiled, map[string]string{
		"topic_id":      topicID,
		"reporter_name": reporterName,
		"reason":        reason,
	})
}

func (p *Publisher) VolunteerApplied(name, email string, areas []string) {
	p.publishJSON(KeyVolunteerApplied, map[string]any{
		"name":  name,
		"email": email,
		"areas": areas,
	})
}

func (p *Publisher) PasswordResetRequested(email, token string) {
	p.publishJSON(KeyPasswordReset, map[string]string{
		"email": email,
		"token": token,
	})
}

func (p *Publisher) TopicCreated(topicID, title, author string) {
	p.publishJSON(KeyTopicCreated, map[string]string{
		"topic_id": topicID,
		"title":    title,
		"author":   author,
	})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
