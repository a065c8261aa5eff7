package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/model"
	"notifyrelay/internal/queue"
)

type noopPublisher struct {
	logger *zap.Logger
}

func (n *noopPublisher) Publish(_ context.Context, notification model.SystemNotification) error {
	n.logger.Debug("rabbitmq not configured, dropping publish", zap.String("package", notification.Package))
	return nil
}

type Publisher struct {
	url      string
	logger   *zap.Logger
	exchange string
	prefix   string
}

func NewPublisher(cfg *config.Config, logger *zap.Logger) queue.Publisher {
	if cfg.RabbitMQURL == "" {
		return &noopPublisher{logger: logger}
	}
	prefix := cfg.RabbitPublishPrefix
	if prefix == "" {
		prefix = "notification"
	}
	return &Publisher{url: cfg.RabbitMQURL, logger: logger, exchange: cfg.RabbitExchange, prefix: prefix}
}

// RoutingKey maps a package identifier onto the exchange's topic space,
// e.g. "com.n26.app" becomes "notification.com_n26_app".
func RoutingKey(prefix, pkg string) string {
	segment := strings.NewReplacer(".", "_", "*", "_", "#", "_").Replace(pkg)
	if segment == "" {
		segment = "unknown"
	}
	return prefix + "." + segment
}

func (p *Publisher) Publish(ctx context.Context, notification model.SystemNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("rabbitmq payload marshal: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, amqpHeaderCarrier(headers))

	if err := ch.PublishWithContext(ctx,
		p.exchange,
		RoutingKey(p.prefix, notification.Package),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      headers,
			Body:         payload,
		},
	); err != nil {
		p.logger.Error("rabbitmq publish failed", zap.Error(err))
		return err
	}

	return nil
}
