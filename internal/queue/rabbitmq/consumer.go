package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/domain"
	"notifyrelay/internal/model"
)

// A session that survives this long resets the reconnect backoff.
const stableSession = 30 * time.Second

var errDeliveriesClosed = errors.New("rabbitmq deliveries closed")

// Consumer is a notification source backed by a RabbitMQ topic exchange.
type Consumer struct {
	url         string
	logger      *zap.Logger
	exchange    string
	queue       string
	routingKey  string
	consumerTag string
}

func NewConsumer(cfg *config.Config, logger *zap.Logger) *Consumer {
	return &Consumer{
		url:         cfg.RabbitMQURL,
		logger:      logger,
		exchange:    cfg.RabbitExchange,
		queue:       cfg.RabbitQueue,
		routingKey:  cfg.RabbitRoutingKey,
		consumerTag: cfg.RabbitConsumerTag,
	}
}

// Listen starts consuming in the background. Connection failures are reported
// through onError and the consumer reconnects with backoff until ctx is done.
func (r *Consumer) Listen(ctx context.Context, onNotification func(model.SystemNotification), onError func(error)) error {
	if r.url == "" {
		return errors.New("rabbitmq url is empty")
	}
	go r.run(ctx, onNotification, onError)
	return nil
}

func (r *Consumer) run(ctx context.Context, onNotification func(model.SystemNotification), onError func(error)) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	retry := backoff.WithContext(b, ctx)

	for {
		started := time.Now()
		err := r.consume(ctx, onNotification)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			onError(err)
		}
		if time.Since(started) > stableSession {
			retry.Reset()
		}
		wait := retry.NextBackOff()
		if wait == backoff.Stop {
			return
		}
		r.logger.Info("rabbitmq consumer reconnecting", zap.Duration("in", wait))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (r *Consumer) consume(ctx context.Context, onNotification func(model.SystemNotification)) error {
	ctx, span := otel.Tracer("rabbitmq").Start(ctx, "rabbitmq.consume_loop")
	span.SetAttributes(
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination", r.exchange),
		attribute.String("messaging.destination_kind", "exchange"),
		attribute.String("messaging.rabbitmq.routing_key", r.routingKey),
	)
	defer span.End()

	conn, err := amqp.Dial(r.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "channel failed")
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "qos failed")
		return fmt.Errorf("rabbitmq qos: %w", err)
	}

	if err := ch.ExchangeDeclare(
		r.exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exchange declare failed")
		return fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	queueInfo, err := ch.QueueDeclare(
		r.queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "queue declare failed")
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.QueueBind(
		queueInfo.Name,
		r.routingKey,
		r.exchange,
		false,
		nil,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "queue bind failed")
		return fmt.Errorf("rabbitmq queue bind: %w", err)
	}

	deliveries, err := ch.Consume(
		queueInfo.Name,
		r.consumerTag,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "consume failed")
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	r.logger.Info("RabbitMQ consumer started",
		zap.String("exchange", r.exchange),
		zap.String("queue", queueInfo.Name),
		zap.String("routing_key", r.routingKey),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				span.SetStatus(codes.Error, "deliveries closed")
				return errDeliveriesClosed
			}
			if err := r.handleMessage(ctx, msg, onNotification); err != nil {
				span.RecordError(err)
				return err
			}
		}
	}
}

func (r *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery, onNotification func(model.SystemNotification)) error {
	if msg.Headers == nil {
		msg.Headers = amqp.Table{}
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, amqpHeaderCarrier(msg.Headers))
	_, span := otel.Tracer("rabbitmq").Start(ctx, "rabbitmq.handle_message")
	span.SetAttributes(
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.destination", r.exchange),
		attribute.String("messaging.destination_kind", "exchange"),
		attribute.String("messaging.rabbitmq.routing_key", msg.RoutingKey),
	)
	defer span.End()

	var n model.SystemNotification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid json")
		r.logger.Error("rabbitmq invalid json", zap.Error(err))
		return msg.Ack(false)
	}
	if err := domain.ValidateSystemNotification(n); err != nil {
		span.SetStatus(codes.Error, "missing required fields")
		r.logger.Warn("rabbitmq missing required fields",
			zap.String("title", n.Title),
			zap.String("package", n.Package),
		)
		return msg.Ack(false)
	}

	span.SetAttributes(attribute.String("notification.package", n.Package))
	onNotification(n)
	return msg.Ack(false)
}
