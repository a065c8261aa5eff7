//go:build integration

package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/domain"
	"notifyrelay/internal/model"
)

func TestPublisherIntegration(t *testing.T) {
	ctx := context.Background()
	amqpURL, cleanup := setupRabbitMQContainer(t, ctx)
	defer cleanup()

	cfg := &config.Config{
		RabbitMQURL:         amqpURL,
		RabbitExchange:      "notifications",
		RabbitQueue:         "notifications.relay",
		RabbitRoutingKey:    "notification.*",
		RabbitConsumerTag:   "relay-consumer",
		RabbitPublishPrefix: "notification",
	}

	publisher := NewPublisher(cfg, zap.NewNop())

	conn, err := amqp.Dial(amqpURL)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	err = ch.ExchangeDeclare(cfg.RabbitExchange, "topic", true, false, false, false, nil)
	require.NoError(t, err)
	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil)
	require.NoError(t, err)
	err = ch.QueueBind(cfg.RabbitQueue, cfg.RabbitRoutingKey, cfg.RabbitExchange, false, nil)
	require.NoError(t, err)

	deliveries, err := ch.Consume(cfg.RabbitQueue, "publisher-test", true, false, false, false, nil)
	require.NoError(t, err)

	err = publisher.Publish(ctx, domain.ExampleNotification())
	require.NoError(t, err)

	select {
	case msg := <-deliveries:
		var got model.SystemNotification
		require.NoError(t, json.Unmarshal(msg.Body, &got))
		require.Equal(t, domain.ExampleNotification(), got)
		require.Equal(t, "notification.com_n26_app", msg.RoutingKey)
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for published message")
	}
}

// setupRabbitMQContainer is defined in testhelpers_integration.go
