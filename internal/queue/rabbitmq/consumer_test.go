package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/domain"
	"notifyrelay/internal/model"
)

type ackMock struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *ackMock) Ack(_ uint64, _ bool) error {
	a.acked++
	return nil
}

func (a *ackMock) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *ackMock) Reject(_ uint64, _ bool) error {
	return nil
}

type collector struct {
	got []model.SystemNotification
}

func (c *collector) onNotification(n model.SystemNotification) {
	c.got = append(c.got, n)
}

func TestConsumerHandleMessage(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		consumer := &Consumer{logger: zap.NewNop()}
		ack := &ackMock{}
		sink := &collector{}

		msg := amqp.Delivery{
			Body:         []byte("{bad json"),
			Acknowledger: ack,
		}

		err := consumer.handleMessage(context.Background(), msg, sink.onNotification)
		require.NoError(t, err)
		require.Equal(t, 1, ack.acked)
		require.Equal(t, 0, ack.nacked)
		require.Empty(t, sink.got)
	})

	t.Run("missing fields", func(t *testing.T) {
		consumer := &Consumer{logger: zap.NewNop()}
		ack := &ackMock{}
		sink := &collector{}

		msg := amqp.Delivery{
			Body:         []byte(`{"title":"N26"}`),
			Acknowledger: ack,
		}

		err := consumer.handleMessage(context.Background(), msg, sink.onNotification)
		require.NoError(t, err)
		require.Equal(t, 1, ack.acked)
		require.Empty(t, sink.got)
	})

	t.Run("success -> forwarded and acked", func(t *testing.T) {
		consumer := &Consumer{logger: zap.NewNop()}
		ack := &ackMock{}
		sink := &collector{}

		payload, err := json.Marshal(domain.ExampleNotification())
		require.NoError(t, err)

		msg := amqp.Delivery{
			Body:         payload,
			Headers:      amqp.Table{"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
			Acknowledger: ack,
		}

		err = consumer.handleMessage(context.Background(), msg, sink.onNotification)
		require.NoError(t, err)
		require.Equal(t, 1, ack.acked)
		require.Equal(t, 0, ack.nacked)
		require.Equal(t, []model.SystemNotification{domain.ExampleNotification()}, sink.got)
	})
}

func TestConsumerListenRequiresURL(t *testing.T) {
	consumer := NewConsumer(&config.Config{}, zap.NewNop())
	err := consumer.Listen(context.Background(), func(model.SystemNotification) {}, func(error) {})
	require.Error(t, err)
}

func TestRoutingKey(t *testing.T) {
	require.Equal(t, "notification.com_n26_app", RoutingKey("notification", "com.n26.app"))
	require.Equal(t, "notification.unknown", RoutingKey("notification", ""))
	require.Equal(t, "n.a_b_c", RoutingKey("n", "a*b#c"))
}

func TestNoopPublisher(t *testing.T) {
	pub := NewPublisher(&config.Config{}, zap.NewNop())
	require.IsType(t, &noopPublisher{}, pub)
	require.NoError(t, pub.Publish(context.Background(), domain.ExampleNotification()))
}

func TestHeaderCarrier(t *testing.T) {
	headers := amqp.Table{"count": 3}
	carrier := amqpHeaderCarrier(headers)
	carrier.Set("traceparent", "abc")

	require.Equal(t, "abc", headers["traceparent"])
	require.Equal(t, "3", carrier.Get("count"))
	require.Equal(t, "", carrier.Get("missing"))
	require.ElementsMatch(t, []string{"count", "traceparent"}, carrier.Keys())
}
