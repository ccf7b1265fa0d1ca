package integration

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invdomain "github.com/brizzinck/tyutyun-shop/internal/inventory/domain"
	notifkafka "github.com/brizzinck/tyutyun-shop/internal/notification/kafka"
	orderapp "github.com/brizzinck/tyutyun-shop/internal/order/application"
	orderdomain "github.com/brizzinck/tyutyun-shop/internal/order/domain"
	orderkafka "github.com/brizzinck/tyutyun-shop/internal/order/infrastructure/kafka"
	orderpg "github.com/brizzinck/tyutyun-shop/internal/order/infrastructure/postgres"
	"github.com/brizzinck/tyutyun-shop/pkg/outbox"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	opts, err := redis.ParseURL(env.RedisAddr)
	require.NoError(t, err)
	return redis.NewClient(opts)
}

type recordingSender struct {
	ch chan orderdomain.OrderDetails
}

func (s *recordingSender) OrderConfirmation(_ context.Context, d orderdomain.OrderDetails) error {
	s.ch <- d
	return nil
}

// A committed order travels outbox -> relay -> kafka -> consumer and reaches
// the mail side with the snapshot intact.
func TestOrderEventReachesNotificationSender(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	s := newStack()
	log := slog.Default()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	p := seedProduct(t, s, "Gloves "+uuid.NewString(), 1100,
		map[invdomain.Size]int{invdomain.SizeM: 2})
	details, err := s.orders.Checkout(ctx, nil,
		[]orderapp.CartLine{{ProductID: p.ID, Size: "M", Quantity: 1}},
		shipping(), "cod")
	require.NoError(t, err)

	writer := orderkafka.NewWriter(env.KafkaAddr)
	defer writer.Close()
	relay := outbox.NewRelay(log,
		orderpg.NewOutboxStore(log, pool),
		outbox.NewDispatcher(log, writer, "order.events"),
		"relay-e2e-"+uuid.NewString())
	go func() { _ = relay.Run(ctx) }()

	rdb := redisClient(t)
	defer rdb.Close()
	sender := &recordingSender{ch: make(chan orderdomain.OrderDetails, 16)}
	consumer := notifkafka.NewConsumer(log, env.KafkaAddr, "order.events",
		"notif-e2e-"+uuid.NewString(), sender, notifkafka.NewDedup(rdb, time.Minute))
	go func() { _ = consumer.Run(ctx) }()

	// Earlier tests leave their own outbox rows behind; the relay republishes
	// any it can claim, so filter for this order.
	for {
		select {
		case d := <-sender.ch:
			if d.OrderID != details.OrderID {
				continue
			}
			assert.Equal(t, details.TotalCents, d.TotalCents)
			assert.Equal(t, "taras@example.com", d.Email)
			require.Len(t, d.Items, 1)
			assert.Equal(t, p.Name, d.Items[0].ProductName)
			return
		case <-ctx.Done():
			t.Fatal("order confirmation never reached the sender")
		}
	}
}

// The dedup claim is one-shot per (topic, partition, offset).
func TestDedupClaimsMessageOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	rdb := redisClient(t)
	defer rdb.Close()
	d := notifkafka.NewDedup(rdb, time.Minute)

	msg := kafkago.Message{Topic: "dedup-" + uuid.NewString(), Partition: 0, Offset: 42}
	first, err := d.Claim(context.Background(), msg)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.Claim(context.Background(), msg)
	require.NoError(t, err)
	assert.False(t, again)
}
