package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/brizzinck/tyutyun-shop/internal/order/domain"
	"github.com/brizzinck/tyutyun-shop/pkg/tracing"
)

// Sender is the mail side of the notification channel.
type Sender interface {
	OrderConfirmation(ctx context.Context, details domain.OrderDetails) error
}

// Consumer turns committed OrderPlaced events into confirmation mail. A
// failed send is logged and the message committed anyway: notification
// failures never propagate back to orders.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	sender Sender
	dedup  *Dedup
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, sender Sender, dedup *Dedup) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		sender: sender,
		dedup:  dedup,
		tracer: otel.Tracer("notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		first, err := c.dedup.Claim(ctx, msg)
		if err != nil {
			c.log.Error("dedup claim failed", "err", err)
			continue
		}
		if !first {
			c.log.Info("duplicate message skipped",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if eventType := tracing.HeaderValue(msg.Headers, "event_type"); eventType != domain.EventOrderPlaced {
			c.log.Warn("unexpected event type", "type", eventType)
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		msgCtx, span := c.tracer.Start(msgCtx, "SendOrderConfirmation")

		var details domain.OrderDetails
		if err := json.Unmarshal(msg.Value, &details); err != nil {
			c.log.Error("unmarshal order details failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		if err := c.sender.OrderConfirmation(msgCtx, details); err != nil {
			c.log.Error("order confirmation failed", "order_id", details.OrderID, "err", err)
		} else {
			c.log.Info("order confirmation sent", "order_id", details.OrderID, "email", details.Email)
		}
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}
