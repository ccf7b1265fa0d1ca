package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// Dedup claims consumed order events in redis, so a redelivered message
// triggers at most one email within the TTL. SetNX makes the claim atomic
// across consumer instances sharing a group.
type Dedup struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDedup(rdb *redis.Client, ttl time.Duration) *Dedup {
	return &Dedup{rdb: rdb, ttl: ttl}
}

// Claim reports whether this message is seen for the first time.
func (d *Dedup) Claim(ctx context.Context, msg kafka.Message) (bool, error) {
	key := fmt.Sprintf("notif:dedup:%s:%d:%d", msg.Topic, msg.Partition, msg.Offset)
	return d.rdb.SetNX(ctx, key, "1", d.ttl).Result()
}
