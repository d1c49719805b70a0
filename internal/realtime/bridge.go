package realtime

import (
    "context"
    "encoding/json"
    "log"

    "github.com/redis/go-redis/v9"
)

// RedisBridge fans channel messages out across server instances. Publish
// writes to a Redis channel; a Run loop on every instance (including the
// publishing one) receives the message and replays it into the local Hub.
// Local delivery therefore always goes through Redis, which keeps single-
// and multi-instance behavior identical and avoids double delivery.
type RedisBridge struct {
    rdb *redis.Client
    hub *Hub
}

// redisChannelPrefix namespaces pairing traffic inside Redis Pub/Sub.
const redisChannelPrefix = "cardlink:"

// NewRedisBridge wires a bridge between rdb and hub. rdb must be non-nil;
// callers without Redis should publish straight to the Hub instead.
func NewRedisBridge(rdb *redis.Client, hub *Hub) *RedisBridge {
    return &RedisBridge{rdb: rdb, hub: hub}
}

// wireMessage is the JSON shape carried over Redis.
type wireMessage struct {
    Channel string          `json:"channel"`
    Event   string          `json:"event"`
    Payload json.RawMessage `json:"payload"`
}

// Publish serializes the message and hands it to Redis. The local Hub is
// not written here; the Run loop delivers it.
func (b *RedisBridge) Publish(ctx context.Context, channel string, msg Message) error {
    payload, err := json.Marshal(msg.Payload)
    if err != nil {
        return err
    }
    body, err := json.Marshal(wireMessage{Channel: channel, Event: msg.Event, Payload: payload})
    if err != nil {
        return err
    }
    return b.rdb.Publish(ctx, redisChannelPrefix+channel, body).Err()
}

// Run subscribes to all pairing channels and replays received messages into
// the local Hub until ctx is cancelled. Malformed messages are logged and
// skipped so one bad payload cannot wedge the loop.
func (b *RedisBridge) Run(ctx context.Context) {
    sub := b.rdb.PSubscribe(ctx, redisChannelPrefix+"*")
    defer func() { _ = sub.Close() }()
    ch := sub.Channel()
    for {
        select {
        case <-ctx.Done():
            return
        case m, ok := <-ch:
            if !ok {
                return
            }
            var wire wireMessage
            if err := json.Unmarshal([]byte(m.Payload), &wire); err != nil {
                log.Printf("realtime: dropping malformed bridge message: %v", err)
                continue
            }
            _ = b.hub.Publish(ctx, wire.Channel, Message{
                Event:   wire.Event,
                Payload: wire.Payload,
            })
        }
    }
}
