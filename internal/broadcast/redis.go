package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"realtime-service/internal/observability"
	"realtime-service/internal/ws"
)

const defaultQueueSize = 1024

// Applier receives envelopes published by other nodes.
type Applier interface {
	ApplyRemote(env ws.Envelope)
}

// RedisBackbone forwards hub fan-out between nodes over one Redis pub/sub
// channel. Publish only enqueues; a single goroutine writes to Redis so
// envelopes leave in the order the hub produced them.
type RedisBackbone struct {
	client  *redis.Client
	channel string
	queue   chan ws.Envelope
}

// NewRedisBackbone builds a backbone on channel.
func NewRedisBackbone(client *redis.Client, channel string, queueSize int) *RedisBackbone {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &RedisBackbone{client: client, channel: channel, queue: make(chan ws.Envelope, queueSize)}
}

// Publish queues env for other nodes. When the queue is full the envelope is
// dropped and counted; remote members miss that frame.
func (b *RedisBackbone) Publish(env ws.Envelope) {
	select {
	case b.queue <- env:
	default:
		observability.IncBackboneEnvelope("out", "dropped")
		log.Printf("backbone queue full, dropping room=%s event=%s", env.Room, env.Event)
	}
}

// Run publishes queued envelopes and applies envelopes from other nodes to
// hub until ctx is cancelled.
func (b *RedisBackbone) Run(ctx context.Context, hub Applier) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	log.Printf("backbone subscribed channel=%s", b.channel)

	go b.publishLoop(ctx)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			env, err := decodeEnvelope(msg.Payload)
			if err != nil {
				observability.IncBackboneEnvelope("in", "error")
				log.Printf("backbone decode failed: %v", err)
				continue
			}
			hub.ApplyRemote(env)
			observability.IncBackboneEnvelope("in", "ok")
		}
	}
}

func (b *RedisBackbone) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-b.queue:
			payload, err := json.Marshal(env)
			if err != nil {
				observability.IncBackboneEnvelope("out", "error")
				log.Printf("backbone encode failed room=%s: %v", env.Room, err)
				continue
			}
			if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
				observability.IncBackboneEnvelope("out", "error")
				log.Printf("backbone publish failed room=%s event=%s: %v", env.Room, env.Event, err)
				continue
			}
			observability.IncBackboneEnvelope("out", "ok")
		}
	}
}

func decodeEnvelope(payload string) (ws.Envelope, error) {
	var env ws.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return ws.Envelope{}, err
	}
	if env.Node == "" || env.Room == "" || len(env.Frame) == 0 {
		return ws.Envelope{}, fmt.Errorf("incomplete envelope node=%q room=%q", env.Node, env.Room)
	}
	return env, nil
}

// Ping checks the Redis connection.
func (b *RedisBackbone) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
