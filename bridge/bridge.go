// Package bridge rebroadcasts relay frames across server instances through
// a redis pub/sub channel so viewers connected to different instances
// converge on the same state.
package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban-api/relay"
)

const outboxBuffer = 1024

type envelope struct {
	Instance string      `json:"instance"`
	Frame    relay.Frame `json:"frame"`
}

// Bridge publishes local frames and re-broadcasts frames that originated
// on other instances. Publishing is fire-and-forget: a saturated outbox
// drops the frame rather than block a mutation.
type Bridge struct {
	rc       *redis.Client
	channel  string
	instance string
	logger   *log.Logger
	outbox   chan relay.Frame
}

// New creates a bridge over the given redis client and channel.
func New(rc *redis.Client, channel string, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Bridge{
		rc:       rc,
		channel:  channel,
		instance: uuid.NewString(),
		logger:   logger,
		outbox:   make(chan relay.Frame, outboxBuffer),
	}
}

// Publish queues a frame for cross-instance delivery.
func (b *Bridge) Publish(f relay.Frame) {
	select {
	case b.outbox <- f:
	default:
		b.logger.Warn("bridge outbox saturated, frame dropped")
	}
}

// Run pumps the outbox to redis and feeds foreign frames into broadcast
// until the context is done. The subscription reconnects on channel loss.
func (b *Bridge) Run(ctx context.Context, broadcast func(relay.Frame)) {
	go b.publishLoop(ctx)

	for {
		sub := b.rc.Subscribe(ctx, b.channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.logger.WithError(err).Error("unable to parse bridge frame")
					continue
				}
				if env.Instance == b.instance {
					continue
				}
				broadcast(env.Frame)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		b.logger.Error("bridge pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}

func (b *Bridge) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-b.outbox:
			data, err := json.Marshal(envelope{Instance: b.instance, Frame: f})
			if err != nil {
				b.logger.WithError(err).Error("marshal bridge frame")
				continue
			}
			if err := b.rc.Publish(ctx, b.channel, data).Err(); err != nil {
				b.logger.WithError(err).Error("publish bridge frame")
			}
		}
	}
}
