package infra

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// pushEnvelope is what display clients receive on the realtime channel.
type pushEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// PushChannel broadcasts (eventName, payload) to all connected display
// clients via Redis pub/sub. The websocket gateway that fans messages out to
// browsers subscribes on the same channel; from this service's perspective
// the push is fire-and-forget.
type PushChannel struct {
	rdb     *redis.Client
	channel string
}

func NewPushChannel(rdb *redis.Client, channel string) *PushChannel {
	return &PushChannel{rdb: rdb, channel: channel}
}

// Push marshals payload and publishes it. A subscriber count of zero is not
// an error — nobody watching the displays is a valid state.
func (p *PushChannel) Push(ctx context.Context, eventName string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(pushEnvelope{Event: eventName, Payload: data})
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.channel, msg).Err(); err != nil {
		return err
	}
	log.Debug().Str("event", eventName).Str("channel", p.channel).Msg("push: published")
	return nil
}
