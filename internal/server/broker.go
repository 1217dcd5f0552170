package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event is the payload published to team subscribers.
type Event struct {
	Type       string `json:"type"`
	TaskID     int64  `json:"task_id,omitempty"`
	TaskNumber int    `json:"task_number,omitempty"`
	TeamID     int64  `json:"team_id,omitempty"`
}

// envelope wraps an Event on the redis wire. Origin identifies the
// publishing instance so it can skip messages it already delivered to
// its own local subscribers.
type envelope struct {
	Origin string          `json:"origin"`
	TeamID int64           `json:"team_id"`
	Data   json.RawMessage `json:"data"`
}

const eventChannelPrefix = "questhunt.events."

// Broker fans out team events to SSE subscribers. Local delivery is an
// in-process map of channels; when a redis client is configured,
// events are also published through redis pub/sub so every instance
// serving the same team sees them. With a nil client the broker is
// purely local.
type Broker struct {
	logger     *slog.Logger
	rdb        *redis.Client
	instanceID string

	mu   sync.RWMutex
	subs map[int64]map[chan []byte]struct{}
}

func NewBroker(logger *slog.Logger, rdb *redis.Client) *Broker {
	return &Broker{
		logger:     logger,
		rdb:        rdb,
		instanceID: uuid.NewString(),
		subs:       make(map[int64]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for
// the given team.
func (b *Broker) Subscribe(teamID int64) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[teamID] == nil {
		b.subs[teamID] = make(map[chan []byte]struct{})
	}
	b.subs[teamID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the team's subscribers.
func (b *Broker) Unsubscribe(teamID int64, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[teamID], ch)
	if len(b.subs[teamID]) == 0 {
		delete(b.subs, teamID)
	}
	b.mu.Unlock()
}

// Publish delivers an event to this instance's subscribers and, when
// redis is configured, to every other instance through pub/sub.
func (b *Broker) Publish(ctx context.Context, teamID int64, event Event) {
	data, _ := json.Marshal(event)
	b.deliver(teamID, data)

	if b.rdb == nil {
		return
	}
	payload, _ := json.Marshal(envelope{
		Origin: b.instanceID,
		TeamID: teamID,
		Data:   data,
	})
	channel := eventChannelPrefix + strconv.FormatInt(teamID, 10)
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Error("publishing event to redis", "team_id", teamID, "error", err)
	}
}

func (b *Broker) deliver(teamID int64, data []byte) {
	b.mu.RLock()
	for ch := range b.subs[teamID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Listen relays events published by other instances to local
// subscribers. It blocks until ctx is canceled. With no redis client
// there is nothing to relay.
func (b *Broker) Listen(ctx context.Context) error {
	if b.rdb == nil {
		<-ctx.Done()
		return nil
	}

	sub := b.rdb.PSubscribe(ctx, eventChannelPrefix+"*")
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("dropping malformed event payload", "channel", msg.Channel, "error", err)
				continue
			}
			if env.Origin == b.instanceID {
				// Already delivered locally at publish time.
				continue
			}
			b.deliver(env.TeamID, env.Data)
		}
	}
}
