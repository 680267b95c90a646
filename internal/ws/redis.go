package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/greenside/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

const golfEventChannel = "golf_events"

var (
	redisClient *redis.Client
	wsConfig    *config.Config

	// instanceID lets the subscriber skip events this process published
	// itself, so clients on the originating instance never see doubles.
	instanceID = newInstanceID()
)

func newInstanceID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		log.Printf("[WS] instance id fallback: %v", err)
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// SetRedisClient wires the shared Redis client and config into the ws layer.
func SetRedisClient(client *redis.Client, cfg *config.Config) {
	redisClient = client
	wsConfig = cfg
}

type golfEventEnvelope struct {
	Origin  string          `json:"origin"`
	Session string          `json:"session"`
	Payload json.RawMessage `json:"payload"`
}

// publishGolfEvent mirrors a session event onto the cross-instance channel.
// Best effort: a dead Redis never blocks gameplay.
func publishGolfEvent(message map[string]interface{}) {
	if redisClient == nil {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return
	}
	token, _ := message["session"].(string)

	env, err := json.Marshal(golfEventEnvelope{
		Origin:  instanceID,
		Session: token,
		Payload: payload,
	})
	if err != nil {
		return
	}

	if err := redisClient.Publish(context.Background(), golfEventChannel, env).Err(); err != nil {
		log.Printf("[WS] redis publish error: %v", err)
	}
}

// StartGolfEventSubscriber fans events published by other instances out to
// local rooms for the same session.
func StartGolfEventSubscriber(ctx context.Context) {
	if redisClient == nil {
		return
	}

	go func() {
		sub := redisClient.Subscribe(ctx, golfEventChannel)
		defer sub.Close()

		log.Printf("[WS] subscribed to %s", golfEventChannel)

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env golfEventEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					continue
				}
				if env.Origin == instanceID || env.Session == "" {
					continue
				}
				if GameHub.RoomSize(env.Session) == 0 {
					continue
				}
				var payload map[string]interface{}
				if err := json.Unmarshal(env.Payload, &payload); err != nil {
					continue
				}
				GameHub.BroadcastToSession(env.Session, payload)
			}
		}
	}()
}
