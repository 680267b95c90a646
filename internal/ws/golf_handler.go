package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/greenside/backend/internal/game"
)

// Inbound message payloads, one per input action.
type ConfirmAngleData struct {
	Angle float64 `json:"angle"`
}

type ConfirmPowerData struct {
	Power    float64 `json:"power"`
	SkipSpin bool    `json:"skip_spin"`
}

type ConfirmSpinData struct {
	Spin game.Vec3 `json:"spin"`
}

type PredictData struct {
	Angle float64 `json:"angle"`
	Power float64 `json:"power"`
}

// GameHub is the single hub for all sessions.
var GameHub *Hub

// bridged tracks sessions whose event bus is already forwarded to the hub.
var bridged sync.Map

func init() {
	GameHub = NewHub()
	go runGameHub(GameHub)
}

// HandleWebSocket upgrades a presentation client onto a session room. The
// session token doubles as the access credential, as in the query-param
// player tokens this service has always used.
func HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}

	s, err := game.Manager.GetSessionByToken(token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	RegisterSessionEvents(s)

	client := &Client{
		conn:         conn,
		sessionToken: token,
		send:         make(chan []byte, 256),
	}

	GameHub.register <- client

	go client.writePump()
	go client.readPump()
}

func runGameHub(h *Hub) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.sessionToken]; !ok {
				h.rooms[client.sessionToken] = make(map[*Client]bool)
			}
			h.rooms[client.sessionToken][client] = true
			h.mu.Unlock()
			log.Printf("[WS] client joined session %s", client.sessionToken)

			if s, err := game.Manager.GetSessionByToken(client.sessionToken); err == nil {
				state := s.Snapshot()
				client.sendJSON(map[string]interface{}{"type": "session_state", "state": state})
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.sessionToken]; ok {
				if room[client] {
					delete(room, client)
					close(client.send)
				}
				if len(room) == 0 {
					delete(h.rooms, client.sessionToken)
				}
			}
			h.mu.Unlock()
			log.Printf("[WS] client left session %s", client.sessionToken)
		}
	}
}

// readPump reads input-action messages for a session.
func (c *Client) readPump() {
	defer func() {
		GameHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(32768)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close for session %s: %v", c.sessionToken, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		c.handleMessage(msg)
	}
}

// handleMessage maps the device-agnostic input actions onto the session.
// Rejected transitions come back as acks with accepted=false; the core
// logged the reason already.
func (c *Client) handleMessage(msg WSMessage) {
	s, err := game.Manager.GetSessionByToken(c.sessionToken)
	if err != nil {
		c.sendError("Session not found")
		return
	}

	switch msg.Type {
	case "start_shot":
		c.ack(msg.Type, s.StartShot())

	case "confirm_angle":
		var data ConfirmAngleData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid angle data")
			return
		}
		c.ack(msg.Type, s.ConfirmAngle(data.Angle))

	case "confirm_power":
		var data ConfirmPowerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid power data")
			return
		}
		c.ack(msg.Type, s.ConfirmPower(data.Power, data.SkipSpin))

	case "confirm_spin":
		var data ConfirmSpinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid spin data")
			return
		}
		c.ack(msg.Type, s.ConfirmSpin(data.Spin))

	case "cancel_shot":
		c.ack(msg.Type, s.CancelShot())

	case "request_bounce":
		c.ack(msg.Type, s.RequestBounce())

	case "predict":
		var data PredictData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid predict data")
			return
		}
		preview := s.PredictShot(data.Angle, data.Power)
		c.sendJSON(map[string]interface{}{"type": "trajectory", "preview": preview})

	case "get_state":
		c.sendJSON(map[string]interface{}{"type": "session_state", "state": s.Snapshot()})

	case "reset":
		if err := s.Reset(); err != nil {
			c.sendError(err.Error())
			return
		}
		c.ack(msg.Type, true)

	default:
		c.sendError("Unknown message type")
	}
}

func (c *Client) ack(op string, accepted bool) {
	c.sendJSON(map[string]interface{}{"type": "ack", "op": op, "accepted": accepted})
}

// RegisterSessionEvents bridges a session's typed event bus onto the hub
// (and the Redis fan-out) exactly once, and starts the pose streamer.
//
// Bus handlers run under the session lock, so they only marshal and enqueue;
// anything that re-enters the session (snapshot mirroring) is deferred to a
// goroutine.
func RegisterSessionEvents(s *game.GolfSession) {
	if _, loaded := bridged.LoadOrStore(s.Token, true); loaded {
		return
	}

	token := s.Token
	forward := func(kind string, payload interface{}) {
		msg := map[string]interface{}{"type": kind, "data": payload, "session": token}
		GameHub.BroadcastToSession(token, msg)
		go publishGolfEvent(msg)
		go mirrorSnapshot(token)
	}

	bus := s.Bus()
	bus.OnShotStarted(func(e game.ShotStartedEvent) { forward("shot_started", e) })
	bus.OnBallStopped(func(e game.BallStoppedEvent) { forward("ball_stopped", e) })
	bus.OnTargetHit(func(e game.TargetHitEvent) { forward("target_hit", e) })
	bus.OnWallClingStart(func(e game.WallClingStartEvent) { forward("wall_cling_start", e) })
	bus.OnWallClingEnd(func(e game.WallClingEndEvent) { forward("wall_cling_end", e) })
	bus.OnGoalReached(func(e game.GoalReachedEvent) { forward("goal_reached", e) })
	bus.OnOutOfBounds(func(e game.OutOfBoundsEvent) { forward("out_of_bounds", e) })
	bus.OnBounce(func(e game.BouncePerformedEvent) { forward("bounce", e) })
	bus.OnCourseLoaded(func(e game.CourseLoadedEvent) { forward("course_loaded", e) })

	go streamPoses(token)
}

func mirrorSnapshot(token string) {
	if s, err := game.Manager.GetSessionByToken(token); err == nil {
		game.Manager.SaveSnapshot(s)
	}
}

// streamPoses pushes ball pose snapshots while the ball is moving, at the
// configured broadcast rate. It exits when the session is gone.
func streamPoses(token string) {
	rate := 20
	if wsConfig != nil && wsConfig.SnapshotRateHz > 0 {
		rate = wsConfig.SnapshotRateHz
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for range ticker.C {
		s, err := game.Manager.GetSessionByToken(token)
		if err != nil {
			bridged.Delete(token)
			return
		}
		if GameHub.RoomSize(token) == 0 {
			continue
		}
		if !s.BallMoving() {
			continue
		}
		snap := s.Snapshot()
		GameHub.BroadcastToSession(token, map[string]interface{}{
			"type": "ball_pose",
			"ball": snap.Ball,
		})
	}
}
