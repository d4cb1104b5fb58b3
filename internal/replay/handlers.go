package replay

import (
	"context"
	"encoding/json"
	"sync"

	"backend-fitlog/internal/run"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// wsWriter serializes writes; frames and command replies share one socket.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) write(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}

func (w *wsWriter) writeError(msg string) {
	payload, _ := json.Marshal(fiber.Map{"type": "error", "error": msg})
	_ = w.write(payload)
}

// WaypointLister is the slice of the run store replay needs.
type WaypointLister interface {
	ListWaypoints(ctx context.Context, runID string) ([]run.Waypoint, error)
}

type command struct {
	Action string `json:"action"` // play | scrub | stop
	Speed  int    `json:"speed,omitempty"`
	Index  int    `json:"index,omitempty"`
}

func RegisterRoutes(r fiber.Router, store WaypointLister) {
	r.Get("/:id/replay", func(c *fiber.Ctx) error {
		waypoints, err := store.ListWaypoints(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if len(waypoints) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "run has no recorded route")
		}
		return c.JSON(fiber.Map{
			"run_id":   c.Params("id"),
			"segments": BuildSegments(waypoints),
		})
	})

	r.Get("/:id/replay/ws", websocket.New(func(c *websocket.Conn) {
		out := &wsWriter{conn: c}

		waypoints, err := store.ListWaypoints(context.Background(), c.Params("id"))
		if err != nil || len(waypoints) == 0 {
			out.writeError("run has no recorded route")
			return
		}

		player, err := NewPlayer(waypoints)
		if err != nil {
			out.writeError(err.Error())
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for frame := range player.Frames() {
				payload, err := json.Marshal(frame)
				if err != nil {
					continue
				}
				if err := out.write(payload); err != nil {
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			var cmd command
			if err := json.Unmarshal(msg, &cmd); err != nil {
				out.writeError("bad command")
				continue
			}
			switch cmd.Action {
			case "play":
				speed := cmd.Speed
				if speed == 0 {
					speed = 1
				}
				if err := player.Play(speed); err != nil {
					out.writeError(err.Error())
				}
			case "scrub":
				if err := player.Scrub(cmd.Index); err != nil {
					out.writeError(err.Error())
				}
			case "stop":
				player.Stop()
			default:
				out.writeError("unknown action")
			}
		}

		player.Close()
		<-done
	}))
}
