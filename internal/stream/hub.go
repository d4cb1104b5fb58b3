package stream

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans live run events out to websocket subscribers. With a redis client
// attached, events also cross node boundaries via pub/sub.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	RunID string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(runID string) *Client {
	client := &Client{
		RunID: runID,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[runID] == nil {
		h.clients[runID] = map[*Client]struct{}{}
	}
	h.clients[runID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if runClients, ok := h.clients[client.RunID]; ok {
		delete(runClients, client)
		if len(runClients) == 0 {
			delete(h.clients, client.RunID)
		}
	}
	close(client.Send)
}

// Broadcast delivers a payload to subscribers of the run. With redis
// attached, delivery routes through pub/sub so every node sees the event
// exactly once; local subscribers receive it via the subscription. Slow
// clients drop messages.
func (h *Hub) Broadcast(runID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(runID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error, delivering locally: %v", err)
	}
	h.deliver(runID, payload)
}

func (h *Hub) deliver(runID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[runID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redis.PSubscribe(context.Background(), "run:*:live")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		if runID := runIDFromChannel(msg.Channel); runID != "" {
			h.deliver(runID, []byte(msg.Payload))
		}
	}
}

func redisChannel(runID string) string {
	return "run:" + runID + ":live"
}

func runIDFromChannel(ch string) string {
	// run:{id}:live
	const prefix = "run:"
	const suffix = ":live"
	if !strings.HasPrefix(ch, prefix) || !strings.HasSuffix(ch, suffix) || len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
