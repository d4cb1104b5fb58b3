package stream

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcastLocal(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("run-1")
	defer hub.Unregister(client)

	hub.Broadcast("run-1", []byte("hello"))

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubChannelNaming(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "run:abc:live" {
		t.Fatalf("unexpected channel: %s", ch)
	}
	if runIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected run id")
	}
	if runIDFromChannel("bad") != "" {
		t.Fatalf("expected empty run id")
	}
	if runIDFromChannel("run::live") != "" {
		t.Fatalf("expected empty run id for empty segment")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("run-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("run-redis")
	defer hub.Unregister(ws)

	// The subscription needs a moment before publishes reach it.
	time.Sleep(20 * time.Millisecond)
	hub.Broadcast("run-redis", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}
}

func TestHubRedisDownFallsBackToLocal(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("run-bad")
	defer hub.Unregister(ws)

	hub.Broadcast("run-bad", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("local fallback did not deliver")
	}
}
