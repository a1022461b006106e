package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRoomRegistrySetsLivenessKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	registry := NewRoomRegistry(client, time.Minute)

	roomID, err := registry.Create("Alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("quiz:room:" + roomID) {
		t.Fatalf("expected redis liveness key for %s", roomID)
	}

	if _, err := registry.Start(roomID, "animals", nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	room, ok := registry.Snapshot(roomID)
	if !ok || !room.Started {
		t.Fatalf("expected started room, got %+v", room)
	}
}
