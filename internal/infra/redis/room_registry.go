package redis

import (
	"context"
	"time"

	"github.com/rathi22/quizzia/internal/domain"
	"github.com/rathi22/quizzia/internal/infra/memory"
	"github.com/redis/go-redis/v9"
)

// RoomRegistry is a Redis-aware room registry.
// Notes:
//   - Room state itself stays in the local in-memory registry so the
//     broadcast path never depends on a round trip.
//   - Redis holds liveness markers per room code (and could be extended
//     to share snapshots or route cross-instance pub/sub).
type RoomRegistry struct {
	*memory.RoomRegistry
	client *redis.Client
	ttl    time.Duration
}

func NewRoomRegistry(client *redis.Client, ttl time.Duration) *RoomRegistry {
	return &RoomRegistry{
		RoomRegistry: memory.NewRoomRegistry(),
		client:       client,
		ttl:          ttl,
	}
}

func (r *RoomRegistry) Create(hostName string) (string, error) {
	roomID, err := r.RoomRegistry.Create(hostName)
	if err != nil {
		return "", err
	}
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(roomID), "1", r.ttl).Err()
	return roomID, nil
}

func (r *RoomRegistry) Start(roomID, category string, questions []domain.RenderedQuestion) (domain.Room, error) {
	room, err := r.RoomRegistry.Start(roomID, category, questions)
	if err != nil {
		return domain.Room{}, err
	}
	// refresh the marker; a started room is active again
	_ = r.client.Set(context.Background(), r.key(roomID), "1", r.ttl).Err()
	return room, nil
}

func (r *RoomRegistry) key(roomID string) string {
	return "quiz:room:" + roomID
}
