package memory

import (
	"crypto/rand"
	"strings"
	"sync"

	"github.com/rathi22/quizzia/internal/domain"
)

const codeLength = 6

// RoomRegistry is the in-memory implementation of app.RoomRegistry.
// Rooms live until the process exits; there is no TTL or cleanup.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*domain.Room)}
}

// Create inserts a new room with the host as player 0 and returns its code.
func (r *RoomRegistry) Create(hostName string) (string, error) {
	if strings.TrimSpace(hostName) == "" {
		return "", domain.ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	roomID := randomRoomCode(codeLength)
	for {
		if _, taken := r.rooms[roomID]; !taken {
			break
		}
		roomID = randomRoomCode(codeLength)
	}

	r.rooms[roomID] = &domain.Room{
		ID:      roomID,
		Host:    hostName,
		Players: []domain.Player{{Name: hostName, Score: 0}},
	}
	return roomID, nil
}

// Join appends a player to the room. Joining after the game started is
// allowed; the late joiner simply never saw the question broadcast.
func (r *RoomRegistry) Join(roomID, playerName string) (domain.Room, error) {
	if strings.TrimSpace(playerName) == "" {
		return domain.Room{}, domain.ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	room.Players = append(room.Players, domain.Player{Name: playerName, Score: 0})
	return snapshotLocked(room), nil
}

// Start marks the room started and installs the rendered question set.
// Calling it again replaces the set with a fresh one.
func (r *RoomRegistry) Start(roomID, category string, questions []domain.RenderedQuestion) (domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	room.Started = true
	room.Category = category
	room.Questions = questions
	return snapshotLocked(room), nil
}

// UpdateScore records the last-reported score for a player. Unknown
// players are never inserted as a side effect of scoring.
func (r *RoomRegistry) UpdateScore(roomID, playerName string, score int) ([]domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	for i := range room.Players {
		if room.Players[i].Name == playerName {
			room.Players[i].Score = score
			return playersLocked(room), nil
		}
	}
	return nil, domain.ErrPlayerNotFound
}

// Snapshot returns a read-only copy of the room.
func (r *RoomRegistry) Snapshot(roomID string) (domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return domain.Room{}, false
	}
	return snapshotLocked(room), true
}

func snapshotLocked(room *domain.Room) domain.Room {
	copied := *room
	copied.Players = playersLocked(room)
	copied.Questions = append([]domain.RenderedQuestion(nil), room.Questions...)
	return copied
}

func playersLocked(room *domain.Room) []domain.Player {
	return append([]domain.Player(nil), room.Players...)
}

// randomRoomCode builds a short human-shareable code from the unbiased
// tail of crypto/rand output, rejecting bytes past the largest multiple
// of the alphabet size.
func randomRoomCode(n int) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const max = byte(255 - (256 % len(letters)))

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		for _, b := range buf {
			if b <= max {
				out = append(out, letters[int(b)%len(letters)])
				if len(out) == n {
					return string(out)
				}
			}
		}
	}
}
