// Package runner is the client-side quiz state machine. It is driven
// by protocol events on one side and answer selections (or countdown
// expiry) on the other, and emits score updates back through an Emitter.
package runner

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/rathi22/quizzia/internal/domain"
)

// State is the runner's lifecycle position.
type State int

const (
	StateNoRoom State = iota
	StateInRoom
	StateInGame
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNoRoom:
		return "no-room"
	case StateInRoom:
		return "in-room"
	case StateInGame:
		return "in-game"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// DefaultQuestionTime matches the lobby's advertised countdown.
const DefaultQuestionTime = 15 * time.Second

// Emitter sends a client→server event. Emission is fire-and-forget;
// the runner logs and continues on failure.
type Emitter interface {
	Emit(event string, data any) error
}

// Entry is one leaderboard row as rendered to the local player.
type Entry struct {
	Name   string
	Score  int
	IsSelf bool
}

// Runner steps a single player through a quiz.
type Runner struct {
	mu           sync.Mutex
	emitter      Emitter
	playerName   string
	questionTime time.Duration

	state     State
	roomID    string
	category  string
	players   []domain.Player
	questions []domain.RenderedQuestion
	index     int
	score     int

	timer *time.Timer
	// gen invalidates in-flight timer callbacks; a fired timer whose
	// generation no longer matches must not touch state.
	gen uint64
}

func New(playerName string, emitter Emitter, questionTime time.Duration) *Runner {
	if questionTime <= 0 {
		questionTime = DefaultQuestionTime
	}
	return &Runner{
		emitter:      emitter,
		playerName:   playerName,
		questionTime: questionTime,
	}
}

// JoinRoom subscribes the runner to a room's broadcast group.
func (r *Runner) JoinRoom(roomID string) {
	r.mu.Lock()
	r.state = StateInRoom
	r.roomID = roomID
	r.mu.Unlock()

	r.emit("join_room", map[string]any{"roomId": roomID, "name": r.playerName})
}

// StartGame asks the server to begin; only meaningful for the host.
func (r *Runner) StartGame(category string) {
	r.mu.Lock()
	roomID := r.roomID
	r.mu.Unlock()

	r.emit("start_game", map[string]any{"roomId": roomID, "category": category})
}

// HandleEvent consumes one server→client broadcast.
func (r *Runner) HandleEvent(event string, data json.RawMessage) error {
	switch event {
	case "room_update":
		var room domain.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return fmt.Errorf("room_update: %w", err)
		}
		r.mu.Lock()
		r.players = room.Players
		r.mu.Unlock()

	case "game_started":
		var payload struct {
			RoomID    string                    `json:"roomId"`
			Category  string                    `json:"category"`
			Players   []domain.Player           `json:"players"`
			Questions []domain.RenderedQuestion `json:"questions"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("game_started: %w", err)
		}
		r.mu.Lock()
		r.category = payload.Category
		r.players = payload.Players
		r.questions = payload.Questions
		r.index = 0
		r.score = 0
		if len(payload.Questions) == 0 {
			// Nothing to run; the server degraded to an empty set or
			// this client joined after the broadcast.
			r.state = StateInRoom
			r.stopCountdownLocked()
		} else {
			r.state = StateInGame
			r.startCountdownLocked()
		}
		r.mu.Unlock()

	case "leaderboard_update":
		var players []domain.Player
		if err := json.Unmarshal(data, &players); err != nil {
			return fmt.Errorf("leaderboard_update: %w", err)
		}
		r.mu.Lock()
		r.players = players
		r.mu.Unlock()

	default:
		// Unknown broadcasts are ignored by design.
	}
	return nil
}

// Answer records the player's selection for the current question,
// scores it locally and advances the game.
func (r *Runner) Answer(optionIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInGame || r.index >= len(r.questions) {
		return
	}
	correct := false
	question := r.questions[r.index]
	if optionIndex >= 0 && optionIndex < len(question.Options) {
		correct = question.Options[optionIndex].IsCorrect
	}
	r.advanceLocked(correct)
}

// Exit discards all local quiz state. The server-side room is untouched.
func (r *Runner) Exit() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopCountdownLocked()
	r.state = StateNoRoom
	r.roomID = ""
	r.category = ""
	r.players = nil
	r.questions = nil
	r.index = 0
	r.score = 0
}

// advanceLocked applies one answer outcome, emits the score update and
// either moves to the next question or finishes the quiz.
func (r *Runner) advanceLocked(correct bool) {
	r.stopCountdownLocked()

	if correct {
		r.score++
	}
	r.emit("update_score", map[string]any{
		"roomId": r.roomID,
		"name":   r.playerName,
		"score":  r.score,
	})

	if r.index+1 < len(r.questions) {
		r.index++
		r.startCountdownLocked()
		return
	}

	r.emit("finish_quiz", map[string]any{
		"roomId": r.roomID,
		"name":   r.playerName,
		"score":  r.score,
	})
	r.state = StateFinished
}

// startCountdownLocked arms the per-question timer. Expiry counts as a
// wrong answer. Any previous timer must already be stopped; the timer
// is cancelled on every transition so a stale callback can never act
// on superseded state.
func (r *Runner) startCountdownLocked() {
	r.gen++
	gen := r.gen
	r.timer = time.AfterFunc(r.questionTime, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen != gen || r.state != StateInGame {
			return
		}
		r.advanceLocked(false)
	})
}

func (r *Runner) stopCountdownLocked() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Runner) emit(event string, data any) {
	if err := r.emitter.Emit(event, data); err != nil {
		log.Printf("emit %s: %v", event, err)
	}
}

// State reports the current lifecycle position.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Question returns the current question and its 1-based position.
func (r *Runner) Question() (domain.RenderedQuestion, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateInGame || r.index >= len(r.questions) {
		return domain.RenderedQuestion{}, 0, len(r.questions)
	}
	return r.questions[r.index], r.index + 1, len(r.questions)
}

// Score reports the local running score.
func (r *Runner) Score() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.score
}

// Category reports the running game's category.
func (r *Runner) Category() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.category
}

// Leaderboard returns the last-known player list sorted by score
// descending, with the local player flagged.
func (r *Runner) Leaderboard() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, len(r.players))
	for _, p := range r.players {
		entries = append(entries, Entry{
			Name:   p.Name,
			Score:  p.Score,
			IsSelf: p.Name == r.playerName,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
