package runner

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rathi22/quizzia/internal/domain"
)

func TestGameStartedEntersInGame(t *testing.T) {
	emitter := &recordingEmitter{}
	r := New("Alice", emitter, time.Hour)
	r.JoinRoom("ABC123")

	if r.State() != StateInRoom {
		t.Fatalf("expected in-room after join, got %s", r.State())
	}
	if got := emitter.events(); len(got) != 1 || got[0].event != "join_room" {
		t.Fatalf("expected join_room emitted, got %+v", got)
	}

	startGame(t, r, 3)
	if r.State() != StateInGame {
		t.Fatalf("expected in-game, got %s", r.State())
	}
	question, position, total := r.Question()
	if position != 1 || total != 3 || question.Text != "question 0" {
		t.Fatalf("expected first question of 3, got %q at %d/%d", question.Text, position, total)
	}
}

func TestAnswerScoresAndAdvances(t *testing.T) {
	emitter := &recordingEmitter{}
	r := New("Alice", emitter, time.Hour)
	r.JoinRoom("ABC123")
	startGame(t, r, 3)

	r.Answer(0) // correct option
	if r.Score() != 1 {
		t.Fatalf("expected score 1, got %d", r.Score())
	}
	if _, position, _ := r.Question(); position != 2 {
		t.Fatalf("expected to advance to question 2, got %d", position)
	}

	last := emitter.last()
	if last.event != "update_score" {
		t.Fatalf("expected update_score emitted, got %s", last.event)
	}
	if last.data["score"] != float64(1) {
		t.Fatalf("expected score 1 in payload, got %v", last.data["score"])
	}

	r.Answer(1) // wrong option
	if r.Score() != 1 {
		t.Fatalf("wrong answer must not score, got %d", r.Score())
	}
}

func TestLastAnswerFinishes(t *testing.T) {
	emitter := &recordingEmitter{}
	r := New("Alice", emitter, time.Hour)
	r.JoinRoom("ABC123")
	startGame(t, r, 2)

	r.Answer(0)
	r.Answer(0)

	if r.State() != StateFinished {
		t.Fatalf("expected finished, got %s", r.State())
	}
	last := emitter.last()
	if last.event != "finish_quiz" {
		t.Fatalf("expected finish_quiz emitted last, got %s", last.event)
	}
	if last.data["score"] != float64(2) {
		t.Fatalf("expected final score 2, got %v", last.data["score"])
	}

	// Finished runners ignore further answers.
	r.Answer(0)
	if r.Score() != 2 {
		t.Fatalf("score must not change after finish, got %d", r.Score())
	}
}

func TestCountdownExpiryIsWrongAnswer(t *testing.T) {
	emitter := &recordingEmitter{}
	r := New("Alice", emitter, 30*time.Millisecond)
	r.JoinRoom("ABC123")
	startGame(t, r, 2)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if r.State() == StateFinished {
			break
		}
		if _, position, _ := r.Question(); position == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("countdown never advanced the question")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if r.Score() != 0 {
		t.Fatalf("expiry must score as wrong, got %d", r.Score())
	}
}

func TestAnswerCancelsCountdown(t *testing.T) {
	emitter := &recordingEmitter{}
	r := New("Alice", emitter, 50*time.Millisecond)
	r.JoinRoom("ABC123")
	startGame(t, r, 10)

	// Answer just before expiry, then wait past the old deadline; the
	// stale timer must not fire a second advance.
	time.Sleep(30 * time.Millisecond)
	r.Answer(0)
	_, position, _ := r.Question()

	time.Sleep(35 * time.Millisecond)
	if _, now, _ := r.Question(); now != position {
		t.Fatalf("stale countdown advanced the question: %d -> %d", position, now)
	}
}

func TestExitDiscardsState(t *testing.T) {
	emitter := &recordingEmitter{}
	r := New("Alice", emitter, time.Hour)
	r.JoinRoom("ABC123")
	startGame(t, r, 2)
	r.Answer(0)

	r.Exit()
	if r.State() != StateNoRoom {
		t.Fatalf("expected no-room after exit, got %s", r.State())
	}
	if r.Score() != 0 {
		t.Fatalf("expected score reset, got %d", r.Score())
	}
}

func TestLeaderboardSortedWithSelfFlag(t *testing.T) {
	emitter := &recordingEmitter{}
	r := New("Bob", emitter, time.Hour)
	r.JoinRoom("ABC123")

	players, _ := json.Marshal([]domain.Player{
		{Name: "Alice", Score: 2},
		{Name: "Bob", Score: 5},
		{Name: "Cara", Score: 3},
	})
	if err := r.HandleEvent("leaderboard_update", players); err != nil {
		t.Fatalf("handle leaderboard: %v", err)
	}

	entries := r.Leaderboard()
	if entries[0].Name != "Bob" || !entries[0].IsSelf {
		t.Fatalf("expected Bob leading and flagged, got %+v", entries[0])
	}
	if entries[1].Name != "Cara" || entries[2].Name != "Alice" {
		t.Fatalf("expected descending order, got %+v", entries)
	}
}

func startGame(t *testing.T, r *Runner, questionCount int) {
	t.Helper()

	questions := make([]domain.RenderedQuestion, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		questions = append(questions, domain.RenderedQuestion{
			Text: "question " + string(rune('0'+i)),
			Options: []domain.RenderedOption{
				{Text: "right", IsCorrect: true},
				{Text: "wrong", IsCorrect: false},
			},
		})
	}
	payload, _ := json.Marshal(map[string]any{
		"roomId":    "ABC123",
		"category":  "animals",
		"players":   []domain.Player{{Name: "Alice"}},
		"questions": questions,
	})
	if err := r.HandleEvent("game_started", payload); err != nil {
		t.Fatalf("handle game_started: %v", err)
	}
}

type emitted struct {
	event string
	data  map[string]any
}

type recordingEmitter struct {
	mu  sync.Mutex
	log []emitted
}

func (e *recordingEmitter) Emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, emitted{event: event, data: decoded})
	return nil
}

func (e *recordingEmitter) events() []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]emitted(nil), e.log...)
}

func (e *recordingEmitter) last() emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.log) == 0 {
		return emitted{}
	}
	return e.log[len(e.log)-1]
}
