package app

import (
	"context"
	"log"

	"github.com/rathi22/quizzia/internal/domain"
	"github.com/rathi22/quizzia/internal/quiz"
)

// RoomRegistry abstracts how live rooms are stored (in-memory, Redis-marked, etc).
type RoomRegistry interface {
	Create(hostName string) (string, error)
	Join(roomID, playerName string) (domain.Room, error)
	Start(roomID, category string, questions []domain.RenderedQuestion) (domain.Room, error)
	UpdateScore(roomID, playerName string, score int) ([]domain.Player, error)
	Snapshot(roomID string) (domain.Room, bool)
}

// QuestionRepository loads category question lists (from cache/backing store).
type QuestionRepository interface {
	Category(ctx context.Context, category string) ([]domain.Question, error)
	Categories(ctx context.Context) ([]string, error)
}

// RoomService contains the room and quiz use cases.
type RoomService struct {
	registry  RoomRegistry
	questions QuestionRepository
	selector  *quiz.Selector
	limit     int
}

func NewRoomService(registry RoomRegistry, questions QuestionRepository, selector *quiz.Selector, limit int) *RoomService {
	if limit <= 0 {
		limit = quiz.DefaultLimit
	}
	return &RoomService{
		registry:  registry,
		questions: questions,
		selector:  selector,
		limit:     limit,
	}
}

// CreateRoom opens a new room with the host as its first player.
func (s *RoomService) CreateRoom(hostName string) (string, error) {
	return s.registry.Create(hostName)
}

// JoinRoom appends a player and returns the room snapshot for broadcast.
func (s *RoomService) JoinRoom(roomID, playerName string) (domain.Room, error) {
	return s.registry.Join(roomID, playerName)
}

// StartGame builds a fresh quiz for the room's category and marks the
// room started. A failing question load degrades to an empty question
// set rather than aborting the game; only a missing room is an error,
// which callers on the realtime path log and drop.
func (s *RoomService) StartGame(ctx context.Context, roomID, category string) (domain.Room, error) {
	raw, err := s.questions.Category(ctx, category)
	if err != nil {
		log.Printf("start game %s: loading category %q: %v", roomID, category, err)
		raw = nil
	}
	return s.registry.Start(roomID, category, s.selector.Select(raw, s.limit))
}

// ReportScore records a player's last-reported score and returns the
// player list for the leaderboard broadcast. The server does not
// validate the score; clients compute correctness locally.
func (s *RoomService) ReportScore(roomID, playerName string, score int) ([]domain.Player, error) {
	return s.registry.UpdateScore(roomID, playerName, score)
}

// Snapshot returns the room's current state, if the room exists.
func (s *RoomService) Snapshot(roomID string) (domain.Room, bool) {
	return s.registry.Snapshot(roomID)
}

// Quiz serves the legacy single-player flow: a one-shot rendered quiz
// for a category, with load errors surfaced to the caller.
func (s *RoomService) Quiz(ctx context.Context, category string) ([]domain.RenderedQuestion, error) {
	raw, err := s.questions.Category(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.selector.Select(raw, s.limit), nil
}

// Categories lists the categories a lobby can offer.
func (s *RoomService) Categories(ctx context.Context) ([]string, error) {
	return s.questions.Categories(ctx)
}
