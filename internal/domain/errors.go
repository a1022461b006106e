package domain

import "errors"

var (
	// ErrInvalidName is returned when a player or host name is empty.
	ErrInvalidName = errors.New("player name must not be empty")
	// ErrRoomNotFound is returned when a room code does not match a live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrPlayerNotFound is returned when a score update names an unknown player.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrCategoryNotFound indicates the requested category has no question data.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrDataLoad indicates the question bank could not be read.
	ErrDataLoad = errors.New("could not load questions")
)
