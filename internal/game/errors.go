package game

import "errors"

var (
	ErrRoomNotFound          = errors.New("room not found")
	ErrRoomFull              = errors.New("room full")
	ErrNoColorAvailable      = errors.New("no color available")
	ErrUnknownPlayer         = errors.New("unknown player")
	ErrNotEnoughReadyPlayers = errors.New("not enough ready players")
	ErrWrongPhase            = errors.New("wrong phase for this action")
	ErrAlreadySubmitted      = errors.New("guess already submitted this round")
	ErrNoPhotos              = errors.New("no photos available")
	ErrSessionNotFound       = errors.New("session not found")
)
