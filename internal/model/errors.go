package model

import "errors"

// Common errors used across the application
var (
	// Not-found errors
	ErrPartyNotFound       = errors.New("party not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrSongNotFound        = errors.New("song not found")
	ErrSongNotInPlaylist   = errors.New("song is not in the playlist")
	ErrParticipantNotFound = errors.New("participant not found")

	// Membership conflicts
	ErrAlreadyInParty = errors.New("user is already in an active party")
	ErrAlreadyHosting = errors.New("user is already hosting an active party")
	ErrNotHost        = errors.New("user is not the party host")

	// State errors
	ErrPartyNotActive = errors.New("party is not active")
	ErrNoActiveParty  = errors.New("user is not in any active party")
)
