package model

import "time"

// User represents an account known to the system. Credential issuance and
// authentication live outside this service; requests arrive with a resolved
// user id.
type User struct {
	ID          UserID
	DisplayName string
	CreatedAt   time.Time
}

// Song is a catalog entry that playlist entries reference
type Song struct {
	ID              SongID
	Title           string
	Artist          string
	DurationSeconds int
	CreatedAt       time.Time
}
