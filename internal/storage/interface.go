package storage

import (
	"context"
	"time"

	"github.com/tunehive/partyhub/internal/model"
)

// Storage defines the interface for data persistence.
//
// Parties are stored as aggregates: participants and the playlist travel
// with the party and are destroyed with it. Implementations own the
// cross-party membership invariants: a user may host or participate in at
// most one active party, and the check-and-insert performed by CreateParty
// and AddParticipant is atomic, never a read followed by an independent
// write.
type Storage interface {
	// Party operations. CreateParty assigns ids, creates the empty playlist
	// and the host participant, and fails with ErrAlreadyHosting or
	// ErrAlreadyInParty if the host already belongs to an active party.
	CreateParty(ctx context.Context, party *model.Party) (*model.Party, error)
	GetParty(ctx context.Context, id model.PartyID) (*model.Party, error)
	ListParties(ctx context.Context) ([]*model.Party, error)
	UpdateParty(ctx context.Context, id model.PartyID, patch model.PartyPatch) (*model.Party, error)
	DeleteParty(ctx context.Context, id model.PartyID) error

	// Participant operations. AddParticipant enforces the same membership
	// invariants as CreateParty. RemoveParticipant returns
	// ErrParticipantNotFound when no matching row exists; callers treat
	// that as an expected outcome.
	AddParticipant(ctx context.Context, partyID model.PartyID, userID model.UserID, role model.ParticipantRole, joinedAt time.Time) (*model.Participant, error)
	RemoveParticipant(ctx context.Context, partyID model.PartyID, userID model.UserID) (*model.Participant, error)
	FindActivePartyForUser(ctx context.Context, userID model.UserID) (*model.Party, error)

	// Playlist operations. InsertPlaylistEntry assigns the next position
	// (max existing + 1) atomically with the insert. RemovePlaylistEntry
	// does not renumber remaining entries.
	InsertPlaylistEntry(ctx context.Context, partyID model.PartyID, songID model.SongID, addedBy model.UserID, addedAt time.Time) (*model.PlaylistEntry, error)
	RemovePlaylistEntry(ctx context.Context, partyID model.PartyID, songID model.SongID) (*model.PlaylistEntry, error)

	// Song catalog operations
	SaveSong(ctx context.Context, song *model.Song) error
	GetSong(ctx context.Context, id model.SongID) (*model.Song, error)

	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
}
