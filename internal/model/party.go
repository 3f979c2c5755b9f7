package model

import "time"

// PartyID uniquely identifies a party
type PartyID int64

// UserID uniquely identifies a user across the system
type UserID int64

// SongID uniquely identifies a song in the catalog
type SongID int64

// PartyStatus represents the lifecycle state of a party
type PartyStatus string

const (
	PartyStatusActive PartyStatus = "active"
	PartyStatusEnded  PartyStatus = "ended" // Terminal, no transition back
)

// ParticipantRole distinguishes the host from regular members
type ParticipantRole string

const (
	RoleHost   ParticipantRole = "host"
	RoleMember ParticipantRole = "member"
)

// Participant represents a user's membership in a party
type Participant struct {
	ID       int64
	PartyID  PartyID
	UserID   UserID
	Role     ParticipantRole
	JoinedAt time.Time
}

// PlaylistEntry is a song queued in a party's playlist.
// Position is unique per playlist and monotonically assigned; removing an
// entry never renumbers the others, so gaps are expected.
type PlaylistEntry struct {
	ID            int64
	PlaylistID    int64
	SongID        SongID
	AddedByUserID UserID
	Position      int
	AddedAt       time.Time
}

// Playlist is the ordered song queue shared by a party's members.
// Created together with its party (1:1) and destroyed with it.
type Playlist struct {
	ID      int64
	PartyID PartyID
	Entries []PlaylistEntry
}

// NextPosition returns the position to assign to a newly added entry
func (p *Playlist) NextPosition() int {
	max := 0
	for _, e := range p.Entries {
		if e.Position > max {
			max = e.Position
		}
	}
	return max + 1
}

// FindEntryBySong returns the entry referencing the given song, or nil
func (p *Playlist) FindEntryBySong(songID SongID) *PlaylistEntry {
	for i := range p.Entries {
		if p.Entries[i].SongID == songID {
			return &p.Entries[i]
		}
	}
	return nil
}

// Party is a collaborative listening session with one host and a shared
// playlist. Participants and the playlist are stored inline as part of the
// party aggregate.
type Party struct {
	ID           PartyID
	Name         string
	Status       PartyStatus
	HostUserID   UserID
	Participants []Participant
	Playlist     Playlist

	// Playback cursor, mirrored from client relay messages (last write wins)
	CurrentlyPlayingSongID *SongID
	IsPlaying              bool
	CurrentPosition        float64 // seconds

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetHost returns the host participant, or nil if none
func (p *Party) GetHost() *Participant {
	for i := range p.Participants {
		if p.Participants[i].Role == RoleHost {
			return &p.Participants[i]
		}
	}
	return nil
}

// GetParticipant returns the participant for the given user, or nil
func (p *Party) GetParticipant(userID UserID) *Participant {
	for i := range p.Participants {
		if p.Participants[i].UserID == userID {
			return &p.Participants[i]
		}
	}
	return nil
}

// IsActive reports whether the party is accepting joins and playlist changes
func (p *Party) IsActive() bool {
	return p.Status == PartyStatusActive
}

// PartyPatch is a partial update to a party; nil fields are left unchanged
type PartyPatch struct {
	Name      *string
	Status    *PartyStatus
	UpdatedAt time.Time
}
