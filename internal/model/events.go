package model

import "time"

// EventType identifies the type of event sent to connected clients
type EventType string

const (
	// Party lifecycle events
	EventPartyCreated       EventType = "PartyCreated"       // global
	EventPartyDeleted       EventType = "PartyDeleted"       // party group
	EventPartyDeletedGlobal EventType = "PartyDeletedGlobal" // global
	EventUserJoinedParty    EventType = "UserJoinedParty"    // party group
	EventUserLeftParty      EventType = "UserLeftParty"      // party group

	// Playlist events
	EventSongAdded   EventType = "SongAdded"   // party group
	EventSongRemoved EventType = "SongRemoved" // party group

	// Playback transport events, relayed verbatim
	EventPlaySong  EventType = "PlaySong"
	EventPauseSong EventType = "PauseSong"
	EventSeekSong  EventType = "SeekSong"
	EventStopSong  EventType = "StopSong"

	// Connection handshake
	EventConnected EventType = "Connected"
)

// ParticipantSnapshot is a participant as carried on the wire
type ParticipantSnapshot struct {
	ID       int64           `json:"id"`
	PartyID  PartyID         `json:"partyId"`
	UserID   UserID          `json:"userId"`
	Role     ParticipantRole `json:"role"`
	JoinedAt time.Time       `json:"joinedAt"`
}

// PlaylistEntrySnapshot is a playlist entry as carried on the wire
type PlaylistEntrySnapshot struct {
	ID            int64     `json:"id"`
	SongID        SongID    `json:"songId"`
	AddedByUserID UserID    `json:"addedByUserId"`
	Position      int       `json:"position"`
	AddedAt       time.Time `json:"addedAt"`
}

// PlaylistSnapshot is a playlist as carried on the wire
type PlaylistSnapshot struct {
	ID      int64                   `json:"id"`
	Entries []PlaylistEntrySnapshot `json:"entries"`
}

// PartySnapshot is the full party state carried by PartyCreated, with the
// same camelCase field casing as every other event payload
type PartySnapshot struct {
	ID                     PartyID               `json:"id"`
	Name                   string                `json:"name"`
	Status                 PartyStatus           `json:"status"`
	HostUserID             UserID                `json:"hostUserId"`
	Participants           []ParticipantSnapshot `json:"participants"`
	Playlist               PlaylistSnapshot      `json:"playlist"`
	CurrentlyPlayingSongID *SongID               `json:"currentlyPlayingSongId,omitempty"`
	IsPlaying              bool                  `json:"isPlaying"`
	CurrentPosition        float64               `json:"currentPosition"`
	CreatedAt              time.Time             `json:"createdAt"`
	UpdatedAt              time.Time             `json:"updatedAt"`
}

// NewPartySnapshot builds the wire snapshot for a party
func NewPartySnapshot(p *Party) *PartySnapshot {
	participants := make([]ParticipantSnapshot, len(p.Participants))
	for i, m := range p.Participants {
		participants[i] = ParticipantSnapshot{
			ID:       m.ID,
			PartyID:  m.PartyID,
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
	}

	entries := make([]PlaylistEntrySnapshot, len(p.Playlist.Entries))
	for i, e := range p.Playlist.Entries {
		entries[i] = PlaylistEntrySnapshot{
			ID:            e.ID,
			SongID:        e.SongID,
			AddedByUserID: e.AddedByUserID,
			Position:      e.Position,
			AddedAt:       e.AddedAt,
		}
	}

	snapshot := &PartySnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Status:       p.Status,
		HostUserID:   p.HostUserID,
		Participants: participants,
		Playlist: PlaylistSnapshot{
			ID:      p.Playlist.ID,
			Entries: entries,
		},
		IsPlaying:       p.IsPlaying,
		CurrentPosition: p.CurrentPosition,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.CurrentlyPlayingSongID != nil {
		id := *p.CurrentlyPlayingSongID
		snapshot.CurrentlyPlayingSongID = &id
	}
	return snapshot
}

// PartyCreatedPayload contains data for party created events
type PartyCreatedPayload struct {
	Party *PartySnapshot `json:"party"`
}

// PartyDeletedPayload is the final notice delivered to a party's own group
// before the group is torn down
type PartyDeletedPayload struct {
	PartyID    PartyID `json:"partyId"`
	HostUserID UserID  `json:"hostUserId"`
}

// PartyDeletedGlobalPayload contains data for the global deletion notice
type PartyDeletedGlobalPayload struct {
	PartyID PartyID `json:"partyId"`
}

// UserJoinedPartyPayload contains data for user joined events
type UserJoinedPartyPayload struct {
	UserID  UserID  `json:"userId"`
	PartyID PartyID `json:"partyId"`
}

// UserLeftPartyPayload contains data for user left events
type UserLeftPartyPayload struct {
	UserID  UserID  `json:"userId"`
	PartyID PartyID `json:"partyId"`
}

// SongAddedPayload contains data for song added events
type SongAddedPayload struct {
	SongID             SongID `json:"songId"`
	IssuerConnectionID string `json:"issuerConnectionId,omitempty"`
}

// SongRemovedPayload contains data for song removed events
type SongRemovedPayload struct {
	SongID             SongID `json:"songId"`
	IssuerConnectionID string `json:"issuerConnectionId,omitempty"`
}

// PlaybackPayload carries transport-control data for play/pause/seek/stop.
// The server relays it verbatim; receivers treat Position as authoritative
// subject to drift correction.
type PlaybackPayload struct {
	SongID             *SongID  `json:"songId,omitempty"`
	Position           *float64 `json:"position,omitempty"`
	IssuerConnectionID string   `json:"issuerConnectionId,omitempty"`
}

// ConnectedPayload is sent to a client immediately after its connection is
// registered, so it can correlate issuerConnectionId fields
type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}
