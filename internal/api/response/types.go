package response

import (
	"time"

	"github.com/tunehive/partyhub/internal/model"
)

// Participant represents a party member in API responses
type Participant struct {
	ID       int64     `json:"id"`
	PartyID  int64     `json:"party_id"`
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// ParticipantFromModel converts a model.Participant
func ParticipantFromModel(p *model.Participant) Participant {
	return Participant{
		ID:       p.ID,
		PartyID:  int64(p.PartyID),
		UserID:   int64(p.UserID),
		Role:     string(p.Role),
		JoinedAt: p.JoinedAt,
	}
}

// PlaylistEntry represents a queued song in API responses
type PlaylistEntry struct {
	ID            int64     `json:"id"`
	SongID        int64     `json:"song_id"`
	AddedByUserID int64     `json:"added_by_user_id"`
	Position      int       `json:"position"`
	AddedAt       time.Time `json:"added_at"`
}

// PlaylistEntryFromModel converts a model.PlaylistEntry
func PlaylistEntryFromModel(e *model.PlaylistEntry) PlaylistEntry {
	return PlaylistEntry{
		ID:            e.ID,
		SongID:        int64(e.SongID),
		AddedByUserID: int64(e.AddedByUserID),
		Position:      e.Position,
		AddedAt:       e.AddedAt,
	}
}

// Playlist represents a party's playlist in API responses
type Playlist struct {
	ID      int64           `json:"id"`
	Entries []PlaylistEntry `json:"entries"`
}

// Party represents a party in API responses
type Party struct {
	ID                     int64         `json:"id"`
	Name                   string        `json:"name"`
	Status                 string        `json:"status"`
	HostUserID             int64         `json:"host_user_id"`
	Participants           []Participant `json:"participants"`
	Playlist               Playlist      `json:"playlist"`
	CurrentlyPlayingSongID *int64        `json:"currently_playing_song_id,omitempty"`
	IsPlaying              bool          `json:"is_playing"`
	CurrentPosition        float64       `json:"current_position"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// PartyFromModel converts a model.Party to a response Party
func PartyFromModel(p *model.Party) Party {
	participants := make([]Participant, len(p.Participants))
	for i := range p.Participants {
		participants[i] = ParticipantFromModel(&p.Participants[i])
	}

	entries := make([]PlaylistEntry, len(p.Playlist.Entries))
	for i := range p.Playlist.Entries {
		entries[i] = PlaylistEntryFromModel(&p.Playlist.Entries[i])
	}

	resp := Party{
		ID:           int64(p.ID),
		Name:         p.Name,
		Status:       string(p.Status),
		HostUserID:   int64(p.HostUserID),
		Participants: participants,
		Playlist: Playlist{
			ID:      p.Playlist.ID,
			Entries: entries,
		},
		IsPlaying:       p.IsPlaying,
		CurrentPosition: p.CurrentPosition,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.CurrentlyPlayingSongID != nil {
		id := int64(*p.CurrentlyPlayingSongID)
		resp.CurrentlyPlayingSongID = &id
	}
	return resp
}

// PartyListFromModel converts a slice of parties
func PartyListFromModel(parties []*model.Party) []Party {
	out := make([]Party, len(parties))
	for i, p := range parties {
		out[i] = PartyFromModel(p)
	}
	return out
}
