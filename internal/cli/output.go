package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// stdout is swappable so tests can capture command output
var stdout io.Writer = os.Stdout

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(stdout, string(data))
	} else {
		fmt.Fprintln(stdout, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Party:
		o.printParty(v)
	case []Party:
		o.printPartyList(v)
	case Participant:
		o.printParticipant(v)
	case PlaylistEntry:
		o.printPlaylistEntry(v)
	case HealthResult:
		fmt.Fprintf(stdout, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Party response type (matches API)
type Party struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Status       string        `json:"status"`
	HostUserID   int64         `json:"host_user_id"`
	Participants []Participant `json:"participants"`
	Playlist     Playlist      `json:"playlist"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Participant response type
type Participant struct {
	ID       int64     `json:"id"`
	PartyID  int64     `json:"party_id"`
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Playlist response type
type Playlist struct {
	ID      int64           `json:"id"`
	Entries []PlaylistEntry `json:"entries"`
}

// PlaylistEntry response type
type PlaylistEntry struct {
	ID            int64     `json:"id"`
	SongID        int64     `json:"song_id"`
	AddedByUserID int64     `json:"added_by_user_id"`
	Position      int       `json:"position"`
	AddedAt       time.Time `json:"added_at"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printParty(p Party) {
	fmt.Fprintf(stdout, "Party %d: %s (%s)\n", p.ID, p.Name, p.Status)
	fmt.Fprintf(stdout, "  Host: user %d\n", p.HostUserID)
	fmt.Fprintf(stdout, "  Participants (%d):\n", len(p.Participants))
	for _, m := range p.Participants {
		fmt.Fprintf(stdout, "    user %d (%s)\n", m.UserID, m.Role)
	}
	fmt.Fprintf(stdout, "  Playlist (%d songs):\n", len(p.Playlist.Entries))
	for _, e := range p.Playlist.Entries {
		fmt.Fprintf(stdout, "    %d. song %d (added by user %d)\n", e.Position, e.SongID, e.AddedByUserID)
	}
}

func (o *Output) printPartyList(parties []Party) {
	if len(parties) == 0 {
		fmt.Fprintln(stdout, "No parties")
		return
	}
	for _, p := range parties {
		fmt.Fprintf(stdout, "%d\t%s\t%s\t%d members\n", p.ID, p.Name, p.Status, len(p.Participants))
	}
}

func (o *Output) printParticipant(p Participant) {
	fmt.Fprintf(stdout, "User %d is %s of party %d\n", p.UserID, p.Role, p.PartyID)
}

func (o *Output) printPlaylistEntry(e PlaylistEntry) {
	fmt.Fprintf(stdout, "Song %d at position %d\n", e.SongID, e.Position)
}
