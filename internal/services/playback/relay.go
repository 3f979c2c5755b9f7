package playback

import (
	"log/slog"

	"github.com/tunehive/partyhub/internal/model"
)

// DriftThreshold is the tolerance, in seconds, beyond which a client's
// locally computed position snaps to a received authoritative position.
// Smaller differences are ignored to avoid audible jitter.
const DriftThreshold = 2.0

// Broadcaster publishes transport-control events to a party's group
type Broadcaster interface {
	BroadcastToGroup(partyID model.PartyID, event model.EventType, payload any)
}

// Relay forwards playback transport messages verbatim from the issuing
// connection to the rest of the party's group. The server keeps no
// authoritative clock: position is whatever the last writer said it was.
type Relay struct {
	channel Broadcaster
	logger  *slog.Logger
}

// NewRelay creates a playback relay over the given broadcast channel
func NewRelay(channel Broadcaster, logger *slog.Logger) *Relay {
	return &Relay{
		channel: channel,
		logger:  logger.With(slog.String("component", "playback")),
	}
}

// Play relays a play command for a song at a position
func (r *Relay) Play(partyID model.PartyID, songID model.SongID, position float64, issuerConnectionID string) {
	r.channel.BroadcastToGroup(partyID, model.EventPlaySong, model.PlaybackPayload{
		SongID:             &songID,
		Position:           &position,
		IssuerConnectionID: issuerConnectionID,
	})
}

// Pause relays a pause command at a position
func (r *Relay) Pause(partyID model.PartyID, position float64, issuerConnectionID string) {
	r.channel.BroadcastToGroup(partyID, model.EventPauseSong, model.PlaybackPayload{
		Position:           &position,
		IssuerConnectionID: issuerConnectionID,
	})
}

// Seek relays a seek to a position
func (r *Relay) Seek(partyID model.PartyID, position float64, issuerConnectionID string) {
	r.channel.BroadcastToGroup(partyID, model.EventSeekSong, model.PlaybackPayload{
		Position:           &position,
		IssuerConnectionID: issuerConnectionID,
	})
}

// Stop relays a stop command
func (r *Relay) Stop(partyID model.PartyID, issuerConnectionID string) {
	r.channel.BroadcastToGroup(partyID, model.EventStopSong, model.PlaybackPayload{
		IssuerConnectionID: issuerConnectionID,
	})
}

// CorrectDrift reconciles a locally tracked position against a received
// authoritative one: beyond DriftThreshold the local position snaps to the
// received value, otherwise the local value stands.
func CorrectDrift(local, received float64) float64 {
	diff := local - received
	if diff < 0 {
		diff = -diff
	}
	if diff > DriftThreshold {
		return received
	}
	return local
}
