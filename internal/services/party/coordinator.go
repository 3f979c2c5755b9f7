package party

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tunehive/partyhub/internal/dependencies/clock"
	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/storage"
)

// Broadcaster publishes events to party groups and the global audience.
// Implemented by realtime.Channel; kept as an interface so tests can
// record published events.
type Broadcaster interface {
	BroadcastToGroup(partyID model.PartyID, event model.EventType, payload any)
	BroadcastToAll(event model.EventType, payload any)
	RemoveGroup(partyID model.PartyID)
}

// PresenceLookup resolves the connection a user is currently on, used to
// stamp issuerConnectionId on playlist events
type PresenceLookup interface {
	ConnectionOf(userID model.UserID) (string, bool)
}

// Coordinator owns party lifecycle operations and enforces cross-party
// membership invariants. The atomic check-and-insert for those invariants
// lives in the storage layer; the coordinator sequences validation,
// mutation and broadcast.
type Coordinator struct {
	storage  storage.Storage
	channel  Broadcaster
	presence PresenceLookup
	clock    clock.Clock
	logger   *slog.Logger
}

// NewCoordinator creates a new party coordinator
func NewCoordinator(
	store storage.Storage,
	channel Broadcaster,
	presence PresenceLookup,
	clk clock.Clock,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		storage:  store,
		channel:  channel,
		presence: presence,
		clock:    clk,
		logger:   logger.With(slog.String("component", "party")),
	}
}

// CreateParty creates a new active party hosted by the given user, with
// an empty playlist and the host as its only participant. Fails with
// ErrAlreadyHosting or ErrAlreadyInParty if the host already belongs to
// an active party.
func (c *Coordinator) CreateParty(ctx context.Context, hostUserID model.UserID, name string) (*model.Party, error) {
	now := c.clock.Now()

	party, err := c.storage.CreateParty(ctx, &model.Party{
		Name:       name,
		Status:     model.PartyStatusActive,
		HostUserID: hostUserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	c.channel.BroadcastToAll(model.EventPartyCreated, model.PartyCreatedPayload{
		Party: model.NewPartySnapshot(party),
	})

	c.logger.Info("party created",
		slog.Int64("party_id", int64(party.ID)),
		slog.Int64("host_user_id", int64(hostUserID)))
	return party, nil
}

// EndParty ends and deletes a party. Only the host may end it. The final
// PartyDeleted notice goes out to the party's own group before the group
// is torn down, so in-group members still receive it; the global audience
// gets PartyDeletedGlobal.
func (c *Coordinator) EndParty(ctx context.Context, partyID model.PartyID, requestingUserID model.UserID) (bool, error) {
	party, err := c.storage.GetParty(ctx, partyID)
	if err != nil {
		return false, err
	}
	if party.HostUserID != requestingUserID {
		return false, model.ErrNotHost
	}

	c.channel.BroadcastToGroup(partyID, model.EventPartyDeleted, model.PartyDeletedPayload{
		PartyID:    partyID,
		HostUserID: party.HostUserID,
	})
	c.channel.BroadcastToAll(model.EventPartyDeletedGlobal, model.PartyDeletedGlobalPayload{
		PartyID: partyID,
	})

	if err := c.storage.DeleteParty(ctx, partyID); err != nil {
		return false, err
	}
	c.channel.RemoveGroup(partyID)

	c.logger.Info("party ended", slog.Int64("party_id", int64(partyID)))
	return true, nil
}

// JoinParty adds a user to an active party as a member. Fails with
// ErrPartyNotFound, ErrPartyNotActive, or a membership conflict if the
// user is already in this or any other active party.
func (c *Coordinator) JoinParty(ctx context.Context, partyID model.PartyID, userID model.UserID) (*model.Participant, error) {
	participant, err := c.storage.AddParticipant(ctx, partyID, userID, model.RoleMember, c.clock.Now())
	if err != nil {
		return nil, err
	}

	c.channel.BroadcastToGroup(partyID, model.EventUserJoinedParty, model.UserJoinedPartyPayload{
		UserID:  userID,
		PartyID: partyID,
	})

	c.logger.Info("user joined party",
		slog.Int64("party_id", int64(partyID)),
		slog.Int64("user_id", int64(userID)))
	return participant, nil
}

// LeaveParty removes a user from a party. A missing participant row is a
// normal outcome, not an error: the participant result is nil and no event
// is broadcast.
func (c *Coordinator) LeaveParty(ctx context.Context, partyID model.PartyID, userID model.UserID) (*model.Participant, error) {
	participant, err := c.storage.RemoveParticipant(ctx, partyID, userID)
	if err != nil {
		if errors.Is(err, model.ErrParticipantNotFound) {
			return nil, nil
		}
		return nil, err
	}

	c.channel.BroadcastToGroup(partyID, model.EventUserLeftParty, model.UserLeftPartyPayload{
		UserID:  userID,
		PartyID: partyID,
	})

	c.logger.Info("user left party",
		slog.Int64("party_id", int64(partyID)),
		slog.Int64("user_id", int64(userID)))
	return participant, nil
}

// AddSong appends a song to the playlist of the user's current active
// party. Fails with ErrNoActiveParty if the user is in none, or
// ErrSongNotFound if the song is unknown.
func (c *Coordinator) AddSong(ctx context.Context, userID model.UserID, songID model.SongID) (*model.PlaylistEntry, error) {
	party, err := c.storage.FindActivePartyForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := c.storage.GetSong(ctx, songID); err != nil {
		return nil, err
	}

	entry, err := c.storage.InsertPlaylistEntry(ctx, party.ID, songID, userID, c.clock.Now())
	if err != nil {
		return nil, err
	}

	issuerConn, _ := c.presence.ConnectionOf(userID)
	c.channel.BroadcastToGroup(party.ID, model.EventSongAdded, model.SongAddedPayload{
		SongID:             songID,
		IssuerConnectionID: issuerConn,
	})

	return entry, nil
}

// RemoveSong removes a song from the playlist of the user's current
// active party. Fails with ErrNoActiveParty if the user is in none, or
// ErrSongNotInPlaylist if the song is not queued there.
func (c *Coordinator) RemoveSong(ctx context.Context, userID model.UserID, songID model.SongID) (*model.PlaylistEntry, error) {
	party, err := c.storage.FindActivePartyForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry, err := c.storage.RemovePlaylistEntry(ctx, party.ID, songID)
	if err != nil {
		return nil, err
	}

	issuerConn, _ := c.presence.ConnectionOf(userID)
	c.channel.BroadcastToGroup(party.ID, model.EventSongRemoved, model.SongRemovedPayload{
		SongID:             songID,
		IssuerConnectionID: issuerConn,
	})

	return entry, nil
}

// UpdateParty applies a partial update; only provided fields change
func (c *Coordinator) UpdateParty(ctx context.Context, partyID model.PartyID, patch model.PartyPatch) (*model.Party, error) {
	patch.UpdatedAt = c.clock.Now()
	return c.storage.UpdateParty(ctx, partyID, patch)
}

// GetParty retrieves a party by id
func (c *Coordinator) GetParty(ctx context.Context, partyID model.PartyID) (*model.Party, error) {
	return c.storage.GetParty(ctx, partyID)
}

// ListParties returns all known parties
func (c *Coordinator) ListParties(ctx context.Context) ([]*model.Party, error) {
	return c.storage.ListParties(ctx)
}

// GetActiveParty resolves the user's current active party, as host or
// member, fully hydrated with participants and playlist. Returns nil with
// no error when the user is in no active party; reconnecting clients use
// this to resynchronize instead of replaying missed events.
func (c *Coordinator) GetActiveParty(ctx context.Context, userID model.UserID) (*model.Party, error) {
	party, err := c.storage.FindActivePartyForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNoActiveParty) {
			return nil, nil
		}
		return nil, err
	}
	return party, nil
}
