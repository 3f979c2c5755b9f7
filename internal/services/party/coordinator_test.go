package party

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tunehive/partyhub/internal/dependencies/mocks"
	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/storage/memory"
	"github.com/tunehive/partyhub/internal/testutil"
)

// recordedEvent captures one broadcast for later assertions
type recordedEvent struct {
	Global  bool
	PartyID model.PartyID
	Event   model.EventType
	Payload any
}

// recordingBroadcaster implements Broadcaster and records every publish
type recordingBroadcaster struct {
	events        []recordedEvent
	removedGroups []model.PartyID
}

func (b *recordingBroadcaster) BroadcastToGroup(partyID model.PartyID, event model.EventType, payload any) {
	b.events = append(b.events, recordedEvent{PartyID: partyID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) BroadcastToAll(event model.EventType, payload any) {
	b.events = append(b.events, recordedEvent{Global: true, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) RemoveGroup(partyID model.PartyID) {
	b.removedGroups = append(b.removedGroups, partyID)
}

func (b *recordingBroadcaster) eventsOfType(event model.EventType) []recordedEvent {
	var out []recordedEvent
	for _, e := range b.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// stubPresence implements PresenceLookup over a fixed map
type stubPresence struct {
	conns map[model.UserID]string
}

func (p *stubPresence) ConnectionOf(userID model.UserID) (string, bool) {
	conn, ok := p.conns[userID]
	return conn, ok
}

type CoordinatorSuite struct {
	suite.Suite
	ctx         context.Context
	storage     *memory.Storage
	broadcaster *recordingBroadcaster
	presence    *stubPresence
	clock       *mocks.MockClock
	coordinator *Coordinator
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New()
	s.broadcaster = &recordingBroadcaster{}
	s.presence = &stubPresence{conns: map[model.UserID]string{}}
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.coordinator = NewCoordinator(s.storage, s.broadcaster, s.presence, s.clock, testutil.NopLogger())

	for _, song := range []*model.Song{
		{ID: 1, Title: "Midnight City", Artist: "M83"},
		{ID: 7, Title: "Baba O'Riley", Artist: "The Who"},
	} {
		s.Require().NoError(s.storage.SaveSong(s.ctx, song))
	}
}

func (s *CoordinatorSuite) TestCreatePartyBroadcastsGlobally() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)
	s.Equal("Jam", party.Name)
	s.Equal(s.clock.CurrentTime, party.CreatedAt)

	events := s.broadcaster.eventsOfType(model.EventPartyCreated)
	s.Require().Len(events, 1)
	s.True(events[0].Global)
	payload := events[0].Payload.(model.PartyCreatedPayload)
	s.Equal(party.ID, payload.Party.ID)
}

func (s *CoordinatorSuite) TestCreatePartyWhileHostingFails() {
	_, err := s.coordinator.CreateParty(s.ctx, 1, "First")
	s.Require().NoError(err)

	_, err = s.coordinator.CreateParty(s.ctx, 1, "Second")
	s.ErrorIs(err, model.ErrAlreadyHosting)

	// No second creation event
	s.Len(s.broadcaster.eventsOfType(model.EventPartyCreated), 1)
}

func (s *CoordinatorSuite) TestJoinPartyBroadcastsToGroup() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)

	participant, err := s.coordinator.JoinParty(s.ctx, party.ID, 2)
	s.Require().NoError(err)
	s.Equal(model.RoleMember, participant.Role)

	events := s.broadcaster.eventsOfType(model.EventUserJoinedParty)
	s.Require().Len(events, 1)
	s.False(events[0].Global)
	s.Equal(party.ID, events[0].PartyID)
	payload := events[0].Payload.(model.UserJoinedPartyPayload)
	s.Equal(model.UserID(2), payload.UserID)
}

func (s *CoordinatorSuite) TestJoinWhileHostingElsewhereFails() {
	_, err := s.coordinator.CreateParty(s.ctx, 1, "Mine")
	s.Require().NoError(err)
	other, err := s.coordinator.CreateParty(s.ctx, 9, "Other")
	s.Require().NoError(err)

	_, err = s.coordinator.JoinParty(s.ctx, other.ID, 1)
	s.ErrorIs(err, model.ErrAlreadyHosting)
	s.Empty(s.broadcaster.eventsOfType(model.EventUserJoinedParty))
}

func (s *CoordinatorSuite) TestLeaveParty() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)
	_, err = s.coordinator.JoinParty(s.ctx, party.ID, 2)
	s.Require().NoError(err)

	participant, err := s.coordinator.LeaveParty(s.ctx, party.ID, 2)
	s.Require().NoError(err)
	s.Require().NotNil(participant)
	s.Equal(model.UserID(2), participant.UserID)

	events := s.broadcaster.eventsOfType(model.EventUserLeftParty)
	s.Require().Len(events, 1)
	s.Equal(party.ID, events[0].PartyID)
}

func (s *CoordinatorSuite) TestLeavePartyNotAMember() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)

	participant, err := s.coordinator.LeaveParty(s.ctx, party.ID, 42)
	s.NoError(err)
	s.Nil(participant)
	s.Empty(s.broadcaster.eventsOfType(model.EventUserLeftParty))
}

func (s *CoordinatorSuite) TestLeaveByHostDoesNotEndParty() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)
	_, err = s.coordinator.JoinParty(s.ctx, party.ID, 2)
	s.Require().NoError(err)

	_, err = s.coordinator.LeaveParty(s.ctx, party.ID, 1)
	s.Require().NoError(err)

	got, err := s.coordinator.GetParty(s.ctx, party.ID)
	s.Require().NoError(err)
	s.True(got.IsActive())
	s.Len(got.Participants, 1)
}

func (s *CoordinatorSuite) TestEndPartyByHost() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)
	_, err = s.coordinator.JoinParty(s.ctx, party.ID, 2)
	s.Require().NoError(err)

	ended, err := s.coordinator.EndParty(s.ctx, party.ID, 1)
	s.Require().NoError(err)
	s.True(ended)

	// Group notice first, then the global one, then group teardown
	groupEvents := s.broadcaster.eventsOfType(model.EventPartyDeleted)
	s.Require().Len(groupEvents, 1)
	s.Equal(party.ID, groupEvents[0].PartyID)
	payload := groupEvents[0].Payload.(model.PartyDeletedPayload)
	s.Equal(model.UserID(1), payload.HostUserID)

	globalEvents := s.broadcaster.eventsOfType(model.EventPartyDeletedGlobal)
	s.Require().Len(globalEvents, 1)
	s.True(globalEvents[0].Global)

	s.Equal([]model.PartyID{party.ID}, s.broadcaster.removedGroups)

	_, err = s.coordinator.GetParty(s.ctx, party.ID)
	s.ErrorIs(err, model.ErrPartyNotFound)

	// Ex-members are free again
	active, err := s.coordinator.GetActiveParty(s.ctx, 2)
	s.NoError(err)
	s.Nil(active)
}

func (s *CoordinatorSuite) TestEndPartyByNonHost() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)
	_, err = s.coordinator.JoinParty(s.ctx, party.ID, 2)
	s.Require().NoError(err)

	_, err = s.coordinator.EndParty(s.ctx, party.ID, 2)
	s.ErrorIs(err, model.ErrNotHost)

	got, err := s.coordinator.GetParty(s.ctx, party.ID)
	s.Require().NoError(err)
	s.True(got.IsActive())
}

func (s *CoordinatorSuite) TestEndPartyNotFound() {
	_, err := s.coordinator.EndParty(s.ctx, 999, 1)
	s.ErrorIs(err, model.ErrPartyNotFound)
}

func (s *CoordinatorSuite) TestAddSong() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)
	s.presence.conns[1] = "conn-host"

	entry, err := s.coordinator.AddSong(s.ctx, 1, 7)
	s.Require().NoError(err)
	s.Equal(model.SongID(7), entry.SongID)
	s.Equal(1, entry.Position)
	s.Equal(model.UserID(1), entry.AddedByUserID)

	events := s.broadcaster.eventsOfType(model.EventSongAdded)
	s.Require().Len(events, 1)
	s.Equal(party.ID, events[0].PartyID)
	payload := events[0].Payload.(model.SongAddedPayload)
	s.Equal(model.SongID(7), payload.SongID)
	s.Equal("conn-host", payload.IssuerConnectionID)
}

func (s *CoordinatorSuite) TestAddSongWithoutActiveParty() {
	_, err := s.coordinator.AddSong(s.ctx, 1, 7)
	s.ErrorIs(err, model.ErrNoActiveParty)
}

func (s *CoordinatorSuite) TestAddSongUnknownSong() {
	_, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)

	_, err = s.coordinator.AddSong(s.ctx, 1, 999)
	s.ErrorIs(err, model.ErrSongNotFound)
	s.Empty(s.broadcaster.eventsOfType(model.EventSongAdded))
}

func (s *CoordinatorSuite) TestAddSongIssuerOffline() {
	_, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)

	// No presence entry for user 1; the event still goes out
	_, err = s.coordinator.AddSong(s.ctx, 1, 7)
	s.Require().NoError(err)

	events := s.broadcaster.eventsOfType(model.EventSongAdded)
	s.Require().Len(events, 1)
	payload := events[0].Payload.(model.SongAddedPayload)
	s.Empty(payload.IssuerConnectionID)
}

func (s *CoordinatorSuite) TestRemoveSong() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)
	_, err = s.coordinator.AddSong(s.ctx, 1, 7)
	s.Require().NoError(err)

	entry, err := s.coordinator.RemoveSong(s.ctx, 1, 7)
	s.Require().NoError(err)
	s.Equal(model.SongID(7), entry.SongID)

	events := s.broadcaster.eventsOfType(model.EventSongRemoved)
	s.Require().Len(events, 1)
	s.Equal(party.ID, events[0].PartyID)
}

func (s *CoordinatorSuite) TestRemoveSongNotInPlaylist() {
	_, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)

	_, err = s.coordinator.RemoveSong(s.ctx, 1, 7)
	s.ErrorIs(err, model.ErrSongNotInPlaylist)
}

func (s *CoordinatorSuite) TestUpdatePartyStampsTimestamp() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	newName := "Renamed"
	updated, err := s.coordinator.UpdateParty(s.ctx, party.ID, model.PartyPatch{Name: &newName})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Name)
	s.Equal(s.clock.CurrentTime, updated.UpdatedAt)
}

func (s *CoordinatorSuite) TestGetActiveParty() {
	party, err := s.coordinator.CreateParty(s.ctx, 1, "Jam")
	s.Require().NoError(err)
	_, err = s.coordinator.AddSong(s.ctx, 1, 7)
	s.Require().NoError(err)

	active, err := s.coordinator.GetActiveParty(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().NotNil(active)
	s.Equal(party.ID, active.ID)
	s.Len(active.Participants, 1)
	s.Len(active.Playlist.Entries, 1)
}

func (s *CoordinatorSuite) TestGetActivePartyNone() {
	active, err := s.coordinator.GetActiveParty(s.ctx, 42)
	s.NoError(err)
	s.Nil(active)
}

func (s *CoordinatorSuite) TestListParties() {
	_, err := s.coordinator.CreateParty(s.ctx, 1, "One")
	s.Require().NoError(err)
	_, err = s.coordinator.CreateParty(s.ctx, 2, "Two")
	s.Require().NoError(err)

	parties, err := s.coordinator.ListParties(s.ctx)
	s.Require().NoError(err)
	s.Len(parties, 2)
}
