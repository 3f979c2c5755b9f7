package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/testutil"
)

type recordedEvent struct {
	PartyID model.PartyID
	Event   model.EventType
	Payload model.PlaybackPayload
}

type recordingBroadcaster struct {
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastToGroup(partyID model.PartyID, event model.EventType, payload any) {
	b.events = append(b.events, recordedEvent{
		PartyID: partyID,
		Event:   event,
		Payload: payload.(model.PlaybackPayload),
	})
}

type RelaySuite struct {
	suite.Suite
	broadcaster *recordingBroadcaster
	relay       *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.broadcaster = &recordingBroadcaster{}
	s.relay = NewRelay(s.broadcaster, testutil.NopLogger())
}

func (s *RelaySuite) lastEvent() recordedEvent {
	s.Require().NotEmpty(s.broadcaster.events)
	return s.broadcaster.events[len(s.broadcaster.events)-1]
}

func (s *RelaySuite) TestPlay() {
	s.relay.Play(3, 7, 42.5, "conn-a")

	e := s.lastEvent()
	s.Equal(model.PartyID(3), e.PartyID)
	s.Equal(model.EventPlaySong, e.Event)
	s.Require().NotNil(e.Payload.SongID)
	s.Equal(model.SongID(7), *e.Payload.SongID)
	s.Require().NotNil(e.Payload.Position)
	s.Equal(42.5, *e.Payload.Position)
	s.Equal("conn-a", e.Payload.IssuerConnectionID)
}

func (s *RelaySuite) TestPause() {
	s.relay.Pause(3, 10.0, "conn-a")

	e := s.lastEvent()
	s.Equal(model.EventPauseSong, e.Event)
	s.Nil(e.Payload.SongID)
	s.Require().NotNil(e.Payload.Position)
	s.Equal(10.0, *e.Payload.Position)
}

func (s *RelaySuite) TestSeek() {
	s.relay.Seek(3, 95.25, "conn-b")

	e := s.lastEvent()
	s.Equal(model.EventSeekSong, e.Event)
	s.Require().NotNil(e.Payload.Position)
	s.Equal(95.25, *e.Payload.Position)
	s.Equal("conn-b", e.Payload.IssuerConnectionID)
}

func (s *RelaySuite) TestStop() {
	s.relay.Stop(3, "conn-a")

	e := s.lastEvent()
	s.Equal(model.EventStopSong, e.Event)
	s.Nil(e.Payload.SongID)
	s.Nil(e.Payload.Position)
	s.Equal("conn-a", e.Payload.IssuerConnectionID)
}

func (s *RelaySuite) TestPayloadsAreIndependent() {
	s.relay.Play(3, 7, 1.0, "conn-a")
	s.relay.Seek(3, 2.0, "conn-a")

	require.Len(s.T(), s.broadcaster.events, 2)
	first := s.broadcaster.events[0].Payload
	second := s.broadcaster.events[1].Payload
	s.Equal(1.0, *first.Position)
	s.Equal(2.0, *second.Position)
}

func TestCorrectDrift(t *testing.T) {
	tests := []struct {
		name     string
		local    float64
		received float64
		want     float64
	}{
		{name: "in sync", local: 30.0, received: 30.0, want: 30.0},
		{name: "small drift ahead", local: 31.5, received: 30.0, want: 31.5},
		{name: "small drift behind", local: 28.5, received: 30.0, want: 28.5},
		{name: "at threshold", local: 32.0, received: 30.0, want: 32.0},
		{name: "beyond threshold ahead", local: 33.0, received: 30.0, want: 30.0},
		{name: "beyond threshold behind", local: 25.0, received: 30.0, want: 30.0},
		{name: "zero received", local: 5.0, received: 0.0, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CorrectDrift(tt.local, tt.received))
		})
	}
}
