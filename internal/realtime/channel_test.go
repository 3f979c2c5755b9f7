package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/testutil"
)

type ChannelSuite struct {
	suite.Suite
	channel *Channel
}

func TestChannelSuite(t *testing.T) {
	suite.Run(t, new(ChannelSuite))
}

func (s *ChannelSuite) SetupTest() {
	s.channel = NewChannel(testutil.NopLogger())
}

func (s *ChannelSuite) register(id string) *Conn {
	conn := NewConn(id)
	s.channel.Register(conn)
	return conn
}

// receive drains one pending message from the connection, failing the test
// if none is buffered
func (s *ChannelSuite) receive(conn *Conn) Envelope {
	select {
	case msg := <-conn.Send():
		var env Envelope
		s.Require().NoError(json.Unmarshal(msg, &env))
		return env
	default:
		s.Require().FailNow("no message buffered for " + conn.ID())
		return Envelope{}
	}
}

func (s *ChannelSuite) assertNoMessage(conn *Conn) {
	select {
	case msg, ok := <-conn.Send():
		if ok {
			s.Failf("unexpected message", "connection %s received %s", conn.ID(), msg)
		}
	default:
	}
}

func (s *ChannelSuite) TestRegisterAndCount() {
	s.Equal(0, s.channel.ConnCount())
	s.register("a")
	s.register("b")
	s.Equal(2, s.channel.ConnCount())
}

func (s *ChannelSuite) TestBroadcastToAll() {
	a := s.register("a")
	b := s.register("b")

	s.channel.BroadcastToAll(model.EventPartyCreated, model.PartyCreatedPayload{
		Party: model.NewPartySnapshot(&model.Party{ID: 1, Name: "Jam"}),
	})

	for _, conn := range []*Conn{a, b} {
		env := s.receive(conn)
		s.Equal(model.EventPartyCreated, env.Event)
	}
}

func (s *ChannelSuite) TestBroadcastToGroupOnlyReachesMembers() {
	a := s.register("a")
	b := s.register("b")
	c := s.register("c")

	s.channel.JoinPartyGroup("a", 1)
	s.channel.JoinPartyGroup("b", 1)
	s.channel.JoinPartyGroup("c", 2)

	s.channel.BroadcastToGroup(1, model.EventSongAdded, model.SongAddedPayload{SongID: 7})

	for _, conn := range []*Conn{a, b} {
		env := s.receive(conn)
		s.Equal(model.EventSongAdded, env.Event)
	}
	s.assertNoMessage(c)
}

func (s *ChannelSuite) TestBroadcastToMissingGroupIsNoOp() {
	a := s.register("a")
	s.channel.BroadcastToGroup(99, model.EventSongAdded, model.SongAddedPayload{SongID: 7})
	s.assertNoMessage(a)
}

func (s *ChannelSuite) TestEnvelopeWireFormat() {
	a := s.register("a")
	s.channel.JoinPartyGroup("a", 1)

	s.channel.BroadcastToGroup(1, model.EventSongAdded, model.SongAddedPayload{
		SongID:             7,
		IssuerConnectionID: "a",
	})

	msg := <-a.Send()
	s.JSONEq(`{"event":"SongAdded","data":{"songId":7,"issuerConnectionId":"a"}}`, string(msg))
}

func (s *ChannelSuite) TestEnvelopeOmitsEmptyData() {
	a := s.register("a")
	s.channel.SendTo("a", model.EventStopSong, nil)

	msg := <-a.Send()
	s.JSONEq(`{"event":"StopSong"}`, string(msg))
}

func (s *ChannelSuite) TestSendTo() {
	a := s.register("a")
	b := s.register("b")

	s.channel.SendTo("a", model.EventConnected, model.ConnectedPayload{ConnectionID: "a"})

	env := s.receive(a)
	s.Equal(model.EventConnected, env.Event)
	s.assertNoMessage(b)

	// Unknown target is a no-op
	s.channel.SendTo("nope", model.EventConnected, nil)
}

func (s *ChannelSuite) TestJoinMovesConnectionBetweenGroups() {
	s.register("a")

	s.channel.JoinPartyGroup("a", 1)
	partyID, ok := s.channel.GroupOf("a")
	s.True(ok)
	s.Equal(model.PartyID(1), partyID)

	s.channel.JoinPartyGroup("a", 2)
	partyID, ok = s.channel.GroupOf("a")
	s.True(ok)
	s.Equal(model.PartyID(2), partyID)
	s.Equal(0, s.channel.GroupSize(1))
	s.Equal(1, s.channel.GroupSize(2))
}

func (s *ChannelSuite) TestJoinUnknownConnectionIgnored() {
	s.channel.JoinPartyGroup("ghost", 1)
	s.Equal(0, s.channel.GroupSize(1))
}

func (s *ChannelSuite) TestLeavePartyGroup() {
	s.register("a")
	s.channel.JoinPartyGroup("a", 1)

	s.channel.LeavePartyGroup("a")
	_, ok := s.channel.GroupOf("a")
	s.False(ok)
	s.Equal(0, s.channel.GroupSize(1))

	// Leaving while in no group is fine
	s.channel.LeavePartyGroup("a")
}

func (s *ChannelSuite) TestUnregisterClosesSendAndLeavesGroup() {
	a := s.register("a")
	s.channel.JoinPartyGroup("a", 1)

	s.channel.Unregister("a")
	s.Equal(0, s.channel.ConnCount())
	s.Equal(0, s.channel.GroupSize(1))

	_, open := <-a.Send()
	s.False(open)

	// Double unregister is a no-op
	s.channel.Unregister("a")
}

func (s *ChannelSuite) TestRemoveGroupKeepsConnectionsRegistered() {
	a := s.register("a")
	b := s.register("b")
	s.channel.JoinPartyGroup("a", 1)
	s.channel.JoinPartyGroup("b", 1)

	s.channel.RemoveGroup(1)

	s.Equal(0, s.channel.GroupSize(1))
	_, ok := s.channel.GroupOf("a")
	s.False(ok)
	s.Equal(2, s.channel.ConnCount())

	// Former members still receive global broadcasts
	s.channel.BroadcastToAll(model.EventPartyDeletedGlobal, model.PartyDeletedGlobalPayload{PartyID: 1})
	for _, conn := range []*Conn{a, b} {
		env := s.receive(conn)
		s.Equal(model.EventPartyDeletedGlobal, env.Event)
	}
}

func (s *ChannelSuite) TestBroadcastAfterUnregisterDoesNotPanic() {
	a := s.register("a")
	s.channel.JoinPartyGroup("a", 1)
	s.channel.Unregister("a")

	// The closed connection is out of every map; no send can reach it
	s.channel.BroadcastToAll(model.EventPartyCreated, nil)
	s.channel.BroadcastToGroup(1, model.EventSongAdded, nil)
	s.channel.SendTo("a", model.EventConnected, nil)

	_, open := <-a.Send()
	s.False(open)
}

func (s *ChannelSuite) TestConcurrentBroadcastAndUnregister() {
	const conns = 64

	ids := make([]string, conns)
	for i := range ids {
		ids[i] = fmt.Sprintf("conn-%d", i)
		s.register(ids[i])
		s.channel.JoinPartyGroup(ids[i], 1)
	}

	// Disconnects racing broadcasts must never send on a closed channel
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < conns*4; i++ {
			s.channel.BroadcastToAll(model.EventPartyCreated, nil)
			s.channel.BroadcastToGroup(1, model.EventSongAdded, nil)
		}
	}()
	go func() {
		defer wg.Done()
		for _, id := range ids {
			s.channel.Unregister(id)
		}
	}()
	wg.Wait()

	s.Equal(0, s.channel.ConnCount())
	s.Equal(0, s.channel.GroupSize(1))
	s.channel.BroadcastToAll(model.EventPartyCreated, nil)
}

func (s *ChannelSuite) TestFullBufferDropsInsteadOfBlocking() {
	a := s.register("a")
	s.channel.JoinPartyGroup("a", 1)

	// Fill the buffer without draining
	for i := 0; i < sendBufferSize; i++ {
		s.channel.BroadcastToGroup(1, model.EventSeekSong, nil)
	}

	// This must return promptly rather than block
	s.channel.BroadcastToGroup(1, model.EventStopSong, nil)

	count := 0
	for {
		select {
		case <-a.Send():
			count++
			continue
		default:
		}
		break
	}
	s.Equal(sendBufferSize, count)
}
