package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/presence"
	"github.com/tunehive/partyhub/internal/services/playback"
	"github.com/tunehive/partyhub/internal/testutil"
)

type WSServerSuite struct {
	suite.Suite
	registry *presence.Registry
	channel  *Channel
	server   *httptest.Server
}

func TestWSServerSuite(t *testing.T) {
	suite.Run(t, new(WSServerSuite))
}

func (s *WSServerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.registry = presence.NewRegistry(logger)
	s.channel = NewChannel(logger)
	relay := playback.NewRelay(s.channel, logger)
	handler := NewWSHandler(s.registry, s.channel, relay, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	s.server = httptest.NewServer(mux)
}

func (s *WSServerSuite) TearDownTest() {
	s.server.Close()
}

func (s *WSServerSuite) wsURL(userID string) string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?user_id=" + userID
}

// dial connects as the given user and consumes the Connected handshake,
// returning the socket and the server-assigned connection id
func (s *WSServerSuite) dial(userID string) (*websocket.Conn, string) {
	ws, resp, err := websocket.DefaultDialer.Dial(s.wsURL(userID), nil)
	s.Require().NoError(err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	s.T().Cleanup(func() { _ = ws.Close() })

	env := s.readEnvelope(ws)
	s.Require().Equal(model.EventConnected, env.Event)

	data, err := json.Marshal(env.Data)
	s.Require().NoError(err)
	var payload model.ConnectedPayload
	s.Require().NoError(json.Unmarshal(data, &payload))
	s.Require().NotEmpty(payload.ConnectionID)
	return ws, payload.ConnectionID
}

func (s *WSServerSuite) readEnvelope(ws *websocket.Conn) Envelope {
	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, msg, err := ws.ReadMessage()
	s.Require().NoError(err)

	var env Envelope
	s.Require().NoError(json.Unmarshal(msg, &env))
	return env
}

func (s *WSServerSuite) send(ws *websocket.Conn, msg ClientMessage) {
	s.Require().NoError(ws.WriteJSON(msg))
}

func (s *WSServerSuite) TestConnectRegistersPresence() {
	_, connID := s.dial("5")

	s.Eventually(func() bool {
		return s.registry.IsActive(5)
	}, time.Second, 10*time.Millisecond)

	got, ok := s.registry.ConnectionOf(5)
	s.True(ok)
	s.Equal(connID, got)
	s.Equal(1, s.channel.ConnCount())
}

func (s *WSServerSuite) TestConnectRejectsMissingUserID() {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Error(err)
	s.Require().NotNil(resp)
	defer func() { _ = resp.Body.Close() }()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *WSServerSuite) TestConnectRejectsNonPositiveUserID() {
	for _, raw := range []string{"0", "-4", "abc"} {
		_, resp, err := websocket.DefaultDialer.Dial(s.wsURL(raw), nil)
		s.Error(err)
		s.Require().NotNil(resp)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	}
}

func (s *WSServerSuite) TestJoinGroupAndReceiveBroadcast() {
	ws, connID := s.dial("1")

	s.send(ws, ClientMessage{Action: ActionJoinPartyGroup, PartyID: 3})
	s.Eventually(func() bool {
		return s.channel.GroupSize(3) == 1
	}, time.Second, 10*time.Millisecond)

	s.channel.BroadcastToGroup(3, model.EventSongAdded, model.SongAddedPayload{
		SongID:             7,
		IssuerConnectionID: connID,
	})

	env := s.readEnvelope(ws)
	s.Equal(model.EventSongAdded, env.Event)
}

func (s *WSServerSuite) TestPlaybackRelayedToGroupPeers() {
	issuer, issuerConnID := s.dial("1")
	listener, _ := s.dial("2")

	s.send(issuer, ClientMessage{Action: ActionJoinPartyGroup, PartyID: 3})
	s.send(listener, ClientMessage{Action: ActionJoinPartyGroup, PartyID: 3})
	s.Eventually(func() bool {
		return s.channel.GroupSize(3) == 2
	}, time.Second, 10*time.Millisecond)

	s.send(issuer, ClientMessage{Action: ActionPlaySong, PartyID: 3, SongID: 7, Position: 12.5})

	env := s.readEnvelope(listener)
	s.Equal(model.EventPlaySong, env.Event)

	data, err := json.Marshal(env.Data)
	s.Require().NoError(err)
	var payload model.PlaybackPayload
	s.Require().NoError(json.Unmarshal(data, &payload))
	s.Require().NotNil(payload.SongID)
	s.Equal(model.SongID(7), *payload.SongID)
	s.Require().NotNil(payload.Position)
	s.Equal(12.5, *payload.Position)
	s.Equal(issuerConnID, payload.IssuerConnectionID)
}

func (s *WSServerSuite) TestMalformedMessageDoesNotDisconnect() {
	ws, _ := s.dial("1")

	s.Require().NoError(ws.WriteMessage(websocket.TextMessage, []byte("not json")))

	// The connection survives and still processes valid messages
	s.send(ws, ClientMessage{Action: ActionJoinPartyGroup, PartyID: 3})
	s.Eventually(func() bool {
		return s.channel.GroupSize(3) == 1
	}, time.Second, 10*time.Millisecond)
}

func (s *WSServerSuite) TestUnknownActionIgnored() {
	ws, _ := s.dial("1")

	s.send(ws, ClientMessage{Action: "Teleport"})
	s.send(ws, ClientMessage{Action: ActionJoinPartyGroup, PartyID: 3})
	s.Eventually(func() bool {
		return s.channel.GroupSize(3) == 1
	}, time.Second, 10*time.Millisecond)
}

func (s *WSServerSuite) TestDisconnectTearsDownPresenceAndChannel() {
	ws, _ := s.dial("5")
	s.send(ws, ClientMessage{Action: ActionJoinPartyGroup, PartyID: 3})
	s.Eventually(func() bool {
		return s.channel.GroupSize(3) == 1
	}, time.Second, 10*time.Millisecond)

	s.Require().NoError(ws.Close())

	s.Eventually(func() bool {
		return s.channel.ConnCount() == 0 &&
			s.channel.GroupSize(3) == 0 &&
			!s.registry.IsActive(5)
	}, time.Second, 10*time.Millisecond)
}

func (s *WSServerSuite) TestReconnectSupersedesPresence() {
	_, firstConnID := s.dial("5")
	_, secondConnID := s.dial("5")
	s.NotEqual(firstConnID, secondConnID)

	s.Eventually(func() bool {
		conn, ok := s.registry.ConnectionOf(5)
		return ok && conn == secondConnID
	}, time.Second, 10*time.Millisecond)
}
