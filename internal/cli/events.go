package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var partyID int64
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream realtime events from the server",
		Long: `Connect to the server's WebSocket endpoint and stream events in real-time.

Global events (PartyCreated, PartyDeletedGlobal) arrive on every
connection. Pass --party to also subscribe to a party's group events:
  - UserJoinedParty / UserLeftParty
  - SongAdded / SongRemoved
  - PlaySong / PauseSong / SeekSong / StopSong
  - PartyDeleted

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(partyID, jsonOutput, limit)
		},
	}

	cmd.Flags().Int64Var(&partyID, "party", 0, "Party id to subscribe to (optional)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVar(&limit, "limit", 0, "Disconnect after this many events (0: until interrupted)")

	return cmd
}

// wireEvent is an event envelope as received from the server
type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func streamEvents(partyID int64, jsonOutput bool, limit int) error {
	wsURL, err := websocketURL(cfg.ServerURL, cfg.UserID)
	if err != nil {
		return err
	}

	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = ws.Close() }()

	// Close the socket on interrupt; the blocked read returns an error
	// and the loop exits
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		_ = ws.Close()
	}()

	if partyID > 0 {
		join := map[string]any{"action": "JoinPartyGroup", "partyId": partyID}
		if err := ws.WriteJSON(join); err != nil {
			return fmt.Errorf("failed to join party group: %w", err)
		}
	}

	if !jsonOutput {
		fmt.Fprintln(stdout, "Connected")
	}

	received := 0
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if !jsonOutput {
				fmt.Fprintln(stdout, "Disconnected")
			}
			return nil
		}

		var evt wireEvent
		if err := json.Unmarshal(msg, &evt); err != nil {
			continue
		}
		printEvent(evt, jsonOutput)

		received++
		if limit > 0 && received >= limit {
			if !jsonOutput {
				fmt.Fprintln(stdout, "Disconnected")
			}
			return nil
		}
	}
}

func printEvent(evt wireEvent, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(evt)
		fmt.Fprintln(stdout, string(data))
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	display := string(evt.Data)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	fmt.Fprintf(stdout, "[%s] %s: %s\n", timestamp, evt.Event, display)
}

func websocketURL(serverURL string, userID int64) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	u.Path = "/ws"
	q := u.Query()
	q.Set("user_id", strconv.FormatInt(userID, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
