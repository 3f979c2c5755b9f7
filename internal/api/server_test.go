package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tunehive/partyhub/internal/testutil"
)

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9090

	srv := NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())
	require.Equal(t, "127.0.0.1:9090", srv.Addr())
	require.Equal(t, cfg.ReadTimeout, srv.server.ReadTimeout)
	require.Equal(t, cfg.ReadHeaderTimeout, srv.server.ReadHeaderTimeout)
	require.Equal(t, cfg.WriteTimeout, srv.server.WriteTimeout)
	require.Equal(t, cfg.IdleTimeout, srv.server.IdleTimeout)
}

func TestServerStartAndShutdown(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv := NewServer(http.NotFoundHandler(), cfg, testutil.NopLogger())

	done := make(chan error, 1)
	go func() {
		done <- srv.Start()
	}()

	// Give the listener a moment to come up before shutting down
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
