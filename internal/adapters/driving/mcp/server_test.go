package mcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{"missing skill service", &Ports{}, ErrMissingSkillService},
		{"skills only", &Ports{Skills: &mockSkillService{}}, nil},
		{"skills and providers", &Ports{Skills: &mockSkillService{}, Providers: &mockProviderRegistry{}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.ports)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, server)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, server)
		})
	}
}

func TestServer_ServeListenerStopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Skills: &mockSkillService{}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.ServeListener(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	conn.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ServeBadAddress(t *testing.T) {
	server, err := NewServer(&Ports{Skills: &mockSkillService{}})
	require.NoError(t, err)

	err = server.Serve(context.Background(), "256.0.0.1:bad")

	assert.ErrorContains(t, err, "listening on")
}
