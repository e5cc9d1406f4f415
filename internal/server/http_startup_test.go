package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeGracefulShutdown(t *testing.T) {
	logger := errors.NewDiscardLogger()
	provider := &fakeProvider{}
	s := NewServer(ServerConfig{
		TLSConfig: config.TLSConfig{Mode: config.TLSModeDisabled},
		RateLimit: &config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstCapacity: 5, ByIP: true},
	}, ats.NewAnalyzer(provider, time.Second, logger), provider, nil, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Get(url)
	assert.Error(t, err)
}

func TestServeRejectsInvalidTLSMode(t *testing.T) {
	s := NewServer(ServerConfig{TLSConfig: config.TLSConfig{Mode: "bogus"}}, nil, nil, nil, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = s.Serve(context.Background(), ln)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TLS mode")
}
