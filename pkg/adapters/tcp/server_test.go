package tcp_test

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/cadence/pkg/adapters/tcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, opts ...tcp.Option) *tcp.Server {
	t.Helper()
	opts = append([]tcp.Option{tcp.WithAddress("127.0.0.1:0")}, opts...)
	srv := tcp.NewServer(0, opts...)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() {
		srv.SafeShutdown()
		srv.Wait()
	})
	return srv
}

func dial(t *testing.T, srv *tcp.Server) *tcp.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := tcp.Dial(ctx, srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestServer_DrainConsumesQueue(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)

	require.NoError(t, c.Send("alpha"))
	echo, err := c.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "alpha", echo)

	assert.Equal(t, []string{"alpha"}, srv.Drain(true))
	assert.Empty(t, srv.Drain(true))
}

func TestServer_PeekKeepsQueue(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)

	require.NoError(t, c.Send(" up \n"))
	echo, err := c.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, " up \n", echo, "echo carries the raw payload")

	assert.Equal(t, []string{"up"}, srv.Drain(false))
	assert.Equal(t, 1, srv.Pending())
	assert.Equal(t, []string{"up"}, srv.Drain(true))
	assert.Equal(t, 0, srv.Pending())
}

func TestServer_SeveralFramesInOneWrite(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)

	// One write, three frames, one of them blank.
	require.NoError(t, c.Send("a*EOF*  *EOF*b"))
	for range 3 {
		_, err := c.ReadFrame()
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b"}, srv.Drain(true))
}

func TestServer_ShutdownSendsDone(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)

	require.NoError(t, c.Send("x"))
	_, err := c.ReadFrame()
	require.NoError(t, err)

	srv.SafeShutdown()

	frame, err := c.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "Done", frame)

	_, err = c.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)

	assert.NotPanics(t, srv.SafeShutdown)
	srv.Wait()
}

func TestServer_ShutdownWithoutClient(t *testing.T) {
	srv := tcp.NewServer(0, tcp.WithAddress("127.0.0.1:0"))
	require.NoError(t, srv.Start(context.Background()))

	srv.SafeShutdown()
	srv.SafeShutdown()
	srv.Wait()
	assert.Empty(t, srv.Drain(true))
}

func TestServer_ShutdownOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := tcp.NewServer(0, tcp.WithAddress("127.0.0.1:0"))
	require.NoError(t, srv.Start(ctx))
	c := dial(t, srv)

	require.NoError(t, c.Send("x"))
	_, err := c.ReadFrame()
	require.NoError(t, err)

	cancel()
	frame, err := c.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "Done", frame)
	srv.Wait()
}

func TestServer_LatestConnectionIsActive(t *testing.T) {
	srv := startServer(t)
	first := dial(t, srv)
	require.NoError(t, first.Send("one"))
	_, err := first.ReadFrame()
	require.NoError(t, err)

	second := dial(t, srv)
	require.NoError(t, second.Send("two"))
	_, err = second.ReadFrame()
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, srv.Drain(true))

	srv.SafeShutdown()
	frame, err := second.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "Done", frame)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := tcp.NewMetrics(reg)
	srv := startServer(t, tcp.WithMetrics(m))
	c := dial(t, srv)

	require.NoError(t, c.Send("a*EOF**EOF*b"))
	for range 3 {
		_, err := c.ReadFrame()
		require.NoError(t, err)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Frames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Connections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Queued))

	srv.Drain(true)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Queued))
}

func TestServer_BindFailure(t *testing.T) {
	srv := startServer(t)
	other := tcp.NewServer(0, tcp.WithAddress(srv.Addr().String()))
	assert.Error(t, other.Start(context.Background()))
	assert.Empty(t, other.Drain(true))
	other.SafeShutdown()
}

func TestScanFrames(t *testing.T) {
	s := bufio.NewScanner(strings.NewReader("one*EOF*two*EOF*partial"))
	s.Split(tcp.ScanFrames)

	var got []string
	for s.Scan() {
		got = append(got, s.Text())
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []string{"one", "two"}, got)
}
