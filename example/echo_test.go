package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/Gurux/gxsocket-go"
	"golang.org/x/sync/errgroup"
	"gotest.tools/v3/assert"
)

const nonBlocking = "<NonBlocking>1</NonBlocking>"

// openNonBlocking opens a loopback socket from the settings fragment the
// --settings flag accepts.
func openNonBlocking(t *testing.T, protocol gxsocket.NetworkType, server bool) gxsocket.GXSocket {
	t.Helper()
	s := gxsocket.NewGXSettings()
	assert.NilError(t, s.SetSettings(nonBlocking))
	s.Protocol = protocol
	s.Server = server
	s.LocalHostName = "127.0.0.1"
	m, err := s.Open()
	assert.NilError(t, err)
	t.Cleanup(func() { _ = m.Disconnect() })
	assert.Assert(t, !m.GetBlocking())
	return m
}

func TestDatagramLoopNonBlocking(t *testing.T) {
	u := openNonBlocking(t, gxsocket.NetworkTypeUDP, false).(*gxsocket.GXUdp)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- datagramLoop(ctx, u) }()

	conn, err := net.Dial("udp4", "127.0.0.1:"+strconv.Itoa(u.GetPortFrom()))
	assert.NilError(t, err)
	defer conn.Close()
	// Give the loop a few empty polls first.
	time.Sleep(3 * idleInterval)
	_, err = conn.Write([]byte("ping"))
	assert.NilError(t, err)
	assert.NilError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	assert.NilError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestAcceptLoopNonBlocking(t *testing.T) {
	srv := openNonBlocking(t, gxsocket.NetworkTypeTCP, true).(*gxsocket.GXTcpServer)
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return acceptLoop(ctx, g, srv)
	})

	time.Sleep(3 * idleInterval)
	conn, err := net.Dial("tcp4", "127.0.0.1:"+strconv.Itoa(srv.GetPortFrom()))
	assert.NilError(t, err)
	_, err = conn.Write([]byte("hello"))
	assert.NilError(t, err)
	assert.NilError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 5)
	_, err = io.ReadFull(conn, buf)
	assert.NilError(t, err)
	assert.Equal(t, "hello", string(buf))

	// The client goroutine ends when the peer goes away.
	assert.NilError(t, conn.Close())
	cancel()
	assert.ErrorIs(t, g.Wait(), context.Canceled)
}

func TestSendWithNonBlockingSettings(t *testing.T) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	assert.NilError(t, err)
	defer l.Close()
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		// Answer late so a polling reader would find nothing first.
		time.Sleep(50 * time.Millisecond)
		_, _ = conn.Write(buf[:n])
	}()

	var out bytes.Buffer
	app := newApp()
	app.SetOut(&out)
	app.SetArgs([]string{
		"send",
		"--settings", nonBlocking,
		"--timeout", "5000",
		"--host", "127.0.0.1",
		"--port", strconv.Itoa(l.Addr().(*net.TCPAddr).Port),
		"hi",
	})
	assert.NilError(t, app.Execute())
	assert.Equal(t, "hi\n", out.String())
}
