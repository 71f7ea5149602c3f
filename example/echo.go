package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/Gurux/gxsocket-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Blocking calls wake up this often to notice a shutdown request.
const pollInterval = 500 * time.Millisecond

// Non-blocking sockets are polled this often when nothing is available.
const idleInterval = 10 * time.Millisecond

const defaultReplyTimeout = 5 * time.Second

func newEchoCommand() *cobra.Command {
	echoCmd := &cobra.Command{
		Use:   "echo",
		Short: "Run a TCP and UDP echo peer",
		Args:  cobra.NoArgs,
		RunE:  echoAction,
	}
	echoCmd.Flags().String("host", "", "Local address, every address by default")
	echoCmd.Flags().Int("port", 4059, "Local port")
	echoCmd.Flags().Bool("tcp", true, "Serve TCP")
	echoCmd.Flags().Bool("udp", true, "Serve UDP")
	return echoCmd
}

func echoAction(cmd *cobra.Command, _ []string) error {
	s, err := newSettings(cmd)
	if err != nil {
		return err
	}
	s.LocalHostName, _ = cmd.Flags().GetString("host")
	s.LocalPort, _ = cmd.Flags().GetInt("port")
	s.Timeout = pollInterval
	serveTCP, _ := cmd.Flags().GetBool("tcp")
	serveUDP, _ := cmd.Flags().GetBool("udp")
	if !serveTCP && !serveUDP {
		return errors.New("nothing to serve, enable --tcp or --udp")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	if serveTCP {
		tcp := *s
		tcp.Protocol = gxsocket.NetworkTypeTCP
		tcp.Server = true
		m, err := tcp.Open()
		if err != nil {
			return err
		}
		srv := m.(*gxsocket.GXTcpServer)
		defer srv.Disconnect()
		logrus.Infof("TCP echo listening on %s", srv)
		g.Go(func() error {
			return acceptLoop(ctx, g, srv)
		})
	}
	if serveUDP {
		udp := *s
		udp.Protocol = gxsocket.NetworkTypeUDP
		udp.HostName = ""
		m, err := udp.Open()
		if err != nil {
			return err
		}
		u := m.(*gxsocket.GXUdp)
		defer u.Disconnect()
		logrus.Infof("UDP echo listening on %s", u)
		g.Go(func() error {
			return datagramLoop(ctx, u)
		})
	}
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func acceptLoop(ctx context.Context, g *errgroup.Group, srv *gxsocket.GXTcpServer) error {
	for ctx.Err() == nil {
		c, err := srv.Accept()
		if errors.Is(err, gxsocket.ErrTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		if c == nil {
			idle(ctx)
			continue
		}
		logrus.Infof("Client %s connected", c)
		g.Go(func() error {
			serveClient(ctx, c)
			return nil
		})
	}
	return ctx.Err()
}

// serveClient echoes one stream until the peer closes it. Client failures
// are logged and never stop the server.
func serveClient(ctx context.Context, c *gxsocket.GXTcpClient) {
	log := logrus.WithField("client", c.String())
	defer func() {
		if err := c.Disconnect(); err != nil {
			log.WithError(err).Warn("Close failed")
		}
	}()
	for ctx.Err() == nil {
		data, err := c.Receive()
		switch {
		case errors.Is(err, gxsocket.ErrTimeout):
			continue
		case errors.Is(err, io.EOF):
			log.Info("Client disconnected")
			return
		case err != nil:
			log.WithError(err).Warn("Receive failed")
			return
		case data == nil:
			idle(ctx)
			continue
		}
		if err := c.Send(data); err != nil {
			log.WithError(err).Warn("Send failed")
			return
		}
	}
}

func datagramLoop(ctx context.Context, u *gxsocket.GXUdp) error {
	for ctx.Err() == nil {
		d, err := u.ReceiveFrom()
		if errors.Is(err, gxsocket.ErrTimeout) {
			continue
		}
		if err != nil {
			return err
		}
		if d == nil {
			idle(ctx)
			continue
		}
		logrus.Debugf("Datagram of %d bytes from %s:%d", len(d.Data), d.Host, d.Port)
		if err := u.SendTo(d.Host, d.Port, d.Data); err != nil {
			logrus.WithError(err).Warnf("Reply to %s:%d failed", d.Host, d.Port)
		}
	}
	return ctx.Err()
}

// idle waits a moment before a non-blocking socket is polled again.
func idle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(idleInterval):
	}
}
