package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Gurux/gxsocket-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSendCommand() *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE:  sendAction,
	}
	sendCmd.Flags().String("host", "", "Host name")
	sendCmd.Flags().Int("port", 0, "Host port")
	sendCmd.Flags().String("protocol", "tcp", "Protocol [tcp, udp]")
	return sendCmd
}

func sendAction(cmd *cobra.Command, args []string) error {
	s, err := newSettings(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") || s.HostName == "" {
		s.HostName, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") || s.Port == 0 {
		s.Port, _ = cmd.Flags().GetInt("port")
	}
	if s.HostName == "" || s.Port == 0 {
		return errors.New("--host and --port are required")
	}
	if s.NonBlocking {
		// Waiting for the reply is the whole point of send.
		logrus.Info("Ignoring non-blocking mode, send waits for the reply")
		s.NonBlocking = false
	}
	if s.Timeout == 0 {
		// A lost UDP reply would otherwise wait forever.
		s.Timeout = defaultReplyTimeout
	}
	message := strings.Join(args, " ")
	logrus.Infof("Sending %q to %s:%d over %s", message, s.HostName, s.Port, s.Protocol)

	m, err := s.Open()
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Disconnect(); err != nil {
			logrus.WithError(err).Warn("Close failed")
		}
	}()

	var reply []byte
	switch m := m.(type) {
	case *gxsocket.GXTcpClient:
		if err := m.Send(message); err != nil {
			return err
		}
		for len(reply) < len(message) {
			data, err := m.Receive()
			if err != nil {
				return err
			}
			reply = append(reply, data...)
		}
	case *gxsocket.GXUdp:
		if err := m.Send(message); err != nil {
			return err
		}
		if reply, err = m.Receive(); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", reply)
	logrus.Debugf("Sent %d bytes, received %d bytes", m.GetBytesSent(), m.GetBytesReceived())
	return nil
}
