package gxsocket

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import (
	"errors"
	"net/netip"
	"strconv"

	"github.com/Gurux/gxcommon-go"
)

// GXDatagram is one UDP packet with the address it came from.
type GXDatagram struct {
	Host string
	Port int
	Data []byte
}

// GXUdp is a UDP socket bound to a local port, optionally with a default
// peer for Send.
//
// The socket is never connected, so Receive and ReceiveFrom accept
// datagrams from any sender.
type GXUdp struct {
	socketBase
	hostTo string
	portTo int
	peer   netip.AddrPort
}

// NewGXUdp creates a connectionless UDP socket bound to portFrom on
// hostFrom. Port 0 lets the OS choose; GetPortFrom reports the result.
func NewGXUdp(portFrom int, hostFrom string, ipVersion IPVersion) (*GXUdp, error) {
	s := &GXSettings{Protocol: NetworkTypeUDP, LocalPort: portFrom, LocalHostName: hostFrom, IPVersion: ipVersion}
	return newUdp(s)
}

// NewGXUdpTo creates a UDP socket bound to portFrom whose Send goes to
// hostTo:portTo.
func NewGXUdpTo(hostTo string, portTo int, portFrom int, ipVersion IPVersion) (*GXUdp, error) {
	s := &GXSettings{Protocol: NetworkTypeUDP, HostName: hostTo, Port: portTo, LocalPort: portFrom, IPVersion: ipVersion}
	return newUdp(s)
}

func newUdp(s *GXSettings) (*GXUdp, error) {
	u := &GXUdp{}
	u.init(u, NetworkTypeUDP, SocketRoleClient, s)
	if s.HostName != "" {
		peer, err := ResolveAddress(s.HostName, s.Port, s.IPVersion, false)
		if err != nil {
			return nil, err
		}
		u.hostTo = s.HostName
		u.portTo = s.Port
		u.peer = peer
	}
	local, err := ResolveAddress(s.LocalHostName, s.LocalPort, s.IPVersion, true)
	if err != nil {
		return nil, err
	}
	u.statef(gxcommon.MediaStateOpening)
	h, err := openHandle(s.IPVersion, NetworkTypeUDP)
	if err != nil {
		u.statef(gxcommon.MediaStateClosed)
		return nil, err
	}
	if err := h.bind(local); err != nil {
		_ = h.close()
		u.statef(gxcommon.MediaStateClosed)
		return nil, err
	}
	u.attach(h)
	u.trace(gxcommon.TraceTypesInfo, "msg.bound", u.socketBase.String())
	u.statef(gxcommon.MediaStateOpen)
	return u, nil
}

// String returns the default peer, or the local endpoint without one.
func (u *GXUdp) String() string {
	if !u.HasDefaultPeer() {
		return u.socketBase.String()
	}
	return u.hostTo + ":" + strconv.Itoa(u.portTo)
}

// HasDefaultPeer reports whether Send and Receive can be used.
func (u *GXUdp) HasDefaultPeer() bool {
	return u.peer.IsValid()
}

// GetHostTo returns the default peer host, or "" without one.
func (u *GXUdp) GetHostTo() string {
	return u.hostTo
}

// GetPortTo returns the default peer port, or 0 without one.
func (u *GXUdp) GetPortTo() int {
	return u.portTo
}

var errNoDefaultPeer = errors.New("socket has no default peer")

// Send sends data as one datagram to the default peer.
func (u *GXUdp) Send(data any) error {
	h, _, _, err := u.acquire("send")
	if err != nil {
		return err
	}
	if !u.HasDefaultPeer() {
		return newError("send", ErrorKindInvalidArgument, errNoDefaultPeer)
	}
	return u.sendTo(h, "send", u.peer, data)
}

// SendTo sends data as one datagram to hostTo:portTo.
//
// UDP has no delivery acknowledgment: a destination nobody listens on, or
// one without a route, is not an error.
func (u *GXUdp) SendTo(hostTo string, portTo int, data any) error {
	h, _, _, err := u.acquire("send to")
	if err != nil {
		return err
	}
	addr, err := ResolveAddress(hostTo, portTo, u.ipVersion, false)
	if err != nil {
		return err
	}
	return u.sendTo(h, "send to", addr, data)
}

func (u *GXUdp) sendTo(h *socketHandle, op string, addr netip.AddrPort, data any) error {
	tmp, err := toPayload(op, data)
	if err != nil {
		return err
	}
	u.sent(tmp)
	if err := h.sendTo(tmp, addr); err != nil {
		switch kind, _ := ErrorKindOf(err); kind {
		case ErrorKindConnectionRefused, ErrorKindUnreachable:
			return nil
		}
		u.trace(gxcommon.TraceTypesError, "msg.send_failed", err)
		return err
	}
	return nil
}

// Receive returns the payload of the next datagram from any sender.
// Use ReceiveFrom to learn who sent it.
//
// In non-blocking mode it returns nil, nil when nothing is queued. An empty
// datagram is returned as an empty, non-nil slice.
func (u *GXUdp) Receive() ([]byte, error) {
	if !u.HasDefaultPeer() && !u.IsDestroyed() {
		return nil, newError("receive", ErrorKindInvalidArgument, errNoDefaultPeer)
	}
	d, err := u.receiveFrom("receive")
	if err != nil || d == nil {
		return nil, err
	}
	return d.Data, nil
}

// ReceiveFrom returns the next datagram with its sender.
//
// In non-blocking mode it returns nil, nil when nothing is queued. A
// datagram longer than GetReceiveSize is truncated and the rest is lost.
func (u *GXUdp) ReceiveFrom() (*GXDatagram, error) {
	return u.receiveFrom("receive from")
}

func (u *GXUdp) receiveFrom(op string) (*GXDatagram, error) {
	h, blocking, timeout, err := u.acquire(op)
	if err != nil {
		return nil, err
	}
	var from netip.AddrPort
	data, ok, err := u.receive(func(buf []byte) (n int, ok bool, err error) {
		n, from, ok, err = h.recvFrom(buf, blocking, timeout)
		return n, ok, err
	})
	if err != nil {
		u.trace(gxcommon.TraceTypesError, "msg.receive_failed", err)
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	u.received(data)
	return &GXDatagram{Host: hostString(from.Addr()), Port: int(from.Port()), Data: data}, nil
}

// GetNextReadSize returns how many bytes can be received without blocking.
func (u *GXUdp) GetNextReadSize() (int, error) {
	h, _, _, err := u.acquire("next read size")
	if err != nil {
		return 0, err
	}
	return h.available()
}
