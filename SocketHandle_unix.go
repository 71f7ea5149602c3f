//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

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
	"fmt"
	"net"
	"net/netip"
	"time"

	"golang.org/x/sys/unix"
)

type sysfd = int

const maxBacklog = unix.SOMAXCONN

// openHandle creates a blocking, close-on-exec socket.
func openHandle(version IPVersion, protocol NetworkType) (*socketHandle, error) {
	domain := unix.AF_INET
	if version == IPVersionIPv6 {
		domain = unix.AF_INET6
	}
	typ, proto := unix.SOCK_STREAM, unix.IPPROTO_TCP
	if protocol == NetworkTypeUDP {
		typ, proto = unix.SOCK_DGRAM, unix.IPPROTO_UDP
	}
	fd, err := unix.Socket(domain, typ, proto)
	if err != nil {
		return nil, osError("socket", err)
	}
	unix.CloseOnExec(fd)
	if version == IPVersionIPv6 {
		// IPv4-mapped traffic is not delivered to IPv6 sockets.
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1)
	}
	return &socketHandle{fd: fd, version: version, protocol: protocol}, nil
}

// osError wraps an errno into a *SocketError of the matching kind.
func osError(op string, err error) error {
	var se *SocketError
	if errors.As(err, &se) {
		return err
	}
	return newError(op, classify(err), err)
}

func classify(err error) ErrorKind {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return ErrorKindIO
	}
	switch errno {
	case unix.EADDRINUSE:
		return ErrorKindAddressInUse
	case unix.EADDRNOTAVAIL:
		return ErrorKindInvalidAddress
	case unix.EACCES, unix.EPERM:
		return ErrorKindPermissionDenied
	case unix.ECONNREFUSED:
		return ErrorKindConnectionRefused
	case unix.ETIMEDOUT:
		return ErrorKindTimeout
	case unix.ENETUNREACH, unix.EHOSTUNREACH, unix.EHOSTDOWN, unix.ENETDOWN:
		return ErrorKindUnreachable
	case unix.ECONNRESET, unix.EPIPE, unix.ENOTCONN, unix.ECONNABORTED:
		return ErrorKindConnectionReset
	case unix.EMFILE, unix.ENFILE, unix.ENOBUFS, unix.ENOMEM:
		return ErrorKindResourceExhausted
	case unix.EINVAL:
		return ErrorKindInvalidArgument
	case unix.EAFNOSUPPORT, unix.EPROTONOSUPPORT:
		return ErrorKindUnsupported
	}
	return ErrorKindIO
}

// wouldBlock reports whether a non-blocking call found nothing to do.
func wouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

func ignoringEINTR(fn func() error) error {
	for {
		err := fn()
		if err != unix.EINTR {
			return err
		}
	}
}

// wait polls the descriptor for events. A timeout of zero waits forever.
func (h *socketHandle) wait(events int16, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ms := -1
		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return unix.ETIMEDOUT
			}
			ms = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}
		fds := []unix.PollFd{{Fd: int32(h.fd), Events: events}}
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n > 0 {
			// Errors and hang-ups are reported by the call that follows.
			return nil
		}
	}
}

func (h *socketHandle) setBlocking(blocking bool) error {
	if err := unix.SetNonblock(h.fd, !blocking); err != nil {
		return osError("set blocking", err)
	}
	return nil
}

func (h *socketHandle) isBlocking() (bool, error) {
	flags, err := unix.FcntlInt(uintptr(h.fd), unix.F_GETFL, 0)
	if err != nil {
		return false, osError("get blocking", err)
	}
	return flags&unix.O_NONBLOCK == 0, nil
}

func (h *socketHandle) setReuseAddress() error {
	if err := unix.SetsockoptInt(h.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return osError("setsockopt", err)
	}
	return nil
}

func (h *socketHandle) bind(addr netip.AddrPort) error {
	sa, err := toSockaddr(addr)
	if err != nil {
		return err
	}
	if err := unix.Bind(h.fd, sa); err != nil {
		return osError("bind", err)
	}
	return nil
}

// connect completes the handshake in blocking mode. A non-zero timeout
// bounds the wait; the descriptor is blocking again when connect returns.
func (h *socketHandle) connect(addr netip.AddrPort, timeout time.Duration) error {
	sa, err := toSockaddr(addr)
	if err != nil {
		return err
	}
	if timeout > 0 {
		if err := unix.SetNonblock(h.fd, true); err != nil {
			return osError("connect", err)
		}
		defer unix.SetNonblock(h.fd, false)
	}
	switch err := unix.Connect(h.fd, sa); err {
	case nil:
		return nil
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		// The handshake goes on in the kernel; wait for its outcome.
		if err := h.wait(unix.POLLOUT, timeout); err != nil {
			return osError("connect", err)
		}
		soerr, err := unix.GetsockoptInt(h.fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			return osError("connect", err)
		}
		if soerr != 0 {
			return osError("connect", unix.Errno(soerr))
		}
		return nil
	default:
		return osError("connect", err)
	}
}

func (h *socketHandle) listen(backlog int) error {
	if err := unix.Listen(h.fd, clampBacklog(backlog)); err != nil {
		return osError("listen", err)
	}
	return nil
}

// accept returns nil without error when the socket is non-blocking and no
// connection is pending. Accepted handles are always blocking.
func (h *socketHandle) accept(blocking bool, timeout time.Duration) (*socketHandle, error) {
	for {
		if blocking && timeout > 0 {
			if err := h.wait(unix.POLLIN, timeout); err != nil {
				return nil, osError("accept", err)
			}
		}
		var nfd int
		err := ignoringEINTR(func() error {
			var e error
			nfd, _, e = unix.Accept(h.fd)
			return e
		})
		switch {
		case err == unix.ECONNABORTED && blocking:
			// The peer gave up before we got to it.
			continue
		case wouldBlock(err), err == unix.ECONNABORTED:
			return nil, nil
		case err != nil:
			return nil, osError("accept", err)
		}
		unix.CloseOnExec(nfd)
		// BSD stacks hand O_NONBLOCK of the listener down to accepted sockets.
		if err := unix.SetNonblock(nfd, false); err != nil {
			_ = unix.Close(nfd)
			return nil, osError("accept", err)
		}
		return &socketHandle{fd: nfd, version: h.version, protocol: h.protocol}, nil
	}
}

// send writes all of p, waiting for buffer space when the socket is
// non-blocking. A non-zero timeout bounds each wait; on expiry the bytes
// written so far are reported with the error.
func (h *socketHandle) send(p []byte, timeout time.Duration) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.Write(h.fd, p[written:])
		switch {
		case err == unix.EINTR:
			continue
		case wouldBlock(err):
			if err := h.wait(unix.POLLOUT, timeout); err != nil {
				return written, osError("send", err)
			}
			continue
		case err != nil:
			return written, osError("send", err)
		}
		written += n
	}
	return written, nil
}

// sendTo writes p as a single datagram.
func (h *socketHandle) sendTo(p []byte, addr netip.AddrPort) error {
	sa, err := toSockaddr(addr)
	if err != nil {
		return err
	}
	for {
		err := ignoringEINTR(func() error {
			return unix.Sendto(h.fd, p, 0, sa)
		})
		if wouldBlock(err) {
			if err := h.wait(unix.POLLOUT, 0); err != nil {
				return osError("send to", err)
			}
			continue
		}
		if err != nil {
			return osError("send to", err)
		}
		return nil
	}
}

// recv reads into p. ok is false when the socket is non-blocking and
// nothing is queued. n == 0 with ok set is an orderly shutdown on a stream.
func (h *socketHandle) recv(p []byte, blocking bool, timeout time.Duration) (n int, ok bool, err error) {
	if blocking && timeout > 0 {
		if err := h.wait(unix.POLLIN, timeout); err != nil {
			return 0, false, osError("receive", err)
		}
	}
	err = ignoringEINTR(func() error {
		var e error
		n, e = unix.Read(h.fd, p)
		return e
	})
	if wouldBlock(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, osError("receive", err)
	}
	return n, true, nil
}

// recvFrom reads one datagram into p. Bytes that do not fit are discarded.
func (h *socketHandle) recvFrom(p []byte, blocking bool, timeout time.Duration) (n int, from netip.AddrPort, ok bool, err error) {
	if blocking && timeout > 0 {
		if err := h.wait(unix.POLLIN, timeout); err != nil {
			return 0, from, false, osError("receive from", err)
		}
	}
	var sa unix.Sockaddr
	err = ignoringEINTR(func() error {
		var e error
		n, sa, e = unix.Recvfrom(h.fd, p, 0)
		return e
	})
	if wouldBlock(err) {
		return 0, from, false, nil
	}
	if err != nil {
		return 0, from, false, osError("receive from", err)
	}
	return n, fromSockaddr(sa), true, nil
}

// available returns the number of bytes that can be read without blocking.
func (h *socketHandle) available() (int, error) {
	n, err := unix.IoctlGetInt(h.fd, fionread)
	if err != nil {
		return 0, osError("next read size", err)
	}
	return n, nil
}

// drain discards bytes that are already queued.
func (h *socketHandle) drain() {
	n, err := h.available()
	if err != nil || n <= 0 {
		return
	}
	buf := make([]byte, n)
	_ = ignoringEINTR(func() error {
		_, e := unix.Read(h.fd, buf)
		return e
	})
}

func (h *socketHandle) sockname() (netip.AddrPort, error) {
	sa, err := unix.Getsockname(h.fd)
	if err != nil {
		return netip.AddrPort{}, osError("getsockname", err)
	}
	return fromSockaddr(sa), nil
}

func (h *socketHandle) peername() (netip.AddrPort, error) {
	sa, err := unix.Getpeername(h.fd)
	if err != nil {
		return netip.AddrPort{}, osError("getpeername", err)
	}
	return fromSockaddr(sa), nil
}

// close releases the descriptor. Stream sockets are shut down in both
// directions first. The handle must not be used afterwards.
func (h *socketHandle) close() error {
	if h.protocol == NetworkTypeTCP {
		_ = unix.Shutdown(h.fd, unix.SHUT_RDWR)
	}
	if err := unix.Close(h.fd); err != nil {
		return osError("close", err)
	}
	return nil
}

func toSockaddr(ap netip.AddrPort) (unix.Sockaddr, error) {
	addr := ap.Addr()
	if addr.Is4() {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}, nil
	}
	sa := &unix.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}
	if zone := addr.Zone(); zone != "" {
		ifi, err := net.InterfaceByName(zone)
		if err != nil {
			return nil, newError("resolve", ErrorKindInvalidAddress, fmt.Errorf("zone %q: %w", zone, err))
		}
		sa.ZoneId = uint32(ifi.Index)
	}
	return sa, nil
}

func fromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		addr := netip.AddrFrom16(sa.Addr)
		if sa.ZoneId != 0 {
			if ifi, err := net.InterfaceByIndex(int(sa.ZoneId)); err == nil {
				addr = addr.WithZone(ifi.Name)
			}
		}
		return netip.AddrPortFrom(addr, uint16(sa.Port))
	}
	return netip.AddrPort{}
}
