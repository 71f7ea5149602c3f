//go:build windows

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
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

type sysfd = windows.Handle

const maxBacklog = windows.SOMAXCONN

// Winsock values that golang.org/x/sys/windows does not export.
const (
	soError  = 0x1007
	fionbio  = 0x8004667e
	fionread = 0x4004667f

	pollIn  = 0x0100 | 0x0200 // POLLRDNORM | POLLRDBAND
	pollOut = 0x0010          // POLLWRNORM
)

var (
	modws2_32       = windows.NewLazySystemDLL("ws2_32.dll")
	procAccept      = modws2_32.NewProc("accept")
	procIoctlsocket = modws2_32.NewProc("ioctlsocket")
	procWSAPoll     = modws2_32.NewProc("WSAPoll")

	startupOnce sync.Once
	startupErr  error
)

// pollFd is WSAPOLLFD.
type pollFd struct {
	fd      windows.Handle
	events  int16
	revents int16
}

func startup() error {
	startupOnce.Do(func() {
		var data windows.WSAData
		startupErr = windows.WSAStartup(uint32(0x202), &data)
	})
	return startupErr
}

// openHandle creates a blocking, non-inheritable socket.
func openHandle(version IPVersion, protocol NetworkType) (*socketHandle, error) {
	if err := startup(); err != nil {
		return nil, osError("socket", err)
	}
	domain := int32(windows.AF_INET)
	if version == IPVersionIPv6 {
		domain = windows.AF_INET6
	}
	typ, proto := int32(windows.SOCK_STREAM), int32(windows.IPPROTO_TCP)
	if protocol == NetworkTypeUDP {
		typ, proto = windows.SOCK_DGRAM, windows.IPPROTO_UDP
	}
	fd, err := windows.WSASocket(domain, typ, proto, nil, 0, windows.WSA_FLAG_NO_HANDLE_INHERIT)
	if err != nil {
		return nil, osError("socket", err)
	}
	if version == IPVersionIPv6 {
		_ = windows.SetsockoptInt(fd, windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, 1)
	}
	if protocol == NetworkTypeUDP {
		// Otherwise an ICMP port unreachable fails the next receive with WSAECONNRESET.
		var off, ret uint32
		_ = windows.WSAIoctl(fd, windows.SIO_UDP_CONNRESET, (*byte)(unsafe.Pointer(&off)),
			uint32(unsafe.Sizeof(off)), nil, 0, &ret, nil, 0)
	}
	return &socketHandle{fd: fd, version: version, protocol: protocol}, nil
}

// osError wraps a Winsock error into a *SocketError of the matching kind.
func osError(op string, err error) error {
	var se *SocketError
	if errors.As(err, &se) {
		return err
	}
	return newError(op, classify(err), err)
}

func classify(err error) ErrorKind {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return ErrorKindIO
	}
	switch errno {
	case windows.WSAEADDRINUSE:
		return ErrorKindAddressInUse
	case windows.WSAEADDRNOTAVAIL:
		return ErrorKindInvalidAddress
	case windows.WSAEACCES:
		return ErrorKindPermissionDenied
	case windows.WSAECONNREFUSED:
		return ErrorKindConnectionRefused
	case windows.WSAETIMEDOUT:
		return ErrorKindTimeout
	case windows.WSAENETUNREACH, windows.WSAEHOSTUNREACH, windows.WSAEHOSTDOWN, windows.WSAENETDOWN:
		return ErrorKindUnreachable
	case windows.WSAECONNRESET, windows.WSAECONNABORTED, windows.WSAENETRESET,
		windows.WSAENOTCONN, windows.WSAESHUTDOWN:
		return ErrorKindConnectionReset
	case windows.WSAEMFILE, windows.WSAENOBUFS:
		return ErrorKindResourceExhausted
	case windows.WSAEINVAL:
		return ErrorKindInvalidArgument
	case windows.WSAEAFNOSUPPORT, windows.WSAEPROTONOSUPPORT:
		return ErrorKindUnsupported
	}
	return ErrorKindIO
}

func wouldBlock(err error) bool {
	return err == windows.WSAEWOULDBLOCK
}

func ioctlsocket(fd windows.Handle, cmd uint32, arg *uint32) error {
	r, _, err := procIoctlsocket.Call(uintptr(fd), uintptr(cmd), uintptr(unsafe.Pointer(arg)))
	if r != 0 {
		return err
	}
	return nil
}

func setNonblock(fd windows.Handle, nonblocking bool) error {
	var arg uint32
	if nonblocking {
		arg = 1
	}
	return ioctlsocket(fd, fionbio, &arg)
}

// wait polls the socket for events. A timeout of zero waits forever.
func (h *socketHandle) wait(events int16, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ms := int32(-1)
		if timeout > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return windows.WSAETIMEDOUT
			}
			ms = int32((remaining + time.Millisecond - 1) / time.Millisecond)
		}
		fds := []pollFd{{fd: h.fd, events: events}}
		r, _, err := procWSAPoll.Call(uintptr(unsafe.Pointer(&fds[0])), 1, uintptr(ms))
		switch n := int32(r); {
		case n < 0:
			return err
		case n > 0:
			// Errors and hang-ups are reported by the call that follows.
			return nil
		}
	}
}

func (h *socketHandle) setBlocking(blocking bool) error {
	if err := setNonblock(h.fd, !blocking); err != nil {
		return osError("set blocking", err)
	}
	h.nonBlocking = !blocking
	return nil
}

// isBlocking returns the mode last set. Winsock has no query for FIONBIO.
func (h *socketHandle) isBlocking() (bool, error) {
	return !h.nonBlocking, nil
}

// setReuseAddress is a no-op. Winsock rebinds ports in TIME_WAIT without it,
// and SO_REUSEADDR there lets a second socket take over a bound port.
func (h *socketHandle) setReuseAddress() error {
	return nil
}

func (h *socketHandle) bind(addr netip.AddrPort) error {
	sa, err := toSockaddr(addr)
	if err != nil {
		return err
	}
	if err := windows.Bind(h.fd, sa); err != nil {
		return osError("bind", err)
	}
	return nil
}

// connect completes the handshake in blocking mode. A non-zero timeout
// bounds the wait; the socket is blocking again when connect returns.
func (h *socketHandle) connect(addr netip.AddrPort, timeout time.Duration) error {
	sa, err := toSockaddr(addr)
	if err != nil {
		return err
	}
	if timeout > 0 {
		if err := setNonblock(h.fd, true); err != nil {
			return osError("connect", err)
		}
		defer setNonblock(h.fd, false)
	}
	switch err := windows.Connect(h.fd, sa); err {
	case nil:
		return nil
	case windows.WSAEWOULDBLOCK, windows.WSAEINPROGRESS, windows.WSAEALREADY:
		if err := h.wait(pollOut, timeout); err != nil {
			return osError("connect", err)
		}
		soerr, err := windows.GetsockoptInt(h.fd, windows.SOL_SOCKET, soError)
		if err != nil {
			return osError("connect", err)
		}
		if soerr != 0 {
			return osError("connect", syscall.Errno(soerr))
		}
		return nil
	default:
		return osError("connect", err)
	}
}

func (h *socketHandle) listen(backlog int) error {
	if err := windows.Listen(h.fd, clampBacklog(backlog)); err != nil {
		return osError("listen", err)
	}
	return nil
}

func acceptHandle(fd windows.Handle) (windows.Handle, error) {
	r, _, err := procAccept.Call(uintptr(fd), 0, 0)
	if nfd := windows.Handle(r); nfd != windows.InvalidHandle {
		return nfd, nil
	}
	return windows.InvalidHandle, err
}

// accept returns nil without error when the socket is non-blocking and no
// connection is pending. Accepted handles are always blocking.
func (h *socketHandle) accept(blocking bool, timeout time.Duration) (*socketHandle, error) {
	for {
		if blocking && timeout > 0 {
			if err := h.wait(pollIn, timeout); err != nil {
				return nil, osError("accept", err)
			}
		}
		nfd, err := acceptHandle(h.fd)
		switch {
		case err == windows.WSAECONNRESET && blocking:
			// The peer gave up before we got to it.
			continue
		case wouldBlock(err), err == windows.WSAECONNRESET:
			return nil, nil
		case err != nil:
			return nil, osError("accept", err)
		}
		_ = windows.SetHandleInformation(nfd, windows.HANDLE_FLAG_INHERIT, 0)
		// Accepted sockets take FIONBIO over from the listener.
		if err := setNonblock(nfd, false); err != nil {
			_ = windows.Closesocket(nfd)
			return nil, osError("accept", err)
		}
		return &socketHandle{fd: nfd, version: h.version, protocol: h.protocol}, nil
	}
}

func wsaBuf(p []byte) *windows.WSABuf {
	buf := &windows.WSABuf{Len: uint32(len(p))}
	if len(p) > 0 {
		buf.Buf = &p[0]
	}
	return buf
}

// send writes all of p, waiting for buffer space when the socket is
// non-blocking. A non-zero timeout bounds each wait; on expiry the bytes
// written so far are reported with the error.
func (h *socketHandle) send(p []byte, timeout time.Duration) (int, error) {
	written := 0
	for written < len(p) {
		var n uint32
		err := windows.WSASend(h.fd, wsaBuf(p[written:]), 1, &n, 0, nil, nil)
		switch {
		case wouldBlock(err):
			if err := h.wait(pollOut, timeout); err != nil {
				return written, osError("send", err)
			}
			continue
		case err != nil:
			return written, osError("send", err)
		}
		written += int(n)
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
		err := windows.Sendto(h.fd, p, 0, sa)
		if wouldBlock(err) {
			if err := h.wait(pollOut, 0); err != nil {
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
		if err := h.wait(pollIn, timeout); err != nil {
			return 0, false, osError("receive", err)
		}
	}
	var got, flags uint32
	err = windows.WSARecv(h.fd, wsaBuf(p), 1, &got, &flags, nil, nil)
	if wouldBlock(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, osError("receive", err)
	}
	return int(got), true, nil
}

// recvFrom reads one datagram into p. Bytes that do not fit are discarded.
func (h *socketHandle) recvFrom(p []byte, blocking bool, timeout time.Duration) (n int, from netip.AddrPort, ok bool, err error) {
	if blocking && timeout > 0 {
		if err := h.wait(pollIn, timeout); err != nil {
			return 0, from, false, osError("receive from", err)
		}
	}
	var (
		got, flags uint32
		rsa        windows.RawSockaddrAny
	)
	size := int32(unsafe.Sizeof(rsa))
	err = windows.WSARecvFrom(h.fd, wsaBuf(p), 1, &got, &flags, &rsa, &size, nil, nil)
	if err == windows.WSAEMSGSIZE {
		// p is full and the rest of the datagram is gone.
		got, err = uint32(len(p)), nil
	}
	if wouldBlock(err) {
		return 0, from, false, nil
	}
	if err != nil {
		return 0, from, false, osError("receive from", err)
	}
	if sa, err := rsa.Sockaddr(); err == nil {
		from = fromSockaddr(sa)
	}
	return int(got), from, true, nil
}

// available returns the number of bytes that can be read without blocking.
func (h *socketHandle) available() (int, error) {
	var n uint32
	if err := ioctlsocket(h.fd, fionread, &n); err != nil {
		return 0, osError("next read size", err)
	}
	return int(n), nil
}

// drain discards bytes that are already queued.
func (h *socketHandle) drain() {
	n, err := h.available()
	if err != nil || n <= 0 {
		return
	}
	var got, flags uint32
	_ = windows.WSARecv(h.fd, wsaBuf(make([]byte, n)), 1, &got, &flags, nil, nil)
}

func (h *socketHandle) sockname() (netip.AddrPort, error) {
	sa, err := windows.Getsockname(h.fd)
	if err != nil {
		return netip.AddrPort{}, osError("getsockname", err)
	}
	return fromSockaddr(sa), nil
}

func (h *socketHandle) peername() (netip.AddrPort, error) {
	sa, err := windows.Getpeername(h.fd)
	if err != nil {
		return netip.AddrPort{}, osError("getpeername", err)
	}
	return fromSockaddr(sa), nil
}

// close releases the socket. Stream sockets are shut down in both
// directions first. The handle must not be used afterwards.
func (h *socketHandle) close() error {
	if h.protocol == NetworkTypeTCP {
		_ = windows.Shutdown(h.fd, windows.SHUT_RDWR)
	}
	if err := windows.Closesocket(h.fd); err != nil {
		return osError("close", err)
	}
	return nil
}

func toSockaddr(ap netip.AddrPort) (windows.Sockaddr, error) {
	addr := ap.Addr()
	if addr.Is4() {
		return &windows.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}, nil
	}
	sa := &windows.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}
	if zone := addr.Zone(); zone != "" {
		ifi, err := net.InterfaceByName(zone)
		if err != nil {
			return nil, newError("resolve", ErrorKindInvalidAddress, fmt.Errorf("zone %q: %w", zone, err))
		}
		sa.ZoneId = uint32(ifi.Index)
	}
	return sa, nil
}

func fromSockaddr(sa windows.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *windows.SockaddrInet6:
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
