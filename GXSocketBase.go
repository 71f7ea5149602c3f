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
	"fmt"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gurux/gxcommon-go"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultReceiveSize is the largest number of bytes a single receive returns
// until SetReceiveSize says otherwise.
const DefaultReceiveSize = 65536

// TraceEventHandler is called when a socket emits a trace message.
type TraceEventHandler func(s GXSocket, e gxcommon.TraceEventArgs)

// MediaStateHandler is called when a socket opens or closes.
type MediaStateHandler func(s GXSocket, e gxcommon.MediaStateEventArgs)

// GXSocket is the capability set shared by every socket variant.
//
// Only GXTcpClient, GXTcpServer and GXUdp implement it; there is no way to
// create a bare base socket.
type GXSocket interface {
	fmt.Stringer

	// Disconnect closes the socket. Every later operation fails with
	// ErrDisconnected, a second Disconnect with ErrAlreadyDisconnected.
	Disconnect() error
	// IsDestroyed reports whether Disconnect has been called.
	IsDestroyed() bool
	// GetBlocking reports whether I/O suspends the caller.
	GetBlocking() bool
	// SetBlocking switches the blocking mode for the next I/O call.
	SetBlocking(blocking bool) error

	IsIPv4() bool
	IsIPv6() bool
	IsTCP() bool
	IsUDP() bool
	IsClient() bool
	IsServer() bool

	// GetHostFrom returns the local address. Empty means every local address.
	GetHostFrom() string
	// GetPortFrom returns the local port.
	GetPortFrom() int

	GetTimeout() uint32
	SetTimeout(value uint32) error
	GetReceiveSize() int
	SetReceiveSize(value int) error

	GetBytesSent() uint64
	GetBytesReceived() uint64
	ResetByteCounters()

	GetTrace() gxcommon.TraceLevel
	SetTrace(traceLevel gxcommon.TraceLevel) error
	SetOnTrace(value TraceEventHandler)
	SetOnMediaStateChange(value MediaStateHandler)
	Localize(language language.Tag)

	base() *socketBase
}

// socketBase holds the lifecycle state every variant embeds.
type socketBase struct {
	mu        sync.RWMutex
	handle    *socketHandle
	destroyed bool
	blocking  bool

	protocol  NetworkType
	role      SocketRole
	ipVersion IPVersion
	local     netip.AddrPort
	hostFrom  string

	// Deadline of blocking connect, accept and receive. Zero blocks forever.
	timeout     time.Duration
	receiveSize int

	// Receive buffer reused by every receive call. Callers get a copy
	// sized to what arrived.
	rmu  sync.Mutex
	rbuf []byte

	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64

	// The trace level specifies which types of trace messages are emitted.
	traceLevel gxcommon.TraceLevel
	onTrace    TraceEventHandler
	onState    MediaStateHandler

	// Printer for localized messages.
	p *message.Printer

	// owner is the variant handed to event handlers.
	owner GXSocket
}

func (b *socketBase) init(owner GXSocket, protocol NetworkType, role SocketRole, s *GXSettings) {
	b.owner = owner
	b.protocol = protocol
	b.role = role
	b.ipVersion = s.IPVersion
	b.blocking = true
	b.timeout = s.Timeout
	b.receiveSize = s.ReceiveSize
	if b.receiveSize <= 0 {
		b.receiveSize = DefaultReceiveSize
	}
	b.traceLevel = s.Trace
	b.onTrace = s.OnTrace
	b.onState = s.OnMediaStateChange
	b.Localize(s.Language)
}

// inherit copies settings of a parent socket, e.g. a server to the sockets
// it accepts.
func (b *socketBase) inherit(owner GXSocket, parent *socketBase) {
	parent.mu.RLock()
	defer parent.mu.RUnlock()
	b.owner = owner
	b.protocol = parent.protocol
	b.role = SocketRoleClient
	b.ipVersion = parent.ipVersion
	b.blocking = true
	b.timeout = parent.timeout
	b.receiveSize = parent.receiveSize
	b.traceLevel = parent.traceLevel
	b.onTrace = parent.onTrace
	b.onState = parent.onState
	b.p = parent.p
}

// attach takes ownership of h and records its local endpoint.
func (b *socketBase) attach(h *socketHandle) {
	b.handle = h
	b.local = h.localEndpoint()
	if addr := b.local.Addr(); addr.IsValid() && !addr.IsUnspecified() {
		b.hostFrom = hostString(addr)
	}
}

func (b *socketBase) base() *socketBase {
	return b
}

// acquire returns the handle and the current I/O mode, or ErrDisconnected.
func (b *socketBase) acquire(op string) (h *socketHandle, blocking bool, timeout time.Duration, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.destroyed {
		return nil, false, 0, newError(op, ErrorKindDisconnected, nil)
	}
	return b.handle, b.blocking, b.timeout, nil
}

// String returns the local endpoint.
func (b *socketBase) String() string {
	return fmt.Sprintf("%s:%d", b.hostFrom, b.GetPortFrom())
}

// Disconnect implements GXSocket
func (b *socketBase) Disconnect() error {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return newError("disconnect", ErrorKindAlreadyDisconnected, nil)
	}
	h := b.handle
	b.destroyed = true
	b.handle = nil
	b.mu.Unlock()

	b.trace(gxcommon.TraceTypesInfo, "msg.closing_connection", b.owner.String())
	b.statef(gxcommon.MediaStateClosing)
	if b.protocol == NetworkTypeTCP && b.role == SocketRoleClient {
		// Unread data would turn the close into a reset.
		h.drain()
	}
	err := h.close()
	b.trace(gxcommon.TraceTypesInfo, "msg.connection_closed", b.owner.String())
	b.statef(gxcommon.MediaStateClosed)
	return err
}

// IsDestroyed implements GXSocket
func (b *socketBase) IsDestroyed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.destroyed
}

// GetBlocking implements GXSocket
func (b *socketBase) GetBlocking() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.blocking
}

// SetBlocking implements GXSocket
func (b *socketBase) SetBlocking(blocking bool) error {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return newError("set blocking", ErrorKindDisconnected, nil)
	}
	err := b.handle.setBlocking(blocking)
	if err == nil {
		b.blocking = blocking
	}
	b.mu.Unlock()
	if err != nil {
		return err
	}
	b.trace(gxcommon.TraceTypesInfo, "msg.blocking_changed", blocking)
	return nil
}

// IsIPv4 implements GXSocket
func (b *socketBase) IsIPv4() bool {
	return b.ipVersion == IPVersionIPv4
}

// IsIPv6 implements GXSocket
func (b *socketBase) IsIPv6() bool {
	return b.ipVersion == IPVersionIPv6
}

// IsTCP implements GXSocket
func (b *socketBase) IsTCP() bool {
	return b.protocol == NetworkTypeTCP
}

// IsUDP implements GXSocket
func (b *socketBase) IsUDP() bool {
	return b.protocol == NetworkTypeUDP
}

// IsClient implements GXSocket
func (b *socketBase) IsClient() bool {
	return b.role == SocketRoleClient
}

// IsServer implements GXSocket
func (b *socketBase) IsServer() bool {
	return b.role == SocketRoleServer
}

// GetHostFrom implements GXSocket
func (b *socketBase) GetHostFrom() string {
	return b.hostFrom
}

// GetPortFrom implements GXSocket
func (b *socketBase) GetPortFrom() int {
	return int(b.local.Port())
}

// GetTimeout returns the I/O timeout in milliseconds. Zero blocks forever.
func (b *socketBase) GetTimeout() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(b.timeout / time.Millisecond)
}

// SetTimeout sets the I/O timeout in milliseconds. Zero blocks forever.
func (b *socketBase) SetTimeout(value uint32) error {
	b.mu.Lock()
	b.timeout = time.Duration(value) * time.Millisecond
	b.mu.Unlock()
	return nil
}

// GetReceiveSize returns the most bytes one receive call returns.
func (b *socketBase) GetReceiveSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.receiveSize
}

// SetReceiveSize sets the most bytes one receive call returns. Datagrams
// longer than this are truncated.
func (b *socketBase) SetReceiveSize(value int) error {
	if value <= 0 {
		return newError("set receive size", ErrorKindInvalidArgument, fmt.Errorf("receive size %d", value))
	}
	b.mu.Lock()
	b.receiveSize = value
	b.mu.Unlock()
	return nil
}

// GetBytesSent implements GXSocket
func (b *socketBase) GetBytesSent() uint64 {
	return b.bytesSent.Load()
}

// GetBytesReceived implements GXSocket
func (b *socketBase) GetBytesReceived() uint64 {
	return b.bytesReceived.Load()
}

// ResetByteCounters implements GXSocket
func (b *socketBase) ResetByteCounters() {
	b.bytesSent.Store(0)
	b.bytesReceived.Store(0)
}

// GetTrace implements GXSocket
func (b *socketBase) GetTrace() gxcommon.TraceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.traceLevel
}

// SetTrace implements GXSocket
func (b *socketBase) SetTrace(traceLevel gxcommon.TraceLevel) error {
	b.mu.Lock()
	b.traceLevel = traceLevel
	b.mu.Unlock()
	return nil
}

// SetOnTrace implements GXSocket
func (b *socketBase) SetOnTrace(value TraceEventHandler) {
	b.mu.Lock()
	b.onTrace = value
	b.mu.Unlock()
}

// SetOnMediaStateChange implements GXSocket
func (b *socketBase) SetOnMediaStateChange(value MediaStateHandler) {
	b.mu.Lock()
	b.onState = value
	b.mu.Unlock()
}

// Localize messages for the specified language.
// No errors is returned if language is not supported.
func (b *socketBase) Localize(tag language.Tag) {
	if tag == language.Und {
		tag = language.AmericanEnglish
	}
	p := message.NewPrinter(tag)
	b.mu.Lock()
	b.p = p
	b.mu.Unlock()
}

func (b *socketBase) traceEnabled(traceType gxcommon.TraceTypes) (TraceEventHandler, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.onTrace, b.onTrace != nil && traceAllowed(b.traceLevel, traceType)
}

// traceAllowed reports whether a trace level lets a trace type through.
// Each level adds to the one below it: Error, then Warning, then Info, and
// Verbose adds the sent and received payloads.
func traceAllowed(level gxcommon.TraceLevel, traceType gxcommon.TraceTypes) bool {
	switch traceType {
	case gxcommon.TraceTypesError:
		return level >= gxcommon.TraceLevelError
	case gxcommon.TraceTypesWarning:
		return level >= gxcommon.TraceLevelWarning
	case gxcommon.TraceTypesInfo:
		return level >= gxcommon.TraceLevelInfo
	case gxcommon.TraceTypesSent, gxcommon.TraceTypesReceived:
		return level >= gxcommon.TraceLevelVerbose
	}
	return false
}

// trace emits a localized message. It must not be called with mu held.
func (b *socketBase) trace(traceType gxcommon.TraceTypes, key string, a ...any) {
	cb, ok := b.traceEnabled(traceType)
	if !ok {
		return
	}
	b.mu.RLock()
	p := b.p
	b.mu.RUnlock()
	cb(b.owner, *gxcommon.NewTraceEventArgs(traceType, p.Sprintf(key, a...), ""))
}

// tracef emits a message that is not localized, such as a payload dump.
func (b *socketBase) tracef(traceType gxcommon.TraceTypes, format string, a ...any) {
	cb, ok := b.traceEnabled(traceType)
	if !ok {
		return
	}
	cb(b.owner, *gxcommon.NewTraceEventArgs(traceType, fmt.Sprintf(format, a...), ""))
}

// traceData dumps a payload as it was sent or received.
func (b *socketBase) traceData(traceType gxcommon.TraceTypes, prefix string, data []byte) {
	if _, ok := b.traceEnabled(traceType); !ok {
		return
	}
	str, err := gxcommon.ToString(data)
	if err != nil {
		b.tracef(gxcommon.TraceTypesError, "%s failed: %v", prefix, err)
		return
	}
	b.tracef(traceType, "%s: %s", prefix, str)
}

func (b *socketBase) statef(state gxcommon.MediaState) {
	b.mu.RLock()
	cb := b.onState
	b.mu.RUnlock()
	if cb != nil {
		cb(b.owner, *gxcommon.NewMediaStateEventArgs(state))
	}
}

// receive reads once into the shared receive buffer and returns a copy of
// the n bytes read. ok is false when nothing was available.
func (b *socketBase) receive(read func(buf []byte) (n int, ok bool, err error)) (data []byte, ok bool, err error) {
	size := b.GetReceiveSize()
	b.rmu.Lock()
	defer b.rmu.Unlock()
	if cap(b.rbuf) < size {
		b.rbuf = make([]byte, size)
	}
	n, ok, err := read(b.rbuf[:size])
	if err != nil || !ok {
		return nil, ok, err
	}
	data = make([]byte, n)
	copy(data, b.rbuf[:n])
	return data, true, nil
}

// sent accounts for and traces an outgoing payload.
func (b *socketBase) sent(data []byte) {
	b.bytesSent.Add(uint64(len(data)))
	b.traceData(gxcommon.TraceTypesSent, "TX", data)
}

// received accounts for and traces an incoming payload.
func (b *socketBase) received(data []byte) {
	b.bytesReceived.Add(uint64(len(data)))
	b.traceData(gxcommon.TraceTypesReceived, "RX", data)
}

//nolint:errcheck
func init() {
	// --- English (default) ---
	message.SetString(language.AmericanEnglish, "msg.connecting_to", "%s connecting to %s:%d timeout %d ms")
	message.SetString(language.AmericanEnglish, "msg.connected_to", "Connected to %s:%d")
	message.SetString(language.AmericanEnglish, "msg.connect_failed", "connect to %s:%d failed: %v")
	message.SetString(language.AmericanEnglish, "msg.listening", "Listening on %s backlog %d")
	message.SetString(language.AmericanEnglish, "msg.bound", "Bound to %s")
	message.SetString(language.AmericanEnglish, "msg.accepted", "Accepted connection from %s")
	message.SetString(language.AmericanEnglish, "msg.closing_connection", "Closing connection to %s")
	message.SetString(language.AmericanEnglish, "msg.connection_closed", "Connection closed to %s")
	message.SetString(language.AmericanEnglish, "msg.blocking_changed", "Blocking mode set to %t")
	message.SetString(language.AmericanEnglish, "msg.receive_failed", "Receive failed: %v")
	message.SetString(language.AmericanEnglish, "msg.send_failed", "Send failed: %v")

	// --- German (de) ---
	message.SetString(language.German, "msg.connecting_to", "%s verbindet sich mit %s:%d timeout %d ms")
	message.SetString(language.German, "msg.connected_to", "Verbunden mit %s:%d")
	message.SetString(language.German, "msg.connect_failed", "Verbindung zu %s:%d fehlgeschlagen: %v")
	message.SetString(language.German, "msg.listening", "Wartet auf Verbindungen an %s, Warteschlange %d")
	message.SetString(language.German, "msg.bound", "Gebunden an %s")
	message.SetString(language.German, "msg.accepted", "Verbindung von %s angenommen")
	message.SetString(language.German, "msg.closing_connection", "Verbindung zu %s wird geschlossen")
	message.SetString(language.German, "msg.connection_closed", "Verbindung zu %s wurde geschlossen")
	message.SetString(language.German, "msg.blocking_changed", "Blockierender Modus auf %t gesetzt")
	message.SetString(language.German, "msg.receive_failed", "Empfang fehlgeschlagen: %v")
	message.SetString(language.German, "msg.send_failed", "Senden fehlgeschlagen: %v")

	// --- Finnish (fi) ---
	message.SetString(language.Finnish, "msg.connecting_to", "%s yhdistetään kohteeseen %s:%d timeout %d ms")
	message.SetString(language.Finnish, "msg.connected_to", "Yhdistetty kohteeseen %s:%d")
	message.SetString(language.Finnish, "msg.connect_failed", "Yhteyden muodostus kohteeseen %s:%d epäonnistui: %v")
	message.SetString(language.Finnish, "msg.listening", "Kuunnellaan osoitetta %s, jono %d")
	message.SetString(language.Finnish, "msg.bound", "Sidottu osoitteeseen %s")
	message.SetString(language.Finnish, "msg.accepted", "Hyväksytty yhteys osoitteesta %s")
	message.SetString(language.Finnish, "msg.closing_connection", "Suljetaan yhteys kohteeseen %s")
	message.SetString(language.Finnish, "msg.connection_closed", "Yhteys suljettu kohteeseen %s")
	message.SetString(language.Finnish, "msg.blocking_changed", "Estävä tila asetettu: %t")
	message.SetString(language.Finnish, "msg.receive_failed", "Vastaanotto epäonnistui: %v")
	message.SetString(language.Finnish, "msg.send_failed", "Lähetys epäonnistui: %v")

	// --- Swedish (sv) ---
	message.SetString(language.Swedish, "msg.connecting_to", "%s ansluter till %s:%d timeout %d ms")
	message.SetString(language.Swedish, "msg.connected_to", "Ansluten till %s:%d")
	message.SetString(language.Swedish, "msg.connect_failed", "Anslutning till %s:%d misslyckades: %v")
	message.SetString(language.Swedish, "msg.listening", "Lyssnar på %s, kö %d")
	message.SetString(language.Swedish, "msg.bound", "Bunden till %s")
	message.SetString(language.Swedish, "msg.accepted", "Accepterade anslutning från %s")
	message.SetString(language.Swedish, "msg.closing_connection", "Stänger anslutning till %s")
	message.SetString(language.Swedish, "msg.connection_closed", "Anslutning stängd till %s")
	message.SetString(language.Swedish, "msg.blocking_changed", "Blockerande läge satt till %t")
	message.SetString(language.Swedish, "msg.receive_failed", "Mottagning misslyckades: %v")
	message.SetString(language.Swedish, "msg.send_failed", "Sändning misslyckades: %v")

	// --- Spanish (es) ---
	message.SetString(language.Spanish, "msg.connecting_to", "%s conectando a %s:%d timeout %d ms")
	message.SetString(language.Spanish, "msg.connected_to", "Conectado a %s:%d")
	message.SetString(language.Spanish, "msg.connect_failed", "Error al conectar con %s:%d: %v")
	message.SetString(language.Spanish, "msg.listening", "Escuchando en %s, cola %d")
	message.SetString(language.Spanish, "msg.bound", "Vinculado a %s")
	message.SetString(language.Spanish, "msg.accepted", "Conexión aceptada desde %s")
	message.SetString(language.Spanish, "msg.closing_connection", "Cerrando conexión con %s")
	message.SetString(language.Spanish, "msg.connection_closed", "Conexión cerrada con %s")
	message.SetString(language.Spanish, "msg.blocking_changed", "Modo bloqueante establecido en %t")
	message.SetString(language.Spanish, "msg.receive_failed", "Error de recepción: %v")
	message.SetString(language.Spanish, "msg.send_failed", "Error de envío: %v")

	// --- Estonian (et) ---
	message.SetString(language.Estonian, "msg.connecting_to", "%s ühendatakse sihtkohta %s:%d timeout %d ms")
	message.SetString(language.Estonian, "msg.connected_to", "Ühendatud sihtkohta %s:%d")
	message.SetString(language.Estonian, "msg.connect_failed", "Ühendamine sihtkohta %s:%d ebaõnnestus: %v")
	message.SetString(language.Estonian, "msg.listening", "Kuulatakse aadressil %s, järjekord %d")
	message.SetString(language.Estonian, "msg.bound", "Seotud aadressiga %s")
	message.SetString(language.Estonian, "msg.accepted", "Ühendus vastu võetud aadressilt %s")
	message.SetString(language.Estonian, "msg.closing_connection", "Suletakse ühendus sihtkohta %s")
	message.SetString(language.Estonian, "msg.connection_closed", "Ühendus suleti sihtkohta %s")
	message.SetString(language.Estonian, "msg.blocking_changed", "Blokeeriv režiim seatud: %t")
	message.SetString(language.Estonian, "msg.receive_failed", "Vastuvõtt ebaõnnestus: %v")
	message.SetString(language.Estonian, "msg.send_failed", "Saatmine ebaõnnestus: %v")
}
