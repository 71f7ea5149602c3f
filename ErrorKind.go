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

	"github.com/Gurux/gxcommon-go"
)

// ErrorKind classifies socket failures independently of the OS error code.
type ErrorKind int

const (
	// ErrorKindIO is an OS error that has no more specific kind.
	ErrorKindIO ErrorKind = iota
	// ErrorKindInvalidAddress is a malformed or unresolvable host.
	ErrorKindInvalidAddress
	// ErrorKindAddressFamilyMismatch is a literal address of the wrong IP version.
	ErrorKindAddressFamilyMismatch
	// ErrorKindAddressInUse is a bind to an occupied port.
	ErrorKindAddressInUse
	// ErrorKindPermissionDenied is an OS refusal, e.g. a privileged port.
	ErrorKindPermissionDenied
	// ErrorKindConnectionRefused is a connect rejected by the peer.
	ErrorKindConnectionRefused
	// ErrorKindUnreachable is a connect to a host or network without a route.
	ErrorKindUnreachable
	// ErrorKindTimeout is an expired connect, accept or receive deadline.
	ErrorKindTimeout
	// ErrorKindConnectionReset is a connection torn down by the peer.
	ErrorKindConnectionReset
	// ErrorKindDisconnected is any use of a socket after Disconnect.
	ErrorKindDisconnected
	// ErrorKindAlreadyDisconnected is a second Disconnect.
	ErrorKindAlreadyDisconnected
	// ErrorKindInvalidArgument is a bad payload, port, backlog or enum value.
	ErrorKindInvalidArgument
	// ErrorKindResourceExhausted is descriptor or buffer exhaustion.
	ErrorKindResourceExhausted
	// ErrorKindUnsupported is a platform or address family without socket support.
	ErrorKindUnsupported
)

// Sentinel errors, one per ErrorKind. Match them with errors.Is.
var (
	ErrIO                    = errors.New("i/o error")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrAddressFamilyMismatch = errors.New("address does not match the IP version")
	ErrAddressInUse          = errors.New("address already in use")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrConnectionRefused     = errors.New("connection refused")
	ErrUnreachable           = errors.New("host unreachable")
	ErrTimeout               = errors.New("operation timed out")
	ErrConnectionReset       = errors.New("connection reset by peer")
	ErrDisconnected          = errors.New("cannot use socket that has already been destroyed")
	ErrAlreadyDisconnected   = errors.New("socket is already disconnected")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrResourceExhausted     = errors.New("resource exhausted")
	ErrUnsupported           = errors.New("not supported")
)

var kindErrors = [...]error{
	ErrorKindIO:                    ErrIO,
	ErrorKindInvalidAddress:        ErrInvalidAddress,
	ErrorKindAddressFamilyMismatch: ErrAddressFamilyMismatch,
	ErrorKindAddressInUse:          ErrAddressInUse,
	ErrorKindPermissionDenied:      ErrPermissionDenied,
	ErrorKindConnectionRefused:     ErrConnectionRefused,
	ErrorKindUnreachable:           ErrUnreachable,
	ErrorKindTimeout:               ErrTimeout,
	ErrorKindConnectionReset:       ErrConnectionReset,
	ErrorKindDisconnected:          ErrDisconnected,
	ErrorKindAlreadyDisconnected:   ErrAlreadyDisconnected,
	ErrorKindInvalidArgument:       ErrInvalidArgument,
	ErrorKindResourceExhausted:     ErrResourceExhausted,
	ErrorKindUnsupported:           ErrUnsupported,
}

var kindNames = [...]string{
	ErrorKindIO:                    "IO",
	ErrorKindInvalidAddress:        "InvalidAddress",
	ErrorKindAddressFamilyMismatch: "AddressFamilyMismatch",
	ErrorKindAddressInUse:          "AddressInUse",
	ErrorKindPermissionDenied:      "PermissionDenied",
	ErrorKindConnectionRefused:     "ConnectionRefused",
	ErrorKindUnreachable:           "Unreachable",
	ErrorKindTimeout:               "Timeout",
	ErrorKindConnectionReset:       "ConnectionReset",
	ErrorKindDisconnected:          "Disconnected",
	ErrorKindAlreadyDisconnected:   "AlreadyDisconnected",
	ErrorKindInvalidArgument:       "InvalidArgument",
	ErrorKindResourceExhausted:     "ResourceExhausted",
	ErrorKindUnsupported:           "Unsupported",
}

// String returns the canonical name of the error kind.
func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// Err returns the sentinel error of the kind.
func (k ErrorKind) Err() error {
	if k < 0 || int(k) >= len(kindErrors) {
		return ErrIO
	}
	return kindErrors[k]
}

// SocketError is returned by every failing socket operation.
type SocketError struct {
	// Op is the operation that failed, e.g. "connect" or "receive".
	Op string
	// Kind classifies the failure.
	Kind ErrorKind
	// Err is the underlying OS or resolver error, if any.
	Err error
}

func (e *SocketError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind.Err())
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind.Err(), e.Err)
}

// Unwrap returns the underlying error.
func (e *SocketError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of the error kind.
// A Disconnected error also matches gxcommon.ErrConnectionClosed.
func (e *SocketError) Is(target error) bool {
	if target == e.Kind.Err() {
		return true
	}
	return e.Kind == ErrorKindDisconnected && target == gxcommon.ErrConnectionClosed
}

// ErrorKindOf returns the kind of a socket error.
// ok is false when err does not wrap a *SocketError.
func ErrorKindOf(err error) (kind ErrorKind, ok bool) {
	var se *SocketError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return ErrorKindIO, false
}

func newError(op string, kind ErrorKind, err error) error {
	return &SocketError{Op: op, Kind: kind, Err: err}
}
