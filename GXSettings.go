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
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Gurux/gxcommon-go"
	"golang.org/x/text/language"
)

// GXSettings holds everything needed to construct a socket.
//
// The zero value is a blocking IPv4 UDP socket bound to an OS chosen port;
// NewGXSettings returns TCP client defaults.
type GXSettings struct {
	Protocol NetworkType
	// Server selects a listening TCP socket.
	Server    bool
	IPVersion IPVersion

	// HostName and Port name the peer of a client, or the default peer of a
	// UDP socket.
	HostName string
	Port     int

	// LocalHostName and LocalPort name the bound address of a server or a
	// UDP socket. Empty host binds every local address, port 0 lets the OS
	// pick one.
	LocalHostName string
	LocalPort     int

	// Backlog is the listen queue length of a server. Zero selects the OS
	// maximum.
	Backlog int
	// NonBlocking switches the socket to non-blocking mode once it is
	// constructed.
	NonBlocking bool
	// Timeout bounds connect, accept and receive in blocking mode. Zero
	// blocks forever.
	Timeout time.Duration
	// ReceiveSize is the most bytes a single receive returns. Zero selects
	// DefaultReceiveSize.
	ReceiveSize int

	Trace              gxcommon.TraceLevel
	Language           language.Tag
	OnTrace            TraceEventHandler
	OnMediaStateChange MediaStateHandler
}

// NewGXSettings returns settings of a blocking IPv4 TCP client.
func NewGXSettings() *GXSettings {
	return &GXSettings{Protocol: NetworkTypeTCP, Language: language.AmericanEnglish}
}

// Validate checks that the settings describe a socket that can be built.
func (s *GXSettings) Validate() error {
	switch {
	case s.Protocol != NetworkTypeTCP && s.Protocol != NetworkTypeUDP:
		return newError("validate", ErrorKindInvalidArgument, fmt.Errorf("unknown protocol %d", int(s.Protocol)))
	case !s.IPVersion.valid():
		return newError("validate", ErrorKindInvalidArgument, fmt.Errorf("unknown IP version %d", int(s.IPVersion)))
	case s.Port < 0 || s.Port > maxPort:
		return newError("validate", ErrorKindInvalidArgument, fmt.Errorf("port %d out of range", s.Port))
	case s.LocalPort < 0 || s.LocalPort > maxPort:
		return newError("validate", ErrorKindInvalidArgument, fmt.Errorf("local port %d out of range", s.LocalPort))
	case s.Backlog < 0:
		return newError("validate", ErrorKindInvalidArgument, fmt.Errorf("backlog %d", s.Backlog))
	case s.Timeout < 0:
		return newError("validate", ErrorKindInvalidArgument, fmt.Errorf("timeout %v", s.Timeout))
	case s.ReceiveSize < 0:
		return newError("validate", ErrorKindInvalidArgument, fmt.Errorf("receive size %d", s.ReceiveSize))
	case s.Protocol == NetworkTypeTCP && !s.Server && s.HostName == "":
		return newError("validate", ErrorKindInvalidAddress, fmt.Errorf("TCP client needs a host name"))
	}
	return nil
}

// Open builds the socket the settings describe: a GXTcpServer for a TCP
// server, a GXTcpClient for a TCP client and a GXUdp otherwise. A UDP socket
// gets a default peer when HostName is set.
func (s *GXSettings) Open() (GXSocket, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var ret GXSocket
	switch {
	case s.Protocol == NetworkTypeTCP && s.Server:
		srv, err := newTcpServer(s)
		if err != nil {
			return nil, err
		}
		ret = srv
	case s.Protocol == NetworkTypeTCP:
		c, err := newTcpClient(s)
		if err != nil {
			return nil, err
		}
		ret = c
	default:
		u, err := newUdp(s)
		if err != nil {
			return nil, err
		}
		ret = u
	}
	if s.NonBlocking {
		if err := ret.SetBlocking(false); err != nil {
			_ = ret.Disconnect()
			return nil, err
		}
	}
	return ret, nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// GetSettings returns the settings as an XML fragment. Default values are
// left out.
func (s *GXSettings) GetSettings() string {
	var b strings.Builder
	if s.HostName != "" {
		fmt.Fprintf(&b, "<IP>%s</IP>\n", xmlEscape(s.HostName))
	}
	if s.Port != 0 {
		fmt.Fprintf(&b, "<Port>%d</Port>\n", s.Port)
	}
	if s.Protocol != NetworkTypeTCP {
		fmt.Fprintf(&b, "<Protocol>%d</Protocol>\n", int(s.Protocol))
	}
	if s.Server {
		b.WriteString("<Server>1</Server>\n")
	}
	if s.IPVersion == IPVersionIPv6 {
		b.WriteString("<IPv6>1</IPv6>\n")
	}
	if s.LocalHostName != "" {
		fmt.Fprintf(&b, "<LocalIP>%s</LocalIP>\n", xmlEscape(s.LocalHostName))
	}
	if s.LocalPort != 0 {
		fmt.Fprintf(&b, "<LocalPort>%d</LocalPort>\n", s.LocalPort)
	}
	if s.Backlog != 0 {
		fmt.Fprintf(&b, "<Backlog>%d</Backlog>\n", s.Backlog)
	}
	if s.NonBlocking {
		b.WriteString("<NonBlocking>1</NonBlocking>\n")
	}
	if s.Timeout != 0 {
		fmt.Fprintf(&b, "<Timeout>%d</Timeout>\n", s.Timeout.Milliseconds())
	}
	if s.ReceiveSize != 0 {
		fmt.Fprintf(&b, "<ReceiveSize>%d</ReceiveSize>\n", s.ReceiveSize)
	}
	if s.Trace != 0 {
		fmt.Fprintf(&b, "<Trace>%s</Trace>\n", xmlEscape(s.Trace.String()))
	}
	return b.String()
}

// SetSettings reads an XML fragment written by GetSettings. Unknown elements
// are ignored.
func (s *GXSettings) SetSettings(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	dec := xml.NewDecoder(strings.NewReader("<root>" + value + "</root>"))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local == "root" {
			continue
		}
		var v string
		if err := dec.DecodeElement(&v, &se); err != nil {
			return err
		}
		v = strings.TrimSpace(v)
		switch se.Name.Local {
		case "IP":
			s.HostName = v
		case "Port":
			if n, err := strconv.Atoi(v); err == nil {
				s.Port = n
			}
		case "Protocol":
			if n, err := strconv.Atoi(v); err == nil {
				s.Protocol = NetworkType(n)
			}
		case "Server":
			s.Server = v == "1"
		case "IPv6":
			if v == "1" {
				s.IPVersion = IPVersionIPv6
			} else {
				s.IPVersion = IPVersionIPv4
			}
		case "LocalIP":
			s.LocalHostName = v
		case "LocalPort":
			if n, err := strconv.Atoi(v); err == nil {
				s.LocalPort = n
			}
		case "Backlog":
			if n, err := strconv.Atoi(v); err == nil {
				s.Backlog = n
			}
		case "NonBlocking":
			s.NonBlocking = v == "1"
		case "Timeout":
			if n, err := strconv.Atoi(v); err == nil {
				s.Timeout = time.Duration(n) * time.Millisecond
			}
		case "ReceiveSize":
			if n, err := strconv.Atoi(v); err == nil {
				s.ReceiveSize = n
			}
		case "Trace":
			tl, err := gxcommon.TraceLevelParse(v)
			if err != nil {
				return err
			}
			s.Trace = tl
		}
	}
	return nil
}
