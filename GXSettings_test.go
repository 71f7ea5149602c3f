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
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestSettingsXML(t *testing.T) {
	s := &GXSettings{
		Protocol:      NetworkTypeUDP,
		Server:        true,
		IPVersion:     IPVersionIPv6,
		HostName:      "a&b",
		Port:          4059,
		LocalHostName: "::1",
		LocalPort:     4060,
		Backlog:       5,
		NonBlocking:   true,
		Timeout:       1500 * time.Millisecond,
		ReceiveSize:   512,
	}
	str := s.GetSettings()
	assert.Assert(t, len(str) > 0)

	var got GXSettings
	got.Protocol = NetworkTypeTCP
	assert.NilError(t, got.SetSettings(str))
	assert.Equal(t, s.Protocol, got.Protocol)
	assert.Equal(t, s.Server, got.Server)
	assert.Equal(t, s.IPVersion, got.IPVersion)
	assert.Equal(t, s.HostName, got.HostName)
	assert.Equal(t, s.Port, got.Port)
	assert.Equal(t, s.LocalHostName, got.LocalHostName)
	assert.Equal(t, s.LocalPort, got.LocalPort)
	assert.Equal(t, s.Backlog, got.Backlog)
	assert.Equal(t, s.NonBlocking, got.NonBlocking)
	assert.Equal(t, s.Timeout, got.Timeout)
	assert.Equal(t, s.ReceiveSize, got.ReceiveSize)
}

func TestSettingsDefaultsAreOmitted(t *testing.T) {
	s := NewGXSettings()
	assert.Equal(t, "", s.GetSettings())

	s.HostName = "localhost"
	s.Port = 1000
	assert.Equal(t, "<IP>localhost</IP>\n<Port>1000</Port>\n", s.GetSettings())
}

func TestSetSettingsIgnoresUnknownElements(t *testing.T) {
	s := NewGXSettings()
	assert.NilError(t, s.SetSettings("<Foo>1</Foo><IP>10.0.0.1</IP><Port>x</Port>"))
	assert.Equal(t, "10.0.0.1", s.HostName)
	assert.Equal(t, 0, s.Port)
	assert.Equal(t, NetworkTypeTCP, s.Protocol)

	assert.NilError(t, s.SetSettings("   "))
	assert.Equal(t, "10.0.0.1", s.HostName)
}

func TestSetSettingsMalformed(t *testing.T) {
	s := NewGXSettings()
	assert.Assert(t, s.SetSettings("<IP>10.0.0.1</Port>") != nil)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *GXSettings)
		kind   ErrorKind
	}{
		{"port", func(s *GXSettings) { s.Port = 65536 }, ErrorKindInvalidArgument},
		{"local port", func(s *GXSettings) { s.LocalPort = -1 }, ErrorKindInvalidArgument},
		{"backlog", func(s *GXSettings) { s.Backlog = -1 }, ErrorKindInvalidArgument},
		{"timeout", func(s *GXSettings) { s.Timeout = -time.Second }, ErrorKindInvalidArgument},
		{"receive size", func(s *GXSettings) { s.ReceiveSize = -1 }, ErrorKindInvalidArgument},
		{"protocol", func(s *GXSettings) { s.Protocol = NetworkType(9) }, ErrorKindInvalidArgument},
		{"ip version", func(s *GXSettings) { s.IPVersion = IPVersion(9) }, ErrorKindInvalidArgument},
		{"client host", func(s *GXSettings) { s.HostName = "" }, ErrorKindInvalidAddress},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewGXSettings()
			s.HostName = "127.0.0.1"
			s.Port = 4059
			tc.modify(s)
			assertKind(t, s.Validate(), tc.kind)
			_, err := s.Open()
			assertKind(t, err, tc.kind)
		})
	}

	s := NewGXSettings()
	s.HostName = "127.0.0.1"
	s.Port = 4059
	assert.NilError(t, s.Validate())
}
