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
	"testing"

	"github.com/Gurux/gxcommon-go"
	"gotest.tools/v3/assert"
)

func TestIPVersionParse(t *testing.T) {
	tests := []struct {
		value    string
		expected IPVersion
	}{
		{"IPv4", IPVersionIPv4},
		{"ipv6", IPVersionIPv6},
		{" IPV6 ", IPVersionIPv6},
		{"4", IPVersionIPv4},
		{"6", IPVersionIPv6},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			v, err := IPVersionParse(tc.value)
			assert.NilError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestIPVersionParseUnknown(t *testing.T) {
	_, err := IPVersionParse("IPv5")
	assertKind(t, err, ErrorKindInvalidArgument)
	assert.Assert(t, errors.Is(err, gxcommon.ErrUnknownEnum))
}

func TestIPVersionDefaultsToIPv4(t *testing.T) {
	var v IPVersion
	assert.Equal(t, IPVersionIPv4, v)
	assert.Equal(t, "IPv4", v.String())
	assert.Equal(t, "IPv6", IPVersionIPv6.String())
}

func TestNetworkTypeParse(t *testing.T) {
	v, err := NetworkTypeParse("tcp")
	assert.NilError(t, err)
	assert.Equal(t, NetworkTypeTCP, v)
	v, err = NetworkTypeParse("UDP")
	assert.NilError(t, err)
	assert.Equal(t, NetworkTypeUDP, v)

	_, err = NetworkTypeParse("SCTP")
	assertKind(t, err, ErrorKindInvalidArgument)
	assert.Assert(t, errors.Is(err, gxcommon.ErrUnknownEnum))
}

func TestSocketRoleString(t *testing.T) {
	assert.Equal(t, "client", SocketRoleClient.String())
	assert.Equal(t, "server", SocketRoleServer.String())
}
