// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package p2p

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressMarshalRoundTrip(t *testing.T) {
	a := NewAddress(net.ParseIP("192.168.1.7"), 4131)

	data, err := a.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, addressWireLen)

	var got Address
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, a.String(), got.String())
}

func TestAddressIPv4AndIPv6NormalizeDistinctly(t *testing.T) {
	v4 := NewAddress(net.ParseIP("127.0.0.1"), 4131)
	v6 := NewAddress(net.ParseIP("::1"), 4131)
	assert.NotEqual(t, v4.Key(), v6.Key())
}

func TestAddressUnmarshalRejectsWrongLength(t *testing.T) {
	var a Address
	err := a.UnmarshalBinary([]byte{1, 2, 3})
	assert.Error(t, err)
}
