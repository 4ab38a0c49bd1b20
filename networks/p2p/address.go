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

// Package p2p implements the peer-to-peer network and block-synchronization
// core: the wire codec, the peer book, the connection manager, the inbound
// dispatcher, and the sync engine.
package p2p

import (
	"fmt"
	"net"
)

// Address identifies a peer by its listening host and TCP port. An Address
// carries no identity key: the
// wire protocol this package speaks authenticates nothing beyond "this peer
// answered our handshake", matching the bare host:port PeerAddress of spec §2.
type Address struct {
	IP   net.IP
	Port uint16
}

// NewAddress normalizes ip to its 16-byte form so two Addresses for the same
// host always compare equal regardless of how the IP was originally parsed.
func NewAddress(ip net.IP, port uint16) Address {
	return Address{IP: normalizeIP(ip), Port: port}
}

func normalizeIP(ip net.IP) net.IP {
	if v4 := ip.To4(); v4 != nil {
		return v4.To16()
	}
	return ip.To16()
}

// String renders the address in host:port form.
func (a Address) String() string {
	return net.JoinHostPort(a.IP.String(), fmt.Sprintf("%d", a.Port))
}

// Key returns a comparable, map-safe representation of the address.
func (a Address) Key() string {
	return string(a.IP.To16()) + string([]byte{byte(a.Port >> 8), byte(a.Port)})
}

// ResolveAddress parses a "host:port" string into an Address, resolving a
// hostname if necessary.
func ResolveAddress(hostport string) (Address, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", hostport)
	if err != nil {
		return Address{}, err
	}
	return NewAddress(tcpAddr.IP, uint16(tcpAddr.Port)), nil
}

const addressWireLen = 18 // 16-byte IP + 2-byte port

// MarshalBinary encodes the address as its 16-byte IPv6 (or v4-mapped)
// representation followed by the little-endian port, matching the wire
// layout of spec §3 (PeerAddress = ip: u8[16], port: u16).
func (a Address) MarshalBinary() ([]byte, error) {
	buf := make([]byte, addressWireLen)
	ip := normalizeIP(a.IP)
	if ip == nil {
		ip = net.IPv6zero
	}
	copy(buf[0:16], ip)
	buf[16] = byte(a.Port)
	buf[17] = byte(a.Port >> 8)
	return buf, nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (a *Address) UnmarshalBinary(data []byte) error {
	if len(data) != addressWireLen {
		return fmt.Errorf("p2p: malformed address: want %d bytes, got %d", addressWireLen, len(data))
	}
	ip := make(net.IP, 16)
	copy(ip, data[0:16])
	a.IP = ip
	a.Port = uint16(data[16]) | uint16(data[17])<<8
	return nil
}
