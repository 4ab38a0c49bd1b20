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

// This file implements the length-prefixed binary framing spec.md §4.1
// mandates in place of the teacher's RLP-over-devp2p codec
// (node/cn/protocol.go's hashOrNumber et al.): frame = u32 length | tag byte
// | payload. Payload encoding is a flat, hand-rolled binary layout rather
// than RLP, matching the non-Ethereum wire format the spec defines.
package p2p

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/ground-x/kcore/metrics"
)

// Sentinel codec errors, wrapped with github.com/pkg/errors.Wrap at call
// sites the way node/service.go wraps lower-level errors with context.
var (
	ErrEncodingTooLarge = errors.New("p2p: payload too large to encode")
	ErrMalformedFrame   = errors.New("p2p: malformed frame")
	ErrFrameTooLarge    = errors.New("p2p: frame exceeds maximum size")
	ErrNeedMore         = errors.New("p2p: need more data")
	ErrUnknownTag       = errors.New("p2p: unknown message tag")
)

// MaxFrameSize bounds a single decoded frame, defending against a peer
// claiming an unbounded length prefix.
var MaxFrameSize = 16 * 1024 * 1024

// EncodeFrame serializes a payload as length | tag | body and writes it to w.
func EncodeFrame(w io.Writer, p Payload) error {
	body := p.marshal()
	if len(body) > MaxFrameSize {
		return errors.Wrapf(ErrEncodingTooLarge, "tag %s: %d bytes", p.Tag(), len(body))
	}

	frame := make([]byte, 4+1+len(body))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(1+len(body)))
	frame[4] = byte(p.Tag())
	copy(frame[5:], body)

	if _, err := w.Write(frame); err != nil {
		return errors.Wrap(err, "p2p: write frame")
	}
	metrics.FramesEncoded.Inc(1)
	return nil
}

// DecodeFrame reads one length-prefixed frame from r and decodes its payload.
func DecodeFrame(r *bufio.Reader) (Payload, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, errors.Wrap(err, "p2p: read frame length")
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length == 0 {
		return nil, errors.Wrap(ErrMalformedFrame, "zero-length frame")
	}
	if int(length) > MaxFrameSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "%d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrap(err, "p2p: read frame body")
	}

	p, err := newPayload(Tag(body[0]))
	if err != nil {
		return nil, err
	}
	if err := p.unmarshal(body[1:]); err != nil {
		return nil, errors.Wrap(err, "p2p: decode payload")
	}
	metrics.FramesDecoded.Inc(1)
	return p, nil
}

func newPayload(tag Tag) (Payload, error) {
	switch tag {
	case TagVersion:
		return &Version{}, nil
	case TagVerack:
		return &Verack{}, nil
	case TagPing:
		return &Ping{}, nil
	case TagPong:
		return &Pong{}, nil
	case TagGetPeers:
		return &GetPeers{}, nil
	case TagPeers:
		return &Peers{}, nil
	case TagGetMemoryPool:
		return &GetMemoryPool{}, nil
	case TagMemoryPool:
		return &MemoryPool{}, nil
	case TagTransaction:
		return &Transaction{}, nil
	case TagGetSync:
		return &GetSync{}, nil
	case TagSync:
		return &Sync{}, nil
	case TagGetBlocks:
		return &GetBlocks{}, nil
	case TagBlock:
		return &Block{}, nil
	case TagSyncBlock:
		return &SyncBlock{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownTag, "0x%02x", byte(tag))
	}
}

// --- payload (de)serialization -------------------------------------------
//
// Fixed-width fields are little-endian. Variable-length fields (byte
// strings, lists) are length-prefixed with a u32 count/length, mirroring
// the frame header's own prefixing convention.

func putUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func putUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

func appendBytes(dst []byte, b []byte) []byte {
	var lenBuf [4]byte
	putUint32(lenBuf[:], uint32(len(b)))
	dst = append(dst, lenBuf[:]...)
	return append(dst, b...)
}

func readBytes(data []byte) (b []byte, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, ErrMalformedFrame
	}
	n := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint64(len(data)) < uint64(n) {
		return nil, nil, ErrMalformedFrame
	}
	return data[:n], data[n:], nil
}

func (v *Version) marshal() []byte {
	buf := make([]byte, 4+2+8+8)
	putUint32(buf[0:4], v.Version)
	putUint16(buf[4:6], v.ListenerPort)
	putUint64(buf[6:14], v.Nonce)
	putUint64(buf[14:22], v.Height)
	return buf
}

func (v *Version) unmarshal(data []byte) error {
	if len(data) != 22 {
		return ErrMalformedFrame
	}
	v.Version = binary.LittleEndian.Uint32(data[0:4])
	v.ListenerPort = binary.LittleEndian.Uint16(data[4:6])
	v.Nonce = binary.LittleEndian.Uint64(data[6:14])
	v.Height = binary.LittleEndian.Uint64(data[14:22])
	return nil
}

func (v *Verack) marshal() []byte {
	buf := make([]byte, 8)
	putUint64(buf, v.Nonce)
	return buf
}

func (v *Verack) unmarshal(data []byte) error {
	if len(data) != 8 {
		return ErrMalformedFrame
	}
	v.Nonce = binary.LittleEndian.Uint64(data)
	return nil
}

func (p *Ping) marshal() []byte {
	buf := make([]byte, 8)
	putUint64(buf, p.Height)
	return buf
}

func (p *Ping) unmarshal(data []byte) error {
	if len(data) != 8 {
		return ErrMalformedFrame
	}
	p.Height = binary.LittleEndian.Uint64(data)
	return nil
}

func (*Pong) marshal() []byte            { return nil }
func (*Pong) unmarshal(data []byte) error {
	if len(data) != 0 {
		return ErrMalformedFrame
	}
	return nil
}

func (*GetPeers) marshal() []byte { return nil }
func (*GetPeers) unmarshal(data []byte) error {
	if len(data) != 0 {
		return ErrMalformedFrame
	}
	return nil
}

func (p *Peers) marshal() []byte {
	var buf []byte
	var countBuf [4]byte
	putUint32(countBuf[:], uint32(len(p.Addresses)))
	buf = append(buf, countBuf[:]...)
	for _, a := range p.Addresses {
		b, _ := a.MarshalBinary()
		buf = append(buf, b...)
	}
	return buf
}

func (p *Peers) unmarshal(data []byte) error {
	if len(data) < 4 {
		return ErrMalformedFrame
	}
	count := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	addrs := make([]Address, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < addressWireLen {
			return ErrMalformedFrame
		}
		var a Address
		if err := a.UnmarshalBinary(data[:addressWireLen]); err != nil {
			return err
		}
		addrs = append(addrs, a)
		data = data[addressWireLen:]
	}
	p.Addresses = addrs
	return nil
}

func (*GetMemoryPool) marshal() []byte { return nil }
func (*GetMemoryPool) unmarshal(data []byte) error {
	if len(data) != 0 {
		return ErrMalformedFrame
	}
	return nil
}

func (m *MemoryPool) marshal() []byte {
	var buf []byte
	var countBuf [4]byte
	putUint32(countBuf[:], uint32(len(m.Transactions)))
	buf = append(buf, countBuf[:]...)
	for _, tx := range m.Transactions {
		buf = appendBytes(buf, tx)
	}
	return buf
}

func (m *MemoryPool) unmarshal(data []byte) error {
	if len(data) < 4 {
		return ErrMalformedFrame
	}
	count := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	txs := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		var tx []byte
		var err error
		tx, data, err = readBytes(data)
		if err != nil {
			return err
		}
		txs = append(txs, append([]byte(nil), tx...))
	}
	m.Transactions = txs
	return nil
}

func (t *Transaction) marshal() []byte { return appendBytes(nil, t.Bytes) }

func (t *Transaction) unmarshal(data []byte) error {
	b, rest, err := readBytes(data)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return ErrMalformedFrame
	}
	t.Bytes = append([]byte(nil), b...)
	return nil
}

func marshalHashes(hashes []Hash) []byte {
	buf := make([]byte, 4, 4+len(hashes)*32)
	putUint32(buf, uint32(len(hashes)))
	for _, h := range hashes {
		buf = append(buf, h[:]...)
	}
	return buf
}

func unmarshalHashes(data []byte) ([]Hash, error) {
	if len(data) < 4 {
		return nil, ErrMalformedFrame
	}
	count := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint64(len(data)) != uint64(count)*32 {
		return nil, ErrMalformedFrame
	}
	hashes := make([]Hash, count)
	for i := range hashes {
		copy(hashes[i][:], data[i*32:(i+1)*32])
	}
	return hashes, nil
}

func (g *GetSync) marshal() []byte { return marshalHashes(g.LocatorHashes) }

func (g *GetSync) unmarshal(data []byte) error {
	h, err := unmarshalHashes(data)
	if err != nil {
		return err
	}
	g.LocatorHashes = h
	return nil
}

func (s *Sync) marshal() []byte { return marshalHashes(s.BlockHashes) }

func (s *Sync) unmarshal(data []byte) error {
	h, err := unmarshalHashes(data)
	if err != nil {
		return err
	}
	s.BlockHashes = h
	return nil
}

func (g *GetBlocks) marshal() []byte { return marshalHashes(g.Hashes) }

func (g *GetBlocks) unmarshal(data []byte) error {
	h, err := unmarshalHashes(data)
	if err != nil {
		return err
	}
	g.Hashes = h
	return nil
}

func (b *Block) marshal() []byte { return appendBytes(nil, b.Bytes) }

func (b *Block) unmarshal(data []byte) error {
	v, rest, err := readBytes(data)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return ErrMalformedFrame
	}
	b.Bytes = append([]byte(nil), v...)
	return nil
}

func (s *SyncBlock) marshal() []byte { return appendBytes(nil, s.Bytes) }

func (s *SyncBlock) unmarshal(data []byte) error {
	v, rest, err := readBytes(data)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return ErrMalformedFrame
	}
	s.Bytes = append([]byte(nil), v...)
	return nil
}
