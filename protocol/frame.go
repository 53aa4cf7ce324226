// File: protocol/frame.go
// Package protocol implements the XTCP frame codec and the connection handle.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wire layout of one frame:
//
//	byte0: FIN(7) RSV(6-4) OPCODE(3-0)
//	byte1: RSV(7) LEN7(6-0)
//	LEN7 == 126: 16-bit big-endian length follows
//	payload
//
// Header decoding never assumes a whole frame is buffered: ReadHeader performs
// its own exact-length reads and returns the payload length the caller must
// consume next.

package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/momentics/xsocket/api"
)

const (
	FinBit         = 0x80
	opcodeMask     = 0x0F
	lengthMask     = 0x7F
	MaxShortLength = 125
	ExtendedLength = 126
	// MaxChunk is the largest payload a single frame can carry.
	MaxChunk = 0xFFFF
	// MaxHeaderSize covers the 2-byte header plus the 16-bit extension.
	MaxHeaderSize = 4
)

// OpCode tags the kind of a frame.
type OpCode byte

const (
	OpContinuation    OpCode = 0x0
	OpData            OpCode = 0x2
	OpConnectionClose OpCode = 0x8
)

// Valid reports whether op is one of the three defined opcodes.
func (op OpCode) Valid() bool {
	switch op {
	case OpContinuation, OpData, OpConnectionClose:
		return true
	}
	return false
}

func (op OpCode) String() string {
	switch op {
	case OpContinuation:
		return "continuation"
	case OpData:
		return "data"
	case OpConnectionClose:
		return "connection-close"
	default:
		return fmt.Sprintf("opcode(%#x)", byte(op))
	}
}

// Header is the decoded fixed part of a frame.
type Header struct {
	Final  bool
	OpCode OpCode
	Length int
}

// ReadHeader reads one frame header from r. Nonzero reserved bits and
// unknown opcodes are protocol violations.
func ReadHeader(r io.Reader) (Header, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Header{}, err
	}

	if rsv := (hdr[0]&0x7F)>>4 | hdr[1]>>7; rsv != 0 {
		return Header{}, fmt.Errorf("%w: reserved bits set (%#x)", api.ErrProtocolViolation, rsv)
	}
	op := OpCode(hdr[0] & opcodeMask)
	if !op.Valid() {
		return Header{}, fmt.Errorf("%w: unknown %s", api.ErrProtocolViolation, op)
	}

	length := int(hdr[1] & lengthMask)
	if length == ExtendedLength {
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Header{}, err
		}
		length = int(binary.BigEndian.Uint16(ext[:]))
	}

	return Header{
		Final:  hdr[0]&FinBit != 0,
		OpCode: op,
		Length: length,
	}, nil
}
