// File: protocol/frame_codec.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Message segmentation and reassembly.
//
// A message longer than MaxChunk is sent as non-final chunks (first chunk
// carries the message opcode, the rest carry OpContinuation) followed by a
// zero-length final terminator frame carrying the message opcode again.

package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/momentics/xsocket/api"
)

// Limits bounds inbound message reassembly. Zero means unlimited.
type Limits struct {
	MaxMessageSize int `toml:"max_message_size" yaml:"max_message_size"`
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{}
}

// AppendFrame appends one encoded frame to dst and returns the extended slice.
// It panics if payload is longer than MaxChunk.
func AppendFrame(dst []byte, final bool, op OpCode, payload []byte) []byte {
	if len(payload) > MaxChunk {
		panic(fmt.Sprintf("protocol: frame payload %d exceeds %d", len(payload), MaxChunk))
	}
	b0 := byte(op) & opcodeMask
	if final {
		b0 |= FinBit
	}
	dst = slices.Grow(dst, MaxHeaderSize+len(payload))
	if len(payload) <= MaxShortLength {
		dst = append(dst, b0, byte(len(payload)))
	} else {
		dst = append(dst, b0, ExtendedLength)
		dst = binary.BigEndian.AppendUint16(dst, uint16(len(payload)))
	}
	return append(dst, payload...)
}

// Frames yields the wire frames of one message in send order. Each frame is
// a freshly allocated slice the consumer may hand to the socket directly.
func Frames(payload []byte, op OpCode) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if len(payload) <= MaxChunk {
			yield(AppendFrame(nil, true, op, payload))
			return
		}
		code := op
		for chunk := range slices.Chunk(payload, MaxChunk) {
			if !yield(AppendFrame(nil, false, code, chunk)) {
				return
			}
			code = OpContinuation
		}
		yield(AppendFrame(nil, true, op, nil))
	}
}

// FrameCount returns how many frames Frames yields for an n-byte payload.
func FrameCount(n int) int {
	if n <= MaxChunk {
		return 1
	}
	return (n+MaxChunk-1)/MaxChunk + 1
}

// ReadMessage reassembles one message from r.
//
// A ConnectionClose frame is returned as (OpConnectionClose, nil, nil) with
// its payload discarded; deciding what it means is up to the caller.
func ReadMessage(r io.Reader, limits Limits) (OpCode, []byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return 0, nil, err
	}

	switch h.OpCode {
	case OpContinuation:
		return 0, nil, fmt.Errorf("%w: leading continuation frame", api.ErrProtocolViolation)
	case OpConnectionClose:
		if !h.Final {
			return 0, nil, fmt.Errorf("%w: fragmented close frame", api.ErrProtocolViolation)
		}
		if _, err := io.CopyN(io.Discard, r, int64(h.Length)); err != nil {
			return 0, nil, err
		}
		return OpConnectionClose, nil, nil
	}

	op := h.OpCode
	msg := []byte{}
	for {
		if limits.MaxMessageSize > 0 && len(msg)+h.Length > limits.MaxMessageSize {
			return 0, nil, fmt.Errorf("%w (%d > %d)", api.ErrMessageTooLarge,
				len(msg)+h.Length, limits.MaxMessageSize)
		}
		n := len(msg)
		msg = slices.Grow(msg, h.Length)[:n+h.Length]
		if _, err := io.ReadFull(r, msg[n:]); err != nil {
			return 0, nil, err
		}
		if h.Final {
			return op, msg, nil
		}

		if h, err = ReadHeader(r); err != nil {
			return 0, nil, err
		}
		if h.OpCode != OpContinuation && h.OpCode != op {
			return 0, nil, fmt.Errorf("%w: %s frame inside fragmented %s message",
				api.ErrProtocolViolation, h.OpCode, op)
		}
	}
}
