// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bytestream

import (
	"encoding/binary"
	"math"
)

// Frame wire format: a 1-byte header followed by optional extended length
// bytes and then the payload. Let L be payload length in bytes:
//   - 0 <= L <= 253: header[0] = L (no extended length)
//   - 254 <= L <= 65535: header[0] = 0xFE; next 2 bytes encode L (configured byte order)
//   - 65536 <= L <= 2^56-1: header[0] = 0xFF; next 7 bytes encode lower 56 bits of L
//     in the configured byte order
//
// Maximum supported payload is 2^56-1; larger values produce ErrTooLong.
const (
	frameHeaderLen          = 1
	framePayloadMaxLen8Bits = 1<<8 - 3
	framePayloadMaxLen16    = 1<<16 - 1
	framePayloadMaxLen56    = 1<<56 - 1
)

// FrameDecoder returns a DecodeFunc that extracts one length-prefixed frame
// payload from the buffered stream. The byte order of the length prefix is
// configured with WithByteOrder / WithLocal (default BigEndian), and
// WithReadLimit caps the accepted payload size.
//
// The returned payload is copied out of the buffered region, so it stays
// valid after the Decoder consumes the frame.
func FrameDecoder(opts ...Option) DecodeFunc[[]byte] {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	bo := o.ByteOrder
	le := isLittleEndian(bo)
	limit := int64(o.ReadLimit)

	return func(data []byte, atEOF bool) (int, []byte, error) {
		if len(data) < frameHeaderLen {
			return 0, nil, ErrInsufficientData
		}
		exLen := 0
		switch data[0] {
		case framePayloadMaxLen8Bits + 1:
			exLen = 2
		case framePayloadMaxLen8Bits + 2:
			exLen = 7
		}
		hdrSize := frameHeaderLen + exLen
		if len(data) < hdrSize {
			return 0, nil, ErrInsufficientData
		}

		var length int64
		switch exLen {
		case 2:
			length = int64(bo.Uint16(data[frameHeaderLen:hdrSize]))
		case 7:
			// Widen the 7 length bytes to 8 on the zero-extension side of the
			// configured byte order.
			var h [8]byte
			if le {
				copy(h[:7], data[frameHeaderLen:hdrSize])
			} else {
				copy(h[1:], data[frameHeaderLen:hdrSize])
			}
			length = int64(bo.Uint64(h[:]))
		default:
			length = int64(data[0])
		}

		if limit > 0 && length > limit {
			return 0, nil, ErrTooLong
		}
		if length > int64(math.MaxInt-hdrSize) {
			return 0, nil, ErrTooLong
		}
		total := hdrSize + int(length)
		if len(data) < total {
			return 0, nil, ErrInsufficientData
		}

		payload := make([]byte, length)
		copy(payload, data[hdrSize:total])
		return total, payload, nil
	}
}

// AppendFrame appends one length-prefixed frame carrying payload to dst and
// returns the extended slice. The prefix matches what FrameDecoder with the
// same options accepts.
func AppendFrame(dst, payload []byte, opts ...Option) ([]byte, error) {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	bo := o.ByteOrder

	l := int64(len(payload))
	if l > framePayloadMaxLen56 {
		return dst, ErrTooLong
	}
	switch {
	case l <= framePayloadMaxLen8Bits:
		dst = append(dst, byte(l))
	case l <= framePayloadMaxLen16:
		var h [2]byte
		bo.PutUint16(h[:], uint16(l))
		dst = append(dst, framePayloadMaxLen8Bits+1)
		dst = append(dst, h[:]...)
	default:
		var h [8]byte
		bo.PutUint64(h[:], uint64(l))
		dst = append(dst, framePayloadMaxLen8Bits+2)
		if isLittleEndian(bo) {
			dst = append(dst, h[:7]...)
		} else {
			dst = append(dst, h[1:]...)
		}
	}
	return append(dst, payload...), nil
}

func isLittleEndian(bo binary.ByteOrder) bool {
	var p [2]byte
	bo.PutUint16(p[:], 0x0102)
	return p[0] == 0x02
}
