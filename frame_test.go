// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bytestream_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	bs "code.hybscloud.com/bytestream"
)

// splitBytes cuts b into chunks of at most size bytes.
func splitBytes(b []byte, size int) [][]byte {
	var out [][]byte
	for len(b) > 0 {
		n := size
		if n > len(b) {
			n = len(b)
		}
		out = append(out, b[:n])
		b = b[n:]
	}
	return out
}

func TestFrame_RoundTrip_AllLengthEncodings(t *testing.T) {
	sizes := []int{0, 1, 5, 253, 254, 300, 65535, 65536, 100_000}
	orders := []struct {
		name string
		opts []bs.Option
	}{
		{"BigEndian", []bs.Option{bs.WithByteOrder(binary.BigEndian)}},
		{"LittleEndian", []bs.Option{bs.WithByteOrder(binary.LittleEndian)}},
		{"Local", []bs.Option{bs.WithLocal()}},
	}
	for _, bo := range orders {
		for _, size := range sizes {
			payload := bytes.Repeat([]byte{0x5A}, size)
			for i := range payload {
				payload[i] = byte(i)
			}
			wire, err := bs.AppendFrame(nil, payload, bo.opts...)
			if err != nil {
				t.Fatalf("%s/%d: encode: %v", bo.name, size, err)
			}

			// Deliver the wire bytes in awkward chunk splits.
			r := bs.NewReader(bs.Chunks(splitBytes(wire, 1023)...))
			v, r, err := bs.NewDecoder(r, bs.FrameDecoder(bo.opts...)).DecodeOnce()
			if err != nil {
				t.Fatalf("%s/%d: decode: %v", bo.name, size, err)
			}
			if !bytes.Equal(v, payload) {
				t.Fatalf("%s/%d: payload mismatch", bo.name, size)
			}
			// Exhaustion is only observed once the source reports it, so
			// drain rather than asking IsEmpty right after the decode.
			if left := drain(t, r); len(left) != 0 {
				t.Fatalf("%s/%d: trailing bytes after frame: %v", bo.name, size, left)
			}
		}
	}
}

func TestFrame_WireFormat(t *testing.T) {
	// 5-byte payload: single header byte.
	wire, err := bs.AppendFrame(nil, []byte("hello"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if want := append([]byte{5}, "hello"...); !bytes.Equal(wire, want) {
		t.Fatalf("wire=%v want=%v", wire, want)
	}

	// 254-byte payload: 0xFE marker plus 2 length bytes (BigEndian default).
	wire, err = bs.AppendFrame(nil, make([]byte, 254))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if wire[0] != 0xFE || wire[1] != 0x00 || wire[2] != 0xFE {
		t.Fatalf("header=%v", wire[:3])
	}
	if len(wire) != 3+254 {
		t.Fatalf("len=%d", len(wire))
	}

	// 65536-byte payload: 0xFF marker plus 7 length bytes.
	wire, err = bs.AppendFrame(nil, make([]byte, 65536))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if wire[0] != 0xFF {
		t.Fatalf("marker=%#x", wire[0])
	}
	if want := []byte{0, 0, 0, 0, 1, 0, 0}; !bytes.Equal(wire[1:8], want) {
		t.Fatalf("length bytes=%v want=%v", wire[1:8], want)
	}
	if len(wire) != 8+65536 {
		t.Fatalf("len=%d", len(wire))
	}
}

func TestFrame_MultipleFramesSequentially(t *testing.T) {
	msgs := [][]byte{
		[]byte("alpha"),
		{},
		bytes.Repeat([]byte{'x'}, 300),
	}
	var wire []byte
	var err error
	for _, m := range msgs {
		if wire, err = bs.AppendFrame(wire, m); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	r := bs.NewReader(bs.Chunks(splitBytes(wire, 7)...))
	for i, m := range msgs {
		var v []byte
		v, r, err = bs.NewDecoder(r, bs.FrameDecoder()).DecodeOnce()
		if err != nil {
			t.Fatalf("decode[%d]: %v", i, err)
		}
		if !bytes.Equal(v, m) {
			t.Fatalf("decode[%d]: payload mismatch", i)
		}
	}
	if left := drain(t, r); len(left) != 0 {
		t.Fatalf("trailing bytes after final frame: %v", left)
	}
}

func TestFrameDecoder_TruncatedStream(t *testing.T) {
	wire, err := bs.AppendFrame(nil, []byte("hello"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bs.NewReader(bs.Chunks(wire[:3])) // header + partial payload
	_, r, err = bs.NewDecoder(r, bs.FrameDecoder()).DecodeOnce()
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("err=%v want io.ErrUnexpectedEOF", err)
	}
	view, perr := r.Peek()
	if perr != nil || !bytes.Equal(view, wire[:3]) {
		t.Fatalf("trailing view=%v err=%v", view, perr)
	}
}

func TestFrameDecoder_TooLong(t *testing.T) {
	wire, err := bs.AppendFrame(nil, make([]byte, 1024))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bs.NewReader(bs.Chunks(wire))
	dec := bs.FrameDecoder(bs.WithReadLimit(512))
	if _, _, err = bs.NewDecoder(r, dec).DecodeOnce(); !errors.Is(err, bs.ErrTooLong) {
		t.Fatalf("err=%v want ErrTooLong", err)
	}
}

func TestFrameDecoder_PayloadSurvivesConsumption(t *testing.T) {
	wire, err := bs.AppendFrame(nil, []byte("payload"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	wire, err = bs.AppendFrame(wire, bytes.Repeat([]byte{'z'}, 32))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bs.NewReader(bs.Chunks(wire))
	v, r, err := bs.NewDecoder(r, bs.FrameDecoder()).DecodeOnce()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Consume the second frame; the first value must be unaffected.
	if _, _, err = bs.NewDecoder(r, bs.FrameDecoder()).DecodeOnce(); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if string(v) != "payload" {
		t.Fatalf("v=%q", v)
	}
}

func TestAppendFrame_LittleEndianLengthBytes(t *testing.T) {
	wire, err := bs.AppendFrame(nil, make([]byte, 0x0100), bs.WithByteOrder(binary.LittleEndian))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if wire[0] != 0xFE || wire[1] != 0x00 || wire[2] != 0x01 {
		t.Fatalf("header=%v", wire[:3])
	}
}
