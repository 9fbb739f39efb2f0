// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bytestream

import (
	"encoding/binary"
	"time"
)

// Options configures Reader, Source adapter, and frame codec behavior.
type Options struct {
	// ByteOrder selects the length-prefix encoding used by the frame codec.
	ByteOrder binary.ByteOrder

	// BufferCapacity is the initial capacity of a Reader's buffer (bytes).
	// Zero or negative means the 8 KiB default.
	BufferCapacity int

	// ChunkSize caps how many bytes a ReaderSource pulls per poll.
	// Zero or negative means the 8 KiB default.
	ChunkSize int

	// ReadLimit caps how many bytes a Decoder may accumulate without
	// producing a value, and the maximum frame payload the frame codec
	// accepts (bytes). Zero means no limit.
	ReadLimit int

	// RetryDelay controls how the Reader handles iox.ErrWouldBlock from its Source:
	//   - negative: nonblock, return ErrWouldBlock immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	RetryDelay time.Duration
}

var defaultOptions = Options{
	ByteOrder:      binary.BigEndian,
	BufferCapacity: defaultBufferCap,
	ChunkSize:      defaultBufferCap,
	ReadLimit:      0,
	RetryDelay:     -1, // default: nonblock
}

type Option func(*Options)

// WithByteOrder sets the byte order used for frame length prefixes.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *Options) { o.ByteOrder = order }
}

// WithLocal selects the host's native byte order for frame length prefixes.
// Suitable for same-host transports where both ends share the architecture.
func WithLocal() Option {
	return func(o *Options) { o.ByteOrder = nativeByteOrder() }
}

// WithBufferCapacity sets the initial buffer capacity of a Reader.
func WithBufferCapacity(n int) Option {
	return func(o *Options) { o.BufferCapacity = n }
}

// WithChunkSize sets the per-poll read size of a ReaderSource.
func WithChunkSize(n int) Option {
	return func(o *Options) { o.ChunkSize = n }
}

// WithReadLimit caps the bytes a Decoder may buffer for one value and the
// maximum frame payload size. Zero means no limit.
func WithReadLimit(limit int) Option {
	return func(o *Options) { o.ReadLimit = limit }
}

// WithRetryDelay sets the retry/wait policy used when the Source returns iox.ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on iox.ErrWouldBlock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior (return iox.ErrWouldBlock immediately).
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}

// nativeByteOrder resolves binary.NativeEndian to a comparable concrete order
// so frame codec paths can branch on endianness.
func nativeByteOrder() binary.ByteOrder {
	var p [2]byte
	binary.NativeEndian.PutUint16(p[:], 0x0102)
	if p[0] == 0x02 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}
