// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bytestream

import (
	"io"
)

const panicPolledAfterEOF = "bytestream: source polled after exhaustion"

// Chunks returns a Source that yields the given chunks in order and then
// reports exhaustion. Empty chunks carry no bytes and are skipped, so any
// sequence of chunks is a valid stream. The chunks are not copied; the caller
// must not mutate them after handing them over.
//
// Polling a Chunks source after it reported io.EOF panics: exhaustion is
// permanent and polling past it indicates a driver bug.
func Chunks(chunks ...[]byte) Source {
	return &sliceSource{chunks: chunks}
}

type sliceSource struct {
	chunks [][]byte
	next   int
	done   bool
}

func (s *sliceSource) Poll() ([]byte, error) {
	if s.done {
		panic(panicPolledAfterEOF)
	}
	for s.next < len(s.chunks) {
		c := s.chunks[s.next]
		s.next++
		if len(c) > 0 {
			return c, nil
		}
	}
	s.done = true
	return nil, io.EOF
}

// NewReaderSource adapts an io.Reader into a Source: each poll performs one
// Read of at most the configured chunk size (WithChunkSize, default 8 KiB).
//
// Semantics:
//   - iox.ErrWouldBlock and iox.ErrMore from rd pass through; bytes delivered
//     alongside them are kept as the poll's chunk.
//   - A final read of (n>0, io.EOF) yields the chunk now and exhaustion on the
//     next poll.
//   - A read of (0, nil) is mapped to io.ErrNoProgress to keep broken Readers
//     from spinning the fill loop.
//
// Like Chunks, polling after exhaustion panics.
func NewReaderSource(rd io.Reader, opts ...Option) Source {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	size := o.ChunkSize
	if size <= 0 {
		size = defaultBufferCap
	}
	return &readerSource{rd: rd, size: size}
}

type readerSource struct {
	rd   io.Reader
	size int

	// some io.Reader implementations return (n>0, io.EOF) on the final read;
	// the chunk is delivered first and exhaustion on the poll after.
	eofPending bool
	done       bool
}

func (s *readerSource) Poll() ([]byte, error) {
	if s.done {
		panic(panicPolledAfterEOF)
	}
	if s.eofPending {
		s.done = true
		return nil, io.EOF
	}
	if s.rd == nil {
		return nil, ErrInvalidArgument
	}
	p := make([]byte, s.size)
	n, err := s.rd.Read(p)
	switch err {
	case nil:
		if n == 0 {
			return nil, io.ErrNoProgress
		}
		return p[:n], nil
	case io.EOF:
		if n > 0 {
			s.eofPending = true
			return p[:n], nil
		}
		s.done = true
		return nil, io.EOF
	default:
		return p[:n], err
	}
}

// NewChanSource adapts a receive channel into a Source: each poll performs one
// non-blocking receive. An empty select reports ErrWouldBlock; a closed
// channel reports exhaustion. Empty chunks received from the channel carry no
// bytes and are reported as ErrWouldBlock.
//
// Like Chunks, polling after exhaustion panics.
func NewChanSource(ch <-chan []byte) Source {
	return &chanSource{ch: ch}
}

type chanSource struct {
	ch   <-chan []byte
	done bool
}

func (s *chanSource) Poll() ([]byte, error) {
	if s.done {
		panic(panicPolledAfterEOF)
	}
	if s.ch == nil {
		return nil, ErrInvalidArgument
	}
	select {
	case c, ok := <-s.ch:
		if !ok {
			s.done = true
			return nil, io.EOF
		}
		if len(c) == 0 {
			return nil, ErrWouldBlock
		}
		return c, nil
	default:
		return nil, ErrWouldBlock
	}
}
