// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bytestream adapts a push-based source of byte chunks into a
// pull-based buffered reader, and decodes single values out of the buffered
// stream.
//
// Semantics and design:
//   - Source adaptation: a Source delivers ordered byte chunks one poll at a
//     time. Reader buffers those chunks and exposes them through io.Reader
//     plus peek/consume/prepend primitives, so pull-style consumers (parsers,
//     copiers, codecs) can run on top of push-style producers.
//   - Non-blocking first: iox.ErrWouldBlock and iox.ErrMore are surfaced as
//     control-flow signals (and re-exposed as bytestream.ErrWouldBlock /
//     bytestream.ErrMore). No operation suspends mid-mutation; buffer state is
//     always consistent between poll attempts, so callers retry later without
//     losing bytes.
//   - io compatibility: Reader implements io.Reader and io.WriterTo and honors
//     the standard contracts; a zero-byte read is reserved for genuine
//     end-of-input (io.EOF), never for "not ready yet".
//
// Ordering guarantee: bytes leave the Reader in exactly the order the Source
// yielded them, with no drops, duplications, or reordering, for any split of
// read sizes.
package bytestream

import (
	"io"
	"time"

	"code.hybscloud.com/iox"
)

// Source produces ordered byte chunks, one per poll.
//
// Each Poll returns one of four outcomes:
//   - (chunk, nil): a chunk is available; ownership transfers to the caller.
//   - (nil, ErrWouldBlock): no chunk yet; poll again later.
//   - (nil, io.EOF): exhausted; permanent. Polling again afterwards is a
//     programming error and implementations are encouraged to panic on it.
//   - (chunk, err): failure; any leading bytes delivered alongside the error
//     are still valid, the rest of that chunk is gone for good.
//
// A chunk returned together with ErrMore is usable progress: the caller keeps
// the bytes and polls again for the rest of the ongoing completion.
//
// A poll must not return (empty, nil): empty chunks carry no bytes, so
// implementations absorb them (see Chunks) or report ErrWouldBlock instead.
// The Reader maps such a result to io.ErrNoProgress to keep broken sources
// from spinning the fill loop.
type Source interface {
	Poll() ([]byte, error)
}

// NewReader returns a Reader that buffers chunks from src.
//
// No chunk is fetched until the first read, peek, or decode touches the
// Reader. The internal buffer starts at the configured capacity
// (WithBufferCapacity, default 8 KiB) to amortize reallocation.
func NewReader(src Source, opts ...Option) *Reader {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	capHint := o.BufferCapacity
	if capHint <= 0 {
		capHint = defaultBufferCap
	}
	return &Reader{
		src:        src,
		buf:        make([]byte, 0, capHint),
		retryDelay: o.RetryDelay,
		readLimit:  int64(o.ReadLimit),
	}
}

// Reader owns a growable byte buffer fed from a Source.
//
// Bytes are appended at the tail as chunks arrive and consumed from the head.
// A Reader is driven by at most one logical caller at a time; it is not safe
// for concurrent use.
type Reader struct {
	src Source
	buf []byte

	// done is set once src reports io.EOF and is never reset. After that the
	// source is not polled again.
	done     bool
	detached bool

	retryDelay time.Duration
	readLimit  int64
}

// IsEmpty reports whether there is provably no more data: the buffer holds
// zero bytes and the source has reported exhaustion.
func (r *Reader) IsEmpty() bool {
	return len(r.buf) == 0 && r.done
}

// Detach spends the Reader and hands its parts back to the caller: the
// unconsumed buffered bytes and the (possibly still active) source. Use it
// when adaptation is no longer needed, e.g. after a decode completes, so the
// leftover bytes and the source can be given to the next consumer without
// copying. All operations on a detached Reader fail with ErrInvalidArgument.
func (r *Reader) Detach() ([]byte, Source) {
	if r.detached {
		return nil, nil
	}
	r.detached = true
	buf, src := r.buf, r.src
	r.buf, r.src = nil, nil
	return buf, src
}

// Prepend inserts b at the front of the buffer so those bytes are the next
// ones returned, followed by whatever was already buffered.
//
// Prepend takes ownership of b's backing array: when b has spare capacity for
// the current buffer the old contents are appended into it in place instead of
// reallocating. The caller must not reuse b afterwards.
func (r *Reader) Prepend(b []byte) {
	if r.detached {
		panic("bytestream: Prepend on detached Reader")
	}
	if len(b) == 0 {
		return
	}
	if cap(b)-len(b) >= len(r.buf) {
		// In-place: grow b and move the old buffer behind it. copy semantics
		// keep this correct even when b aliases a previously peeked region.
		r.buf = append(b, r.buf...)
		return
	}
	c := len(b) + len(r.buf)
	if c < defaultBufferCap {
		c = defaultBufferCap
	}
	nb := make([]byte, 0, c)
	nb = append(nb, b...)
	nb = append(nb, r.buf...)
	r.buf = nb
}

// Read implements io.Reader over the buffered stream.
//
// Read fills toward len(p) bytes, then copies and consumes up to len(p) from
// the front of the buffer. Partial reads are normal: any buffered bytes
// satisfy the call even when the source is not ready for more. With nothing
// buffered, Read returns (0, ErrWouldBlock) while the source is alive and
// (0, io.EOF) once it is exhausted. Source failures propagate verbatim;
// already-buffered bytes stay intact for a later attempt.
func (r *Reader) Read(p []byte) (int, error) {
	if r.detached {
		return 0, ErrInvalidArgument
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := r.fillTo(len(p)); err != nil {
		if err != ErrWouldBlock || len(r.buf) == 0 {
			return 0, err
		}
	}
	if len(r.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// Peek ensures at least one byte is buffered and returns a read-only view of
// the buffered bytes without consuming them. The view is valid until the next
// mutating operation on the Reader.
//
// With nothing buffered, Peek returns ErrWouldBlock while the source is alive
// and io.EOF once it is exhausted.
func (r *Reader) Peek() ([]byte, error) {
	if r.detached {
		return nil, ErrInvalidArgument
	}
	if len(r.buf) == 0 {
		if err := r.fillTo(1); err != nil {
			return nil, err
		}
		if len(r.buf) == 0 {
			return nil, io.EOF
		}
	}
	return r.buf, nil
}

// Consume drops n bytes from the front of the buffer. The caller must have
// observed at least n buffered bytes via Peek; consuming beyond the buffered
// length is a programming error and panics.
func (r *Reader) Consume(n int) {
	if n < 0 || n > len(r.buf) {
		panic("bytestream: Consume beyond buffered length")
	}
	r.buf = r.buf[n:]
}

// WriteTo implements io.WriterTo: it drains the buffered bytes into w, then
// keeps polling the source and relaying chunks until exhaustion.
//
// Non-blocking semantics: if the source or w returns ErrWouldBlock or ErrMore,
// WriteTo returns immediately with the progress count and the same semantic
// error; retry on the same Reader to continue. Short writes on w are handled
// per the io.Writer contract.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	if r.detached {
		return 0, ErrInvalidArgument
	}
	var total int64
	for {
		for len(r.buf) > 0 {
			n, err := w.Write(r.buf)
			if n > 0 {
				total += int64(n)
				r.buf = r.buf[n:]
			}
			if err != nil {
				return total, err
			}
			if n == 0 {
				// Avoid potential infinite loop on pathological writers.
				return total, io.ErrShortWrite
			}
		}
		if r.done {
			return total, nil
		}
		if err := r.pollOnce(); err != nil {
			return total, err
		}
	}
}

// These are provided as package-level aliases so callers can reference the
// semantic control-flow errors without importing iox directly.
var (
	// ErrWouldBlock means “no further progress without waiting”.
	//
	// It is an expected, non-failure control-flow signal for non-blocking I/O.
	// Any returned byte count (n) still represents real progress.
	//
	// Caller action: stop the current attempt and retry later (after readiness/event),
	// or configure RetryDelay to emulate cooperative blocking on top of a non-blocking source.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrMore means “this completion is usable and more completions will follow”.
	//
	// It is not io.EOF and not “try later”. The operation remains active and additional
	// data/results are expected from the same ongoing operation.
	//
	// Caller action: process the returned bytes/result, then call again to obtain the next chunk.
	ErrMore = iox.ErrMore
)
