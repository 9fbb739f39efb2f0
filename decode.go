// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bytestream

import (
	"io"
)

// DecodeFunc probes the buffered prefix of a stream for one complete value.
//
// data is a read-only view of the currently buffered bytes; atEOF reports
// whether the stream is known to be finished, giving formats that validly
// terminate without a trailing delimiter a final chance to produce a value.
//
// Outcomes:
//   - (n, v, nil): a complete value v that consumes the first n buffered bytes.
//   - (0, _, ErrInsufficientData): no complete value yet; buffer more input
//     and probe again.
//   - (0, _, err): the prefix is malformed; err is surfaced verbatim.
//
// A DecodeFunc must be a pure probe: it must not retain data and repeated
// calls over a growing prefix must be safe. Values that alias data must be
// copied out before returning, since the region is consumed on success.
type DecodeFunc[T any] func(data []byte, atEOF bool) (advance int, value T, err error)

// Decoder extracts exactly one value from a Reader's buffered stream.
//
// Semantics:
//   - One call to DecodeOnce drives at most one fetch step past each probe:
//     probe the buffered bytes, and on ErrInsufficientData pull a single
//     further chunk before probing again.
//   - Returns (v, reader, nil) once the DecodeFunc completes a value; exactly
//     the bytes it consumed are removed and the Reader, holding the rest, is
//     handed back to the caller.
//   - Returns ErrWouldBlock when the source is not ready; the operation is
//     resumable by calling DecodeOnce again on the SAME instance. No buffered
//     bytes are lost between attempts.
//   - Returns (_, reader, io.ErrUnexpectedEOF) when the source is exhausted
//     before a value could be formed, including the final atEOF probe. The
//     returned Reader still holds the undecoded trailing bytes.
//   - DecodeFunc failures and source failures are surfaced verbatim and spend
//     the operation without handing the Reader back; its byte accounting is
//     not well-defined for reuse after a decode failure.
//
// A Decoder exclusively owns its Reader until a terminal result; afterwards it
// is spent and further calls return ErrInvalidArgument.
type Decoder[T any] struct {
	r  *Reader
	fn DecodeFunc[T]
}

// NewDecoder pairs a Reader with a decode function. The Decoder owns r until
// DecodeOnce reaches a terminal result.
func NewDecoder[T any](r *Reader, fn DecodeFunc[T]) *Decoder[T] {
	return &Decoder[T]{r: r, fn: fn}
}

// DecodeOnce runs the decode operation until a terminal result or ErrWouldBlock.
func (d *Decoder[T]) DecodeOnce() (T, *Reader, error) {
	var zero T
	r := d.r
	if r == nil || d.fn == nil {
		return zero, nil, ErrInvalidArgument
	}
	if r.detached {
		d.r = nil
		return zero, nil, ErrInvalidArgument
	}
	for {
		adv, v, err := d.fn(r.buf, r.done)
		switch err {
		case nil:
			r.Consume(adv)
			d.r = nil
			return v, r, nil
		case ErrInsufficientData:
			if r.done {
				// Exhausted and the final atEOF probe still came up short.
				d.r = nil
				return zero, r, io.ErrUnexpectedEOF
			}
			if r.readLimit > 0 && int64(len(r.buf)) > r.readLimit {
				d.r = nil
				return zero, nil, ErrTooLong
			}
			// The exact shortfall is unknown to us; fetch a single chunk.
			if ferr := r.pollOnce(); ferr != nil {
				if ferr == ErrWouldBlock {
					// Keep ownership of r so the operation can resume.
					return zero, nil, ErrWouldBlock
				}
				d.r = nil
				return zero, nil, ferr
			}
		default:
			d.r = nil
			return zero, nil, err
		}
	}
}
