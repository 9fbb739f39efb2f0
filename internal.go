// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bytestream

import (
	"io"
	"runtime"
	"time"
)

// 8 KiB amortizes reallocation for typical chunk sizes.
const defaultBufferCap = 8 * 1024

func (r *Reader) waitOnceOnWouldBlock() bool {
	// returns whether the caller should retry
	if r.retryDelay < 0 {
		return false
	}
	if r.retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(r.retryDelay)
	return true
}

// pollOnce performs a single fetch step: one source poll, appending whatever
// bytes arrive and recording exhaustion. It never runs once done is set, so an
// exhausted source is never polled again.
//
// A nil return means the step completed: bytes were appended, or exhaustion
// was observed. ErrWouldBlock (after the retry policy declines to wait) and
// source failures are returned as-is; buffered bytes are never lost.
func (r *Reader) pollOnce() error {
	if r.src == nil {
		return ErrInvalidArgument
	}
	for {
		chunk, err := r.src.Poll()
		if len(chunk) > 0 {
			r.buf = append(r.buf, chunk...)
		}
		switch err {
		case nil, ErrMore:
			// Guard against broken Sources that yield neither bytes nor a
			// signal. Without this, the fill loop can spin indefinitely.
			if len(chunk) == 0 {
				return io.ErrNoProgress
			}
			return nil
		case io.EOF:
			r.done = true
			return nil
		case ErrWouldBlock:
			if len(chunk) > 0 {
				// Partial delivery still counts as a completed step.
				return nil
			}
			if !r.waitOnceOnWouldBlock() {
				return ErrWouldBlock
			}
		default:
			return err
		}
	}
}

// fillTo pulls chunks one at a time until at least n bytes are buffered, the
// source is exhausted, or a poll reports not-ready or failure.
func (r *Reader) fillTo(n int) error {
	for len(r.buf) < n && !r.done {
		if err := r.pollOnce(); err != nil {
			return err
		}
	}
	return nil
}
