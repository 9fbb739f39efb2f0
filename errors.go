// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bytestream

import "errors"

var (
	// ErrInvalidArgument reports a nil source or decode function, or use of a
	// Reader or Decoder that has already been spent.
	ErrInvalidArgument = errors.New("bytestream: invalid argument")

	// ErrTooLong reports that a value exceeds the configured read limit or the
	// supported wire format.
	ErrTooLong = errors.New("bytestream: value too long")

	// ErrInsufficientData is returned by a DecodeFunc that cannot complete a
	// value from the bytes it was given. It is a control-flow signal, not a
	// failure: the caller buffers more input and probes again.
	ErrInsufficientData = errors.New("bytestream: insufficient data to decode a value")
)
