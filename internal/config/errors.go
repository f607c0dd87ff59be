// SPDX-License-Identifier: MIT

package config

import "errors"

var (
	// ErrInvalidListener is returned when the listener configuration cannot be used.
	ErrInvalidListener = errors.New("invalid listener configuration")

	// ErrInvalidTimeout is returned when a timeout value is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout configuration")
)
