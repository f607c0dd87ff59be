// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldQueueID   = "queue_id"
	FieldMessageID = "message_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Network fields
	FieldNetwork = "network"
	FieldAddr    = "addr"
	FieldSocket  = "socket"
)
