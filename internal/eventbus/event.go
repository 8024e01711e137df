package eventbus

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Kind identifies a category of state change.
type Kind string

const (
	NewContact     Kind = "NEW_CONTACT"
	BookingCreated Kind = "BOOKING_CREATED"
	InventoryLow   Kind = "INVENTORY_LOW"
	FormSubmitted  Kind = "FORM_SUBMITTED"
	// StaffReply is emitted when a staff member replies to a conversation.
	// Reserved: no subscriber is registered for it today.
	StaffReply Kind = "STAFF_REPLY"
)

// Payload carries identifier-only event data. Handlers re-load entities
// by id because dispatch runs after the emitting request has finished.
type Payload map[string]any

// Event is an immutable, transient record of a state change.
type Event struct {
	Kind    Kind
	Payload Payload
}

// ID extracts a snowflake identifier from the payload.
func (p Payload) ID(key string) (snowflake.ID, bool) {
	if p == nil {
		return 0, false
	}
	switch typed := p[key].(type) {
	case snowflake.ID:
		return typed, true
	case int64:
		return snowflake.ID(typed), true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}
