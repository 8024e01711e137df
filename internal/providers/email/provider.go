package email

import (
	"context"
	"errors"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Provider sends email on behalf of a workspace.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

var ErrInvalidRecipient = errors.New("invalid_recipient")
