package domain

import (
	"context"
	"errors"
)

type ReplyRequest struct {
	ConversationID string
	Content        string
	Type           string
}

type Service interface {
	List(ctx context.Context) ([]Conversation, error)
	Messages(ctx context.Context, conversationID string) ([]Message, error)
	// Reply appends an outbound staff message. The first staff reply pauses
	// automation on the conversation and emits STAFF_REPLY.
	Reply(ctx context.Context, req ReplyRequest) (Message, error)
}

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidContent   = errors.New("invalid_content")
	ErrInvalidType      = errors.New("invalid_message_type")
	ErrNotFound         = errors.New("not_found")
)
