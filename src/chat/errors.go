package chat

import "errors"

var (
	// Request validation errors
	ErrTextRequired         = errors.New("message text is required")
	ErrConversationRequired = errors.New("conversation id is required")
	ErrModelRequired        = errors.New("chat model is required")
	ErrDatabaseRequired     = errors.New("database is required")

	// Conversation errors
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrResponseInProgress is returned when a conversation is already streaming a response.
	ErrResponseInProgress = errors.New("a response is already in progress for this conversation")
)
