// Package chat coordinates sending messages to the chat model and
// persisting the conversation as the reply streams in.
package chat

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/apperr"
	"github.com/elee1766/gem/src/metrics"
	"github.com/elee1766/gem/src/storage"
)

// Service handles message sending with all necessary dependencies
type Service struct {
	database *sql.DB
	model    aisdk.ChatModel
	metrics  *metrics.Recorder
	logger   *slog.Logger

	// mu guards the held session and the set of streaming conversations
	mu            sync.Mutex
	session       aisdk.ChatSession
	sessionConvID string
	inFlight      map[string]struct{}
}

// ServiceConfig holds configuration for creating a new Service
type ServiceConfig struct {
	Database *sql.DB
	Model    aisdk.ChatModel
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

// NewService creates a new chat service
func NewService(config ServiceConfig) (*Service, error) {
	if config.Database == nil {
		return nil, ErrDatabaseRequired
	}
	if config.Model == nil {
		return nil, ErrModelRequired
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Service{
		database: config.Database,
		model:    config.Model,
		metrics:  config.Metrics,
		logger:   config.Logger.With("component", "chat"),
		inFlight: make(map[string]struct{}),
	}, nil
}

// CreateConversation starts a new conversation. A blank title uses the default.
func (s *Service) CreateConversation(ctx context.Context, title string) (*storage.Conversation, error) {
	conversation := &storage.Conversation{}
	if title = strings.TrimSpace(title); title != "" && title != storage.DefaultConversationTitle {
		conversation.Title = &title
		conversation.TitleSource = storage.TitleSourceUser
	}
	if err := storage.CreateConversation(ctx, s.database, conversation); err != nil {
		return nil, apperr.Generic("failed to create conversation", err)
	}
	s.logger.Debug("conversation created", "conversation_id", conversation.ID)
	return conversation, nil
}

// Conversation returns a conversation by id.
func (s *Service) Conversation(ctx context.Context, id string) (*storage.Conversation, error) {
	conversation, err := storage.GetConversationByID(ctx, s.database, id)
	if err != nil {
		return nil, apperr.Generic("failed to load conversation", err)
	}
	if conversation == nil {
		return nil, apperr.Generic("conversation not found", fmt.Errorf("%w: %s", ErrConversationNotFound, id))
	}
	return conversation, nil
}

// Conversations lists conversations, most recent activity first.
func (s *Service) Conversations(ctx context.Context) ([]storage.Conversation, error) {
	conversations, err := storage.ListConversations(ctx, s.database, 0)
	if err != nil {
		return nil, apperr.Generic("failed to list conversations", err)
	}
	return conversations, nil
}

// Messages returns every message of a conversation in order, including
// failed and loading ones.
func (s *Service) Messages(ctx context.Context, conversationID string) ([]storage.Message, error) {
	messages, err := storage.GetMessagesByConversationID(ctx, s.database, conversationID)
	if err != nil {
		return nil, apperr.Generic("failed to load messages", err)
	}
	return messages, nil
}

// ChatHistory returns the turns replayed to the model for a conversation.
func (s *Service) ChatHistory(ctx context.Context, conversationID string) ([]aisdk.Turn, error) {
	turns, err := s.history(ctx, conversationID, "")
	if err != nil {
		return nil, apperr.Generic("failed to get chat history", err)
	}
	return turns, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *Service) DeleteConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	if _, busy := s.inFlight[conversationID]; busy {
		s.mu.Unlock()
		return apperr.Generic("conversation is busy", ErrResponseInProgress)
	}
	if s.sessionConvID == conversationID {
		s.session, s.sessionConvID = nil, ""
	}
	s.mu.Unlock()

	if err := storage.DeleteConversation(ctx, s.database, conversationID); err != nil {
		return apperr.Generic("failed to delete conversation", err)
	}
	return nil
}

// ResetSession drops the held model session; the next send rebuilds it from storage.
func (s *Service) ResetSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session, s.sessionConvID = nil, ""
}

// history loads completed turns of a conversation, skipping excludeID and
// any message still loading or failed.
func (s *Service) history(ctx context.Context, conversationID, excludeID string) ([]aisdk.Turn, error) {
	messages, err := storage.GetMessagesByConversationID(ctx, s.database, conversationID)
	if err != nil {
		return nil, err
	}

	turns := make([]aisdk.Turn, 0, len(messages))
	for _, m := range messages {
		if m.ID == excludeID {
			continue
		}
		if m.Status == storage.StatusLoading || m.Status == storage.StatusFailed {
			continue
		}
		turns = append(turns, aisdk.Turn{Role: m.Participant.Role(), Text: m.Content})
	}
	return turns, nil
}

// acquireSession returns the session for conversationID, rebuilding it when
// another conversation holds it, and marks the conversation as streaming.
func (s *Service) acquireSession(ctx context.Context, conversationID, excludeID string) (aisdk.ChatSession, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inFlight[conversationID]; busy {
		return nil, nil, ErrResponseInProgress
	}

	if s.session == nil || s.sessionConvID != conversationID {
		turns, err := s.history(ctx, conversationID, excludeID)
		if err != nil {
			return nil, nil, fmt.Errorf("load history: %w", err)
		}
		session, err := s.model.StartChat(ctx, turns)
		if err != nil {
			return nil, nil, fmt.Errorf("start chat: %w", err)
		}
		s.logger.Debug("chat session started", "conversation_id", conversationID, "turns", len(turns))
		s.session, s.sessionConvID = session, conversationID
	}

	s.inFlight[conversationID] = struct{}{}
	session := s.session
	release := func() {
		s.mu.Lock()
		delete(s.inFlight, conversationID)
		s.mu.Unlock()
	}
	return session, release, nil
}

// dropSession forgets session if it is still the held one.
func (s *Service) dropSession(session aisdk.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == session {
		s.session, s.sessionConvID = nil, ""
	}
}
