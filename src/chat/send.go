package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/apperr"
	"github.com/elee1766/gem/src/storage"
)

// SendMessage stores text as a user message in conversationID, streams the
// model's reply into a single model message and forwards events to sink.
// sink may be nil.
//
// The user message ends as sent or failed. On failure the partial reply, if
// any, is marked failed and a generic error is returned.
func (s *Service) SendMessage(ctx context.Context, conversationID, text string, sink EventSink) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Generic("message cannot be empty", ErrTextRequired)
	}
	if conversationID == "" {
		return apperr.Generic("no conversation selected", ErrConversationRequired)
	}

	emitter := NewEventEmitter(sink, conversationID)
	logger := s.logger.With("conversation_id", conversationID)

	userMsg := &storage.Message{
		ConversationID: conversationID,
		Participant:    storage.ParticipantUser,
		Status:         storage.StatusLoading,
		Content:        text,
	}
	if err := storage.AddMessageToConversation(ctx, s.database, userMsg); err != nil {
		logger.Error("failed to insert message", "error", err)
		return apperr.Generic("failed to insert message", err)
	}
	emitter.EmitUserMessage(userMsg.ID, text)

	var modelMsg *storage.Message
	fail := func(stage string, cause error) error {
		// status writes must land even when ctx was cancelled
		dctx := context.WithoutCancel(ctx)
		if err := storage.UpdateMessageStatus(dctx, s.database, userMsg.ID, storage.StatusFailed); err != nil {
			logger.Error("failed to mark message failed", "message_id", userMsg.ID, "error", err)
		}
		if modelMsg != nil {
			if err := storage.UpdateMessageStatus(dctx, s.database, modelMsg.ID, storage.StatusFailed); err != nil {
				logger.Error("failed to mark reply failed", "message_id", modelMsg.ID, "error", err)
			}
		}
		logger.Error("send failed", "stage", stage, "error", cause)
		emitter.EmitError(cause, stage)
		s.metrics.MessageFailed()
		if errors.Is(cause, ErrResponseInProgress) {
			return apperr.Generic("a response is already in progress", cause)
		}
		return apperr.Generic("failed to get a response", cause)
	}

	session, release, err := s.acquireSession(ctx, conversationID, userMsg.ID)
	if err != nil {
		return fail("acquire_session", err)
	}
	defer release()

	start := time.Now()
	stream, err := session.SendMessageStream(ctx, text)
	if err != nil {
		s.dropSession(session)
		return fail("send", err)
	}
	defer stream.Close()

	var (
		reply   strings.Builder
		started bool
	)
	for {
		chunk, err := stream.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.dropSession(session)
			return fail("stream", err)
		}

		if !started {
			started = true
			if err := storage.UpdateMessageStatus(ctx, s.database, userMsg.ID, storage.StatusSent); err != nil {
				s.dropSession(session)
				return fail("mark_sent", err)
			}
			s.metrics.FirstChunk(time.Since(start))
			emitter.EmitStreamStart(time.Since(start))
		}

		piece := chunk.Text()
		if piece == "" {
			continue
		}
		if err := s.storeChunk(ctx, &modelMsg, conversationID, piece); err != nil {
			s.dropSession(session)
			return fail("store_reply", err)
		}
		reply.WriteString(piece)
		s.metrics.Chunk()
		emitter.EmitStreamChunk(piece)
	}

	if modelMsg == nil {
		s.dropSession(session)
		return fail("stream", aisdk.ErrEmptyResponse)
	}

	elapsed := time.Since(start)
	s.metrics.MessageSent(elapsed)
	emitter.EmitStreamEnd(modelMsg.ID, reply.String(), elapsed)
	logger.Debug("response stored", "message_id", modelMsg.ID, "chars", reply.Len(), "duration_ms", elapsed.Milliseconds())
	return nil
}

// storeChunk inserts the model message on the first chunk and appends to it afterwards.
func (s *Service) storeChunk(ctx context.Context, modelMsg **storage.Message, conversationID, text string) error {
	if *modelMsg == nil {
		msg := &storage.Message{
			ConversationID: conversationID,
			Participant:    storage.ParticipantModel,
			Status:         storage.StatusReceived,
			Content:        text,
		}
		if err := storage.CreateMessage(ctx, s.database, msg); err != nil {
			return err
		}
		*modelMsg = msg
		return nil
	}
	return storage.AppendMessageContent(ctx, s.database, (*modelMsg).ID, text)
}
