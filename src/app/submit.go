package app

import (
	"context"

	"github.com/elee1766/gem/src/apperr"
	"github.com/elee1766/gem/src/chat"
	"github.com/elee1766/gem/src/storage"
)

// Submit sends text to conversationID, creating a conversation when the id
// is empty, and returns the conversation used. The first message of a
// conversation also starts title generation in the background; Wait or
// Close block until it finishes.
func (a *App) Submit(ctx context.Context, conversationID, text string, sink chat.EventSink) (string, error) {
	chatSvc, err := a.Chat(ctx)
	if err != nil {
		return conversationID, err
	}

	if conversationID == "" {
		conv, err := chatSvc.CreateConversation(ctx, "")
		if err != nil {
			return "", err
		}
		conversationID = conv.ID
	}

	count, err := storage.CountMessages(ctx, a.Store.DB(), conversationID)
	if err != nil {
		return conversationID, apperr.Generic("failed to read conversation", err)
	}
	if count == 0 {
		a.updateTitleAsync(ctx, conversationID, text)
	}

	return conversationID, chatSvc.SendMessage(ctx, conversationID, text, sink)
}

func (a *App) updateTitleAsync(ctx context.Context, conversationID, text string) {
	suggestSvc, err := a.Suggest(ctx)
	if err != nil {
		a.Logger.Warn("title generation unavailable", "error", err)
		return
	}
	// outlives a cancelled send
	bg := context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := suggestSvc.UpdateChatTitle(bg, conversationID, text); err != nil {
			a.Logger.Warn("title update failed", "conversation_id", conversationID, "error", err)
		}
	}()
}
