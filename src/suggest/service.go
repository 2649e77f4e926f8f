// Package suggest generates conversation titles and starter prompts from the
// user's chat history.
package suggest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/apperr"
	"github.com/elee1766/gem/src/metrics"
	"github.com/elee1766/gem/src/storage"
	"golang.org/x/sync/errgroup"
)

// Generation parameters for prompt suggestions.
const (
	suggestTemperature = 0.7
	suggestTopP        = 0.75
	suggestTopK        = 40
)

const (
	// titleMaxRunes caps a generated title.
	titleMaxRunes = 60
	// latestPrompts is how many recent prompts Prompts draws from.
	latestPrompts = 4
	// shownPrompts is how many prompts Prompts returns.
	shownPrompts = 2
	// historyFanOut bounds concurrent history loads.
	historyFanOut = 4
)

// ErrNoPrompts is returned when a generation produced no usable prompt.
var ErrNoPrompts = errors.New("no prompts in response")

// errConsumed means another pass stored prompts for the same conversations first.
var errConsumed = errors.New("conversations already used for suggestions")

// Service runs title and prompt generation against a chat model.
type Service struct {
	database *sql.DB
	model    aisdk.ChatModel
	metrics  *metrics.Recorder
	timeout  time.Duration
	logger   *slog.Logger
	shuffle  func(n int, swap func(i, j int))
}

// Config holds configuration for creating a new Service
type Config struct {
	Database *sql.DB
	Model    aisdk.ChatModel
	Metrics  *metrics.Recorder
	// Timeout bounds each generation; zero means apperr.DefaultTimeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewService creates a suggestion service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Database == nil {
		return nil, errors.New("database is required")
	}
	if cfg.Model == nil {
		return nil, errors.New("model is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		database: cfg.Database,
		model:    cfg.Model,
		metrics:  cfg.Metrics,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger.With("component", "suggest"),
		shuffle:  rand.Shuffle,
	}, nil
}

// GenerateTitle asks the model for a short title for prompt.
func (s *Service) GenerateTitle(ctx context.Context, prompt string) (string, error) {
	text, err := apperr.Try(ctx, s.timeout, func(ctx context.Context) (string, error) {
		return s.model.Generate(ctx, &aisdk.GenerateRequest{
			SystemInstruction: titleInstruction,
			Prompt:            prompt,
		})
	})
	if err != nil {
		return "", err
	}
	title := cleanTitle(text)
	if title == "" {
		return "", aisdk.ErrEmptyResponse
	}
	return title, nil
}

// UpdateChatTitle titles a conversation from its first prompt and then
// refreshes the starter prompts. Generation starts right away; the result is
// only stored when the conversation holds at most one user message.
// Generation failures are logged, not returned.
func (s *Service) UpdateChatTitle(ctx context.Context, conversationID, prompt string) error {
	logger := s.logger.With("conversation_id", conversationID)

	type result struct {
		title string
		err   error
	}
	pending := make(chan result, 1)
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		title, err := s.GenerateTitle(genCtx, prompt)
		pending <- result{title, err}
	}()

	count, err := storage.CountParticipantMessages(ctx, s.database, conversationID, storage.ParticipantUser)
	if err != nil {
		return apperr.Generic("failed to count messages", err)
	}
	if count > 1 {
		logger.Debug("conversation already under way, keeping title", "messages", count)
		s.metrics.Title("skipped")
		return nil
	}

	res := <-pending
	switch {
	case res.err != nil:
		logger.Warn("title generation failed", "error", res.err)
		s.metrics.Title("failed")
	default:
		changed, err := storage.SetAutoTitle(ctx, s.database, conversationID, res.title)
		switch {
		case err != nil:
			logger.Error("failed to store title", "error", err)
			s.metrics.Title("failed")
		case changed:
			logger.Debug("title set", "title", res.title)
			s.metrics.Title("set")
		default:
			s.metrics.Title("skipped")
		}
	}

	if _, err := s.GeneratePromptSuggestions(ctx); err != nil {
		logger.Warn("prompt suggestion failed", "error", err)
	}
	return nil
}

// GeneratePromptSuggestions turns the user messages of every conversation
// not yet used for suggestions into new starter prompts, then marks those
// conversations used. It returns the number of prompts stored. When
// generation fails nothing is stored and the conversations stay unused.
func (s *Service) GeneratePromptSuggestions(ctx context.Context) (stored int, err error) {
	defer func() { s.metrics.SuggestionRun(stored, err) }()

	ids, err := storage.ListConversationIDsForPromptSuggestions(ctx, s.database)
	if err != nil {
		return 0, apperr.Generic("failed to list conversations", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	history, err := s.userHistory(ctx, ids)
	if err != nil {
		return 0, apperr.Generic("failed to load history", err)
	}
	if history == "" {
		// nothing to learn from; consume them so they are not rescanned
		if _, err := storage.MarkUsedForPromptSuggestions(ctx, s.database, ids); err != nil {
			return 0, apperr.Generic("failed to mark conversations", err)
		}
		return 0, nil
	}

	text, err := apperr.Try(ctx, s.timeout, func(ctx context.Context) (string, error) {
		return s.model.Generate(ctx, &aisdk.GenerateRequest{
			SystemInstruction: promptsInstruction(),
			Prompt:            "Users Previous Chat History/Prompt:\n" + history,
			ResponseSchema:    promptsSchema(),
			SchemaName:        "prompts",
			Temperature:       aisdk.Ptr(suggestTemperature),
			TopP:              aisdk.Ptr(suggestTopP),
			TopK:              aisdk.Ptr(suggestTopK),
		})
	})
	if err != nil {
		return 0, apperr.Generic("failed to generate prompts", err)
	}

	prompts, err := parsePrompts(text)
	if err != nil {
		s.logger.Warn("unusable prompt suggestions", "content", text, "error", err)
		return 0, apperr.Generic("failed to parse prompts", err)
	}

	if err := s.storePrompts(ctx, prompts, ids); err != nil {
		if errors.Is(err, errConsumed) {
			s.logger.Debug("prompt suggestions superseded by a concurrent run", "conversations", len(ids))
			return 0, nil
		}
		return 0, apperr.Generic("failed to store prompts", err)
	}
	s.logger.Debug("prompt suggestions stored", "prompts", len(prompts), "conversations", len(ids))
	return len(prompts), nil
}

// Prompts returns two of the four most recent starter prompts, in random order.
func (s *Service) Prompts(ctx context.Context) ([]storage.Prompt, error) {
	prompts, err := storage.ListLatestPrompts(ctx, s.database, latestPrompts)
	if err != nil {
		return nil, apperr.Generic("failed to load prompts", err)
	}
	s.shuffle(len(prompts), func(i, j int) { prompts[i], prompts[j] = prompts[j], prompts[i] })
	if len(prompts) > shownPrompts {
		prompts = prompts[:shownPrompts]
	}
	return prompts, nil
}

// userHistory loads the user messages of ids as "user: <content>" lines,
// grouped per conversation in the order of ids.
func (s *Service) userHistory(ctx context.Context, ids []string) (string, error) {
	lines := make([][]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyFanOut)
	for i, id := range ids {
		g.Go(func() error {
			msgs, err := storage.GetParticipantMessages(gctx, s.database, id, storage.ParticipantUser)
			if err != nil {
				return fmt.Errorf("conversation %s: %w", id, err)
			}
			for _, m := range msgs {
				if content := strings.TrimSpace(m.Content); content != "" {
					lines[i] = append(lines[i], "user: "+content)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var all []string
	for _, l := range lines {
		all = append(all, l...)
	}
	return strings.Join(all, "\n"), nil
}

// storePrompts inserts prompts and marks ids used in one transaction.
func (s *Service) storePrompts(ctx context.Context, prompts []storage.Prompt, ids []string) (err error) {
	tx, err := s.database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now()
	for i := range prompts {
		prompts[i].CreatedAt = now
		if err = storage.CreatePrompt(ctx, tx, &prompts[i]); err != nil {
			return err
		}
	}
	marked, err := storage.MarkUsedForPromptSuggestions(ctx, tx, ids)
	if err != nil {
		return err
	}
	if marked != int64(len(ids)) {
		return errConsumed
	}
	return tx.Commit()
}

type promptDTO struct {
	Text string     `json:"text"`
	Icon PromptIcon `json:"icon"`
}

// parsePrompts decodes {"prompts":[...]} or a bare array, tolerating a
// surrounding code fence.
func parsePrompts(text string) ([]storage.Prompt, error) {
	text = stripCodeFence(text)

	var dtos []promptDTO
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &dtos); err != nil {
			return nil, err
		}
	} else {
		var wrapped struct {
			Prompts []promptDTO `json:"prompts"`
		}
		if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
			return nil, err
		}
		dtos = wrapped.Prompts
	}

	prompts := make([]storage.Prompt, 0, len(dtos))
	for _, d := range dtos {
		t := strings.TrimSpace(d.Text)
		if t == "" {
			continue
		}
		icon := d.Icon
		if icon == "" {
			icon = IconQuestionMark
		}
		prompts = append(prompts, storage.Prompt{Text: t, Icon: string(icon)})
	}
	if len(prompts) == 0 {
		return nil, ErrNoPrompts
	}
	return prompts, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// drop the info string, e.g. json
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// cleanTitle keeps the first non-empty line, without quotes or markup.
func cleanTitle(text string) string {
	var title string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			title = line
			break
		}
	}
	title = strings.TrimLeft(title, "# ")
	title = strings.Trim(title, "\"'*` ")
	title = strings.TrimSpace(title)

	if r := []rune(title); len(r) > titleMaxRunes {
		title = strings.TrimSpace(string(r[:titleMaxRunes]))
	}
	return title
}
