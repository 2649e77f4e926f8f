package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/apperr"
	"github.com/elee1766/gem/src/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel hands out sessions whose replies come from respond.
type fakeModel struct {
	mu      sync.Mutex
	starts  [][]aisdk.Turn
	respond func(text string) (aisdk.StreamInterface, error)
}

func (m *fakeModel) StartChat(ctx context.Context, history []aisdk.Turn) (aisdk.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts = append(m.starts, append([]aisdk.Turn(nil), history...))
	return &fakeSession{model: m}, nil
}

func (m *fakeModel) Generate(ctx context.Context, req *aisdk.GenerateRequest) (string, error) {
	return "", errors.New("not used")
}

func (m *fakeModel) startCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.starts)
}

type fakeSession struct {
	model *fakeModel
}

func (s *fakeSession) SendMessageStream(ctx context.Context, text string) (aisdk.StreamInterface, error) {
	return s.model.respond(text)
}

// echo replies "re: <text>" in two chunks.
func echo(text string) (aisdk.StreamInterface, error) {
	return aisdk.NewTextStream("re: ", text), nil
}

// gatedStream yields one chunk, then waits for release or ctx.
type gatedStream struct {
	ctx     context.Context
	release chan struct{}
	sent    bool
}

func (g *gatedStream) Read() (*aisdk.StreamChunk, error) {
	if !g.sent {
		g.sent = true
		return aisdk.TextChunk("thinking"), nil
	}
	select {
	case <-g.release:
		return nil, io.EOF
	case <-g.ctx.Done():
		return nil, g.ctx.Err()
	}
}

func (g *gatedStream) Close() error { return nil }

func newTestService(t *testing.T, model *fakeModel) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc, err := NewService(ServiceConfig{Database: db.DB(), Model: model})
	require.NoError(t, err)
	return svc, db
}

func collect() (*[]ConversationEvent, EventSink) {
	var events []ConversationEvent
	return &events, FuncSink(func(e ConversationEvent) error {
		events = append(events, e)
		return nil
	})
}

func TestSendMessage(t *testing.T) {
	model := &fakeModel{respond: func(text string) (aisdk.StreamInterface, error) {
		return aisdk.NewTextStream("Hel", "", "lo"), nil
	}}
	svc, db := newTestService(t, model)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultConversationTitle, conv.DisplayTitle())

	events, sink := collect()
	require.NoError(t, svc.SendMessage(ctx, conv.ID, "hi", sink))

	msgs, err := storage.GetMessagesByConversationID(ctx, db.DB(), conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, storage.ParticipantUser, msgs[0].Participant)
	assert.Equal(t, storage.StatusSent, msgs[0].Status)
	assert.Equal(t, storage.ParticipantModel, msgs[1].Participant)
	assert.Equal(t, storage.StatusReceived, msgs[1].Status)
	assert.Equal(t, "Hello", msgs[1].Content)

	var types []EventType
	for _, e := range *events {
		types = append(types, e.GetType())
	}
	assert.Equal(t, []EventType{EventUserMessage, EventStreamStart, EventStreamChunk, EventStreamChunk, EventStreamEnd}, types)
	end := (*events)[len(*events)-1].(*StreamEndEvent)
	assert.Equal(t, "Hello", end.Content)
	assert.Equal(t, msgs[1].ID, end.MessageID)
}

func TestSendMessageValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeModel{respond: echo})

	err := svc.SendMessage(context.Background(), "conv", "   ", nil)
	assert.ErrorIs(t, err, ErrTextRequired)
	assert.Equal(t, apperr.KindGeneric, apperr.KindOf(err))

	err = svc.SendMessage(context.Background(), "", "hello", nil)
	assert.ErrorIs(t, err, ErrConversationRequired)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	svc, _ := newTestService(t, &fakeModel{respond: echo})
	err := svc.SendMessage(context.Background(), "missing", "hello", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindGeneric, apperr.KindOf(err))
}

func TestSendMessageFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name        string
		respond     func(string) (aisdk.StreamInterface, error)
		wantErr     error
		wantReply   bool
		replyStatus storage.MessageStatus
	}{
		{
			name:    "send error",
			respond: func(string) (aisdk.StreamInterface, error) { return nil, boom },
			wantErr: boom,
		},
		{
			name: "mid-stream error",
			respond: func(string) (aisdk.StreamInterface, error) {
				s := aisdk.NewTextStream("part")
				s.Err = boom
				return s, nil
			},
			wantErr:     boom,
			wantReply:   true,
			replyStatus: storage.StatusFailed,
		},
		{
			name: "empty response",
			respond: func(string) (aisdk.StreamInterface, error) {
				return aisdk.NewTextStream("", ""), nil
			},
			wantErr: aisdk.ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db := newTestService(t, &fakeModel{respond: tt.respond})
			ctx := context.Background()
			conv, err := svc.CreateConversation(ctx, "")
			require.NoError(t, err)

			events, sink := collect()
			err = svc.SendMessage(ctx, conv.ID, "hi", sink)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, apperr.KindGeneric, apperr.KindOf(err))

			msgs, err := storage.GetMessagesByConversationID(ctx, db.DB(), conv.ID)
			require.NoError(t, err)
			assert.Equal(t, storage.StatusFailed, msgs[0].Status)
			if tt.wantReply {
				require.Len(t, msgs, 2)
				assert.Equal(t, tt.replyStatus, msgs[1].Status)
				assert.Equal(t, "part", msgs[1].Content)
			} else {
				assert.Len(t, msgs, 1)
			}
			assert.Equal(t, EventError, (*events)[len(*events)-1].GetType())
		})
	}
}

func TestSendMessageCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := &fakeModel{}
	model.respond = func(string) (aisdk.StreamInterface, error) {
		return &gatedStream{ctx: ctx, release: make(chan struct{})}, nil
	}
	svc, db := newTestService(t, model)
	conv, err := svc.CreateConversation(context.Background(), "")
	require.NoError(t, err)

	sink := FuncSink(func(e ConversationEvent) error {
		if e.GetType() == EventStreamChunk {
			cancel()
		}
		return nil
	})
	err = svc.SendMessage(ctx, conv.ID, "hi", sink)
	assert.ErrorIs(t, err, context.Canceled)

	msgs, err := storage.GetMessagesByConversationID(context.Background(), db.DB(), conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, storage.StatusFailed, msgs[0].Status)
	assert.Equal(t, storage.StatusFailed, msgs[1].Status)
}

func TestConcurrentSendRejected(t *testing.T) {
	release := make(chan struct{})
	model := &fakeModel{}
	model.respond = func(string) (aisdk.StreamInterface, error) {
		return &gatedStream{ctx: context.Background(), release: release}, nil
	}
	svc, db := newTestService(t, model)
	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "")
	require.NoError(t, err)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- svc.SendMessage(ctx, conv.ID, "first", FuncSink(func(e ConversationEvent) error {
			if e.GetType() == EventStreamStart {
				close(started)
			}
			return nil
		}))
	}()
	<-started

	err = svc.SendMessage(ctx, conv.ID, "second", nil)
	assert.ErrorIs(t, err, ErrResponseInProgress)

	close(release)
	require.NoError(t, <-done)

	msgs, err := storage.GetMessagesByConversationID(ctx, db.DB(), conv.ID)
	require.NoError(t, err)
	statuses := map[string]storage.MessageStatus{}
	for _, m := range msgs {
		statuses[m.Content] = m.Status
	}
	assert.Equal(t, storage.StatusSent, statuses["first"])
	assert.Equal(t, storage.StatusFailed, statuses["second"])
	assert.Equal(t, storage.StatusReceived, statuses["thinking"])
}

func TestSessionPerConversation(t *testing.T) {
	model := &fakeModel{respond: echo}
	svc, _ := newTestService(t, model)
	ctx := context.Background()

	a, err := svc.CreateConversation(ctx, "")
	require.NoError(t, err)
	b, err := svc.CreateConversation(ctx, "")
	require.NoError(t, err)

	require.NoError(t, svc.SendMessage(ctx, a.ID, "a1", nil))
	require.NoError(t, svc.SendMessage(ctx, a.ID, "a2", nil))
	assert.Equal(t, 1, model.startCount(), "same conversation reuses the session")

	require.NoError(t, svc.SendMessage(ctx, b.ID, "b1", nil))
	require.NoError(t, svc.SendMessage(ctx, a.ID, "a3", nil))
	require.Equal(t, 3, model.startCount())

	assert.Empty(t, model.starts[0])
	assert.Empty(t, model.starts[1])
	assert.Equal(t, []aisdk.Turn{
		{Role: "user", Text: "a1"},
		{Role: "model", Text: "re: a1"},
		{Role: "user", Text: "a2"},
		{Role: "model", Text: "re: a2"},
	}, model.starts[2])
}

func TestFailedTurnsLeaveHistory(t *testing.T) {
	fail := true
	model := &fakeModel{}
	model.respond = func(text string) (aisdk.StreamInterface, error) {
		if fail {
			return nil, errors.New("unavailable")
		}
		return echo(text)
	}
	svc, _ := newTestService(t, model)
	ctx := context.Background()
	conv, err := svc.CreateConversation(ctx, "")
	require.NoError(t, err)

	require.Error(t, svc.SendMessage(ctx, conv.ID, "lost", nil))
	fail = false
	require.NoError(t, svc.SendMessage(ctx, conv.ID, "kept", nil))

	// the failed send dropped the session, so the second one rebuilt it
	assert.Equal(t, 2, model.startCount())
	assert.Empty(t, model.starts[1])

	turns, err := svc.ChatHistory(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []aisdk.Turn{{Role: "user", Text: "kept"}, {Role: "model", Text: "re: kept"}}, turns)

	msgs, err := svc.Messages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}

func TestConversations(t *testing.T) {
	svc, _ := newTestService(t, &fakeModel{respond: echo})
	ctx := context.Background()

	older, err := svc.CreateConversation(ctx, "Trip plans")
	require.NoError(t, err)
	assert.Equal(t, storage.TitleSourceUser, older.TitleSource)
	newer, err := svc.CreateConversation(ctx, "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.SendMessage(ctx, older.ID, "hello", nil))

	list, err := svc.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)

	got, err := svc.Conversation(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip plans", got.DisplayTitle())

	_, err = svc.Conversation(ctx, "nope")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	require.NoError(t, svc.DeleteConversation(ctx, older.ID))
	list, err = svc.Conversations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type upperRenderer struct{}

func (upperRenderer) Render(md string) (string, error) { return strings.ToUpper(md), nil }

func TestConsoleEventProcessor(t *testing.T) {
	var streamed, rendered bytes.Buffer
	stream := NewConsoleEventProcessor(ConsoleProcessorConfig{Out: &streamed, StreamMode: true})
	render := NewConsoleEventProcessor(ConsoleProcessorConfig{Out: &rendered, Renderer: upperRenderer{}})

	sink := NewChannelEventSink(8, nil, stream, render)
	emitter := NewEventEmitter(sink, "c1")
	emitter.EmitStreamChunk("**hi** ")
	emitter.EmitStreamChunk("there")
	emitter.EmitStreamEnd("m1", "**hi** there", time.Second)
	require.NoError(t, sink.Close())

	assert.Equal(t, "**hi** there\n", streamed.String())
	assert.Equal(t, "**HI** THERE\n", rendered.String())
}
