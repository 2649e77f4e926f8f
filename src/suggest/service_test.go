package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/metrics"
	"github.com/elee1766/gem/src/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	mu       sync.Mutex
	requests []*aisdk.GenerateRequest
	generate func(req *aisdk.GenerateRequest) (string, error)
}

func (m *fakeModel) StartChat(ctx context.Context, history []aisdk.Turn) (aisdk.ChatSession, error) {
	return nil, errors.New("not used")
}

func (m *fakeModel) Generate(ctx context.Context, req *aisdk.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.generate(req)
}

func (m *fakeModel) promptRequests() []*aisdk.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*aisdk.GenerateRequest
	for _, r := range m.requests {
		if r.ResponseSchema != nil {
			out = append(out, r)
		}
	}
	return out
}

// replies answers title requests with title and prompt requests with prompts.
func replies(title, prompts string) func(*aisdk.GenerateRequest) (string, error) {
	return func(req *aisdk.GenerateRequest) (string, error) {
		if req.ResponseSchema != nil {
			return prompts, nil
		}
		return title, nil
	}
}

func newTestService(t *testing.T, model *fakeModel) (*Service, *storage.DB, *metrics.Recorder) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "gem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rec := metrics.New(metrics.DefaultConfig())
	svc, err := NewService(Config{Database: db.DB(), Model: model, Metrics: rec})
	require.NoError(t, err)
	return svc, db, rec
}

func addConversation(t *testing.T, db *storage.DB, userTexts ...string) *storage.Conversation {
	t.Helper()
	ctx := context.Background()
	conv := &storage.Conversation{}
	require.NoError(t, storage.CreateConversation(ctx, db.DB(), conv))
	for _, text := range userTexts {
		require.NoError(t, storage.AddMessageToConversation(ctx, db.DB(), &storage.Message{
			ConversationID: conv.ID,
			Participant:    storage.ParticipantUser,
			Status:         storage.StatusSent,
			Content:        text,
		}))
		require.NoError(t, storage.CreateMessage(ctx, db.DB(), &storage.Message{
			ConversationID: conv.ID,
			Participant:    storage.ParticipantModel,
			Status:         storage.StatusReceived,
			Content:        "reply to " + text,
		}))
	}
	return conv
}

// counterValue sums every series of the named counter.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

const twoPrompts = `{"prompts":[{"text":"Explain goroutines","icon":"CODE"},{"text":"Plan a trip to Kyoto","icon":"TRAVEL"}]}`

func TestUpdateChatTitle(t *testing.T) {
	model := &fakeModel{generate: replies("  \"Go Concurrency\"\n", twoPrompts)}
	svc, db, rec := newTestService(t, model)
	ctx := context.Background()

	conv := &storage.Conversation{}
	require.NoError(t, storage.CreateConversation(ctx, db.DB(), conv))
	require.NoError(t, storage.AddMessageToConversation(ctx, db.DB(), &storage.Message{
		ConversationID: conv.ID,
		Participant:    storage.ParticipantUser,
		Status:         storage.StatusLoading,
		Content:        "how do goroutines work?",
	}))

	require.NoError(t, svc.UpdateChatTitle(ctx, conv.ID, "how do goroutines work?"))

	got, err := storage.GetConversationByID(ctx, db.DB(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Concurrency", got.DisplayTitle())
	assert.Equal(t, storage.TitleSourceAuto, got.TitleSource)
	assert.True(t, got.UsedForPromptSuggestions)
	assert.Equal(t, 1.0, counterValue(t, rec.Registry(), "gem_suggest_titles_total"))

	// the title request carries the title instruction, not the chat one
	assert.Contains(t, model.requests[0].SystemInstruction, "[UPDATE CHAT TITLE]")

	// a second run never changes the title
	model.generate = replies("Something Else", twoPrompts)
	require.NoError(t, svc.UpdateChatTitle(ctx, conv.ID, "again"))
	got, err = storage.GetConversationByID(ctx, db.DB(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Concurrency", got.DisplayTitle())
}

func TestUpdateChatTitleSkipsBusyConversation(t *testing.T) {
	model := &fakeModel{generate: replies("Late Title", twoPrompts)}
	svc, db, _ := newTestService(t, model)
	ctx := context.Background()

	conv := addConversation(t, db, "first question", "second question")
	require.NoError(t, svc.UpdateChatTitle(ctx, conv.ID, "first question"))

	got, err := storage.GetConversationByID(ctx, db.DB(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultConversationTitle, got.DisplayTitle())
	assert.Equal(t, storage.TitleSourceDefault, got.TitleSource)
	assert.Empty(t, model.promptRequests(), "suggestions only follow a stored title attempt")
}

func TestUpdateChatTitleKeepsRenamedConversation(t *testing.T) {
	model := &fakeModel{generate: replies("Generated", twoPrompts)}
	svc, db, _ := newTestService(t, model)
	ctx := context.Background()

	conv := addConversation(t, db, "first question")
	require.NoError(t, storage.UpdateConversationTitle(ctx, db.DB(), conv.ID, "Renamed"))
	require.NoError(t, svc.UpdateChatTitle(ctx, conv.ID, "first question"))

	got, err := storage.GetConversationByID(ctx, db.DB(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.DisplayTitle())
	assert.Equal(t, storage.TitleSourceUser, got.TitleSource)
}

func TestUpdateChatTitleSwallowsFailures(t *testing.T) {
	model := &fakeModel{generate: func(*aisdk.GenerateRequest) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	svc, db, _ := newTestService(t, model)
	ctx := context.Background()

	conv := &storage.Conversation{}
	require.NoError(t, storage.CreateConversation(ctx, db.DB(), conv))

	assert.NoError(t, svc.UpdateChatTitle(ctx, conv.ID, "hello"))

	got, err := storage.GetConversationByID(ctx, db.DB(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.TitleSourceDefault, got.TitleSource)
}

func TestGeneratePromptSuggestions(t *testing.T) {
	model := &fakeModel{generate: replies("", "```json\n"+twoPrompts+"\n```")}
	svc, db, rec := newTestService(t, model)
	ctx := context.Background()

	a := addConversation(t, db, "how do goroutines work?", "and channels?")
	b := addConversation(t, db, "cheap flights to Japan")

	stored, err := svc.GeneratePromptSuggestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	reqs := model.promptRequests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Contains(t, req.Prompt, "user: how do goroutines work?\nuser: and channels?")
	assert.Contains(t, req.Prompt, "user: cheap flights to Japan")
	assert.NotContains(t, req.Prompt, "reply to")
	assert.Contains(t, req.SystemInstruction, "[GENERATE INITIAL PROMPTS]")
	assert.Contains(t, req.SystemInstruction, "Travel or exploration-related prompts: TRAVEL")
	assert.Equal(t, 0.7, *req.Temperature)
	assert.Equal(t, 0.75, *req.TopP)
	assert.Equal(t, 40, *req.TopK)

	raw, err := json.Marshal(req.ResponseSchema)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"prompts"`)

	for _, id := range []string{a.ID, b.ID} {
		conv, err := storage.GetConversationByID(ctx, db.DB(), id)
		require.NoError(t, err)
		assert.True(t, conv.UsedForPromptSuggestions)
	}

	latest, err := storage.ListLatestPrompts(ctx, db.DB(), 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "Plan a trip to Kyoto", latest[0].Text)
	assert.Equal(t, "TRAVEL", latest[0].Icon)
	assert.Equal(t, 2.0, counterValue(t, rec.Registry(), "gem_suggest_prompts_stored_total"))

	// consumed conversations are not sent again
	stored, err = svc.GeneratePromptSuggestions(ctx)
	require.NoError(t, err)
	assert.Zero(t, stored)
	assert.Len(t, model.promptRequests(), 1)
}

func TestGeneratePromptSuggestionsFailureKeepsConversations(t *testing.T) {
	tests := []struct {
		name  string
		reply func(*aisdk.GenerateRequest) (string, error)
	}{
		{"model error", func(*aisdk.GenerateRequest) (string, error) { return "", errors.New("unavailable") }},
		{"not json", replies("", "here are some prompts")},
		{"empty list", replies("", `{"prompts":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db, _ := newTestService(t, &fakeModel{generate: tt.reply})
			ctx := context.Background()
			before, err := storage.CountPrompts(ctx, db.DB())
			require.NoError(t, err)

			conv := addConversation(t, db, "teach me chess")
			_, err = svc.GeneratePromptSuggestions(ctx)
			require.Error(t, err)

			after, err := storage.CountPrompts(ctx, db.DB())
			require.NoError(t, err)
			assert.Equal(t, before, after)

			got, err := storage.GetConversationByID(ctx, db.DB(), conv.ID)
			require.NoError(t, err)
			assert.False(t, got.UsedForPromptSuggestions)
		})
	}
}

func TestStorePromptsRejectsConsumedConversations(t *testing.T) {
	svc, db, _ := newTestService(t, &fakeModel{generate: replies("", twoPrompts)})
	ctx := context.Background()

	a := addConversation(t, db, "first")
	b := addConversation(t, db, "second")
	ids := []string{a.ID, b.ID}

	// a concurrent run consumed b after this run listed it
	_, err := storage.MarkUsedForPromptSuggestions(ctx, db.DB(), []string{b.ID})
	require.NoError(t, err)

	prompts, err := parsePrompts(twoPrompts)
	require.NoError(t, err)
	err = svc.storePrompts(ctx, prompts, ids)
	assert.ErrorIs(t, err, errConsumed)

	n, err := storage.CountPrompts(ctx, db.DB())
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := storage.GetConversationByID(ctx, db.DB(), a.ID)
	require.NoError(t, err)
	assert.False(t, got.UsedForPromptSuggestions, "the rolled back run leaves a for the next pass")
}

func TestPrompts(t *testing.T) {
	svc, db, _ := newTestService(t, &fakeModel{generate: replies("", "")})
	ctx := context.Background()

	require.NoError(t, storage.SeedDefaultPrompts(ctx, db.DB()))
	newest := &storage.Prompt{Text: "newest", Icon: "IDEA"}
	require.NoError(t, storage.CreatePrompt(ctx, db.DB(), newest))

	latest, err := storage.ListLatestPrompts(ctx, db.DB(), latestPrompts)
	require.NoError(t, err)
	pool := map[string]bool{}
	for _, p := range latest {
		pool[p.Text] = true
	}

	for i := 0; i < 10; i++ {
		got, err := svc.Prompts(ctx)
		require.NoError(t, err)
		require.Len(t, got, shownPrompts)
		assert.NotEqual(t, got[0].Text, got[1].Text)
		for _, p := range got {
			assert.True(t, pool[p.Text], "%q is not among the latest prompts", p.Text)
		}
	}

	// without shuffling the newest come first
	svc.shuffle = func(int, func(i, j int)) {}
	got, err := svc.Prompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newest", got[0].Text)
}

func TestParsePrompts(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  []storage.Prompt
		isErr bool
	}{
		{
			name: "object",
			in:   `{"prompts":[{"text":"Write a haiku","icon":"LITERATURE"}]}`,
			want: []storage.Prompt{{Text: "Write a haiku", Icon: "LITERATURE"}},
		},
		{
			name: "bare array with unknown icon",
			in:   `[{"text":"Surprise me","icon":"ROCKET"},{"text":"  ","icon":"CODE"}]`,
			want: []storage.Prompt{{Text: "Surprise me", Icon: "QUESTION_MARK"}},
		},
		{
			name: "fenced and missing icon",
			in:   "```\n{\"prompts\":[{\"text\":\"Tell a joke\"}]}\n```",
			want: []storage.Prompt{{Text: "Tell a joke", Icon: "QUESTION_MARK"}},
		},
		{name: "garbage", in: "sure!", isErr: true},
		{name: "empty", in: `{"prompts":[]}`, isErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePrompts(tt.in)
			if tt.isErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Go Concurrency", want: "Go Concurrency"},
		{in: "\n\n  \"Trip to Kyoto\"  \n", want: "Trip to Kyoto"},
		{in: "## **Sorting**\nextra", want: "Sorting"},
		{in: "", want: ""},
		{in: strings.Repeat("a", 80), want: strings.Repeat("a", titleMaxRunes)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanTitle(tt.in), "input %q", tt.in)
	}
}

func TestParseIcon(t *testing.T) {
	assert.Equal(t, IconCode, ParseIcon("code"))
	assert.Equal(t, IconTranslation, ParseIcon(" TRANSLATION "))
	assert.Equal(t, IconQuestionMark, ParseIcon("ROCKET"))
	assert.Len(t, Icons(), 22)
	assert.Equal(t, "Queries or FAQs", IconQuestionMark.Description())

	var icon PromptIcon
	require.NoError(t, json.Unmarshal([]byte(`"SCIENCE"`), &icon))
	assert.Equal(t, IconScience, icon)
	require.NoError(t, json.Unmarshal([]byte(`42`), &icon))
	assert.Equal(t, IconQuestionMark, icon)
}
