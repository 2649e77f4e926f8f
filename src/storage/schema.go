package storage

import "time"

// Participant is the sender of a message
type Participant string

const (
	ParticipantUser  Participant = "user"
	ParticipantModel Participant = "model"
)

// Role is the provider role tag used when replaying history
func (p Participant) Role() string {
	return string(p)
}

// MessageStatus tracks delivery of a message
type MessageStatus string

const (
	StatusLoading  MessageStatus = "loading"
	StatusSent     MessageStatus = "sent"
	StatusReceived MessageStatus = "received"
	StatusFailed   MessageStatus = "failed"
)

// Terminal reports whether no further transition is expected
func (s MessageStatus) Terminal() bool {
	return s != StatusLoading
}

// TitleSource records how a conversation title was produced
type TitleSource string

const (
	TitleSourceDefault TitleSource = "default"
	TitleSourceAuto    TitleSource = "auto"
	TitleSourceUser    TitleSource = "user"
)

// DefaultConversationTitle is used until a title is generated
const DefaultConversationTitle = "New Chat"

type Conversation struct {
	ID                       string      `json:"id" db:"id"`
	Title                    *string     `json:"title,omitempty" db:"title"`
	TitleSource              TitleSource `json:"title_source" db:"title_source"`
	UsedForPromptSuggestions bool        `json:"used_for_prompt_suggestions" db:"used_for_prompt_suggestions"`
	CreatedAt                time.Time   `json:"created_at" db:"created_at"`
	LastMessageAt            time.Time   `json:"last_message_at" db:"last_message_at"`
}

// DisplayTitle returns the title or the default placeholder
func (c *Conversation) DisplayTitle() string {
	if c.Title == nil || *c.Title == "" {
		return DefaultConversationTitle
	}
	return *c.Title
}

type Message struct {
	ID             string        `json:"id" db:"id"`
	ConversationID string        `json:"conversation_id" db:"conversation_id"`
	Participant    Participant   `json:"participant" db:"participant"`
	Status         MessageStatus `json:"status" db:"status"`
	Content        string        `json:"content" db:"content"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

type Prompt struct {
	ID        string    `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	Icon      string    `json:"icon" db:"icon"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
