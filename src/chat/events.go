package chat

import (
	"fmt"
	"log/slog"
	"time"
)

// EventType represents the type of conversation event
type EventType string

const (
	EventUserMessage EventType = "user_message"

	EventStreamStart EventType = "stream_start"
	EventStreamChunk EventType = "stream_chunk"
	EventStreamEnd   EventType = "stream_end"

	EventError EventType = "error"
)

// ConversationEvent is the base interface for all conversation events
type ConversationEvent interface {
	GetType() EventType
	GetTimestamp() time.Time
	GetConversationID() string
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	Type           EventType `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
}

func (e BaseEvent) GetType() EventType        { return e.Type }
func (e BaseEvent) GetTimestamp() time.Time   { return e.Timestamp }
func (e BaseEvent) GetConversationID() string { return e.ConversationID }

// UserMessageEvent is emitted once the user message is stored
type UserMessageEvent struct {
	BaseEvent
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

// StreamStartEvent is emitted on the first chunk of a response
type StreamStartEvent struct {
	BaseEvent
	Latency time.Duration `json:"latency"`
}

// StreamChunkEvent carries a chunk of streamed text
type StreamChunkEvent struct {
	BaseEvent
	Content string `json:"content"`
}

// StreamEndEvent carries the complete stored reply
type StreamEndEvent struct {
	BaseEvent
	MessageID string        `json:"message_id"`
	Content   string        `json:"content"`
	Duration  time.Duration `json:"duration"`
}

// ErrorEvent represents a failed send
type ErrorEvent struct {
	BaseEvent
	Error   error  `json:"error"`
	Context string `json:"context"` // Where the error occurred
}

// EventSink is the interface for handling conversation events
type EventSink interface {
	// Send sends an event to the sink
	Send(event ConversationEvent) error

	// Close closes the event sink
	Close() error
}

// EventProcessor processes conversation events
type EventProcessor interface {
	// Process handles a single event
	Process(event ConversationEvent) error

	// Close cleans up any resources
	Close() error
}

// ChannelEventSink implements EventSink using Go channels
type ChannelEventSink struct {
	events     chan ConversationEvent
	processors []EventProcessor
	done       chan struct{}
	logger     *slog.Logger
}

// NewChannelEventSink creates a new channel-based event sink
func NewChannelEventSink(bufferSize int, logger *slog.Logger, processors ...EventProcessor) *ChannelEventSink {
	if logger == nil {
		logger = slog.Default()
	}
	sink := &ChannelEventSink{
		events:     make(chan ConversationEvent, bufferSize),
		processors: processors,
		done:       make(chan struct{}),
		logger:     logger,
	}

	go sink.processEvents()

	return sink
}

// Send sends an event to the sink
func (s *ChannelEventSink) Send(event ConversationEvent) error {
	select {
	case s.events <- event:
		return nil
	case <-s.done:
		return fmt.Errorf("event sink is closed")
	}
}

// Close drains pending events and closes the processors
func (s *ChannelEventSink) Close() error {
	close(s.events)
	<-s.done

	for _, p := range s.processors {
		if err := p.Close(); err != nil {
			s.logger.Error("failed to close event processor", "error", err)
		}
	}

	return nil
}

func (s *ChannelEventSink) processEvents() {
	defer close(s.done)

	for event := range s.events {
		for _, processor := range s.processors {
			if err := processor.Process(event); err != nil {
				s.logger.Error("failed to process event", "type", event.GetType(), "error", err)
			}
		}
	}
}

// FuncSink adapts a function to EventSink
type FuncSink func(event ConversationEvent) error

func (f FuncSink) Send(event ConversationEvent) error { return f(event) }
func (f FuncSink) Close() error                       { return nil }
