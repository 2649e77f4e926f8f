package chat

import (
	"time"
)

// EventEmitter helps emit events with common fields
type EventEmitter struct {
	sink           EventSink
	conversationID string
}

// NewEventEmitter creates a new event emitter
func NewEventEmitter(sink EventSink, conversationID string) *EventEmitter {
	return &EventEmitter{
		sink:           sink,
		conversationID: conversationID,
	}
}

func (e *EventEmitter) createBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		Type:           eventType,
		Timestamp:      time.Now(),
		ConversationID: e.conversationID,
	}
}

// EmitUserMessage emits a user message event
func (e *EventEmitter) EmitUserMessage(messageID, content string) error {
	if e.sink == nil {
		return nil
	}
	return e.sink.Send(&UserMessageEvent{
		BaseEvent: e.createBaseEvent(EventUserMessage),
		MessageID: messageID,
		Content:   content,
	})
}

// EmitStreamStart emits the start of a response
func (e *EventEmitter) EmitStreamStart(latency time.Duration) error {
	if e.sink == nil {
		return nil
	}
	return e.sink.Send(&StreamStartEvent{
		BaseEvent: e.createBaseEvent(EventStreamStart),
		Latency:   latency,
	})
}

// EmitStreamChunk emits a chunk of response text
func (e *EventEmitter) EmitStreamChunk(content string) error {
	if e.sink == nil {
		return nil
	}
	return e.sink.Send(&StreamChunkEvent{
		BaseEvent: e.createBaseEvent(EventStreamChunk),
		Content:   content,
	})
}

// EmitStreamEnd emits the end of a response
func (e *EventEmitter) EmitStreamEnd(messageID, content string, duration time.Duration) error {
	if e.sink == nil {
		return nil
	}
	return e.sink.Send(&StreamEndEvent{
		BaseEvent: e.createBaseEvent(EventStreamEnd),
		MessageID: messageID,
		Content:   content,
		Duration:  duration,
	})
}

// EmitError emits an error event
func (e *EventEmitter) EmitError(err error, context string) error {
	if e.sink == nil {
		return nil
	}
	return e.sink.Send(&ErrorEvent{
		BaseEvent: e.createBaseEvent(EventError),
		Error:     err,
		Context:   context,
	})
}
