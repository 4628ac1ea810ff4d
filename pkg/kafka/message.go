package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a Kafka record before it is handed to the writer.
type Message struct {
	Key       string // partition key; bookings use the trainer id
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
	HeaderCorrelationID = "correlation-id"
	HeaderOriginalTopic = "original-topic"
)

// MessageBuilder assembles an event. The first error is kept and reported by
// Build.
type MessageBuilder struct {
	msg Message
	err error
}

func NewMessage(eventType string) *MessageBuilder {
	return &MessageBuilder{
		msg: Message{
			Headers:   map[string]string{HeaderEventType: eventType},
			Timestamp: time.Now().UTC(),
		},
	}
}

func (mb *MessageBuilder) WithKey(key string) *MessageBuilder {
	mb.msg.Key = key
	return mb
}

func (mb *MessageBuilder) WithValue(value any) *MessageBuilder {
	if mb.err != nil {
		return mb
	}
	data, err := json.Marshal(value)
	if err != nil {
		mb.err = fmt.Errorf("encode message value: %w", err)
		return mb
	}
	mb.msg.Value = data
	return mb
}

func (mb *MessageBuilder) WithSchemaVersion(version string) *MessageBuilder {
	mb.msg.Headers[HeaderSchemaVersion] = version
	return mb
}

func (mb *MessageBuilder) WithSource(source string) *MessageBuilder {
	mb.msg.Headers[HeaderSource] = source
	return mb
}

// WithCorrelationID ties the event to the request that caused it. An empty id
// is ignored.
func (mb *MessageBuilder) WithCorrelationID(id string) *MessageBuilder {
	if id != "" {
		mb.msg.Headers[HeaderCorrelationID] = id
	}
	return mb
}

func (mb *MessageBuilder) WithTimestamp(ts time.Time) *MessageBuilder {
	mb.msg.Timestamp = ts
	return mb
}

// Build stamps a fresh event id and the RFC3339 timestamp header.
func (mb *MessageBuilder) Build() (Message, error) {
	if mb.err != nil {
		return Message{}, mb.err
	}
	if mb.msg.Headers[HeaderEventType] == "" {
		return Message{}, fmt.Errorf("%w: missing event type", ErrInvalidMessage)
	}
	mb.msg.Headers[HeaderEventID] = uuid.NewString()
	mb.msg.Headers[HeaderTimestamp] = mb.msg.Timestamp.Format(time.RFC3339)
	return mb.msg, nil
}

func (m *Message) EventID() string {
	return m.Headers[HeaderEventID]
}
