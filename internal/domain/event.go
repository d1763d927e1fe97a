package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

// EventConversationActivity is the only webhook event type that triggers a reply.
const EventConversationActivity = "chat.conversation.activity"

// ErrInvalidPayload is returned when an accepted event lacks the fields needed
// to reply.
var ErrInvalidPayload = errors.New("invalid payload structure")

// EventEnvelope is the outer shape of a webhook notification.
type EventEnvelope struct {
	EventType string          `json:"eventType"`
	Object    json.RawMessage `json:"object,omitempty"`
}

// ConversationObject is the object payload of a conversation activity event.
type ConversationObject struct {
	ConversationID FlexibleID `json:"conversationId"`
	VisitorID      FlexibleID `json:"visitorId,omitempty"`
	Body           *string    `json:"body,omitempty"`
}

// FlexibleID accepts identifiers sent either as JSON strings or numbers.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. An eventType that is not a JSON
// string decodes as an empty tag so the event is ignored rather than rejected.
func (e *EventEnvelope) UnmarshalJSON(b []byte) error {
	var wire struct {
		EventType json.RawMessage `json:"eventType"`
		Object    json.RawMessage `json:"object,omitempty"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	var tag string
	if len(wire.EventType) > 0 && wire.EventType[0] == '"' {
		if err := json.Unmarshal(wire.EventType, &tag); err != nil {
			return err
		}
	}
	*e = EventEnvelope{EventType: tag, Object: wire.Object}
	return nil
}

// ParseEnvelope decodes a raw webhook body. The raw bytes are not retained.
func ParseEnvelope(raw []byte) (EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return EventEnvelope{}, err
	}
	return env, nil
}

// Accepts reports whether the event should be acted on. Only the exact
// conversation activity type passes; everything else is dropped.
func Accepts(env EventEnvelope) bool {
	return env.EventType == EventConversationActivity
}

// ExtractContext pulls the conversation fields out of an accepted event.
// A missing or blank message body falls back to DefaultMessageBody; a missing
// conversation id is ErrInvalidPayload.
func ExtractContext(env EventEnvelope) (ConversationContext, error) {
	if len(env.Object) == 0 {
		return ConversationContext{}, ErrInvalidPayload
	}

	var obj ConversationObject
	if err := json.Unmarshal(env.Object, &obj); err != nil {
		return ConversationContext{}, ErrInvalidPayload
	}

	convID := strings.TrimSpace(string(obj.ConversationID))
	if convID == "" {
		return ConversationContext{}, ErrInvalidPayload
	}

	msg := DefaultMessageBody
	if obj.Body != nil && strings.TrimSpace(*obj.Body) != "" {
		msg = *obj.Body
	}

	return ConversationContext{
		ConversationID: convID,
		VisitorID:      strings.TrimSpace(string(obj.VisitorID)),
		Message:        msg,
	}, nil
}
