package domain

// Sender types used on outbound replies.
const (
	SenderTypeBot     = "BOT"
	SenderTypeVisitor = "VISITOR"
)

// DefaultMessageBody stands in for a visitor message that arrived without text.
const DefaultMessageBody = "No message"

// ConversationContext is the per-event view of a conversation. It lives only
// for the duration of one inbound request.
type ConversationContext struct {
	ConversationID string `json:"conversationId"`
	VisitorID      string `json:"visitorId,omitempty"`
	Message        string `json:"message"`
}

// ReplySender attributes a reply to a visitor.
type ReplySender struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ReplyMessage is the payload posted to a conversation thread.
type ReplyMessage struct {
	Body   string       `json:"body"`
	Type   string       `json:"type"`
	Sender *ReplySender `json:"sender,omitempty"`
}

// NewReply builds a bot reply. The visitor attribution block is attached only
// when visitorID is non-empty.
func NewReply(text, visitorID string) ReplyMessage {
	msg := ReplyMessage{Body: text, Type: SenderTypeBot}
	if visitorID != "" {
		msg.Sender = &ReplySender{Type: SenderTypeVisitor, ID: visitorID}
	}
	return msg
}
