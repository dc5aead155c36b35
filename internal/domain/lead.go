package domain

// LeadDraft holds the answers a visitor gives in one quote chat.
// It lives only as long as the chat panel stays open.
type LeadDraft struct {
	Location     string `json:"location"`
	Service      string `json:"service"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	FinalMessage string `json:"final_message,omitempty"`
}

// Sender identifies who authored a transcript entry.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// MessageKind separates plain text bubbles from the call button bubble.
type MessageKind string

const (
	KindText       MessageKind = "text"
	KindCallAction MessageKind = "call_action"
)

type ChatMessage struct {
	ID     int         `json:"id"`
	Text   string      `json:"text"`
	Sender Sender      `json:"sender"`
	Kind   MessageKind `json:"kind"`
}
