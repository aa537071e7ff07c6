package push

import "context"

// Transport delivers one message to one device. Implementations report an
// opaque per-call outcome; the dispatcher never inspects provider details.
type Transport interface {
	Send(ctx context.Context, token, platform string, msg Message) error
}

type Message struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

type MessageOption func(*Message)

func NewMessage(title, body string, opts ...MessageOption) Message {
	m := Message{
		Title: title,
		Body:  body,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func WithData(data map[string]interface{}) MessageOption {
	return func(m *Message) {
		m.Data = data
	}
}
