// Package wacloud implements the WhatsApp Cloud API surface: inbound
// webhook payload types and the outbound message sender.
package wacloud

// Payload is the top-level webhook notification delivered by Meta.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one account-level notification batch.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps a single field change within an entry.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value holds the messages (and metadata) of one change.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
}

// Metadata identifies the business phone number the change belongs to.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact describes a sender profile attached to the notification.
type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// Message is a single inbound user message.
type Message struct {
	From      string    `json:"from"`
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *TextBody `json:"text,omitempty"`
}

// TextBody is the content of a text-type message.
type TextBody struct {
	Body string `json:"body"`
}

// TextContent returns the message body for text-type messages.
// Other types (image, audio, interactive, ...) carry no extractable
// text and return false.
func (m Message) TextContent() (string, bool) {
	if m.Type != "text" || m.Text == nil {
		return "", false
	}
	return m.Text.Body, true
}
