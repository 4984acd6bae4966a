package valueobjects

import "strings"

// MessageBody is the payload of a chat message: free text, a reference to a
// shared event, or both. A message must carry at least one of the two; that
// rule is enforced where messages are sent, not here, so that an empty body
// can still be represented while composing.
type MessageBody struct {
	text     string
	eventRef string
}

// NewMessageBody creates a message body from its parts
func NewMessageBody(text, eventRef string) MessageBody {
	return MessageBody{
		text:     strings.TrimSpace(text),
		eventRef: strings.TrimSpace(eventRef),
	}
}

// TextBody creates a plain text body
func TextBody(text string) MessageBody {
	return NewMessageBody(text, "")
}

// EventShareBody creates a body referencing a shared event
func EventShareBody(eventRef, caption string) MessageBody {
	return NewMessageBody(caption, eventRef)
}

// Text returns the text portion of the body
func (b MessageBody) Text() string {
	return b.text
}

// EventRef returns the attached event reference, empty if none
func (b MessageBody) EventRef() string {
	return b.eventRef
}

// HasEventRef reports whether the body carries an event reference
func (b MessageBody) HasEventRef() bool {
	return b.eventRef != ""
}

// IsEmpty reports whether the body carries no payload at all
func (b MessageBody) IsEmpty() bool {
	return b.text == "" && b.eventRef == ""
}

// Equals checks if two bodies are identical
func (b MessageBody) Equals(other MessageBody) bool {
	return b.text == other.text && b.eventRef == other.eventRef
}
