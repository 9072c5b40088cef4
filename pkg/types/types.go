package types

import "encoding/json"

// Update type tags delivered by the Bots Long Poll API.
const (
	UpdateMessageNew   = "message_new"
	UpdateMessageReply = "message_reply"
	UpdateMessageEvent = "message_event"
)

// CategoryMessage is the registry category shared by all message bindings.
const CategoryMessage = "message"

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
}

type Attachment struct {
	Type string `json:"type"`
	// Raw keeps the type-specific object (photo, sticker, doc, ...)
	// without committing to a schema per attachment kind.
	Raw json.RawMessage `json:"-"`
}

func (a *Attachment) UnmarshalJSON(data []byte) error {
	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	a.Type = tagged.Type
	a.Raw = append(a.Raw[:0], data...)
	return nil
}

type Message struct {
	ID           int64        `json:"id"`
	FromID       int64        `json:"from_id"`
	PeerID       int64        `json:"peer_id"`
	Text         string       `json:"text"`
	Date         int64        `json:"date"`
	Attachments  []Attachment `json:"attachments"`
	Payload      string       `json:"payload,omitempty"`
	ReplyMessage *Message     `json:"reply_message,omitempty"`
}

// ChatID aliases PeerID, matching the conversation identifier used by the
// messages API.
func (m *Message) ChatID() int64 {
	return m.PeerID
}

// Update is one raw long-poll update: a type tag plus an opaque object.
type Update struct {
	Type    string          `json:"type"`
	Object  json.RawMessage `json:"object"`
	GroupID int64           `json:"group_id"`
	EventID string          `json:"event_id"`
}

// Event is the closed union consumed by the dispatcher: exactly one of
// Message or Update is set. Events are immutable once constructed.
type Event struct {
	Message *Message
	Update  *Update
}

func (e Event) IsMessage() bool {
	return e.Message != nil
}

// Category returns the registry category of the event: CategoryMessage for
// decoded messages, the raw update type otherwise.
func (e Event) Category() string {
	if e.Message != nil {
		return CategoryMessage
	}
	if e.Update != nil {
		return e.Update.Type
	}
	return ""
}

// ToEvent decodes the update into an Event. For message_new the nested
// message object is extracted; anything else (including a message_new whose
// object cannot be decoded) stays a generic update so the poll loop never
// fails on a malformed payload.
func (u *Update) ToEvent() Event {
	if u.Type == UpdateMessageNew {
		var obj struct {
			Message Message `json:"message"`
		}
		if err := json.Unmarshal(u.Object, &obj); err == nil {
			return Event{Message: &obj.Message}
		}
	}
	return Event{Update: u}
}
