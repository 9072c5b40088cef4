// Package filters provides the predicate set used to select handlers for
// incoming events. Predicates are pure: evaluating one has no side effects,
// and a predicate that expects a message returns false (never fails) for any
// other event.
package filters

import (
	"regexp"
	"strings"

	"vkgram/pkg/types"
)

// Filter is a boolean test over an incoming event. The implementation set is
// closed: the constructors in this package plus And/Or/Not cover every
// supported predicate.
type Filter interface {
	Check(event types.Event) bool
}

const commandPrefix = "/"

// CommandFilter matches messages whose first whitespace-delimited token is
// the command prefix followed by one of the configured commands,
// case-insensitively.
type CommandFilter struct {
	commands map[string]struct{}
}

func Command(commands ...string) *CommandFilter {
	set := make(map[string]struct{}, len(commands))
	for _, cmd := range commands {
		set[strings.ToLower(cmd)] = struct{}{}
	}
	return &CommandFilter{commands: set}
}

func (f *CommandFilter) Check(event types.Event) bool {
	msg := event.Message
	if msg == nil {
		return false
	}
	if !strings.HasPrefix(msg.Text, commandPrefix) {
		return false
	}
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], commandPrefix))
	_, ok := f.commands[cmd]
	return ok
}

// TextFilter matches message text either by case-insensitive substring
// against one of the candidates, or by regular expression search. The mode
// is fixed at construction.
type TextFilter struct {
	texts      []string
	pattern    *regexp.Regexp
	ignoreCase bool
}

func Text(texts ...string) *TextFilter {
	return &TextFilter{texts: texts, ignoreCase: true}
}

// CaseSensitive switches substring matching to exact case. No effect on the
// regexp mode.
func (f *TextFilter) CaseSensitive() *TextFilter {
	f.ignoreCase = false
	return f
}

func TextMatching(pattern *regexp.Regexp) *TextFilter {
	return &TextFilter{pattern: pattern}
}

func (f *TextFilter) Check(event types.Event) bool {
	msg := event.Message
	if msg == nil {
		return false
	}

	if f.pattern != nil {
		return f.pattern.MatchString(msg.Text)
	}

	text := msg.Text
	if f.ignoreCase {
		text = strings.ToLower(text)
	}
	for _, candidate := range f.texts {
		if f.ignoreCase {
			candidate = strings.ToLower(candidate)
		}
		if strings.Contains(text, candidate) {
			return true
		}
	}
	return false
}

const (
	ChatPrivate = "private"
	ChatGroup   = "group"
)

// ChatTypeFilter classifies the conversation: private when the sender and
// the peer are the same id, group when they differ. Any other requested
// type never matches.
type ChatTypeFilter struct {
	chatType string
}

func ChatType(chatType string) *ChatTypeFilter {
	return &ChatTypeFilter{chatType: chatType}
}

func (f *ChatTypeFilter) Check(event types.Event) bool {
	msg := event.Message
	if msg == nil {
		return false
	}
	switch f.chatType {
	case ChatPrivate:
		return msg.PeerID == msg.FromID
	case ChatGroup:
		return msg.PeerID != msg.FromID
	}
	return false
}

// UserFilter matches messages sent by one of a fixed set of user ids.
type UserFilter struct {
	userIDs map[int64]struct{}
}

func Users(userIDs ...int64) *UserFilter {
	set := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		set[id] = struct{}{}
	}
	return &UserFilter{userIDs: set}
}

func (f *UserFilter) Check(event types.Event) bool {
	msg := event.Message
	if msg == nil {
		return false
	}
	_, ok := f.userIDs[msg.FromID]
	return ok
}

const (
	ContentText       = "text"
	ContentAttachment = "attachment"
	ContentSticker    = "sticker"
	ContentPhoto      = "photo"
)

// ContentTypeFilter classifies the message content: non-blank text, any
// attachment, or an attachment of a specific sub-type.
type ContentTypeFilter struct {
	contentType string
}

func ContentType(contentType string) *ContentTypeFilter {
	return &ContentTypeFilter{contentType: contentType}
}

func (f *ContentTypeFilter) Check(event types.Event) bool {
	msg := event.Message
	if msg == nil {
		return false
	}
	switch f.contentType {
	case ContentText:
		return strings.TrimSpace(msg.Text) != ""
	case ContentAttachment:
		return len(msg.Attachments) > 0
	case ContentSticker, ContentPhoto:
		for _, att := range msg.Attachments {
			if att.Type == f.contentType {
				return true
			}
		}
	}
	return false
}

// AndFilter is true iff every child is true. Children are side-effect-free,
// so all of them are evaluated without short-circuiting.
type AndFilter struct {
	children []Filter
}

func And(children ...Filter) *AndFilter {
	return &AndFilter{children: children}
}

func (f *AndFilter) Check(event types.Event) bool {
	result := true
	for _, child := range f.children {
		if !child.Check(event) {
			result = false
		}
	}
	return result
}

// OrFilter is true iff at least one child is true.
type OrFilter struct {
	children []Filter
}

func Or(children ...Filter) *OrFilter {
	return &OrFilter{children: children}
}

func (f *OrFilter) Check(event types.Event) bool {
	result := false
	for _, child := range f.children {
		if child.Check(event) {
			result = true
		}
	}
	return result
}

// NotFilter negates a single child.
type NotFilter struct {
	child Filter
}

func Not(child Filter) *NotFilter {
	return &NotFilter{child: child}
}

func (f *NotFilter) Check(event types.Event) bool {
	return !f.child.Check(event)
}
