package filters_test

import (
	"regexp"
	"testing"

	"vkgram/pkg/filters"
	"vkgram/pkg/types"
)

func messageEvent(msg types.Message) types.Event {
	return types.Event{Message: &msg}
}

func updateEvent(updateType string) types.Event {
	return types.Event{Update: &types.Update{Type: updateType}}
}

func TestCommandFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		commands []string
		text     string
		want     bool
	}{
		{"exact match", []string{"start"}, "/start", true},
		{"match with arguments", []string{"start"}, "/start hello world", true},
		{"missing slash", []string{"start"}, "start", false},
		{"case insensitive", []string{"start"}, "/Start", true},
		{"upper registration", []string{"START"}, "/start", true},
		{"wrong command", []string{"start"}, "/stop", false},
		{"one of several", []string{"start", "help"}, "/help me", true},
		{"slash only", []string{"start"}, "/", false},
		{"empty text", []string{"start"}, "", false},
		{"command not a prefix", []string{"start"}, "/startx", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := filters.Command(tt.commands...)
			got := f.Check(messageEvent(types.Message{Text: tt.text}))
			if got != tt.want {
				t.Fatalf("Command(%v).Check(%q) = %v, want %v", tt.commands, tt.text, got, tt.want)
			}
		})
	}
}

func TestTextFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter filters.Filter
		text   string
		want   bool
	}{
		{"substring match", filters.Text("hello"), "well hello there", true},
		{"case insensitive", filters.Text("Hello"), "HELLO world", true},
		{"no match", filters.Text("hello"), "goodbye", false},
		{"any of several", filters.Text("foo", "bar"), "raise the bar", true},
		{"case sensitive miss", filters.Text("Hello").CaseSensitive(), "hello", false},
		{"case sensitive hit", filters.Text("Hello").CaseSensitive(), "Hello there", true},
		{"regexp match", filters.TextMatching(regexp.MustCompile(`^\d+$`)), "12345", true},
		{"regexp miss", filters.TextMatching(regexp.MustCompile(`^\d+$`)), "12a45", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Check(messageEvent(types.Message{Text: tt.text}))
			if got != tt.want {
				t.Fatalf("Check(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestChatTypeFilter(t *testing.T) {
	t.Parallel()

	private := messageEvent(types.Message{FromID: 42, PeerID: 42})
	group := messageEvent(types.Message{FromID: 42, PeerID: 2000000001})

	if !filters.ChatType(filters.ChatPrivate).Check(private) {
		t.Fatal("expected private filter to match peer == from")
	}
	if filters.ChatType(filters.ChatPrivate).Check(group) {
		t.Fatal("expected private filter to reject peer != from")
	}
	if !filters.ChatType(filters.ChatGroup).Check(group) {
		t.Fatal("expected group filter to match peer != from")
	}
	if filters.ChatType(filters.ChatGroup).Check(private) {
		t.Fatal("expected group filter to reject peer == from")
	}
	if filters.ChatType("channel").Check(private) || filters.ChatType("channel").Check(group) {
		t.Fatal("expected unknown chat type to never match")
	}
}

func TestUserFilter(t *testing.T) {
	t.Parallel()

	f := filters.Users(1, 2, 3)
	if !f.Check(messageEvent(types.Message{FromID: 2})) {
		t.Fatal("expected listed user to match")
	}
	if f.Check(messageEvent(types.Message{FromID: 4})) {
		t.Fatal("expected unlisted user to be rejected")
	}
}

func TestContentTypeFilter(t *testing.T) {
	t.Parallel()

	photo := types.Attachment{Type: "photo"}
	sticker := types.Attachment{Type: "sticker"}

	tests := []struct {
		name        string
		contentType string
		msg         types.Message
		want        bool
	}{
		{"text present", filters.ContentText, types.Message{Text: "hi"}, true},
		{"text blank", filters.ContentText, types.Message{Text: "   "}, false},
		{"any attachment", filters.ContentAttachment, types.Message{Attachments: []types.Attachment{photo}}, true},
		{"no attachment", filters.ContentAttachment, types.Message{Text: "hi"}, false},
		{"photo present", filters.ContentPhoto, types.Message{Attachments: []types.Attachment{sticker, photo}}, true},
		{"photo absent", filters.ContentPhoto, types.Message{Attachments: []types.Attachment{sticker}}, false},
		{"sticker present", filters.ContentSticker, types.Message{Attachments: []types.Attachment{sticker}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filters.ContentType(tt.contentType).Check(messageEvent(tt.msg))
			if got != tt.want {
				t.Fatalf("ContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

// spyFilter records whether it was evaluated.
type spyFilter struct {
	result  bool
	checked bool
}

func (f *spyFilter) Check(types.Event) bool {
	f.checked = true
	return f.result
}

func TestCombinators(t *testing.T) {
	t.Parallel()

	event := messageEvent(types.Message{Text: "x"})

	tests := []struct {
		name   string
		filter filters.Filter
		want   bool
	}{
		{"and all true", filters.And(&spyFilter{result: true}, &spyFilter{result: true}), true},
		{"and one false", filters.And(&spyFilter{result: true}, &spyFilter{result: false}), false},
		{"and empty", filters.And(), true},
		{"or one true", filters.Or(&spyFilter{result: false}, &spyFilter{result: true}), true},
		{"or all false", filters.Or(&spyFilter{result: false}, &spyFilter{result: false}), false},
		{"or empty", filters.Or(), false},
		{"not true", filters.Not(&spyFilter{result: true}), false},
		{"not false", filters.Not(&spyFilter{result: false}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Check(event); got != tt.want {
				t.Fatalf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCombinatorsEvaluateEveryChild(t *testing.T) {
	t.Parallel()

	event := messageEvent(types.Message{Text: "x"})

	first := &spyFilter{result: false}
	second := &spyFilter{result: true}
	filters.And(first, second).Check(event)
	if !second.checked {
		t.Fatal("expected And to evaluate the second child after a false first child")
	}

	first = &spyFilter{result: true}
	second = &spyFilter{result: false}
	filters.Or(first, second).Check(event)
	if !second.checked {
		t.Fatal("expected Or to evaluate the second child after a true first child")
	}
}

func TestMessageFiltersRejectNonMessageEvents(t *testing.T) {
	t.Parallel()

	event := updateEvent(types.UpdateMessageEvent)

	predicates := []filters.Filter{
		filters.Command("start"),
		filters.Text("hello"),
		filters.TextMatching(regexp.MustCompile(`.`)),
		filters.ChatType(filters.ChatPrivate),
		filters.Users(1),
		filters.ContentType(filters.ContentText),
	}
	for i, f := range predicates {
		if f.Check(event) {
			t.Fatalf("predicate %d matched a non-message event", i)
		}
	}
}
