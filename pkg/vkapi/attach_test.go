package vkapi

import "testing"

func TestAttachmentRefString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  AttachmentRef
		want string
	}{
		{"plain", AttachmentRef{Type: "photo", OwnerID: -12, MediaID: 456}, "photo-12_456"},
		{"with access key", AttachmentRef{Type: "doc", OwnerID: 1, MediaID: 2, AccessKey: "k"}, "doc1_2_k"},
		{"missing type", AttachmentRef{OwnerID: 1, MediaID: 2}, ""},
		{"missing media", AttachmentRef{Type: "photo", OwnerID: 1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrepareAttachmentsSkipsIncomplete(t *testing.T) {
	t.Parallel()

	got := PrepareAttachments([]AttachmentRef{
		{Type: "photo", OwnerID: 1, MediaID: 2},
		{Type: "photo"},
		{Type: "video", OwnerID: 3, MediaID: 4},
	})
	if got != "photo1_2,video3_4" {
		t.Fatalf("PrepareAttachments() = %q", got)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	payload := BuildPayload(map[string]interface{}{"command": "start", "step": 1.0})
	values := ParsePayload(payload)
	if values["command"] != "start" {
		t.Fatalf("expected command to round-trip, got %v", values)
	}
	if values["step"] != 1.0 {
		t.Fatalf("expected step to round-trip, got %v", values)
	}
}

func TestParsePayloadMalformed(t *testing.T) {
	t.Parallel()

	if got := ParsePayload("{not json"); len(got) != 0 {
		t.Fatalf("expected empty map for malformed payload, got %v", got)
	}
	if got := ParsePayload(""); len(got) != 0 {
		t.Fatalf("expected empty map for empty payload, got %v", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()

	if got := EscapeMarkdown("a_b*c"); got != `a\_b\*c` {
		t.Fatalf("EscapeMarkdown() = %q", got)
	}
	if got := EscapeMarkdown("plain"); got != "plain" {
		t.Fatalf("EscapeMarkdown() = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		maxLength int
		suffix    string
		want      string
	}{
		{"fits", "hello", 10, "...", "hello"},
		{"cut with suffix", "hello world", 8, "...", "hello..."},
		{"suffix wider than budget", "hello", 2, "...", "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.maxLength, tt.suffix); got != tt.want {
				t.Fatalf("Truncate(%q, %d, %q) = %q, want %q", tt.text, tt.maxLength, tt.suffix, got, tt.want)
			}
		})
	}
}
