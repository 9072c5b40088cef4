package vkapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AttachmentRef identifies an already-uploaded media object for outbound
// messages.
type AttachmentRef struct {
	Type      string
	OwnerID   int64
	MediaID   int64
	AccessKey string
}

func (a AttachmentRef) String() string {
	if a.Type == "" || a.OwnerID == 0 || a.MediaID == 0 {
		return ""
	}
	s := fmt.Sprintf("%s%d_%d", a.Type, a.OwnerID, a.MediaID)
	if a.AccessKey != "" {
		s += "_" + a.AccessKey
	}
	return s
}

// PrepareAttachments renders refs into the comma-separated attachment
// parameter format. Incomplete refs are skipped.
func PrepareAttachments(refs []AttachmentRef) string {
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		if s := ref.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ",")
}

// BuildPayload encodes key/value pairs into a message payload string.
func BuildPayload(values map[string]interface{}) string {
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}

// ParsePayload decodes a message payload string. A missing or malformed
// payload yields an empty map, never an error.
func ParsePayload(payload string) map[string]interface{} {
	if payload == "" {
		return map[string]interface{}{}
	}
	var values map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return map[string]interface{}{}
	}
	return values
}
