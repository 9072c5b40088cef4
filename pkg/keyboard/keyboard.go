// Package keyboard builds the keyboard JSON attached to outbound messages.
package keyboard

import "encoding/json"

type ButtonColor string

const (
	ColorPrimary   ButtonColor = "primary"
	ColorSecondary ButtonColor = "secondary"
	ColorNegative  ButtonColor = "negative"
	ColorPositive  ButtonColor = "positive"
)

type Button struct {
	Label   string
	Color   ButtonColor
	Payload map[string]interface{}
}

func NewButton(label string, color ButtonColor) Button {
	return Button{Label: label, Color: color}
}

func (b Button) WithPayload(payload map[string]interface{}) Button {
	b.Payload = payload
	return b
}

type buttonAction struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Payload string `json:"payload,omitempty"`
}

type wireButton struct {
	Action buttonAction `json:"action"`
	Color  string       `json:"color"`
}

func (b Button) wire() wireButton {
	color := b.Color
	if color == "" {
		color = ColorPrimary
	}

	var payload string
	if len(b.Payload) > 0 {
		if data, err := json.Marshal(b.Payload); err == nil {
			payload = string(data)
		}
	}
	return wireButton{
		Action: buttonAction{
			Type:    "text",
			Label:   b.Label,
			Payload: payload,
		},
		Color: string(color),
	}
}

type Keyboard struct {
	oneTime bool
	inline  bool
	rows    [][]Button
}

func New(oneTime, inline bool) *Keyboard {
	return &Keyboard{oneTime: oneTime, inline: inline}
}

// Row appends buttons as a new row and returns the keyboard for chaining.
func (k *Keyboard) Row(buttons ...Button) *Keyboard {
	k.rows = append(k.rows, buttons)
	return k
}

func (k *Keyboard) JSON() (string, error) {
	rows := make([][]wireButton, 0, len(k.rows))
	for _, row := range k.rows {
		wireRow := make([]wireButton, 0, len(row))
		for _, button := range row {
			wireRow = append(wireRow, button.wire())
		}
		rows = append(rows, wireRow)
	}

	data, err := json.Marshal(struct {
		OneTime bool           `json:"one_time"`
		Inline  bool           `json:"inline"`
		Buttons [][]wireButton `json:"buttons"`
	}{
		OneTime: k.oneTime,
		Inline:  k.inline,
		Buttons: rows,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// QuickReply builds a one-time keyboard with one primary button per row.
func QuickReply(labels ...string) *Keyboard {
	kb := New(true, false)
	for _, label := range labels {
		kb.Row(NewButton(label, ColorPrimary))
	}
	return kb
}

// InlineGrid builds an inline keyboard from a grid of labels, cycling colors
// across each row.
func InlineGrid(labels [][]string, colors []ButtonColor) *Keyboard {
	if len(colors) == 0 {
		colors = []ButtonColor{ColorPrimary, ColorSecondary, ColorPositive, ColorNegative}
	}

	kb := New(false, true)
	for _, row := range labels {
		buttons := make([]Button, 0, len(row))
		for i, label := range row {
			buttons = append(buttons, NewButton(label, colors[i%len(colors)]))
		}
		kb.Row(buttons...)
	}
	return kb
}
