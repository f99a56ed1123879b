package domain

import "fmt"

// ChoiceOption is one selectable entry in a choice prompt.
type ChoiceOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ChoicePrompt asks the user to pick among labeled values.
type ChoicePrompt struct {
	Message string         `json:"message"`
	Options []ChoiceOption `json:"options"`
	Min     int            `json:"min"`
	Max     int            `json:"max"`
}

// FieldSpec describes one text input in a field prompt.
type FieldSpec struct {
	Label     string `json:"label"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"maxLength,omitempty"`
	Multiline bool   `json:"multiline,omitempty"`
}

// FieldPrompt collects a fixed set of text fields in one submission.
type FieldPrompt struct {
	Title  string      `json:"title"`
	Fields []FieldSpec `json:"fields"`
}

// Control is an actionable button attached to a message. Tag survives
// restarts, so a control can be re-resolved without in-memory state.
type Control struct {
	Label string `json:"label"`
	Tag   string `json:"tag"`
}

// Embed is structured message content.
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// QuestionPrompt presents one question of a run. Controls are derived from
// the question's option list alone; numbering restarts at 1 every question.
type QuestionPrompt struct {
	Index    int       `json:"index"` // 1-based position within the quiz
	Total    int       `json:"total"`
	Text     string    `json:"text"`
	ImageURL string    `json:"imageUrl,omitempty"`
	Controls []Control `json:"controls"`
}

// QuestionControls maps an option list to its answer controls.
func QuestionControls(options []string) []Control {
	controls := make([]Control, 0, len(options))
	for i, opt := range options {
		controls = append(controls, Control{
			Label: fmt.Sprintf("%d. %s", i+1, opt),
			Tag:   fmt.Sprintf("%d", i+1),
		})
	}
	return controls
}
