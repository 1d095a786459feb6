package chat

import (
	"encoding/json"
	"strings"
)

type Model string

const (
	ModelNone   Model = ""
	ModelGemini Model = "gemini"
	ModelClaude Model = "claude"
	ModelGPT    Model = "gpt"
	ModelGroq   Model = "groq"
)

const fallbackDisplayName = "🤖 AI Assistant"

// Models lists every selectable model in menu order.
var Models = []Model{ModelGemini, ModelClaude, ModelGPT, ModelGroq}

// ParseModel accepts a model identifier case-insensitively.
func ParseModel(s string) (Model, error) {
	m := Model(strings.ToLower(strings.TrimSpace(s)))
	if !m.Known() {
		return ModelNone, ErrUnknownModel
	}
	return m, nil
}

func (m Model) Known() bool {
	switch m {
	case ModelGemini, ModelClaude, ModelGPT, ModelGroq:
		return true
	}
	return false
}

// DisplayName is total: identifiers outside the enum get the generic assistant name.
func (m Model) DisplayName() string {
	switch m {
	case ModelGemini:
		return "🧠 Google Gemini"
	case ModelClaude:
		return "🤖 Anthropic Claude"
	case ModelGPT:
		return "💡 OpenAI GPT"
	case ModelGroq:
		return "⚡ Groq"
	default:
		return fallbackDisplayName
	}
}

func (m Model) String() string { return string(m) }

// MarshalJSON writes null for ModelNone so snapshots keep the "model": null shape.
func (m Model) MarshalJSON() ([]byte, error) {
	if m == ModelNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

func (m *Model) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = ModelNone
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = Model(s)
	return nil
}
