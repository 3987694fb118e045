package llms

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// part types on the wire
const (
	partTypeText         = "text"
	partTypeToolCall     = "tool_call"
	partTypeToolResponse = "tool_response"
)

// contentPartJSON is the polymorphic JSON form of a ContentPart.
type contentPartJSON struct {
	Type         string            `json:"type"`
	Text         string            `json:"text,omitempty"`
	ToolCall     *ToolCall         `json:"tool_call,omitempty"`
	ToolResponse *ToolCallResponse `json:"tool_response,omitempty"`
}

type messageJSON struct {
	Role  Role              `json:"role"`
	Text  string            `json:"text,omitempty"`
	Parts []contentPartJSON `json:"parts,omitempty"`
}

// MarshalJSON implements json.Marshaler for Message.
// A message with a single text part is written in the compact form
// {"role":"human","text":"..."}.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Parts) == 1 {
		if tp, ok := m.Parts[0].(TextContent); ok {
			return json.Marshal(messageJSON{Role: m.Role, Text: tp.Text})
		}
	}

	js := messageJSON{
		Role:  m.Role,
		Parts: make([]contentPartJSON, 0, len(m.Parts)),
	}
	for _, p := range m.Parts {
		switch pp := p.(type) {
		case TextContent:
			js.Parts = append(js.Parts, contentPartJSON{Type: partTypeText, Text: pp.Text})
		case ToolCall:
			tc := pp
			js.Parts = append(js.Parts, contentPartJSON{Type: partTypeToolCall, ToolCall: &tc})
		case ToolCallResponse:
			tr := pp
			js.Parts = append(js.Parts, contentPartJSON{Type: partTypeToolResponse, ToolResponse: &tr})
		default:
			return nil, errors.Errorf("unsupported content part type: %T", p)
		}
	}
	return json.Marshal(js)
}

// UnmarshalJSON implements json.Unmarshaler for Message.
func (m *Message) UnmarshalJSON(data []byte) error {
	var js messageJSON
	if err := json.Unmarshal(data, &js); err != nil {
		return errors.Wrap(err, "failed to unmarshal message")
	}

	m.Role = js.Role
	m.Parts = nil
	if js.Text != "" {
		m.Parts = []ContentPart{TextContent{Text: js.Text}}
		return nil
	}

	for _, p := range js.Parts {
		switch p.Type {
		case partTypeText:
			m.Parts = append(m.Parts, TextContent{Text: p.Text})
		case partTypeToolCall:
			if p.ToolCall == nil {
				return errors.New("tool_call part without payload")
			}
			m.Parts = append(m.Parts, *p.ToolCall)
		case partTypeToolResponse:
			if p.ToolResponse == nil {
				return errors.New("tool_response part without payload")
			}
			m.Parts = append(m.Parts, *p.ToolResponse)
		default:
			return errors.Errorf("unknown content part type: %q", p.Type)
		}
	}
	return nil
}
