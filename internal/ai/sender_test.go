package ai

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestResponseText_ConcatenatesTextBlocks(t *testing.T) {
	msg := anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "hello "},
			{Type: "text", Text: "world"},
		},
	}

	assert.Equal(t, "hello world", ResponseText(msg))
}

func TestResponseText_Empty(t *testing.T) {
	assert.Equal(t, "", ResponseText(anthropic.Message{}))
}

func TestResponseText_DecodedMessage(t *testing.T) {
	// Messages that arrive over the wire are JSON-decoded rather than
	// constructed. Extraction must behave the same for both.
	wire := `{
		"content": [
			{"type": "text", "text": "hello "},
			{"type": "tool_use", "id": "t1", "name": "noop", "input": {}},
			{"type": "text", "text": "world"}
		],
		"stop_reason": "end_turn"
	}`
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(wire), &msg))

	assert.Equal(t, "hello world", ResponseText(msg))
}

func TestResponseText_SkipsNonTextBlocks(t *testing.T) {
	msg := anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "tool_use", ID: "t1", Name: "noop"},
			{Type: "text", Text: "only this"},
		},
	}

	assert.Equal(t, "only this", ResponseText(msg))
}

func TestJSONPayload_BareObject(t *testing.T) {
	payload, ok := JSONPayload(`{"a": 1}`)

	require.True(t, ok)
	assert.Equal(t, `{"a": 1}`, payload)
}

func TestJSONPayload_WrappedInProseAndFences(t *testing.T) {
	text := "Sure, here is the JSON you asked for:\n```json\n{\"a\": 1}\n```\nLet me know!"

	payload, ok := JSONPayload(text)

	require.True(t, ok)
	assert.Equal(t, `{"a": 1}`, payload)
	assert.True(t, gjson.Valid(payload))
}

func TestJSONPayload_NoObject(t *testing.T) {
	_, ok := JSONPayload("no braces here")

	assert.False(t, ok)
}

func TestResponseSchema_ContainsDeclaredKeys(t *testing.T) {
	type shape struct {
		Question string   `json:"question"`
		Cues     []string `json:"culturalCues"`
	}

	schema, err := ResponseSchema[shape]()

	require.NoError(t, err)
	assert.Contains(t, schema, `"question"`)
	assert.Contains(t, schema, `"culturalCues"`)
}
