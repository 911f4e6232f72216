package interview

import (
	"context"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crafty-arl/etherith/internal/conversation"
	"github.com/crafty-arl/etherith/internal/lexicon"
	"github.com/crafty-arl/etherith/internal/logger"
)

// stubSender returns a fixed response or error without touching the network
type stubSender struct {
	response anthropic.Message
	err      error
	calls    int
}

func (s *stubSender) SendMessage(_ context.Context, _ anthropic.MessageNewParams, _ ...option.RequestOption) (anthropic.Message, error) {
	s.calls++
	return s.response, s.err
}

func textMessage(text string) anthropic.Message {
	return anthropic.Message{
		Content:    []anthropic.ContentBlockUnion{{Type: "text", Text: text}},
		StopReason: anthropic.StopReasonEndTurn,
	}
}

func newTestGenerator(sender *stubSender) *Generator {
	g := NewGenerator(sender, anthropic.ModelClaude3_5HaikuLatest, 1024, 0, lexicon.Default(), logger.NewNop())
	// Pin fallback selection to the first pool entry
	g.SetPicker(func(int) int { return 0 })
	return g
}

func TestGenerate_ValidModelResponse(t *testing.T) {
	sender := &stubSender{response: textMessage(`{
		"question": "What did the bread smell like?",
		"followUpReason": "Sensory detail deepens the memory.",
		"emotionalTone": "nostalgia",
		"culturalCues": ["tradition"],
		"stage": 2
	}`)}
	g := newTestGenerator(sender)

	q := g.Generate(context.Background(), 2, "My grandmother baked bread.", nil)

	assert.Equal(t, "What did the bread smell like?", q.Question)
	assert.Equal(t, "Sensory detail deepens the memory.", q.FollowUpReason)
	assert.Equal(t, "nostalgia", q.EmotionalTone)
	assert.Equal(t, []string{"tradition"}, q.CulturalCues)
	assert.Equal(t, 2, q.Stage)
	assert.Equal(t, 1, sender.calls)
}

func TestGenerate_ModelStageIsOverridden(t *testing.T) {
	// The model miscounts the stage; the engine-assigned stage wins
	sender := &stubSender{response: textMessage(`{
		"question": "Why?",
		"followUpReason": "r",
		"emotionalTone": "joy",
		"culturalCues": [],
		"stage": 7
	}`)}
	g := newTestGenerator(sender)

	q := g.Generate(context.Background(), 3, "content", nil)

	assert.Equal(t, 3, q.Stage)
}

func TestGenerate_ResponseWrappedInProse(t *testing.T) {
	sender := &stubSender{response: textMessage("Here is the question:\n```json\n" +
		`{"question":"Q?","followUpReason":"r","emotionalTone":"joy","culturalCues":[],"stage":1}` +
		"\n```")}
	g := newTestGenerator(sender)

	q := g.Generate(context.Background(), 1, "content", nil)

	assert.Equal(t, "Q?", q.Question)
}

func TestGenerate_SenderErrorFallsBackToPool(t *testing.T) {
	sender := &stubSender{err: fmt.Errorf("model unavailable")}
	g := newTestGenerator(sender)

	q := g.Generate(context.Background(), 1, "Our family tradition of baking.", nil)

	assert.Equal(t, questionPool[1][0].question, q.Question)
	assert.Equal(t, questionPool[1][0].reason, q.FollowUpReason)
	assert.Equal(t, 1, q.Stage)
	assert.NotEmpty(t, q.Question)
}

func TestGenerate_NilSenderFallsBackToPool(t *testing.T) {
	g := NewGenerator(nil, anthropic.ModelClaude3_5HaikuLatest, 1024, 0, lexicon.Default(), logger.NewNop())
	g.SetPicker(func(int) int { return 2 })

	q := g.Generate(context.Background(), 3, "plain text", nil)

	assert.Equal(t, questionPool[3][2].question, q.Question)
	assert.Equal(t, 3, q.Stage)
}

func TestGenerate_InvalidJSONFallsBack(t *testing.T) {
	sender := &stubSender{response: textMessage("I'm sorry, I can't answer that.")}
	g := newTestGenerator(sender)

	q := g.Generate(context.Background(), 2, "content", nil)

	assert.Equal(t, questionPool[2][0].question, q.Question)
}

func TestFallback_AnnotatesFromUtterance(t *testing.T) {
	g := newTestGenerator(&stubSender{})

	q := g.Fallback(2, "I remember our family tradition with such happy feelings.")

	// "happy" matches joy, declared before nostalgia's "remember"
	assert.Equal(t, "joy", q.EmotionalTone)
	assert.Equal(t, []string{"tradition", "family"}, q.CulturalCues)
}

func TestFallback_GenericAnnotationsForPlainText(t *testing.T) {
	g := newTestGenerator(&stubSender{})

	q := g.Fallback(1, "nothing cultural at all")

	assert.Equal(t, "reflective", q.EmotionalTone)
	assert.Empty(t, q.CulturalCues)
	assert.NotNil(t, q.CulturalCues)
}

func TestFallback_ClampsStage(t *testing.T) {
	g := newTestGenerator(&stubSender{})

	assert.Equal(t, 1, g.Fallback(0, "").Stage)
	assert.Equal(t, conversation.TotalStages, g.Fallback(9, "").Stage)
}

func TestFallback_UniformSelectionIsInjectable(t *testing.T) {
	g := newTestGenerator(&stubSender{})

	for i := 0; i < 3; i++ {
		i := i
		g.SetPicker(func(n int) int {
			require.Equal(t, 3, n)
			return i
		})
		q := g.Fallback(2, "")
		assert.Equal(t, questionPool[2][i].question, q.Question)
	}
}

func TestParseQuestion_MissingKeyRejected(t *testing.T) {
	cases := map[string]string{
		"no question":       `{"followUpReason":"r","emotionalTone":"joy","culturalCues":[],"stage":1}`,
		"no followUpReason": `{"question":"Q?","emotionalTone":"joy","culturalCues":[],"stage":1}`,
		"no emotionalTone":  `{"question":"Q?","followUpReason":"r","culturalCues":[],"stage":1}`,
		"no culturalCues":   `{"question":"Q?","followUpReason":"r","emotionalTone":"joy","stage":1}`,
		"no stage":          `{"question":"Q?","followUpReason":"r","emotionalTone":"joy","culturalCues":[]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseQuestion(payload, 1)
			require.Error(t, err)
		})
	}
}

func TestParseQuestion_WrongTypesRejected(t *testing.T) {
	cases := map[string]string{
		"question not string":  `{"question":42,"followUpReason":"r","emotionalTone":"joy","culturalCues":[],"stage":1}`,
		"cues not array":       `{"question":"Q?","followUpReason":"r","emotionalTone":"joy","culturalCues":"tradition","stage":1}`,
		"cues mixed elements":  `{"question":"Q?","followUpReason":"r","emotionalTone":"joy","culturalCues":["a",1],"stage":1}`,
		"stage not number":     `{"question":"Q?","followUpReason":"r","emotionalTone":"joy","culturalCues":[],"stage":"one"}`,
		"tone not string":      `{"question":"Q?","followUpReason":"r","emotionalTone":[],"culturalCues":[],"stage":1}`,
		"not an object at all": `"just a string"`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseQuestion(payload, 1)
			require.Error(t, err)
		})
	}
}
