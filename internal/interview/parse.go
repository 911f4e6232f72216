package interview

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/crafty-arl/etherith/internal/ai"
	"github.com/crafty-arl/etherith/internal/conversation"
)

// parseQuestion validates model output against the question contract: a JSON
// object carrying all five keys with the right types. Anything less is
// rejected, which triggers the canned-question fallback. The parsed stage is
// checked for type but the engine-assigned stage wins, so a model that
// miscounts cannot desynchronize the interview.
func parseQuestion(text string, stage int) (conversation.QuestionResult, error) {
	payload, ok := ai.JSONPayload(text)
	if !ok {
		return conversation.QuestionResult{}, fmt.Errorf("no JSON object in model output")
	}
	if !gjson.Valid(payload) {
		return conversation.QuestionResult{}, fmt.Errorf("model output is not valid JSON")
	}

	root := gjson.Parse(payload)

	question := root.Get("question")
	if question.Type != gjson.String || question.Str == "" {
		return conversation.QuestionResult{}, fmt.Errorf("missing or invalid key %q", "question")
	}
	reason := root.Get("followUpReason")
	if reason.Type != gjson.String {
		return conversation.QuestionResult{}, fmt.Errorf("missing or invalid key %q", "followUpReason")
	}
	tone := root.Get("emotionalTone")
	if tone.Type != gjson.String {
		return conversation.QuestionResult{}, fmt.Errorf("missing or invalid key %q", "emotionalTone")
	}
	if !root.Get("stage").Exists() || root.Get("stage").Type != gjson.Number {
		return conversation.QuestionResult{}, fmt.Errorf("missing or invalid key %q", "stage")
	}
	cuesField := root.Get("culturalCues")
	if !cuesField.IsArray() {
		return conversation.QuestionResult{}, fmt.Errorf("missing or invalid key %q", "culturalCues")
	}
	cues := []string{}
	for _, el := range cuesField.Array() {
		if el.Type != gjson.String {
			return conversation.QuestionResult{}, fmt.Errorf("non-string element in %q", "culturalCues")
		}
		cues = append(cues, el.Str)
	}

	return conversation.QuestionResult{
		Question:       question.Str,
		FollowUpReason: reason.Str,
		EmotionalTone:  tone.Str,
		CulturalCues:   cues,
		Stage:          stage,
	}, nil
}
