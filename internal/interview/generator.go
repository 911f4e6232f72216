// Package interview generates stage-appropriate follow-up questions for the
// three-phase memory interview. Each stage carries a distinct thematic focus
// in the prompt sent to the generative model; when the model is unreachable
// or its answer fails the question contract, a canned stage-indexed question
// is selected instead so the conversation can never dead-end.
package interview

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"text/template"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/crafty-arl/etherith/internal/ai"
	"github.com/crafty-arl/etherith/internal/conversation"
	"github.com/crafty-arl/etherith/internal/heuristics"
	"github.com/crafty-arl/etherith/internal/lexicon"
	"github.com/crafty-arl/etherith/internal/logger"
)

//go:embed system_prompt.md
var systemPrompt string

//go:embed question_prompt.tmpl
var questionPromptTemplate string

var questionTmpl = template.Must(template.New("question").Parse(questionPromptTemplate))

// questionSchema mirrors the JSON object the model must return. Its schema is
// rendered into every question prompt.
type questionSchema struct {
	Question       string   `json:"question"`
	FollowUpReason string   `json:"followUpReason"`
	EmotionalTone  string   `json:"emotionalTone"`
	CulturalCues   []string `json:"culturalCues"`
	Stage          int      `json:"stage"`
}

// Generator produces one follow-up question per call. It holds no per-session
// state and is safe for concurrent use.
type Generator struct {
	sender          ai.MessageSender
	model           anthropic.Model
	maxOutputTokens int64
	timeout         time.Duration
	lex             *lexicon.Lexicon
	log             *logger.Logger
	pick            func(n int) int
}

func NewGenerator(
	sender ai.MessageSender,
	model anthropic.Model,
	maxOutputTokens int64,
	timeout time.Duration,
	lex *lexicon.Lexicon,
	log *logger.Logger,
) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Generator{
		sender:          sender,
		model:           model,
		maxOutputTokens: maxOutputTokens,
		timeout:         timeout,
		lex:             lex,
		log:             log,
		pick:            rand.IntN,
	}
}

// SetPicker replaces the fallback-question selector. Tests inject a
// deterministic picker here.
func (g *Generator) SetPicker(pick func(n int) int) {
	g.pick = pick
}

// Generate asks the model for a stage-appropriate follow-up question. Any
// failure along the way, including a response that does not satisfy the
// question contract, resolves to a canned question for the stage. Generate
// never fails.
func (g *Generator) Generate(ctx context.Context, stage int, latest string, prior []conversation.Turn) conversation.QuestionResult {
	q, err := g.generate(ctx, stage, latest, prior)
	if err != nil {
		g.log.Warn("question generation fell back to canned pool", "stage", stage, "error", err)
		return g.Fallback(stage, latest)
	}
	return q
}

func (g *Generator) generate(ctx context.Context, stage int, latest string, prior []conversation.Turn) (conversation.QuestionResult, error) {
	if g.sender == nil {
		return conversation.QuestionResult{}, fmt.Errorf("no model sender configured")
	}

	prompt, err := buildQuestionPrompt(stage, latest, prior)
	if err != nil {
		return conversation.QuestionResult{}, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxOutputTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	// One attempt only. Retrying would stack latency on top of the caller's
	// timeout, and the canned pool is always available.
	response, err := g.sender.SendMessage(ctx, params)
	if err != nil {
		return conversation.QuestionResult{}, fmt.Errorf("model call failed: %w", err)
	}

	return parseQuestion(ai.ResponseText(response), stage)
}

// Fallback returns a canned question for the stage, annotated with tone and
// cues extracted deterministically from the latest user utterance.
func (g *Generator) Fallback(stage int, latest string) conversation.QuestionResult {
	if stage < 1 {
		stage = 1
	}
	if stage > conversation.TotalStages {
		stage = conversation.TotalStages
	}

	pool := questionPool[stage]
	chosen := pool[g.pick(len(pool))]

	tone := heuristics.ClassifyEmotion(g.lex, latest)
	if tone == "" {
		tone = "reflective"
	}
	cues := heuristics.ExtractCulturalCues(g.lex, latest)
	if cues == nil {
		cues = []string{}
	}

	return conversation.QuestionResult{
		Question:       chosen.question,
		FollowUpReason: chosen.reason,
		EmotionalTone:  tone,
		CulturalCues:   cues,
		Stage:          stage,
	}
}

func buildQuestionPrompt(stage int, latest string, prior []conversation.Turn) (string, error) {
	schema, err := ai.ResponseSchema[questionSchema]()
	if err != nil {
		return "", err
	}

	data := struct {
		Stage       int
		TotalStages int
		Focus       string
		Transcript  string
		Latest      string
		Schema      string
	}{
		Stage:       stage,
		TotalStages: conversation.TotalStages,
		Focus:       stageFocus[stage],
		Transcript:  conversation.Transcript(prior),
		Latest:      latest,
		Schema:      schema,
	}

	var buf bytes.Buffer
	if err := questionTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute question prompt template: %w", err)
	}
	return buf.String(), nil
}
