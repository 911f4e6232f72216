// Package analysis aggregates a full interview transcript into a scored
// structured analysis. The generative model is asked for the complete result
// in one shot; whatever it fails to supply is backfilled field by field from
// the deterministic heuristics, and if the call fails outright the entire
// result is produced heuristically with a lowered confidence ceiling.
package analysis

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"

	"github.com/crafty-arl/etherith/internal/ai"
	"github.com/crafty-arl/etherith/internal/conversation"
	"github.com/crafty-arl/etherith/internal/heuristics"
	"github.com/crafty-arl/etherith/internal/lexicon"
	"github.com/crafty-arl/etherith/internal/logger"
)

//go:embed analysis_prompt.tmpl
var analysisPromptTemplate string

var analysisTmpl = template.Must(template.New("analysis").Parse(analysisPromptTemplate))

const (
	defaultSignificanceScore   = 0.7
	defaultConversationQuality = 0.8
	defaultConfidenceScore     = 0.75

	// fallbackConfidenceCeiling caps confidence when the result was produced
	// without the model, signaling reduced certainty downstream.
	fallbackConfidenceCeiling = 0.6
	fallbackQuality           = 0.5
)

// analysisSchema mirrors the JSON object requested from the model. Kept
// separate from conversation.AnalysisResult so prompt shape and engine shape
// can drift independently.
type analysisSchema struct {
	CulturalElements          []string `json:"culturalElements"`
	EmotionalSignificance     string   `json:"emotionalSignificance"`
	CulturalPractices         []string `json:"culturalPractices"`
	PeopleIdentified          []string `json:"peopleIdentified"`
	LocationContext           string   `json:"locationContext"`
	TemporalContext           string   `json:"temporalContext"`
	CulturalSignificanceScore float64  `json:"culturalSignificanceScore"`
	SuggestedTags             []string `json:"suggestedTags"`
	Metadata                  struct {
		Title            string   `json:"title"`
		Category         string   `json:"category"`
		CulturalHeritage []string `json:"culturalHeritage"`
	} `json:"metadata"`
	ActiveListeningInsights string  `json:"activeListeningInsights"`
	ConversationQuality     float64 `json:"conversationQuality"`
	ConfidenceScore         float64 `json:"confidenceScore"`
}

// Analyzer holds no per-session state and is safe for concurrent use.
type Analyzer struct {
	sender          ai.MessageSender
	model           anthropic.Model
	maxOutputTokens int64
	timeout         time.Duration
	lex             *lexicon.Lexicon
	log             *logger.Logger
}

func NewAnalyzer(
	sender ai.MessageSender,
	model anthropic.Model,
	maxOutputTokens int64,
	timeout time.Duration,
	lex *lexicon.Lexicon,
	log *logger.Logger,
) *Analyzer {
	if log == nil {
		log = logger.NewNop()
	}
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Analyzer{
		sender:          sender,
		model:           model,
		maxOutputTokens: maxOutputTokens,
		timeout:         timeout,
		lex:             lex,
		log:             log,
	}
}

// Analyze produces a complete AnalysisResult and a human-readable conclusion
// message for the given transcript. It never fails: an empty history, a dead
// model, or unparsable model output all resolve to the deterministic path.
func (a *Analyzer) Analyze(ctx context.Context, turns []conversation.Turn) (conversation.AnalysisResult, string) {
	baseline := a.heuristicResult(turns)

	payload, err := a.requestAnalysis(ctx, turns)
	if err != nil {
		a.log.Warn("analysis fell back to deterministic extraction", "error", err)
		return baseline, RenderConclusion(baseline)
	}

	result := mergeModelAnalysis(payload, baseline)
	return result, RenderConclusion(result)
}

func (a *Analyzer) requestAnalysis(ctx context.Context, turns []conversation.Turn) (gjson.Result, error) {
	if a.sender == nil {
		return gjson.Result{}, fmt.Errorf("no model sender configured")
	}

	schema, err := ai.ResponseSchema[analysisSchema]()
	if err != nil {
		return gjson.Result{}, err
	}

	data := struct {
		Transcript string
		Schema     string
	}{
		Transcript: conversation.Transcript(turns),
		Schema:     schema,
	}
	var buf bytes.Buffer
	if err := analysisTmpl.Execute(&buf, data); err != nil {
		return gjson.Result{}, fmt.Errorf("failed to execute analysis prompt template: %w", err)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxOutputTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buf.String())),
		},
	}

	// One attempt only, mirroring the question generator.
	response, err := a.sender.SendMessage(ctx, params)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("model call failed: %w", err)
	}

	text, ok := ai.JSONPayload(ai.ResponseText(response))
	if !ok || !gjson.Valid(text) {
		return gjson.Result{}, fmt.Errorf("model output is not a JSON object")
	}
	return gjson.Parse(text), nil
}

// mergeModelAnalysis accepts partial model output, defaulting every absent or
// malformed field individually. List and string defaults come from the
// heuristic baseline; score defaults are fixed.
func mergeModelAnalysis(root gjson.Result, baseline conversation.AnalysisResult) conversation.AnalysisResult {
	return conversation.AnalysisResult{
		CulturalElements:          stringList(root.Get("culturalElements"), baseline.CulturalElements),
		EmotionalSignificance:     stringField(root.Get("emotionalSignificance"), baseline.EmotionalSignificance),
		CulturalPractices:         stringList(root.Get("culturalPractices"), baseline.CulturalPractices),
		PeopleIdentified:          stringList(root.Get("peopleIdentified"), baseline.PeopleIdentified),
		LocationContext:           stringField(root.Get("locationContext"), baseline.LocationContext),
		TemporalContext:           stringField(root.Get("temporalContext"), baseline.TemporalContext),
		CulturalSignificanceScore: scoreField(root.Get("culturalSignificanceScore"), defaultSignificanceScore),
		SuggestedTags:             stringList(root.Get("suggestedTags"), baseline.SuggestedTags),
		Metadata: conversation.AnalysisMetadata{
			Title:            stringField(root.Get("metadata.title"), baseline.Metadata.Title),
			Category:         stringField(root.Get("metadata.category"), baseline.Metadata.Category),
			CulturalHeritage: stringList(root.Get("metadata.culturalHeritage"), baseline.Metadata.CulturalHeritage),
		},
		ActiveListeningInsights: stringField(root.Get("activeListeningInsights"), baseline.ActiveListeningInsights),
		ConversationQuality:     scoreField(root.Get("conversationQuality"), defaultConversationQuality),
		ConfidenceScore:         scoreField(root.Get("confidenceScore"), defaultConfidenceScore),
	}
}

// heuristicResult runs the deterministic extractors over all user-authored
// turns. It serves both as the total-failure fallback and as the source of
// per-field defaults when the model returns a partial object.
func (a *Analyzer) heuristicResult(turns []conversation.Turn) conversation.AnalysisResult {
	text := conversation.JoinUserContent(turns)

	cues := heuristics.ExtractCulturalCues(a.lex, text)
	emotion := heuristics.ClassifyEmotion(a.lex, text)
	people := heuristics.ExtractPeople(a.lex, text)
	location := heuristics.ExtractLocation(a.lex, text)
	temporal := heuristics.ExtractTemporalContext(a.lex, text)
	practices := heuristics.ExtractPractices(a.lex, text)
	score := heuristics.SignificanceScore(cues)

	confidence := 0.4 + 0.05*float64(len(cues))
	if confidence > fallbackConfidenceCeiling {
		confidence = fallbackConfidenceCeiling
	}

	if cues == nil {
		cues = []string{}
	}
	if people == nil {
		people = []string{}
	}
	if practices == nil {
		practices = []string{}
	}

	return conversation.AnalysisResult{
		CulturalElements:          cues,
		EmotionalSignificance:     emotionalSignificance(emotion),
		CulturalPractices:         practices,
		PeopleIdentified:          people,
		LocationContext:           location,
		TemporalContext:           temporal,
		CulturalSignificanceScore: score,
		SuggestedTags:             heuristics.GenerateTags(cues, practices, people, emotion),
		Metadata: conversation.AnalysisMetadata{
			Title:            heuristics.GenerateTitle(people, cues),
			Category:         heuristics.DetermineCategory(cues, practices),
			CulturalHeritage: cues,
		},
		ActiveListeningInsights: "The speaker shared this memory openly; the themes above were drawn directly from their own words.",
		ConversationQuality:     fallbackQuality,
		ConfidenceScore:         confidence,
	}
}

func emotionalSignificance(emotion string) string {
	if emotion == "" {
		return "This memory holds deep personal meaning for the speaker."
	}
	return fmt.Sprintf("This memory carries a strong sense of %s for the speaker.", emotion)
}

func stringField(v gjson.Result, def string) string {
	if v.Type == gjson.String && v.Str != "" {
		return v.Str
	}
	return def
}

func stringList(v gjson.Result, def []string) []string {
	if !v.IsArray() {
		return nonNil(def)
	}
	out := []string{}
	for _, el := range v.Array() {
		if el.Type == gjson.String && el.Str != "" {
			out = append(out, el.Str)
		}
	}
	if len(out) == 0 {
		return nonNil(def)
	}
	return out
}

func scoreField(v gjson.Result, def float64) float64 {
	if v.Type != gjson.Number {
		return def
	}
	score := v.Num
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
