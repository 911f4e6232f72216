// Package engine is the top-level orchestrator of the active-listening
// interview: a fixed three-stage state machine over caller-supplied history.
// The engine holds no session state of its own; every call reconstructs the
// session from the queryId and turn history in the request, so arbitrarily
// many interviews can run concurrently with no coordination.
package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/crafty-arl/etherith/internal/analysis"
	"github.com/crafty-arl/etherith/internal/conversation"
	"github.com/crafty-arl/etherith/internal/interview"
	"github.com/crafty-arl/etherith/internal/logger"
)

var tracer = otel.Tracer("github.com/crafty-arl/etherith/internal/engine")

// Validation errors surfaced to the caller. Everything else the engine
// encounters is recovered internally.
var (
	ErrContentRequired = errors.New("content is required")
	ErrQueryIDRequired = errors.New("queryId is required")
)

// Listen response statuses.
const (
	StatusContinue         = "continue"
	StatusReadyForAnalysis = "ready_for_analysis"
)

// Engine exposes the three interview operations. Safe for concurrent use.
type Engine struct {
	questions *interview.Generator
	analyzer  *analysis.Analyzer
	log       *logger.Logger
	newID     func() string
}

func New(questions *interview.Generator, analyzer *analysis.Analyzer, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		questions: questions,
		analyzer:  analyzer,
		log:       log,
		newID:     uuid.NewString,
	}
}

// StartResponse is the externally visible shape of a freshly opened
// interview.
type StartResponse struct {
	QueryID        string   `json:"queryId"`
	Stage          int      `json:"stage"`
	TotalStages    int      `json:"totalStages"`
	Question       string   `json:"question"`
	FollowUpReason string   `json:"followUpReason"`
	EmotionalTone  string   `json:"emotionalTone"`
	CulturalCues   []string `json:"culturalCues"`
}

// ListenResponse either continues the interview with the next question or
// signals that all stages are complete.
type ListenResponse struct {
	Status         string   `json:"status"`
	Stage          int      `json:"stage"`
	Question       string   `json:"question,omitempty"`
	FollowUpReason string   `json:"followUpReason,omitempty"`
	EmotionalTone  string   `json:"emotionalTone,omitempty"`
	CulturalCues   []string `json:"culturalCues,omitempty"`
}

// AnalyzeResponse pairs the structured analysis with its human-readable
// conclusion message.
type AnalyzeResponse struct {
	Analysis conversation.AnalysisResult `json:"analysis"`
	Message  string                      `json:"message"`
}

// Start opens an interview around the user's initial memory and returns the
// stage-1 question. The queryId is generated when the caller supplies none.
// Start fails only on missing content; model unavailability resolves to a
// canned question.
func (e *Engine) Start(ctx context.Context, content, userID, queryID string) (StartResponse, error) {
	ctx, span := tracer.Start(ctx, "engine.start")
	defer span.End()

	if content == "" {
		return StartResponse{}, ErrContentRequired
	}
	if queryID == "" {
		queryID = e.newID()
	}
	span.SetAttributes(attribute.String("interview.query_id", queryID))

	e.log.Info("interview started", "queryId", queryID, "userId", userID)

	q := e.questions.Generate(ctx, 1, content, nil)
	q = e.ensureQuestion(q, 1, content)

	return StartResponse{
		QueryID:        queryID,
		Stage:          q.Stage,
		TotalStages:    conversation.TotalStages,
		Question:       q.Question,
		FollowUpReason: q.FollowUpReason,
		EmotionalTone:  q.EmotionalTone,
		CulturalCues:   q.CulturalCues,
	}, nil
}

// Listen advances the interview one stage. The current stage is derived by
// counting AI turns in the caller-supplied history that carry a stage marker;
// once three stages have been asked, Listen reports ready_for_analysis
// instead of producing another question.
func (e *Engine) Listen(ctx context.Context, queryID, content string, history []conversation.Turn) (ListenResponse, error) {
	ctx, span := tracer.Start(ctx, "engine.listen")
	defer span.End()

	if queryID == "" {
		return ListenResponse{}, ErrQueryIDRequired
	}
	if content == "" {
		return ListenResponse{}, ErrContentRequired
	}
	span.SetAttributes(attribute.String("interview.query_id", queryID))

	currentStage := conversation.CountAIStages(history)
	span.SetAttributes(attribute.Int("interview.current_stage", currentStage))

	if currentStage >= conversation.TotalStages {
		e.log.Info("interview ready for analysis", "queryId", queryID, "stagesCompleted", currentStage)
		return ListenResponse{
			Status: StatusReadyForAnalysis,
			Stage:  conversation.TotalStages + 1,
		}, nil
	}

	q := e.questions.Generate(ctx, currentStage+1, content, history)
	q = e.ensureQuestion(q, currentStage+1, content)

	return ListenResponse{
		Status:         StatusContinue,
		Stage:          q.Stage,
		Question:       q.Question,
		FollowUpReason: q.FollowUpReason,
		EmotionalTone:  q.EmotionalTone,
		CulturalCues:   q.CulturalCues,
	}, nil
}

// Analyze runs the final analysis over the full history. It never fails for
// an analyzable reason: an empty history or a dead model still produces a
// structurally complete result.
func (e *Engine) Analyze(ctx context.Context, queryID string, history []conversation.Turn) (AnalyzeResponse, error) {
	ctx, span := tracer.Start(ctx, "engine.analyze")
	defer span.End()

	if queryID == "" {
		return AnalyzeResponse{}, ErrQueryIDRequired
	}
	span.SetAttributes(
		attribute.String("interview.query_id", queryID),
		attribute.Int("interview.turns", len(history)),
	)

	result, message := e.analyzer.Analyze(ctx, history)
	e.log.Info("interview analyzed",
		"queryId", queryID,
		"significance", result.CulturalSignificanceScore,
		"confidence", result.ConfidenceScore,
	)

	return AnalyzeResponse{Analysis: result, Message: message}, nil
}

// ensureQuestion guards against a generator response that matches no known
// shape. The conversation must never dead-end, so an empty or out-of-range
// question is replaced with a synthesized stage-appropriate one.
func (e *Engine) ensureQuestion(q conversation.QuestionResult, stage int, latest string) conversation.QuestionResult {
	if q.Question != "" && q.Stage >= 1 && q.Stage <= conversation.TotalStages {
		return q
	}
	e.log.Warn("question generator returned unrecognized shape, synthesizing fallback", "stage", stage)
	return e.questions.Fallback(stage, latest)
}

// SessionStatus derives the externally visible status of a session from its
// history. Used by collaborators that display progress; the engine itself
// never stores it.
func SessionStatus(history []conversation.Turn) conversation.SessionStatus {
	for _, t := range history {
		if t.MessageType == conversation.MessageAnalysis {
			return conversation.StatusCompleted
		}
	}
	switch n := conversation.CountAIStages(history); {
	case len(history) == 0:
		return conversation.StatusInitial
	case n >= conversation.TotalStages:
		return conversation.StatusReadyForAnalysis
	default:
		return conversation.StatusListening
	}
}
