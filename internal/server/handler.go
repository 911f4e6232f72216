package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crafty-arl/etherith/internal/conversation"
	"github.com/crafty-arl/etherith/internal/engine"
	"github.com/crafty-arl/etherith/internal/logger"
	"github.com/crafty-arl/etherith/internal/store"
)

// conversationRequest is the wire shape of POST /api/conversation, with an
// action discriminator selecting the engine operation.
type conversationRequest struct {
	Action              string              `json:"action"`
	Content             string              `json:"content"`
	UserID              string              `json:"userId"`
	QueryID             string              `json:"queryId"`
	ConversationHistory []conversation.Turn `json:"conversationHistory"`
}

// ConversationHandler forwards conversation actions to the engine. When a
// transcript store is configured, each call also persists the history it was
// given plus the turn it produced; persistence failures are logged, never
// surfaced.
type ConversationHandler struct {
	engine      *engine.Engine
	transcripts store.TranscriptStore // may be nil
	log         *logger.Logger
}

func NewConversationHandler(eng *engine.Engine, transcripts store.TranscriptStore, log *logger.Logger) *ConversationHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConversationHandler{engine: eng, transcripts: transcripts, log: log}
}

func (h *ConversationHandler) Handle(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	switch req.Action {
	case "start":
		h.start(c, req)
	case "listen":
		h.listen(c, req)
	case "analyze":
		h.analyze(c, req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action", "details": req.Action})
	}
}

func (h *ConversationHandler) start(c *gin.Context, req conversationRequest) {
	resp, err := h.engine.Start(c.Request.Context(), req.Content, req.UserID, req.QueryID)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	h.persist(resp.QueryID, req.ConversationHistory,
		conversation.Turn{
			Speaker:     conversation.SpeakerUser,
			Content:     req.Content,
			MessageType: conversation.MessageMemory,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		},
		conversation.Turn{
			Speaker:        conversation.SpeakerAI,
			Content:        resp.Question,
			MessageType:    conversation.MessageQuestion,
			Stage:          resp.Stage,
			FollowUpReason: resp.FollowUpReason,
			EmotionalTone:  resp.EmotionalTone,
			CulturalCues:   resp.CulturalCues,
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		},
	)

	c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) listen(c *gin.Context, req conversationRequest) {
	resp, err := h.engine.Listen(c.Request.Context(), req.QueryID, req.Content, req.ConversationHistory)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	if resp.Status == engine.StatusContinue {
		h.persist(req.QueryID, req.ConversationHistory,
			conversation.Turn{
				Speaker:     conversation.SpeakerUser,
				Content:     req.Content,
				MessageType: conversation.MessageAnswer,
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
			},
			conversation.Turn{
				Speaker:        conversation.SpeakerAI,
				Content:        resp.Question,
				MessageType:    conversation.MessageQuestion,
				Stage:          resp.Stage,
				FollowUpReason: resp.FollowUpReason,
				EmotionalTone:  resp.EmotionalTone,
				CulturalCues:   resp.CulturalCues,
				Timestamp:      time.Now().UTC().Format(time.RFC3339),
			},
		)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) analyze(c *gin.Context, req conversationRequest) {
	resp, err := h.engine.Analyze(c.Request.Context(), req.QueryID, req.ConversationHistory)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}

	h.persist(req.QueryID, req.ConversationHistory,
		conversation.Turn{
			Speaker:     conversation.SpeakerAI,
			Content:     resp.Message,
			MessageType: conversation.MessageAnalysis,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		},
	)

	c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrContentRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
	case errors.Is(err, engine.ErrQueryIDRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query ID is required"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}

func (h *ConversationHandler) persist(queryID string, history []conversation.Turn, newTurns ...conversation.Turn) {
	if h.transcripts == nil || queryID == "" {
		return
	}
	full := append(append([]conversation.Turn{}, history...), newTurns...)
	if err := h.transcripts.Set(queryID, conversation.History{QueryID: queryID, Turns: full}); err != nil {
		h.log.Warn("failed to persist transcript", "queryId", queryID, "error", err)
	}
}
