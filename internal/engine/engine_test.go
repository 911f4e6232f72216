package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crafty-arl/etherith/internal/analysis"
	"github.com/crafty-arl/etherith/internal/conversation"
	"github.com/crafty-arl/etherith/internal/interview"
	"github.com/crafty-arl/etherith/internal/lexicon"
	"github.com/crafty-arl/etherith/internal/logger"
)

type stubSender struct {
	response anthropic.Message
	err      error
}

func (s *stubSender) SendMessage(_ context.Context, _ anthropic.MessageNewParams, _ ...option.RequestOption) (anthropic.Message, error) {
	return s.response, s.err
}

func textMessage(text string) anthropic.Message {
	return anthropic.Message{
		Content:    []anthropic.ContentBlockUnion{{Type: "text", Text: text}},
		StopReason: anthropic.StopReasonEndTurn,
	}
}

func questionJSON(question string, stage int) string {
	return fmt.Sprintf(`{"question":%q,"followUpReason":"r","emotionalTone":"joy","culturalCues":["tradition"],"stage":%d}`, question, stage)
}

// newTestEngine builds an engine whose model interactions go through the
// given stub
func newTestEngine(sender *stubSender) *Engine {
	lex := lexicon.Default()
	log := logger.NewNop()
	questions := interview.NewGenerator(sender, anthropic.ModelClaude3_5HaikuLatest, 1024, 0, lex, log)
	questions.SetPicker(func(int) int { return 0 })
	analyzer := analysis.NewAnalyzer(sender, anthropic.ModelClaude3_5HaikuLatest, 2048, 0, lex, log)
	return New(questions, analyzer, log)
}

// aiStageTurns fabricates a history with n AI turns carrying stage markers
func aiStageTurns(n int) []conversation.Turn {
	turns := []conversation.Turn{
		{Speaker: conversation.SpeakerUser, Content: "My grandmother made special bread during winter solstice.", MessageType: conversation.MessageMemory},
	}
	for i := 1; i <= n; i++ {
		turns = append(turns,
			conversation.Turn{Speaker: conversation.SpeakerAI, Content: fmt.Sprintf("Question %d?", i), MessageType: conversation.MessageQuestion, Stage: i},
			conversation.Turn{Speaker: conversation.SpeakerUser, Content: "It was part of our family tradition.", MessageType: conversation.MessageAnswer},
		)
	}
	return turns
}

func TestStart_RequiresContent(t *testing.T) {
	e := newTestEngine(&stubSender{})

	_, err := e.Start(context.Background(), "", "user-1", "")

	require.ErrorIs(t, err, ErrContentRequired)
}

func TestStart_GeneratesQueryID(t *testing.T) {
	e := newTestEngine(&stubSender{response: textMessage(questionJSON("Q?", 1))})

	resp, err := e.Start(context.Background(), "My grandmother made special bread during winter solstice.", "", "")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.QueryID)
	assert.Equal(t, 1, resp.Stage)
	assert.Equal(t, conversation.TotalStages, resp.TotalStages)
	assert.NotEmpty(t, resp.Question)
}

func TestStart_PreservesCallerQueryID(t *testing.T) {
	e := newTestEngine(&stubSender{response: textMessage(questionJSON("Q?", 1))})

	resp, err := e.Start(context.Background(), "A memory.", "", "caller-id")

	require.NoError(t, err)
	assert.Equal(t, "caller-id", resp.QueryID)
}

func TestStart_NeverFailsOnModelError(t *testing.T) {
	e := newTestEngine(&stubSender{err: fmt.Errorf("model rejected the call")})

	resp, err := e.Start(context.Background(), "My grandmother made special bread.", "", "")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Question)
	assert.Equal(t, 1, resp.Stage)
}

func TestListen_RequiresQueryIDAndContent(t *testing.T) {
	e := newTestEngine(&stubSender{})

	_, err := e.Listen(context.Background(), "", "content", nil)
	require.ErrorIs(t, err, ErrQueryIDRequired)

	_, err = e.Listen(context.Background(), "qid", "", nil)
	require.ErrorIs(t, err, ErrContentRequired)
}

func TestListen_StageProgression(t *testing.T) {
	// After n completed stages, the next Listen call produces stage n+1 while
	// n < 3, and ready_for_analysis at n == 3
	for n := 1; n < conversation.TotalStages; n++ {
		sender := &stubSender{response: textMessage(questionJSON("Next?", n+1))}
		e := newTestEngine(sender)

		resp, err := e.Listen(context.Background(), "qid", "an answer", aiStageTurns(n))

		require.NoError(t, err)
		assert.Equal(t, StatusContinue, resp.Status)
		assert.Equal(t, n+1, resp.Stage)
		assert.NotEmpty(t, resp.Question)
	}
}

func TestListen_ReadyForAnalysisAfterAllStages(t *testing.T) {
	e := newTestEngine(&stubSender{})

	resp, err := e.Listen(context.Background(), "qid", "my final answer", aiStageTurns(3))

	require.NoError(t, err)
	assert.Equal(t, StatusReadyForAnalysis, resp.Status)
	assert.Equal(t, conversation.TotalStages+1, resp.Stage)
	assert.Empty(t, resp.Question)
}

func TestListen_FullSequenceWithMockedResponses(t *testing.T) {
	history := aiStageTurns(1)

	// Advance through stages 2 and 3 with mocked model responses, then the
	// final call reports ready_for_analysis
	for stage := 2; stage <= conversation.TotalStages; stage++ {
		sender := &stubSender{response: textMessage(questionJSON("Next?", stage))}
		e := newTestEngine(sender)

		resp, err := e.Listen(context.Background(), "qid", "an answer", history)
		require.NoError(t, err)
		require.Equal(t, StatusContinue, resp.Status)
		require.Equal(t, stage, resp.Stage)

		history = append(history,
			conversation.Turn{Speaker: conversation.SpeakerUser, Content: "an answer", MessageType: conversation.MessageAnswer},
			conversation.Turn{Speaker: conversation.SpeakerAI, Content: resp.Question, MessageType: conversation.MessageQuestion, Stage: resp.Stage},
		)
	}

	e := newTestEngine(&stubSender{})
	resp, err := e.Listen(context.Background(), "qid", "done", history)
	require.NoError(t, err)
	assert.Equal(t, StatusReadyForAnalysis, resp.Status)
	assert.Equal(t, 4, resp.Stage)
}

func TestListen_ModelFailureStillContinues(t *testing.T) {
	e := newTestEngine(&stubSender{err: fmt.Errorf("timeout")})

	resp, err := e.Listen(context.Background(), "qid", "It was a family tradition.", aiStageTurns(1))

	require.NoError(t, err)
	assert.Equal(t, StatusContinue, resp.Status)
	assert.Equal(t, 2, resp.Stage)
	assert.NotEmpty(t, resp.Question)
}

func TestAnalyze_RequiresQueryID(t *testing.T) {
	e := newTestEngine(&stubSender{})

	_, err := e.Analyze(context.Background(), "", nil)

	require.ErrorIs(t, err, ErrQueryIDRequired)
}

func TestAnalyze_EmptyHistoryStillComplete(t *testing.T) {
	e := newTestEngine(&stubSender{err: fmt.Errorf("model unavailable")})

	resp, err := e.Analyze(context.Background(), "qid", nil)

	require.NoError(t, err)
	assert.NotNil(t, resp.Analysis.CulturalElements)
	assert.NotEmpty(t, resp.Analysis.Metadata.Title)
	assert.NotEmpty(t, resp.Message)
}

func TestAnalyze_FallbackConfidenceCeiling(t *testing.T) {
	e := newTestEngine(&stubSender{err: fmt.Errorf("model unavailable")})

	resp, err := e.Analyze(context.Background(), "qid", aiStageTurns(3))

	require.NoError(t, err)
	assert.LessOrEqual(t, resp.Analysis.ConfidenceScore, 0.6)
	assert.NotEmpty(t, resp.Analysis.CulturalElements)
}

func TestSessionStatus(t *testing.T) {
	assert.Equal(t, conversation.StatusInitial, SessionStatus(nil))
	assert.Equal(t, conversation.StatusListening, SessionStatus(aiStageTurns(1)))
	assert.Equal(t, conversation.StatusReadyForAnalysis, SessionStatus(aiStageTurns(3)))

	completed := append(aiStageTurns(3), conversation.Turn{
		Speaker:     conversation.SpeakerAI,
		Content:     "Thank you for sharing.",
		MessageType: conversation.MessageAnalysis,
	})
	assert.Equal(t, conversation.StatusCompleted, SessionStatus(completed))
}
