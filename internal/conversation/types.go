// Package conversation defines the data model shared by the interview engine
// and its collaborators: turns, question results, and analysis results. All
// values are constructed fresh per invocation and never mutated afterwards;
// the ordered turn sequence supplied by the caller is the only conversational
// memory in the system.
package conversation

// Speaker identifies who authored a turn.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerAI   Speaker = "ai"
)

// MessageType classifies the role a turn plays within the interview.
type MessageType string

const (
	MessageMemory     MessageType = "memory"
	MessageQuestion   MessageType = "question"
	MessageAnswer     MessageType = "answer"
	MessageReflection MessageType = "reflection"
	MessageAnalysis   MessageType = "analysis"
)

// SessionStatus is the externally visible state of an interview session. The
// engine holds no session table; status is derived per call from the
// caller-supplied history.
type SessionStatus string

const (
	StatusInitial          SessionStatus = "initial"
	StatusListening        SessionStatus = "listening"
	StatusReadyForAnalysis SessionStatus = "ready_for_analysis"
	StatusAnalyzing        SessionStatus = "analyzing"
	StatusCompleted        SessionStatus = "completed"
	StatusError            SessionStatus = "error"
)

// TotalStages is the fixed number of interview stages that must complete
// before final analysis.
const TotalStages = 3

// Turn is a single utterance in an interview. Turns are immutable once
// created; the caller presents them in the order they occurred.
type Turn struct {
	Speaker        Speaker     `json:"speaker"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"messageType,omitempty"`
	Stage          int         `json:"stage,omitempty"`
	FollowUpReason string      `json:"followUpReason,omitempty"`
	EmotionalTone  string      `json:"emotionalTone,omitempty"`
	CulturalCues   []string    `json:"culturalCues,omitempty"`
	Timestamp      string      `json:"timestamp,omitempty"`
}

// QuestionResult is a stage-appropriate follow-up question. Produced fresh on
// every call; the engine never persists it.
type QuestionResult struct {
	Question       string   `json:"question"`
	FollowUpReason string   `json:"followUpReason"`
	EmotionalTone  string   `json:"emotionalTone"`
	CulturalCues   []string `json:"culturalCues"`
	Stage          int      `json:"stage"`
}

// AnalysisMetadata carries archival metadata derived from the interview.
type AnalysisMetadata struct {
	Title            string   `json:"title"`
	Category         string   `json:"category"`
	CulturalHeritage []string `json:"culturalHeritage"`
}

// AnalysisResult is the structured outcome of analyzing a full interview
// transcript. Created only by the final analyzer and never mutated. All score
// fields are within [0, 1].
type AnalysisResult struct {
	CulturalElements          []string         `json:"culturalElements"`
	EmotionalSignificance     string           `json:"emotionalSignificance"`
	CulturalPractices         []string         `json:"culturalPractices"`
	PeopleIdentified          []string         `json:"peopleIdentified"`
	LocationContext           string           `json:"locationContext,omitempty"`
	TemporalContext           string           `json:"temporalContext,omitempty"`
	CulturalSignificanceScore float64          `json:"culturalSignificanceScore"`
	SuggestedTags             []string         `json:"suggestedTags"`
	Metadata                  AnalysisMetadata `json:"metadata"`
	ActiveListeningInsights   string           `json:"activeListeningInsights,omitempty"`
	ConversationQuality       float64          `json:"conversationQuality,omitempty"`
	ConfidenceScore           float64          `json:"confidenceScore,omitempty"`
}

// History is a serializable snapshot of one interview, keyed by query ID.
// It is written by collaborators that choose to persist transcripts; the
// engine itself never reads or writes one.
type History struct {
	QueryID string `json:"queryId"`
	Turns   []Turn `json:"turns"`
}

// UserTranscript concatenates the content of all user-authored turns,
// newline separated. It is the input to the deterministic analysis path.
func (h History) UserTranscript() string {
	return JoinUserContent(h.Turns)
}

// JoinUserContent concatenates user-authored turn contents with newlines.
func JoinUserContent(turns []Turn) string {
	out := ""
	for _, t := range turns {
		if t.Speaker != SpeakerUser || t.Content == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += t.Content
	}
	return out
}

// CountAIStages counts AI turns that carry a stage marker. The engine derives
// the current interview stage from this count rather than from server-side
// state.
func CountAIStages(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Speaker == SpeakerAI && t.Stage > 0 {
			n++
		}
	}
	return n
}
