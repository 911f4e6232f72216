package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crafty-arl/etherith/internal/conversation"
	"github.com/crafty-arl/etherith/internal/engine"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run one interview session interactively",
	Long: `Drives a full interview from the terminal: share a memory, answer the
three follow-up questions, and receive the structured analysis. Acts as
the engine's caller, carrying the turn history the way the HTTP front
controller does. With TRANSCRIPTS_DIR set, the finished transcript is
persisted as JSON under its query ID.`,
	RunE: runInterview,
}

func init() {
	rootCmd.AddCommand(interviewCmd)
}

func runInterview(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := setupContext(log)
	eng := buildEngine(log)
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Tell me about a cultural memory you'd like to preserve.")
	memory, err := readLine(scanner)
	if err != nil {
		return err
	}

	start, err := eng.Start(ctx, memory, "", "")
	if err != nil {
		return fmt.Errorf("failed to start interview: %w", err)
	}

	history := []conversation.Turn{
		userTurn(memory, conversation.MessageMemory),
		aiQuestionTurn(start.Question, start.Stage, start.FollowUpReason, start.EmotionalTone, start.CulturalCues),
	}

	fmt.Printf("\n%s\n", start.Question)

	for {
		answer, err := readLine(scanner)
		if err != nil {
			return err
		}

		resp, err := eng.Listen(ctx, start.QueryID, answer, history)
		if err != nil {
			return fmt.Errorf("failed to advance interview: %w", err)
		}

		history = append(history, userTurn(answer, conversation.MessageAnswer))
		if resp.Status == engine.StatusReadyForAnalysis {
			break
		}

		history = append(history, aiQuestionTurn(resp.Question, resp.Stage, resp.FollowUpReason, resp.EmotionalTone, resp.CulturalCues))
		fmt.Printf("\n%s\n", resp.Question)
	}

	analyzed, err := eng.Analyze(ctx, start.QueryID, history)
	if err != nil {
		return fmt.Errorf("failed to analyze interview: %w", err)
	}
	history = append(history, conversation.Turn{
		Speaker:     conversation.SpeakerAI,
		Content:     analyzed.Message,
		MessageType: conversation.MessageAnalysis,
		Timestamp:   now(),
	})

	fmt.Printf("\n%s\n\n", analyzed.Message)
	printAnalysis(analyzed.Analysis)

	if transcripts := buildTranscriptStore(); transcripts != nil {
		h := conversation.History{QueryID: start.QueryID, Turns: history}
		if err := transcripts.Set(start.QueryID, h); err != nil {
			log.Warn("failed to persist transcript", "queryId", start.QueryID, "error", err)
		} else {
			fmt.Printf("Transcript saved under query ID %s\n", start.QueryID)
		}
	}

	return nil
}

func printAnalysis(a conversation.AnalysisResult) {
	fmt.Printf("Title:        %s\n", a.Metadata.Title)
	fmt.Printf("Category:     %s\n", a.Metadata.Category)
	fmt.Printf("Elements:     %s\n", strings.Join(a.CulturalElements, ", "))
	fmt.Printf("People:       %s\n", strings.Join(a.PeopleIdentified, ", "))
	if a.LocationContext != "" {
		fmt.Printf("Location:     %s\n", a.LocationContext)
	}
	if a.TemporalContext != "" {
		fmt.Printf("When:         %s\n", a.TemporalContext)
	}
	fmt.Printf("Tags:         %s\n", strings.Join(a.SuggestedTags, ", "))
	fmt.Printf("Significance: %.0f%%  Confidence: %.0f%%\n", a.CulturalSignificanceScore*100, a.ConfidenceScore*100)
}

func readLine(scanner *bufio.Scanner) (string, error) {
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line, nil
		}
		fmt.Print("> ")
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return "", fmt.Errorf("input closed")
}

func userTurn(content string, mt conversation.MessageType) conversation.Turn {
	return conversation.Turn{
		Speaker:     conversation.SpeakerUser,
		Content:     content,
		MessageType: mt,
		Timestamp:   now(),
	}
}

func aiQuestionTurn(question string, stage int, reason, tone string, cues []string) conversation.Turn {
	return conversation.Turn{
		Speaker:        conversation.SpeakerAI,
		Content:        question,
		MessageType:    conversation.MessageQuestion,
		Stage:          stage,
		FollowUpReason: reason,
		EmotionalTone:  tone,
		CulturalCues:   cues,
		Timestamp:      now(),
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
