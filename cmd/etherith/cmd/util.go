package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/crafty-arl/etherith/internal/ai"
	"github.com/crafty-arl/etherith/internal/analysis"
	"github.com/crafty-arl/etherith/internal/engine"
	"github.com/crafty-arl/etherith/internal/interview"
	"github.com/crafty-arl/etherith/internal/lexicon"
	"github.com/crafty-arl/etherith/internal/logger"
	"github.com/crafty-arl/etherith/internal/store"
)

func setupContext(log *logger.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		log.Info("interrupt signal detected, shutting down gracefully")
		cancel()
		<-interrupt
		log.Fatal("forcing shutdown")
	}()

	return ctx
}

func newLogger() (*logger.Logger, error) {
	return logger.New(cfg.Environment)
}

// buildEngine wires the interview engine from configuration. Without an API
// key the model sender is left unset and every operation runs its
// deterministic fallback path.
func buildEngine(log *logger.Logger) *engine.Engine {
	var sender ai.MessageSender
	if cfg.AnthropicAPIKey != "" {
		client := ai.NewClient(cfg.AnthropicAPIKey, log)
		sender = ai.NewStreamingMessageSender(client, log)
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, running with deterministic questions and analysis only")
	}

	lex := lexicon.Default()
	model := anthropic.Model(cfg.Model)

	questions := interview.NewGenerator(sender, model, cfg.MaxOutputTokens, cfg.ModelTimeout, lex, log)
	analyzer := analysis.NewAnalyzer(sender, model, cfg.MaxOutputTokens, cfg.ModelTimeout, lex, log)

	return engine.New(questions, analyzer, log)
}

// buildTranscriptStore returns nil when no transcripts directory is
// configured.
func buildTranscriptStore() store.TranscriptStore {
	if cfg.TranscriptsDir == "" {
		return nil
	}
	return store.NewFileSystemTranscriptStore(cfg.TranscriptsDir)
}
