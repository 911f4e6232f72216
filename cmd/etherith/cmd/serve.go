package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/crafty-arl/etherith/internal/server"
	"github.com/crafty-arl/etherith/internal/telemetry"
)

var (
	listenAddr   string
	allowOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview HTTP service",
	Long: `Starts the HTTP front controller exposing the conversation engine:
POST /api/conversation with a start/listen/analyze action discriminator,
plus GET /healthcheck.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (overrides LISTEN_ADDR)")
	serveCmd.Flags().StringSliceVar(&allowOrigins, "allow-origin", nil, "Allowed CORS origins")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := setupContext(log)

	tel, err := telemetry.NewProvider(ctx, cfg.TelemetryEnabled, cfg.Environment, log)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	eng := buildEngine(log)
	handler := server.NewConversationHandler(eng, buildTranscriptStore(), log)
	router := server.NewRouter(server.RouterConfig{
		ConversationHandler: handler,
		AllowOrigins:        allowOrigins,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown failed", "error", err)
		}
	}()

	log.Info("interview service listening", "addr", cfg.ListenAddr, "model", cfg.Model)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
