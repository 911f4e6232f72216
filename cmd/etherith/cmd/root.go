package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/crafty-arl/etherith/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "etherith",
	Short: "Cultural memory preservation interviewer",
	Long: `Etherith preserves personal cultural memories through a three-stage
active-listening interview and distills each one into a structured,
scored analysis. The interview engine is stateless: all conversational
state travels with the request, and when the generative model is
unavailable the engine degrades to deterministic questions and analysis
rather than stalling.`,
	PersistentPreRun: loadRootConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(_ *cobra.Command, _ []string) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg = config.Load()
}
