package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipper-api/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clipper-api",
	Short: "ClipForge API server",
	Long: `ClipForge API - turn long-form videos into short clips

Submit a public video URL and the pipeline downloads it, transcribes the
audio, asks a language model for the most clip-worthy segments, then cuts,
crops, subtitles, and uploads each clip.

Features:
  • Asynchronous pipeline with per-stage progress
  • Highlight detection via an OpenAI-compatible chat API
  • Burned-in subtitles with selectable styles
  • S3 or local filesystem clip storage`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(loadConfig)
}

// loadConfig loads the configuration when a command needs it
func loadConfig() {
	// Version and help never touch configuration.
	cmd, _, _ := rootCmd.Find(os.Args[1:])
	if cmd != nil && (cmd.Name() == "version" || cmd.Name() == "help") {
		return
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}
