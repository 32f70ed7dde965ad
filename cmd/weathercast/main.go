// Package main provides the entry point for the Weathercast CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weathercast",
	Short: "Daily weather broadcast video generator",
	Long:  "Weathercast turns the day's NWS forecast into a narrated broadcast video: weather acquisition, LLM scriptwriting, speech and image synthesis, and ffmpeg compositing, resumable per broadcast date.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
