// Package main provides the entry point for the mock interview HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "interviewd",
	Short: "Mock interview API server",
	Long:  "interviewd runs AI-driven mock interviews: it serves the REST API, transcribes recorded answers and evaluates them with a language model in the background.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
