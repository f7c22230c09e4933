// Package cli provides the command-line interface for Memory Box
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AbdouB/memorybox/internal/config"
	"github.com/AbdouB/memorybox/internal/db"
)

var (
	database   *db.DB
	settings   config.Settings
	outputText bool // --text flag for human-readable output (default is JSON for LLMs)
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "memorybox",
	Short: "Persistent, searchable memory for shell commands",
	Long: `Memory Box - a searchable store for shell commands

Save commands with descriptions and tags, then find them again by exact
or typo-tolerant text match. Secrets are redacted before anything is
written.

Quick Start:
  memorybox add "docker ps" --description "List containers" --tags docker
  memorybox search docker              # Exact substring search
  memorybox search doker --fuzzy       # Typo-tolerant search
  memorybox get <id>                   # Fetch one command (records usage)
  memorybox serve                      # Run as an MCP server over stdio`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB init for help commands
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		settings, err = config.Load()
		if err != nil {
			return err
		}
		database, err = db.Open(settings.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if database != nil {
			database.Close()
		}
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputText, "text", false, "Human-readable text output (default is JSON for LLM consumption)")

	rootCmd.AddCommand(versionCmd)
}

// outputResult outputs the result in the appropriate format
// Default is JSON (for LLMs), use --text for human-readable
func outputResult(result interface{}) {
	if outputText {
		fmt.Printf("%+v\n", result)
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result)
	}
}

// outputError outputs an error in the appropriate format
func outputError(err error) {
	if outputText {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		result := map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
		enc := json.NewEncoder(os.Stderr)
		enc.Encode(result)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("memorybox version 1.0.0")
	},
}
