// Package cli implements the recall CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cwhuang/recall/internal/config"
	"github.com/cwhuang/recall/internal/engine"
)

var (
	dataDir    string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "recall",
	Short: "File-backed personal memory with priority and decay",
	Long:  "A tiny CLI for a personal knowledge store. Notes in, ranked answers out. Markdown log plus JSON caches, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Data directory (default: $RECALL_DATA or ~/.recall)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func textOutput() bool {
	return formatFlag == "text"
}

func getDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if env := os.Getenv("RECALL_DATA"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recall")
}

func openEngine() (*engine.Engine, error) {
	dir := getDataDir()
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return engine.Open(dir, cfg)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
