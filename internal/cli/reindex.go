package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the note log",
		Run:   runReindex,
	}

	RootCmd.AddCommand(cmd)
}

func runReindex(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	n, err := e.Rebuild()
	if err != nil {
		exitErr("reindex", err)
	}
	fmt.Printf("indexed %d segments\n", n)
}
