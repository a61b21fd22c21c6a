package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search notes by keyword",
		Long:  "Search stored notes. Queries are tokenized the same way as content, expanded with synonyms, and ranked with priority boosts.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 5, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	results, err := e.Search(query, limit)
	if err != nil {
		exitErr("search", err)
	}

	if textOutput() {
		if len(results) == 0 {
			fmt.Println("no results")
			return
		}
		for _, r := range results {
			fmt.Printf("%.3f [%s] %s (%s:%d)\n", r.Score, r.Priority, r.Content, r.Source, r.LineNumber)
		}
		return
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
