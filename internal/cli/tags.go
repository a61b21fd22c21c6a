package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cwhuang/recall/internal/tagindex"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Query the tag index",
	}

	searchCmd := &cobra.Command{
		Use:   "search [tag...]",
		Short: "Find note locations by tag",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTagsSearch,
	}
	searchCmd.Flags().Bool("all", false, "Require every tag to match (default: any)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show tag index statistics",
		Run:   runTagsStats,
	}
	statsCmd.Flags().IntP("limit", "l", 10, "Top tags to show")

	cmd.AddCommand(searchCmd, statsCmd)
	RootCmd.AddCommand(cmd)
}

func runTagsSearch(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")

	op := tagindex.Or
	if all {
		op = tagindex.And
	}

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	tags := make([]string, 0, len(args))
	for _, a := range args {
		tags = append(tags, strings.ToLower(strings.TrimSpace(a)))
	}

	results := e.Tags().Search(tags, op)
	if textOutput() {
		for _, r := range results {
			fmt.Printf("%.1f %s:%d %v\n", r.Score, r.File, r.Line, r.MatchedTags)
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

func runTagsStats(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	st := e.Tags().GetStats(limit)
	if textOutput() {
		fmt.Printf("%d tags, %d entries, %d files\n", st.TotalTags, st.TotalEntries, st.TotalFiles)
		for _, tc := range st.TopTags {
			fmt.Printf("%4d %s\n", tc.Count, tc.Tag)
		}
		return
	}

	b, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(b))
}
