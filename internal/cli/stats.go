package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	st := e.GetStats()
	if textOutput() {
		fmt.Printf("segments: %d\n", st.Segments)
		fmt.Printf("categories: %d\n", st.Categories)
		fmt.Printf("tracked: %d (avg score %.3f)\n", st.Heat.TotalMemories, st.Heat.AvgScore)
		fmt.Printf("dedup hashes: %d\n", st.Dedup.TotalHashes)
		fmt.Printf("tags: %d across %d files\n", st.Tags.TotalTags, st.Tags.TotalFiles)
		return
	}

	b, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(b))
}
