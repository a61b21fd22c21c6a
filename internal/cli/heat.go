package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "heat",
		Short: "Inspect and manage memory heat",
	}

	hotCmd := &cobra.Command{
		Use:   "hot",
		Short: "Show the hottest memories",
		Run:   runHeatHot,
	}
	hotCmd.Flags().IntP("limit", "l", 10, "Max results")

	decayCmd := &cobra.Command{
		Use:   "decay",
		Short: "Apply decay to every memory and show the new scores",
		Run:   runHeatDecay,
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Move cold memories into the archive",
		Long:  "List memories below the archive and delete thresholds. With --apply both groups move into the archive database and leave the active set.",
		Run:   runHeatCleanup,
	}
	cleanupCmd.Flags().Bool("apply", false, "Actually move the candidates instead of listing them")

	cmd.AddCommand(hotCmd, decayCmd, cleanupCmd)
	RootCmd.AddCommand(cmd)
}

func runHeatHot(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	hot := e.Heat().HotMemories(limit)
	if textOutput() {
		for _, s := range hot {
			fmt.Printf("%.3f %s\n", s.Score, s.MemoryID)
		}
		return
	}
	if len(hot) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(hot, "", "  ")
	fmt.Println(string(b))
}

func runHeatDecay(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	scores, err := e.Heat().Decay("")
	if err != nil {
		exitErr("decay", err)
	}

	if textOutput() {
		ids := make([]string, 0, len(scores))
		for id := range scores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("%.3f %s\n", scores[id], id)
		}
		return
	}

	b, _ := json.MarshalIndent(scores, "", "  ")
	fmt.Println(string(b))
}

func runHeatCleanup(cmd *cobra.Command, args []string) {
	apply, _ := cmd.Flags().GetBool("apply")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	res, err := e.Cleanup(cmd.Context(), apply)
	if err != nil {
		exitErr("cleanup", err)
	}

	if textOutput() {
		verb := "would archive"
		if res.Applied {
			verb = "archived"
		}
		fmt.Printf("%s %d, flagged %d for deletion\n", verb, len(res.Archived), len(res.Deleted))
		return
	}

	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}
