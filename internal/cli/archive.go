package cli

import (
	"encoding/json"
	"fmt"

	"github.com/cwhuang/recall/internal/archive"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List memories moved to cold storage",
		Run:   runArchive,
	}

	cmd.Flags().String("reason", "", "Filter by removal reason: archived or deleted")
	cmd.Flags().String("category", "", "Filter by category")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runArchive(cmd *cobra.Command, args []string) {
	reason, _ := cmd.Flags().GetString("reason")
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	store, err := e.ArchiveStore()
	if err != nil {
		exitErr("open archive", err)
	}
	defer store.Close()

	recs, err := store.List(cmd.Context(), archive.ListParams{
		Reason:   archive.Reason(reason),
		Category: category,
		Limit:    limit,
	})
	if err != nil {
		exitErr("archive", err)
	}

	if textOutput() {
		for _, r := range recs {
			fmt.Printf("%s [%s] %s (%s, score %.3f)\n",
				r.ArchivedAt.Format("2006-01-02"), r.Priority, r.Content, r.Reason, r.DecayScore)
		}
		return
	}

	if len(recs) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(recs, "", "  ")
	fmt.Println(string(b))
}
