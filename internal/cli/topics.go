package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage learned topic categories",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List known categories",
		Run:   runTopicsList,
	}

	mergeCmd := &cobra.Command{
		Use:   "merge [source] [target]",
		Short: "Merge one category into another",
		Args:  cobra.ExactArgs(2),
		Run:   runTopicsMerge,
	}

	suggestCmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest categories worth merging",
		Run:   runTopicsSuggest,
	}
	suggestCmd.Flags().Float64("threshold", 0.7, "Keyword overlap required to suggest a pair")

	cmd.AddCommand(listCmd, mergeCmd, suggestCmd)
	RootCmd.AddCommand(cmd)
}

func runTopicsList(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	type category struct {
		Name     string   `json:"name"`
		Count    int      `json:"count"`
		Keywords int      `json:"keywords"`
		Parent   string   `json:"parent,omitempty"`
		Children []string `json:"children,omitempty"`
	}
	var out []category
	for _, c := range e.Classifier().Categories() {
		out = append(out, category{c.Name, c.Count, len(c.Keywords), c.Parent, c.Children})
	}

	if textOutput() {
		for _, c := range out {
			fmt.Printf("%-16s count=%d keywords=%d\n", c.Name, c.Count, c.Keywords)
		}
		return
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func runTopicsMerge(cmd *cobra.Command, args []string) {
	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	if err := e.Classifier().Merge(args[0], args[1]); err != nil {
		exitErr("merge", err)
	}
	fmt.Printf("merged %s into %s\n", args[0], args[1])
}

func runTopicsSuggest(cmd *cobra.Command, args []string) {
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	suggestions := e.Classifier().SuggestMerges(threshold)
	if textOutput() {
		for _, s := range suggestions {
			fmt.Printf("%.2f %s <-> %s\n", s.Similarity, s.A, s.B)
		}
		return
	}
	if len(suggestions) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(suggestions, "", "  ")
	fmt.Println(string(b))
}
