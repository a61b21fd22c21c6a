package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cwhuang/recall/internal/model"
	"github.com/cwhuang/recall/internal/topics"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify text without storing it",
		Long:  "Show the priority, tags and category the pipeline would assign. Nothing is written.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runClassify,
	}

	RootCmd.AddCommand(cmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	text := strings.Join(args, " ")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	parsed, tags, category := e.Classify(text)

	if textOutput() {
		fmt.Printf("priority: %s (explicit: %t)\n", parsed.Priority, parsed.Explicit)
		fmt.Printf("category: %s\n", category)
		for _, ts := range tags {
			fmt.Printf("tag: %s (%d)\n", ts.Tag, ts.Score)
		}
		return
	}

	out := struct {
		Priority model.Priority    `json:"priority"`
		Explicit bool              `json:"explicit"`
		Content  string            `json:"content"`
		Tags     []topics.TagScore `json:"tags"`
		Category string            `json:"category"`
	}{parsed.Priority, parsed.Explicit, parsed.Content, tags, category}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
