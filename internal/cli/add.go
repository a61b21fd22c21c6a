package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [note]",
		Short: "Store a note",
		Long:  "Classify and store a note. Text can be a positional arg or piped via stdin; a leading [C]/[I]/[N] tag sets the priority explicitly.",
		Run:   runAdd,
	}

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}

	if strings.TrimSpace(text) == "" {
		exitErr("add", fmt.Errorf("note text is required (positional arg or stdin)"))
	}

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	res, err := e.AddNote(cmd.Context(), text)
	if err != nil {
		exitErr("add", err)
	}

	if textOutput() {
		if !res.Accepted {
			fmt.Printf("rejected: %s duplicate\n", res.Duplicate)
			return
		}
		fmt.Printf("stored [%s] %s (%s:%d)\n",
			res.Segment.Priority, res.Segment.Content, res.Segment.Source, res.Segment.LineNumber)
		return
	}

	b, _ := json.Marshal(res)
	fmt.Println(string(b))
}
