package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cwhuang/recall/internal/dedup"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "dedup-check [text]",
		Short: "Check whether text would be rejected as a duplicate",
		Args:  cobra.MinimumNArgs(1),
		Run:   runDedupCheck,
	}

	RootCmd.AddCommand(cmd)
}

func runDedupCheck(cmd *cobra.Command, args []string) {
	text := strings.Join(args, " ")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	dup, kind := e.CheckDuplicate(text)

	if textOutput() {
		fmt.Printf("duplicate: %t (%s)\n", dup, kind)
		return
	}

	out := struct {
		Duplicate bool       `json:"duplicate"`
		Kind      dedup.Kind `json:"kind"`
	}{dup, kind}

	b, _ := json.Marshal(out)
	fmt.Println(string(b))
}
