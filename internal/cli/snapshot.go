package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "snapshot [message]",
		Short: "Commit the data directory to git",
		Long:  "Run a git snapshot of the data directory. The version log is written even when the commit fails, e.g. outside a repo.",
		Run:   runSnapshot,
	}

	cmd.Flags().Bool("log", false, "Show the version log instead of snapshotting")

	RootCmd.AddCommand(cmd)
}

func runSnapshot(cmd *cobra.Command, args []string) {
	showLog, _ := cmd.Flags().GetBool("log")

	e, err := openEngine()
	if err != nil {
		exitErr("open engine", err)
	}

	if showLog {
		versions := e.Versions()
		if textOutput() {
			for _, v := range versions {
				fmt.Printf("%s %s %s\n", v.CreatedAt.Format("2006-01-02 15:04"), v.ID, v.Message)
			}
			return
		}
		if len(versions) == 0 {
			fmt.Println("[]")
			return
		}
		b, _ := json.MarshalIndent(versions, "", "  ")
		fmt.Println(string(b))
		return
	}

	res := e.Snapshot(cmd.Context(), strings.Join(args, " "))
	if textOutput() {
		fmt.Printf("success: %t %s %s\n", res.Success, res.CommitHash, res.Message)
		return
	}
	b, _ := json.Marshal(res)
	fmt.Println(string(b))
}
