package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendermint/limitorder/version"
)

var verbose bool

// VersionCmd ...
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			return printJSON(cmd, struct {
				version.App
				GitCommit string `json:"git_commit,omitempty"`
			}{version.Current(), version.GitCommit})
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		return err
	},
}

func init() {
	VersionCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show protocol version")
}
