package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jonandersen/tradedesk/internal/output"
)

func newVersionCmd(version string, jsonMode func() bool) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tradedesk version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonMode() {
				return output.New(cmd.OutOrStdout(), true).Print(map[string]string{
					"version": version,
					"go":      runtime.Version(),
				})
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "tradedesk version %s (%s)\n", version, runtime.Version())
			return err
		},
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd(Version, GetJSONMode))
}
