package cli

import (
	"github.com/spf13/cobra"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run exactly one poll cycle and print the summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().PollOnce(cmd.Context())
	},
}
