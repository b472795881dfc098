package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fabagent/cli/pkg/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved SPN profile from the OS keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ClearProfile(); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Profile removed."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
