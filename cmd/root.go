package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitCode is set by commands that fail after printing their own error.
var exitCode int

func fail() {
	exitCode = 1
}

func init() {
	rootCmd.PersistentFlags().StringP("workdir", "w", "", "Directory holding settings, profiles, templates and logs (default $MAILQUEUE_WORKDIR or ~/.config/mailqueue)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror the send log to stderr and include debug lines")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "SMTP profile to use instead of the default one")
}

var rootCmd = &cobra.Command{
	Use:   "mailqueue",
	Short: "Send personalised HTML e-mails to a list of recipients",
	Long: `mailqueue sends one HTML e-mail per row of a CSV or XLSX recipient list.
Each row names a recipient and a template; every other column fills the
[[placeholders]] of that template.

Typical use:
- Save SMTP credentials once with 'mailqueue profile add'
- Put templates in the templates directory as <name>.html
- Preview a list with 'mailqueue queue list.csv --render'
- Send it with 'mailqueue send list.csv'

Recipients on the blacklist are skipped, every attempt is written to the
send log and to the history database.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Show help if no command is provided
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
