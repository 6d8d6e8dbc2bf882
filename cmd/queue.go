package cmd

import (
	"errors"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/ryan-gang/mailqueue/internal/app"
	"github.com/ryan-gang/mailqueue/internal/cmdutil"
	"github.com/ryan-gang/mailqueue/internal/recipients"
	"github.com/ryan-gang/mailqueue/internal/render"
	"github.com/ryan-gang/mailqueue/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	queueCmd.Flags().BoolP("render", "r", false, "Render every message and report subjects, missing templates and unfilled [[markers]]")
	rootCmd.AddCommand(queueCmd)
}

var queueCmd = &cobra.Command{
	Use:   "queue FILE",
	Short: "Import a recipient list and show what would be sent",
	Long: `Imports a CSV or XLSX file the same way 'send' does and lists the
resulting queue. Nothing is sent.

The file needs a "recipient" and a "template" column. Every other column is
a value for the [[column]] markers of the template.`,
	Example: dedent.Dedent(`
		# Show the queue built from a list
		mailqueue queue customers.csv

		# Also render every message
		mailqueue queue customers.xlsx --render`,
	),
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		if !importQueue(a, args[0]) {
			fail()
			return
		}

		doRender, _ := cmd.Flags().GetBool("render")
		problems := 0
		for _, e := range a.Queue.Snapshot() {
			line := e.Recipient + " <- " + e.Template
			if c, listed := a.Blacklist.Match(e.Recipient); listed {
				util.Yellow.Printf("  row %-4d %s (skipped, %s)\n", e.Row, line, c)
				continue
			}
			if !doRender {
				util.Cyan.Printf("  row %-4d %s\n", e.Row, line)
				continue
			}
			if !previewEntry(a, e) {
				problems++
			}
		}

		if problems > 0 {
			util.RedBold.Printf("%d message(s) would fail or contain unfilled markers\n", problems)
			fail()
		}
	},
}

// importQueue loads path into the app queue and reports the outcome.
func importQueue(a *app.App, path string) bool {
	n, err := a.Queue.Load(path)
	if err != nil {
		var rowErr *recipients.RowError
		switch {
		case errors.Is(err, recipients.ErrMissingColumn):
			util.LogError(util.ImportError, "checking columns", err)
		case errors.As(err, &rowErr):
			util.LogErrorf(util.ImportError, "reading "+path, "row %d: %s", rowErr.Row, rowErr.Reason)
		default:
			util.LogError(util.ImportError, "reading "+path, err)
		}
		return false
	}
	util.CyanBold.Printf("Queued %d email(s) from %s\n", n, path)
	return true
}

// previewEntry renders e and reports whether it is ready to send.
func previewEntry(a *app.App, e recipients.Entry) bool {
	msg, err := a.Renderer.Render(e)
	if err != nil {
		util.Red.Printf("  row %-4d %s: %v\n", e.Row, e.Recipient, err)
		return false
	}
	util.Green.Printf("  row %-4d %s \"%s\"\n", e.Row, e.Recipient, msg.Subject)
	if left := render.Markers(msg.HTML); len(left) > 0 {
		util.Yellow.Printf("           unfilled markers: [[%s]]\n", strings.Join(left, "]], [["))
		return false
	}
	return true
}
