package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/ryan-gang/mailqueue/internal/cmdutil"
	"github.com/ryan-gang/mailqueue/internal/history"
	"github.com/ryan-gang/mailqueue/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	addHistoryFlags(historyCmd)
	rootCmd.AddCommand(historyCmd)
}

func addHistoryFlags(c *cobra.Command) {
	c.Flags().String("run", "", "Only show sends of this run id")
	c.Flags().String("status", "", "Only show sends with this status: sent, failed or skipped")
	c.Flags().IntP("limit", "n", 50, "Show at most this many of the latest sends, 0 for all. Exports include every send unless set explicitly")
	c.Flags().Bool("runs", false, "List runs with their counts instead of single sends")
	c.Flags().String("export", "", "Write the selected sends as CSV into this directory")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or export past sends",
	Example: dedent.Dedent(`
		# Runs, newest first
		mailqueue history --runs

		# Failures of one run
		mailqueue history --run 3f1c... --status failed

		# Export a whole run as CSV
		mailqueue history --run 3f1c... --export ./reports`,
	),
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		if a.History == nil {
			util.Yellow.Println("History is disabled, set history_path with 'mailqueue configure'")
			return
		}
		ctx := context.Background()

		if runs, _ := cmd.Flags().GetBool("runs"); runs {
			list, err := a.History.Runs(ctx)
			if err != nil {
				util.LogError(util.HistoryError, "listing runs", err)
				fail()
				return
			}
			for _, r := range list {
				util.Cyan.Printf("%s  %s  %-24s sent %d, failed %d, skipped %d\n",
					r.StartedAt.Format("2006-01-02 15:04"), r.ID, r.Label, r.Sent, r.Failed, r.Skipped)
			}
			return
		}

		f, exportDir, err := historyFilter(cmd)
		if err != nil {
			util.LogError(util.ValidationError, "filtering history", err)
			fail()
			return
		}

		records, err := a.History.List(ctx, f)
		if err != nil {
			util.LogError(util.HistoryError, "listing sends", err)
			fail()
			return
		}

		if exportDir != "" {
			label := ""
			if f.RunID != "" && len(records) > 0 {
				label = strings.TrimSuffix(records[0].RunLabel, filepath.Ext(records[0].RunLabel))
			}
			path, err := history.ExportToDir(exportDir, label, records)
			if err != nil {
				util.LogError(util.FileError, "exporting history", err)
				fail()
				return
			}
			util.Green.Printf("Exported %d send(s) to %s\n", len(records), path)
			return
		}

		if len(records) == 0 {
			util.Cyan.Println("No sends recorded")
			return
		}
		for _, r := range records {
			when := r.SentAt.Format("2006-01-02 15:04:05")
			who := r.Recipient + " (" + r.Template + ")"
			switch r.Status {
			case history.StatusSent:
				util.Green.Printf("%s sent    %s \"%s\"\n", when, who, r.Subject)
			case history.StatusSkipped:
				util.Yellow.Printf("%s skipped %s\n", when, who)
			default:
				util.Red.Printf("%s failed  %s: %s\n", when, who, r.Error)
			}
		}
	},
}

// historyFilter reads the selection flags. Exports ignore the default limit.
func historyFilter(cmd *cobra.Command) (history.Filter, string, error) {
	var f history.Filter
	f.RunID, _ = cmd.Flags().GetString("run")
	f.Status, _ = cmd.Flags().GetString("status")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	exportDir, _ := cmd.Flags().GetString("export")
	if exportDir != "" && !cmd.Flags().Changed("limit") {
		f.Limit = 0
	}
	switch f.Status {
	case "", history.StatusSent, history.StatusFailed, history.StatusSkipped:
	default:
		return f, "", fmt.Errorf("unknown status %q", f.Status)
	}
	return f, exportDir, nil
}
