package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/dedent"
	"github.com/ryan-gang/mailqueue/internal/app"
	"github.com/ryan-gang/mailqueue/internal/cmdutil"
	"github.com/ryan-gang/mailqueue/internal/logger"
	"github.com/ryan-gang/mailqueue/internal/render"
	"github.com/ryan-gang/mailqueue/internal/sender"
	"github.com/ryan-gang/mailqueue/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	sendCmd.Flags().BoolP("yes", "y", false, "Send without asking for confirmation")
	sendCmd.Flags().Bool("dry-run", false, "Go through the whole list without connecting to the SMTP server")
	rootCmd.AddCommand(sendCmd)
}

var (
	helpLong = `Imports FILE and sends one e-mail per row with the active profile.
Messages go out one at a time, each over its own SMTP session.

Blacklisted recipients are skipped. A failed message does not stop the run.
Press Ctrl-C to stop after the message currently being sent; the remaining
messages are dropped.`

	helpExample = dedent.Dedent(`
		# Send a list with the default profile
		mailqueue send customers.csv

		# Send with another profile, without the confirmation prompt
		mailqueue send customers.xlsx --profile newsletter --yes

		# Walk through the list without sending anything
		mailqueue send customers.csv --dry-run`,
	)
)

var sendCmd = &cobra.Command{
	Use:     "send FILE",
	Short:   "Send an e-mail to every recipient in FILE",
	Long:    helpLong,
	Example: helpExample,
	Args:    cobra.ExactArgs(1),
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

		p, err := a.ActiveProfile(cmdutil.ProfileFlag(cmd))
		if err != nil {
			util.LogError(util.ProfileError, "selecting profile", err)
			util.Cyan.Println("Run 'mailqueue profile add' to store SMTP credentials")
			fail()
			return
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		yes, _ := cmd.Flags().GetBool("yes")
		if !dryRun && !yes {
			q := fmt.Sprintf("Send %d email(s) from %s via %s?", a.Queue.Len(), p.Username, p.Address())
			if !util.Confirm(q) {
				util.Cyan.Println("Nothing sent")
				return
			}
		}

		w := a.NewWorker(a.NewMailer(p), p, uuid.NewString(), filepath.Base(args[0]))
		if dryRun {
			util.Yellow.Println("Dry run, no e-mail will be sent")
			w.Mailer = dryRunMailer{}
			w.History = nil
			w.Log = logger.Nop()
		}
		w.Observer = sender.ObserverFunc(printProgress)

		s, ok := runWithSignals(a, sender.NewRunner(w, a.Queue))
		if !ok {
			fail()
			return
		}
		printSummary(s, dryRun, !dryRun && a.History != nil)
		if s.Failed > 0 || s.Cancelled {
			fail()
		}
	},
}

// runWithSignals starts the run and cancels it on SIGINT or SIGTERM.
func runWithSignals(a *app.App, r *sender.Runner) (sender.Summary, bool) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := r.Start(context.Background()); err != nil {
		util.LogError(util.MailError, "starting send", err)
		return sender.Summary{}, false
	}

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()

	for {
		select {
		case sig := <-sigChan:
			a.Log.Infof("Received signal: %v", sig)
			util.Cyan.Printf("\nReceived %v, stopping after the current message...\n", sig)
			r.Cancel()
		case <-done:
			s, err := r.Wait()
			return s, err == nil
		}
	}
}

func printProgress(p sender.Progress) {
	e := p.Last.Entry
	prefix := fmt.Sprintf("[%d/%d]", p.Done, p.Total)
	switch p.Last.Status {
	case sender.StatusSent:
		util.Green.Printf("%s sent    %s (%s)\n", prefix, e.Recipient, e.Template)
	case sender.StatusSkipped:
		util.Yellow.Printf("%s skipped %s (%s)\n", prefix, e.Recipient, p.Last.Category)
	default:
		util.Red.Printf("%s failed  %s (%s): %v\n", prefix, e.Recipient, e.Template, p.Last.Err)
	}
}

func printSummary(s sender.Summary, dryRun, recorded bool) {
	verb := "Sent"
	if dryRun {
		verb = "Would send"
	}
	util.CyanBold.Printf("\n%s %d, failed %d, skipped %d of %d in %s\n",
		verb, s.Sent, s.Failed, s.Skipped, s.Total, s.Finished.Sub(s.Started).Round(time.Millisecond))
	if s.Cancelled {
		util.Yellow.Printf("Cancelled, %d email(s) were not sent\n", s.Remaining())
	}
	if recorded {
		util.Cyan.Printf("Run id %s, see 'mailqueue history --run %s'\n", s.RunID, s.RunID)
	}
}

// dryRunMailer accepts every message without connecting anywhere.
type dryRunMailer struct{}

func (dryRunMailer) Send(ctx context.Context, _ *render.Message) error {
	return ctx.Err()
}
