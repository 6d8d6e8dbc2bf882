package cmd

import (
	"github.com/lithammer/dedent"
	"github.com/ryan-gang/mailqueue/internal/blacklist"
	"github.com/ryan-gang/mailqueue/internal/cmdutil"
	"github.com/ryan-gang/mailqueue/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	blacklistCmd.AddCommand(blacklistAddCmd, blacklistRemoveCmd, blacklistListCmd, blacklistCheckCmd)
	rootCmd.AddCommand(blacklistCmd)
}

var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Manage addresses that are never mailed",
	Long: `Blacklisted addresses are skipped by 'send'. Entries are kept in one of
three categories: unsubscribed, full_mailbox and nonexistent.

With the default exact matching an entry blocks the same address, ignoring
case. With 'blacklist.match: substring' in settings.yaml an entry blocks
every recipient containing it, eg. "@example.org" blocks a whole domain.`,
	Example: dedent.Dedent(`
		# Stop mailing someone who unsubscribed
		mailqueue blacklist add unsubscribed jane@example.com

		# See every category
		mailqueue blacklist list

		# Would this address be skipped?
		mailqueue blacklist check jane@example.com`,
	),
}

var blacklistAddCmd = &cobra.Command{
	Use:   "add CATEGORY ADDRESS...",
	Short: "Add addresses to a category",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		c, err := blacklist.ParseCategory(args[0])
		if err != nil {
			util.LogError(util.BlacklistError, "adding address", err)
			fail()
			return
		}
		for _, addr := range args[1:] {
			added, err := a.Blacklist.Add(c, addr)
			switch {
			case err != nil:
				util.LogError(util.BlacklistError, "adding "+addr, err)
				fail()
			case added:
				util.Green.Printf("Added %s to %s\n", addr, c)
			default:
				util.Yellow.Printf("%s is already in %s\n", addr, c)
			}
		}
	},
}

var blacklistRemoveCmd = &cobra.Command{
	Use:   "remove CATEGORY ADDRESS...",
	Short: "Remove addresses from a category",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		c, err := blacklist.ParseCategory(args[0])
		if err != nil {
			util.LogError(util.BlacklistError, "removing address", err)
			fail()
			return
		}
		for _, addr := range args[1:] {
			if err := a.Blacklist.Remove(c, addr); err != nil {
				util.LogError(util.BlacklistError, "removing "+addr, err)
				fail()
				continue
			}
			util.Green.Printf("Removed %s from %s\n", addr, c)
		}
	},
}

var blacklistListCmd = &cobra.Command{
	Use:   "list [CATEGORY]",
	Short: "List blacklisted addresses",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		categories := blacklist.Categories
		if len(args) == 1 {
			c, err := blacklist.ParseCategory(args[0])
			if err != nil {
				util.LogError(util.BlacklistError, "listing", err)
				fail()
				return
			}
			categories = []blacklist.Category{c}
		}

		for _, c := range categories {
			addrs := a.Blacklist.List(c)
			util.CyanBold.Printf("%s (%d)\n", c, len(addrs))
			for _, addr := range addrs {
				util.Cyan.Printf("  %s\n", addr)
			}
		}
	},
}

var blacklistCheckCmd = &cobra.Command{
	Use:   "check ADDRESS...",
	Short: "Report whether addresses would be skipped",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		for _, addr := range args {
			if c, listed := a.Blacklist.Match(addr); listed {
				util.Yellow.Printf("%s is blacklisted (%s, %s match)\n", addr, c, a.Blacklist.Policy())
				continue
			}
			util.Green.Printf("%s is not blacklisted\n", addr)
		}
	},
}
