package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/ryan-gang/mailqueue/internal/cmdutil"
	"github.com/ryan-gang/mailqueue/internal/config"
	"github.com/ryan-gang/mailqueue/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configureCmd)
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure mailqueue settings",
	Long: `Configure where templates, logs and history live, the fallback subject,
the SMTP connection mode and how blacklist entries are matched.
Values are written to settings.yaml in the workdir.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd)
		if cfg == nil {
			fail()
			return
		}

		if _, err := os.Stat(cfg.SettingsPath()); errors.Is(err, fs.ErrNotExist) {
			util.CyanBold.Println("Creating new configuration...")
		} else {
			util.CyanBold.Println("Updating existing configuration...")
			util.Cyan.Printf("Templates directory: %s\n", cfg.GetTemplatesDir())
			util.Cyan.Printf("Send log: %s\n", cfg.GetLogPath())
			if cfg.GetHistoryPath() == "" {
				util.Cyan.Println("History: disabled")
			} else {
				util.Cyan.Printf("History: %s\n", cfg.GetHistoryPath())
			}
			util.Cyan.Printf("SMTP timeout: %s, implicit TLS: %t\n", cfg.GetSMTPTimeout(), cfg.UseImplicitTLS())
			util.Cyan.Printf("Blacklist matching: %s\n\n", cfg.GetBlacklistMatch())
		}

		config.Prompt(cfg)
		if err := cfg.Validate(); err != nil {
			util.LogError(util.ConfigError, "validating configuration", err)
			fail()
			return
		}
		if err := config.Save(cfg); err != nil {
			util.LogError(util.ConfigError, "saving configuration", err)
			fail()
			return
		}
		util.Green.Printf("Configuration saved to %s\n", cfg.SettingsPath())

		util.CyanBold.Println("\nNext steps:")
		util.Cyan.Println("- Run 'mailqueue profile add' to store SMTP credentials")
		util.Cyan.Printf("- Put your templates in %s as <name>.html\n", cfg.GetTemplatesDir())
		util.Cyan.Println("- Run 'mailqueue send <list.csv>' to send")
	},
}
