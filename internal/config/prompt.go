package config

import (
	"time"

	"github.com/ryan-gang/mailqueue/internal/util"
)

// Prompt walks the user through the settings, keeping the current value
// whenever the answer is empty.
func Prompt(c *Config) {
	util.CyanBold.Println("CONFIGURE MAILQUEUE")

	c.TemplatesDir = ask("Templates directory", c.TemplatesDir)
	c.LogPath = ask("Send log file", c.LogPath)
	c.HistoryPath = ask("History database (\"-\" disables history)", c.HistoryPath)
	if c.HistoryPath == "-" {
		c.HistoryPath = ""
	}
	c.DefaultSubject = ask("Subject used when a template has no <title>", c.DefaultSubject)
	c.FromName = ask("Display name for the From header (empty is ok)", c.FromName)

	for {
		answer := ask("SMTP timeout (eg. 30s, 1m)", c.SMTP.Timeout.String())
		d, err := time.ParseDuration(answer)
		if err != nil || d <= 0 {
			util.Red.Println("Entered timeout is not a valid duration, please try again")
			continue
		}
		c.SMTP.Timeout = d
		break
	}

	c.SMTP.ImplicitTLS = util.Confirm("Connect with implicit TLS (port 465 style)? Answer n for STARTTLS")

	for {
		answer := ask("Blacklist matching, exact or substring", c.Blacklist.Match)
		if answer != MatchExact && answer != MatchSubstring {
			util.Red.Println("Please answer exact or substring")
			continue
		}
		c.Blacklist.Match = answer
		break
	}
}

func ask(label, current string) string {
	util.Cyan.Printf("%s [%s] : ", label, current)
	if answer := util.ScanlineTrim(); answer != "" {
		return answer
	}
	return current
}
