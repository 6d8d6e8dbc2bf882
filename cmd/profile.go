package cmd

import (
	"strconv"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/ryan-gang/mailqueue/internal/cmdutil"
	"github.com/ryan-gang/mailqueue/internal/config"
	"github.com/ryan-gang/mailqueue/internal/profile"
	"github.com/ryan-gang/mailqueue/internal/util"
	"github.com/spf13/cobra"
)

func init() {
	profileDeleteCmd.Flags().BoolP("yes", "y", false, "Delete without asking")
	profileCmd.AddCommand(profileAddCmd, profileEditCmd, profileDeleteCmd, profileListCmd, profileShowCmd, profileUseCmd)
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage SMTP profiles",
	Long: `A profile is a named set of SMTP credentials: server, port, username
and password. The username is also the From address of every message.`,
	Example: dedent.Dedent(`
		# Store credentials for a mailbox
		mailqueue profile add work

		# Make it the profile 'send' uses
		mailqueue profile use work

		# List stored profiles
		mailqueue profile list`,
	),
}

var profileAddCmd = &cobra.Command{
	Use:   "add [NAME]",
	Short: "Add a profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		var p profile.Profile
		if len(args) == 1 {
			p.Name = args[0]
		}
		if p.Name == "" {
			p.Name = askRequired("Profile name")
		}
		if _, err := a.Profiles.Get(p.Name); err == nil {
			util.Red.Printf("Profile %q already exists, use 'mailqueue profile edit %s'\n", p.Name, p.Name)
			fail()
			return
		}

		promptProfile(&p)
		if err := a.Profiles.Save(p); err != nil {
			util.LogError(util.ProfileError, "saving profile", err)
			fail()
			return
		}
		util.Green.Printf("Profile %s saved\n", p.Name)

		if a.Config.DefaultProfile == "" {
			setDefaultProfile(a.Config, p.Name)
		}
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit NAME",
	Short: "Edit a profile, empty answers keep the current value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		p, err := a.Profiles.Get(args[0])
		if err != nil {
			util.LogError(util.ProfileError, "loading profile", err)
			fail()
			return
		}

		promptProfile(&p)
		if err := a.Profiles.Save(p); err != nil {
			util.LogError(util.ProfileError, "saving profile", err)
			fail()
			return
		}
		util.Green.Printf("Profile %s updated\n", p.Name)
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		name := args[0]
		if _, err := a.Profiles.Get(name); err != nil {
			util.LogError(util.ProfileError, "deleting profile", err)
			fail()
			return
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !util.Confirm("Delete profile "+name+"?") {
			util.Cyan.Println("Nothing deleted")
			return
		}

		if err := a.Profiles.Delete(name); err != nil {
			util.LogError(util.ProfileError, "deleting profile", err)
			fail()
			return
		}
		util.Green.Printf("Profile %s deleted\n", name)

		if a.Config.DefaultProfile == name {
			setDefaultProfile(a.Config, "")
		}
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles, the default one is marked with *",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		profiles := a.Profiles.List()
		if len(profiles) == 0 {
			util.Cyan.Println("No profiles saved, add one with 'mailqueue profile add'")
			return
		}
		for _, p := range profiles {
			marker := " "
			if p.Name == a.Config.DefaultProfile {
				marker = "*"
			}
			util.Cyan.Printf("%s %-16s %s <%s>\n", marker, p.Name, p.Address(), p.Username)
		}
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show a profile with the password masked",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		p, err := a.Profiles.Get(args[0])
		if err != nil {
			util.LogError(util.ProfileError, "loading profile", err)
			fail()
			return
		}
		util.CyanBold.Println(p.Name)
		util.Cyan.Printf("Server:   %s\n", p.Server)
		util.Cyan.Printf("Port:     %d\n", p.Port)
		util.Cyan.Printf("Username: %s\n", p.Username)
		util.Cyan.Printf("Password: %s\n", strings.Repeat("*", len(p.Password)))
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use NAME",
	Short: "Make NAME the default profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := cmdutil.OpenAppOrExit(cmd)
		if a == nil {
			fail()
			return
		}
		defer a.Close()

		if _, err := a.Profiles.Get(args[0]); err != nil {
			util.LogError(util.ProfileError, "selecting profile", err)
			fail()
			return
		}
		setDefaultProfile(a.Config, args[0])
	},
}

// promptProfile asks for every field, offering the current value as default.
// An empty password answer keeps the stored password.
func promptProfile(p *profile.Profile) {
	p.Server = askDefault("SMTP server", p.Server)

	for {
		current := ""
		if p.Port != 0 {
			current = strconv.Itoa(p.Port)
		}
		port, err := strconv.Atoi(askDefault("SMTP port (465 for TLS, 587 for STARTTLS)", current))
		if err != nil || port <= 0 || port > 65535 {
			util.Red.Println("Entered port is not valid, please try again")
			continue
		}
		p.Port = port
		break
	}

	p.Username = askDefault("Username (also the From address)", p.Username)

	util.Cyan.Print("Password (input hidden")
	if p.Password != "" {
		util.Cyan.Print(", empty keeps the current one")
	}
	util.Cyan.Print("): ")
	if pw := util.ScanPassword(); pw != "" {
		p.Password = pw
	}
}

func askDefault(label, current string) string {
	if current != "" {
		util.Cyan.Printf("%s [%s] : ", label, current)
	} else {
		util.Cyan.Printf("%s : ", label)
	}
	if answer := util.ScanlineTrim(); answer != "" {
		return answer
	}
	return current
}

func askRequired(label string) string {
	for {
		util.Cyan.Printf("%s : ", label)
		if answer := util.ScanlineTrim(); answer != "" {
			return answer
		}
		util.Red.Println("A value is required")
	}
}

func setDefaultProfile(cfg *config.Config, name string) {
	cfg.DefaultProfile = name
	if err := config.Save(cfg); err != nil {
		util.LogError(util.ConfigError, "saving default profile", err)
		fail()
		return
	}
	if name == "" {
		util.Cyan.Println("Default profile cleared")
		return
	}
	util.Green.Printf("Default profile is now %s\n", name)
}
