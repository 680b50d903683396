package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nhle/habit-calendar/internal/credential"
	"github.com/nhle/habit-calendar/internal/session"
)

// LoginOptions carry the session values; missing ones are prompted for.
type LoginOptions struct {
	Owner string
	Token string
}

func addLogin(topLevel *cobra.Command, ro *RootOptions) {
	lo := &LoginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the owner id and access token in the OS keyring.",
		Example: `
habitcal login
habitcal login --as 2b7c... --token eyJhbGciOi...
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lo.Owner == "" {
				lo.Owner = ro.Owner
			}
			if lo.Owner == "" {
				if err := promptLogin(lo); err != nil {
					return err
				}
			}

			creds, err := credential.Open()
			if err != nil {
				return err
			}
			s := session.Session{OwnerID: strings.TrimSpace(lo.Owner), Token: strings.TrimSpace(lo.Token)}
			if s.Token != "" {
				exp, err := session.Expiry(s.Token)
				if err != nil {
					return fmt.Errorf("reading token: %w", err)
				}
				s.ExpiresAt = exp
			}
			if err := session.NewKeyringProvider(creds, nil).Save(s); err != nil {
				return err
			}

			msg := fmt.Sprintf("Logged in as %s", s.OwnerID)
			if !s.ExpiresAt.IsZero() {
				msg += faint(fmt.Sprintf(" (token expires %s)", s.ExpiresAt.Local().Format("2006-01-02 15:04")))
			}
			fmt.Fprintln(color.Output, msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&lo.Owner, "as", "", "Owner id to act as.")
	cmd.Flags().StringVar(&lo.Token, "token", "", "Access token issued for the owner (optional).")
	topLevel.AddCommand(cmd)
}

func promptLogin(lo *LoginOptions) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Owner id").
				Value(&lo.Owner).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("owner id is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Access token").
				Description("Leave empty for a local-only store.").
				EchoMode(huh.EchoModePassword).
				Value(&lo.Token),
		),
	)
	return form.Run()
}

func addLogout(topLevel *cobra.Command, ro *RootOptions) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credential.Open()
			if err != nil {
				return err
			}
			if err := session.NewKeyringProvider(creds, nil).Logout(); err != nil {
				return err
			}
			fmt.Fprintln(color.Output, "Logged out")
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
