package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dpogorelov/trackbot/internal/domain"
	"github.com/spf13/cobra"
)

func newLinkCmd(app *App) *cobra.Command {
	var sessionID, apiKey string

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link a tracker API key to a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				if app.IsInteractive != nil && !app.IsInteractive() {
					return fmt.Errorf("--key is required outside an interactive terminal")
				}
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().
						Title("Tracker API key").
						Description("Found under My account on the tracker.").
						EchoMode(huh.EchoModePassword).
						Value(&apiKey).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return fmt.Errorf("the key cannot be empty")
							}
							return nil
						}),
				))
				if err := form.Run(); err != nil {
					return err
				}
			}

			link, err := app.Linker.Link(context.Background(), sessionID, strings.TrimSpace(apiKey))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked as %s\n", link.TrackerLogin)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "console", "Session id to link the key to")
	cmd.Flags().StringVar(&apiKey, "key", "", "Tracker API key (prompted when omitted)")

	cmd.AddCommand(newLinkStatusCmd(app), newLinkRemoveCmd(app))

	return cmd
}

func newLinkStatusCmd(app *App) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the linked tracker account",
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := app.Linker.Status(context.Background(), sessionID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "Not linked.")
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked as %s since %s\n", link.TrackerLogin, link.LinkedAt.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "console", "Session id")

	return cmd
}

func newLinkRemoveCmd(app *App) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Forget the linked key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Linker.Unlink(context.Background(), sessionID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Key removed.")
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "console", "Session id")

	return cmd
}
