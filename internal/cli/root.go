package cli

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dpogorelov/trackbot/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// App holds the wired services the CLI commands run against.
type App struct {
	Wizard service.WizardService
	Linker service.LinkService

	// Webhook is the inbound HTTP surface served by `trackbot serve`.
	Webhook    http.Handler
	ListenAddr string

	Log *slog.Logger

	// IsInteractive reports whether stdin is a terminal; the console
	// dialogue refuses to start without one.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "trackbot" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "trackbot",
		Short:         "Chat bot that logs work time to the issue tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Accept snake_case spellings of flag names.
	root.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	root.AddCommand(
		newServeCmd(app),
		newChatCmd(app),
		newLinkCmd(app),
		newRecentCmd(app),
	)

	return root
}
