// Package cli is the siino command line. Each data command resumes the
// user's team, refreshes the cache and reads from it.
package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/clock"
	clientdomain "github.com/smallbiznis/siino/internal/client/domain"
	dashboarddomain "github.com/smallbiznis/siino/internal/dashboard/domain"
	"github.com/smallbiznis/siino/internal/export"
	invoicedomain "github.com/smallbiznis/siino/internal/invoice/domain"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var validFormats = []string{FormatText, FormatJSON}

type RootOptions struct {
	Verbose bool
	Format  string
	User    string
}

// Core is the part of the application graph the commands use.
type Core struct {
	fx.In

	Session   *session.Session
	Cache     *cache.Cache
	Clock     clock.Clock
	Clients   clientdomain.Service
	Invoices  invoicedomain.Service
	Dashboard dashboarddomain.Service
	Exporter  *export.Exporter
}

// Deps builds the core on demand so that commands like migrate do not start
// the whole graph.
type Deps struct {
	Open    func(ctx context.Context) (*Core, func(), error)
	Migrate func(ctx context.Context) error
}

func NewRootCommand(deps Deps) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "siino",
		Short:         "siino - team dashboard core",
		Long:          "Load a team's records into the cache and query invoices, clients and yearly totals.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.User, "user", os.Getenv("SIINO_USER"), "user id whose team is loaded")

	cmd.AddCommand(newRefreshCommand(opts, deps))
	cmd.AddCommand(newSummaryCommand(opts, deps))
	cmd.AddCommand(newNextNumberCommand(opts, deps))
	cmd.AddCommand(newExportCommand(opts, deps))
	cmd.AddCommand(newClientCommand(opts, deps))
	cmd.AddCommand(newMigrateCommand(opts, deps))

	return cmd
}

func printer(opts *RootOptions, cmd *cobra.Command) *Printer {
	return &Printer{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// withTeam opens the core, resumes the user's team and refreshes the cache
// before running fn.
func withTeam(cmd *cobra.Command, opts *RootOptions, deps Deps, fn func(ctx context.Context, core *Core, report cache.RefreshReport) error) error {
	if opts.User == "" {
		return WrapExitError(ExitCommandError, "missing user", fmt.Errorf("set --user or SIINO_USER"))
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	core, closeFn, err := deps.Open(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "start", err)
	}
	defer closeFn()

	if err := core.Session.Resume(ctx, opts.User); err != nil {
		return WrapExitError(ExitCommandError, "resume team", err)
	}
	report, err := core.Cache.RefreshAll(ctx, core.Session.TeamID())
	if err != nil {
		return WrapExitError(ExitFailure, "refresh", err)
	}
	p := printer(opts, cmd)
	for col, ferr := range report.Failed {
		p.Logf("warning: %s not refreshed: %v", col, ferr)
	}
	return fn(core.Session.Context(ctx), core, report)
}
