package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/smallbiznis/siino/internal/cache"
	dashboarddomain "github.com/smallbiznis/siino/internal/dashboard/domain"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/spf13/cobra"
)

type refreshResult struct {
	TeamID string         `json:"team_id"`
	Loaded map[string]int `json:"loaded"`
	Failed []string       `json:"failed,omitempty"`
}

func (r refreshResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Team %s refreshed\n", r.TeamID)
	for _, col := range entity.CachedCollections {
		if n, ok := r.Loaded[string(col)]; ok {
			fmt.Fprintf(&b, "  %-18s %d\n", col, n)
		}
	}
	for _, col := range r.Failed {
		fmt.Fprintf(&b, "  %-18s failed\n", col)
	}
	return b.String()
}

func newRefreshCommand(opts *RootOptions, deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:           "refresh",
		Short:         "Load every collection of the user's team",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd, opts, deps, func(_ context.Context, _ *Core, report cache.RefreshReport) error {
				res := refreshResult{TeamID: report.TeamID, Loaded: make(map[string]int, len(report.Loaded))}
				for col, n := range report.Loaded {
					res.Loaded[string(col)] = n
				}
				for _, col := range entity.CachedCollections {
					if _, failed := report.Failed[col]; failed {
						res.Failed = append(res.Failed, string(col))
					}
				}
				if err := printer(opts, cmd).Success(res); err != nil {
					return err
				}
				if !report.OK() {
					return &ExitError{Code: ExitFailure, Message: "refresh incomplete"}
				}
				return nil
			})
		},
	}
}

type summaryResult struct {
	dashboarddomain.Summary
}

func (r summaryResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary %d\n", r.Year)
	fmt.Fprintf(&b, "  %-18s %12s  (%d paid)\n", "Income", r.Income.StringFixed(2), r.PaidInvoices)
	fmt.Fprintf(&b, "  %-18s %12s  (%d unpaid)\n", "Outstanding", r.Outstanding.StringFixed(2), r.UnpaidInvoices)
	fmt.Fprintf(&b, "  %-18s %12s  (%d)\n", "Expenses", r.Expenses.StringFixed(2), r.ExpenseCount)
	fmt.Fprintf(&b, "  %-18s %12s\n", "Net", r.Net.StringFixed(2))
	fmt.Fprintf(&b, "  %-18s %12d\n", "Active projects", r.ActiveProjects)
	fmt.Fprintf(&b, "  %-18s %12d\n", "Pending tasks", r.PendingTasks)
	fmt.Fprintf(&b, "  %-18s %12d\n", "Upcoming bookings", len(r.UpcomingBookings))
	for _, bk := range r.UpcomingBookings {
		fmt.Fprintf(&b, "    %s  %s\n", bk.StartTime.Format("2006-01-02 15:04"), bk.Title)
	}
	return b.String()
}

func newSummaryCommand(opts *RootOptions, deps Deps) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:           "summary",
		Short:         "Print the yearly income, outstanding and expense totals",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd, opts, deps, func(ctx context.Context, core *Core, _ cache.RefreshReport) error {
				sum, err := core.Dashboard.Summary(ctx, year)
				if err != nil {
					return WrapExitError(ExitFailure, "summary", err)
				}
				return printer(opts, cmd).Success(summaryResult{sum})
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "issue year (defaults to the current year)")
	return cmd
}

type numberResult struct {
	Number string `json:"invoice_number"`
}

func (r numberResult) String() string { return r.Number + "\n" }

func newNextNumberCommand(opts *RootOptions, deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:           "next-number",
		Short:         "Print the next invoice number for the current year",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd, opts, deps, func(ctx context.Context, core *Core, _ cache.RefreshReport) error {
				number, err := core.Invoices.NextNumber(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "next number", err)
				}
				return printer(opts, cmd).Success(numberResult{Number: number})
			})
		},
	}
}

type exportResult struct {
	Year  int    `json:"year"`
	Count int    `json:"count"`
	Path  string `json:"path"`
}

func (r exportResult) String() string {
	return fmt.Sprintf("Exported %d invoices for %d to %s\n", r.Count, r.Year, r.Path)
}

func newExportCommand(opts *RootOptions, deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write spreadsheet reports",
	}

	var (
		year int
		out  string
	)
	invoices := &cobra.Command{
		Use:           "invoices",
		Short:         "Write a year's invoices to an xlsx workbook",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd, opts, deps, func(ctx context.Context, core *Core, _ cache.RefreshReport) error {
				if year == 0 {
					year = core.Clock.Now().Year()
				}
				path := out
				if path == "" {
					path = fmt.Sprintf("invoices-%d.xlsx", year)
				}
				f, err := os.Create(path)
				if err != nil {
					return WrapExitError(ExitCommandError, "create output", err)
				}
				n, err := core.Exporter.Invoices(ctx, year, f)
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					_ = os.Remove(path)
					return WrapExitError(ExitFailure, "export", err)
				}
				return printer(opts, cmd).Success(exportResult{Year: year, Count: n, Path: path})
			})
		},
	}
	invoices.Flags().IntVar(&year, "year", 0, "issue year (defaults to the current year)")
	invoices.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.AddCommand(invoices)
	return cmd
}

type canDeleteResult struct {
	ClientID string `json:"client_id"`
	Allowed  bool   `json:"allowed"`
	Projects int    `json:"projects"`
	Invoices int    `json:"invoices"`
	Reason   string `json:"reason,omitempty"`
}

func (r canDeleteResult) String() string {
	if r.Allowed {
		return fmt.Sprintf("Client %s can be deleted.\n", r.ClientID)
	}
	return r.Reason + "\n"
}

func newClientCommand(opts *RootOptions, deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Client checks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:           "can-delete <client-id>",
		Short:         "Report whether a client has projects or invoices",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTeam(cmd, opts, deps, func(ctx context.Context, core *Core, _ cache.RefreshReport) error {
				verdict, err := core.Clients.CanDelete(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "can delete", err)
				}
				return printer(opts, cmd).Success(canDeleteResult{
					ClientID: args[0],
					Allowed:  verdict.Allowed,
					Projects: verdict.Projects,
					Invoices: verdict.Invoices,
					Reason:   verdict.Reason(),
				})
			})
		},
	})
	return cmd
}

type messageResult struct {
	Message string `json:"message"`
}

func (r messageResult) String() string { return r.Message + "\n" }

func newMigrateCommand(opts *RootOptions, deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the database schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := deps.Migrate(ctx); err != nil {
				return WrapExitError(ExitFailure, "migrate", err)
			}
			return printer(opts, cmd).Success(messageResult{Message: "Schema up to date"})
		},
	}
}
