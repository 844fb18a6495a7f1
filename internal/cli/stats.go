package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sequorlabs/sequor/internal/stats"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Database string
	Reset    bool
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Inspect or reset per-action success statistics",
		Long: `Show the persisted per-action success rates, or clear them.

Example:
  sequor stats --db ./sequor-stats.db
  sequor stats --db ./sequor-stats.db --reset`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite statistics database (required)")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "clear all recorded statistics")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	store, err := stats.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open statistics database", err)
	}
	defer store.Close()

	if opts.Reset {
		if err := store.Reset(); err != nil {
			return WrapExitError(ExitCommandError, "failed to reset statistics", err)
		}
		return formatter.Success("statistics cleared")
	}

	rows, err := store.All()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read statistics", err)
	}
	return formatter.Success(StatsReport{Rows: rows})
}

// StatsReport is the stats command's output payload.
type StatsReport struct {
	Rows []stats.Row `json:"rows"`
}

// String renders the human-readable table.
func (r StatsReport) String() string {
	if len(r.Rows) == 0 {
		return "no statistics recorded"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-32s %8s %8s\n", "ACTION", "RATE", "SAMPLES")
	for _, row := range r.Rows {
		fmt.Fprintf(&sb, "%-32s %8.3f %8d\n", row.ActionID, row.Rate, row.Samples)
	}
	return strings.TrimRight(sb.String(), "\n")
}
