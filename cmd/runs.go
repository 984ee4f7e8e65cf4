package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/shell-match/internal/model"
	"github.com/sells-group/shell-match/internal/report"
	"github.com/sells-group/shell-match/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect matching run history",
	Long:  "Commands for listing, viewing, and re-exporting saved matching runs.",
}

// openRunStore opens the configured store and fails when it is disabled.
func openRunStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("run store is disabled (store.driver is none)")
	}
	return st, nil
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List matching runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openRunStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Source: source,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openRunStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs export --

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Regenerate the report of a saved run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openRunStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")

		path, err := exportRun(ctx, st, args[0], output, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Results written to %s\n", path)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (complete, failed)")
	runsListCmd.Flags().String("source", "", "filter by source (salesforce, sheet)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsExportCmd.Flags().StringP("output", "o", "", "output path (default: timestamped file in the current directory)")
	runsExportCmd.Flags().String("format", "xlsx", "xlsx or csv")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}

// exportRun writes the report of a completed run and returns the path.
func exportRun(ctx context.Context, st store.Store, id, output, format string) (string, error) {
	format = strings.ToLower(format)
	if format != "xlsx" && format != "csv" {
		return "", eris.Errorf("--format must be xlsx or csv, got %q", format)
	}

	run, err := st.GetRun(ctx, id)
	if err != nil {
		return "", eris.Wrap(err, "runs export")
	}
	if run.Status != model.RunStatusComplete {
		return "", eris.Errorf("run %s is %s and has no results", run.ID, run.Status)
	}

	if output == "" {
		output = report.Filename(run.CreatedAt, format)
	}
	if err := writeReportFile(output, format, report.FromRun(*run)); err != nil {
		return "", err
	}
	return output, nil
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tCUSTOMERS\tMATCHED\tFLAGGED\tINVALID\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t---------\t-------\t-------\t-------\t-------\t--------")

	for _, r := range runs {
		dur := ""
		if r.Status == model.RunStatusComplete {
			dur = r.Summary.ExecutionTime()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.Source,
			r.Status,
			r.Summary.TotalCustomers,
			r.Summary.Matched,
			r.Summary.FlaggedCustomers,
			r.Summary.InvalidCustomers,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
