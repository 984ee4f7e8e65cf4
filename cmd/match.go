package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shell-match/internal/pipeline"
	"github.com/sells-group/shell-match/internal/report"
	"github.com/sells-group/shell-match/internal/sheet"
)

// matchOptions are the flags of the match command.
type matchOptions struct {
	Customers     string
	Shells        string
	Source        string
	CustomerSheet string
	ShellSheet    string
	IDColumn      string
	Assess        bool
	Output        string
	Format        string
}

var matchOpts matchOptions

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a customer file against a shell file and export the results",
	Long: `Reads two spreadsheets (xlsx or csv). With --source sheet they hold full
records; with --source salesforce they hold Account IDs that are fetched from
Salesforce. The results are written as an xlsx or csv report.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts := matchOpts
		if err := opts.validate(); err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, envOptions{
			RequireSalesforce: opts.Source == pipeline.SourceSalesforce,
			Assess:            opts.Assess,
		})
		if err != nil {
			return err
		}
		defer env.Close()

		return runMatch(ctx, env.Pipeline, opts, os.Stdout)
	},
}

func init() {
	f := matchCmd.Flags()
	f.StringVar(&matchOpts.Customers, "customers", "", "customer spreadsheet (xlsx or csv)")
	f.StringVar(&matchOpts.Shells, "shells", "", "shell spreadsheet (xlsx or csv)")
	f.StringVar(&matchOpts.Source, "source", pipeline.SourceSheet, "where records come from: sheet or salesforce")
	f.StringVar(&matchOpts.CustomerSheet, "customer-sheet", "", "sheet name in the customer file (default: first sheet)")
	f.StringVar(&matchOpts.ShellSheet, "shell-sheet", "", "sheet name in the shell file (default: first sheet)")
	f.StringVar(&matchOpts.IDColumn, "id-column", "Id", "Account ID column header (salesforce source)")
	f.BoolVar(&matchOpts.Assess, "assess", false, "add an LLM assessment for each matched pair")
	f.StringVarP(&matchOpts.Output, "output", "o", "", "output path (default: timestamped file in the current directory)")
	f.StringVar(&matchOpts.Format, "format", "", "xlsx or csv (default: from --output extension, else xlsx)")
	_ = matchCmd.MarkFlagRequired("customers")
	_ = matchCmd.MarkFlagRequired("shells")
	rootCmd.AddCommand(matchCmd)
}

func (o *matchOptions) validate() error {
	switch o.Source {
	case pipeline.SourceSheet, pipeline.SourceSalesforce:
	default:
		return eris.Errorf("--source must be %s or %s", pipeline.SourceSheet, pipeline.SourceSalesforce)
	}
	if o.Format == "" {
		o.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(o.Output)), ".")
	}
	switch o.Format {
	case "":
		o.Format = "xlsx"
	case "xlsx", "csv":
	default:
		return eris.Errorf("--format must be xlsx or csv, got %q", o.Format)
	}
	return nil
}

// runMatch loads both files, runs the pipeline and writes the report.
func runMatch(ctx context.Context, p *pipeline.Pipeline, opts matchOptions, out io.Writer) error {
	start := time.Now()

	customerWB, err := openWorkbook(opts.Customers)
	if err != nil {
		return err
	}
	shellWB, err := openWorkbook(opts.Shells)
	if err != nil {
		return err
	}

	var res *pipeline.Result
	switch opts.Source {
	case pipeline.SourceSalesforce:
		customerIDs, err := sheet.ExtractIDs(customerWB, opts.CustomerSheet, opts.IDColumn)
		if err != nil {
			return eris.Wrap(err, "read customer IDs")
		}
		shellIDs, err := sheet.ExtractIDs(shellWB, opts.ShellSheet, opts.IDColumn)
		if err != nil {
			return eris.Wrap(err, "read shell IDs")
		}
		res, err = p.Process(ctx, pipeline.Request{
			CustomerIDs:    customerIDs.IDs,
			ShellIDs:       shellIDs.IDs,
			SkipAssessment: !opts.Assess,
		})
		if err != nil {
			return eris.Wrap(err, "match")
		}
	default:
		customers, err := sheet.ReadCustomers(customerWB, opts.CustomerSheet)
		if err != nil {
			return eris.Wrap(err, "read customers")
		}
		shells, err := sheet.ReadShells(shellWB, opts.ShellSheet)
		if err != nil {
			return eris.Wrap(err, "read shells")
		}
		res, err = p.ProcessRecords(ctx, pipeline.Records{
			Customers:      customers,
			Shells:         shells,
			Source:         pipeline.SourceSheet,
			SkipAssessment: !opts.Assess,
		})
		if err != nil {
			return eris.Wrap(err, "match")
		}
	}

	path := opts.Output
	if path == "" {
		path = report.Filename(res.Report.GeneratedAt, opts.Format)
	}
	if err := writeReportFile(path, opts.Format, res.Report); err != nil {
		return err
	}

	zap.L().Info("match complete",
		zap.String("output", path),
		zap.String("run_id", res.RunID),
		zap.Duration("elapsed", time.Since(start)),
	)
	_, _ = fmt.Fprintln(out, report.SummaryLine(res.Report.Summary))
	_, _ = fmt.Fprintf(out, "Results written to %s\n", path)
	if res.RunID != "" {
		_, _ = fmt.Fprintf(out, "Run ID: %s\n", res.RunID)
	}
	return nil
}

func openWorkbook(path string) (*sheet.Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	wb, err := sheet.Open(data, path)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	return wb, nil
}

// writeReportFile writes r to path in the given format.
func writeReportFile(path, format string, r report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if format == "csv" {
		err = report.WriteCSV(f, r)
	} else {
		err = report.WriteXLSX(f, r)
	}
	if err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "write %s", path)
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}
