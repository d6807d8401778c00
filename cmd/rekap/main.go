// Package main provides the batch CLI: merge report spreadsheets from disk, filter
// them and write the merged and filtered workbooks plus a chart summary.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/research-explorer/backend/internal/models"
	"github.com/research-explorer/backend/internal/parser"
	"github.com/research-explorer/backend/internal/report"
	"github.com/research-explorer/backend/internal/session"
	"github.com/spf13/cobra"
)

type options struct {
	outputDir     string
	schemaPath    string
	format        string
	pretty        bool
	proposalYear  []string
	executionYear []string
	focusArea     []string
	grantProgram  []string
	fundsMin      int64
	fundsMax      int64
	hasFundsMin   bool
	hasFundsMax   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "rekap [file.xlsx ...]",
		Short: "Merge research grant reports and summarize approved funds",
		Long: `rekap merges research grant report spreadsheets, applies optional filters and
writes data_gabungan.xlsx, data_filtered.xlsx and charts.json to the output directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.hasFundsMin = cmd.Flags().Changed("funds-min")
			opts.hasFundsMax = cmd.Flags().Changed("funds-max")
			return run(args, opts, cmd.OutOrStdout())
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.outputDir, "output", "o", ".", "Output directory")
	flags.StringVar(&opts.schemaPath, "schema", "", "Dataset schema YAML (default: built-in layout)")
	flags.StringVar(&opts.format, "format", "", "Read every file with this loader (xlsx, csv) instead of detecting it")
	flags.BoolVar(&opts.pretty, "pretty", false, "Pretty-print charts.json")
	flags.StringSliceVar(&opts.proposalYear, "proposal-year", nil, "Keep rows with these proposal years")
	flags.StringSliceVar(&opts.executionYear, "execution-year", nil, "Keep rows with these execution years")
	flags.StringSliceVar(&opts.focusArea, "focus-area", nil, "Keep rows with these focus areas")
	flags.StringSliceVar(&opts.grantProgram, "grant-program", nil, "Keep rows with these grant programs")
	flags.Int64Var(&opts.fundsMin, "funds-min", 0, "Minimum approved funds (inclusive)")
	flags.Int64Var(&opts.fundsMax, "funds-max", 0, "Maximum approved funds (inclusive)")

	return rootCmd
}

// criteria builds the filter from the flags on top of the full funds range.
func (o *options) criteria(base models.Criteria) (models.Criteria, error) {
	c := models.Criteria{Selections: make(map[models.Dimension][]string), Funds: base.Funds}
	for d, values := range map[models.Dimension][]string{
		models.DimensionProposalYear:  o.proposalYear,
		models.DimensionExecutionYear: o.executionYear,
		models.DimensionFocusArea:     o.focusArea,
		models.DimensionGrantProgram:  o.grantProgram,
	} {
		if len(values) > 0 {
			c.Selections[d] = values
		}
	}

	if o.hasFundsMin || o.hasFundsMax {
		r := *base.Funds
		if o.hasFundsMin {
			r.Min = o.fundsMin
		}
		if o.hasFundsMax {
			r.Max = o.fundsMax
		}
		if r.Min > r.Max {
			return c, fmt.Errorf("funds-min %d exceeds funds-max %d", r.Min, r.Max)
		}
		c.Funds = &r
	}
	return c, nil
}

type summary struct {
	Files    []models.FileResult  `json:"files"`
	Merged   int                  `json:"mergedRows"`
	Filtered int                  `json:"filteredRows"`
	Options  models.FilterOptions `json:"options"`
	Criteria models.Criteria      `json:"criteria"`
	Charts   []models.Chart       `json:"charts"`
}

func run(paths []string, opts *options, out io.Writer) error {
	schema, err := parser.LoadSchemaOrDefault(opts.schemaPath)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	registry := parser.GetGlobalRegistry()
	if opts.format != "" {
		if _, err := registry.GetLoaderByName(opts.format); err != nil {
			return err
		}
	}

	inputs := make([]parser.Input, 0, len(paths))
	for _, p := range paths {
		inputs = append(inputs, parser.Input{Name: filepath.Base(p), Path: p, Format: opts.format})
	}

	pipeline := &session.Pipeline{Registry: registry, Schema: schema}
	res, err := pipeline.Run(inputs, nil)
	if res != nil {
		for _, f := range res.Files {
			if f.Status == models.FileStatusLoaded {
				fmt.Fprintf(out, "%s: %d rows\n", f.Name, f.Rows)
			} else {
				fmt.Fprintf(out, "%s: %s\n", f.Name, f.Error)
			}
		}
	}
	if err != nil {
		if errors.Is(err, parser.ErrEmptyInput) {
			return fmt.Errorf("no valid files")
		}
		return err
	}
	fmt.Fprintf(out, "%d of %d file(s) merged\n", res.LoadedCount, len(paths))

	c, err := opts.criteria(parser.DefaultCriteria(res.Merged))
	if err != nil {
		return err
	}
	view := session.Query(res.Merged, c, schema)

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for name, t := range map[string]*models.Table{
		report.MergedFileName:   res.Merged,
		report.FilteredFileName: view.Filtered,
	} {
		data, err := report.ExportTable(t, schema)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(opts.outputDir, name), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	s := summary{
		Files:    res.Files,
		Merged:   res.Merged.Len(),
		Filtered: view.Filtered.Len(),
		Options:  res.Options,
		Criteria: view.Criteria,
		Charts:   view.Charts,
	}
	var jsonData []byte
	if opts.pretty {
		jsonData, err = json.MarshalIndent(s, "", "  ")
	} else {
		jsonData, err = json.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(opts.outputDir, "charts.json"), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Fprintf(out, "%d merged rows, %d after filter, written to %s\n", s.Merged, s.Filtered, opts.outputDir)
	return nil
}
