package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aristath/portsort/internal/database"
	"github.com/aristath/portsort/internal/modules/sorting"
	"github.com/aristath/portsort/internal/sample"
	"github.com/aristath/portsort/internal/utils"
)

type sourceFlags struct {
	file    string
	sheet   string
	db      string
	table   string
	columns string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "Sample file (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet name for .xlsx files (default: first sheet)")
	cmd.Flags().StringVar(&f.db, "db", "", "SQLite sample database")
	cmd.Flags().StringVar(&f.table, "table", "", "Table to read from --db")
	cmd.Flags().StringVar(&f.columns, "columns", "", "Comma-separated columns to read from --table (default: all)")
}

func (f *sourceFlags) load(ctx context.Context) (*sample.Table, error) {
	switch {
	case f.file != "" && f.db != "":
		return nil, fmt.Errorf("--file and --db are mutually exclusive")
	case f.file != "":
		if strings.EqualFold(filepath.Ext(f.file), ".xlsx") {
			return sample.ReadXLSX(f.file, f.sheet)
		}
		fh, err := os.Open(f.file)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		return sample.ReadCSV(fh)
	case f.db != "":
		if f.table == "" {
			return nil, fmt.Errorf("--table is required with --db")
		}
		db, err := database.New(database.Config{Path: f.db, Name: "samples"})
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return sample.LoadSQLite(ctx, db, f.table, utils.ParseCSV(f.columns))
	default:
		return nil, fmt.Errorf("one of --file or --db is required")
	}
}

// parseSortFlag parses "name", "name=30,70" (percentiles) or "name/4" (cut count).
func parseSortFlag(value string) (sorting.CharacteristicSpec, error) {
	value = strings.TrimSpace(value)
	if name, cuts, ok := strings.Cut(value, "/"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cuts))
		if err != nil {
			return sorting.CharacteristicSpec{}, fmt.Errorf("invalid cut count in %q: %w", value, err)
		}
		return sorting.CharacteristicSpec{Name: strings.TrimSpace(name), Cuts: &n}, nil
	}

	name, list, ok := strings.Cut(value, "=")
	spec := sorting.CharacteristicSpec{Name: strings.TrimSpace(name)}
	if spec.Name == "" {
		return spec, fmt.Errorf("missing characteristic name in %q", value)
	}
	if !ok {
		return spec, nil
	}

	spec.Percentiles = sorting.PercentileSpec{}
	for _, part := range utils.ParseCSV(list) {
		p, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return spec, fmt.Errorf("%w: %q is not a number", sorting.ErrInvalidSpecFormat, part)
		}
		spec.Percentiles = append(spec.Percentiles, p)
	}
	return spec, nil
}

func newRunCmd() *cobra.Command {
	var (
		src       sourceFlags
		sorts     []string
		outcome   string
		weight    string
		exclusive bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sort a sample and report average outcomes per portfolio",
		Example: `  portsort run --file firms.csv --sort size=30,70 --sort bm/4 --outcome ret
  portsort run --db samples.db --table firms --sort size --outcome ret --weight mcap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := sorting.Request{Outcome: outcome, Weight: weight, Exclusive: exclusive}
			for _, s := range sorts {
				spec, err := parseSortFlag(s)
				if err != nil {
					return err
				}
				req.Characteristics = append(req.Characteristics, spec)
			}

			tbl, err := src.load(cmd.Context())
			if err != nil {
				return err
			}

			res, err := sorting.NewService(log.Logger).Run(tbl, req)
			if err != nil {
				return err
			}

			if asJSON {
				return writeResultJSON(cmd.OutOrStdout(), res)
			}
			return writeResultTable(cmd.OutOrStdout(), res)
		},
	}

	src.register(cmd)
	cmd.Flags().StringArrayVar(&sorts, "sort", nil, "Characteristic to sort on: name, name=p1,p2,... or name/cuts (repeatable)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Outcome column to average")
	cmd.Flags().StringVar(&weight, "weight", "", "Weight column for value-weighted averages")
	cmd.Flags().BoolVar(&exclusive, "exclusive", false, "Assign interior-breakpoint ties to the lower bucket only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("sort")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}

func newBreakpointsCmd() *cobra.Command {
	var (
		src   sourceFlags
		sorts []string
	)

	cmd := &cobra.Command{
		Use:   "breakpoints",
		Short: "Print percentile breakpoints of characteristics",
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := make([]sorting.CharacteristicSpec, 0, len(sorts))
			for _, s := range sorts {
				spec, err := parseSortFlag(s)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}

			tbl, err := src.load(cmd.Context())
			if err != nil {
				return err
			}
			bps, err := sorting.Breakpoints(tbl, specs)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHARACTERISTIC\tPERCENTILE\tBREAKPOINT")
			for _, set := range bps.Sets() {
				for i, p := range set.Percentiles {
					fmt.Fprintf(tw, "%s\t%g\t%.6g\n", set.Characteristic, p, set.Values[i])
				}
			}
			return tw.Flush()
		},
	}

	src.register(cmd)
	cmd.Flags().StringArrayVar(&sorts, "sort", nil, "Characteristic: name, name=p1,p2,... or name/cuts (repeatable)")
	_ = cmd.MarkFlagRequired("sort")
	return cmd
}

func writeResultTable(w io.Writer, res *sorting.Result) error {
	avg := res.Averages
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PORTFOLIO\t%s\tN\tAVERAGE\n", strings.ToUpper(strings.Join(res.Breakpoints.Names(), "x")))
	for j, v := range avg.Values {
		cell := make([]string, len(avg.Cells[j]))
		for i, c := range avg.Cells[j] {
			cell[i] = strconv.Itoa(c)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.6g\n", j+1, strings.Join(cell, "x"), avg.Counts[j], v)
	}
	fmt.Fprintf(tw, "HML\t\t\t%.6g\n", avg.HML)
	return tw.Flush()
}

func writeResultJSON(w io.Writer, res *sorting.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"breakpoints": res.Breakpoints.Sets(),
		"averages":    res.Averages,
	})
}
