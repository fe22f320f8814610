// outletctl computes outlet trends and narratives from an exported
// workbook, without the database.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"outlet-insights-go/internal/actionable"
	"outlet-insights-go/internal/aggregator"
	"outlet-insights-go/internal/dataset"
	"outlet-insights-go/internal/narrative"
	"outlet-insights-go/internal/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "outletctl",
		Short:        "Outlet sales trends and insights from an .xlsx export",
		SilenceUsage: true,
	}
	root.AddCommand(newTrendsCmd(), newSummaryCmd(), newNotesCmd(), newInspectCmd())
	return root
}

func loadOutlet(file, outlet string) (dataset.Workbook, error) {
	w, err := dataset.Load(file)
	if err != nil {
		return dataset.Workbook{}, err
	}
	if outlet == "" {
		return w, nil
	}
	w = w.ForOutlet(outlet)
	if len(w.Sales) == 0 && len(w.Trades) == 0 {
		return dataset.Workbook{}, fmt.Errorf("no rows for outlet %q in %s", outlet, file)
	}
	return w, nil
}

func newTrendsCmd() *cobra.Command {
	var file, outlet string
	var fields []string
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Compare the last 7 sales days with the 7 before",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadOutlet(file, outlet)
			if err != nil {
				return err
			}
			if len(fields) == 0 {
				fields = w.Fields
			} else {
				for i, f := range fields {
					fields[i] = types.FieldKey(f)
				}
			}
			return printTrends(cmd.OutOrStdout(), aggregator.WeeklyTrends(w.Sales, fields...))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "workbook path (.xlsx)")
	cmd.Flags().StringVarP(&outlet, "outlet", "o", "", "outlet name")
	cmd.Flags().StringSliceVar(&fields, "field", nil, "volume field (repeatable, default all)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("outlet")
	return cmd
}

func printTrends(out io.Writer, trends []aggregator.WeeklyComparison) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "FIELD\tPREVIOUS\tLAST\tCHANGE\t")
	for _, t := range trends {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%+.1f%%\t\n", t.Field, t.PreviousWeek, t.LastWeek, t.Change)
	}
	return tw.Flush()
}

func newSummaryCmd() *cobra.Command {
	var file, outlet, profilePath string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the product growth table and narrative summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := narrative.DefaultProfile()
			if profilePath != "" {
				p, err := narrative.LoadProfile(profilePath)
				if err != nil {
					return err
				}
				profile = p
			}
			w, err := loadOutlet(file, outlet)
			if err != nil {
				return err
			}
			growth := aggregator.RankByVolume(aggregator.BuildGrowth(w.Trades))

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PRODUCT\tVOLUME\tFIRST\tLAST\tGROWTH")
			for _, g := range growth {
				fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t%+.1f%%\n", g.Name, g.Volume, g.FirstValue, g.LastValue, g.GrowthPercent)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			text, err := narrative.Summarize(narrative.FromGrowth(growth, len(aggregator.Periods(w.Trades))), profile)
			if err != nil {
				text = narrative.NoDataText
			}
			_, err = fmt.Fprintf(out, "\n%s\n", text)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "workbook path (.xlsx)")
	cmd.Flags().StringVarP(&outlet, "outlet", "o", "", "outlet name")
	cmd.Flags().StringVar(&profilePath, "profile", "", "narrative profile (YAML)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("outlet")
	return cmd
}

func newNotesCmd() *cobra.Command {
	var outlet string
	cmd := &cobra.Command{
		Use:   "notes [flags] -- [line...]",
		Short: "Parse a visit note into action items (JSON)",
		Long: `Parse a visit note into action items (JSON).

Each argument is one line of the note. Put the note after "--" so that
bullet lines such as "- Book tap clean" are not read as flags. With no
arguments the note is read from stdin.`,
		Example: `  outletctl notes --outlet Grogans -- "- Book tap clean; [x] Called owner"
  pbpaste | outletctl notes --outlet Grogans`,
		RunE: func(cmd *cobra.Command, args []string) error {
			note := strings.Join(args, "\n")
			if len(args) == 0 {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read note: %w", err)
				}
				note = string(raw)
			}
			records := actionable.FromNote(note, aggregator.NewScope(outlet, time.Now(), time.Local))
			if len(records) == 0 {
				return fmt.Errorf("note contains no actions")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}
	cmd.Flags().StringVarP(&outlet, "outlet", "o", "", "outlet name")
	_ = cmd.MarkFlagRequired("outlet")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the outlets and fields in a workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := dataset.Load(file)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dataset.Describe(w))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "workbook path (.xlsx)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
