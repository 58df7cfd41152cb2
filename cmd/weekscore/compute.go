package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/arnavshah/weekly-score-api/internal/config"
	"github.com/arnavshah/weekly-score-api/pkg/scoring"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type computeFlags struct {
	file   string
	asJSON bool
}

func newComputeCmd() *cobra.Command {
	f := &computeFlags{}

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Score the week described in a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paramsPath, _ := cmd.Flags().GetString("params")
			return runCompute(cmd.OutOrStdout(), f, paramsPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "Week file (YAML)")
	flags.BoolVar(&f.asJSON, "json", false, "Print the full breakdown as JSON")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// loadWeek reads a week file. A missing base_minutes means the default week.
func loadWeek(path string) (scoring.Week, error) {
	var w scoring.Week
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("failed to read week %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("failed to parse week %s: %w", path, err)
	}
	if w.BaseMinutes == 0 {
		w.BaseMinutes = config.DefaultBaseWeekMinutes
	}
	return w, nil
}

func runCompute(out io.Writer, f *computeFlags, paramsPath string) error {
	params, err := config.LoadParams(paramsPath)
	if err != nil {
		return err
	}
	calc, err := scoring.NewCalculator(params)
	if err != nil {
		return err
	}
	w, err := loadWeek(f.file)
	if err != nil {
		return err
	}

	b := calc.Compute(w)
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Breakdown scoring.Breakdown `json:"breakdown"`
			Terms     []scoring.Term    `json:"terms"`
		}{b, b.Terms()})
	}
	return renderBreakdown(out, b)
}

func renderBreakdown(out io.Writer, b scoring.Breakdown) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "capacity\t%.0f min\t(base %.0f, leave %.0f)\n", b.TAllow, b.BaseMinutes, b.LeaveMinutes)
	fmt.Fprintf(tw, "worked\t%.0f min\t(planned %.0f, unplanned %.0f)\n", b.TotalActual, b.SumActualPlanned, b.UnplannedMinutes)
	fmt.Fprintf(tw, "overtime used\t%.0f min\tof %.0f\n", b.OvertimeUsed, b.OvertimeMinutes)
	fmt.Fprintln(tw)

	if len(b.Items) > 0 {
		fmt.Fprintln(tw, "goal\ttarget\tactual\tdone\tefficiency\tcontribution")
		for _, it := range b.Items {
			fmt.Fprintf(tw, "%s\t%.0f\t%.0f\t%t\t%.2f\t%.2f%%\n",
				it.Name, it.TargetMinutes, it.ActualMinutes, it.IsCompleted,
				scoring.Round(it.Efficiency, 2), scoring.Round(it.Contribution, 2))
		}
		fmt.Fprintln(tw)
	}

	for _, t := range b.Terms() {
		fmt.Fprintf(tw, "%s\t%+.2f%%\n", t.Label, t.Percent)
	}
	fmt.Fprintf(tw, "score\t%.2f\n", scoring.Round(b.Score, 2))
	return tw.Flush()
}
