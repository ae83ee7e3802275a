package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"energy_dashboard/internal/chart"
)

var (
	chartSamples int
	chartJSON    bool
)

var chartCmd = &cobra.Command{
	Use:       "chart <family>",
	Short:     "Print synthetic history for a chart family",
	Long:      `Print hourly history for one of: voltage, current, power, thd.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"voltage", "current", "power", "thd"},
	RunE:      runChart,
}

func init() {
	chartCmd.Flags().IntVarP(&chartSamples, "samples", "n", chart.DefaultSamples, "Number of hourly samples")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "Print the chart as JSON")
}

func runChart(cmd *cobra.Command, args []string) error {
	family, err := chart.ParseFamily(args[0])
	if err != nil {
		return fmt.Errorf("%w: %q", err, args[0])
	}
	if chartSamples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", chartSamples)
	}

	c, err := chart.Generate(family, chartSamples)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if chartJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	fmt.Fprintln(out, c.Title)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "TIME\t%s\n", strings.Join(c.Order, "\t"))
	for i, label := range c.Labels {
		row := make([]string, len(c.Order))
		for j, name := range c.Order {
			row[j] = strconv.FormatFloat(c.Series[name][i], 'f', 2, 64)
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
