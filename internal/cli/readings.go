package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ogulcanaydogan/binwatch/pkg/model"
)

var readingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "Record and inspect fill-level telemetry",
}

var readingsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a fill-level reading manually",
	RunE:  runReadingsAdd,
}

var readingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded readings",
	RunE:  runReadingsList,
}

func init() {
	rootCmd.AddCommand(readingsCmd)
	readingsCmd.AddCommand(readingsAddCmd)
	readingsCmd.AddCommand(readingsListCmd)

	readingsAddCmd.Flags().StringP("bin", "b", "", "Bin identifier")
	readingsAddCmd.Flags().StringP("type", "t", "", "Bin type")
	readingsAddCmd.Flags().Float64P("percentage", "p", 0, "Fill level in percent")
	_ = readingsAddCmd.MarkFlagRequired("bin")
	_ = readingsAddCmd.MarkFlagRequired("percentage")

	readingsListCmd.Flags().StringP("bin", "b", "", "Filter by bin")
	readingsListCmd.Flags().Bool("today", false, "Only show readings logged today")
}

func runReadingsAdd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bin, _ := cmd.Flags().GetString("bin")
	binType, _ := cmd.Flags().GetString("type")
	pct, _ := cmd.Flags().GetFloat64("percentage")
	if pct < 0 {
		return fmt.Errorf("percentage must not be negative")
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	reading := &model.FillReading{BinID: bin, BinType: binType, Percentage: pct}
	if err := store.RecordReading(cmd.Context(), reading); err != nil {
		return fmt.Errorf("record reading: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Recorded reading:\n")
	fmt.Fprintf(out, "  ID:          %s\n", reading.ID)
	fmt.Fprintf(out, "  Bin:         %s\n", reading.BinID)
	fmt.Fprintf(out, "  Type:        %s\n", reading.BinType)
	fmt.Fprintf(out, "  Percentage:  %.1f%%\n", reading.Percentage)

	return nil
}

func runReadingsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bin, _ := cmd.Flags().GetString("bin")
	today, _ := cmd.Flags().GetBool("today")

	opts, err := monitorOptions(cfg)
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	filter := model.ReadingFilter{BinID: bin}
	if today {
		filter.StartTime, filter.EndTime = model.DayBounds(opts.Now(), opts.Location)
	}

	readings, err := store.QueryReadings(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("query readings: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(readings) == 0 {
		fmt.Fprintln(out, "No readings found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIMESTAMP\tBIN\tTYPE\tFILL\tID\n")
	for _, r := range readings {
		status := ""
		if r.Percentage >= opts.FullThreshold {
			status = " [FULL]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			r.BinID, r.BinType, r.Percentage, status, r.ID,
		)
	}
	w.Flush()

	return nil
}
