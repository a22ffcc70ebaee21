package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/crosstab"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

var (
	bdInput   inputFlags
	bdEngine  engineFlags
	bdBy      string
	bdSegment string
	bdTop     int
	bdOrder   string
	bdTrend   bool
	bdJSON    bool
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown <file>",
	Short: "Cross-tabulate RFM segments against category, payment type or month",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g := settings()
		lopt, err := bdInput.options(cmd, g, nil)
		if err != nil {
			return err
		}
		eopt, err := bdEngine.options(cmd, g)
		if err != nil {
			return err
		}
		dim, err := crosstab.ParseDimension(bdBy)
		if err != nil {
			return err
		}
		var ascending bool
		switch strings.ToLower(bdOrder) {
		case "desc", "top":
		case "asc", "bottom":
			ascending = true
		default:
			return fmt.Errorf("invalid --order: %s (use asc or desc)", bdOrder)
		}

		table, err := orders.Load(args[0], lopt)
		if err != nil {
			return err
		}
		res, err := rfm.Compute(table.Records, eopt)
		if err != nil {
			return err
		}
		rows := crosstab.Join(table.Records, res.Customers)
		log.Component("breakdown").WithField("rows", len(rows)).WithField("by", dim).WithField("segments", crosstab.SegmentCounts(res.Customers)).Debug("joined segments onto order lines")

		out := cmd.OutOrStdout()
		if bdTrend {
			points := crosstab.SegmentTrend(rows)
			if bdJSON {
				return printJSON(cmd, points)
			}
			fmt.Fprintln(out, "[SEGMENT TREND]")
			for _, p := range points {
				fmt.Fprintf(out, "- %s %s: %d\n", p.Month, p.Segment, p.Orders)
			}
			return nil
		}

		all := crosstab.Breakdown(rows, dim)
		var segments []rfm.Segment
		if bdSegment != "" {
			sel, err := res.ResolveSegment(bdSegment)
			if err != nil {
				return err
			}
			segments = []rfm.Segment{sel}
		} else {
			for _, sc := range res.Summary() {
				segments = append(segments, sc.Segment)
			}
		}
		cells := []crosstab.Cell{}
		for _, s := range segments {
			cells = append(cells, crosstab.Top(all, s, bdTop, ascending)...)
		}
		if bdJSON {
			return printJSON(cmd, cells)
		}
		fmt.Fprint(out, crosstab.Markdown("segments by "+string(dim), cells))
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func init() {
	rootCmd.AddCommand(breakdownCmd)
	bdInput.bind(breakdownCmd)
	bdEngine.bind(breakdownCmd)
	breakdownCmd.Flags().StringVar(&bdBy, "by", "category", "dimension: category | payment | month")
	breakdownCmd.Flags().StringVar(&bdSegment, "segment", "", "only this segment")
	breakdownCmd.Flags().IntVar(&bdTop, "top", 10, "keys per segment (0 = all)")
	breakdownCmd.Flags().StringVar(&bdOrder, "order", "desc", "desc for most frequent keys, asc for least")
	breakdownCmd.Flags().BoolVar(&bdTrend, "trend", false, "print monthly order lines per segment instead")
	breakdownCmd.Flags().BoolVar(&bdJSON, "json", false, "print JSON instead of Markdown")
}
