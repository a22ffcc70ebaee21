package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/export"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

var (
	rfmInput      inputFlags
	rfmEngine     engineFlags
	rfmOutputPath string
	rfmFormat     string
	rfmSegment    string
	rfmHead       int
	rfmQuiet      bool
)

var rfmCmd = &cobra.Command{
	Use:   "rfm <file>",
	Short: "Score customers by recency, frequency and monetary value",
	Long: `Compute RFM metrics and scores for every customer in a CSV/TSV/XLSX order
dataset and classify them into segments.

Without --output or --format a Markdown summary is printed. With --format and no
--output the table is written to <output_dir>/<file>.rfm.<ext>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		g := settings()
		runLog, runID := log.WithRun()
		runLog = runLog.Component("rfm")

		lopt, err := rfmInput.options(cmd, g, progressWriter(rfmQuiet))
		if err != nil {
			return err
		}
		eopt, err := rfmEngine.options(cmd, g)
		if err != nil {
			return err
		}

		start := time.Now()
		table, err := orders.Load(path, lopt)
		if err != nil {
			return err
		}
		res, err := rfm.Compute(table.Records, eopt)
		if err != nil {
			return err
		}
		runLog.WithField("path", path).
			WithField("rows", table.Rows).
			WithField("customers", len(res.Customers)).
			WithField("skipped", res.Skipped).
			WithField("duration", time.Since(start).String()).
			Info("rfm computed")
		if len(res.Fallbacks) > 0 {
			runLog.WithField("metrics", res.Fallbacks).Warn("quantile edges collapsed; scored by rank")
		}

		if rfmSegment != "" {
			res, err = keepSegment(res, rfmSegment)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if rfmOutputPath == "" && rfmFormat == "" {
			fmt.Fprintln(out, res.Markdown(rfm.ReportOptions{Name: filepath.Base(path), HeadRows: rfmHead, Notes: table.Warnings}))
			return nil
		}

		var format export.Format
		if rfmFormat != "" {
			format, err = export.ParseFormat(rfmFormat)
		} else {
			format, err = export.FormatFromPath(rfmOutputPath)
		}
		if err != nil {
			return err
		}
		dest := rfmOutputPath
		if dest == "" {
			dest = utils.DerivedPath(g.OutputDir, path, "rfm", format.Ext())
		}
		meta := export.Meta{Source: filepath.Base(path), RunID: runID, GeneratedAt: time.Now().UTC(), Notes: table.Warnings}
		if err := export.Write(dest, format, res, meta); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote RFM table (%d customers) to %s\n", len(res.Customers), dest)
		return nil
	},
}

// keepSegment narrows a result to one segment.
func keepSegment(res *rfm.Result, name string) (*rfm.Result, error) {
	seg, err := res.ResolveSegment(name)
	if err != nil {
		return nil, err
	}
	narrowed := *res
	narrowed.Customers = res.Filter(seg)
	return &narrowed, nil
}

func init() {
	rootCmd.AddCommand(rfmCmd)
	rfmInput.bind(rfmCmd)
	rfmEngine.bind(rfmCmd)
	rfmCmd.Flags().StringVarP(&rfmOutputPath, "output", "o", "", "write the scored table to this path (format from extension)")
	rfmCmd.Flags().StringVar(&rfmFormat, "format", "", "output format: csv | xlsx | arrow | json | sqlite | md")
	rfmCmd.Flags().StringVar(&rfmSegment, "segment", "", "keep only customers of this segment")
	rfmCmd.Flags().IntVar(&rfmHead, "head", 10, "scored rows shown in the Markdown summary (0 hides the table)")
	rfmCmd.Flags().BoolVar(&rfmQuiet, "quiet", false, "suppress the progress bar")
}
