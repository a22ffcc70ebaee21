package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/analysis"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

var (
	ovInput        inputFlags
	ovOutputPath   string
	ovTop          int
	ovBadReviewMax int
	ovJSON         bool
	ovSave         bool
	ovQuiet        bool
)

var overviewCmd = &cobra.Command{
	Use:   "overview <file>",
	Short: "Describe an order dataset: volume, timing, categories and review factors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		g := settings()
		lopt, err := ovInput.options(cmd, g, progressWriter(ovQuiet))
		if err != nil {
			return err
		}
		table, err := orders.Load(path, lopt)
		if err != nil {
			return err
		}
		rep := analysis.Analyze(table, analysis.Options{TopN: ovTop, BadReviewMax: ovBadReviewMax})

		var body []byte
		if ovJSON {
			if body, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			body = []byte(rep.Markdown())
		}
		dest := ovOutputPath
		if dest == "" && ovSave {
			ext := "md"
			if ovJSON {
				ext = "json"
			}
			dest = utils.TimestampedFilename(g.OutputDir, utils.BaseName(path)+"_overview", ext, time.Now())
		}
		if dest != "" {
			if err := utils.SafeWriteFile(dest, body); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote overview to %s\n", dest)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	ovInput.bind(overviewCmd)
	overviewCmd.Flags().StringVarP(&ovOutputPath, "output", "o", "", "optional path to write the overview")
	overviewCmd.Flags().IntVar(&ovTop, "top", 10, "categories listed in each ranking")
	overviewCmd.Flags().IntVar(&ovBadReviewMax, "bad-review-max", 2, "highest review score counted as a bad review")
	overviewCmd.Flags().BoolVar(&ovJSON, "json", false, "emit JSON instead of Markdown")
	overviewCmd.Flags().BoolVar(&ovSave, "save", false, "write to <output_dir>/<file>_overview_<timestamp>.<ext> instead of stdout")
	overviewCmd.Flags().BoolVar(&ovQuiet, "quiet", false, "suppress the progress bar")
}
