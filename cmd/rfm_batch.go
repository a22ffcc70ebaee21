package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/spf13/cobra"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/export"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

var (
	rbInput     inputFlags
	rbEngine    engineFlags
	rbOutputDir string
	rbFormat    string
	rbWorkers   int
	rbQuiet     bool
)

// batchOutcome is the result of scoring one file of a batch.
type batchOutcome struct {
	Path      string
	Dest      string
	Customers int
	Skipped   int
	Fallbacks []string
}

var rfmBatchCmd = &cobra.Command{
	Use:   "rfm-batch <files...>",
	Short: "Score several order files concurrently, one output table per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		g := settings()
		runLog, runID := log.WithRun()
		runLog = runLog.Component("rfm-batch")

		lopt, err := rbInput.options(cmd, g, nil)
		if err != nil {
			return err
		}
		eopt, err := rbEngine.options(cmd, g)
		if err != nil {
			return err
		}
		format := export.CSV
		if rbFormat != "" {
			if format, err = export.ParseFormat(rbFormat); err != nil {
				return err
			}
		}
		outDir := g.OutputDir
		if cmd.Flags().Changed("output-dir") {
			outDir = rbOutputDir
		}
		workers := g.Workers
		if cmd.Flags().Changed("workers") {
			workers = rbWorkers
		}
		if workers < 1 {
			return fmt.Errorf("invalid --workers: %d (must be >= 1)", workers)
		}
		dests := destinations(files, outDir, format)

		pool := pond.NewResultPool[batchOutcome](workers)
		defer pool.StopAndWait()

		start := time.Now()
		tasks := make([]pond.Result[batchOutcome], len(files))
		for i, path := range files {
			path, dest := path, dests[i]
			tasks[i] = pool.SubmitErr(func() (batchOutcome, error) {
				return scoreFile(path, dest, format, lopt, eopt, runID)
			})
		}

		out := cmd.OutOrStdout()
		failed := 0
		for i, task := range tasks {
			res, err := task.Wait()
			if err != nil {
				failed++
				runLog.WithError(err).WithField("path", files[i]).Error("rfm failed")
				fmt.Fprintf(out, "[%d/%d] ✗ %s: %v\n", i+1, len(files), files[i], err)
				continue
			}
			if len(res.Fallbacks) > 0 {
				runLog.WithField("path", res.Path).WithField("metrics", res.Fallbacks).Warn("quantile edges collapsed; scored by rank")
			}
			if !rbQuiet {
				fmt.Fprintf(out, "[%d/%d] ✓ %s → %s (%d customers)\n", i+1, len(files), filepath.Base(res.Path), res.Dest, res.Customers)
			}
		}
		runLog.WithField("files", len(files)).
			WithField("failed", failed).
			WithField("workers", workers).
			WithField("duration", time.Since(start).String()).
			Info("batch finished")
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(files))
		}
		return nil
	},
}

func scoreFile(path, dest string, format export.Format, lopt orders.Options, eopt rfm.Options, runID string) (batchOutcome, error) {
	table, err := orders.Load(path, lopt)
	if err != nil {
		return batchOutcome{}, err
	}
	res, err := rfm.Compute(table.Records, eopt)
	if err != nil {
		return batchOutcome{}, err
	}
	meta := export.Meta{Source: filepath.Base(path), RunID: runID, GeneratedAt: time.Now().UTC(), Notes: table.Warnings}
	if err := export.Write(dest, format, res, meta); err != nil {
		return batchOutcome{}, err
	}
	return batchOutcome{Path: path, Dest: dest, Customers: len(res.Customers), Skipped: res.Skipped, Fallbacks: res.Fallbacks}, nil
}

// expandInputs resolves globs, keeps literal paths that exist, and returns a
// sorted, de-duplicated list.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// destinations derives one output path per input; inputs sharing a base name
// get a numeric suffix so nothing is overwritten.
func destinations(files []string, outDir string, format export.Format) []string {
	out := make([]string, len(files))
	taken := map[string]bool{}
	for i, f := range files {
		dest := utils.DerivedPath(outDir, f, "rfm", format.Ext())
		for n := 2; taken[dest]; n++ {
			dest = utils.DerivedPath(outDir, f, fmt.Sprintf("rfm_%d", n), format.Ext())
		}
		taken[dest] = true
		out[i] = dest
	}
	return out
}

func init() {
	rootCmd.AddCommand(rfmBatchCmd)
	rbInput.bind(rfmBatchCmd)
	rbEngine.bind(rfmBatchCmd)
	rfmBatchCmd.Flags().StringVar(&rbOutputDir, "output-dir", "", "directory for the scored tables (default: output_dir from config)")
	rfmBatchCmd.Flags().StringVar(&rbFormat, "format", "csv", "output format: csv | xlsx | arrow | json | sqlite | md")
	rfmBatchCmd.Flags().IntVar(&rbWorkers, "workers", 0, "concurrent files (default: workers from config)")
	rfmBatchCmd.Flags().BoolVar(&rbQuiet, "quiet", false, "suppress per-file output")
}
