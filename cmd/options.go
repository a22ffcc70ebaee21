package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/YohanssenPardede/proyek-analisis-data/internal/config"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
)

// inputFlags are the dataset parsing flags shared by every command that reads orders.
type inputFlags struct {
	delimiter  string
	timeLayout string
	sheetName  string
	sheetIndex int
}

func (f *inputFlags) bind(c *cobra.Command) {
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (default from extension)")
	c.Flags().StringVar(&f.timeLayout, "time-layout", "", "Go time layout tried before the built-in timestamp formats")
	c.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

// options merges config values with explicitly set flags.
func (f *inputFlags) options(c *cobra.Command, g *cfgpkg.Global, progress io.Writer) (orders.Options, error) {
	opt := orders.Options{
		TimeLayout: g.TimeLayout,
		Columns:    g.Columns,
		SheetName:  g.SheetName,
		SheetIndex: g.SheetIndex,
		Progress:   progress,
	}
	delim := g.Delimiter
	if c.Flags().Changed("delimiter") {
		delim = f.delimiter
	}
	r, err := parseDelimiter(delim)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = r
	if c.Flags().Changed("time-layout") {
		opt.TimeLayout = f.timeLayout
	}
	if c.Flags().Changed("sheet-name") {
		opt.SheetName = f.sheetName
	}
	if c.Flags().Changed("sheet-index") {
		opt.SheetIndex = f.sheetIndex
	}
	return opt, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	case "\t", "tab", "\\t":
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

// engineFlags are the RFM scoring flags.
type engineFlags struct {
	reference     string
	frequencyMode string
	recencyOrder  string
	fallback      string
	rulesFile     string
	tiers         int
}

func (f *engineFlags) bind(c *cobra.Command) {
	c.Flags().StringVar(&f.reference, "reference", "", "reference instant for recency (RFC3339 or YYYY-MM-DD; default: latest purchase + 1 day)")
	c.Flags().StringVar(&f.frequencyMode, "frequency-mode", "", "frequency counts 'rows' (order lines) or distinct 'orders'")
	c.Flags().StringVar(&f.recencyOrder, "recency-order", "", "recency scale: 'ascending' (R=1 most recent) or 'descending'")
	c.Flags().StringVar(&f.fallback, "fallback", "", "on degenerate quantiles: 'none' (fail) or 'rank'")
	c.Flags().StringVar(&f.rulesFile, "rules", "", "YAML segment rule table (default: built-in Gold/Silver/Bronze)")
	c.Flags().IntVar(&f.tiers, "tiers", 0, "number of quantile buckets for R and M (2..9)")
}

func (f *engineFlags) options(c *cobra.Command, g *cfgpkg.Global) (rfm.Options, error) {
	opt := rfm.Options{
		FrequencyMode: rfm.FrequencyMode(g.FrequencyMode),
		RecencyOrder:  rfm.Order(g.RecencyOrder),
		Fallback:      rfm.Fallback(g.QuantileFallback),
		Tiers:         g.Tiers,
	}
	if c.Flags().Changed("frequency-mode") {
		opt.FrequencyMode = rfm.FrequencyMode(strings.ToLower(f.frequencyMode))
	}
	if c.Flags().Changed("recency-order") {
		opt.RecencyOrder = rfm.Order(strings.ToLower(f.recencyOrder))
	}
	if c.Flags().Changed("fallback") {
		opt.Fallback = rfm.Fallback(strings.ToLower(f.fallback))
	}
	if c.Flags().Changed("tiers") {
		opt.Tiers = f.tiers
	}
	if f.reference != "" {
		t, err := parseReference(f.reference)
		if err != nil {
			return opt, err
		}
		opt.Reference = t
	}
	rules := g.RulesFile
	if c.Flags().Changed("rules") {
		rules = f.rulesFile
	}
	if rules != "" {
		rs, err := rfm.LoadRules(rules)
		if err != nil {
			return opt, err
		}
		opt.Rules = rs
	}
	err := opt.Validate()
	return opt, err
}

func parseReference(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --reference %q (use RFC3339 or YYYY-MM-DD)", s)
}

// progressWriter is stderr unless quiet.
func progressWriter(quiet bool) io.Writer {
	if quiet {
		return nil
	}
	return os.Stderr
}
