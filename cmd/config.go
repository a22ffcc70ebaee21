package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/YohanssenPardede/proyek-analisis-data/internal/config"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set OrderLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		fmt.Fprintf(out, "delimiter: %s\n", utils.OrDash(c.Delimiter))
		fmt.Fprintf(out, "time_layout: %s\n", utils.OrDash(c.TimeLayout))
		keys := make([]string, 0, len(c.Columns))
		for k := range c.Columns {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "columns.%s: %s\n", k, c.Columns[k])
		}
		fmt.Fprintf(out, "sheet_name: %s\n", utils.OrDash(c.SheetName))
		fmt.Fprintf(out, "sheet_index: %d\n", c.SheetIndex)
		fmt.Fprintf(out, "frequency_mode: %s\n", c.FrequencyMode)
		fmt.Fprintf(out, "recency_order: %s\n", c.RecencyOrder)
		fmt.Fprintf(out, "quantile_fallback: %s\n", c.QuantileFallback)
		fmt.Fprintf(out, "tiers: %d\n", c.Tiers)
		fmt.Fprintf(out, "rules_file: %s\n", utils.OrDash(c.RulesFile))
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "server_addr: %s\n", c.ServerAddr)
		fmt.Fprintf(out, "cache_size: %d\n", c.CacheSize)
		fmt.Fprintf(out, "workers: %d\n", c.Workers)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c := *settings()
		if err := setKey(&c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&c, cfgFile); err != nil {
			return err
		}
		cfg = &c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	case "delimiter":
		if _, err := parseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "time_layout":
		c.TimeLayout = val
	case "sheet_name":
		c.SheetName = val
	case "sheet_index":
		c.SheetIndex, err = atoi()
	case "frequency_mode":
		c.FrequencyMode = strings.ToLower(val)
	case "recency_order":
		c.RecencyOrder = strings.ToLower(val)
	case "quantile_fallback":
		c.QuantileFallback = strings.ToLower(val)
	case "tiers":
		c.Tiers, err = atoi()
	case "rules_file":
		c.RulesFile = val
	case "output_dir":
		c.OutputDir = val
	case "server_addr":
		c.ServerAddr = val
	case "cache_size":
		c.CacheSize, err = atoi()
	case "workers":
		c.Workers, err = atoi()
	default:
		col, ok := strings.CutPrefix(key, "columns.")
		if !ok || col == "" {
			return fmt.Errorf("unknown key: %s", key)
		}
		cols := make(map[string]string, len(c.Columns)+1)
		for k, v := range c.Columns {
			cols[k] = v
		}
		cols[col] = val
		c.Columns = cols
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
