package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const ordersHeader = "order_id,customer_unique_id,order_purchase_timestamp,price,freight_value,product_category_name,payment_type,order_delivered_customer_date,review_score\n"

const ordersBody = ordersHeader +
	"a1,A,2018-09-26 10:00:00,50,5,toys,credit_card,2018-09-30 10:00:00,5\n" +
	"b1,B,2018-08-12 10:00:00,200,10,toys,boleto,2018-08-20 10:00:00,4\n" +
	"b2,B,2018-08-02 10:00:00,200,10,garden,boleto,,\n" +
	"b3,B,2018-07-23 10:00:00,100,10,toys,credit_card,,1\n" +
	"c1,C,2018-07-03 10:00:00,10,2,garden,voucher,,3\n"

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared rootCmd.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

// isolate points HOME at a temp dir and writes the sample dataset there.
func isolate(t *testing.T) (home, dataset string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	dataset = filepath.Join(home, "orders.csv")
	if err := os.WriteFile(dataset, []byte(ordersBody), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return home, dataset
}

func TestCLI_RFMPrintsSummary(t *testing.T) {
	_, dataset := isolate(t)
	out := mustRun(t, "rfm", dataset, "--quiet")
	for _, want := range []string{"[RFM SUMMARY]", "Customers: 3", "- Gold: 0", "- Silver: 1 (33.3%)", "- Bronze: 2 (66.7%)", "| B | 46 | 3 | 500.00 | 2 | 2 | 3 | 223 | Silver |"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCLI_RFMWritesCSV(t *testing.T) {
	home, dataset := isolate(t)
	dest := filepath.Join(home, "out", "rfm.csv")
	out := mustRun(t, "rfm", dataset, "--quiet", "-o", dest)
	if !strings.Contains(out, "✓ Wrote RFM table (3 customers)") {
		t.Fatalf("unexpected output: %s", out)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "customer_unique_id,") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}

func TestCLI_RFMSegmentToOutputDir(t *testing.T) {
	home, dataset := isolate(t)
	outDir := filepath.Join(home, "exports")
	t.Setenv("ORDERLENS_OUTPUT_DIR", outDir)

	mustRun(t, "rfm", dataset, "--quiet", "--format", "json", "--segment", "bronze")

	b, err := os.ReadFile(filepath.Join(outDir, "orders.rfm.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc struct {
		Customers []struct {
			ID      string `json:"customer_unique_id"`
			Segment string `json:"segment"`
		} `json:"customers"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Customers) != 2 || doc.Customers[0].ID != "A" || doc.Customers[1].ID != "C" {
		t.Fatalf("unexpected customers: %+v", doc.Customers)
	}
}

func TestCLI_RFMDegenerateQuantiles(t *testing.T) {
	home, _ := isolate(t)
	flat := filepath.Join(home, "flat.csv")
	body := ordersHeader +
		"o1,A,2018-09-01 10:00:00,10,,,,,\n" +
		"o2,B,2018-08-01 10:00:00,10,,,,,\n" +
		"o3,C,2018-07-01 10:00:00,10,,,,,\n"
	if err := os.WriteFile(flat, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := runCmd(t, "rfm", flat, "--quiet"); err == nil || !strings.Contains(err.Error(), "monetary") {
		t.Fatalf("expected degenerate monetary quantiles, got %v", err)
	}
	out := mustRun(t, "rfm", flat, "--quiet", "--fallback", "rank")
	if !strings.Contains(out, "Rank fallback: monetary") {
		t.Fatalf("expected fallback note:\n%s", out)
	}
}

func TestCLI_RFMRejectsBadFlags(t *testing.T) {
	_, dataset := isolate(t)
	for _, args := range [][]string{
		{"rfm", dataset, "--tiers", "1"},
		{"rfm", dataset, "--frequency-mode", "weekly"},
		{"rfm", dataset, "--reference", "yesterday"},
		{"rfm", dataset, "--reference", "2018-01-01"},
		{"rfm", dataset, "--delimiter", "#"},
		{"rfm", dataset, "--format", "parquet"},
	} {
		if _, err := runCmd(t, args...); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
}

func TestCLI_RFMBatch(t *testing.T) {
	home, _ := isolate(t)
	for _, d := range []string{"d1", "d2"} {
		dir := filepath.Join(home, d)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "orders.csv"), []byte(ordersBody), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	outDir := filepath.Join(home, "batch")
	out := mustRun(t, "rfm-batch", filepath.Join(home, "d*", "orders.csv"), "--output-dir", outDir, "--workers", "2")
	if !strings.Contains(out, "[1/2] ✓") || !strings.Contains(out, "[2/2] ✓") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	for _, name := range []string{"orders.rfm.csv", "orders.rfm_2.csv"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestCLI_RFMBatchReportsFailures(t *testing.T) {
	home, dataset := isolate(t)
	bad := filepath.Join(home, "bad.csv")
	if err := os.WriteFile(bad, []byte("order_id,price\no1,1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := runCmd(t, "rfm-batch", dataset, bad, "--output-dir", filepath.Join(home, "batch"))
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if !strings.Contains(out, "✗ "+bad) {
		t.Fatalf("expected failed file in output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(home, "batch", "orders.rfm.csv")); err != nil {
		t.Fatalf("good file not written: %v", err)
	}
}

func TestCLI_Breakdown(t *testing.T) {
	_, dataset := isolate(t)
	out := mustRun(t, "breakdown", dataset, "--by", "payment", "--segment", "silver")
	if !strings.Contains(out, "- Silver") || !strings.Contains(out, "• boleto: 2") {
		t.Fatalf("unexpected breakdown:\n%s", out)
	}
	out = mustRun(t, "breakdown", dataset, "--trend")
	if !strings.Contains(out, "- 2018-08 Silver: 2") {
		t.Fatalf("unexpected trend:\n%s", out)
	}
}

func TestCLI_OverviewJSON(t *testing.T) {
	_, dataset := isolate(t)
	out := mustRun(t, "overview", dataset, "--json", "--quiet")
	var rep struct {
		Rows      int `json:"rows"`
		Orders    int `json:"orders"`
		Customers int `json:"customers"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if rep.Rows != 5 || rep.Orders != 5 || rep.Customers != 3 {
		t.Fatalf("unexpected overview: %+v", rep)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home, _ := isolate(t)
	mustRun(t, "config", "set", "tiers", "4")
	mustRun(t, "config", "set", "columns.customer_unique_id", "pelanggan")
	if _, err := os.Stat(filepath.Join(home, ".orderlens", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "tiers: 4") || !strings.Contains(out, "columns.customer_unique_id: pelanggan") {
		t.Fatalf("unexpected config:\n%s", out)
	}
	if _, err := runCmd(t, "config", "set", "tiers", "1"); err == nil {
		t.Fatalf("expected invalid tiers to be rejected")
	}
	if _, err := runCmd(t, "config", "set", "api_key", "x"); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestCLI_OverviewSave(t *testing.T) {
	home, dataset := isolate(t)
	outDir := filepath.Join(home, "reports")
	t.Setenv("ORDERLENS_OUTPUT_DIR", outDir)
	out := mustRun(t, "overview", dataset, "--save", "--quiet")
	if !strings.Contains(out, "✓ Wrote overview to "+filepath.Join(outDir, "orders_overview_")) {
		t.Fatalf("unexpected output: %s", out)
	}
	matches, _ := filepath.Glob(filepath.Join(outDir, "orders_overview_*.md"))
	if len(matches) != 1 {
		t.Fatalf("expected one saved overview, got %v", matches)
	}
	b, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "[DATASET SUMMARY]") {
		t.Fatalf("unexpected overview body:\n%s", b)
	}
}
