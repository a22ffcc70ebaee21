package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"", 5, ""},
		{"short", 10, "short"},
		{"bed_bath_table", 8, "bed_b..."},
		{"abc", 0, ""},
		{"abcdef", 2, "ab"},
	}
	for _, c := range cases {
		if got := utils.Truncate(c.in, c.limit); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.limit, got, c.want)
		}
	}
}

func TestCellAndOrDash(t *testing.T) {
	if got := utils.Cell("a|b\nc"); got != "a/b c" {
		t.Fatalf("Cell = %q", got)
	}
	if got := utils.OrDash("  "); got != "-" {
		t.Fatalf("OrDash = %q", got)
	}
}

func TestSafeWriteFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")
	b, err := utils.PrettyJSON(map[string]int{"gold": 1})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(got), "\"gold\": 1") {
		t.Fatalf("unexpected body: %s", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestDerivedAndTimestampedPaths(t *testing.T) {
	if got := utils.DerivedPath("out", "data/orders.csv", "rfm", ".xlsx"); got != filepath.Join("out", "orders.rfm.xlsx") {
		t.Fatalf("DerivedPath = %s", got)
	}
	at := time.Date(2018, 9, 4, 13, 5, 9, 0, time.UTC)
	if got := utils.TimestampedFilename("r", "segments", "json", at); got != filepath.Join("r", "segments_20180904_130509.json") {
		t.Fatalf("TimestampedFilename = %s", got)
	}
}
