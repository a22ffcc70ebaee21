// Package export writes scored customer tables to files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

// Format is an output file format.
type Format string

const (
	CSV      Format = "csv"
	XLSX     Format = "xlsx"
	Arrow    Format = "arrow"
	JSON     Format = "json"
	SQLite   Format = "sqlite"
	Markdown Format = "md"
)

// Formats lists every supported format.
var Formats = []Format{CSV, XLSX, Arrow, JSON, SQLite, Markdown}

// ParseFormat accepts format names and common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return CSV, nil
	case "xlsx", "excel":
		return XLSX, nil
	case "arrow", "ipc", "feather":
		return Arrow, nil
	case "json":
		return JSON, nil
	case "sqlite", "sqlite3", "db":
		return SQLite, nil
	case "md", "markdown":
		return Markdown, nil
	}
	return "", fmt.Errorf("unsupported format %q (use csv, xlsx, arrow, json, sqlite or md)", s)
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("cannot infer format of %s: no extension (pass --format)", path)
	}
	return ParseFormat(ext)
}

// Ext is the canonical file extension for f, without the dot.
func (f Format) Ext() string { return string(f) }

// Meta describes the run that produced a result.
type Meta struct {
	Source      string    `json:"source"`
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Notes       []string  `json:"notes,omitempty"`
}

// Write renders res in the given format to path, creating parent directories.
func Write(path string, format Format, res *rfm.Result, meta Meta) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	switch format {
	case CSV:
		return writeFile(path, func(f *os.File) error { return WriteCSV(f, res.Customers) })
	case XLSX:
		return WriteXLSX(path, res, meta)
	case Arrow:
		return writeFile(path, func(f *os.File) error { return WriteArrow(f, res.Customers) })
	case JSON:
		return WriteJSON(path, res, meta)
	case SQLite:
		return WriteSQLite(path, res, meta)
	case Markdown:
		md := res.Markdown(rfm.ReportOptions{Name: meta.Source, HeadRows: 20, Notes: meta.Notes})
		return utils.SafeWriteFile(path, []byte(md))
	}
	return fmt.Errorf("unsupported format %q", format)
}

func writeFile(path string, fn func(*os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// columns is the shared column order of every tabular format.
var columns = []string{
	"customer_unique_id", "last_purchase", "recency", "frequency", "monetary",
	"r_score", "f_score", "m_score", "rfm_score", "segment",
}

// row is the flat tabular shape of rfm.Customer.
type row struct {
	CustomerID   string  `dataframe:"customer_unique_id"`
	LastPurchase string  `dataframe:"last_purchase"`
	Recency      int     `dataframe:"recency"`
	Frequency    int     `dataframe:"frequency"`
	Monetary     float64 `dataframe:"monetary"`
	RScore       int     `dataframe:"r_score"`
	FScore       int     `dataframe:"f_score"`
	MScore       int     `dataframe:"m_score"`
	Code         string  `dataframe:"rfm_score"`
	Segment      string  `dataframe:"segment"`
}

func toRows(customers []rfm.Customer) []row {
	out := make([]row, len(customers))
	for i, c := range customers {
		out[i] = row{
			CustomerID:   c.CustomerID,
			LastPurchase: c.LastPurchase.Format(time.RFC3339),
			Recency:      c.Recency,
			Frequency:    c.Frequency,
			Monetary:     c.Monetary,
			RScore:       int(c.RScore),
			FScore:       int(c.FScore),
			MScore:       int(c.MScore),
			Code:         string(c.Code),
			Segment:      string(c.Segment),
		}
	}
	return out
}
