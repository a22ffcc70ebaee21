package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
)

const (
	sheetRFM      = "rfm"
	sheetSegments = "segments"
)

// WriteXLSX writes an "rfm" sheet with the scored table and a "segments"
// sheet with the distribution and run metadata.
func WriteXLSX(path string, res *rfm.Result, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetRFM); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, sheetRFM, 1, toAny(columns)); err != nil {
		return err
	}
	for i, r := range toRows(res.Customers) {
		vals := []any{r.CustomerID, r.LastPurchase, r.Recency, r.Frequency, r.Monetary, r.RScore, r.FScore, r.MScore, r.Code, r.Segment}
		if err := setRow(f, sheetRFM, i+2, vals); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheetRFM, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.NewSheet(sheetSegments); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := setRow(f, sheetSegments, 1, []any{"segment", "customers", "share"}); err != nil {
		return err
	}
	summary := res.Summary()
	for i, s := range summary {
		if err := setRow(f, sheetSegments, i+2, []any{string(s.Segment), s.Customers, s.Share}); err != nil {
			return err
		}
	}
	line := len(summary) + 3
	for _, kv := range [][]any{
		{"source", meta.Source},
		{"run_id", meta.RunID},
		{"generated_at", meta.GeneratedAt.Format(time.RFC3339)},
		{"reference", res.Reference.Format(time.RFC3339)},
		{"skipped_rows", res.Skipped},
	} {
		if err := setRow(f, sheetSegments, line, kv); err != nil {
			return err
		}
		line++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, n, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
