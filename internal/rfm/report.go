package rfm

import (
	"fmt"
	"strings"
	"time"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

// ReportOptions tunes Markdown rendering.
type ReportOptions struct {
	Name string
	// HeadRows limits the scored-customer table; 0 hides it.
	HeadRows int
	Notes    []string
}

// Markdown renders the segment summary and the head of the scored table.
func (r *Result) Markdown(opt ReportOptions) string {
	var b strings.Builder
	b.WriteString("[RFM SUMMARY]\n")
	if opt.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", opt.Name))
	}
	if !r.Reference.IsZero() {
		b.WriteString(fmt.Sprintf("Reference: %s\n", r.Reference.Format(time.RFC3339)))
	}
	b.WriteString(fmt.Sprintf("Customers: %d\n", len(r.Customers)))
	if r.Skipped > 0 {
		b.WriteString(fmt.Sprintf("Skipped rows: %d\n", r.Skipped))
	}
	if len(r.Fallbacks) > 0 {
		b.WriteString(fmt.Sprintf("Rank fallback: %s\n", strings.Join(r.Fallbacks, ", ")))
	}

	b.WriteString("\n[SEGMENTS]\n")
	for _, s := range r.Summary() {
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", s.Segment, s.Customers, s.Share*100))
	}

	if opt.HeadRows > 0 && len(r.Customers) > 0 {
		b.WriteString("\n[SCORED CUSTOMERS]\n")
		b.WriteString("| customer_unique_id | recency | frequency | monetary | r | f | m | rfm_score | segment |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
		n := opt.HeadRows
		if n > len(r.Customers) {
			n = len(r.Customers)
		}
		for _, c := range r.Customers[:n] {
			b.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %s | %s | %s | %s | %s |\n",
				utils.Cell(utils.Truncate(c.CustomerID, 40)), c.Recency, c.Frequency, c.Monetary,
				c.RScore, c.FScore, c.MScore, c.Code, utils.Cell(string(c.Segment))))
		}
		if n < len(r.Customers) {
			b.WriteString(fmt.Sprintf("... %d more\n", len(r.Customers)-n))
		}
	}
	if len(opt.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range opt.Notes {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
