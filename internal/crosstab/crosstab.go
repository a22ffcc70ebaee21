// Package crosstab joins scored customers back onto order lines and
// tabulates segments against order attributes.
package crosstab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
)

// Row is an order line annotated with its customer's RFM outcome.
type Row struct {
	orders.Record
	Segment       rfm.Segment
	Code          rfm.Code
	PurchaseCount int
}

// Join returns a new slice pairing each order line with its scored customer.
// Lines of customers absent from customers are dropped. Neither input is modified.
func Join(records []orders.Record, customers []rfm.Customer) []Row {
	byID := make(map[string]*rfm.Customer, len(customers))
	for i := range customers {
		byID[customers[i].CustomerID] = &customers[i]
	}
	out := make([]Row, 0, len(records))
	for _, r := range records {
		c, ok := byID[r.CustomerID]
		if !ok {
			continue
		}
		out = append(out, Row{Record: r, Segment: c.Segment, Code: c.Code, PurchaseCount: c.Frequency})
	}
	return out
}

// SegmentCounts counts customers per segment.
func SegmentCounts(customers []rfm.Customer) map[rfm.Segment]int {
	out := make(map[rfm.Segment]int)
	for _, c := range customers {
		out[c.Segment]++
	}
	return out
}

// Dimension is an order attribute to tabulate against segments.
type Dimension string

const (
	ByCategory Dimension = "category"
	ByPayment  Dimension = "payment"
	ByMonth    Dimension = "month"
)

// ParseDimension accepts the short names and the source column names.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "category", orders.ColCategory:
		return ByCategory, nil
	case "payment", orders.ColPaymentType:
		return ByPayment, nil
	case "month":
		return ByMonth, nil
	}
	return "", fmt.Errorf("unknown breakdown dimension %q (use category, payment or month)", s)
}

func (d Dimension) key(r Row) string {
	switch d {
	case ByCategory:
		return r.Category
	case ByPayment:
		return r.PaymentType
	case ByMonth:
		return r.Month()
	}
	return ""
}

// Cell is the number of order lines for one (segment, key) pair.
type Cell struct {
	Segment rfm.Segment `json:"segment"`
	Key     string      `json:"key"`
	Count   int         `json:"count"`
}

// Breakdown counts rows per (segment, dimension key). Rows with an empty key
// are skipped. Cells are ordered by segment, then count descending, then key.
func Breakdown(rows []Row, dim Dimension) []Cell {
	type k struct {
		seg rfm.Segment
		key string
	}
	counts := map[k]int{}
	for _, r := range rows {
		key := dim.key(r)
		if key == "" {
			continue
		}
		counts[k{r.Segment, key}]++
	}
	out := make([]Cell, 0, len(counts))
	for kk, n := range counts {
		out = append(out, Cell{Segment: kk.seg, Key: kk.key, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Segment != out[j].Segment {
			return out[i].Segment < out[j].Segment
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Top picks the n largest (or, with ascending, smallest) cells of a segment.
// Ties are broken by key. n <= 0 returns all cells of the segment.
func Top(cells []Cell, seg rfm.Segment, n int, ascending bool) []Cell {
	var sel []Cell
	for _, c := range cells {
		if c.Segment == seg {
			sel = append(sel, c)
		}
	}
	sort.SliceStable(sel, func(i, j int) bool {
		if sel[i].Count != sel[j].Count {
			if ascending {
				return sel[i].Count < sel[j].Count
			}
			return sel[i].Count > sel[j].Count
		}
		return sel[i].Key < sel[j].Key
	})
	if n > 0 && len(sel) > n {
		sel = sel[:n]
	}
	return sel
}

// TrendPoint is the number of order lines in a month for one segment.
type TrendPoint struct {
	Month   string      `json:"month"`
	Segment rfm.Segment `json:"segment"`
	Orders  int         `json:"orders"`
}

// SegmentTrend counts order lines per (YYYY-MM, segment), sorted by month then segment.
func SegmentTrend(rows []Row) []TrendPoint {
	cells := Breakdown(rows, ByMonth)
	out := make([]TrendPoint, 0, len(cells))
	for _, c := range cells {
		out = append(out, TrendPoint{Month: c.Key, Segment: c.Segment, Orders: c.Count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}

// Markdown renders cells grouped by segment.
func Markdown(title string, cells []Cell) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]\n", strings.ToUpper(title)))
	var current rfm.Segment
	first := true
	for _, c := range cells {
		if first || c.Segment != current {
			b.WriteString(fmt.Sprintf("- %s\n", c.Segment))
			current = c.Segment
			first = false
		}
		b.WriteString(fmt.Sprintf("  • %s: %d\n", c.Key, c.Count))
	}
	if first {
		b.WriteString("(no rows)\n")
	}
	return b.String()
}
