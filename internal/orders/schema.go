package orders

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Canonical column names of the source dataset.
const (
	ColCustomerID  = "customer_unique_id"
	ColOrderID     = "order_id"
	ColPurchasedAt = "order_purchase_timestamp"
	ColPrice       = "price"
	ColFreight     = "freight_value"
	ColCategory    = "product_category_name"
	ColPaymentType = "payment_type"
	ColDeliveredAt = "order_delivered_customer_date"
	ColReviewScore = "review_score"
)

// RequiredColumns must be present in every input.
var RequiredColumns = []string{ColCustomerID, ColOrderID, ColPurchasedAt, ColPrice}

var optionalColumns = []string{ColFreight, ColCategory, ColPaymentType, ColDeliveredAt, ColReviewScore}

// MissingColumnError reports required columns absent from the header.
type MissingColumnError struct {
	Source  string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s", e.Source, strings.Join(e.Columns, ", "))
}

// InvalidValueError reports a non-empty cell that could not be parsed.
type InvalidValueError struct {
	Row    int
	Column string
	Value  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q", e.Row, e.Column, e.Value)
}

func normalizeHeader(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// decoder maps header positions to Record fields.
type decoder struct {
	idx        map[string]int
	timeLayout string
}

func newDecoder(source string, header []string, opt Options) (*decoder, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, dup := pos[n]; !dup {
			pos[n] = i
		}
	}
	d := &decoder{idx: map[string]int{}, timeLayout: opt.TimeLayout}
	var missing []string
	for _, col := range append(append([]string{}, RequiredColumns...), optionalColumns...) {
		name := col
		if alias, ok := opt.Columns[col]; ok && strings.TrimSpace(alias) != "" {
			name = normalizeHeader(alias)
		}
		if i, ok := pos[name]; ok {
			d.idx[col] = i
			continue
		}
		for _, req := range RequiredColumns {
			if req == col {
				missing = append(missing, col)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingColumnError{Source: source, Columns: missing}
	}
	return d, nil
}

func (d *decoder) cell(rec []string, col string) string {
	i, ok := d.idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// decode converts one data row. nullPurchase is true when the purchase
// timestamp is missing or malformed; the record is still returned.
func (d *decoder) decode(rec []string, row int) (r Record, nullPurchase bool, err error) {
	r.CustomerID = d.cell(rec, ColCustomerID)
	r.OrderID = d.cell(rec, ColOrderID)
	r.Category = d.cell(rec, ColCategory)
	r.PaymentType = d.cell(rec, ColPaymentType)

	if ts, ok := parseTimeMaybe(d.cell(rec, ColPurchasedAt), d.timeLayout); ok {
		r.PurchasedAt = ts
	} else {
		nullPurchase = true
	}
	if ts, ok := parseTimeMaybe(d.cell(rec, ColDeliveredAt), d.timeLayout); ok {
		r.DeliveredAt = ts
	}

	if r.Price, err = parseAmount(d.cell(rec, ColPrice)); err != nil {
		return r, nullPurchase, &InvalidValueError{Row: row, Column: ColPrice, Value: d.cell(rec, ColPrice)}
	}
	if r.Freight, err = parseAmount(d.cell(rec, ColFreight)); err != nil {
		return r, nullPurchase, &InvalidValueError{Row: row, Column: ColFreight, Value: d.cell(rec, ColFreight)}
	}
	r.ReviewScore = parseReview(d.cell(rec, ColReviewScore))
	return r, nullPurchase, nil
}

var timeLayouts = []string{
	"2006-01-02 15:04:05", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02",
	"2006/01/02 15:04:05", "2006/01/02", "1/2/2006 15:04:05", "1/2/2006 15:04", "1/2/06 15:04", "02/01/2006",
}

func parseTimeMaybe(s, preferred string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if preferred != "" {
		if t, err := time.Parse(preferred, s); err == nil {
			return t, true
		}
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount treats empty cells as zero. Negative and non-finite values are
// rejected.
func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite amount")
	}
	if f < 0 {
		return 0, fmt.Errorf("negative amount")
	}
	return f, nil
}

func parseReview(s string) int {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	v := int(math.Round(f))
	if v < 1 || v > 5 {
		return 0
	}
	return v
}
