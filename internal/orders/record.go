// Package orders loads the pre-joined order-line dataset (orders, items,
// products, payments, reviews and customers flattened into one row per item).
package orders

import (
	"math"
	"time"
)

// Record is one order line item. Several records may share OrderID and CustomerID.
type Record struct {
	CustomerID  string
	OrderID     string
	PurchasedAt time.Time // zero when the source value was empty or unparsable
	Price       float64
	Freight     float64
	Category    string
	PaymentType string
	DeliveredAt time.Time // zero when not delivered or unknown
	ReviewScore int       // 1..5, 0 when missing
}

// HasPurchase reports whether the purchase timestamp is known.
func (r Record) HasPurchase() bool { return !r.PurchasedAt.IsZero() }

// DeliveryDays returns whole days between purchase and delivery.
func (r Record) DeliveryDays() (int, bool) {
	if r.PurchasedAt.IsZero() || r.DeliveredAt.IsZero() {
		return 0, false
	}
	d := r.DeliveredAt.Sub(r.PurchasedAt)
	return int(math.Floor(d.Hours() / 24)), true
}

// Month returns the purchase month as YYYY-MM, or "" for a null timestamp.
func (r Record) Month() string {
	if r.PurchasedAt.IsZero() {
		return ""
	}
	return r.PurchasedAt.Format("2006-01")
}

// Table is a loaded dataset.
type Table struct {
	Name    string
	Records []Record
	// Rows counts data rows read, including rows with a null purchase timestamp.
	Rows int
	// NullPurchases counts rows whose purchase timestamp is missing or malformed.
	NullPurchases int
	Warnings      []string
}

// Customers returns the number of distinct customer ids in the table.
func (t *Table) Customers() int {
	seen := make(map[string]struct{}, len(t.Records)/2+1)
	for _, r := range t.Records {
		seen[r.CustomerID] = struct{}{}
	}
	return len(seen)
}
