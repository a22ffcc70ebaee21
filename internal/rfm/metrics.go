package rfm

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
)

// ErrReferenceNotAfterData is returned when a caller-supplied reference
// instant is not strictly later than every purchase timestamp.
var ErrReferenceNotAfterData = errors.New("reference instant must be after the latest purchase")

// FrequencyMode selects what Frequency counts.
type FrequencyMode string

const (
	// FrequencyRows counts order line rows per customer.
	FrequencyRows FrequencyMode = "rows"
	// FrequencyOrders counts distinct order ids per customer.
	FrequencyOrders FrequencyMode = "orders"
)

// Customer is one scored customer.
type Customer struct {
	CustomerID   string    `json:"customer_unique_id"`
	LastPurchase time.Time `json:"last_purchase"`
	Recency      int       `json:"recency"`
	Frequency    int       `json:"frequency"`
	Monetary     float64   `json:"monetary"`
	RScore       Score     `json:"r_score"`
	FScore       Score     `json:"f_score"`
	MScore       Score     `json:"m_score"`
	Code         Code      `json:"rfm_score"`
	Segment      Segment   `json:"segment"`
}

// DefaultReference is one day after the latest valid purchase timestamp in
// the dataset, or the zero time when there is none.
func DefaultReference(records []orders.Record) time.Time {
	var last time.Time
	for _, r := range records {
		if r.HasPurchase() && r.PurchasedAt.After(last) {
			last = r.PurchasedAt
		}
	}
	if last.IsZero() {
		return last
	}
	return last.Add(24 * time.Hour)
}

// ComputeMetrics aggregates recency, frequency and monetary per customer.
// Rows with a null purchase timestamp or an empty customer id are skipped and
// counted. A zero reference selects DefaultReference. Customers come back
// sorted by id; records is not modified.
func ComputeMetrics(records []orders.Record, reference time.Time, mode FrequencyMode) ([]Customer, int, error) {
	type acc struct {
		last     time.Time
		rows     int
		orderIDs map[string]struct{}
		monetary float64
	}
	groups := map[string]*acc{}
	skipped := 0
	var latest time.Time
	for _, r := range records {
		if r.HasPurchase() && r.PurchasedAt.After(latest) {
			latest = r.PurchasedAt
		}
		if !r.HasPurchase() || r.CustomerID == "" {
			skipped++
			continue
		}
		a := groups[r.CustomerID]
		if a == nil {
			a = &acc{}
			if mode == FrequencyOrders {
				a.orderIDs = map[string]struct{}{}
			}
			groups[r.CustomerID] = a
		}
		if r.PurchasedAt.After(a.last) {
			a.last = r.PurchasedAt
		}
		a.rows++
		if a.orderIDs != nil {
			a.orderIDs[r.OrderID] = struct{}{}
		}
		a.monetary += r.Price
	}
	if len(groups) == 0 {
		return []Customer{}, skipped, nil
	}

	if reference.IsZero() {
		reference = latest.Add(24 * time.Hour)
	} else if !reference.After(latest) {
		return nil, skipped, fmt.Errorf("%w: reference %s, latest purchase %s",
			ErrReferenceNotAfterData, reference.Format(time.RFC3339), latest.Format(time.RFC3339))
	}

	out := make([]Customer, 0, len(groups))
	for id, a := range groups {
		freq := a.rows
		if mode == FrequencyOrders {
			freq = len(a.orderIDs)
		}
		out = append(out, Customer{
			CustomerID:   id,
			LastPurchase: a.last,
			Recency:      int(math.Floor(reference.Sub(a.last).Hours() / 24)),
			Frequency:    freq,
			Monetary:     a.monetary,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, skipped, nil
}
