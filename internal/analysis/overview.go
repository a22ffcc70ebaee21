package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

// Options controls overview behavior.
type Options struct {
	// TopN bounds the category rankings (top and bottom).
	TopN int
	// BadReviewMax is the highest review score counted as a bad review.
	BadReviewMax int
}

// DefaultOptions ranks the top 10 categories and treats scores 1-2 as bad reviews.
func DefaultOptions() Options {
	return Options{TopN: 10, BadReviewMax: 2}
}

// Report is a markdown-friendly descriptive overview of an order dataset.
type Report struct {
	Name       string         `json:"name"`
	Rows       int            `json:"rows"`
	Orders     int            `json:"orders"`
	Customers  int            `json:"customers"`
	Revenue    float64        `json:"revenue"`
	Monthly    []Count        `json:"monthly"`
	Weekday    []Count        `json:"weekday"`
	TimeOfDay  []Count        `json:"time_of_day"`
	Categories []CategoryStat `json:"categories"`
	Review     ReviewFactors  `json:"review"`
	Warnings   []string       `json:"warnings,omitempty"`

	topN int
}

// Count is a labeled order-line count.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// CategoryStat aggregates order lines of one product category.
type CategoryStat struct {
	Name            string  `json:"name"`
	Lines           int     `json:"lines"`
	AvgPrice        float64 `json:"avg_price"`
	AvgFreight      float64 `json:"avg_freight"`
	AvgDeliveryDays float64 `json:"avg_delivery_days"`
	Delivered       int     `json:"delivered"`
}

// ReviewFactors relates review scores to delivery, payment and spend.
type ReviewFactors struct {
	BadReviews      int             `json:"bad_reviews"`
	GoodReviews     int             `json:"good_reviews"`
	AvgDeliveryBad  float64         `json:"avg_delivery_bad"`
	AvgDeliveryGood float64         `json:"avg_delivery_good"`
	ByPayment       []PaymentReview `json:"by_payment"`
	Correlations    []PairCorr      `json:"correlations"`
}

// PaymentReview is the mean review score for one payment type.
type PaymentReview struct {
	PaymentType string  `json:"payment_type"`
	Reviews     int     `json:"reviews"`
	AvgScore    float64 `json:"avg_score"`
}

// PairCorr is a Pearson correlation of a factor against review_score.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
	N int     `json:"n"`
}

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}

// TimeOfDay buckets an hour: Morning [6,12), Afternoon [12,18), Evening [18,24), Night otherwise.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "Morning"
	case hour >= 12 && hour < 18:
		return "Afternoon"
	case hour >= 18 && hour < 24:
		return "Evening"
	default:
		return "Night"
	}
}

type pairAcc struct {
	n     float64
	sumX  float64
	sumY  float64
	sumXX float64
	sumYY float64
	sumXY float64
}

func (p *pairAcc) add(x, y float64) {
	p.n++
	p.sumX += x
	p.sumY += y
	p.sumXX += x * x
	p.sumYY += y * y
	p.sumXY += x * y
}

func (p *pairAcc) r() float64 {
	if p.n < 2 {
		return 0
	}
	denom := math.Sqrt((p.n*p.sumXX - p.sumX*p.sumX) * (p.n*p.sumYY - p.sumY*p.sumY))
	if denom == 0 {
		return 0
	}
	r := (p.n*p.sumXY - p.sumX*p.sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Analyze computes the overview in a single pass plus a per-customer pass.
func Analyze(t *orders.Table, opt Options) *Report {
	if opt.TopN <= 0 {
		opt.TopN = DefaultOptions().TopN
	}
	if opt.BadReviewMax <= 0 {
		opt.BadReviewMax = DefaultOptions().BadReviewMax
	}
	rep := &Report{Name: t.Name, Rows: t.Rows, topN: opt.TopN}
	rep.Warnings = append(rep.Warnings, t.Warnings...)

	orderIDs := map[string]struct{}{}
	purchases := map[string]int{}
	monthly := map[string]int{}
	weekday := map[time.Weekday]int{}
	tod := map[string]int{}

	type catAcc struct {
		lines                    int
		price, freight, delivery float64
		delivered                int
	}
	cats := map[string]*catAcc{}

	type payAcc struct {
		n   int
		sum float64
	}
	pays := map[string]*payAcc{}

	var badN, goodN, badDel, goodDel int
	var badSum, goodSum float64
	price, freight, delivery := &pairAcc{}, &pairAcc{}, &pairAcc{}

	for _, r := range t.Records {
		if r.OrderID != "" {
			orderIDs[r.OrderID] = struct{}{}
		}
		if r.CustomerID != "" {
			purchases[r.CustomerID]++
		}
		rep.Revenue += r.Price

		if r.HasPurchase() {
			monthly[r.Month()]++
			weekday[r.PurchasedAt.Weekday()]++
			tod[TimeOfDay(r.PurchasedAt.Hour())]++
		}

		days, delivered := r.DeliveryDays()
		if r.Category != "" {
			c := cats[r.Category]
			if c == nil {
				c = &catAcc{}
				cats[r.Category] = c
			}
			c.lines++
			c.price += r.Price
			c.freight += r.Freight
			if delivered {
				c.delivered++
				c.delivery += float64(days)
			}
		}

		if r.ReviewScore == 0 {
			continue
		}
		score := float64(r.ReviewScore)
		if r.ReviewScore <= opt.BadReviewMax {
			badN++
			if delivered {
				badDel++
				badSum += float64(days)
			}
		} else {
			goodN++
			if delivered {
				goodDel++
				goodSum += float64(days)
			}
		}
		if r.PaymentType != "" {
			p := pays[r.PaymentType]
			if p == nil {
				p = &payAcc{}
				pays[r.PaymentType] = p
			}
			p.n++
			p.sum += score
		}
		price.add(r.Price, score)
		freight.add(r.Freight, score)
		if delivered {
			delivery.add(float64(days), score)
		}
	}

	// purchase_count is a per-customer attribute joined back onto each reviewed line
	count := &pairAcc{}
	for _, r := range t.Records {
		if r.ReviewScore == 0 || r.CustomerID == "" {
			continue
		}
		count.add(float64(purchases[r.CustomerID]), float64(r.ReviewScore))
	}

	rep.Orders = len(orderIDs)
	rep.Customers = len(purchases)

	for k, v := range monthly {
		rep.Monthly = append(rep.Monthly, Count{Key: k, Count: v})
	}
	sort.Slice(rep.Monthly, func(i, j int) bool { return rep.Monthly[i].Key < rep.Monthly[j].Key })
	for _, d := range weekdays {
		rep.Weekday = append(rep.Weekday, Count{Key: d.String(), Count: weekday[d]})
	}
	for _, k := range []string{"Morning", "Afternoon", "Evening", "Night"} {
		rep.TimeOfDay = append(rep.TimeOfDay, Count{Key: k, Count: tod[k]})
	}

	for name, c := range cats {
		cs := CategoryStat{
			Name:       name,
			Lines:      c.lines,
			AvgPrice:   c.price / float64(c.lines),
			AvgFreight: c.freight / float64(c.lines),
			Delivered:  c.delivered,
		}
		if c.delivered > 0 {
			cs.AvgDeliveryDays = c.delivery / float64(c.delivered)
		}
		rep.Categories = append(rep.Categories, cs)
	}
	sort.Slice(rep.Categories, func(i, j int) bool {
		if rep.Categories[i].Lines == rep.Categories[j].Lines {
			return rep.Categories[i].Name < rep.Categories[j].Name
		}
		return rep.Categories[i].Lines > rep.Categories[j].Lines
	})

	rf := &rep.Review
	rf.BadReviews, rf.GoodReviews = badN, goodN
	if badDel > 0 {
		rf.AvgDeliveryBad = badSum / float64(badDel)
	}
	if goodDel > 0 {
		rf.AvgDeliveryGood = goodSum / float64(goodDel)
	}
	for k, p := range pays {
		rf.ByPayment = append(rf.ByPayment, PaymentReview{PaymentType: k, Reviews: p.n, AvgScore: p.sum / float64(p.n)})
	}
	sort.Slice(rf.ByPayment, func(i, j int) bool {
		if rf.ByPayment[i].AvgScore == rf.ByPayment[j].AvgScore {
			return rf.ByPayment[i].PaymentType < rf.ByPayment[j].PaymentType
		}
		return rf.ByPayment[i].AvgScore > rf.ByPayment[j].AvgScore
	})
	for _, pc := range []struct {
		name string
		acc  *pairAcc
	}{
		{orders.ColPrice, price},
		{orders.ColFreight, freight},
		{"delivery_time", delivery},
		{"purchase_count", count},
	} {
		rf.Correlations = append(rf.Correlations, PairCorr{A: pc.name, B: orders.ColReviewScore, R: pc.acc.r(), N: int(pc.acc.n)})
	}

	if len(cats) == 0 && len(t.Records) > 0 {
		rep.Warnings = append(rep.Warnings, "no product categories present; category rankings skipped")
	}
	if badN+goodN == 0 && len(t.Records) > 0 {
		rep.Warnings = append(rep.Warnings, "no review scores present; review factors skipped")
	}
	return rep
}

// RankCategories orders categories by a metric and returns the top and
// bottom n. Only categories with a defined value participate.
func (r *Report) RankCategories(metric string, n int) (top, bottom []CategoryStat, err error) {
	if n <= 0 {
		n = r.topN
	}
	if n <= 0 {
		n = DefaultOptions().TopN
	}
	var value func(CategoryStat) float64
	switch metric {
	case "lines", "count":
		value = func(c CategoryStat) float64 { return float64(c.Lines) }
	case "price":
		value = func(c CategoryStat) float64 { return c.AvgPrice }
	case "freight":
		value = func(c CategoryStat) float64 { return c.AvgFreight }
	case "delivery":
		value = func(c CategoryStat) float64 { return c.AvgDeliveryDays }
	default:
		return nil, nil, fmt.Errorf("unknown category metric %q (use count, price, freight or delivery)", metric)
	}
	var sel []CategoryStat
	for _, c := range r.Categories {
		if metric == "delivery" && c.Delivered == 0 {
			continue
		}
		sel = append(sel, c)
	}
	sort.SliceStable(sel, func(i, j int) bool {
		vi, vj := value(sel[i]), value(sel[j])
		if vi == vj {
			return sel[i].Name < sel[j].Name
		}
		return vi > vj
	})
	if n > len(sel) {
		n = len(sel)
	}
	top = append(top, sel[:n]...)
	for i := len(sel) - 1; i >= len(sel)-n; i-- {
		bottom = append(bottom, sel[i])
	}
	return top, bottom, nil
}

// Markdown renders a compact overview suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Orders: %d\n", r.Orders))
	b.WriteString(fmt.Sprintf("Customers: %d\n", r.Customers))
	b.WriteString(fmt.Sprintf("Revenue: %.2f\n", r.Revenue))

	if len(r.Monthly) > 0 {
		b.WriteString("\n[MONTHLY ORDERS]\n")
		for _, c := range r.Monthly {
			b.WriteString(fmt.Sprintf("- %s: %d\n", c.Key, c.Count))
		}
		b.WriteString("\n[WEEKDAY ORDERS]\n")
		for _, c := range r.Weekday {
			b.WriteString(fmt.Sprintf("- %s: %d\n", c.Key, c.Count))
		}
		b.WriteString("\n[TIME OF DAY]\n")
		for _, c := range r.TimeOfDay {
			b.WriteString(fmt.Sprintf("- %s: %d\n", c.Key, c.Count))
		}
	}

	if len(r.Categories) > 0 {
		for _, m := range []struct{ metric, title, format string }{
			{"count", "CATEGORIES BY ORDER LINES", "%.0f"},
			{"price", "CATEGORIES BY AVERAGE PRICE", "%.2f"},
			{"freight", "CATEGORIES BY AVERAGE FREIGHT", "%.2f"},
			{"delivery", "CATEGORIES BY AVERAGE DELIVERY DAYS", "%.1f"},
		} {
			top, bottom, _ := r.RankCategories(m.metric, 0)
			if len(top) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("\n[%s]\n", m.title))
			b.WriteString("| rank | highest | value | lowest | value |\n")
			b.WriteString("| --- | --- | --- | --- | --- |\n")
			for i := range top {
				b.WriteString(fmt.Sprintf("| %d | %s | "+m.format+" | %s | "+m.format+" |\n", i+1,
					utils.Cell(top[i].Name), categoryValue(top[i], m.metric),
					utils.Cell(bottom[i].Name), categoryValue(bottom[i], m.metric)))
			}
		}
	}

	rf := r.Review
	if rf.BadReviews+rf.GoodReviews > 0 {
		b.WriteString("\n[REVIEW FACTORS]\n")
		b.WriteString(fmt.Sprintf("- bad reviews: %d, avg delivery %.1f days\n", rf.BadReviews, rf.AvgDeliveryBad))
		b.WriteString(fmt.Sprintf("- good reviews: %d, avg delivery %.1f days\n", rf.GoodReviews, rf.AvgDeliveryGood))
		for _, p := range rf.ByPayment {
			b.WriteString(fmt.Sprintf("- %s: avg review %.2f (n=%d)\n", utils.Cell(p.PaymentType), p.AvgScore, p.Reviews))
		}
		b.WriteString("\n[CORRELATIONS]\n")
		for _, c := range rf.Correlations {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f (n=%d)\n", c.A, c.B, c.R, c.N))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func categoryValue(c CategoryStat, metric string) float64 {
	switch metric {
	case "price":
		return c.AvgPrice
	case "freight":
		return c.AvgFreight
	case "delivery":
		return c.AvgDeliveryDays
	}
	return float64(c.Lines)
}
