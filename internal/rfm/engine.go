package rfm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
)

// Order is the direction of a score scale.
type Order string

const (
	// Ascending gives score 1 to the smallest values.
	Ascending Order = "ascending"
	// Descending gives score 1 to the largest values.
	Descending Order = "descending"
)

// Fallback selects what happens when quantile edges collapse.
type Fallback string

const (
	FallbackNone Fallback = "none"
	FallbackRank Fallback = "rank"
)

// Options controls Compute.
type Options struct {
	// Reference is the "now" for recency; zero means one day after the latest purchase.
	Reference     time.Time
	FrequencyMode FrequencyMode
	// RecencyOrder defaults to Ascending: the most recent customers get R=1.
	RecencyOrder Order
	Fallback     Fallback
	// Tiers is the number of quantile buckets for R and M (2..9).
	Tiers int
	// Rules classifies codes; nil means DefaultRules.
	Rules *RuleSet
}

// DefaultOptions is row frequency, ascending tertiles and no fallback.
func DefaultOptions() Options {
	return Options{
		FrequencyMode: FrequencyRows,
		RecencyOrder:  Ascending,
		Fallback:      FallbackNone,
		Tiers:         3,
	}
}

// Validate checks enumerations and ranges, filling zero values with defaults.
func (o *Options) Validate() error {
	def := DefaultOptions()
	if o.FrequencyMode == "" {
		o.FrequencyMode = def.FrequencyMode
	}
	if o.RecencyOrder == "" {
		o.RecencyOrder = def.RecencyOrder
	}
	if o.Fallback == "" {
		o.Fallback = def.Fallback
	}
	if o.Tiers == 0 {
		o.Tiers = def.Tiers
	}
	switch o.FrequencyMode {
	case FrequencyRows, FrequencyOrders:
	default:
		return fmt.Errorf("invalid frequency mode %q (use rows or orders)", o.FrequencyMode)
	}
	switch o.RecencyOrder {
	case Ascending, Descending:
	default:
		return fmt.Errorf("invalid recency order %q (use ascending or descending)", o.RecencyOrder)
	}
	switch o.Fallback {
	case FallbackNone, FallbackRank:
	default:
		return fmt.Errorf("invalid quantile fallback %q (use none or rank)", o.Fallback)
	}
	if o.Tiers < 2 || o.Tiers > 9 {
		return fmt.Errorf("invalid tiers %d (must be 2..9)", o.Tiers)
	}
	return nil
}

// Result is the scored customer table.
type Result struct {
	Reference time.Time  `json:"reference"`
	Tiers     int        `json:"tiers"`
	Customers []Customer `json:"customers"`
	// Skipped counts input rows excluded for a null timestamp or empty customer id.
	Skipped int `json:"skipped_rows"`
	// Fallbacks names metrics that were scored by rank instead of quantiles.
	Fallbacks []string `json:"fallbacks,omitempty"`

	rules *RuleSet
}

// Compute runs the whole pipeline: metrics, R/M quantile scores, F threshold,
// code formatting and segment classification.
func Compute(records []orders.Record, opt Options) (*Result, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	rules := opt.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	customers, skipped, err := ComputeMetrics(records, opt.Reference, opt.FrequencyMode)
	if err != nil {
		return nil, err
	}
	res := &Result{Reference: opt.Reference, Tiers: opt.Tiers, Customers: customers, Skipped: skipped, rules: rules}
	if len(customers) == 0 {
		return res, nil
	}
	if res.Reference.IsZero() {
		res.Reference = DefaultReference(records)
	}

	recency := make([]float64, len(customers))
	monetary := make([]float64, len(customers))
	for i, c := range customers {
		recency[i] = float64(c.Recency)
		monetary[i] = c.Monetary
	}
	rScores, err := res.score("recency", recency, opt)
	if err != nil {
		return nil, err
	}
	mScores, err := res.score("monetary", monetary, opt)
	if err != nil {
		return nil, err
	}

	for i := range customers {
		c := &customers[i]
		c.RScore = rScores[i]
		if opt.RecencyOrder == Descending {
			c.RScore = Score(opt.Tiers+1) - c.RScore
		}
		c.FScore = ClassifyFrequency(c.Frequency)
		c.MScore = mScores[i]
		c.Code = BuildCode(c.RScore, c.FScore, c.MScore)
		c.Segment = rules.SegmentOf(c.Code)
	}
	return res, nil
}

func (r *Result) score(metric string, values []float64, opt Options) ([]Score, error) {
	scores, err := ScoreQuantiles(values, opt.Tiers)
	if err == nil {
		return scores, nil
	}
	var ide *InsufficientDistinctValuesError
	if !errors.As(err, &ide) {
		return nil, err
	}
	ide.Metric = metric
	if opt.Fallback != FallbackRank {
		return nil, ide
	}
	r.Fallbacks = append(r.Fallbacks, metric)
	return ScoreRanked(values, opt.Tiers)
}

// SegmentCount is one row of the segment distribution.
type SegmentCount struct {
	Segment   Segment `json:"segment"`
	Customers int     `json:"customers"`
	Share     float64 `json:"share"`
}

// Summary counts customers per segment in rule-table order, fallback last.
// Segments with no customers are included with a zero count.
func (r *Result) Summary() []SegmentCount {
	rules := r.rules
	if rules == nil {
		rules = DefaultRules()
	}
	counts := map[Segment]int{}
	for _, c := range r.Customers {
		counts[c.Segment]++
	}
	order := rules.Segments()
	known := map[Segment]bool{}
	for _, s := range order {
		known[s] = true
	}
	for _, c := range r.Customers {
		if !known[c.Segment] {
			known[c.Segment] = true
			order = append(order, c.Segment)
		}
	}
	out := make([]SegmentCount, 0, len(order))
	total := len(r.Customers)
	for _, s := range order {
		sc := SegmentCount{Segment: s, Customers: counts[s]}
		if total > 0 {
			sc.Share = float64(counts[s]) / float64(total)
		}
		out = append(out, sc)
	}
	return out
}

// Filter returns the customers in the given segment, preserving order.
func (r *Result) Filter(seg Segment) []Customer {
	var out []Customer
	for _, c := range r.Customers {
		if c.Segment == seg {
			out = append(out, c)
		}
	}
	return out
}

// ResolveSegment matches name case-insensitively against the segments this
// result can produce.
func (r *Result) ResolveSegment(name string) (Segment, error) {
	for _, sc := range r.Summary() {
		if strings.EqualFold(string(sc.Segment), name) {
			return sc.Segment, nil
		}
	}
	return "", fmt.Errorf("unknown segment %q", name)
}
