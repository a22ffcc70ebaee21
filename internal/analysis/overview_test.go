package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
)

var csvRows = []string{
	"order_id,customer_unique_id,order_purchase_timestamp,price,freight_value,product_category_name,payment_type,order_delivered_customer_date,review_score",
	"o1,A,2018-01-01 08:00:00,100,10,toys,credit_card,2018-01-05 08:00:00,5", // Monday morning, 4 days
	"o1,A,2018-01-01 08:00:00,50,5,garden,credit_card,2018-01-05 08:00:00,5",
	"o2,B,2018-01-02 13:00:00,20,8,toys,boleto,2018-01-22 13:00:00,1", // Tuesday afternoon, 20 days
	"o3,C,2018-02-03 19:30:00,30,3,health,boleto,2018-02-13 19:30:00,2", // Saturday evening, 10 days
	"o4,A,2018-02-04 02:00:00,10,2,toys,voucher,,4", // Sunday night, undelivered
	"o5,D,,5,1,,voucher,,",
}

func loadFixture(t *testing.T) *orders.Table {
	t.Helper()
	tbl, err := orders.ReadCSV(strings.NewReader(strings.Join(csvRows, "\n")), "fixture.csv", orders.Options{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return tbl
}

func TestAnalyzeTotalsAndTrends(t *testing.T) {
	rep := Analyze(loadFixture(t), DefaultOptions())

	if rep.Rows != 6 || rep.Orders != 5 || rep.Customers != 4 {
		t.Fatalf("totals: rows=%d orders=%d customers=%d", rep.Rows, rep.Orders, rep.Customers)
	}
	if math.Abs(rep.Revenue-215) > 1e-9 {
		t.Fatalf("revenue = %v", rep.Revenue)
	}
	if len(rep.Monthly) != 2 || rep.Monthly[0] != (Count{"2018-01", 3}) || rep.Monthly[1] != (Count{"2018-02", 2}) {
		t.Fatalf("monthly = %+v", rep.Monthly)
	}
	want := map[string]int{"Monday": 2, "Tuesday": 1, "Saturday": 1, "Sunday": 1, "Friday": 0}
	for _, c := range rep.Weekday {
		if n, ok := want[c.Key]; ok && n != c.Count {
			t.Fatalf("weekday %s = %d, want %d", c.Key, c.Count, n)
		}
	}
	if rep.Weekday[0].Key != "Monday" || rep.Weekday[6].Key != "Sunday" {
		t.Fatalf("weekday order: %+v", rep.Weekday)
	}
	tod := map[string]int{}
	for _, c := range rep.TimeOfDay {
		tod[c.Key] = c.Count
	}
	if tod["Morning"] != 2 || tod["Afternoon"] != 1 || tod["Evening"] != 1 || tod["Night"] != 1 {
		t.Fatalf("time of day = %+v", rep.TimeOfDay)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "1/6 rows") {
		t.Fatalf("warnings = %v", rep.Warnings)
	}
}

func TestTimeOfDayBoundaries(t *testing.T) {
	cases := map[int]string{0: "Night", 5: "Night", 6: "Morning", 11: "Morning", 12: "Afternoon", 17: "Afternoon", 18: "Evening", 23: "Evening"}
	for h, want := range cases {
		if got := TimeOfDay(h); got != want {
			t.Errorf("TimeOfDay(%d) = %s, want %s", h, got, want)
		}
	}
}

func TestCategoryStatsAndRanking(t *testing.T) {
	rep := Analyze(loadFixture(t), DefaultOptions())
	if len(rep.Categories) != 3 || rep.Categories[0].Name != "toys" || rep.Categories[0].Lines != 3 {
		t.Fatalf("categories = %+v", rep.Categories)
	}
	toys := rep.Categories[0]
	if math.Abs(toys.AvgPrice-130.0/3) > 1e-9 || toys.Delivered != 2 || math.Abs(toys.AvgDeliveryDays-12) > 1e-9 {
		t.Fatalf("toys = %+v", toys)
	}

	top, bottom, err := rep.RankCategories("price", 1)
	if err != nil {
		t.Fatalf("RankCategories: %v", err)
	}
	if top[0].Name != "garden" || bottom[0].Name != "health" {
		t.Fatalf("price ranking top=%v bottom=%v", top, bottom)
	}
	top, _, err = rep.RankCategories("delivery", 5)
	if err != nil {
		t.Fatalf("RankCategories: %v", err)
	}
	if len(top) != 3 || top[0].Name != "toys" {
		t.Fatalf("delivery ranking = %+v", top)
	}
	if _, _, err := rep.RankCategories("weight", 3); err == nil {
		t.Fatalf("expected error for unknown metric")
	}
}

func TestReviewFactors(t *testing.T) {
	rf := Analyze(loadFixture(t), DefaultOptions()).Review
	if rf.BadReviews != 2 || rf.GoodReviews != 3 {
		t.Fatalf("bad=%d good=%d", rf.BadReviews, rf.GoodReviews)
	}
	if math.Abs(rf.AvgDeliveryBad-15) > 1e-9 || math.Abs(rf.AvgDeliveryGood-4) > 1e-9 {
		t.Fatalf("delivery bad=%v good=%v", rf.AvgDeliveryBad, rf.AvgDeliveryGood)
	}
	if rf.ByPayment[0].PaymentType != "credit_card" || rf.ByPayment[0].AvgScore != 5 {
		t.Fatalf("by payment = %+v", rf.ByPayment)
	}
	var delivery PairCorr
	for _, c := range rf.Correlations {
		if c.A == "delivery_time" {
			delivery = c
		}
	}
	if delivery.N != 4 || delivery.R >= 0 {
		t.Fatalf("delivery correlation should be negative: %+v", delivery)
	}
}

func TestMarkdownSections(t *testing.T) {
	md := Analyze(loadFixture(t), DefaultOptions()).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]", "File: fixture.csv", "Orders: 5", "Revenue: 215.00",
		"[MONTHLY ORDERS]", "- 2018-01: 3", "[TIME OF DAY]",
		"[CATEGORIES BY ORDER LINES]", "| 1 | toys | 3 |",
		"[REVIEW FACTORS]", "[CORRELATIONS]", "[NOTES]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	rep := Analyze(&orders.Table{Name: "empty"}, DefaultOptions())
	if rep.Rows != 0 || len(rep.Categories) != 0 || len(rep.Warnings) != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.Contains(rep.Markdown(), "Rows: 0") {
		t.Fatalf("markdown missing rows")
	}
}
