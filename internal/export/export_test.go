package export

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/orders"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
)

var ref = time.Date(2018, 10, 1, 0, 0, 0, 0, time.UTC)

func scored(t *testing.T) *rfm.Result {
	t.Helper()
	day := 24 * time.Hour
	records := []orders.Record{
		{CustomerID: "A", OrderID: "a1", PurchasedAt: ref.Add(-5 * day), Price: 50},
		{CustomerID: "B", OrderID: "b1", PurchasedAt: ref.Add(-50 * day), Price: 200},
		{CustomerID: "B", OrderID: "b2", PurchasedAt: ref.Add(-60 * day), Price: 200},
		{CustomerID: "B", OrderID: "b3", PurchasedAt: ref.Add(-70 * day), Price: 100},
		{CustomerID: "C", OrderID: "c1", PurchasedAt: ref.Add(-90 * day), Price: 10},
	}
	opt := rfm.DefaultOptions()
	opt.Reference = ref
	res, err := rfm.Compute(records, opt)
	require.NoError(t, err)
	return res
}

func meta() Meta {
	return Meta{Source: "orders.csv", RunID: "run-1", GeneratedAt: ref}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"csv": CSV, ".XLSX": XLSX, "excel": XLSX, "feather": Arrow, "ipc": Arrow,
		"json": JSON, "db": SQLite, "sqlite3": SQLite, "markdown": Markdown, "md": Markdown,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("parquet")
	assert.Error(t, err)

	f, err := FormatFromPath("out/rfm.sqlite")
	require.NoError(t, err)
	assert.Equal(t, SQLite, f)
	_, err = FormatFromPath("out/rfm")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, scored(t).Customers))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(columns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A,"), lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",223,Silver"), lines[2])
}

func TestWriteCSV_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(columns, ",")+"\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfm.xlsx")
	require.NoError(t, Write(path, XLSX, scored(t), meta()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sheetRFM, sheetSegments}, f.GetSheetList())

	rows, err := f.GetRows(sheetRFM)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, "B", rows[2][0])
	assert.Equal(t, "Silver", rows[2][9])

	seg, err := f.GetRows(sheetSegments)
	require.NoError(t, err)
	assert.Equal(t, []string{"segment", "customers", "share"}, seg[0])
	assert.Equal(t, "Gold", seg[1][0])
	assert.Equal(t, "0", seg[1][1])
}

func TestWriteArrow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfm.arrow")
	require.NoError(t, Write(path, Arrow, scored(t), meta()))

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	r, err := ipc.NewFileReader(fh, ipc.WithAllocator(Pool))
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, 1, r.NumRecords())
	rec, err := r.Record(0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, rec.NumRows())
	assert.True(t, rec.Schema().Equal(Schema))

	ids := rec.Column(0).(*array.String)
	assert.Equal(t, "C", ids.Value(2))
	monetary := rec.Column(4).(*array.Float64)
	assert.InDelta(t, 500, monetary.Value(1), 1e-9)
	codes := rec.Column(8).(*array.String)
	assert.Equal(t, "112", codes.Value(0))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rfm.json")
	require.NoError(t, Write(path, JSON, scored(t), meta()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "run-1", doc.Meta.RunID)
	assert.True(t, doc.Reference.Equal(ref))
	assert.Equal(t, 3, doc.Tiers)
	require.Len(t, doc.Customers, 3)
	assert.Equal(t, rfm.Code("311"), doc.Customers[2].Code)
	require.Len(t, doc.Segments, 3)
	assert.Equal(t, 2, doc.Segments[2].Customers)
}

func TestWriteJSON_EmptyCustomersIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfm.json")
	res, err := rfm.Compute(nil, rfm.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, WriteJSON(path, res, meta()))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"customers": []`)
}

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfm.db")
	res := scored(t)
	require.NoError(t, Write(path, SQLite, res, meta()))
	// a second write replaces the tables
	require.NoError(t, Write(path, SQLite, res, meta()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM customer_rfm`).Scan(&n))
	assert.Equal(t, 3, n)

	var code, seg string
	var monetary float64
	require.NoError(t, db.QueryRow(`SELECT rfm_score, segment, monetary FROM customer_rfm WHERE customer_unique_id = ?`, "B").Scan(&code, &seg, &monetary))
	assert.Equal(t, "223", code)
	assert.Equal(t, "Silver", seg)
	assert.InDelta(t, 500, monetary, 1e-9)

	var runID string
	require.NoError(t, db.QueryRow(`SELECT value FROM run_meta WHERE key = 'run_id'`).Scan(&runID))
	assert.Equal(t, "run-1", runID)
}

func TestWriteMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfm.md")
	require.NoError(t, Write(path, Markdown, scored(t), meta()))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[SEGMENTS]")
	assert.Contains(t, string(b), "orders.csv")
}
