package export

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
)

const createCustomerRFM = `CREATE TABLE "customer_rfm" (
	"customer_unique_id" TEXT PRIMARY KEY,
	"last_purchase" TEXT,
	"recency" INTEGER,
	"frequency" INTEGER,
	"monetary" REAL,
	"r_score" INTEGER,
	"f_score" INTEGER,
	"m_score" INTEGER,
	"rfm_score" TEXT,
	"segment" TEXT
)`

const createRunMeta = `CREATE TABLE "run_meta" ("key" TEXT PRIMARY KEY, "value" TEXT)`

// WriteSQLite replaces path with a database holding customer_rfm and run_meta.
func WriteSQLite(path string, res *rfm.Result, meta Meta) error {
	_ = os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	for _, stmt := range []string{
		`DROP TABLE IF EXISTS "customer_rfm"`,
		`DROP TABLE IF EXISTS "run_meta"`,
		createCustomerRFM,
		createRunMeta,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO "customer_rfm" VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range toRows(res.Customers) {
		if _, err := stmt.Exec(r.CustomerID, r.LastPurchase, r.Recency, r.Frequency, r.Monetary,
			r.RScore, r.FScore, r.MScore, r.Code, r.Segment); err != nil {
			return fmt.Errorf("insert %s: %w", r.CustomerID, err)
		}
	}
	for k, v := range map[string]string{
		"source":       meta.Source,
		"run_id":       meta.RunID,
		"generated_at": meta.GeneratedAt.Format(time.RFC3339),
		"reference":    res.Reference.Format(time.RFC3339),
		"tiers":        fmt.Sprint(res.Tiers),
		"skipped_rows": fmt.Sprint(res.Skipped),
	} {
		if _, err := tx.Exec(`INSERT INTO "run_meta" VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert run_meta: %w", err)
		}
	}
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_customer_rfm_segment ON customer_rfm(segment)`); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
