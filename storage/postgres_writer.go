package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"wallapop-scanner/models"
)

// PostgresWriter mirrors accepted records into PostgreSQL so the external
// viewer can query them without parsing the NDJSON store. The NDJSON file
// remains the source of truth; the mirror is strictly additive.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS suspicious_listings (
			id           TEXT         PRIMARY KEY,
			title        TEXT         NOT NULL,
			description  TEXT         NOT NULL DEFAULT '',
			price        NUMERIC(10,2) NOT NULL DEFAULT 0,
			currency     VARCHAR(8)   NOT NULL DEFAULT '',
			user_id      TEXT         NOT NULL DEFAULT '',
			city         TEXT         NOT NULL DEFAULT '',
			risk_score   INT          NOT NULL DEFAULT 0,
			risk_factors TEXT         NOT NULL DEFAULT '',
			crawled_at   TIMESTAMPTZ  NOT NULL,
			created_at   TIMESTAMPTZ  NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_suspicious_risk_score ON suspicious_listings(risk_score);
		CREATE INDEX IF NOT EXISTS idx_suspicious_user_id    ON suspicious_listings(user_id);
		CREATE INDEX IF NOT EXISTS idx_suspicious_crawled_at ON suspicious_listings(crawled_at);
	`)
	return err
}

// Write batch-upserts the records accepted in one run. Conflicting ids are
// left untouched, which keeps the mirror idempotent with the NDJSON store.
func (pw *PostgresWriter) Write(recs []*models.Record) error {
	if len(recs) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(recs); i += batchSize {
		end := i + batchSize
		if end > len(recs) {
			end = len(recs)
		}
		if err := pw.insertBatch(recs[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Record) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*11)

	for idx, r := range batch {
		base := idx * 11
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11))
		valueArgs = append(valueArgs,
			r.ID, r.Title, r.Description, r.Price, r.Currency, r.UserID,
			r.Location.City, r.Enrichment.Score, strings.Join(r.Enrichment.Reasons, "; "),
			r.Timestamps.CrawledAt, r.Timestamps.CreatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO suspicious_listings
			(id, title, description, price, currency, user_id, city, risk_score, risk_factors, crawled_at, created_at)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
