package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/murmur/pkg/murmur/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	// Pragmas in the DSN apply to every pooled connection.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single writer connection serialises request workers sharing the cache table.
	db.SetMaxOpenConns(1)

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS messages (
	group_id TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	text TEXT NOT NULL,
	sent_at TEXT,
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	quarter INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_group_ordinal ON messages(group_id, ordinal);
CREATE INDEX IF NOT EXISTS idx_messages_period ON messages(year, month, quarter);

CREATE TABLE IF NOT EXISTS sentiment_cache (
	text TEXT PRIMARY KEY,
	sentiment TEXT NOT NULL,
	score REAL NOT NULL,
	rule_applied TEXT,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS custom_keywords (
	brand TEXT NOT NULL,
	keyword TEXT NOT NULL,
	PRIMARY KEY(brand, keyword)
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// AppendMessages inserts messages in one transaction, numbering any
// without an ordinal after the group's current maximum. A message whose
// (group, ordinal) is already stored is skipped.
func (s *sqliteStore) AppendMessages(ctx context.Context, msgs []store.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	maxOrdinal, err := loadMaxOrdinals(ctx, tx, msgs)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO messages (group_id, ordinal, text, sent_at, year, month, quarter)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(group_id, ordinal) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range store.AssignOrdinals(msgs, maxOrdinal) {
		var sentAt string
		if !m.SentAt.IsZero() {
			sentAt = m.SentAt.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, m.GroupID, m.Ordinal, m.Text, sentAt, m.Year, m.Month, m.Quarter); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func loadMaxOrdinals(ctx context.Context, tx *sql.Tx, msgs []store.Message) (map[string]int, error) {
	out := make(map[string]int)
	for _, m := range msgs {
		if _, done := out[m.GroupID]; done {
			continue
		}
		var n sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(ordinal) FROM messages WHERE group_id=?`, m.GroupID).Scan(&n); err != nil {
			return nil, err
		}
		out[m.GroupID] = int(n.Int64)
	}
	return out, nil
}

// Query returns messages matching f ordered by group then ordinal.
func (s *sqliteStore) Query(ctx context.Context, f store.Filter) ([]store.Message, error) {
	query, args := buildQuery(f)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Message
	for rows.Next() {
		var (
			m      store.Message
			sentAt sql.NullString
		)
		if err := rows.Scan(&m.GroupID, &m.Ordinal, &m.Text, &sentAt, &m.Year, &m.Month, &m.Quarter); err != nil {
			return nil, err
		}
		if sentAt.Valid && sentAt.String != "" {
			if parsed, perr := time.Parse(time.RFC3339, sentAt.String); perr == nil {
				m.SentAt = parsed
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// buildQuery translates a filter into SQL. Values only ever travel as
// bound parameters; the query text contains placeholders alone.
func buildQuery(f store.Filter) (string, []interface{}) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString(`SELECT group_id, ordinal, text, sent_at, year, month, quarter
FROM messages
WHERE text <> ''`)

	if len(f.GroupIDs) > 0 {
		sb.WriteString(" AND group_id IN (" + placeholders(len(f.GroupIDs)) + ")")
		for _, g := range f.GroupIDs {
			args = append(args, g)
		}
	}
	for _, clause := range []struct {
		column string
		values []int
	}{
		{"year", f.Years},
		{"month", f.Months},
		{"quarter", f.Quarters},
	} {
		if len(clause.values) == 0 {
			continue
		}
		sb.WriteString(" AND " + clause.column + " IN (" + placeholders(len(clause.values)) + ")")
		for _, v := range clause.values {
			args = append(args, v)
		}
	}
	sb.WriteString(" ORDER BY group_id, ordinal")
	return sb.String(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Groups returns the distinct group ids in ascending order.
func (s *sqliteStore) Groups(ctx context.Context) ([]string, error) {
	return s.loadStringColumn(ctx, `SELECT DISTINCT group_id FROM messages ORDER BY group_id`)
}

// GetSentiment retrieves the cached record for text.
func (s *sqliteStore) GetSentiment(ctx context.Context, text string) (store.SentimentRecord, bool, error) {
	var (
		rec     store.SentimentRecord
		rule    sql.NullString
		updated string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT text, sentiment, score, rule_applied, updated_at
FROM sentiment_cache
WHERE text = ?;
`, text).Scan(&rec.Text, &rec.Sentiment, &rec.Score, &rule, &updated)
	if err == sql.ErrNoRows {
		return store.SentimentRecord{}, false, nil
	}
	if err != nil {
		return store.SentimentRecord{}, false, err
	}
	rec.Rule = rule.String
	if parsed, perr := time.Parse(time.RFC3339Nano, updated); perr == nil {
		rec.UpdatedAt = parsed
	}
	return rec, true, nil
}

// UpsertSentiment inserts or replaces the record for rec.Text.
func (s *sqliteStore) UpsertSentiment(ctx context.Context, rec store.SentimentRecord) error {
	var rule interface{}
	if rec.Rule != "" {
		rule = rec.Rule
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sentiment_cache (text, sentiment, score, rule_applied, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(text) DO UPDATE SET
	sentiment=excluded.sentiment,
	score=excluded.score,
	rule_applied=excluded.rule_applied,
	updated_at=excluded.updated_at;
`, rec.Text, rec.Sentiment, rec.Score, rule, updated.UTC().Format(time.RFC3339Nano))
	return err
}

// AddKeyword adds a custom keyword for brand.
func (s *sqliteStore) AddKeyword(ctx context.Context, brand, keyword string) error {
	if brand == "" || keyword == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO custom_keywords (brand, keyword) VALUES (?, ?)
ON CONFLICT(brand, keyword) DO NOTHING;
`, brand, keyword)
	return err
}

// RemoveKeyword deletes a custom keyword and reports whether it existed.
func (s *sqliteStore) RemoveKeyword(ctx context.Context, brand, keyword string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM custom_keywords WHERE brand=? AND keyword=?`, brand, keyword)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Keywords returns the custom keywords for brand, sorted.
func (s *sqliteStore) Keywords(ctx context.Context, brand string) ([]string, error) {
	return s.loadStringColumn(ctx, `SELECT keyword FROM custom_keywords WHERE brand=? ORDER BY keyword`, brand)
}

func (s *sqliteStore) loadStringColumn(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, rows.Err()
}
