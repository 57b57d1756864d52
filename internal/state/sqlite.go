package state

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_cookies (
			base_url TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			path TEXT NOT NULL DEFAULT '/',
			domain TEXT NOT NULL DEFAULT '',
			expires_ts TEXT NOT NULL DEFAULT '',
			secure INTEGER NOT NULL DEFAULT 0,
			http_only INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY(base_url, name)
		);`,
		`CREATE TABLE IF NOT EXISTS practice_attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			problem_id INTEGER NOT NULL,
			problem_type TEXT NOT NULL,
			difficulty INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			attempt_ts TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS solves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			solver_type TEXT NOT NULL,
			input TEXT NOT NULL,
			solution TEXT NOT NULL DEFAULT '',
			solved_ts TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveCookies replaces the cookies remembered for baseURL. Passing none
// forgets the session.
func (s *SQLiteStore) SaveCookies(ctx context.Context, baseURL string, cookies []*http.Cookie) error {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM session_cookies WHERE base_url = ?`, baseURL); err != nil {
		return err
	}
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		expires := ""
		if !c.Expires.IsZero() {
			expires = c.Expires.UTC().Format(timeLayout)
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO session_cookies(base_url, name, value, path, domain, expires_ts, secure, http_only)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		`, baseURL, c.Name, c.Value, path, c.Domain, expires, ifThen(c.Secure, 1, 0), ifThen(c.HttpOnly, 1, 0)); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// LoadCookies returns the unexpired cookies for baseURL as of now.
func (s *SQLiteStore) LoadCookies(ctx context.Context, baseURL string, now time.Time) ([]*http.Cookie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value, path, domain, expires_ts, secure, http_only
		FROM session_cookies
		WHERE base_url = ?
		ORDER BY name
	`, strings.TrimSpace(baseURL))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*http.Cookie, 0)
	for rows.Next() {
		var (
			c          http.Cookie
			expiresRaw string
			secure     int
			httpOnly   int
		)
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &c.Domain, &expiresRaw, &secure, &httpOnly); err != nil {
			return nil, err
		}
		if expiresRaw != "" {
			t, err := time.Parse(timeLayout, expiresRaw)
			if err == nil && !t.After(now) {
				continue
			}
			c.Expires = t
		}
		c.Secure = secure == 1
		c.HttpOnly = httpOnly == 1
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) ClearCookies(ctx context.Context, baseURL string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_cookies WHERE base_url = ?`, strings.TrimSpace(baseURL))
	return err
}

func (s *SQLiteStore) RecordPracticeAttempt(ctx context.Context, attempt PracticeAttempt) error {
	kind := strings.TrimSpace(attempt.ProblemType)
	if attempt.ProblemID == 0 || kind == "" {
		return nil
	}
	ts := attempt.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO practice_attempts(problem_id, problem_type, difficulty, outcome, attempt_ts)
		VALUES(?, ?, ?, ?, ?)
	`, attempt.ProblemID, kind, max(0, attempt.Difficulty), string(attempt.Outcome), ts.UTC().Format(timeLayout))
	return err
}

func (s *SQLiteStore) PracticeSummary(ctx context.Context) (PracticeSummary, error) {
	out := PracticeSummary{ByType: map[string]int{}}
	var lastRaw string
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS attempts,
			COALESCE(SUM(CASE WHEN outcome = 'correct' THEN 1 ELSE 0 END), 0) AS correct,
			COALESCE(SUM(CASE WHEN outcome = 'gave_up' THEN 1 ELSE 0 END), 0) AS gave_up,
			COUNT(DISTINCT problem_type || ':' || problem_id) AS problems,
			COALESCE(MAX(attempt_ts), '') AS last_ts
		FROM practice_attempts
	`)
	if err := row.Scan(&out.Attempts, &out.Correct, &out.GaveUp, &out.Problems, &lastRaw); err != nil {
		return PracticeSummary{}, err
	}
	if t, err := time.Parse(timeLayout, lastRaw); err == nil {
		out.LastTS = t
	}
	rows, err := s.db.QueryContext(ctx, `SELECT problem_type, COUNT(*) FROM practice_attempts GROUP BY problem_type`)
	if err != nil {
		return PracticeSummary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return PracticeSummary{}, err
		}
		out.ByType[kind] = n
	}
	if err := rows.Err(); err != nil {
		return PracticeSummary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) RecordSolve(ctx context.Context, solve SolveRecord) error {
	input := strings.TrimSpace(solve.Input)
	if input == "" {
		return nil
	}
	ts := solve.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	kind := strings.TrimSpace(solve.SolverType)
	if kind == "" {
		kind = "integral"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO solves(solver_type, input, solution, solved_ts) VALUES(?, ?, ?, ?)
	`, kind, input, solve.Solution, ts.UTC().Format(timeLayout))
	return err
}

func (s *SQLiteStore) CountSolves(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM solves`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func ifThen(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}
