package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/deadmark/internal/scan"
	"github.com/MrSnakeDoc/deadmark/internal/store"
)

// SaveReport stores a scan summary and trims the listed reports to the
// configured history. Expired rows are pruned on the way.
func (s *Store) SaveReport(ctx context.Context, summary *scan.Summary) error {
	if summary == nil || summary.ID == "" {
		return fmt.Errorf("failed to save report: missing id")
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	now := s.now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reports (id, body, finished_at, saved_at, expires_at, listed)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(id) DO UPDATE SET
		     body = excluded.body,
		     finished_at = excluded.finished_at,
		     saved_at = excluded.saved_at,
		     expires_at = excluded.expires_at,
		     listed = 1`,
		summary.ID, string(data), summary.FinishedAt.UnixMilli(),
		now.UnixNano(), now.Add(s.reportTTL).UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reports SET listed = 0
		 WHERE listed = 1 AND id NOT IN (
		     SELECT id FROM reports WHERE listed = 1
		     ORDER BY finished_at DESC, saved_at DESC LIMIT ?
		 )`,
		s.history,
	); err != nil {
		return fmt.Errorf("failed to trim report history: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reports WHERE expires_at <= ?`, now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to prune reports: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport retrieves a report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (*scan.Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT body FROM reports WHERE id = ? AND expires_at > ?`,
		id, s.now().UnixMilli(),
	)
	summary, err := scanSummary(row)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrReportNotFound, id)
	}
	return summary, nil
}

// GetLastReport returns the most recently saved report, or nil when none is
// stored.
func (s *Store) GetLastReport(ctx context.Context) (*scan.Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT body FROM reports WHERE expires_at > ?
		 ORDER BY saved_at DESC LIMIT 1`,
		s.now().UnixMilli(),
	)
	return scanSummary(row)
}

// ListReportIDs returns the listed report IDs, newest first.
func (s *Store) ListReportIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM reports WHERE listed = 1
		 ORDER BY finished_at DESC, saved_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReportExists reports whether the report body has not expired yet.
func (s *Store) ReportExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE id = ? AND expires_at > ?`,
		id, s.now().UnixMilli(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check report: %w", err)
	}
	return n > 0, nil
}

// ForgetReports unlists the given IDs and deletes the ones already expired.
func (s *Store) ForgetReports(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to forget reports: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE reports SET listed = 0 WHERE id IN (`+placeholders+`)`, args...,
	); err != nil {
		return fmt.Errorf("failed to forget reports: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reports WHERE expires_at <= ? AND id IN (`+placeholders+`)`,
		append([]any{s.now().UnixMilli()}, args...)...,
	); err != nil {
		return fmt.Errorf("failed to forget reports: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to forget reports: %w", err)
	}
	return nil
}

func scanSummary(row scanner) (*scan.Summary, error) {
	var body string
	err := row.Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var summary scan.Summary
	if err := json.Unmarshal([]byte(body), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &summary, nil
}
