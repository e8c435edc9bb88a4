package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"contas/internal/core"
)

// UpsertSnapshot implements ports.SnapshotStore
func (r *Repository) UpsertSnapshot(ctx context.Context, s core.SalarySnapshot) error {
	payload, err := json.Marshal(s.Salary)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.exec(ctx, `INSERT INTO salary_snapshots (household_id, year_month, payload, created_at, exported_at)
		VALUES (?, ?, ?, ?, NULL)
		ON CONFLICT (household_id, year_month) DO UPDATE
		SET payload = excluded.payload, created_at = excluded.created_at, exported_at = NULL`,
		s.HouseholdID, s.YearMonth.String(), string(payload), formatTimestamp(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	slog.DebugContext(ctx, "Snapshot stored", "household_id", s.HouseholdID, "year_month", s.YearMonth.String())
	return nil
}

// GetSnapshot implements ports.SnapshotStore
func (r *Repository) GetSnapshot(ctx context.Context, householdID string, ym core.YearMonth) (core.SalarySnapshot, error) {
	row := r.queryRow(ctx, `SELECT household_id, year_month, payload, created_at, exported_at
		FROM salary_snapshots WHERE household_id = ? AND year_month = ?`, householdID, ym.String())
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SalarySnapshot{}, errNotFound("snapshot", householdID+"/"+ym.String())
	}
	return s, err
}

// ListUnexportedSnapshots implements ports.SnapshotStore, oldest first.
func (r *Repository) ListUnexportedSnapshots(ctx context.Context, limit int) ([]core.SalarySnapshot, error) {
	rows, err := r.query(ctx, `SELECT household_id, year_month, payload, created_at, exported_at
		FROM salary_snapshots WHERE exported_at IS NULL
		ORDER BY created_at, household_id, year_month LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unexported snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.SalarySnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkSnapshotExported implements ports.SnapshotStore
func (r *Repository) MarkSnapshotExported(ctx context.Context, householdID string, ym core.YearMonth, at time.Time) error {
	res, err := r.exec(ctx, "UPDATE salary_snapshots SET exported_at = ? WHERE household_id = ? AND year_month = ?",
		formatTimestamp(at), householdID, ym.String())
	if err != nil {
		return fmt.Errorf("mark snapshot exported: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errNotFound("snapshot", householdID+"/"+ym.String())
	}
	slog.InfoContext(ctx, "Snapshot marked as exported", "household_id", householdID, "year_month", ym.String())
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (core.SalarySnapshot, error) {
	var (
		s                     core.SalarySnapshot
		ym, payload           string
		createdAt, exportedAt any
	)
	if err := row.Scan(&s.HouseholdID, &ym, &payload, &createdAt, &exportedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scan snapshot: %w", err)
	}

	var err error
	if s.YearMonth, err = core.ParseYearMonth(ym); err != nil {
		return s, err
	}
	if err := json.Unmarshal([]byte(payload), &s.Salary); err != nil {
		return s, fmt.Errorf("decode snapshot %s/%s: %w", s.HouseholdID, ym, err)
	}
	if s.Salary.Breakdown == nil {
		s.Salary.Breakdown = []core.LineItem{}
	}
	if s.CreatedAt, err = requiredTime(createdAt); err != nil {
		return s, fmt.Errorf("snapshot created_at: %w", err)
	}
	if s.ExportedAt, err = scanTime(exportedAt); err != nil {
		return s, fmt.Errorf("snapshot exported_at: %w", err)
	}
	return s, nil
}
