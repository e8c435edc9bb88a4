package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"contas/internal/core"
)

func errNotFound(what, id string) error {
	return fmt.Errorf("%s %q: %w", what, id, core.ErrNotFound)
}

// HouseholdForUser implements ports.HouseholdResolver
func (r *Repository) HouseholdForUser(ctx context.Context, userID string) (string, error) {
	var householdID string
	err := r.queryRow(ctx, "SELECT household_id FROM household_members WHERE user_id = ?", userID).Scan(&householdID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", core.ErrNoHouseholdContext
	}
	if err != nil {
		return "", fmt.Errorf("get household for user: %w", err)
	}
	return householdID, nil
}

// CreateHousehold implements ports.HouseholdWriter
func (r *Repository) CreateHousehold(ctx context.Context, h core.Household) error {
	_, err := r.exec(ctx, "INSERT INTO households (id, name, created_at) VALUES (?, ?, ?)",
		h.ID, h.Name, formatTimestamp(r.now()))
	if err != nil {
		return fmt.Errorf("create household: %w", err)
	}
	slog.InfoContext(ctx, "Household created", "household_id", h.ID)
	return nil
}

// AddMember implements ports.HouseholdWriter. A user belongs to one household;
// adding them again moves them.
func (r *Repository) AddMember(ctx context.Context, householdID, userID string) error {
	_, err := r.exec(ctx, `INSERT INTO household_members (user_id, household_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET household_id = excluded.household_id`,
		userID, householdID, formatTimestamp(r.now()))
	if err != nil {
		return fmt.Errorf("add household member: %w", err)
	}
	slog.InfoContext(ctx, "Household member added", "household_id", householdID, "user_id", userID)
	return nil
}

// ListHouseholds implements ports.HouseholdLister
func (r *Repository) ListHouseholds(ctx context.Context) ([]core.Household, error) {
	rows, err := r.query(ctx, "SELECT id, name FROM households ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var out []core.Household
	for rows.Next() {
		var h core.Household
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetHousehold implements ports.HouseholdLister
func (r *Repository) GetHousehold(ctx context.Context, id string) (core.Household, error) {
	h := core.Household{ID: id}
	err := r.queryRow(ctx, "SELECT name FROM households WHERE id = ?", id).Scan(&h.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Household{}, errNotFound("household", id)
	}
	if err != nil {
		return core.Household{}, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}
