package storage

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"contas/internal/core"
)

// Months lists are stored as JSON arrays in a text column.
func encodeMonths(months []int) (string, error) {
	if len(months) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(months)
	if err != nil {
		return "", fmt.Errorf("encode months: %w", err)
	}
	return string(b), nil
}

func decodeMonths(s string) ([]int, error) {
	var months []int
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &months); err != nil {
		return nil, fmt.Errorf("decode months %q: %w", s, err)
	}
	if len(months) == 0 {
		return nil, nil
	}
	return months, nil
}

// ListBaseSalaries implements ports.SalaryConfigReader. Rows come back in
// creation order; the calculator does its own selection.
func (r *Repository) ListBaseSalaries(ctx context.Context, householdID string) ([]core.BaseSalaryRecord, error) {
	rows, err := r.query(ctx, `SELECT id, amount_cents, effective_from, created_at
		FROM base_salaries WHERE household_id = ? ORDER BY created_at, id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list base salaries: %w", err)
	}
	defer rows.Close()

	var out []core.BaseSalaryRecord
	for rows.Next() {
		var (
			rec                      core.BaseSalaryRecord
			effectiveFrom, createdAt any
		)
		if err := rows.Scan(&rec.ID, &rec.BaseAmount.Cents, &effectiveFrom, &createdAt); err != nil {
			return nil, fmt.Errorf("scan base salary: %w", err)
		}
		if rec.EffectiveFrom, err = scanTime(effectiveFrom); err != nil {
			return nil, fmt.Errorf("base salary %s effective_from: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = requiredTime(createdAt); err != nil {
			return nil, fmt.Errorf("base salary %s created_at: %w", rec.ID, err)
		}
		rec.HouseholdID = householdID
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListComponents implements ports.SalaryConfigReader
func (r *Repository) ListComponents(ctx context.Context, householdID string) ([]core.IncomeComponent, error) {
	rows, err := r.query(ctx, `SELECT id, name, amount_cents, kind, recurrence, months
		FROM income_components WHERE household_id = ? ORDER BY created_at, id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list income components: %w", err)
	}
	defer rows.Close()

	var out []core.IncomeComponent
	for rows.Next() {
		var (
			c      core.IncomeComponent
			months string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Amount.Cents, &c.Kind, &c.Recurrence, &months); err != nil {
			return nil, fmt.Errorf("scan income component: %w", err)
		}
		if c.Months, err = decodeMonths(months); err != nil {
			return nil, err
		}
		c.HouseholdID = householdID
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListEvents implements ports.SalaryConfigReader
func (r *Repository) ListEvents(ctx context.Context, householdID string) ([]core.SeasonalEvent, error) {
	rows, err := r.query(ctx, `SELECT id, name, amount_cents, months
		FROM seasonal_events WHERE household_id = ? ORDER BY created_at, id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list seasonal events: %w", err)
	}
	defer rows.Close()

	var out []core.SeasonalEvent
	for rows.Next() {
		var (
			e      core.SeasonalEvent
			months string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount.Cents, &months); err != nil {
			return nil, fmt.Errorf("scan seasonal event: %w", err)
		}
		if e.Months, err = decodeMonths(months); err != nil {
			return nil, err
		}
		e.HouseholdID = householdID
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListDeductions implements ports.SalaryConfigReader
func (r *Repository) ListDeductions(ctx context.Context, householdID string) ([]core.Deduction, error) {
	rows, err := r.query(ctx, `SELECT id, description, amount_cents, start_month, installments_total, installments_paid
		FROM deductions WHERE household_id = ? ORDER BY created_at, id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list deductions: %w", err)
	}
	defer rows.Close()

	var out []core.Deduction
	for rows.Next() {
		var d core.Deduction
		if err := rows.Scan(&d.ID, &d.Description, &d.AmountMonthly.Cents, &d.StartMonth, &d.InstallmentsTotal, &d.InstallmentsPaid); err != nil {
			return nil, fmt.Errorf("scan deduction: %w", err)
		}
		d.HouseholdID = householdID
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateBaseSalary implements ports.SalaryConfigWriter
func (r *Repository) CreateBaseSalary(ctx context.Context, rec core.BaseSalaryRecord) error {
	_, err := r.exec(ctx, `INSERT INTO base_salaries (id, household_id, amount_cents, effective_from, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.HouseholdID, rec.BaseAmount.Cents, nullableDate(rec.EffectiveFrom), formatTimestamp(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("create base salary: %w", err)
	}
	return nil
}

// CreateComponent implements ports.SalaryConfigWriter
func (r *Repository) CreateComponent(ctx context.Context, c core.IncomeComponent) error {
	months, err := encodeMonths(c.Months)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, `INSERT INTO income_components (id, household_id, name, amount_cents, kind, recurrence, months, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.HouseholdID, c.Name, c.Amount.Cents, string(c.Kind), string(c.Recurrence), months, formatTimestamp(r.now()))
	if err != nil {
		return fmt.Errorf("create income component: %w", err)
	}
	return nil
}

// CreateEvent implements ports.SalaryConfigWriter
func (r *Repository) CreateEvent(ctx context.Context, e core.SeasonalEvent) error {
	months, err := encodeMonths(e.Months)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, `INSERT INTO seasonal_events (id, household_id, name, amount_cents, months, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.HouseholdID, e.Name, e.Amount.Cents, months, formatTimestamp(r.now()))
	if err != nil {
		return fmt.Errorf("create seasonal event: %w", err)
	}
	return nil
}

// CreateDeduction implements ports.SalaryConfigWriter
func (r *Repository) CreateDeduction(ctx context.Context, d core.Deduction) error {
	_, err := r.exec(ctx, `INSERT INTO deductions (id, household_id, description, amount_cents, start_month, installments_total, installments_paid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.HouseholdID, d.Description, d.AmountMonthly.Cents, d.StartMonth, d.InstallmentsTotal, d.InstallmentsPaid, formatTimestamp(r.now()))
	if err != nil {
		return fmt.Errorf("create deduction: %w", err)
	}
	return nil
}

func (r *Repository) DeleteBaseSalary(ctx context.Context, householdID, id string) error {
	return r.deleteScoped(ctx, "base_salaries", householdID, id)
}

func (r *Repository) DeleteComponent(ctx context.Context, householdID, id string) error {
	return r.deleteScoped(ctx, "income_components", householdID, id)
}

func (r *Repository) DeleteEvent(ctx context.Context, householdID, id string) error {
	return r.deleteScoped(ctx, "seasonal_events", householdID, id)
}

func (r *Repository) DeleteDeduction(ctx context.Context, householdID, id string) error {
	return r.deleteScoped(ctx, "deductions", householdID, id)
}
