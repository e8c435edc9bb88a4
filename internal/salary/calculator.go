package salary

import (
	"fmt"
	"slices"

	"contas/internal/core"
)

// CalculateMonth computes the salary breakdown of one calendar month.
//
// It is a pure function of its inputs: the same inputs for the same month
// always yield the same breakdown. A household without an applicable base
// salary gets a zeroed breakdown and no error.
func CalculateMonth(in core.Inputs, year, month int) (core.MonthlyBreakdown, error) {
	target, err := core.NewYearMonth(year, month)
	if err != nil {
		return core.MonthlyBreakdown{}, fmt.Errorf("calculate %04d-%02d: %w", year, month, err)
	}

	// Schedules are checked up front so bad data fails even without a base salary.
	schedules, err := deductionSchedules(in.Deductions)
	if err != nil {
		return core.MonthlyBreakdown{}, err
	}

	base, ok := SelectBaseSalary(in.BaseSalaries, target)
	if !ok {
		return core.MonthlyBreakdown{Breakdown: []core.LineItem{}}, nil
	}

	out := core.MonthlyBreakdown{
		BaseAmount: base.BaseAmount,
		Breakdown: []core.LineItem{
			{Name: core.BaseSalaryLabel, Amount: base.BaseAmount, Type: core.Credit},
		},
	}

	for _, c := range in.Components {
		rule, err := RecurrenceRuleFor(c.Recurrence)
		if err != nil {
			return core.MonthlyBreakdown{}, fmt.Errorf("component %q: %w", c.Name, err)
		}
		if !rule.Applies(target.Month, c.Months) {
			continue
		}
		switch c.Kind {
		case core.Credit:
			out.Credits = out.Credits.Add(c.Amount)
		case core.Debit:
			out.Debits = out.Debits.Add(c.Amount)
		default:
			return core.MonthlyBreakdown{}, fmt.Errorf("component %q: %w: %q", c.Name, core.ErrInvalidKind, c.Kind)
		}
		out.Breakdown = append(out.Breakdown, core.LineItem{Name: c.Name, Amount: c.Amount, Type: c.Kind})
	}

	for _, e := range in.Events {
		if !slices.Contains(e.Months, target.Month) {
			continue
		}
		out.SeasonalBonuses = out.SeasonalBonuses.Add(e.Amount)
		out.Breakdown = append(out.Breakdown, core.LineItem{Name: e.Name, Amount: e.Amount, Type: core.Credit})
	}

	for i, d := range in.Deductions {
		if !schedules[i].activeIn(target) {
			continue
		}
		out.DeductionsAmount = out.DeductionsAmount.Add(d.AmountMonthly)
		out.Breakdown = append(out.Breakdown, core.LineItem{Name: d.Description, Amount: d.AmountMonthly, Type: core.Debit})
	}

	out.NetAmount = out.BaseAmount.
		Add(out.Credits).
		Sub(out.Debits).
		Add(out.SeasonalBonuses).
		Sub(out.DeductionsAmount)
	return out, nil
}

// SelectBaseSalary returns the base salary record in effect on the first day
// of target. Records without an effective date are in effect since forever
// and lose to any dated record. Ties on the effective date go to the most
// recently created record, then the higher amount, then the greater ID.
func SelectBaseSalary(records []core.BaseSalaryRecord, target core.YearMonth) (core.BaseSalaryRecord, bool) {
	cutoff := target.FirstDay()
	var (
		best  core.BaseSalaryRecord
		found bool
	)
	for _, r := range records {
		if r.EffectiveFrom != nil && r.EffectiveFrom.After(cutoff) {
			continue
		}
		if !found || newerBaseSalary(r, best) {
			best, found = r, true
		}
	}
	return best, found
}

func newerBaseSalary(a, b core.BaseSalaryRecord) bool {
	switch {
	case a.EffectiveFrom == nil && b.EffectiveFrom != nil:
		return false
	case a.EffectiveFrom != nil && b.EffectiveFrom == nil:
		return true
	case a.EffectiveFrom != nil && !a.EffectiveFrom.Equal(*b.EffectiveFrom):
		return a.EffectiveFrom.After(*b.EffectiveFrom)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.BaseAmount.Cents != b.BaseAmount.Cents {
		return a.BaseAmount.Cents > b.BaseAmount.Cents
	}
	return a.ID > b.ID
}

type deductionWindow struct {
	start     core.YearMonth
	remaining int
}

// activeIn reports whether target falls within the remaining installments,
// counted from the start month.
func (w deductionWindow) activeIn(target core.YearMonth) bool {
	elapsed := target.MonthsSince(w.start)
	return elapsed >= 0 && elapsed < w.remaining
}

func deductionSchedules(ds []core.Deduction) ([]deductionWindow, error) {
	out := make([]deductionWindow, len(ds))
	for i, d := range ds {
		start, remaining, err := d.Schedule()
		if err != nil {
			return nil, err
		}
		out[i] = deductionWindow{start: start, remaining: remaining}
	}
	return out, nil
}
