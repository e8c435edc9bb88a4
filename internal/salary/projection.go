package salary

import (
	"fmt"

	"contas/internal/core"
)

// Project computes monthCount consecutive monthly breakdowns starting at start.
//
// Each month is evaluated independently. Any failing month aborts the whole
// projection and no partial result is returned.
func Project(in core.Inputs, start core.YearMonth, monthCount int) ([]core.MonthlyProjection, error) {
	if monthCount < 1 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidMonthCount, monthCount)
	}
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("project from %s: %w", start, err)
	}

	out := make([]core.MonthlyProjection, 0, monthCount)
	for i := range monthCount {
		ym := start.AddMonths(i)
		b, err := CalculateMonth(in, ym.Year, ym.Month)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", ym, err)
		}
		out = append(out, core.MonthlyProjection{
			Year:      ym.Year,
			Month:     ym.Month,
			YearMonth: ym.String(),
			Salary:    b,
		})
	}
	return out, nil
}
