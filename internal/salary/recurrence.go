// Package salary computes monthly net salary breakdowns and multi-month
// projections from a household's salary configuration.
//
// This file implements the Strategy Pattern for income component recurrence.
// Each recurrence type has its own rule deciding whether a component applies
// to a given calendar month.
package salary

import (
	"fmt"
	"slices"

	"contas/internal/core"
)

var (
	defaultQuarterMonths = []int{1, 4, 7, 10}
	defaultAnnualMonths  = []int{12}
)

// RecurrenceRule is the strategy interface for income component recurrence.
type RecurrenceRule interface {
	// Applies reports whether a component with the given explicit months
	// list is paid in month (1-12).
	Applies(month int, months []int) bool
}

// MonthlyRule applies every month; the months list is ignored.
type MonthlyRule struct{}

func (MonthlyRule) Applies(int, []int) bool { return true }

// QuarterlyRule applies on the explicit months, or on January, April, July
// and October when none are given.
type QuarterlyRule struct{}

func (QuarterlyRule) Applies(month int, months []int) bool {
	if len(months) == 0 {
		months = defaultQuarterMonths
	}
	return slices.Contains(months, month)
}

// AnnualRule applies on the explicit months, or in December when none are given.
type AnnualRule struct{}

func (AnnualRule) Applies(month int, months []int) bool {
	if len(months) == 0 {
		months = defaultAnnualMonths
	}
	return slices.Contains(months, month)
}

// CustomRule applies only on the explicit months. An empty list never applies.
type CustomRule struct{}

func (CustomRule) Applies(month int, months []int) bool {
	return slices.Contains(months, month)
}

// recurrenceRules maps recurrence types to their rules.
var recurrenceRules = map[core.Recurrence]RecurrenceRule{
	core.Monthly:   MonthlyRule{},
	core.Quarterly: QuarterlyRule{},
	core.Annual:    AnnualRule{},
	core.Custom:    CustomRule{},
}

// RecurrenceRuleFor returns the rule for a recurrence type.
// Returns an error wrapping core.ErrUnknownRecurrence if none is registered.
func RecurrenceRuleFor(r core.Recurrence) (RecurrenceRule, error) {
	rule, ok := recurrenceRules[r]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownRecurrence, r)
	}
	return rule, nil
}

// RegisterRecurrenceRule adds or replaces the rule for a recurrence type.
// It is not safe for concurrent use and should be called during init.
func RegisterRecurrenceRule(r core.Recurrence, rule RecurrenceRule) {
	recurrenceRules[r] = rule
}
