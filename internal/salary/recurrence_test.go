package salary

import (
	"errors"
	"testing"

	"contas/internal/core"
)

func appliesIn(rule RecurrenceRule, months []int) []int {
	var out []int
	for m := 1; m <= 12; m++ {
		if rule.Applies(m, months) {
			out = append(out, m)
		}
	}
	return out
}

func TestRecurrenceRules(t *testing.T) {
	tests := []struct {
		name   string
		rule   RecurrenceRule
		months []int
		want   []int
	}{
		{"monthly ignores months", MonthlyRule{}, []int{3}, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"quarterly default", QuarterlyRule{}, nil, []int{1, 4, 7, 10}},
		{"quarterly explicit", QuarterlyRule{}, []int{3, 6, 9, 12}, []int{3, 6, 9, 12}},
		{"annual default", AnnualRule{}, nil, []int{12}},
		{"annual explicit", AnnualRule{}, []int{7}, []int{7}},
		{"custom explicit", CustomRule{}, []int{2, 8}, []int{2, 8}},
		{"custom empty never applies", CustomRule{}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appliesIn(tt.rule, tt.months)
			if len(got) != len(tt.want) {
				t.Fatalf("applies in %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("applies in %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestRecurrenceRuleFor(t *testing.T) {
	for _, r := range []core.Recurrence{core.Monthly, core.Quarterly, core.Annual, core.Custom} {
		if _, err := RecurrenceRuleFor(r); err != nil {
			t.Errorf("RecurrenceRuleFor(%q) error = %v", r, err)
		}
	}

	_, err := RecurrenceRuleFor("fortnightly")
	if !errors.Is(err, core.ErrUnknownRecurrence) {
		t.Fatalf("expected ErrUnknownRecurrence, got %v", err)
	}
}

type evenMonthsRule struct{}

func (evenMonthsRule) Applies(month int, _ []int) bool { return month%2 == 0 }

func TestRegisterRecurrenceRule(t *testing.T) {
	const bimonthly core.Recurrence = "bimonthly"
	RegisterRecurrenceRule(bimonthly, evenMonthsRule{})
	t.Cleanup(func() { delete(recurrenceRules, bimonthly) })

	rule, err := RecurrenceRuleFor(bimonthly)
	if err != nil {
		t.Fatalf("RecurrenceRuleFor() error = %v", err)
	}
	if got := appliesIn(rule, nil); len(got) != 6 {
		t.Errorf("bimonthly applies in %v, want 6 months", got)
	}
}
