package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly   Recurrence = "monthly"
	Quarterly Recurrence = "quarterly"
	Annual    Recurrence = "annual"
	Custom    Recurrence = "custom"
)

const (
	Credit EntryType = "credit"
	Debit  EntryType = "debit"
)

// BaseSalaryLabel is the line item name used for the base salary.
const BaseSalaryLabel = "Base Salary"

type (
	// Recurrence tells on which months an income component applies.
	Recurrence string

	// EntryType is the sign of a component or breakdown line.
	EntryType string

	Household struct {
		ID   string
		Name string
	}

	// BaseSalaryRecord is one version of the household's base salary.
	// A nil EffectiveFrom means the record has always been in effect.
	BaseSalaryRecord struct {
		ID            string
		HouseholdID   string
		BaseAmount    Money
		EffectiveFrom *time.Time
		CreatedAt     time.Time
	}

	// IncomeComponent is a recurring addition or subtraction to the salary.
	IncomeComponent struct {
		ID          string
		HouseholdID string
		Name        string
		Amount      Money
		Kind        EntryType
		Recurrence  Recurrence
		Months      []int // 1-based; ignored for monthly
	}

	// SeasonalEvent is a bonus credited in specific months.
	SeasonalEvent struct {
		ID          string
		HouseholdID string
		Name        string
		Amount      Money
		Months      []int
	}

	// Deduction is an amortizing payroll deduction, e.g. a payroll loan.
	Deduction struct {
		ID                string
		HouseholdID       string
		Description       string
		AmountMonthly     Money
		StartMonth        string // "YYYY-MM"
		InstallmentsTotal int
		InstallmentsPaid  int
	}

	// Inputs is the snapshot of a household's salary configuration used by a
	// single calculation.
	Inputs struct {
		BaseSalaries []BaseSalaryRecord
		Components   []IncomeComponent
		Events       []SeasonalEvent
		Deductions   []Deduction
	}
)

var (
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidMonthCount = errors.New("month count must be at least 1")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidKind       = errors.New("invalid entry type")
	ErrUnknownRecurrence = errors.New("unknown recurrence")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrAlreadyMember     = errors.New("user already belongs to a household")

	// ErrNoHouseholdContext means the caller is not linked to any household yet.
	ErrNoHouseholdContext = errors.New("no household context")
	// ErrInvalidDeductionSchedule marks deduction data that cannot be scheduled.
	ErrInvalidDeductionSchedule = errors.New("invalid deduction schedule")
	// ErrUpstreamFetch marks a failure loading the household's input lists.
	ErrUpstreamFetch = errors.New("upstream fetch failure")
)

// ScheduleError describes why a deduction cannot be placed on the calendar.
type ScheduleError struct {
	DeductionID string
	Description string
	Reason      string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("%s: deduction %q (%s): %s", ErrInvalidDeductionSchedule, e.Description, e.DeductionID, e.Reason)
}

func (e *ScheduleError) Unwrap() error { return ErrInvalidDeductionSchedule }

// FetchError wraps a storage failure for one of the four input lists.
type FetchError struct {
	List string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUpstreamFetch, e.List, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrUpstreamFetch, e.Err} }

func (k EntryType) Valid() bool {
	return k == Credit || k == Debit
}

func (r Recurrence) Valid() bool {
	switch r {
	case Monthly, Quarterly, Annual, Custom:
		return true
	}
	return false
}

// Schedule returns the deduction's start month and the number of installments
// still to be paid.
func (d Deduction) Schedule() (YearMonth, int, error) {
	start, err := ParseYearMonth(strings.TrimSpace(d.StartMonth))
	if err != nil {
		return YearMonth{}, 0, &ScheduleError{DeductionID: d.ID, Description: d.Description, Reason: "start month must be YYYY-MM"}
	}
	if d.InstallmentsTotal < 0 || d.InstallmentsPaid < 0 {
		return YearMonth{}, 0, &ScheduleError{DeductionID: d.ID, Description: d.Description, Reason: "installment counts must not be negative"}
	}
	return start, d.InstallmentsTotal - d.InstallmentsPaid, nil
}

func (b BaseSalaryRecord) Validate() error {
	if b.BaseAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c IncomeComponent) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	if !c.Recurrence.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRecurrence, c.Recurrence)
	}
	return validateMonths(c.Months)
}

func (e SeasonalEvent) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Months) == 0 {
		return errors.New("at least one month is required")
	}
	return validateMonths(e.Months)
}

func (d Deduction) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyName
	}
	if err := d.AmountMonthly.Validate(); err != nil {
		return err
	}
	_, _, err := d.Schedule()
	return err
}

func validateMonths(months []int) error {
	for _, m := range months {
		if m < 1 || m > 12 {
			return fmt.Errorf("%w: %d", ErrInvalidMonth, m)
		}
	}
	return nil
}
