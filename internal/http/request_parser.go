// Package http provides the JSON API server and its handlers.
//
// This file implements request body decoding and the wire shapes of the
// settings resources.

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"contas/internal/core"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

const dateLayout = "2006-01-02"

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// sanitizeInput trims s and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseEffectiveFrom accepts "YYYY-MM-DD", "YYYY-MM" or RFC 3339. Empty means nil.
func parseEffectiveFrom(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, core.YearMonthLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: effectiveFrom %q must be YYYY-MM-DD", core.ErrValidation, s)
}

// CalculateRequest is the body of POST /calculate-net-salary.
type CalculateRequest struct {
	Year   *int `json:"year"`
	Month  *int `json:"month"`
	Months *int `json:"months"`
}

// MonthCount returns the requested number of months, defaulting to 1.
func (c CalculateRequest) MonthCount() int {
	if c.Months == nil {
		return 1
	}
	return *c.Months
}

// ProjectionResponse wraps a multi-month result.
type ProjectionResponse struct {
	Projection []core.MonthlyProjection `json:"projection"`
}

type HouseholdRequest struct {
	Name string `json:"name"`
}

type JoinHouseholdRequest struct {
	HouseholdID string `json:"householdId"`
}

type HouseholdDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BaseSalaryRequest struct {
	BaseAmount    core.Money `json:"baseAmount"`
	EffectiveFrom string     `json:"effectiveFrom"`
}

type BaseSalaryDTO struct {
	ID            string     `json:"id"`
	HouseholdID   string     `json:"householdId"`
	BaseAmount    core.Money `json:"baseAmount"`
	EffectiveFrom *string    `json:"effectiveFrom"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type ComponentRequest struct {
	Name       string          `json:"name"`
	Amount     core.Money      `json:"amount"`
	Type       core.EntryType  `json:"type"`
	Recurrence core.Recurrence `json:"recurrence"`
	Months     []int           `json:"months"`
}

type ComponentDTO struct {
	ID          string          `json:"id"`
	HouseholdID string          `json:"householdId"`
	Name        string          `json:"name"`
	Amount      core.Money      `json:"amount"`
	Type        core.EntryType  `json:"type"`
	Recurrence  core.Recurrence `json:"recurrence"`
	Months      []int           `json:"months"`
}

type EventRequest struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
	Months []int      `json:"months"`
}

type EventDTO struct {
	ID          string     `json:"id"`
	HouseholdID string     `json:"householdId"`
	Name        string     `json:"name"`
	Amount      core.Money `json:"amount"`
	Months      []int      `json:"months"`
}

type DeductionRequest struct {
	Description       string     `json:"description"`
	AmountMonthly     core.Money `json:"amountMonthly"`
	StartMonth        string     `json:"startMonth"`
	InstallmentsTotal int        `json:"installmentsTotal"`
	InstallmentsPaid  int        `json:"installmentsPaid"`
}

type DeductionDTO struct {
	ID                string     `json:"id"`
	HouseholdID       string     `json:"householdId"`
	Description       string     `json:"description"`
	AmountMonthly     core.Money `json:"amountMonthly"`
	StartMonth        string     `json:"startMonth"`
	InstallmentsTotal int        `json:"installmentsTotal"`
	InstallmentsPaid  int        `json:"installmentsPaid"`
}

func (r BaseSalaryRequest) toCore() (core.BaseSalaryRecord, error) {
	from, err := parseEffectiveFrom(r.EffectiveFrom)
	if err != nil {
		return core.BaseSalaryRecord{}, err
	}
	return core.BaseSalaryRecord{BaseAmount: r.BaseAmount, EffectiveFrom: from}, nil
}

func (r ComponentRequest) toCore() core.IncomeComponent {
	return core.IncomeComponent{
		Name:       sanitizeInput(r.Name),
		Amount:     r.Amount,
		Kind:       core.EntryType(strings.ToLower(string(r.Type))),
		Recurrence: core.Recurrence(strings.ToLower(string(r.Recurrence))),
		Months:     r.Months,
	}
}

func (r EventRequest) toCore() core.SeasonalEvent {
	return core.SeasonalEvent{Name: sanitizeInput(r.Name), Amount: r.Amount, Months: r.Months}
}

func (r DeductionRequest) toCore() core.Deduction {
	return core.Deduction{
		Description:       sanitizeInput(r.Description),
		AmountMonthly:     r.AmountMonthly,
		StartMonth:        r.StartMonth,
		InstallmentsTotal: r.InstallmentsTotal,
		InstallmentsPaid:  r.InstallmentsPaid,
	}
}

func householdDTO(h core.Household) HouseholdDTO {
	return HouseholdDTO{ID: h.ID, Name: h.Name}
}

func baseSalaryDTO(b core.BaseSalaryRecord) BaseSalaryDTO {
	dto := BaseSalaryDTO{ID: b.ID, HouseholdID: b.HouseholdID, BaseAmount: b.BaseAmount, CreatedAt: b.CreatedAt}
	if b.EffectiveFrom != nil {
		s := b.EffectiveFrom.Format(dateLayout)
		dto.EffectiveFrom = &s
	}
	return dto
}

func componentDTO(c core.IncomeComponent) ComponentDTO {
	months := c.Months
	if months == nil {
		months = []int{}
	}
	return ComponentDTO{
		ID:          c.ID,
		HouseholdID: c.HouseholdID,
		Name:        c.Name,
		Amount:      c.Amount,
		Type:        c.Kind,
		Recurrence:  c.Recurrence,
		Months:      months,
	}
}

func eventDTO(e core.SeasonalEvent) EventDTO {
	months := e.Months
	if months == nil {
		months = []int{}
	}
	return EventDTO{ID: e.ID, HouseholdID: e.HouseholdID, Name: e.Name, Amount: e.Amount, Months: months}
}

func deductionDTO(d core.Deduction) DeductionDTO {
	return DeductionDTO{
		ID:                d.ID,
		HouseholdID:       d.HouseholdID,
		Description:       d.Description,
		AmountMonthly:     d.AmountMonthly,
		StartMonth:        d.StartMonth,
		InstallmentsTotal: d.InstallmentsTotal,
		InstallmentsPaid:  d.InstallmentsPaid,
	}
}

// mapSlice converts every element of in with fn.
func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
