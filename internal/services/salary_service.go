// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"contas/internal/cache"
	"contas/internal/core"
	"contas/internal/ports"
	"contas/internal/salary"
)

// Input list names reported in core.FetchError.
const (
	ListBaseSalaries = "base_salaries"
	ListComponents   = "income_components"
	ListEvents       = "seasonal_events"
	ListDeductions   = "deductions"
)

// Result holds either a single month or a projection.
type Result struct {
	HouseholdID string
	Single      *core.MonthlyBreakdown
	Projection  []core.MonthlyProjection
}

// SalaryService resolves the caller's household, loads its salary inputs and
// runs the calculator.
type SalaryService struct {
	households ports.HouseholdResolver
	reader     ports.SalaryConfigReader
	cache      *cache.LRUCache[string]
}

// NewSalaryService wires the service. householdCache may be nil.
func NewSalaryService(households ports.HouseholdResolver, reader ports.SalaryConfigReader, householdCache *cache.LRUCache[string]) *SalaryService {
	return &SalaryService{
		households: households,
		reader:     reader,
		cache:      householdCache,
	}
}

// HouseholdForUser implements ports.HouseholdResolver on top of the cache.
// Only successful lookups are cached so a user who just onboarded is seen
// immediately.
func (s *SalaryService) HouseholdForUser(ctx context.Context, userID string) (string, error) {
	if s.cache != nil {
		if id, ok := s.cache.Get(userID); ok {
			return id, nil
		}
	}
	id, err := s.households.HouseholdForUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		s.cache.Set(userID, id)
	}
	return id, nil
}

// ForgetUser drops any cached membership of userID.
func (s *SalaryService) ForgetUser(userID string) {
	if s.cache != nil {
		s.cache.Delete(userID)
	}
}

// Calculate computes one month when months is 1, otherwise a projection of
// months consecutive months starting at year/month.
func (s *SalaryService) Calculate(ctx context.Context, userID string, year, month, months int) (Result, error) {
	start, err := core.NewYearMonth(year, month)
	if err != nil {
		return Result{}, err
	}
	if months < 1 {
		return Result{}, fmt.Errorf("%w: got %d", core.ErrInvalidMonthCount, months)
	}

	householdID, err := s.HouseholdForUser(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("resolve household: %w", err)
	}
	return s.CalculateForHousehold(ctx, householdID, start, months)
}

// CalculateForHousehold is Calculate for an already resolved household.
func (s *SalaryService) CalculateForHousehold(ctx context.Context, householdID string, start core.YearMonth, months int) (Result, error) {
	in, err := s.LoadInputs(ctx, householdID)
	if err != nil {
		return Result{}, err
	}

	if months == 1 {
		b, err := salary.CalculateMonth(in, start.Year, start.Month)
		if err != nil {
			return Result{}, err
		}
		slog.DebugContext(ctx, "Salary calculated",
			"household_id", householdID,
			"year_month", start.String(),
			"net_cents", b.NetAmount.Cents)
		return Result{HouseholdID: householdID, Single: &b}, nil
	}

	projection, err := salary.Project(in, start, months)
	if err != nil {
		return Result{}, err
	}
	slog.DebugContext(ctx, "Salary projected",
		"household_id", householdID,
		"year_month", start.String(),
		"months", months)
	return Result{HouseholdID: householdID, Projection: projection}, nil
}

// LoadInputs fetches the four input lists concurrently. The first failure
// cancels the other fetches and is returned as a *core.FetchError.
func (s *SalaryService) LoadInputs(ctx context.Context, householdID string) (core.Inputs, error) {
	var in core.Inputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(fetchList(gctx, householdID, ListBaseSalaries, s.reader.ListBaseSalaries, &in.BaseSalaries))
	g.Go(fetchList(gctx, householdID, ListComponents, s.reader.ListComponents, &in.Components))
	g.Go(fetchList(gctx, householdID, ListEvents, s.reader.ListEvents, &in.Events))
	g.Go(fetchList(gctx, householdID, ListDeductions, s.reader.ListDeductions, &in.Deductions))
	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Failed to load salary inputs", "household_id", householdID, "error", err)
		return core.Inputs{}, err
	}
	return in, nil
}

func fetchList[T any](ctx context.Context, householdID, list string, fn func(context.Context, string) ([]T, error), dst *[]T) func() error {
	return func() error {
		items, err := fn(ctx, householdID)
		if err != nil {
			return &core.FetchError{List: list, Err: err}
		}
		*dst = items
		return nil
	}
}
