package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/ports"
)

// SettingsStore is the storage needed to maintain a household's salary inputs.
type SettingsStore interface {
	ports.HouseholdWriter
	ports.HouseholdLister
	ports.SalaryConfigReader
	ports.SalaryConfigWriter
}

// SettingsService lists, creates and deletes the salary inputs of the
// caller's household.
type SettingsService struct {
	households ports.HouseholdResolver
	store      SettingsStore
	newID      func() string
	now        func() time.Time
}

func NewSettingsService(households ports.HouseholdResolver, store SettingsStore) *SettingsService {
	return &SettingsService{
		households: households,
		store:      store,
		newID:      uuid.NewString,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func validation(err error) error {
	return fmt.Errorf("%w: %w", core.ErrValidation, err)
}

func (s *SettingsService) household(ctx context.Context, userID string) (string, error) {
	id, err := s.households.HouseholdForUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve household: %w", err)
	}
	return id, nil
}

// CreateHousehold onboards a user into a new household named name.
func (s *SettingsService) CreateHousehold(ctx context.Context, userID, name string) (core.Household, error) {
	_, err := s.households.HouseholdForUser(ctx, userID)
	switch {
	case err == nil:
		return core.Household{}, core.ErrAlreadyMember
	case !errors.Is(err, core.ErrNoHouseholdContext):
		return core.Household{}, fmt.Errorf("resolve household: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return core.Household{}, validation(core.ErrEmptyName)
	}
	h := core.Household{ID: s.newID(), Name: name}
	if err := s.store.CreateHousehold(ctx, h); err != nil {
		return core.Household{}, err
	}
	if err := s.store.AddMember(ctx, h.ID, userID); err != nil {
		return core.Household{}, err
	}
	slog.InfoContext(ctx, "Household onboarded", "household_id", h.ID, "user_id", userID)
	return h, nil
}

// JoinHousehold adds userID to an existing household.
func (s *SettingsService) JoinHousehold(ctx context.Context, userID, householdID string) error {
	if _, err := s.store.GetHousehold(ctx, householdID); err != nil {
		return err
	}
	return s.store.AddMember(ctx, householdID, userID)
}

func (s *SettingsService) Household(ctx context.Context, userID string) (core.Household, error) {
	id, err := s.household(ctx, userID)
	if err != nil {
		return core.Household{}, err
	}
	return s.store.GetHousehold(ctx, id)
}

func (s *SettingsService) ListBaseSalaries(ctx context.Context, userID string) ([]core.BaseSalaryRecord, error) {
	id, err := s.household(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListBaseSalaries(ctx, id)
}

func (s *SettingsService) ListComponents(ctx context.Context, userID string) ([]core.IncomeComponent, error) {
	id, err := s.household(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListComponents(ctx, id)
}

func (s *SettingsService) ListEvents(ctx context.Context, userID string) ([]core.SeasonalEvent, error) {
	id, err := s.household(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, id)
}

func (s *SettingsService) ListDeductions(ctx context.Context, userID string) ([]core.Deduction, error) {
	id, err := s.household(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListDeductions(ctx, id)
}

// CreateBaseSalary stores a new base salary version for the caller's household.
func (s *SettingsService) CreateBaseSalary(ctx context.Context, userID string, r core.BaseSalaryRecord) (core.BaseSalaryRecord, error) {
	if err := r.Validate(); err != nil {
		return core.BaseSalaryRecord{}, validation(err)
	}
	id, err := s.household(ctx, userID)
	if err != nil {
		return core.BaseSalaryRecord{}, err
	}
	r.ID, r.HouseholdID, r.CreatedAt = s.newID(), id, s.now()
	if err := s.store.CreateBaseSalary(ctx, r); err != nil {
		return core.BaseSalaryRecord{}, err
	}
	slog.InfoContext(ctx, "Base salary created", "household_id", id, "record_id", r.ID)
	return r, nil
}

func (s *SettingsService) CreateComponent(ctx context.Context, userID string, c core.IncomeComponent) (core.IncomeComponent, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.IncomeComponent{}, validation(err)
	}
	id, err := s.household(ctx, userID)
	if err != nil {
		return core.IncomeComponent{}, err
	}
	c.ID, c.HouseholdID = s.newID(), id
	if err := s.store.CreateComponent(ctx, c); err != nil {
		return core.IncomeComponent{}, err
	}
	slog.InfoContext(ctx, "Income component created", "household_id", id, "record_id", c.ID)
	return c, nil
}

func (s *SettingsService) CreateEvent(ctx context.Context, userID string, e core.SeasonalEvent) (core.SeasonalEvent, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return core.SeasonalEvent{}, validation(err)
	}
	id, err := s.household(ctx, userID)
	if err != nil {
		return core.SeasonalEvent{}, err
	}
	e.ID, e.HouseholdID = s.newID(), id
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return core.SeasonalEvent{}, err
	}
	slog.InfoContext(ctx, "Seasonal event created", "household_id", id, "record_id", e.ID)
	return e, nil
}

func (s *SettingsService) CreateDeduction(ctx context.Context, userID string, d core.Deduction) (core.Deduction, error) {
	d.Description = strings.TrimSpace(d.Description)
	d.StartMonth = strings.TrimSpace(d.StartMonth)
	if err := d.Validate(); err != nil {
		return core.Deduction{}, validation(err)
	}
	id, err := s.household(ctx, userID)
	if err != nil {
		return core.Deduction{}, err
	}
	d.ID, d.HouseholdID = s.newID(), id
	if err := s.store.CreateDeduction(ctx, d); err != nil {
		return core.Deduction{}, err
	}
	slog.InfoContext(ctx, "Deduction created", "household_id", id, "record_id", d.ID)
	return d, nil
}

func (s *SettingsService) DeleteBaseSalary(ctx context.Context, userID, recordID string) error {
	return s.delete(ctx, userID, recordID, s.store.DeleteBaseSalary)
}

func (s *SettingsService) DeleteComponent(ctx context.Context, userID, recordID string) error {
	return s.delete(ctx, userID, recordID, s.store.DeleteComponent)
}

func (s *SettingsService) DeleteEvent(ctx context.Context, userID, recordID string) error {
	return s.delete(ctx, userID, recordID, s.store.DeleteEvent)
}

func (s *SettingsService) DeleteDeduction(ctx context.Context, userID, recordID string) error {
	return s.delete(ctx, userID, recordID, s.store.DeleteDeduction)
}

func (s *SettingsService) delete(ctx context.Context, userID, recordID string, del func(context.Context, string, string) error) error {
	id, err := s.household(ctx, userID)
	if err != nil {
		return err
	}
	if err := del(ctx, id, recordID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Salary input deleted", "household_id", id, "record_id", recordID)
	return nil
}
