// Package memory is an in-process store for development and tests. It can be
// seeded from a JSON file.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"contas/internal/core"
)

type household struct {
	info       core.Household
	bases      []core.BaseSalaryRecord
	components []core.IncomeComponent
	events     []core.SeasonalEvent
	deductions []core.Deduction
}

type snapshotKey struct {
	householdID string
	ym          core.YearMonth
}

type Store struct {
	mu         sync.RWMutex
	households map[string]*household
	members    map[string]string
	snapshots  map[snapshotKey]core.SalarySnapshot
}

func New() *Store {
	return &Store{
		households: map[string]*household{},
		members:    map[string]string{},
		snapshots:  map[snapshotKey]core.SalarySnapshot{},
	}
}

// NewFromFile builds a store seeded from path. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if err := s.Load(data); err != nil {
		return nil, fmt.Errorf("load seed file %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// HouseholdForUser implements ports.HouseholdResolver
func (s *Store) HouseholdForUser(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.members[userID]
	if !ok {
		return "", core.ErrNoHouseholdContext
	}
	return id, nil
}

// CreateHousehold implements ports.HouseholdWriter
func (s *Store) CreateHousehold(_ context.Context, h core.Household) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.households[h.ID]; ok {
		return fmt.Errorf("household %q already exists", h.ID)
	}
	s.households[h.ID] = &household{info: h}
	return nil
}

// AddMember implements ports.HouseholdWriter
func (s *Store) AddMember(_ context.Context, householdID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.households[householdID]; !ok {
		return fmt.Errorf("household %q: %w", householdID, core.ErrNotFound)
	}
	s.members[userID] = householdID
	return nil
}

// ListHouseholds implements ports.HouseholdLister
func (s *Store) ListHouseholds(context.Context) ([]core.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Household, 0, len(s.households))
	for _, h := range s.households {
		out = append(out, h.info)
	}
	slices.SortFunc(out, func(a, b core.Household) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// GetHousehold implements ports.HouseholdLister
func (s *Store) GetHousehold(_ context.Context, id string) (core.Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.households[id]
	if !ok {
		return core.Household{}, fmt.Errorf("household %q: %w", id, core.ErrNotFound)
	}
	return h.info, nil
}

// ListBaseSalaries implements ports.SalaryConfigReader
func (s *Store) ListBaseSalaries(_ context.Context, householdID string) ([]core.BaseSalaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.households[householdID]; ok {
		return slices.Clone(h.bases), nil
	}
	return nil, nil
}

// ListComponents implements ports.SalaryConfigReader
func (s *Store) ListComponents(_ context.Context, householdID string) ([]core.IncomeComponent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.households[householdID]; ok {
		return slices.Clone(h.components), nil
	}
	return nil, nil
}

// ListEvents implements ports.SalaryConfigReader
func (s *Store) ListEvents(_ context.Context, householdID string) ([]core.SeasonalEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.households[householdID]; ok {
		return slices.Clone(h.events), nil
	}
	return nil, nil
}

// ListDeductions implements ports.SalaryConfigReader
func (s *Store) ListDeductions(_ context.Context, householdID string) ([]core.Deduction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.households[householdID]; ok {
		return slices.Clone(h.deductions), nil
	}
	return nil, nil
}

func (s *Store) owner(householdID string) (*household, error) {
	h, ok := s.households[householdID]
	if !ok {
		return nil, fmt.Errorf("household %q: %w", householdID, core.ErrNotFound)
	}
	return h, nil
}

// CreateBaseSalary implements ports.SalaryConfigWriter
func (s *Store) CreateBaseSalary(_ context.Context, r core.BaseSalaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.owner(r.HouseholdID)
	if err != nil {
		return err
	}
	h.bases = append(h.bases, r)
	return nil
}

// CreateComponent implements ports.SalaryConfigWriter
func (s *Store) CreateComponent(_ context.Context, c core.IncomeComponent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.owner(c.HouseholdID)
	if err != nil {
		return err
	}
	c.Months = slices.Clone(c.Months)
	h.components = append(h.components, c)
	return nil
}

// CreateEvent implements ports.SalaryConfigWriter
func (s *Store) CreateEvent(_ context.Context, e core.SeasonalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.owner(e.HouseholdID)
	if err != nil {
		return err
	}
	e.Months = slices.Clone(e.Months)
	h.events = append(h.events, e)
	return nil
}

// CreateDeduction implements ports.SalaryConfigWriter
func (s *Store) CreateDeduction(_ context.Context, d core.Deduction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.owner(d.HouseholdID)
	if err != nil {
		return err
	}
	h.deductions = append(h.deductions, d)
	return nil
}

func (s *Store) DeleteBaseSalary(_ context.Context, householdID, id string) error {
	return s.remove(householdID, id, "base salary", func(h *household) bool {
		return deleteByID(&h.bases, id, func(r core.BaseSalaryRecord) string { return r.ID })
	})
}

func (s *Store) DeleteComponent(_ context.Context, householdID, id string) error {
	return s.remove(householdID, id, "income component", func(h *household) bool {
		return deleteByID(&h.components, id, func(c core.IncomeComponent) string { return c.ID })
	})
}

func (s *Store) DeleteEvent(_ context.Context, householdID, id string) error {
	return s.remove(householdID, id, "seasonal event", func(h *household) bool {
		return deleteByID(&h.events, id, func(e core.SeasonalEvent) string { return e.ID })
	})
}

func (s *Store) DeleteDeduction(_ context.Context, householdID, id string) error {
	return s.remove(householdID, id, "deduction", func(h *household) bool {
		return deleteByID(&h.deductions, id, func(d core.Deduction) string { return d.ID })
	})
}

func (s *Store) remove(householdID, id, what string, del func(*household) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.households[householdID]
	if !ok || !del(h) {
		return fmt.Errorf("%s %q: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func deleteByID[T any](items *[]T, id string, idOf func(T) string) bool {
	before := len(*items)
	*items = slices.DeleteFunc(*items, func(v T) bool { return idOf(v) == id })
	return len(*items) != before
}

// UpsertSnapshot implements ports.SnapshotStore
func (s *Store) UpsertSnapshot(_ context.Context, snap core.SalarySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.ExportedAt = nil
	s.snapshots[snapshotKey{snap.HouseholdID, snap.YearMonth}] = snap
	return nil
}

// GetSnapshot implements ports.SnapshotStore
func (s *Store) GetSnapshot(_ context.Context, householdID string, ym core.YearMonth) (core.SalarySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[snapshotKey{householdID, ym}]
	if !ok {
		return core.SalarySnapshot{}, fmt.Errorf("snapshot %s/%s: %w", householdID, ym, core.ErrNotFound)
	}
	return snap, nil
}

// ListUnexportedSnapshots implements ports.SnapshotStore
func (s *Store) ListUnexportedSnapshots(_ context.Context, limit int) ([]core.SalarySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.SalarySnapshot
	for _, snap := range s.snapshots {
		if snap.ExportedAt == nil {
			out = append(out, snap)
		}
	}
	slices.SortFunc(out, func(a, b core.SalarySnapshot) int {
		return cmp.Or(
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.HouseholdID, b.HouseholdID),
			a.YearMonth.MonthsSince(b.YearMonth),
		)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkSnapshotExported implements ports.SnapshotStore
func (s *Store) MarkSnapshotExported(_ context.Context, householdID string, ym core.YearMonth, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := snapshotKey{householdID, ym}
	snap, ok := s.snapshots[key]
	if !ok {
		return fmt.Errorf("snapshot %s/%s: %w", householdID, ym, core.ErrNotFound)
	}
	snap.ExportedAt = &at
	s.snapshots[key] = snap
	return nil
}

// Seed file layout.
type (
	seedFile struct {
		Households []seedHousehold `json:"households"`
	}

	seedHousehold struct {
		ID           string           `json:"id"`
		Name         string           `json:"name"`
		Members      []string         `json:"members"`
		BaseSalaries []seedBaseSalary `json:"baseSalaries"`
		Components   []seedComponent  `json:"components"`
		Events       []seedEvent      `json:"events"`
		Deductions   []seedDeduction  `json:"deductions"`
	}

	seedBaseSalary struct {
		ID            string     `json:"id"`
		BaseAmount    core.Money `json:"baseAmount"`
		EffectiveFrom string     `json:"effectiveFrom"`
	}

	seedComponent struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Amount     core.Money      `json:"amount"`
		Kind       core.EntryType  `json:"kind"`
		Recurrence core.Recurrence `json:"recurrence"`
		Months     []int           `json:"months"`
	}

	seedEvent struct {
		ID     string     `json:"id"`
		Name   string     `json:"name"`
		Amount core.Money `json:"amount"`
		Months []int      `json:"months"`
	}

	seedDeduction struct {
		ID                string     `json:"id"`
		Description       string     `json:"description"`
		AmountMonthly     core.Money `json:"amountMonthly"`
		StartMonth        string     `json:"startMonth"`
		InstallmentsTotal int        `json:"installmentsTotal"`
		InstallmentsPaid  int        `json:"installmentsPaid"`
	}
)

// Load adds the households described by a JSON seed document.
func (s *Store) Load(data []byte) error {
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	ctx := context.Background()
	for _, sh := range seed.Households {
		if sh.ID == "" {
			return fmt.Errorf("seed household without id")
		}
		if err := s.CreateHousehold(ctx, core.Household{ID: sh.ID, Name: sh.Name}); err != nil {
			return err
		}
		for _, user := range sh.Members {
			if err := s.AddMember(ctx, sh.ID, user); err != nil {
				return err
			}
		}

		for i, b := range sh.BaseSalaries {
			rec := core.BaseSalaryRecord{
				ID:          seedID(b.ID, "base", i),
				HouseholdID: sh.ID,
				BaseAmount:  b.BaseAmount,
				// Seeded records are created in file order.
				CreatedAt: time.Unix(int64(i), 0).UTC(),
			}
			if b.EffectiveFrom != "" {
				t, err := time.Parse("2006-01-02", b.EffectiveFrom)
				if err != nil {
					return fmt.Errorf("household %s base salary %d: %w", sh.ID, i, err)
				}
				rec.EffectiveFrom = &t
			}
			if err := s.CreateBaseSalary(ctx, rec); err != nil {
				return err
			}
		}
		for i, c := range sh.Components {
			err := s.CreateComponent(ctx, core.IncomeComponent{
				ID: seedID(c.ID, "component", i), HouseholdID: sh.ID,
				Name: c.Name, Amount: c.Amount, Kind: c.Kind, Recurrence: c.Recurrence, Months: c.Months,
			})
			if err != nil {
				return err
			}
		}
		for i, e := range sh.Events {
			err := s.CreateEvent(ctx, core.SeasonalEvent{
				ID: seedID(e.ID, "event", i), HouseholdID: sh.ID,
				Name: e.Name, Amount: e.Amount, Months: e.Months,
			})
			if err != nil {
				return err
			}
		}
		for i, d := range sh.Deductions {
			err := s.CreateDeduction(ctx, core.Deduction{
				ID: seedID(d.ID, "deduction", i), HouseholdID: sh.ID,
				Description: d.Description, AmountMonthly: d.AmountMonthly, StartMonth: d.StartMonth,
				InstallmentsTotal: d.InstallmentsTotal, InstallmentsPaid: d.InstallmentsPaid,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func seedID(id, kind string, i int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("%s-%d", kind, i+1)
}
