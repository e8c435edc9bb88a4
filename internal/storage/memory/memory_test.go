package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"contas/internal/core"
)

const seedJSON = `{
  "households": [
    {
      "id": "h1",
      "name": "Rossi",
      "members": ["user-1", "user-2"],
      "baseSalaries": [
        {"baseAmount": 4000},
        {"id": "b2", "baseAmount": "5000.00", "effectiveFrom": "2025-01-01"}
      ],
      "components": [
        {"name": "Meal Voucher", "amount": 600, "kind": "credit", "recurrence": "monthly"}
      ],
      "events": [{"name": "13th Salary", "amount": 5000, "months": [12]}],
      "deductions": [
        {"description": "Loan", "amountMonthly": 300, "startMonth": "2025-06", "installmentsTotal": 10, "installmentsPaid": 2}
      ]
    },
    {"id": "h2", "name": "Bianchi"}
  ]
}`

func TestLoadSeed(t *testing.T) {
	s := New()
	if err := s.Load([]byte(seedJSON)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ctx := context.Background()

	for _, user := range []string{"user-1", "user-2"} {
		if h, err := s.HouseholdForUser(ctx, user); err != nil || h != "h1" {
			t.Fatalf("HouseholdForUser(%s) = %q, %v", user, h, err)
		}
	}
	if _, err := s.HouseholdForUser(ctx, "nobody"); !errors.Is(err, core.ErrNoHouseholdContext) {
		t.Fatalf("expected ErrNoHouseholdContext, got %v", err)
	}

	bases, _ := s.ListBaseSalaries(ctx, "h1")
	if len(bases) != 2 || bases[0].ID != "base-1" || bases[0].EffectiveFrom != nil {
		t.Fatalf("unexpected base salaries: %+v", bases)
	}
	if bases[1].BaseAmount.Cents != 500000 || bases[1].EffectiveFrom == nil {
		t.Fatalf("unexpected dated base salary: %+v", bases[1])
	}
	comps, _ := s.ListComponents(ctx, "h1")
	if len(comps) != 1 || comps[0].Kind != core.Credit || comps[0].Amount.Cents != 60000 {
		t.Fatalf("unexpected components: %+v", comps)
	}
	deds, _ := s.ListDeductions(ctx, "h1")
	if len(deds) != 1 || deds[0].ID != "deduction-1" {
		t.Fatalf("unexpected deductions: %+v", deds)
	}

	hs, _ := s.ListHouseholds(ctx)
	if len(hs) != 2 || hs[0].ID != "h1" || hs[1].ID != "h2" {
		t.Fatalf("unexpected households: %+v", hs)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// missing file -> empty store
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	if hs, _ := s.ListHouseholds(context.Background()); len(hs) != 0 {
		t.Fatalf("expected empty store, got %v", hs)
	}

	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(seedJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	if _, err := s.GetHousehold(context.Background(), "h2"); err != nil {
		t.Fatalf("GetHousehold() error = %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"households":[{"name":"no id"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatal("expected error for household without id")
	}
}

func TestReadsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.CreateHousehold(ctx, core.Household{ID: "h"})
	_ = s.CreateEvent(ctx, core.SeasonalEvent{ID: "e", HouseholdID: "h", Name: "x", Amount: core.Cents(1), Months: []int{6}})

	events, _ := s.ListEvents(ctx, "h")
	events[0].Name = "changed"
	again, _ := s.ListEvents(ctx, "h")
	if again[0].Name != "x" {
		t.Fatal("store was mutated through a returned slice")
	}
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.CreateHousehold(ctx, core.Household{ID: "h"})
	_ = s.CreateHousehold(ctx, core.Household{ID: "other"})
	if err := s.CreateComponent(ctx, core.IncomeComponent{ID: "c", HouseholdID: "h"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateComponent(ctx, core.IncomeComponent{ID: "c", HouseholdID: "missing"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("create in unknown household: %v", err)
	}
	if err := s.DeleteComponent(ctx, "other", "c"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete from other household: %v", err)
	}
	if err := s.DeleteComponent(ctx, "h", "c"); err != nil {
		t.Fatalf("DeleteComponent() error = %v", err)
	}
	if comps, _ := s.ListComponents(ctx, "h"); len(comps) != 0 {
		t.Fatalf("expected no components, got %v", comps)
	}
}

func TestSnapshots(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	dec := core.YearMonth{Year: 2025, Month: 12}
	nov := core.YearMonth{Year: 2025, Month: 11}

	_ = s.UpsertSnapshot(ctx, core.SalarySnapshot{HouseholdID: "b", YearMonth: dec, CreatedAt: base})
	_ = s.UpsertSnapshot(ctx, core.SalarySnapshot{HouseholdID: "a", YearMonth: dec, CreatedAt: base})
	_ = s.UpsertSnapshot(ctx, core.SalarySnapshot{HouseholdID: "a", YearMonth: nov, CreatedAt: base.Add(-time.Hour)})

	pending, _ := s.ListUnexportedSnapshots(ctx, 2)
	if len(pending) != 2 || pending[0].YearMonth != nov || pending[1].HouseholdID != "a" {
		t.Fatalf("unexpected pending order: %+v", pending)
	}

	if err := s.MarkSnapshotExported(ctx, "a", nov, base); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSnapshot(ctx, "a", nov)
	if err != nil || got.ExportedAt == nil {
		t.Fatalf("GetSnapshot() = %+v, %v", got, err)
	}
	pending, _ = s.ListUnexportedSnapshots(ctx, 0)
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if err := s.MarkSnapshotExported(ctx, "zzz", nov, base); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
