package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"contas/internal/core"
	"contas/internal/salary"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "contas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedHousehold(t *testing.T, repo *Repository, id, userID string) {
	t.Helper()
	ctx := context.Background()
	if err := repo.CreateHousehold(ctx, core.Household{ID: id, Name: "Household " + id}); err != nil {
		t.Fatalf("CreateHousehold() error = %v", err)
	}
	if userID != "" {
		if err := repo.AddMember(ctx, id, userID); err != nil {
			t.Fatalf("AddMember() error = %v", err)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &Repository{dialect: DialectPostgres}
	got := pg.rebind("SELECT * FROM t WHERE a = ? AND b = ? LIMIT ?")
	if want := "SELECT * FROM t WHERE a = $1 AND b = $2 LIMIT $3"; got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}

	lite := &Repository{dialect: DialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
}

func TestScanTime(t *testing.T) {
	ts := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want *time.Time
	}{
		{"nil", nil, nil},
		{"time value", ts, &ts},
		{"date text", "2025-07-01", &ts},
		{"rfc3339 bytes", []byte("2025-07-01T00:00:00Z"), &ts},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scanTime(tt.in)
			if err != nil {
				t.Fatalf("scanTime() error = %v", err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
				t.Errorf("scanTime() = %v, want %v", got, tt.want)
			}
		})
	}
	if _, err := scanTime("July 1st"); err == nil {
		t.Error("expected error for unparseable text")
	}
}

func TestHouseholdMembership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedHousehold(t, repo, "h1", "user-1")
	seedHousehold(t, repo, "h2", "")

	got, err := repo.HouseholdForUser(ctx, "user-1")
	if err != nil || got != "h1" {
		t.Fatalf("HouseholdForUser() = %q, %v", got, err)
	}
	if _, err := repo.HouseholdForUser(ctx, "stranger"); !errors.Is(err, core.ErrNoHouseholdContext) {
		t.Fatalf("expected ErrNoHouseholdContext, got %v", err)
	}

	// moving a user to another household
	if err := repo.AddMember(ctx, "h2", "user-1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := repo.HouseholdForUser(ctx, "user-1"); got != "h2" {
		t.Errorf("after move household = %q, want h2", got)
	}

	hs, err := repo.ListHouseholds(ctx)
	if err != nil || len(hs) != 2 {
		t.Fatalf("ListHouseholds() = %v, %v", hs, err)
	}
	if _, err := repo.GetHousehold(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetHousehold() error = %v, want ErrNotFound", err)
	}
}

func TestSalaryConfigRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedHousehold(t, repo, "h1", "user-1")
	seedHousehold(t, repo, "h2", "user-2")

	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mustCreate := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mustCreate(repo.CreateBaseSalary(ctx, core.BaseSalaryRecord{ID: "b1", HouseholdID: "h1", BaseAmount: core.Cents(500000), EffectiveFrom: &jan, CreatedAt: jan}))
	mustCreate(repo.CreateBaseSalary(ctx, core.BaseSalaryRecord{ID: "b0", HouseholdID: "h1", BaseAmount: core.Cents(400000), CreatedAt: jan.AddDate(-1, 0, 0)}))
	mustCreate(repo.CreateComponent(ctx, core.IncomeComponent{ID: "c1", HouseholdID: "h1", Name: "Meal Voucher", Amount: core.Cents(60000), Kind: core.Credit, Recurrence: core.Monthly}))
	mustCreate(repo.CreateComponent(ctx, core.IncomeComponent{ID: "c2", HouseholdID: "h1", Name: "PLR", Amount: core.Cents(10000), Kind: core.Credit, Recurrence: core.Custom, Months: []int{3, 9}}))
	mustCreate(repo.CreateEvent(ctx, core.SeasonalEvent{ID: "e1", HouseholdID: "h1", Name: "13th Salary", Amount: core.Cents(500000), Months: []int{12}}))
	mustCreate(repo.CreateDeduction(ctx, core.Deduction{ID: "d1", HouseholdID: "h1", Description: "Loan", AmountMonthly: core.Cents(30000), StartMonth: "2025-06", InstallmentsTotal: 10, InstallmentsPaid: 2}))
	mustCreate(repo.CreateComponent(ctx, core.IncomeComponent{ID: "other", HouseholdID: "h2", Name: "Other", Amount: core.Cents(1), Kind: core.Debit, Recurrence: core.Monthly}))

	bases, err := repo.ListBaseSalaries(ctx, "h1")
	if err != nil || len(bases) != 2 {
		t.Fatalf("ListBaseSalaries() = %v, %v", bases, err)
	}
	if bases[0].ID != "b0" || bases[0].EffectiveFrom != nil {
		t.Errorf("first base salary = %+v, want undated b0", bases[0])
	}
	if bases[1].EffectiveFrom == nil || !bases[1].EffectiveFrom.Equal(jan) {
		t.Errorf("b1 effective from = %v, want %v", bases[1].EffectiveFrom, jan)
	}

	comps, err := repo.ListComponents(ctx, "h1")
	if err != nil || len(comps) != 2 {
		t.Fatalf("ListComponents() = %v, %v", comps, err)
	}
	if comps[0].Months != nil || !reflect.DeepEqual(comps[1].Months, []int{3, 9}) {
		t.Errorf("component months = %v / %v", comps[0].Months, comps[1].Months)
	}

	events, err := repo.ListEvents(ctx, "h1")
	if err != nil || len(events) != 1 || events[0].Months[0] != 12 {
		t.Fatalf("ListEvents() = %v, %v", events, err)
	}
	deds, err := repo.ListDeductions(ctx, "h1")
	if err != nil || len(deds) != 1 || deds[0].InstallmentsPaid != 2 {
		t.Fatalf("ListDeductions() = %v, %v", deds, err)
	}

	in := core.Inputs{BaseSalaries: bases, Components: comps, Events: events, Deductions: deds}
	b, err := salary.CalculateMonth(in, 2025, 12)
	if err != nil {
		t.Fatal(err)
	}
	if b.NetAmount.String() != "10300.00" {
		t.Errorf("net from stored inputs = %s, want 10300.00", b.NetAmount)
	}
}

func TestDeleteScoped(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedHousehold(t, repo, "h1", "")
	seedHousehold(t, repo, "h2", "")

	if err := repo.CreateEvent(ctx, core.SeasonalEvent{ID: "e1", HouseholdID: "h1", Name: "Bonus", Amount: core.Cents(100), Months: []int{6}}); err != nil {
		t.Fatal(err)
	}
	if err := repo.DeleteEvent(ctx, "h2", "e1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete from other household: error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteEvent(ctx, "h1", "e1"); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	if err := repo.DeleteEvent(ctx, "h1", "e1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: error = %v, want ErrNotFound", err)
	}
}

func TestSnapshots(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedHousehold(t, repo, "h1", "")

	ym := core.YearMonth{Year: 2025, Month: 12}
	created := time.Date(2025, 12, 1, 6, 0, 0, 0, time.UTC)
	snap := core.SalarySnapshot{
		HouseholdID: "h1",
		YearMonth:   ym,
		CreatedAt:   created,
		Salary: core.MonthlyBreakdown{
			BaseAmount: core.Cents(500000),
			NetAmount:  core.Cents(500000),
			Breakdown:  []core.LineItem{{Name: core.BaseSalaryLabel, Amount: core.Cents(500000), Type: core.Credit}},
		},
	}
	if err := repo.UpsertSnapshot(ctx, snap); err != nil {
		t.Fatalf("UpsertSnapshot() error = %v", err)
	}

	got, err := repo.GetSnapshot(ctx, "h1", ym)
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if !reflect.DeepEqual(got.Salary, snap.Salary) || !got.CreatedAt.Equal(created) || got.ExportedAt != nil {
		t.Errorf("GetSnapshot() = %+v", got)
	}

	pending, err := repo.ListUnexportedSnapshots(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListUnexportedSnapshots() = %v, %v", pending, err)
	}

	if err := repo.MarkSnapshotExported(ctx, "h1", ym, created.Add(time.Hour)); err != nil {
		t.Fatalf("MarkSnapshotExported() error = %v", err)
	}
	if pending, _ := repo.ListUnexportedSnapshots(ctx, 10); len(pending) != 0 {
		t.Errorf("expected no pending snapshots, got %d", len(pending))
	}

	// re-running the month replaces the row and clears the export mark
	snap.Salary.NetAmount = core.Cents(1)
	if err := repo.UpsertSnapshot(ctx, snap); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.GetSnapshot(ctx, "h1", ym)
	if got.Salary.NetAmount.Cents != 1 || got.ExportedAt != nil {
		t.Errorf("after upsert = %+v", got)
	}

	if _, err := repo.GetSnapshot(ctx, "h1", core.YearMonth{Year: 2020, Month: 1}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing snapshot error = %v", err)
	}
	if err := repo.MarkSnapshotExported(ctx, "h1", core.YearMonth{Year: 2020, Month: 1}, created); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("mark missing snapshot error = %v", err)
	}
}
