package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"contas/internal/core"
	"contas/internal/storage/memory"
)

const testSeed = `{
  "households": [
    {
      "id": "hh-1",
      "name": "Silva",
      "members": ["ana", "bruno"],
      "baseSalaries": [{ "id": "b1", "baseAmount": 5000, "effectiveFrom": "2025-01-01" }],
      "components": [{ "id": "c1", "name": "Meal Voucher", "amount": 600, "kind": "credit", "recurrence": "monthly" }],
      "events": [{ "id": "e1", "name": "13th Salary", "amount": 5000, "months": [12] }],
      "deductions": [{ "id": "d1", "description": "Loan", "amountMonthly": 300, "startMonth": "2025-06", "installmentsTotal": 10, "installmentsPaid": 2 }]
    },
    {
      "id": "hh-2",
      "name": "Souza",
      "members": ["carla"],
      "baseSalaries": [{ "id": "b2", "baseAmount": 3000 }]
    }
  ]
}`

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	if err := store.Load([]byte(testSeed)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return store
}

// countingResolver records how often the backing store is asked.
type countingResolver struct {
	mu    sync.Mutex
	calls int
	next  interface {
		HouseholdForUser(context.Context, string) (string, error)
	}
}

func (r *countingResolver) HouseholdForUser(ctx context.Context, userID string) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.next.HouseholdForUser(ctx, userID)
}

func (r *countingResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// failingReader fails one of the four lists.
type failingReader struct {
	*memory.Store
	list string
}

var errBackend = errors.New("backend unavailable")

func (f failingReader) ListComponents(ctx context.Context, householdID string) ([]core.IncomeComponent, error) {
	if f.list == ListComponents {
		return nil, errBackend
	}
	return f.Store.ListComponents(ctx, householdID)
}

func (f failingReader) ListDeductions(ctx context.Context, householdID string) ([]core.Deduction, error) {
	if f.list == ListDeductions {
		return nil, errBackend
	}
	return f.Store.ListDeductions(ctx, householdID)
}
