// Package ports declares the interfaces services use to reach storage and
// other outbound adapters.
package ports

import (
	"context"
	"time"

	"contas/internal/core"
)

// Ports for outbound adapters.
type (
	// HouseholdResolver maps a caller to the household that owns their data.
	HouseholdResolver interface {
		// HouseholdForUser returns core.ErrNoHouseholdContext when the user
		// is not a member of any household.
		HouseholdForUser(ctx context.Context, userID string) (string, error)
	}

	// HouseholdWriter creates households and links users to them.
	HouseholdWriter interface {
		CreateHousehold(ctx context.Context, h core.Household) error
		AddMember(ctx context.Context, householdID, userID string) error
	}

	// HouseholdLister enumerates every household, for batch jobs.
	HouseholdLister interface {
		ListHouseholds(ctx context.Context) ([]core.Household, error)
		GetHousehold(ctx context.Context, id string) (core.Household, error)
	}

	// SalaryConfigReader returns the four salary input lists of a household.
	SalaryConfigReader interface {
		ListBaseSalaries(ctx context.Context, householdID string) ([]core.BaseSalaryRecord, error)
		ListComponents(ctx context.Context, householdID string) ([]core.IncomeComponent, error)
		ListEvents(ctx context.Context, householdID string) ([]core.SeasonalEvent, error)
		ListDeductions(ctx context.Context, householdID string) ([]core.Deduction, error)
	}

	// SalaryConfigWriter stores and removes salary input records.
	// Delete methods return core.ErrNotFound when no record matches.
	SalaryConfigWriter interface {
		CreateBaseSalary(ctx context.Context, r core.BaseSalaryRecord) error
		CreateComponent(ctx context.Context, c core.IncomeComponent) error
		CreateEvent(ctx context.Context, e core.SeasonalEvent) error
		CreateDeduction(ctx context.Context, d core.Deduction) error
		DeleteBaseSalary(ctx context.Context, householdID, id string) error
		DeleteComponent(ctx context.Context, householdID, id string) error
		DeleteEvent(ctx context.Context, householdID, id string) error
		DeleteDeduction(ctx context.Context, householdID, id string) error
	}

	// SnapshotStore persists computed monthly breakdowns.
	SnapshotStore interface {
		// UpsertSnapshot replaces any snapshot of the same household and
		// month and clears its exported mark.
		UpsertSnapshot(ctx context.Context, s core.SalarySnapshot) error
		// GetSnapshot returns core.ErrNotFound when missing.
		GetSnapshot(ctx context.Context, householdID string, ym core.YearMonth) (core.SalarySnapshot, error)
		ListUnexportedSnapshots(ctx context.Context, limit int) ([]core.SalarySnapshot, error)
		MarkSnapshotExported(ctx context.Context, householdID string, ym core.YearMonth, at time.Time) error
	}

	// SnapshotPublisher announces a stored snapshot to downstream consumers.
	SnapshotPublisher interface {
		PublishSnapshot(ctx context.Context, householdID string, ym core.YearMonth) error
	}

	// SnapshotExporter writes snapshots to an external destination.
	SnapshotExporter interface {
		ExportSnapshots(ctx context.Context, snapshots []core.SalarySnapshot) error
	}

	// Pinger reports whether a dependency is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
