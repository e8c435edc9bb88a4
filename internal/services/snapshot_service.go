package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/core"
	"contas/internal/ports"
)

// SnapshotService stores the monthly breakdown of every household and
// announces each stored snapshot.
type SnapshotService struct {
	households ports.HouseholdLister
	salary     *SalaryService
	store      ports.SnapshotStore
	publisher  ports.SnapshotPublisher
	now        func() time.Time
}

// NewSnapshotService wires the service. publisher may be nil, in which case
// snapshots are only picked up by the export sweep.
func NewSnapshotService(households ports.HouseholdLister, salary *SalaryService, store ports.SnapshotStore, publisher ports.SnapshotPublisher) *SnapshotService {
	return &SnapshotService{
		households: households,
		salary:     salary,
		store:      store,
		publisher:  publisher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SnapshotMonth snapshots ym for every household and returns how many were
// stored. A failing household does not stop the run; the failures are
// returned joined once all households were attempted.
func (s *SnapshotService) SnapshotMonth(ctx context.Context, ym core.YearMonth) (int, error) {
	if err := ym.Validate(); err != nil {
		return 0, err
	}
	households, err := s.households.ListHouseholds(ctx)
	if err != nil {
		return 0, fmt.Errorf("list households: %w", err)
	}

	stored := 0
	var errs []error
	for _, h := range households {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.SnapshotHousehold(ctx, h.ID, ym); err != nil {
			slog.ErrorContext(ctx, "Failed to snapshot household",
				"household_id", h.ID,
				"year_month", ym.String(),
				"error", err)
			errs = append(errs, fmt.Errorf("household %s: %w", h.ID, err))
			continue
		}
		stored++
	}

	slog.InfoContext(ctx, "Snapshot run completed",
		"year_month", ym.String(),
		"households", len(households),
		"stored", stored,
		"failed", len(errs))

	return stored, errors.Join(errs...)
}

// SnapshotCurrentMonth snapshots the calendar month containing now (UTC).
func (s *SnapshotService) SnapshotCurrentMonth(ctx context.Context) (int, error) {
	return s.SnapshotMonth(ctx, core.YearMonthOf(s.now()))
}

// SnapshotHousehold computes, stores and publishes one household's month.
func (s *SnapshotService) SnapshotHousehold(ctx context.Context, householdID string, ym core.YearMonth) error {
	res, err := s.salary.CalculateForHousehold(ctx, householdID, ym, 1)
	if err != nil {
		return err
	}

	snap := core.SalarySnapshot{
		HouseholdID: householdID,
		YearMonth:   ym,
		Salary:      *res.Single,
		CreatedAt:   s.now(),
	}
	if err := s.store.UpsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishSnapshot(ctx, householdID, ym); err != nil {
		// The export sweep picks up unpublished snapshots.
		slog.WarnContext(ctx, "Failed to publish snapshot message",
			"household_id", householdID,
			"year_month", ym.String(),
			"error", err)
	}
	return nil
}
