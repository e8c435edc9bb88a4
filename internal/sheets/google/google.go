// Package google exports salary snapshots to a Google Sheets spreadsheet.
package google

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"contas/internal/core"
	"contas/internal/ports"
)

// Header is the first row of every projections sheet.
var Header = []any{"Month", "Household", "Base", "Credits", "Debits", "Seasonal", "Deductions", "Net"}

// Options configure the exporter. One of the credential fields is required.
type Options struct {
	SpreadsheetID string
	// SheetName is the base name; rows go to "<year> <SheetName>".
	SheetName string

	ServiceAccountJSON string
	ServiceAccountFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.SnapshotExporter = (*Exporter)(nil)

// NewExporter creates a Sheets exporter authenticated with a service account.
func NewExporter(ctx context.Context, opts Options) (*Exporter, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := serviceAccountCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)
	return newExporter(svc, opts.SpreadsheetID, opts.SheetName), nil
}

func newExporter(svc *gsheet.Service, spreadsheetID, sheetName string) *Exporter {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Projections"
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func serviceAccountCredentials(ctx context.Context, opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.ServiceAccountJSON) != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(opts.ServiceAccountJSON), nil
	case strings.TrimSpace(opts.ServiceAccountFile) != "":
		data, err := os.ReadFile(opts.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", opts.ServiceAccountFile, "size", len(data))
		return data, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// ExportSnapshots implements ports.SnapshotExporter. Snapshots are appended
// to the sheet of their year, one Sheets call per year.
func (e *Exporter) ExportSnapshots(ctx context.Context, snaps []core.SalarySnapshot) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	for _, group := range groupByYear(snaps) {
		sheet := e.SheetFor(group[0].YearMonth.Year)
		rng := sheet + "!A:H"
		rows := make([][]any, 0, len(group))
		for _, s := range group {
			rows = append(rows, snapshotRow(s))
		}

		_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append to %s: %w", sheet, err)
		}
		slog.InfoContext(ctx, "Exported snapshots to sheet", "sheet", sheet, "rows", len(rows))
	}
	return nil
}

// SheetFor returns the sheet receiving the rows of year.
func (e *Exporter) SheetFor(year int) string {
	return yearPrefixedName(e.sheetName, year)
}

func snapshotRow(s core.SalarySnapshot) []any {
	b := s.Salary
	return []any{
		s.YearMonth.String(),
		s.HouseholdID,
		b.BaseAmount.Float(),
		b.Credits.Float(),
		b.Debits.Float(),
		b.SeasonalBonuses.Float(),
		b.DeductionsAmount.Float(),
		b.NetAmount.Float(),
	}
}

// groupByYear splits snaps by calendar year, oldest year first, keeping the
// input order within a year.
func groupByYear(snaps []core.SalarySnapshot) [][]core.SalarySnapshot {
	byYear := map[int][]core.SalarySnapshot{}
	for _, s := range snaps {
		byYear[s.YearMonth.Year] = append(byYear[s.YearMonth.Year], s)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	slices.SortFunc(years, cmp.Compare[int])

	out := make([][]core.SalarySnapshot, 0, len(years))
	for _, y := range years {
		out = append(out, byYear[y])
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
