package core

import (
	"fmt"
	"time"
)

// YearMonthLayout is the textual form of a calendar month.
const YearMonthLayout = "2006-01"

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month int // 1-12
}

// NewYearMonth builds a YearMonth and validates the month.
func NewYearMonth(year, month int) (YearMonth, error) {
	ym := YearMonth{Year: year, Month: month}
	if err := ym.Validate(); err != nil {
		return YearMonth{}, err
	}
	return ym, nil
}

// ParseYearMonth parses a strict "YYYY-MM" string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(YearMonthLayout, s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: int(t.Month())}, nil
}

// YearMonthOf returns the calendar month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

func (ym YearMonth) Validate() error {
	if ym.Month < 1 || ym.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// AddMonths moves n months forward (or backward when n is negative),
// wrapping December into January of the following year.
func (ym YearMonth) AddMonths(n int) YearMonth {
	idx := ym.index() + n
	year := idx / 12
	month := idx % 12
	if month < 0 {
		month += 12
		year--
	}
	return YearMonth{Year: year, Month: month + 1}
}

// MonthsSince returns how many months ym lies after other (negative if before).
func (ym YearMonth) MonthsSince(other YearMonth) int {
	return (ym.Year-other.Year)*12 + (ym.Month - other.Month)
}

// FirstDay returns midnight UTC on the first day of the month.
func (ym YearMonth) FirstDay() time.Time {
	return time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) Before(other YearMonth) bool {
	return ym.MonthsSince(other) < 0
}

// String renders "YYYY-MM".
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

func (ym YearMonth) index() int {
	return ym.Year*12 + ym.Month - 1
}
