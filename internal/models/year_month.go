package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearMonth is a calendar month without a day component.
type YearMonth struct {
	Year  int `json:"y"`
	Month int `json:"m"`
}

// YM is shorthand for YearMonth{Year: y, Month: m}.
func YM(y, m int) YearMonth { return YearMonth{Year: y, Month: m} }

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) YearMonth { return YearMonth{Year: t.Year(), Month: int(t.Month())} }

// Index maps the month onto a comparable integer (year*12 + month).
func (ym YearMonth) Index() int { return ym.Year*12 + ym.Month }

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool { return ym.Index() < other.Index() }

// After reports whether ym is strictly later than other.
func (ym YearMonth) After(other YearMonth) bool { return ym.Index() > other.Index() }

// AddMonths returns the month n months after ym; n may be negative.
func (ym YearMonth) AddMonths(n int) YearMonth {
	idx := ym.Year*12 + (ym.Month - 1) + n
	return YearMonth{Year: idx / 12, Month: idx%12 + 1}
}

// Valid reports whether the month is within 1..12 and the year is positive.
func (ym YearMonth) Valid() bool { return ym.Year > 0 && ym.Month >= 1 && ym.Month <= 12 }

// String formats the month as "YYYY-MM".
func (ym YearMonth) String() string { return fmt.Sprintf("%d-%02d", ym.Year, ym.Month) }

// ParseYearMonth parses a "YYYY-MM" string.
func ParseYearMonth(s string) (YearMonth, error) {
	year, month, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return YearMonth{}, fmt.Errorf("parse year-month %q: missing separator", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	ym := YearMonth{Year: y, Month: m}
	if !ym.Valid() {
		return YearMonth{}, fmt.Errorf("parse year-month %q: out of range", s)
	}
	return ym, nil
}
