// Package calendar provides the day-resolution date used to stamp ledger
// transactions. It only exposes what the ledger needs: construction of a
// valid date, day arithmetic and ordering.
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const layout = "2006-01-02"

var ErrInvalidDate = errors.New("calendar: invalid date")

// Date is a valid calendar date (no time of day, no zone).
type Date struct {
	t time.Time
}

// New returns the date for day/month/year, rejecting dates that do not exist
// (e.g. 31/04 or 29/02 outside a leap year).
func New(day, month, year int) (Date, error) {
	if month < 1 || month > 12 || day < 1 || year < 1 {
		return Date{}, fmt.Errorf("%w: %02d/%02d/%04d", ErrInvalidDate, day, month, year)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return Date{}, fmt.Errorf("%w: %02d/%02d/%04d", ErrInvalidDate, day, month, year)
	}
	return Date{t: t}, nil
}

// FromTime truncates t to its calendar day in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local date.
func Today() Date {
	return FromTime(time.Now())
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return Date{t: t}, nil
}

func (d Date) Day() int   { return d.t.Day() }
func (d Date) Month() int { return int(d.t.Month()) }
func (d Date) Year() int  { return d.t.Year() }

// IsZero reports whether d was never set.
func (d Date) IsZero() bool { return d.t.IsZero() }

// AddDays returns d moved n days forward.
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// SubDays returns d moved n days back.
func (d Date) SubDays(n int) Date { return Date{t: d.t.AddDate(0, 0, -n)} }

func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

func (d Date) String() string { return d.t.Format(layout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
