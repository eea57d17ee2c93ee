package calendar

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	d, err := New(29, 2, 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Day() != 29 || d.Month() != 2 || d.Year() != 2024 {
		t.Errorf("unexpected date %s", d)
	}
}

func TestNew_Invalid(t *testing.T) {
	cases := [][3]int{
		{29, 2, 2023},
		{31, 4, 2024},
		{0, 1, 2024},
		{1, 13, 2024},
		{1, 1, 0},
	}
	for _, c := range cases {
		if _, err := New(c[0], c[1], c[2]); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("expected ErrInvalidDate for %v, got %v", c, err)
		}
	}
}

func TestAddSubDays_CrossMonthAndYear(t *testing.T) {
	d, _ := New(28, 12, 2023)
	got := d.AddDays(5)
	if got.String() != "2024-01-02" {
		t.Errorf("expected 2024-01-02, got %s", got)
	}
	back := got.SubDays(5)
	if !back.Equal(d) {
		t.Errorf("expected %s, got %s", d, back)
	}

	leap, _ := New(1, 3, 2024)
	if leap.SubDays(1).Day() != 29 {
		t.Errorf("expected 29/02 in a leap year, got %s", leap.SubDays(1))
	}
}

func TestCompare(t *testing.T) {
	a, _ := New(10, 5, 2024)
	b := a.AddDays(1)
	if !b.After(a) || !a.Before(b) || a.After(b) {
		t.Errorf("ordering broken for %s and %s", a, b)
	}
}

func TestFromTime_DropsClock(t *testing.T) {
	ts := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	d := FromTime(ts)
	if d.String() != "2024-06-01" {
		t.Errorf("expected 2024-06-01, got %s", d)
	}
}

func TestJSON(t *testing.T) {
	d, _ := New(15, 8, 2025)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-08-15"` {
		t.Errorf("unexpected encoding %s", data)
	}
	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("expected %s, got %s", d, back)
	}
	if err := json.Unmarshal([]byte(`"2025-02-30"`), &back); err == nil {
		t.Error("expected error for impossible date")
	}
}
