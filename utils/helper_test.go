package utils

import (
	"testing"
	"time"
)

func TestDateOnly(t *testing.T) {
	in := time.Date(2025, 7, 15, 18, 42, 3, 999, time.UTC)
	got := DateOnly(in)
	want := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DateOnly = %v, want %v", got, want)
	}
}

func TestLastDayOfMonth(t *testing.T) {
	cases := []struct {
		in   time.Time
		want int
	}{
		{time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), 30},
	}
	for _, c := range cases {
		if got := LastDayOfMonth(c.in); got.Day() != c.want {
			t.Fatalf("LastDayOfMonth(%v) = %v, want day %d", c.in, got, c.want)
		}
	}
}

func TestIsLastDayOfMonth(t *testing.T) {
	if !IsLastDayOfMonth(time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("2025-07-31 is the last day of July")
	}
	if IsLastDayOfMonth(time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC)) == false {
		t.Fatalf("2025-02-28 is the last day of February")
	}
	if IsLastDayOfMonth(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("2024-02-28 is not the last day in a leap year")
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]string{"a", "b", "a", "c", "b"})
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("got %v", got)
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("seller@example.com") {
		t.Fatalf("valid address rejected")
	}
	if IsValidEmail("not-an-email") {
		t.Fatalf("invalid address accepted")
	}
}
