package model

import (
	"testing"
	"time"
)

func TestAcceptedDateStrings_SingleDigitDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.May, 8, 0, 0, 0, 0, time.UTC)
	got := AcceptedDateStrings(day)
	if len(got) != 2 || got[0] != "08-May-2025" || got[1] != "8-May-2025" {
		t.Fatalf("want padded+unpadded, got %v", got)
	}
}

func TestAcceptedDateStrings_DoubleDigitDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.May, 18, 0, 0, 0, 0, time.UTC)
	got := AcceptedDateStrings(day)
	if len(got) != 1 || got[0] != "18-May-2025" {
		t.Fatalf("want single form, got %v", got)
	}
}

func TestMatchesDate(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.May, 8, 15, 30, 0, 0, time.UTC)
	if !MatchesDate("08-May-2025", day) || !MatchesDate("8-May-2025", day) {
		t.Fatalf("both spellings must match")
	}
	if MatchesDate("09-May-2025", day) || MatchesDate("", day) {
		t.Fatalf("other values must not match")
	}
}

func TestFormatAndParseSheetDate(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.May, 8, 0, 0, 0, 0, time.UTC)
	s := FormatSheetDate(day)
	if s != "08-May-2025" {
		t.Fatalf("format got %q", s)
	}
	back, err := ParseSheetDate(s)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !back.Equal(day) {
		t.Fatalf("round trip got %v", back)
	}
	if _, err := ParseSheetDate("2025-05-08"); err == nil {
		t.Fatalf("ISO form must be rejected")
	}
}
