package tz

import (
	"testing"
	"time"
)

func TestFormatZone(t *testing.T) {
	at := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	got, err := FormatZone("America/Los_Angeles", at)
	if err != nil {
		t.Fatalf("FormatZone error: %v", err)
	}
	if got != "GMT-08:00 America/Los_Angeles (PST)" {
		t.Fatalf("unexpected display string: %q", got)
	}
}

func TestFormatZoneIdempotent(t *testing.T) {
	at := time.Date(2026, 7, 4, 9, 30, 0, 0, time.UTC)
	first, err := FormatZone("America/New_York", at)
	if err != nil {
		t.Fatalf("FormatZone error: %v", err)
	}
	second, err := FormatZone("America/New_York", at)
	if err != nil {
		t.Fatalf("FormatZone error: %v", err)
	}
	if first != second {
		t.Fatalf("same zone and instant should format identically: %q vs %q", first, second)
	}
}

func TestFormatZoneInvalid(t *testing.T) {
	if _, err := FormatZone("Not/AZone", time.Now()); err == nil {
		t.Fatalf("expected error for invalid zone")
	}
}

func TestCleanTimezone(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"America/Chicago", "America/Chicago"},
		{"  America/Denver  ", "America/Denver"},
		{"GMT-07:00 America/Los_Angeles (PDT)", "America/Los_Angeles"},
		{"GMT+01:00 Europe/Paris (CET)", "Europe/Paris"},
		{"garbage", ""},
		{"", ""},
		{"GMT-07:00 Not/AZone (XXX)", ""},
	}
	for _, tc := range cases {
		if got := CleanTimezone(tc.raw); got != tc.want {
			t.Fatalf("CleanTimezone(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestValidRejectsLocal(t *testing.T) {
	if Valid("Local") {
		t.Fatalf("Local must not be accepted as a calendar zone")
	}
	if !Valid("UTC") {
		t.Fatalf("UTC should be accepted")
	}
}
