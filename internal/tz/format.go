package tz

import (
	"fmt"
	"strings"
	"time"
)

// FormatZone renders a timezone for display as
// "GMT±HH:MM <IANA-name> (<abbrev>)", using the zone's offset at the
// given instant. Same zone and instant always produce the same string.
func FormatZone(name string, at time.Time) (string, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return "", err
	}
	local := at.In(loc)
	abbrev, offset := local.Zone()

	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := offset / 3600
	minutes := (offset % 3600) / 60

	return fmt.Sprintf("GMT%s%02d:%02d %s (%s)", sign, hours, minutes, name, abbrev), nil
}

// CleanTimezone extracts a valid IANA name from a raw timezone field.
// Calendar records have been seen carrying a previously formatted display
// string ("GMT-07:00 America/Los_Angeles (PDT)") where a bare name should
// be; the repair pass pulls the IANA token back out. Returns "" when
// nothing in the field loads.
func CleanTimezone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if Valid(raw) {
		return raw
	}
	for _, token := range strings.Fields(raw) {
		token = strings.Trim(token, "()")
		if !strings.Contains(token, "/") {
			continue
		}
		if Valid(token) {
			return token
		}
	}
	return ""
}

// Valid reports whether name loads as a timezone. "Local" is rejected:
// the dashboard must never inherit the server's zone.
func Valid(name string) bool {
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
