// Package datefmt converts between the date format screens store (DD-MM-YYYY)
// and the one the condominium service expects (YYYY-MM-DD).
package datefmt

import (
	"fmt"
	"strings"
	"time"
)

const (
	LocalLayout = "02-01-2006"
	WireLayout  = "2006-01-02"
)

// ToWire converts a DD-MM-YYYY date to YYYY-MM-DD. Impossible calendar dates
// (31-02-2024) are rejected.
func ToWire(local string) (string, error) {
	t, err := ParseLocal(local)
	if err != nil {
		return "", err
	}
	return t.Format(WireLayout), nil
}

// FromWire converts a YYYY-MM-DD date to DD-MM-YYYY.
func FromWire(wire string) (string, error) {
	t, err := time.Parse(WireLayout, strings.TrimSpace(wire))
	if err != nil {
		return "", fmt.Errorf("invalid server date %q: expected YYYY-MM-DD", wire)
	}
	return t.Format(LocalLayout), nil
}

func ParseLocal(local string) (time.Time, error) {
	t, err := time.Parse(LocalLayout, strings.TrimSpace(local))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected DD-MM-YYYY", local)
	}
	return t, nil
}

// Wire formats t as a server date in t's own location.
func Wire(t time.Time) string {
	return t.Format(WireLayout)
}
