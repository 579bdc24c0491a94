// Package restorepoint parses and validates the requested recovery point.
// Validation runs before any provider call: rejecting a bad timestamp here
// is far cheaper than triggering a restore that the provider will refuse.
package restorepoint

import (
	"time"

	"github.com/edwinbulter/quote-lambda-tf/internal/config"
	"github.com/edwinbulter/quote-lambda-tf/internal/errors"
)

// layouts accepted for --restore-point input. Offset-carrying forms first;
// naive forms fall through and get the default zone applied.
var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Point is a normalized recovery point.
type Point struct {
	// Instant is the absolute restore instant, in UTC.
	Instant time.Time
	// Input is the raw string the operator supplied.
	Input string
	// ZoneApplied is the IANA zone name applied to a naive input, empty when
	// the input carried its own offset.
	ZoneApplied string
}

// Token returns the deterministic timestamp token used in restore table
// names. It derives from the recovery point itself, never from the wall
// clock, so re-running with the same point addresses the same tables.
func (p Point) Token() string {
	return p.Instant.UTC().Format("20060102150405")
}

// Parse resolves the input to an absolute instant. Inputs without a zone
// offset are interpreted in defaultZone before conversion to UTC.
func Parse(input, defaultZone string) (Point, error) {
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return Point{Instant: t.UTC(), Input: input}, nil
		}
	}

	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		return Point{}, errors.RestorePointUnparsable(input, err)
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return Point{Instant: t.UTC(), Input: input, ZoneApplied: defaultZone}, nil
		}
	}

	return Point{}, errors.RestorePointUnparsable(input, nil)
}

// Validate bounds-checks the point against the retention window, measured
// against now. Rejects points older than the retention bound and points in
// the future.
func Validate(p Point, now time.Time) error {
	age := now.Sub(p.Instant)

	if age < 0 {
		return errors.RestorePointInFuture()
	}

	maxAge := time.Duration(config.RetentionDays) * 24 * time.Hour
	if age > maxAge {
		return errors.RestorePointTooOld(int(age.Hours()/24), config.RetentionDays)
	}

	return nil
}

// ParseAndValidate is the combined entry point used by the orchestrator.
func ParseAndValidate(input, defaultZone string, now time.Time) (Point, error) {
	p, err := Parse(input, defaultZone)
	if err != nil {
		return Point{}, err
	}
	if err := Validate(p, now); err != nil {
		return Point{}, err
	}
	return p, nil
}
