// Package clock converts (period, game clock) readings into seconds elapsed
// since tip-off.
package clock

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	// RegulationPeriods is the number of 12-minute quarters in a game.
	RegulationPeriods = 4
	// QuarterSeconds is the length of a regulation period.
	QuarterSeconds = 12 * 60
	// OvertimeSeconds is the length of each overtime period.
	OvertimeSeconds = 5 * 60
)

// ErrShortGame is returned when a completed game reports fewer than four periods.
var ErrShortGame = errors.New("final period before end of regulation")

// clockRe matches the live feed's clock format, e.g. "PT11M30.00S".
var clockRe = regexp.MustCompile(`^PT(\d+)M(\d+(?:\.\d+)?)S$`)

// ParseRemaining parses a clock reading into the time left in the period.
func ParseRemaining(clockText string) (time.Duration, error) {
	m := clockRe.FindStringSubmatch(clockText)
	if m == nil {
		return 0, fmt.Errorf("malformed clock %q", clockText)
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("clock minutes %q: %w", m[1], err)
	}
	seconds, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, fmt.Errorf("clock seconds %q: %w", m[2], err)
	}
	// Round to hundredths, the precision the feed publishes.
	centis := time.Duration(seconds*100+0.5) * 10 * time.Millisecond
	return time.Duration(minutes)*time.Minute + centis, nil
}

// PeriodLength returns the scheduled length of a period.
func PeriodLength(period int) time.Duration {
	if period > RegulationPeriods {
		return OvertimeSeconds * time.Second
	}
	return QuarterSeconds * time.Second
}

// PeriodEnd returns the elapsed seconds at the end of the given period.
func PeriodEnd(period int) int {
	if period <= RegulationPeriods {
		return QuarterSeconds * period
	}
	return QuarterSeconds*RegulationPeriods + OvertimeSeconds*(period-RegulationPeriods)
}

// Elapsed converts a period and clock reading into seconds since tip-off,
// rounded down to whole seconds. A clock reading longer than the period gives
// a value before the period start, so callers can flag it.
func Elapsed(period int, clockText string) (int, error) {
	if period < 1 {
		return 0, fmt.Errorf("invalid period %d", period)
	}
	remaining, err := ParseRemaining(clockText)
	if err != nil {
		return 0, err
	}
	d := time.Duration(PeriodEnd(period))*time.Second - remaining
	secs := d / time.Second
	if d%time.Second < 0 {
		secs--
	}
	return int(secs), nil
}

// MaxElapsed returns the length of a game that ended in finalPeriod.
func MaxElapsed(finalPeriod int) (int, error) {
	if finalPeriod < RegulationPeriods {
		return 0, fmt.Errorf("period %d: %w", finalPeriod, ErrShortGame)
	}
	return PeriodEnd(finalPeriod), nil
}

// Format renders elapsed seconds as a period label and the time remaining in
// that period, e.g. 30 -> "Q1 11:30", 2940 -> "OT1 04:00".
func Format(elapsed int) string {
	period := 1
	for elapsed > PeriodEnd(period) {
		period++
	}
	left := PeriodEnd(period) - elapsed
	label := fmt.Sprintf("Q%d", period)
	if period > RegulationPeriods {
		label = fmt.Sprintf("OT%d", period-RegulationPeriods)
	}
	return fmt.Sprintf("%s %02d:%02d", label, left/60, left%60)
}
