// Package stats derives display metrics from session lists. Every function is
// pure: same input list, same output, no persistence and no clock reads.
package stats

import (
	"sort"
	"time"

	"cribtrack/backend/internal/session/domain"
)

// Quality tiers total daily sleep by fixed minute thresholds. The thresholds
// are constants regardless of the baby's age in months; adjusting them per
// age band is a product decision, not a code one.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

const (
	excellentMinutes = 840
	goodMinutes      = 720
	fairMinutes      = 600
)

// Daily aggregates one calendar day of sleep sessions.
type Daily struct {
	Day               time.Time `json:"day"`
	TotalSleepMinutes int       `json:"totalSleepMinutes"`
	NightSleepMinutes int       `json:"nightSleepMinutes"`
	NapCount          int       `json:"napCount"`
	Quality           Quality   `json:"quality"`
}

// DailyStats aggregates the sessions whose start time falls on the same
// calendar day as day (in day's location). Only closed sessions count toward
// minutes; an in-progress session contributes nothing until it is closed.
func DailyStats(sessions []*domain.Session, day time.Time) Daily {
	d := Daily{Day: day}
	for _, s := range sessions {
		if !sameDay(s.StartTime, day) {
			continue
		}
		if s.Kind == domain.KindNap {
			d.NapCount++
		}
		if !s.Closed() || s.DurationMinutes == nil {
			continue
		}
		d.TotalSleepMinutes += *s.DurationMinutes
		if s.Kind == domain.KindNight {
			d.NightSleepMinutes += *s.DurationMinutes
		}
	}
	d.Quality = qualityFor(d.TotalSleepMinutes)
	return d
}

func qualityFor(totalMinutes int) Quality {
	switch {
	case totalMinutes >= excellentMinutes:
		return QualityExcellent
	case totalMinutes >= goodMinutes:
		return QualityGood
	case totalMinutes >= fairMinutes:
		return QualityFair
	default:
		return QualityPoor
	}
}

// WakeWindows returns the gaps between each closed nap's end and the next
// nap's start, in time order. Zero or negative gaps (overlapping or bad data)
// are excluded rather than reported as errors.
func WakeWindows(sessions []*domain.Session) []time.Duration {
	naps := make([]*domain.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Kind == domain.KindNap && s.Closed() {
			naps = append(naps, s)
		}
	}
	sort.Slice(naps, func(i, j int) bool { return naps[i].StartTime.Before(naps[j].StartTime) })

	var windows []time.Duration
	for i := 0; i < len(naps)-1; i++ {
		gap := naps[i+1].StartTime.Sub(*naps[i].EndTime)
		if gap > 0 {
			windows = append(windows, gap)
		}
	}
	return windows
}

// AverageWakeWindow returns the mean of WakeWindows, or 0 when no positive
// gaps exist.
func AverageWakeWindow(sessions []*domain.Session) time.Duration {
	windows := WakeWindows(sessions)
	if len(windows) == 0 {
		return 0
	}
	var total time.Duration
	for _, w := range windows {
		total += w
	}
	return total / time.Duration(len(windows))
}

// PeriodAverage returns total closed-session minutes divided by the number of
// calendar days in the period. Days with zero logged sessions still count in
// the denominator: the figure reflects overall adherence, not performance on
// days with data.
func PeriodAverage(sessions []*domain.Session, days int) float64 {
	if days <= 0 {
		return 0
	}
	total := 0
	for _, s := range sessions {
		if s.Closed() && s.DurationMinutes != nil {
			total += *s.DurationMinutes
		}
	}
	return float64(total) / float64(days)
}

func sameDay(t, day time.Time) bool {
	t = t.In(day.Location())
	ty, tm, td := t.Date()
	dy, dm, dd := day.Date()
	return ty == dy && tm == dm && td == dd
}
