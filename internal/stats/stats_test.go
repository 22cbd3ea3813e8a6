package stats

import (
	"testing"
	"time"

	"cribtrack/backend/internal/session/domain"
)

func closedSession(kind domain.Kind, start time.Time, minutes int) *domain.Session {
	end := start.Add(time.Duration(minutes) * time.Minute)
	m := minutes
	return &domain.Session{
		ID:              "s-" + start.Format("150405"),
		OwnerID:         "o1",
		Domain:          domain.DomainSleep,
		Kind:            kind,
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: &m,
	}
}

func TestDailyStats_QualityThresholds(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		minutes int
		want    Quality
	}{
		{"exactly excellent", 840, QualityExcellent},
		{"one short of excellent", 839, QualityGood},
		{"exactly good", 720, QualityGood},
		{"exactly fair", 600, QualityFair},
		{"one short of fair", 599, QualityPoor},
		{"zero", 0, QualityPoor},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var sessions []*domain.Session
			if c.minutes > 0 {
				sessions = []*domain.Session{closedSession(domain.KindNight, day.Add(20*time.Hour), c.minutes)}
			}
			d := DailyStats(sessions, day)
			if d.TotalSleepMinutes != c.minutes {
				t.Errorf("TotalSleepMinutes = %d, want %d", d.TotalSleepMinutes, c.minutes)
			}
			if d.Quality != c.want {
				t.Errorf("Quality = %q, want %q", d.Quality, c.want)
			}
		})
	}
}

func TestDailyStats_OnlyClosedSessionsCount(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	active := &domain.Session{
		OwnerID: "o1", Domain: domain.DomainSleep, Kind: domain.KindNap,
		StartTime: day.Add(9 * time.Hour),
	}
	closed := closedSession(domain.KindNap, day.Add(13*time.Hour), 90)

	d := DailyStats([]*domain.Session{active, closed}, day)
	if d.TotalSleepMinutes != 90 {
		t.Errorf("TotalSleepMinutes = %d, want 90 (active session must not count)", d.TotalSleepMinutes)
	}
	if d.NapCount != 2 {
		t.Errorf("NapCount = %d, want 2", d.NapCount)
	}
}

func TestDailyStats_FiltersByDay(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	onDay := closedSession(domain.KindNight, day.Add(20*time.Hour), 400)
	dayBefore := closedSession(domain.KindNight, day.Add(-4*time.Hour), 500)
	dayAfter := closedSession(domain.KindNap, day.Add(25*time.Hour), 60)

	d := DailyStats([]*domain.Session{onDay, dayBefore, dayAfter}, day)
	if d.TotalSleepMinutes != 400 {
		t.Errorf("TotalSleepMinutes = %d, want 400", d.TotalSleepMinutes)
	}
	if d.NightSleepMinutes != 400 {
		t.Errorf("NightSleepMinutes = %d, want 400", d.NightSleepMinutes)
	}
	if d.NapCount != 0 {
		t.Errorf("NapCount = %d, want 0", d.NapCount)
	}
}

func TestWakeWindows(t *testing.T) {
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	first := closedSession(domain.KindNap, base, 60)                  // 09:00-10:00
	second := closedSession(domain.KindNap, base.Add(3*time.Hour), 45) // 12:00-12:45, gap 2h

	windows := WakeWindows([]*domain.Session{second, first})
	if len(windows) != 1 {
		t.Fatalf("WakeWindows len = %d, want 1", len(windows))
	}
	if windows[0] != 2*time.Hour {
		t.Errorf("window = %v, want 2h", windows[0])
	}
}

func TestWakeWindows_OverlapExcluded(t *testing.T) {
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	first := closedSession(domain.KindNap, base, 60)                      // 09:00-10:00
	overlapping := closedSession(domain.KindNap, base.Add(30*time.Minute), 45) // starts before first ends

	windows := WakeWindows([]*domain.Session{first, overlapping})
	if len(windows) != 0 {
		t.Errorf("WakeWindows len = %d, want 0 (overlap excluded, never negative)", len(windows))
	}
	if avg := AverageWakeWindow([]*domain.Session{first, overlapping}); avg != 0 {
		t.Errorf("AverageWakeWindow = %v, want 0", avg)
	}
}

func TestWakeWindows_IgnoresNightAndActive(t *testing.T) {
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	nap := closedSession(domain.KindNap, base, 60)
	night := closedSession(domain.KindNight, base.Add(2*time.Hour), 600)
	activeNap := &domain.Session{
		OwnerID: "o1", Domain: domain.DomainSleep, Kind: domain.KindNap,
		StartTime: base.Add(5 * time.Hour),
	}

	windows := WakeWindows([]*domain.Session{nap, night, activeNap})
	if len(windows) != 0 {
		t.Errorf("WakeWindows len = %d, want 0 (night and active sessions excluded)", len(windows))
	}
}

func TestAverageWakeWindow(t *testing.T) {
	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	a := closedSession(domain.KindNap, base, 60)                  // ends 09:00
	b := closedSession(domain.KindNap, base.Add(2*time.Hour), 60) // 10:00, gap 1h, ends 11:00
	c := closedSession(domain.KindNap, base.Add(6*time.Hour), 60) // 14:00, gap 3h

	avg := AverageWakeWindow([]*domain.Session{a, b, c})
	if avg != 2*time.Hour {
		t.Errorf("AverageWakeWindow = %v, want 2h", avg)
	}
}

func TestPeriodAverage(t *testing.T) {
	base := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	sessions := []*domain.Session{
		closedSession(domain.KindNight, base, 600),
		closedSession(domain.KindNap, base.AddDate(0, 0, 1), 100),
	}

	// 700 minutes over 7 calendar days, including days with no sessions.
	got := PeriodAverage(sessions, 7)
	if got != 100 {
		t.Errorf("PeriodAverage = %v, want 100", got)
	}

	if got := PeriodAverage(sessions, 0); got != 0 {
		t.Errorf("PeriodAverage with 0 days = %v, want 0", got)
	}
}
