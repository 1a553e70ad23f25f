package progress

import "time"

// dayLayout is the calendar-day key used for streaks and daily activity.
const dayLayout = "2006-01-02"

// DayKey formats t as a YYYY-MM-DD string in t's own location.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// ReconcileStreak applies the once-per-day streak rule to u as of now and
// reports whether u changed. Activity earlier today leaves u untouched;
// activity yesterday extends the streak; anything older, or no recorded
// activity at all, restarts it at 1.
func ReconcileStreak(u UserProgress, now time.Time) (UserProgress, bool) {
	today := DayKey(now)

	if !u.LastActiveDate.IsZero() {
		last := DayKey(u.LastActiveDate.In(now.Location()))
		if last == today {
			return u, false
		}
		if last == DayKey(now.AddDate(0, 0, -1)) {
			u.CurrentStreak++
		} else {
			u.CurrentStreak = 1
		}
	} else {
		u.CurrentStreak = 1
	}

	if u.CurrentStreak > u.LongestStreak {
		u.LongestStreak = u.CurrentStreak
	}
	u.LastActiveDate = now
	return u, true
}
