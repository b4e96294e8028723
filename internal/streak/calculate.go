package streak

import (
	"cloud.google.com/go/civil"

	"github.com/alari/backend/internal/model"
)

// Calculate derives the streak of a goal from its full check-in history.
//
// Check-ins collapse to calendar days; a day counts as completed when any
// check-in on it is completed. The streak is the run of consecutive
// completed days ending at the latest completed day. A recorded
// non-completed day after that run resets the streak to zero. Elapsed time
// alone never resets it.
func Calculate(checkIns []*model.GoalCheckIn, cal Calendar) model.StreakCount {
	days := make(map[civil.Date]bool, len(checkIns))
	for _, c := range checkIns {
		d := cal.Day(c.CheckInDate)
		days[d] = days[d] || c.Completed
	}

	var latestDone, latestMiss civil.Date
	var haveDone, haveMiss bool
	for d, done := range days {
		if done {
			if !haveDone || d.After(latestDone) {
				latestDone, haveDone = d, true
			}
			continue
		}
		if !haveMiss || d.After(latestMiss) {
			latestMiss, haveMiss = d, true
		}
	}

	if !haveDone {
		return 0
	}
	if haveMiss && latestMiss.After(latestDone) {
		return 0
	}

	n := 0
	for d := latestDone; days[d]; d = d.AddDays(-1) {
		n++
	}
	return model.StreakCount(n)
}
