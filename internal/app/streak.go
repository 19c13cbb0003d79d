package app

import (
	"context"
	"time"
)

const dateLayout = "2006-01-02"

// StreakCalculator recomputes consecutive-day completion streaks from the
// attempt history. Nothing is incrementally mutated: every call derives the
// value from scratch, so a lost update can never corrupt the count.
type StreakCalculator struct {
	attempts AttemptStore
	now      func() time.Time
}

func NewStreakCalculator(attempts AttemptStore, clock func() time.Time) *StreakCalculator {
	if clock == nil {
		clock = time.Now
	}
	return &StreakCalculator{attempts: attempts, now: clock}
}

// Current returns the number of consecutive calendar days, ending today or
// yesterday, on which the user completed at least one quiz. A streak whose
// latest day is yesterday still counts: today's quiz simply has not happened
// yet.
func (c *StreakCalculator) Current(ctx context.Context, userID string) (int, error) {
	attempts, err := c.attempts.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	days := make(map[string]struct{}, len(attempts))
	for _, a := range attempts {
		days[a.CompletedAt.Format(dateLayout)] = struct{}{}
	}

	day := startOfDay(c.now())
	if _, ok := days[day.Format(dateLayout)]; !ok {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for {
		if _, ok := days[day.Format(dateLayout)]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
