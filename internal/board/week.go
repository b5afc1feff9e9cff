package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidWeekOffset = errors.New("invalid week offset")

// WeekWindow returns the Monday-Sunday UTC window containing ref, shifted by
// offset weeks (0 = current week, -1 = previous week). The end is the last
// millisecond of Sunday.
func WeekWindow(ref time.Time, offset int) (start, end time.Time) {
	ref = ref.UTC()

	// Sunday counts as the 7th day so it closes the week that began on Monday.
	day := int(ref.Weekday())
	if day == 0 {
		day = 7
	}

	start = time.Date(ref.Year(), ref.Month(), ref.Day()-(day-1), 0, 0, 0, 0, time.UTC)
	start = start.AddDate(0, 0, 7*offset)
	end = time.Date(start.Year(), start.Month(), start.Day()+6, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end
}

// ParseWeekOffset accepts "", "this", "last" or a non-positive integer.
func ParseWeekOffset(raw string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "this":
		return 0, nil
	case "last":
		return -1, nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekOffset, raw)
	}
	if n > 0 {
		return 0, fmt.Errorf("%w: %d is in the future", ErrInvalidWeekOffset, n)
	}
	return n, nil
}
