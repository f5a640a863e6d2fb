package core

import (
	"fmt"
	"time"
)

// DayLayout is the date format accepted by statistics queries.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD date as a UTC calendar day.
func ParseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return day, nil
}
