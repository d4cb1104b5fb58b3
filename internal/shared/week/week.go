package week

import (
	"fmt"
	"math"
	"time"
)

const dayFormat = "2006-01-02"

// Start returns the Monday of the week containing t, formatted YYYY-MM-DD.
func Start(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format(dayFormat)
}

// End returns the Sunday of the week containing t, formatted YYYY-MM-DD.
func End(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, 6-offset).Format(dayFormat)
}

// Days returns the seven dates of the week beginning at weekStart.
func Days(weekStart string) ([]string, error) {
	start, err := time.Parse(dayFormat, weekStart)
	if err != nil {
		return nil, err
	}
	days := make([]string, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i).Format(dayFormat)
	}
	return days, nil
}

// Today returns the current date formatted YYYY-MM-DD.
func Today() string {
	return time.Now().Format(dayFormat)
}

// DaysLeft returns how many days of the week remain from t inclusive.
func DaysLeft(t time.Time) int {
	offset := (int(t.Weekday()) + 6) % 7
	return 7 - offset
}

// FormatDuration renders seconds as h:mm:ss, or m:ss under an hour.
func FormatDuration(seconds int) string {
	hrs := seconds / 3600
	mins := (seconds % 3600) / 60
	secs := seconds % 60
	if hrs > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hrs, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// FormatPace renders seconds-per-km as "m:ss /km".
func FormatPace(paceSecPerKm float64) string {
	mins := int(paceSecPerKm) / 60
	secs := int(math.Round(math.Mod(paceSecPerKm, 60)))
	if secs == 60 {
		mins++
		secs = 0
	}
	return fmt.Sprintf("%d:%02d /km", mins, secs)
}
