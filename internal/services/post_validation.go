package services

import (
	"strings"
	"time"

	"github.com/keithrincon/picklebookie-sub000/internal/models"
)

const (
	// DateLayout is the wire format of post dates
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format of post start and end times
	ClockLayout = "3:04 PM"

	maxMonthsAhead = 24
	endOfDayClock  = "12:00 AM"
	minutesPerDay  = 24 * 60
)

// CreatePostInput is the user-supplied part of a post
type CreatePostInput struct {
	Date        string           `json:"date"`
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	Location    string           `json:"location"`
	EventType   models.EventType `json:"event_type"`
	GameType    models.GameType  `json:"game_type"`
	Description string           `json:"description"`
}

func normalizeClock(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// clockMinutes parses "h:mm AM|PM" into minutes after midnight
func clockMinutes(s string) (int, bool) {
	t, err := time.Parse(ClockLayout, normalizeClock(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// endClockMinutes is clockMinutes except that 12:00 AM means the end of the day
func endClockMinutes(s string) (int, bool) {
	if normalizeClock(s) == endOfDayClock {
		return minutesPerDay, true
	}
	return clockMinutes(s)
}

// ValidatePost checks in against the calendar of now, which must already be in
// the service timezone. The returned error carries a user-facing message.
func ValidatePost(in CreatePostInput, now time.Time) error {
	switch {
	case strings.TrimSpace(in.Date) == "":
		return models.NewValidationError("date is required")
	case strings.TrimSpace(in.StartTime) == "":
		return models.NewValidationError("start time is required")
	case strings.TrimSpace(in.EndTime) == "":
		return models.NewValidationError("end time is required")
	case strings.TrimSpace(in.Location) == "":
		return models.NewValidationError("location is required")
	case in.GameType == "":
		return models.NewValidationError("game type is required")
	case in.EventType == "":
		return models.NewValidationError("event type is required")
	}

	if !in.EventType.Valid() {
		return models.NewValidationError("unknown event type")
	}
	if !in.GameType.Valid() {
		return models.NewValidationError("unknown game type")
	}

	loc := now.Location()
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(in.Date), loc)
	if err != nil {
		return models.NewValidationError("date must be formatted YYYY-MM-DD")
	}
	start, ok := clockMinutes(in.StartTime)
	if !ok {
		return models.NewValidationError("start time must be formatted h:mm AM/PM")
	}
	end, ok := endClockMinutes(in.EndTime)
	if !ok {
		return models.NewValidationError("end time must be formatted h:mm AM/PM")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if date.Before(today) {
		return models.NewValidationError("date cannot be in the past")
	}
	if date.After(today.AddDate(0, maxMonthsAhead, 0)) {
		return models.NewValidationError("date cannot be more than 24 months in the future")
	}

	if date.Equal(today) {
		startAt := time.Date(now.Year(), now.Month(), now.Day(), start/60, start%60, 0, 0, loc)
		if !startAt.After(now) {
			return models.NewValidationError("start time must be in the future")
		}
	}

	if end <= start {
		return models.NewValidationError("end time must be after start time")
	}
	return nil
}
