package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Slot is one bookable time offered in the chat.
type Slot struct {
	Action    string
	Day       string
	DayOffset int
	Label     string
}

// Slots is the closed set of time-slot actions.
var Slots = []Slot{
	{Action: "confirm_today_9am", Day: "today", DayOffset: 0, Label: "9:00 AM"},
	{Action: "confirm_today_10am", Day: "today", DayOffset: 0, Label: "10:00 AM"},
	{Action: "confirm_today_2pm", Day: "today", DayOffset: 0, Label: "2:00 PM"},
	{Action: "confirm_today_3pm", Day: "today", DayOffset: 0, Label: "3:00 PM"},
	{Action: "confirm_tomorrow_9am", Day: "tomorrow", DayOffset: 1, Label: "9:00 AM"},
	{Action: "confirm_tomorrow_11am", Day: "tomorrow", DayOffset: 1, Label: "11:00 AM"},
	{Action: "confirm_tomorrow_2pm", Day: "tomorrow", DayOffset: 1, Label: "2:00 PM"},
}

// LookupSlot finds the slot for a time-slot action.
func LookupSlot(action string) (Slot, bool) {
	for _, s := range Slots {
		if s.Action == action {
			return s, true
		}
	}
	return Slot{}, false
}

// To24Hour converts "h:mm AM" / "h:mm PM" into "HH:mm". 12 AM is midnight
// and 12 PM is noon.
func To24Hour(t string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(t))
	if len(fields) != 2 {
		return "", fmt.Errorf("booking: invalid 12-hour time %q", t)
	}
	clock, modifier := fields[0], strings.ToUpper(fields[1])
	hourStr, minuteStr, ok := strings.Cut(clock, ":")
	if !ok {
		return "", fmt.Errorf("booking: invalid 12-hour time %q", t)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return "", fmt.Errorf("booking: invalid hour in %q", t)
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil || minute < 0 || minute > 59 || len(minuteStr) != 2 {
		return "", fmt.Errorf("booking: invalid minute in %q", t)
	}

	switch modifier {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return "", fmt.Errorf("booking: invalid meridiem in %q", t)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// Resolve maps the slot onto a calendar date relative to now in loc and
// returns the display text and the API date-time (YYYY-MM-DD HH:mm:ss).
func (s Slot) Resolve(now time.Time, loc *time.Location) (display, api string, err error) {
	if loc == nil {
		loc = time.Local
	}
	date := now.In(loc).AddDate(0, 0, s.DayOffset)
	hhmm, err := To24Hour(s.Label)
	if err != nil {
		return "", "", err
	}
	display = fmt.Sprintf("%s at %s", date.Format("Mon, 02 Jan 2006"), s.Label)
	api = fmt.Sprintf("%s %s:00", date.Format("2006-01-02"), hhmm)
	return display, api, nil
}
