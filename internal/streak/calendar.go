package streak

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Calendar maps instants to calendar days in a fixed time zone.
type Calendar struct {
	loc *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// LoadCalendar builds a Calendar from an IANA zone name. Empty means UTC.
func LoadCalendar(name string) (Calendar, error) {
	if name == "" {
		return NewCalendar(time.UTC), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Calendar{}, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return NewCalendar(loc), nil
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Day returns the calendar day t falls on in the calendar's zone.
func (c Calendar) Day(t time.Time) civil.Date {
	return civil.DateOf(t.In(c.Location()))
}

// Start returns the first instant of day d in the calendar's zone.
func (c Calendar) Start(d civil.Date) time.Time {
	return d.In(c.Location())
}
