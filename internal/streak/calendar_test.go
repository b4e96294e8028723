package streak

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDay(t *testing.T) {
	cal := NewCalendar(nil)
	assert.Equal(t, time.UTC, cal.Location())

	got := cal.Day(time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 1}, got)
}

func TestCalendarStart(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	cal := NewCalendar(loc)

	start := cal.Start(civil.Date{Year: 2024, Month: time.March, Day: 1})
	assert.True(t, start.Equal(time.Date(2024, 2, 29, 22, 0, 0, 0, time.UTC)))
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 1}, cal.Day(start))
}

func TestLoadCalendar(t *testing.T) {
	cal, err := LoadCalendar("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cal.Location())

	_, err = LoadCalendar("Not/AZone")
	assert.Error(t, err)
}
