package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayParts(t time.Time) (int, time.Month, int) {
	return t.Year(), t.Month(), t.Day()
}

func TestOccurrencesDaily(t *testing.T) {
	rule := Rule{
		Unit:      UnitDays,
		Interval:  3,
		Hour:      9,
		Minute:    30,
		StartDate: date(2024, time.January, 1),
		Active:    true,
	}

	t.Run("fixed stride from start date", func(t *testing.T) {
		got := Occurrences(rule, date(2024, time.January, 1), date(2024, time.January, 10))
		require.Len(t, got, 4)
		want := []time.Time{
			date(2024, time.January, 1),
			date(2024, time.January, 4),
			date(2024, time.January, 7),
			date(2024, time.January, 10),
		}
		for i, occ := range got {
			wy, wm, wd := dayParts(want[i])
			y, m, d := dayParts(occ)
			assert.Equal(t, [3]int{wy, int(wm), wd}, [3]int{y, int(m), d})
			assert.Equal(t, 9, occ.Hour())
			assert.Equal(t, 30, occ.Minute())
		}
	})

	t.Run("window entirely between occurrences", func(t *testing.T) {
		got := Occurrences(rule, date(2024, time.January, 2), date(2024, time.January, 3))
		assert.Empty(t, got)
	})

	t.Run("last generated is an exclusive lower bound", func(t *testing.T) {
		r := rule
		last := date(2024, time.January, 4)
		r.LastGenerated = &last
		got := Occurrences(r, date(2024, time.January, 1), date(2024, time.January, 10))
		require.Len(t, got, 2)
		assert.Equal(t, 7, got[0].Day())
		assert.Equal(t, 10, got[1].Day())
	})

	t.Run("inactive rule yields nothing", func(t *testing.T) {
		r := rule
		r.Active = false
		assert.Empty(t, Occurrences(r, date(2024, time.January, 1), date(2024, time.January, 31)))
	})

	t.Run("end date in the past yields nothing", func(t *testing.T) {
		r := rule
		end := date(2024, time.January, 10)
		r.EndDate = &end
		assert.Empty(t, Occurrences(r, date(2024, time.February, 1), date(2024, time.February, 28)))
	})
}

func TestOccurrencesEndDateBoundary(t *testing.T) {
	rule := Rule{
		Unit:      UnitDays,
		Interval:  7,
		Hour:      8,
		StartDate: date(2024, time.January, 1),
		Active:    true,
	}

	t.Run("end date equal to an occurrence includes it", func(t *testing.T) {
		end := date(2024, time.January, 8)
		r := rule
		r.EndDate = &end
		got := Occurrences(r, date(2024, time.January, 1), date(2024, time.January, 31))
		require.Len(t, got, 2)
		assert.Equal(t, 8, got[1].Day())
	})

	t.Run("end date one day before an occurrence excludes it", func(t *testing.T) {
		end := date(2024, time.January, 7)
		r := rule
		r.EndDate = &end
		got := Occurrences(r, date(2024, time.January, 1), date(2024, time.January, 31))
		require.Len(t, got, 1)
		assert.Equal(t, 1, got[0].Day())
	})
}

func TestOccurrencesWeekly(t *testing.T) {
	// 2024-01-01 is a Monday.
	rule := Rule{
		Unit:       UnitWeeks,
		Interval:   1,
		DaysOfWeek: []int{0, 2, 4}, // Mon, Wed, Fri
		Hour:       9,
		StartDate:  date(2024, time.January, 1),
		Active:     true,
	}

	t.Run("three occurrences per week in ascending order", func(t *testing.T) {
		got := Occurrences(rule, date(2024, time.January, 1), date(2024, time.January, 7))
		require.Len(t, got, 3)
		assert.Equal(t, 1, got[0].Day())
		assert.Equal(t, 3, got[1].Day())
		assert.Equal(t, 5, got[2].Day())
	})

	t.Run("order preserved across a week boundary", func(t *testing.T) {
		got := Occurrences(rule, date(2024, time.January, 6), date(2024, time.January, 12))
		require.Len(t, got, 3)
		assert.Equal(t, 8, got[0].Day())
		assert.Equal(t, 10, got[1].Day())
		assert.Equal(t, 12, got[2].Day())
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i-1].Before(got[i]))
		}
	})

	t.Run("interval gates whole weeks", func(t *testing.T) {
		r := rule
		r.Interval = 2
		r.DaysOfWeek = []int{0}
		got := Occurrences(r, date(2024, time.January, 1), date(2024, time.January, 28))
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].Day())
		assert.Equal(t, 15, got[1].Day())
	})
}

func TestOccurrencesMonthly(t *testing.T) {
	t.Run("day 31 clamps and unclamps across months", func(t *testing.T) {
		rule := Rule{
			Unit:      UnitMonths,
			Interval:  1,
			Hour:      12,
			StartDate: date(2023, time.January, 31),
			Active:    true,
		}
		got := Occurrences(rule, date(2023, time.January, 1), date(2023, time.April, 30))
		require.Len(t, got, 4)
		assert.Equal(t, 31, got[0].Day()) // Jan 31
		assert.Equal(t, 28, got[1].Day()) // Feb clamps
		assert.Equal(t, 31, got[2].Day()) // Mar back to anchor
		assert.Equal(t, 30, got[3].Day()) // Apr clamps
	})

	t.Run("leap year february keeps the 29th", func(t *testing.T) {
		rule := Rule{
			Unit:      UnitMonths,
			Interval:  1,
			StartDate: date(2024, time.January, 31),
			Active:    true,
		}
		got := Occurrences(rule, date(2024, time.February, 1), date(2024, time.February, 29))
		require.Len(t, got, 1)
		assert.Equal(t, 29, got[0].Day())
	})

	t.Run("interval skips months", func(t *testing.T) {
		rule := Rule{
			Unit:      UnitMonths,
			Interval:  3,
			StartDate: date(2024, time.January, 15),
			Active:    true,
		}
		got := Occurrences(rule, date(2024, time.February, 1), date(2024, time.December, 31))
		require.Len(t, got, 3)
		assert.Equal(t, time.April, got[0].Month())
		assert.Equal(t, time.July, got[1].Month())
		assert.Equal(t, time.October, got[2].Month())
	})
}

func TestOccurrencesYearly(t *testing.T) {
	rule := Rule{
		Unit:      UnitYears,
		Interval:  1,
		StartDate: date(2020, time.February, 29),
		Active:    true,
	}

	got := Occurrences(rule, date(2020, time.January, 1), date(2024, time.December, 31))
	require.Len(t, got, 5)
	days := make([]int, len(got))
	for i, occ := range got {
		days[i] = occ.Day()
		assert.Equal(t, time.February, occ.Month())
	}
	assert.Equal(t, []int{29, 28, 28, 28, 29}, days)
}

func TestOccurrencesWindowPrecedesStart(t *testing.T) {
	rule := Rule{
		Unit:      UnitDays,
		Interval:  2,
		StartDate: date(2024, time.June, 10),
		Active:    true,
	}
	got := Occurrences(rule, date(2024, time.June, 1), date(2024, time.June, 12))
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].Day())
	assert.Equal(t, 12, got[1].Day())
}
