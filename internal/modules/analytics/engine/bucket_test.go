package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
	assert.Equal(t, "America/New_York", LoadLocation("America/New_York").String())
}

// A log at 23:30 local time must land in that local day, not the next UTC
// day. 2026-01-15T04:30Z is 2026-01-14 23:30 in New York.
func TestDayKeyUsesLocalCalendar(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	ts := time.Date(2026, 1, 15, 4, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-14", BucketKey(ts, GranularityDay, ny))
	assert.Equal(t, "2026-01-15", BucketKey(ts, GranularityDay, time.UTC))
}

func TestWeekGeneratorAndAssignerAgree(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	// 2026-01-14 is a Wednesday; its Sunday-start week begins 2026-01-11.
	ts := time.Date(2026, 1, 14, 18, 0, 0, 0, ny)
	key := BucketKey(ts, GranularityWeek, ny)
	assert.Equal(t, "2026-01-11", key)

	buckets := GenerateBuckets(ts.AddDate(0, 0, -1), ts.AddDate(0, 0, 1), GranularityWeek, ny)
	require.Len(t, buckets, 1)
	assert.Equal(t, key, buckets[0].Key)
}

func TestGenerateBucketsDenseOrderedUnique(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, ny)
	end := time.Date(2026, 2, 10, 23, 59, 59, 0, ny)

	buckets := GenerateBuckets(start, end, GranularityDay, ny)
	require.Len(t, buckets, 10)

	seen := make(map[string]struct{})
	for i, b := range buckets {
		_, dup := seen[b.Key]
		assert.False(t, dup, "duplicate key %s", b.Key)
		seen[b.Key] = struct{}{}
		if i > 0 {
			assert.True(t, buckets[i-1].Start.Before(b.Start))
		}
	}
}

func TestSeriesCountsMatchInRangeLogs(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, ny)
	end := time.Date(2026, 2, 7, 23, 59, 59, 0, ny)

	logs := []AccessLog{
		logAt(time.Date(2026, 2, 1, 9, 0, 0, 0, ny)),
		logAt(time.Date(2026, 2, 1, 21, 0, 0, 0, ny)),
		logAt(time.Date(2026, 2, 3, 12, 0, 0, 0, ny)),
		logAt(time.Date(2026, 1, 20, 12, 0, 0, 0, ny)),  // before range
		logAt(time.Date(2026, 2, 20, 12, 0, 0, 0, ny)),  // after range
		{},                                               // unparseable timestamp
	}

	points, dropped := Series(logs, start, end, GranularityDay, ny)
	assert.Equal(t, 1, dropped)
	require.Len(t, points, 7)

	total := 0
	for _, p := range points {
		total += p.Value
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, points[0].Value)
	assert.Equal(t, 1, points[2].Value)
}

func TestMonthBuckets(t *testing.T) {
	start := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	buckets := GenerateBuckets(start, end, GranularityMonth, time.UTC)
	require.Len(t, buckets, 3)
	assert.Equal(t, "2025-11", buckets[0].Key)
	assert.Equal(t, "2026-01", buckets[2].Key)
}

// A window ending exactly on a bucket boundary must not open that bucket:
// Jan 1 to Feb 1 is the 31 days of January, nothing more.
func TestGenerateBucketsEndIsExclusive(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	days := GenerateBuckets(start, end, GranularityDay, time.UTC)
	require.Len(t, days, 31)
	assert.Equal(t, "2026-01-01", days[0].Key)
	assert.Equal(t, "2026-01-31", days[30].Key)

	months := GenerateBuckets(start, end, GranularityMonth, time.UTC)
	require.Len(t, months, 1)
	assert.Equal(t, "2026-01", months[0].Key)
}

// An end that falls mid-bucket still includes the bucket containing it.
func TestGenerateBucketsMidBucketEnd(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)

	days := GenerateBuckets(start, end, GranularityDay, time.UTC)
	require.Len(t, days, 3)
	assert.Equal(t, "2026-01-03", days[2].Key)
}

func TestSeriesExcludesLogAtWindowEnd(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)

	logs := []AccessLog{
		logAt(time.Date(2026, 1, 7, 23, 59, 59, 0, time.UTC)), // last instant inside
		logAt(end), // exactly the exclusive end
	}
	points, dropped := Series(logs, start, end, GranularityDay, time.UTC)
	assert.Zero(t, dropped)
	require.Len(t, points, 7)
	assert.Equal(t, 1, points[6].Value)

	total := 0
	for _, p := range points {
		total += p.Value
	}
	assert.Equal(t, 1, total)
}

func TestHourHistogramHas24Slots(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	logs := []AccessLog{
		logAt(time.Date(2026, 2, 2, 3, 30, 0, 0, time.UTC)), // 22:30 previous day NY
	}
	points := HourHistogram(logs, ny)
	require.Len(t, points, 24)
	assert.Equal(t, 1, points[22].Value)
}

// Mon/Mon/Tue/Wed/Wed/Wed/Fri in New York: Wed 3 (43%), Mon 2 (29%),
// Tue 1 (14%), Fri 1 (14%), everything else zero.
func TestWeekdayHistogramExample(t *testing.T) {
	ny := mustLoc(t, "America/New_York")
	noonOn := func(day int) AccessLog {
		return logAt(time.Date(2026, 2, day, 12, 0, 0, 0, ny))
	}
	// 2026-02-02 is a Monday.
	logs := []AccessLog{
		noonOn(2), noonOn(2), // Mon
		noonOn(3),            // Tue
		noonOn(4), noonOn(4), noonOn(4), // Wed
		noonOn(6), // Fri
	}

	stats := WeekdayHistogram(logs, ny)
	require.Len(t, stats, 7)

	byDay := make(map[string]WeekdayStat, 7)
	for _, s := range stats {
		byDay[s.Day] = s
	}
	assert.Equal(t, 3, byDay["Wed"].Count)
	assert.Equal(t, 43.0, byDay["Wed"].Share)
	assert.Equal(t, 2, byDay["Mon"].Count)
	assert.Equal(t, 29.0, byDay["Mon"].Share)
	assert.Equal(t, 1, byDay["Tue"].Count)
	assert.Equal(t, 14.0, byDay["Tue"].Share)
	assert.Equal(t, 1, byDay["Fri"].Count)
	assert.Equal(t, 14.0, byDay["Fri"].Share)
	assert.Equal(t, 0, byDay["Sun"].Count)
	assert.Equal(t, 0, byDay["Thu"].Count)
	assert.Equal(t, 0, byDay["Sat"].Count)
}
