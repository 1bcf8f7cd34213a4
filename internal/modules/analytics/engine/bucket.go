package engine

import "time"

// Granularity selects the bucket width for time series.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Bucket is one slot of a dense time series.
type Bucket struct {
	Key       string
	Label     string
	FullLabel string
	Start     time.Time
}

// LoadLocation resolves an IANA timezone name, falling back to UTC for empty
// or unknown names so a bad client value can never fail a request.
func LoadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// weekStart returns the Sunday 00:00 local time on or before t.
func weekStart(t time.Time, loc *time.Location) time.Time {
	day := dayStart(t, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func hourStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, local.Hour(), 0, 0, 0, loc)
}

func monthStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, _ := local.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, loc)
}

// bucketStart truncates t to the start of its bucket in loc.
func bucketStart(t time.Time, g Granularity, loc *time.Location) time.Time {
	switch g {
	case GranularityHour:
		return hourStart(t, loc)
	case GranularityWeek:
		return weekStart(t, loc)
	case GranularityMonth:
		return monthStart(t, loc)
	default:
		return dayStart(t, loc)
	}
}

func bucketNext(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityHour:
		return t.Add(time.Hour)
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// BucketKey returns the bucket key for a timestamp. Keys are calendar values
// in loc, so 23:30 local lands in that local day even when it is the next
// day in UTC. The generator and the assigner share this function; that is
// what keeps every chart on the same clock.
func BucketKey(t time.Time, g Granularity, loc *time.Location) string {
	start := bucketStart(t, g, loc)
	switch g {
	case GranularityHour:
		return start.Format("2006-01-02 15")
	case GranularityWeek:
		return start.Format("2006-01-02")
	case GranularityMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

func bucketLabels(start time.Time, g Granularity) (label, full string) {
	switch g {
	case GranularityHour:
		return start.Format("15:00"), start.Format("2006-01-02 15:00")
	case GranularityWeek:
		return start.Format("Jan 02"), "Week of " + start.Format("Jan 02, 2006")
	case GranularityMonth:
		return start.Format("Jan"), start.Format("January 2006")
	default:
		return start.Format("01-02"), start.Format("2006-01-02")
	}
}

// GenerateBuckets produces the ordered, dense bucket list covering
// [start, end) at the given granularity, in loc. The end is exclusive: an
// end at exactly a bucket boundary does not open that bucket, so a window of
// "Jan 1 to Feb 1" yields January only. Every bucket in range appears even
// when no log will land in it.
func GenerateBuckets(start, end time.Time, g Granularity, loc *time.Location) []Bucket {
	if end.Before(start) {
		return nil
	}
	var out []Bucket
	for cur := bucketStart(start, g, loc); cur.Before(end.In(loc)); cur = bucketNext(cur, g) {
		label, full := bucketLabels(cur, g)
		out = append(out, Bucket{
			Key:       BucketKey(cur, g, loc),
			Label:     label,
			FullLabel: full,
			Start:     cur,
		})
	}
	return out
}

// Series buckets logs into a dense chart series over [start, end), sharing
// GenerateBuckets' exclusive end. Logs outside the range are skipped; rows
// without a usable timestamp are dropped and counted.
func Series(logs []AccessLog, start, end time.Time, g Granularity, loc *time.Location) (points []SeriesPoint, dropped int) {
	buckets := GenerateBuckets(start, end, g, loc)
	counts := make(map[string]int, len(buckets))
	for _, l := range logs {
		if l.AccessedAt.IsZero() {
			dropped++
			continue
		}
		if l.AccessedAt.Before(start) || !l.AccessedAt.Before(end) {
			continue
		}
		counts[BucketKey(l.AccessedAt, g, loc)]++
	}

	points = make([]SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, SeriesPoint{
			Key:       b.Key,
			Label:     b.Label,
			FullLabel: b.FullLabel,
			Value:     counts[b.Key],
		})
	}
	return points, dropped
}

// HourHistogram counts logs by local hour of day, one slot per hour 00-23.
func HourHistogram(logs []AccessLog, loc *time.Location) []SeriesPoint {
	counts := make(map[int]int, 24)
	for _, l := range logs {
		if l.AccessedAt.IsZero() {
			continue
		}
		counts[l.AccessedAt.In(loc).Hour()]++
	}

	points := make([]SeriesPoint, 0, 24)
	for h := 0; h < 24; h++ {
		slot := time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC)
		points = append(points, SeriesPoint{
			Key:       slot.Format("15"),
			Label:     slot.Format("15:00"),
			FullLabel: slot.Format("15:00"),
			Value:     counts[h],
		})
	}
	return points
}

// WeekdayHistogram aggregates logs by local weekday, Sunday first to match
// the week bucket convention. Shares are percentages of counted rows and sum
// to ~100 modulo rounding; zero rows yield zero shares across the board.
func WeekdayHistogram(logs []AccessLog, loc *time.Location) []WeekdayStat {
	counts := make(map[time.Weekday]int, 7)
	total := 0
	for _, l := range logs {
		if l.AccessedAt.IsZero() {
			continue
		}
		counts[l.AccessedAt.In(loc).Weekday()]++
		total++
	}

	stats := make([]WeekdayStat, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		share := 0.0
		if total > 0 {
			share = roundTo(float64(counts[wd])/float64(total)*100, 0)
		}
		stats = append(stats, WeekdayStat{
			Day:   wd.String()[:3],
			Count: counts[wd],
			Share: share,
		})
	}
	return stats
}
