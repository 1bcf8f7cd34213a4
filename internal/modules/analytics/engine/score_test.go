package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func logAt(t time.Time) AccessLog { return AccessLog{AccessedAt: t} }

var baseTime = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

// The breakpoint table encodes the product's definition of "engaged"; any
// edit here must be intentional.
func TestTimeScoreBreakpoints(t *testing.T) {
	cases := []struct {
		seconds float64
		want    float64
	}{
		{-5, 0},
		{0, 0},
		{15, 12.5},
		{30, 25},
		{45, 32.5},
		{60, 40},
		{90, 50},
		{120, 60},
		{210, 70},
		{300, 80},
		{450, 90},
		{600, 100},
		{4000, 100},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, TimeScore(tc.seconds), 1e-9, "seconds=%v", tc.seconds)
	}
}

func TestScoreContentViewerFullHouse(t *testing.T) {
	a := ViewerActivity{
		Visits:               2,
		TotalDurationSeconds: 650,
		MaxCompletion:        100,
		Downloaded:           true,
	}
	assert.Equal(t, 100, ScoreContentViewer(a))
}

func TestScoreContentViewerZeroSignals(t *testing.T) {
	a := ViewerActivity{Visits: 1}
	assert.Equal(t, 0, ScoreContentViewer(a))
}

func TestScoreContentViewerMonotonicInDuration(t *testing.T) {
	prev := -1
	for _, d := range []float64{0, 10, 29, 30, 59, 60, 119, 120, 299, 300, 599, 600, 900} {
		s := ScoreContentViewer(ViewerActivity{Visits: 1, TotalDurationSeconds: d})
		require.GreaterOrEqual(t, s, prev, "duration=%v", d)
		prev = s
	}
}

func TestScoreContentViewerMonotonicInCompletion(t *testing.T) {
	prev := -1
	for c := 0.0; c <= 100; c += 10 {
		s := ScoreContentViewer(ViewerActivity{Visits: 1, MaxCompletion: c})
		require.GreaterOrEqual(t, s, prev, "completion=%v", c)
		prev = s
	}
}

func TestScoreContentViewerBounded(t *testing.T) {
	extremes := []ViewerActivity{
		{},
		{Visits: 50, TotalDurationSeconds: 1e9, MaxCompletion: 100, Downloaded: true},
		{Visits: 1, TotalDurationSeconds: -100, MaxCompletion: -40},
	}
	for _, a := range extremes {
		s := ScoreContentViewer(a)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, 100)
	}
}

func TestScoreTrackSiteViewer(t *testing.T) {
	cases := []struct {
		visits int
		want   int
	}{
		{1, 13},  // 0*0.6 + 33*0.4
		{2, 86},  // 100*0.6 + 66*0.4
		{3, 100}, // 100*0.6 + 99*0.4 = 99.6 -> 100
		{4, 100}, // frequency capped at 100
		{20, 100},
	}
	for _, tc := range cases {
		a := ViewerActivity{Visits: tc.visits}
		assert.Equal(t, tc.want, ScoreTrackSiteViewer(a), "visits=%d", tc.visits)
	}
}

func TestIntentFor(t *testing.T) {
	assert.Equal(t, IntentHot, IntentFor(70))
	assert.Equal(t, IntentHot, IntentFor(100))
	assert.Equal(t, IntentWarm, IntentFor(40))
	assert.Equal(t, IntentWarm, IntentFor(69))
	assert.Equal(t, IntentCold, IntentFor(39))
	assert.Equal(t, IntentCold, IntentFor(0))
}

func TestFoldViewerActivity(t *testing.T) {
	first := logAt(baseTime)
	first.ViewerEmail = "ada@example.com"
	first.TotalDurationSeconds = 40
	first.CompletionPercentage = f64(35)

	second := logAt(baseTime.Add(time.Hour))
	second.ViewerEmail = "ada@example.com"
	second.TotalDurationSeconds = 80
	second.CompletionPercentage = f64(70)
	second.DownloadCount = 1

	a := FoldViewerActivity(ViewerGroup{Key: "ada@example.com", Logs: []AccessLog{first, second}})
	assert.Equal(t, 2, a.Visits)
	assert.Equal(t, 120.0, a.TotalDurationSeconds)
	assert.Equal(t, 70.0, a.MaxCompletion)
	assert.True(t, a.Downloaded)
	assert.True(t, a.ReturnVisit)
	assert.Equal(t, baseTime.Add(time.Hour), a.LastVisit)
}

func TestScoreViewersSelectsFormulaByKind(t *testing.T) {
	l := logAt(baseTime)
	l.ViewerEmail = "ada@example.com"
	l.TotalDurationSeconds = 600
	l.CompletionPercentage = f64(100)

	content := ScoreViewers(LinkKindFile, []AccessLog{l})
	require.Len(t, content, 1)
	// time 100*0.25 + completion 100*0.25 + depth 100*0.15 = 65
	assert.Equal(t, 65, content[0].Score)

	site := ScoreViewers(LinkKindURL, []AccessLog{l})
	require.Len(t, site, 1)
	assert.Equal(t, 13, site[0].Score)
}
