package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docLog(email string, completion float64, offset time.Duration) AccessLog {
	l := logAt(baseTime.Add(offset))
	l.ViewerEmail = email
	l.CompletionPercentage = f64(completion)
	return l
}

func TestDocumentFunnelMilestones(t *testing.T) {
	meta := LinkMeta{ID: "d1", Name: "Deck", Kind: LinkKindFile, MimeType: "application/pdf", TotalPages: 4}
	logs := []AccessLog{
		docLog("a@x.com", 100, 0),
		docLog("b@x.com", 60, time.Minute),
		docLog("c@x.com", 30, 2*time.Minute),
		docLog("d@x.com", 10, 3*time.Minute),
	}

	res := DocumentFunnel(meta, logs)
	require.Len(t, res.Milestones, 4)
	assert.Equal(t, 4, res.TotalViewers)

	// 25%: 3 of 4, 50%: 2, 75%: 1, finished (>=95): 1.
	assert.Equal(t, []int{3, 2, 1, 1}, []int{
		res.Milestones[0].Viewers,
		res.Milestones[1].Viewers,
		res.Milestones[2].Viewers,
		res.Milestones[3].Viewers,
	})
	assert.Equal(t, 95.0, res.Milestones[3].Threshold)

	// Rates never increase across the funnel.
	for i := 1; i < len(res.Milestones); i++ {
		assert.LessOrEqual(t, res.Milestones[i].Rate, res.Milestones[i-1].Rate)
	}

	// Biggest drop is start -> 25% (100 -> 75).
	require.NotNil(t, res.BiggestDrop)
	assert.Equal(t, 0, res.BiggestDrop.FromPercent)
	assert.Equal(t, 25, res.BiggestDrop.ToPercent)
	assert.Equal(t, 25.0, res.BiggestDrop.Delta)
}

func TestDocumentFunnelMilestonePages(t *testing.T) {
	meta := LinkMeta{ID: "d1", Kind: LinkKindFile, TotalPages: 10}
	res := DocumentFunnel(meta, nil)
	require.Len(t, res.Milestones, 4)
	assert.Equal(t, 3, res.Milestones[0].Unit)  // ceil(10*0.25)
	assert.Equal(t, 5, res.Milestones[1].Unit)
	assert.Equal(t, 8, res.Milestones[2].Unit)  // ceil(7.5)
	assert.Equal(t, 10, res.Milestones[3].Unit)
}

func TestDocumentFunnelPerPageTableAndTags(t *testing.T) {
	meta := LinkMeta{ID: "d1", Kind: LinkKindFile, TotalPages: 3}

	a := docLog("a@x.com", 100, 0)
	a.PagesTime = map[int]float64{1: 10, 2: 50, 3: 5}
	b := docLog("b@x.com", 40, time.Minute)
	b.PagesTime = map[int]float64{1: 10, 2: 60}
	b.ExitPage = 2
	c := docLog("c@x.com", 20, 2*time.Minute)
	c.PagesTime = map[int]float64{1: 10}
	c.ExitPage = 1

	res := DocumentFunnel(meta, []AccessLog{a, b, c})
	require.Len(t, res.Units, 3)

	page1, page2, page3 := res.Units[0], res.Units[1], res.Units[2]
	assert.Equal(t, 3, page1.ViewCount)
	assert.Equal(t, 30.0, page1.TotalTimeSeconds)
	assert.Equal(t, 2, page2.ViewCount)
	assert.Equal(t, 110.0, page2.TotalTimeSeconds)
	assert.Equal(t, 1, page3.ViewCount)

	// Page 1 has the strictly unique max view count, page 2 the strictly
	// unique max total time.
	assert.Contains(t, page1.Tags, TagPopular)
	assert.NotContains(t, page1.Tags, TagMostEngaging)
	assert.Contains(t, page2.Tags, TagMostEngaging)
	assert.NotContains(t, page2.Tags, TagPopular)

	// One exit on page 1 out of 3 viewers = 33.3% >= 20 -> High Exit.
	assert.InDelta(t, 33.3, page1.ExitRate, 0.05)
	assert.Contains(t, page1.Tags, TagHighExit)
	// Page 2 also exceeds the threshold and is not the final page.
	assert.Contains(t, page2.Tags, TagHighExit)
}

func TestDocumentFunnelFinalPageNeverHighExit(t *testing.T) {
	meta := LinkMeta{ID: "d1", Kind: LinkKindFile, TotalPages: 2}
	a := docLog("a@x.com", 100, 0)
	a.ExitPage = 2
	res := DocumentFunnel(meta, []AccessLog{a})
	last := res.Units[1]
	assert.Equal(t, 100.0, last.ExitRate)
	assert.NotContains(t, last.Tags, TagHighExit)
}

func TestDocumentFunnelTiedMaximaGetNoTags(t *testing.T) {
	meta := LinkMeta{ID: "d1", Kind: LinkKindFile, TotalPages: 2}
	a := docLog("a@x.com", 50, 0)
	a.PagesTime = map[int]float64{1: 20, 2: 20}
	res := DocumentFunnel(meta, []AccessLog{a})
	for _, u := range res.Units {
		assert.NotContains(t, u.Tags, TagPopular)
		assert.NotContains(t, u.Tags, TagMostEngaging)
	}
}

func TestDocumentFunnelInfersTotalPages(t *testing.T) {
	meta := LinkMeta{ID: "d1", Kind: LinkKindFile} // no page count configured
	a := docLog("a@x.com", 50, 0)
	a.PagesTime = map[int]float64{1: 5, 6: 2}
	res := DocumentFunnel(meta, []AccessLog{a})
	assert.Len(t, res.Units, 6)
}

func TestDocumentFunnelEmptyBatch(t *testing.T) {
	meta := LinkMeta{ID: "d1", Kind: LinkKindFile, TotalPages: 5}
	res := DocumentFunnel(meta, nil)
	assert.Equal(t, 0, res.TotalViewers)
	for _, m := range res.Milestones {
		assert.Equal(t, 0.0, m.Rate)
	}
	assert.Nil(t, res.BiggestDrop)
	for _, u := range res.Units {
		assert.Equal(t, 0.0, u.ExitRate)
	}
}

func TestMediaFunnelFinishedAtNinety(t *testing.T) {
	meta := LinkMeta{ID: "m1", Kind: LinkKindFile, MimeType: "video/mp4", VideoDurationSeconds: 120}
	a := docLog("a@x.com", 92, 0)
	b := docLog("b@x.com", 50, time.Minute)

	res := MediaFunnel(meta, []AccessLog{a, b})
	require.Len(t, res.Milestones, 4)
	assert.Equal(t, 90.0, res.Milestones[3].Threshold)
	assert.Equal(t, 1, res.Milestones[3].Viewers)
	assert.Equal(t, 2, res.Milestones[1].Viewers) // both reached 50%
}

// Each milestone points at the decile containing its percentage: 25% lies in
// 20-30% (decile 2), not the decile before it.
func TestMediaMilestoneDeciles(t *testing.T) {
	meta := LinkMeta{ID: "m1", Kind: LinkKindFile, MimeType: "video/mp4", VideoDurationSeconds: 120}
	res := MediaFunnel(meta, []AccessLog{docLog("a@x.com", 95, 0)})

	require.Len(t, res.Milestones, 4)
	assert.Equal(t, 2, res.Milestones[0].Unit) // 25%
	assert.Equal(t, 5, res.Milestones[1].Unit) // 50%
	assert.Equal(t, 7, res.Milestones[2].Unit) // 75%
	assert.Equal(t, 9, res.Milestones[3].Unit) // finished
}

func TestMediaFunnelExitFromSegments(t *testing.T) {
	meta := LinkMeta{ID: "m1", Kind: LinkKindFile, MimeType: "video/mp4"}
	a := docLog("a@x.com", 45, 0)
	a.SegmentsTime = map[int]float64{0: 12, 1: 12, 4: 6}

	res := MediaFunnel(meta, []AccessLog{a})
	require.Len(t, res.Units, 10)
	assert.Equal(t, 1, res.Units[4].ExitCount)
	assert.Equal(t, 0, res.Units[1].ExitCount)
	assert.Equal(t, "40-50%", res.Units[4].Label)
}

func TestMediaFunnelExitEstimatedFromWatchTime(t *testing.T) {
	meta := LinkMeta{ID: "m1", Kind: LinkKindFile, MimeType: "video/mp4"}
	l := logAt(baseTime)
	l.ViewerEmail = "a@x.com"
	l.WatchTimeSeconds = f64(45)
	l.VideoDurationSeconds = f64(100)

	res := MediaFunnel(meta, []AccessLog{l})
	assert.Equal(t, 1, res.Units[4].ExitCount)

	// The watch-time ratio also stands in for missing completion.
	assert.Equal(t, 1, res.Milestones[0].Viewers) // 45% >= 25%
	assert.Equal(t, 0, res.Milestones[1].Viewers) // 45% < 50%
}
