package engine

import (
	"fmt"
	"math"
)

// Completion tolerance: a document counts as finished at 95% to absorb
// measurement noise; media uses 90%. Tuned separately, keep both.
const (
	docFinishedThreshold   = 95
	mediaFinishedThreshold = 90
	highExitRateThreshold  = 20
)

const (
	TagPopular      = "Popular"
	TagMostEngaging = "Most Engaging"
	TagHighExit     = "High Exit"
)

// Milestone is one completion checkpoint of the funnel.
type Milestone struct {
	Percent   int     `json:"percent"`   // 25, 50, 75, 100
	Unit      int     `json:"unit"`      // milestone page, or decile index
	Threshold float64 `json:"threshold"` // completion % required to count
	Viewers   int     `json:"viewers"`
	Rate      float64 `json:"rate"` // percent of total viewers, 0-100
}

// Drop describes the largest percentage-point fall between checkpoints.
type Drop struct {
	FromPercent int     `json:"from_percent"` // 0 means "start"
	ToPercent   int     `json:"to_percent"`
	Delta       float64 `json:"delta"` // percentage points lost
}

// UnitStat is one row of the per-page (or per-decile) table.
type UnitStat struct {
	Unit             int      `json:"unit"`
	Label            string   `json:"label"`
	ViewCount        int      `json:"view_count"`
	TotalTimeSeconds float64  `json:"total_time_seconds"`
	ExitCount        int      `json:"exit_count"`
	ExitRate         float64  `json:"exit_rate"` // percent of total viewers
	Tags             []string `json:"tags,omitempty"`
}

// FunnelResult is the completion funnel for one link.
type FunnelResult struct {
	TotalViewers int         `json:"total_viewers"`
	Milestones   []Milestone `json:"milestones"`
	BiggestDrop  *Drop       `json:"biggest_drop,omitempty"`
	Units        []UnitStat  `json:"units"`
	DroppedRows  int         `json:"dropped_rows,omitempty"`
}

// DocumentFunnel computes the page-based quartile funnel for a document
// link. When meta carries no page count it is inferred from the deepest page
// seen in the rows; with neither, the per-page table is empty but milestones
// are still computed from completion percentages.
func DocumentFunnel(meta LinkMeta, logs []AccessLog) FunnelResult {
	logs, dropped := SplitValid(NormalizeAll(logs))
	groups := GroupByViewer(logs)
	totalViewers := len(groups)

	totalPages := meta.TotalPages
	if totalPages <= 0 {
		totalPages = inferTotalPages(logs)
	}

	completions := make([]float64, 0, totalViewers)
	for _, g := range groups {
		completions = append(completions, FoldViewerActivity(g).MaxCompletion)
	}

	milestones, biggest := buildMilestones(completions, docFinishedThreshold, func(pct int) int {
		return milestonePage(totalPages, pct)
	})

	units := make([]UnitStat, 0, totalPages)
	for page := 1; page <= totalPages; page++ {
		u := UnitStat{Unit: page, Label: fmt.Sprintf("Page %d", page)}
		for _, l := range logs {
			if secs, ok := l.PagesTime[page]; ok && secs > 0 {
				u.ViewCount++
				u.TotalTimeSeconds += secs
			}
			if l.ExitPage == page {
				u.ExitCount++
			}
		}
		u.ExitRate = ratePercent(u.ExitCount, totalViewers)
		units = append(units, u)
	}
	tagUnits(units, totalPages)

	return FunnelResult{
		TotalViewers: totalViewers,
		Milestones:   milestones,
		BiggestDrop:  biggest,
		Units:        units,
		DroppedRows:  dropped,
	}
}

// MediaFunnel computes the time-based funnel for a video/audio link, using
// ten deciles of the total duration in place of pages.
func MediaFunnel(meta LinkMeta, logs []AccessLog) FunnelResult {
	logs, dropped := SplitValid(NormalizeAll(logs))
	groups := GroupByViewer(logs)
	totalViewers := len(groups)

	completions := make([]float64, 0, totalViewers)
	for _, g := range groups {
		best := 0.0
		for _, l := range g.Logs {
			if c := mediaCompletion(l); c > best {
				best = c
			}
		}
		completions = append(completions, best)
	}

	milestones, biggest := buildMilestones(completions, mediaFinishedThreshold, func(pct int) int {
		// Decile containing this share of the duration: 25% sits in
		// decile 2 (20-30%), 95% and above cap at decile 9.
		d := pct / 10
		if d > 9 {
			d = 9
		}
		return d
	})

	units := make([]UnitStat, 10)
	for d := 0; d < 10; d++ {
		units[d] = UnitStat{Unit: d, Label: fmt.Sprintf("%d-%d%%", d*10, d*10+10)}
	}
	for _, l := range logs {
		for d, secs := range l.SegmentsTime {
			if d >= 0 && d < 10 && secs > 0 {
				units[d].ViewCount++
				units[d].TotalTimeSeconds += secs
			}
		}
		if exit, ok := exitDecile(l); ok {
			units[exit].ExitCount++
		}
	}
	for d := range units {
		units[d].ExitRate = ratePercent(units[d].ExitCount, totalViewers)
	}
	tagUnits(units, 9)

	return FunnelResult{
		TotalViewers: totalViewers,
		Milestones:   milestones,
		BiggestDrop:  biggest,
		Units:        units,
		DroppedRows:  dropped,
	}
}

// buildMilestones counts viewers past each checkpoint and finds the biggest
// drop, including the fall from "everyone starts" to the first milestone.
// Rates are non-increasing by construction since thresholds only rise.
func buildMilestones(completions []float64, finishedAt float64, unitFor func(pct int) int) ([]Milestone, *Drop) {
	checkpoints := []struct {
		percent   int
		threshold float64
	}{
		{25, 25},
		{50, 50},
		{75, 75},
		{100, finishedAt},
	}

	total := len(completions)
	milestones := make([]Milestone, 0, len(checkpoints))
	var biggest *Drop
	prevPercent := 0
	prevRate := 100.0
	if total == 0 {
		prevRate = 0
	}

	for _, cp := range checkpoints {
		reached := 0
		for _, c := range completions {
			if c >= cp.threshold {
				reached++
			}
		}
		rate := ratePercent(reached, total)
		milestones = append(milestones, Milestone{
			Percent:   cp.percent,
			Unit:      unitFor(cp.percent),
			Threshold: cp.threshold,
			Viewers:   reached,
			Rate:      rate,
		})

		if delta := prevRate - rate; delta > 0 && (biggest == nil || delta > biggest.Delta) {
			biggest = &Drop{FromPercent: prevPercent, ToPercent: cp.percent, Delta: roundTo(delta, 1)}
		}
		prevPercent = cp.percent
		prevRate = rate
	}
	return milestones, biggest
}

// tagUnits assigns Popular / Most Engaging / High Exit tags. The first two
// require a strictly unique maximum; ties get no tag. High Exit never applies
// to the final unit since finishing there is the goal.
func tagUnits(units []UnitStat, finalUnit int) {
	popular, popularTied := strictMaxIndex(units, func(u UnitStat) float64 { return float64(u.ViewCount) })
	engaging, engagingTied := strictMaxIndex(units, func(u UnitStat) float64 { return u.TotalTimeSeconds })

	for i := range units {
		if i == popular && !popularTied && units[i].ViewCount > 0 {
			units[i].Tags = append(units[i].Tags, TagPopular)
		}
		if i == engaging && !engagingTied && units[i].TotalTimeSeconds > 0 {
			units[i].Tags = append(units[i].Tags, TagMostEngaging)
		}
		if units[i].ExitRate >= highExitRateThreshold && units[i].Unit != finalUnit {
			units[i].Tags = append(units[i].Tags, TagHighExit)
		}
	}
}

func strictMaxIndex(units []UnitStat, value func(UnitStat) float64) (idx int, tied bool) {
	idx = -1
	best := math.Inf(-1)
	for i, u := range units {
		v := value(u)
		switch {
		case v > best:
			best, idx, tied = v, i, false
		case v == best:
			tied = true
		}
	}
	return idx, tied
}

// milestonePage maps a completion percentage to its page in the document.
func milestonePage(totalPages, percent int) int {
	if totalPages <= 0 {
		return 0
	}
	page := int(math.Ceil(float64(totalPages) * float64(percent) / 100))
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page
}

func inferTotalPages(logs []AccessLog) int {
	max := 0
	for _, l := range logs {
		for page := range l.PagesTime {
			if page > max {
				max = page
			}
		}
		if l.ExitPage > max {
			max = l.ExitPage
		}
	}
	return max
}

// mediaCompletion resolves a row's completion percentage, estimating from
// watch time when the explicit signal is absent.
func mediaCompletion(l AccessLog) float64 {
	if l.CompletionPercentage != nil {
		return *l.CompletionPercentage
	}
	if l.WatchTimeSeconds != nil && l.VideoDurationSeconds != nil && *l.VideoDurationSeconds > 0 {
		return clampFloat(*l.WatchTimeSeconds / *l.VideoDurationSeconds*100, 0, 100)
	}
	return 0
}

// exitDecile finds the furthest decile a visit reached: the highest segment
// with recorded time, else an estimate from the watch-time ratio.
func exitDecile(l AccessLog) (int, bool) {
	best := -1
	for d, secs := range l.SegmentsTime {
		if d >= 0 && d < 10 && secs > 0 && d > best {
			best = d
		}
	}
	if best >= 0 {
		return best, true
	}
	if l.WatchTimeSeconds != nil && l.VideoDurationSeconds != nil && *l.VideoDurationSeconds > 0 {
		d := int(*l.WatchTimeSeconds / *l.VideoDurationSeconds * 10)
		if d < 0 {
			d = 0
		}
		if d > 9 {
			d = 9
		}
		return d, true
	}
	return 0, false
}

// ratePercent guards the zero-denominator case every ratio must survive.
func ratePercent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return roundTo(float64(part)/float64(whole)*100, 1)
}
