package engine

import (
	"math"
	"time"
)

// Volume gating: a link needs this many views before quality bonuses count
// in full, so two lucky visits cannot outscore four hundred solid ones.
const fullCreditViews = 500

// Performance label cutoffs for display.
const (
	labelExcellent      = "excellent"
	labelGood           = "good"
	labelModerate       = "moderate"
	labelNeedsAttention = "needs attention"
)

// PerformanceLabel maps a performance score to its display label. Scores
// under 20 are flagged for attention; 20 and up are eligible for the
// top-performing list.
func PerformanceLabel(score int) string {
	switch {
	case score >= 70:
		return labelExcellent
	case score >= 40:
		return labelGood
	case score >= 20:
		return labelModerate
	default:
		return labelNeedsAttention
	}
}

// volumeScore rewards raw view volume logarithmically: 20 points per decade,
// capped at 100.
func volumeScore(totalViews int) float64 {
	return math.Min(100, 20*math.Log10(float64(totalViews)+1))
}

// volumeMultiplier gates quality bonuses, reaching 1.0 at fullCreditViews.
func volumeMultiplier(totalViews int) float64 {
	return math.Min(1, float64(totalViews)/fullCreditViews)
}

// ScoreLinkPerformance computes the aggregate 0-100 score for a link from
// all of its rows. now anchors the recency and velocity windows for
// track-site links; passing it explicitly keeps the function pure.
func ScoreLinkPerformance(meta LinkMeta, logs []AccessLog, now time.Time) LinkPerformance {
	logs, _ = SplitValid(NormalizeAll(logs))
	totalViews := len(logs)
	if totalViews == 0 {
		return LinkPerformance{LinkID: meta.ID, Score: 0, Label: PerformanceLabel(0)}
	}

	var score int
	if meta.Kind == LinkKindURL {
		score = trackSitePerformance(logs, now)
	} else {
		score = filePerformance(logs)
	}
	return LinkPerformance{LinkID: meta.ID, Score: score, Label: PerformanceLabel(score)}
}

// filePerformance: quality = time 35% + completion 35% + download 30%,
// gated by the volume multiplier at weight 0.75 over a 0.25 volume base.
func filePerformance(logs []AccessLog) int {
	totalViews := len(logs)

	var durationSum float64
	var completionSum float64
	completionRows := 0
	downloads := 0
	for _, l := range logs {
		durationSum += l.TotalDurationSeconds
		if l.CompletionPercentage != nil {
			completionSum += *l.CompletionPercentage
			completionRows++
		}
		if l.Downloaded || l.DownloadCount > 0 {
			downloads++
		}
	}

	avgDuration := durationSum / float64(totalViews)
	timeScore := math.Min(100, avgDuration/120*100)

	completionScore := 0.0
	if completionRows > 0 {
		completionScore = completionSum / float64(completionRows)
	}

	downloadRate := float64(downloads) / float64(totalViews) * 100
	downloadScore := math.Min(100, downloadRate*2)

	quality := timeScore*0.35 + completionScore*0.35 + downloadScore*0.30
	return clampScore(volumeScore(totalViews)*0.25 + quality*volumeMultiplier(totalViews)*0.75)
}

// trackSitePerformance: volume base plus four independently gated bonuses
// for reach, returning clickers, recency and click velocity.
func trackSitePerformance(logs []AccessLog, now time.Time) int {
	totalClicks := len(logs)
	mult := volumeMultiplier(totalClicks)

	groups := GroupByViewer(logs)
	uniqueClickers := len(groups)
	returningClickers := 0
	var lastClick time.Time
	for _, g := range groups {
		a := FoldViewerActivity(g)
		if a.Visits > 1 || a.ReturnVisit {
			returningClickers++
		}
		if a.LastVisit.After(lastClick) {
			lastClick = a.LastVisit
		}
	}

	reachRatio := 0.0
	if totalClicks > 0 {
		reachRatio = float64(uniqueClickers) / float64(totalClicks)
	}
	reachBonus := reachRatio * 100 * 0.20 * mult

	returnRatio := 0.0
	if uniqueClickers > 0 {
		returnRatio = float64(returningClickers) / float64(uniqueClickers)
	}
	returnBonus := returnRatio * 100 * 0.20 * mult

	daysSinceLast := now.Sub(lastClick).Hours() / 24
	recencyBonus := recencyScore(daysSinceLast) * 0.10 * mult

	thisWeek, lastWeek := 0, 0
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	for _, l := range logs {
		switch {
		case l.AccessedAt.After(weekAgo):
			thisWeek++
		case l.AccessedAt.After(twoWeeksAgo):
			lastWeek++
		}
	}
	velocityBonus := 0.0
	if lastWeek > 0 {
		velocityBonus = velocityScore(float64(thisWeek)/float64(lastWeek)) * 0.10 * mult
	}

	return clampScore(volumeScore(totalClicks) + reachBonus + returnBonus + recencyBonus + velocityBonus)
}

// recencyScore maps days since the last click through a step function.
func recencyScore(days float64) float64 {
	switch {
	case days <= 1:
		return 100
	case days <= 3:
		return 90
	case days <= 7:
		return 70
	case days <= 14:
		return 50
	case days <= 30:
		return 30
	case days <= 60:
		return 15
	default:
		return 5
	}
}

// velocityScore maps the this-week / last-week click ratio to a step score.
func velocityScore(ratio float64) float64 {
	switch {
	case ratio >= 2.0:
		return 100
	case ratio >= 1.5:
		return 80
	case ratio >= 1.0:
		return 50
	case ratio >= 0.5:
		return 20
	default:
		return 5
	}
}
