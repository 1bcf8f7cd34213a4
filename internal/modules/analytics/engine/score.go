package engine

import (
	"math"
	"time"
)

// Weighting of the content-link engagement formula.
const (
	weightTime       = 0.25
	weightCompletion = 0.25
	weightDownload   = 0.20
	weightReturn     = 0.15
	weightDepth      = 0.15
)

// Weighting of the track-site engagement formula.
const (
	weightSiteReturn    = 0.60
	weightSiteFrequency = 0.40
)

// ViewerActivity is one viewer's folded activity on one link.
type ViewerActivity struct {
	Key                  string
	Email                string
	Name                 string
	Visits               int
	TotalDurationSeconds float64
	MaxCompletion        float64
	Downloaded           bool
	ReturnVisit          bool
	LastVisit            time.Time
}

// FoldViewerActivity reduces a viewer group to the signals the scorer needs.
// A return visit is any group with more than one row, or any row the ingest
// side already flagged.
func FoldViewerActivity(g ViewerGroup) ViewerActivity {
	a := ViewerActivity{Key: g.Key, Visits: len(g.Logs)}
	for _, l := range g.Logs {
		a.TotalDurationSeconds += l.TotalDurationSeconds
		if l.CompletionPercentage != nil && *l.CompletionPercentage > a.MaxCompletion {
			a.MaxCompletion = *l.CompletionPercentage
		}
		if l.Downloaded || l.DownloadCount > 0 {
			a.Downloaded = true
		}
		if l.ReturnVisit {
			a.ReturnVisit = true
		}
		if l.AccessedAt.After(a.LastVisit) {
			a.LastVisit = l.AccessedAt
		}
		if a.Email == "" && l.ViewerEmail != "" {
			a.Email = l.ViewerEmail
		}
		if a.Name == "" && l.ViewerName != "" {
			a.Name = l.ViewerName
		}
	}
	if a.Visits > 1 {
		a.ReturnVisit = true
	}
	return a
}

// TimeScore maps total viewing seconds to 0-100 through the product's
// piecewise definition of "engaged". The breakpoints are load-bearing; see
// the regression test before touching them.
//
//	0s        -> 0
//	[0,30)    -> 0..25
//	[30,60)   -> 25..40
//	[60,120)  -> 40..60
//	[120,300) -> 60..80
//	[300,600) -> 80..100
//	>=600     -> 100
func TimeScore(seconds float64) float64 {
	switch {
	case seconds <= 0:
		return 0
	case seconds < 30:
		return seconds / 30 * 25
	case seconds < 60:
		return 25 + (seconds-30)/30*15
	case seconds < 120:
		return 40 + (seconds-60)/60*20
	case seconds < 300:
		return 60 + (seconds-120)/180*20
	case seconds < 600:
		return 80 + (seconds-300)/300*20
	default:
		return 100
	}
}

// ScoreContentViewer scores a viewer on a file/document/media link.
// Completion is deliberately double-counted: once as the completion term and
// once as depth.
func ScoreContentViewer(a ViewerActivity) int {
	timeScore := TimeScore(a.TotalDurationSeconds)
	completionScore := clampFloat(a.MaxCompletion, 0, 100)
	downloadScore := 0.0
	if a.Downloaded {
		downloadScore = 100
	}
	returnScore := 0.0
	if a.Visits > 1 {
		returnScore = 100
	}
	depthScore := completionScore

	total := timeScore*weightTime +
		completionScore*weightCompletion +
		downloadScore*weightDownload +
		returnScore*weightReturn +
		depthScore*weightDepth
	return clampScore(total)
}

// ScoreTrackSiteViewer scores a viewer on a redirect/track-site link, where
// the only signals are whether they came back and how often they clicked.
func ScoreTrackSiteViewer(a ViewerActivity) int {
	returnScore := 0.0
	if a.Visits > 1 {
		returnScore = 100
	}
	frequencyScore := math.Min(100, float64(a.Visits)*33)
	return clampScore(returnScore*weightSiteReturn + frequencyScore*weightSiteFrequency)
}

// ScoreViewerActivity applies the formula selected by the link kind.
func ScoreViewerActivity(kind LinkKind, a ViewerActivity) ViewerScore {
	var score int
	if kind == LinkKindURL {
		score = ScoreTrackSiteViewer(a)
	} else {
		score = ScoreContentViewer(a)
	}
	return ViewerScore{ViewerID: a.Key, Score: score, Intent: IntentFor(score)}
}

// ScoreViewers resolves identities, folds activity, and scores every viewer
// in the batch. Output order follows first appearance in the input.
func ScoreViewers(kind LinkKind, logs []AccessLog) []ViewerScore {
	groups := GroupByViewer(NormalizeAll(logs))
	scores := make([]ViewerScore, 0, len(groups))
	for _, g := range groups {
		scores = append(scores, ScoreViewerActivity(kind, FoldViewerActivity(g)))
	}
	return scores
}

// clampScore rounds to an integer and clamps into [0, 100]. Every score the
// engine emits passes through here.
func clampScore(v float64) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
