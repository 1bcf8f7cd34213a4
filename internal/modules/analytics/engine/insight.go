package engine

import (
	"fmt"
	"sort"
)

// Priority ranks insights and actions for display.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Insight is one ranked, human-readable observation.
type Insight struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Priority    Priority          `json:"priority"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ActionLabel string            `json:"action_label,omitempty"`
	ActionData  map[string]string `json:"action_data,omitempty"`
}

// Action is one suggested next step for a link.
type Action struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Priority    Priority `json:"priority"`
	Text        string   `json:"text"`
	Implication string   `json:"implication"`
}

// Per-rule caps so no single rule floods the feed.
const (
	maxFollowUpInsights = 2
	maxReturnInsights   = 1
	maxTrendingInsights = 1
	trendingMinViews    = 5
	defaultInsightLimit = 10
)

// GenerateInsights scans viewer and link summaries and emits a ranked,
// deduplicated insight list. The function is idempotent: identical input
// yields byte-identical, identically-ordered output.
func GenerateInsights(viewers []ViewerSummary, links []LinkSummary, limit int) []Insight {
	if limit <= 0 {
		limit = defaultInsightLimit
	}

	var out []Insight
	out = append(out, followUpInsights(viewers)...)
	out = append(out, returnVisitorInsights(viewers)...)
	out = append(out, trendingInsights(links)...)

	// Stable sort keeps rule order within a priority tier.
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})

	out = dedupeInsights(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// followUpInsights: up to two hot leads worth a call today.
func followUpInsights(viewers []ViewerSummary) []Insight {
	hot := make([]ViewerSummary, 0, len(viewers))
	for _, v := range viewers {
		if v.Intent == IntentHot {
			hot = append(hot, v)
		}
	}
	sort.SliceStable(hot, func(i, j int) bool {
		if hot[i].Score != hot[j].Score {
			return hot[i].Score > hot[j].Score
		}
		if !hot[i].LastVisit.Equal(hot[j].LastVisit) {
			return hot[i].LastVisit.After(hot[j].LastVisit)
		}
		return hot[i].ViewerID < hot[j].ViewerID
	})
	if len(hot) > maxFollowUpInsights {
		hot = hot[:maxFollowUpInsights]
	}

	out := make([]Insight, 0, len(hot))
	for _, v := range hot {
		out = append(out, Insight{
			ID:          fmt.Sprintf("follow-up:%s:%s", v.LinkID, v.ViewerID),
			Type:        "follow-up",
			Priority:    PriorityHigh,
			Title:       fmt.Sprintf("Follow up with %s", displayName(v)),
			Description: fmt.Sprintf("%s scored %d on %q and is a hot lead.", displayName(v), v.Score, v.LinkName),
			ActionLabel: "Reach out",
			ActionData: map[string]string{
				"viewer_id": v.ViewerID,
				"link_id":   v.LinkID,
				"email":     v.Email,
			},
		})
	}
	return out
}

// returnVisitorInsights: the single most recent returning viewer.
func returnVisitorInsights(viewers []ViewerSummary) []Insight {
	var best *ViewerSummary
	for i := range viewers {
		v := &viewers[i]
		if !v.ReturnVisitor {
			continue
		}
		if best == nil ||
			v.LastVisit.After(best.LastVisit) ||
			(v.LastVisit.Equal(best.LastVisit) && v.ViewerID < best.ViewerID) {
			best = v
		}
	}
	if best == nil {
		return nil
	}
	return []Insight{{
		ID:          fmt.Sprintf("return-visitor:%s:%s", best.LinkID, best.ViewerID),
		Type:        "return-visitor",
		Priority:    PriorityMedium,
		Title:       fmt.Sprintf("%s came back to %q", displayName(*best), best.LinkName),
		Description: fmt.Sprintf("%d visits so far; returning viewers convert at a much higher rate.", best.Visits),
		ActionLabel: "View activity",
		ActionData: map[string]string{
			"viewer_id": best.ViewerID,
			"link_id":   best.LinkID,
		},
	}}
}

// trendingInsights: the single most viewed link above the minimum threshold.
func trendingInsights(links []LinkSummary) []Insight {
	var best *LinkSummary
	for i := range links {
		l := &links[i]
		if l.TotalViews <= trendingMinViews {
			continue
		}
		if best == nil ||
			l.TotalViews > best.TotalViews ||
			(l.TotalViews == best.TotalViews && l.LinkID < best.LinkID) {
			best = l
		}
	}
	if best == nil {
		return nil
	}
	return []Insight{{
		ID:          fmt.Sprintf("trending:%s", best.LinkID),
		Type:        "trending",
		Priority:    PriorityMedium,
		Title:       fmt.Sprintf("%q is trending", best.Name),
		Description: fmt.Sprintf("%d views with an average engagement of %d.", best.TotalViews, best.AvgEngagement),
		ActionLabel: "Open analytics",
		ActionData:  map[string]string{"link_id": best.LinkID},
	}}
}

func dedupeInsights(in []Insight) []Insight {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, ins := range in {
		if _, ok := seen[ins.ID]; ok {
			continue
		}
		seen[ins.ID] = struct{}{}
		out = append(out, ins)
	}
	return out
}

func displayName(v ViewerSummary) string {
	if v.Name != "" {
		return v.Name
	}
	if v.Email != "" {
		return v.Email
	}
	return "An anonymous viewer"
}

// actionRule is one category-specific suggestion.
type actionRule struct {
	typ      string
	priority Priority
	when     func(LinkSummary) bool
	text     func(LinkSummary) string
	why      string
}

// Action rule sets, keyed by content category. Actions are generated from
// the summaries directly and never derived from the insight list.
var actionRules = map[Category][]actionRule{
	CategoryDoc: {
		{
			typ: "follow-up-hot", priority: PriorityHigh,
			when: func(s LinkSummary) bool { return s.HotViewers > 0 },
			text: func(s LinkSummary) string {
				return fmt.Sprintf("Reach out to the %d hot lead(s) on %q while interest is fresh.", s.HotViewers, s.Name)
			},
			why: "Hot leads cool quickly once the document leaves their inbox.",
		},
		{
			typ: "trim-document", priority: PriorityMedium,
			when: func(s LinkSummary) bool { return s.TotalViews > 0 && s.AvgEngagement < WarmThreshold },
			text: func(s LinkSummary) string {
				return fmt.Sprintf("Tighten the opening pages of %q; average engagement is %d.", s.Name, s.AvgEngagement)
			},
			why: "Low average engagement on documents usually means readers stall early.",
		},
		{
			typ: "refresh-link", priority: PriorityMedium,
			when: func(s LinkSummary) bool { return s.Performance.Score < 20 && s.TotalViews > 0 },
			text: func(s LinkSummary) string {
				return fmt.Sprintf("%q needs attention: performance is %d. Re-share it with a new audience.", s.Name, s.Performance.Score)
			},
			why: "Links under the attention threshold rarely recover without a push.",
		},
	},
	CategoryMedia: {
		{
			typ: "follow-up-hot", priority: PriorityHigh,
			when: func(s LinkSummary) bool { return s.HotViewers > 0 },
			text: func(s LinkSummary) string {
				return fmt.Sprintf("Follow up with the %d engaged watcher(s) of %q.", s.HotViewers, s.Name)
			},
			why: "Viewers who finish a video are the strongest buying signal available.",
		},
		{
			typ: "shorten-media", priority: PriorityMedium,
			when: func(s LinkSummary) bool { return s.TotalViews > 0 && s.AvgEngagement < WarmThreshold },
			text: func(s LinkSummary) string {
				return fmt.Sprintf("Shorten %q or front-load the message; average engagement is %d.", s.Name, s.AvgEngagement)
			},
			why: "Watch-through drops steeply once early segments lose the audience.",
		},
	},
	CategoryImage: {
		{
			typ: "add-context", priority: PriorityLow,
			when: func(s LinkSummary) bool { return s.TotalViews > 0 && s.AvgEngagement < WarmThreshold },
			text: func(s LinkSummary) string {
				return fmt.Sprintf("Add a caption or call to action around %q; views are not converting into engagement.", s.Name)
			},
			why: "Images alone rarely hold attention long enough to score.",
		},
	},
	CategoryURL: {
		{
			typ: "re-share", priority: PriorityMedium,
			when: func(s LinkSummary) bool { return s.TotalViews > 0 && s.ReturnVisits == 0 },
			text: func(s LinkSummary) string {
				return fmt.Sprintf("Nobody has clicked %q twice; re-share it in a follow-up message.", s.Name)
			},
			why: "Tracked links live or die on repeat clicks.",
		},
		{
			typ: "promote", priority: PriorityMedium,
			when: func(s LinkSummary) bool { return s.Performance.Score < 20 && s.TotalViews > 0 },
			text: func(s LinkSummary) string {
				return fmt.Sprintf("Promote %q through a new channel; performance is %d.", s.Name, s.Performance.Score)
			},
			why: "Low-volume tracked links cannot earn quality bonuses until volume grows.",
		},
	},
	CategoryOther: {
		{
			typ: "classify", priority: PriorityLow,
			when: func(s LinkSummary) bool { return s.TotalViews > 0 },
			text: func(s LinkSummary) string {
				return fmt.Sprintf("Set a content type for %q to unlock tailored suggestions.", s.Name)
			},
			why: "Uncategorized links only receive generic guidance.",
		},
	},
}

// GenerateActions produces suggested next steps from link summaries, using
// the rule set for each link's content category. Deterministic: links are
// processed in a fixed order and rules in declaration order.
func GenerateActions(links []LinkSummary, limit int) []Action {
	if limit <= 0 {
		limit = defaultInsightLimit
	}

	ordered := make([]LinkSummary, len(links))
	copy(ordered, links)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].TotalViews != ordered[j].TotalViews {
			return ordered[i].TotalViews > ordered[j].TotalViews
		}
		return ordered[i].LinkID < ordered[j].LinkID
	})

	var out []Action
	for _, link := range ordered {
		rules := actionRules[link.Category]
		if rules == nil {
			rules = actionRules[CategoryOther]
		}
		for _, r := range rules {
			if !r.when(link) {
				continue
			}
			out = append(out, Action{
				ID:          fmt.Sprintf("%s:%s", r.typ, link.LinkID),
				Type:        r.typ,
				Priority:    r.priority,
				Text:        r.text(link),
				Implication: r.why,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
