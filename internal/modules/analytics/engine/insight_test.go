package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewer(id string, score int, opts func(*ViewerSummary)) ViewerSummary {
	v := ViewerSummary{
		ViewerID:  id,
		Email:     id + "@example.com",
		LinkID:    "lnk-1",
		LinkName:  "Q1 Deck",
		Score:     score,
		Intent:    IntentFor(score),
		Visits:    1,
		LastVisit: baseTime,
	}
	if opts != nil {
		opts(&v)
	}
	return v
}

func linkSum(id string, views int, opts func(*LinkSummary)) LinkSummary {
	s := LinkSummary{
		LinkID:     id,
		Name:       "Link " + id,
		Kind:       LinkKindFile,
		Category:   CategoryDoc,
		TotalViews: views,
	}
	if opts != nil {
		opts(&s)
	}
	return s
}

func TestGenerateInsightsIdempotent(t *testing.T) {
	viewers := []ViewerSummary{
		viewer("v1", 85, func(v *ViewerSummary) { v.ReturnVisitor = true; v.Visits = 3 }),
		viewer("v2", 75, nil),
		viewer("v3", 72, nil),
		viewer("v4", 30, nil),
	}
	links := []LinkSummary{
		linkSum("l1", 12, func(s *LinkSummary) { s.AvgEngagement = 55 }),
		linkSum("l2", 3, nil),
	}

	first := GenerateInsights(viewers, links, 10)
	second := GenerateInsights(viewers, links, 10)
	require.Equal(t, first, second)
}

func TestGenerateInsightsFollowUpCapAndOrder(t *testing.T) {
	viewers := []ViewerSummary{
		viewer("v1", 95, nil),
		viewer("v2", 90, nil),
		viewer("v3", 88, nil),
		viewer("v4", 71, nil),
	}

	out := GenerateInsights(viewers, nil, 10)
	followUps := 0
	for _, ins := range out {
		if ins.Type == "follow-up" {
			followUps++
		}
	}
	assert.Equal(t, 2, followUps)
	// Highest score first.
	require.NotEmpty(t, out)
	assert.Equal(t, "follow-up:lnk-1:v1", out[0].ID)
	assert.Equal(t, PriorityHigh, out[0].Priority)
}

func TestGenerateInsightsReturnVisitorPicksMostRecent(t *testing.T) {
	older := viewer("v1", 50, func(v *ViewerSummary) {
		v.ReturnVisitor = true
		v.LastVisit = baseTime.Add(-48 * time.Hour)
	})
	newer := viewer("v2", 45, func(v *ViewerSummary) {
		v.ReturnVisitor = true
		v.Visits = 4
		v.LastVisit = baseTime
	})

	out := GenerateInsights([]ViewerSummary{older, newer}, nil, 10)
	var returns []Insight
	for _, ins := range out {
		if ins.Type == "return-visitor" {
			returns = append(returns, ins)
		}
	}
	require.Len(t, returns, 1)
	assert.Contains(t, returns[0].ID, "v2")
}

func TestGenerateInsightsTrendingThreshold(t *testing.T) {
	atThreshold := []LinkSummary{linkSum("l1", 5, nil)}
	out := GenerateInsights(nil, atThreshold, 10)
	assert.Empty(t, out)

	above := []LinkSummary{
		linkSum("l1", 6, func(s *LinkSummary) { s.AvgEngagement = 61 }),
		linkSum("l2", 4, nil),
	}
	out = GenerateInsights(nil, above, 10)
	require.Len(t, out, 1)
	assert.Equal(t, "trending:l1", out[0].ID)
	assert.Contains(t, out[0].Description, "6 views")
	assert.Contains(t, out[0].Description, "61")
}

func TestGenerateInsightsRespectsLimit(t *testing.T) {
	var viewers []ViewerSummary
	for i := 0; i < 6; i++ {
		viewers = append(viewers, viewer(fmt.Sprintf("v%d", i), 90, func(v *ViewerSummary) {
			v.ReturnVisitor = true
		}))
	}
	links := []LinkSummary{linkSum("l1", 50, nil)}

	out := GenerateInsights(viewers, links, 2)
	assert.Len(t, out, 2)
}

func TestGenerateActionsDeterministicAndCategoryKeyed(t *testing.T) {
	links := []LinkSummary{
		linkSum("doc", 30, func(s *LinkSummary) {
			s.HotViewers = 2
			s.AvgEngagement = 25
		}),
		linkSum("url", 10, func(s *LinkSummary) {
			s.Kind = LinkKindURL
			s.Category = CategoryURL
			s.ReturnVisits = 0
		}),
	}

	first := GenerateActions(links, 10)
	second := GenerateActions(links, 10)
	require.Equal(t, first, second)
	require.NotEmpty(t, first)

	// High-priority hot-lead action sorts first.
	assert.Equal(t, "follow-up-hot:doc", first[0].ID)

	var types []string
	for _, a := range first {
		types = append(types, a.Type)
	}
	assert.Contains(t, types, "trim-document")
	assert.Contains(t, types, "re-share")
}

func TestGenerateActionsUnknownCategoryFallsBack(t *testing.T) {
	links := []LinkSummary{
		linkSum("x", 4, func(s *LinkSummary) { s.Category = Category("file-weird") }),
	}
	out := GenerateActions(links, 10)
	require.Len(t, out, 1)
	assert.Equal(t, "classify:x", out[0].ID)
}
