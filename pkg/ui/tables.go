package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"fbinsights/pkg/analytics"
	"fbinsights/pkg/graph"
	"fbinsights/pkg/history"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerCellStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	numberCellStyle = cellStyle.Align(lipgloss.Right)
)

func newTable(numericFrom int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCellStyle
			case col >= numericFrom:
				return numberCellStyle
			default:
				return cellStyle
			}
		})
}

// RenderPageSummary renders the page level summary, one metric per row in
// name order
func RenderPageSummary(summary map[string]json.RawMessage) string {
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)

	t := newTable(1).Headers("Page metric", "Value")
	for _, name := range names {
		t.Row(name, string(summary[name]))
	}
	return t.String()
}

// RenderPostSummaries renders the five-field summary of every post
func RenderPostSummaries(posts []graph.PostAnalytics) string {
	t := newTable(2).Headers("Post", "Created", "Impressions", "Reach", "Engaged", "Clicks", "Likes")
	for _, pa := range posts {
		var post graph.Post
		_ = json.Unmarshal(pa.PostDetails, &post)
		t.Row(
			post.ID,
			post.CreatedTime,
			pa.Summary.Impressions.String(),
			pa.Summary.Reach.String(),
			pa.Summary.EngagedUsers.String(),
			pa.Summary.Clicks.String(),
			pa.Summary.TotalLikes.String(),
		)
	}
	return t.String()
}

// RenderReport renders both tables of a clean report
func RenderReport(report analytics.CleanReport) string {
	out := RenderPageSummary(report.PageLevelSummary)
	if len(report.ComprehensivePostAnalytics) > 0 {
		out += "\n" + RenderPostSummaries(report.ComprehensivePostAnalytics)
	} else {
		out += "\n" + Dim("No post analytics")
	}
	return out
}

// RenderRuns renders recorded runs, newest first
func RenderRuns(runs []history.Run) string {
	t := newTable(4).Headers("Run", "Started", "Page", "Period", "Posts", "Unavailable", "Duration")
	for _, r := range runs {
		t.Row(
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.PageID,
			r.Period,
			strconv.Itoa(r.PostCount),
			strconv.Itoa(r.Unavailable),
			fmt.Sprintf("%.1fs", r.Duration.Seconds()),
		)
	}
	return t.String()
}

// RenderRunPosts renders the post summaries of a recorded run
func RenderRunPosts(posts []history.PostRecord) string {
	t := newTable(1).Headers("Post", "Impressions", "Reach", "Engaged", "Clicks", "Likes")
	for _, p := range posts {
		t.Row(p.PostID,
			p.Impressions.String(),
			p.Reach.String(),
			p.EngagedUsers.String(),
			p.Clicks.String(),
			p.TotalLikes.String(),
		)
	}
	return t.String()
}
