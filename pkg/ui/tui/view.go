package tui

import (
	"fmt"
	"strings"
	"time"

	"fbinsights/pkg/analytics"

	"github.com/charmbracelet/lipgloss"
)

// View renders the progress interface
func (m Model) View() string {
	sections := []string{
		m.renderHeader(),
		panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, m.renderStages()...)),
	}

	if len(m.posts) > 0 {
		sections = append(sections, panelStyle.Render(m.renderPosts()))
	}

	if len(m.logMessages) > 0 {
		sections = append(sections, m.renderLogs())
	}

	if !m.finished && !m.cancelled {
		sections = append(sections, helpStyle.Render("press q to cancel"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) renderHeader() string {
	elapsed := formatDuration(time.Since(m.startTime))
	info := subtleStyle.Render(fmt.Sprintf(" page %s · %s · %s", m.pageID, m.period, elapsed))
	return headerStyle.Render("fbinsights") + info
}

func (m Model) renderStages() []string {
	lines := []string{titleStyle.Render("Pipeline")}
	for _, stage := range m.stages {
		line := fmt.Sprintf("%s %s", m.icon(stage.State), stage.Label)
		if stage.Name == analytics.StagePostInsights && m.totalPosts > 0 {
			done := int(m.PostProgress()*float64(m.totalPosts) + 0.5)
			line += "  " + m.progress.ViewAs(m.PostProgress()) +
				subtleStyle.Render(fmt.Sprintf(" %d/%d", done, m.totalPosts))
		}
		if stage.State == StateFailed && stage.Err != nil {
			line += "  " + errorStyle.Render(truncate(stage.Err.Error(), 60))
		}
		lines = append(lines, line)
	}
	return lines
}

func (m Model) renderPosts() string {
	lines := []string{titleStyle.Render("Posts")}
	for _, post := range m.posts {
		line := fmt.Sprintf("%s %s", m.icon(post.State), post.ID)
		if post.State == StateDone {
			line += fmt.Sprintf("  %s %s  %s %s  %s %s",
				labelStyle.Render("impressions"), valueStyle.Render(post.Impressions.String()),
				labelStyle.Render("reach"), valueStyle.Render(post.Reach.String()),
				labelStyle.Render("likes"), valueStyle.Render(post.TotalLikes.String()))
			if post.Unavailable > 0 {
				line += subtleStyle.Render(fmt.Sprintf("  (%d unavailable)", post.Unavailable))
			}
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderLogs() string {
	var lines []string
	for _, msg := range m.logMessages {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			logTimestampStyle.Render(msg.Time.Format("15:04:05")),
			levelStyle(msg.Level).Render(fmt.Sprintf("%-7s", msg.Level)),
			msg.Message,
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) icon(state State) string {
	switch state {
	case StateActive:
		return m.spinner.View()
	case StateDone:
		return successStyle.Render("✓")
	case StateFailed:
		return errorStyle.Render("✗")
	default:
		return subtleStyle.Render("○")
	}
}

// formatDuration formats a duration as mm:ss
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
