package tui

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// StageStartMsg is sent when a pipeline stage starts
type StageStartMsg struct {
	Stage string
}

// StageFailMsg is sent when a stage returns an error
type StageFailMsg struct {
	Stage string
	Err   error
}

// PostStartMsg is sent when a post's metrics start being fetched
type PostStartMsg struct {
	Index  int
	Total  int
	PostID string
}

// PostDoneMsg is sent when a post has been analyzed
type PostDoneMsg struct {
	Index       int
	Impressions json.Number
	Reach       json.Number
	TotalLikes  json.Number
	Unavailable int
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// DoneMsg is sent when the run has finished
type DoneMsg struct {
	Err error
}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = clamp(msg.Width-30, 10, 60)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StageStartMsg:
		m.StartStage(msg.Stage)
		return m, nil

	case StageFailMsg:
		m.FailStage(msg.Stage, msg.Err)
		m.AddLogMessage("WARN", fmt.Sprintf("%s: %v", msg.Stage, msg.Err))
		return m, nil

	case PostStartMsg:
		m.StartPost(msg.Index, msg.Total, msg.PostID)
		return m, nil

	case PostDoneMsg:
		m.CompletePost(msg)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case DoneMsg:
		m.Finish(msg.Err)
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if !m.finished {
			m.cancelled = true
			m.AddLogMessage("WARN", "Cancelled by user")
		}
		return m, tea.Quit
	}

	return m, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
