package tui

import (
	"encoding/json"
	"time"

	"fbinsights/pkg/analytics"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// State is the progress state of a stage or a post
type State int

const (
	StatePending State = iota
	StateActive
	StateDone
	StateFailed
)

// Stage is one step of the collection pipeline
type Stage struct {
	Name  string
	Label string
	State State
	Err   error
}

// PostItem is one post being analyzed
type PostItem struct {
	ID          string
	State       State
	Impressions json.Number
	Reach       json.Number
	TotalLikes  json.Number
	Unavailable int
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
}

// Model holds the state of the progress interface
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	pageID string
	period string

	stages     []*Stage
	posts      []*PostItem
	totalPosts int

	logMessages    []LogMessage
	maxLogMessages int

	startTime time.Time
	finished  bool
	cancelled bool
	err       error

	width int
}

// NewModel creates a new progress model for a run over pageID
func NewModel(pageID, period string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = labelStyle

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:  s,
		progress: p,
		pageID:   pageID,
		period:   period,
		stages: []*Stage{
			{Name: analytics.StagePageInsights, Label: "Page insights"},
			{Name: analytics.StagePosts, Label: "Recent posts"},
			{Name: analytics.StagePostInsights, Label: "Post insights"},
		},
		maxLogMessages: 8,
		startTime:      time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// StartStage marks a stage as active. Earlier active stages are done.
func (m *Model) StartStage(name string) {
	for _, stage := range m.stages {
		if stage.Name == name {
			stage.State = StateActive
			return
		}
		if stage.State == StateActive {
			stage.State = StateDone
		}
	}
}

// FailStage marks a stage as failed
func (m *Model) FailStage(name string, err error) {
	if stage := m.stage(name); stage != nil {
		stage.State = StateFailed
		stage.Err = err
	}
}

// StartPost marks a post as being analyzed
func (m *Model) StartPost(index, total int, postID string) {
	m.totalPosts = total
	for len(m.posts) <= index {
		m.posts = append(m.posts, &PostItem{})
	}
	m.posts[index].ID = postID
	m.posts[index].State = StateActive
}

// CompletePost records a finished post and its summary
func (m *Model) CompletePost(msg PostDoneMsg) {
	if msg.Index < 0 || msg.Index >= len(m.posts) {
		return
	}
	item := m.posts[msg.Index]
	item.State = StateDone
	item.Impressions = msg.Impressions
	item.Reach = msg.Reach
	item.TotalLikes = msg.TotalLikes
	item.Unavailable = msg.Unavailable
}

// Finish ends the run. Remaining active stages are done unless err is set.
func (m *Model) Finish(err error) {
	m.finished = true
	m.err = err
	for _, stage := range m.stages {
		if stage.State == StateActive {
			if err != nil {
				stage.State = StateFailed
			} else {
				stage.State = StateDone
			}
		}
	}
	if err != nil {
		m.AddLogMessage("ERROR", err.Error())
	} else {
		m.AddLogMessage("SUCCESS", "Collection complete")
	}
}

// AddLogMessage adds a log message, keeping only the most recent ones
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// PostProgress returns the fraction of posts analyzed
func (m *Model) PostProgress() float64 {
	if m.totalPosts == 0 {
		return 0
	}
	done := 0
	for _, p := range m.posts {
		if p.State == StateDone {
			done++
		}
	}
	return float64(done) / float64(m.totalPosts)
}

// Cancelled reports whether the user quit before the run finished
func (m *Model) Cancelled() bool {
	return m.cancelled
}

func (m *Model) stage(name string) *Stage {
	for _, stage := range m.stages {
		if stage.Name == name {
			return stage
		}
	}
	return nil
}
