package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"fbinsights/pkg/analytics"
	"fbinsights/pkg/graph"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI shows the live progress of a collection run. It implements
// analytics.Observer.
type TUI struct {
	program *tea.Program
	model   *Model
}

var _ analytics.Observer = (*TUI)(nil)

// New creates a TUI for a run over pageID
func New(pageID, period string, opts ...tea.ProgramOption) *TUI {
	model := NewModel(pageID, period)
	return &TUI{
		program: tea.NewProgram(&model, opts...),
		model:   &model,
	}
}

// Run shows the interface while work runs in the background and returns
// work's error. Quitting the interface calls cancel, which work is
// expected to honor.
func (t *TUI) Run(cancel context.CancelFunc, work func() error) error {
	errCh := make(chan error, 1)
	go func() {
		err := work()
		t.Send(DoneMsg{Err: err})
		errCh <- err
	}()

	if _, err := t.program.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("terminal interface failed: %w", err)
	}

	if t.model.Cancelled() {
		cancel()
	}
	return <-errCh
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// StageStarted implements analytics.Observer
func (t *TUI) StageStarted(stage string) {
	t.Send(StageStartMsg{Stage: stage})
}

// StageFailed implements analytics.Observer
func (t *TUI) StageFailed(stage string, err error) {
	t.Send(StageFailMsg{Stage: stage, Err: err})
}

// PostStarted implements analytics.Observer
func (t *TUI) PostStarted(index, total int, postID string) {
	t.Send(PostStartMsg{Index: index, Total: total, PostID: postID})
}

// PostDone implements analytics.Observer
func (t *TUI) PostDone(index, total int, pa *graph.PostAnalytics) {
	t.Send(postDoneMsg(index, pa))
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Send(LogMsg{Level: "INFO", Message: fmt.Sprintf(format, args...)})
}

// LogWriter returns a writer for zerolog JSON lines that shows each entry
// in the log panel
func (t *TUI) LogWriter() io.Writer {
	return logWriter{t: t}
}

type logWriter struct {
	t *TUI
}

func (w logWriter) Write(p []byte) (int, error) {
	if msg, ok := parseLogLine(p); ok {
		w.t.Send(msg)
	}
	return len(p), nil
}

func parseLogLine(p []byte) (LogMsg, bool) {
	var entry struct {
		Level   string `json:"level"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(p, &entry); err != nil || entry.Message == "" {
		return LogMsg{}, false
	}

	msg := entry.Message
	if entry.Error != "" {
		msg += ": " + entry.Error
	}
	return LogMsg{Level: strings.ToUpper(entry.Level), Message: msg}, true
}

func postDoneMsg(index int, pa *graph.PostAnalytics) PostDoneMsg {
	msg := PostDoneMsg{Index: index}
	if pa != nil {
		msg.Impressions = pa.Summary.Impressions
		msg.Reach = pa.Summary.Reach
		msg.TotalLikes = pa.Summary.TotalLikes
		msg.Unavailable = len(pa.Insights.UnavailableMetrics())
	}
	return msg
}
