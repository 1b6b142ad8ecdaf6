package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
)

const maxHistory = 6

// ProgressModel shows a sync run as it happens.
type ProgressModel struct {
	ctx          context.Context
	cancel       context.CancelFunc
	engine       tasks.SyncEngine
	settings     shared.SyncSettings
	progressChan chan tasks.ProgressUpdate
	current      tasks.ProgressUpdate
	history      []string
	percent      float64
	summary      *tasks.Summary
	canceling    bool
	done         bool
	width        int
	spinner      spinner.Model
	bar          progress.Model
	help         help.Model
	keys         keyMap
}

// NewProgressModel creates a model that runs engine with settings once started.
func NewProgressModel(ctx context.Context, engine tasks.SyncEngine, settings shared.SyncSettings) *ProgressModel {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	return &ProgressModel{
		ctx:      ctx,
		cancel:   cancel,
		engine:   engine,
		settings: settings,
		spinner:  s,
		bar:      progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Summary returns the result once the run has finished.
func (m *ProgressModel) Summary() *tasks.Summary {
	return m.summary
}

// Init starts the run and the spinner.
func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.startSync(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.cancel):
			m.canceling = true
			m.cancel()
			return m, nil
		case key.Matches(msg, m.keys.quit):
			if m.done {
				return m, tea.Quit
			}
			m.canceling = true
			m.cancel()
			return m, nil
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.apply(msg.data.(tasks.ProgressUpdate))
			return m, m.waitForProgress()
		case MsgSyncComplete:
			m.summary = msg.data.(*tasks.Summary)
			m.done = true
			m.cancel()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ProgressModel) apply(update tasks.ProgressUpdate) {
	if update.Stage != m.current.Stage && m.current.Message != "" && m.current.Stage != tasks.StageAdd {
		m.history = append(m.history, m.current.Message)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
	}
	m.current = update

	if update.Stage == tasks.StageAdd && update.Total > 0 {
		m.percent = float64(update.Step) / float64(update.Total)
	}
}

// View renders the current stage, recent history and, while adding, the progress bar.
func (m *ProgressModel) View() string {
	if m.done {
		return RenderSummary(m.summary) + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Syncing " + m.settings.ChannelID))
	b.WriteString("\n")

	for _, line := range m.history {
		b.WriteString(styles.ok.Render("✓ "))
		b.WriteString(line)
		b.WriteString("\n")
	}

	message := m.current.Message
	if message == "" {
		message = "Starting..."
	}
	fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), message)

	if m.current.Stage == tasks.StageAdd {
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(m.percent))
		b.WriteString("\n")
	}

	if m.canceling {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("Canceling after the current request..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *ProgressModel) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		m.summary = m.engine.Run(m.ctx, m.settings, m.progressChan)
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *ProgressModel) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return syncCompleteMsg(m.summary)
		}
		return progressUpdateMsg(update)
	}
}
