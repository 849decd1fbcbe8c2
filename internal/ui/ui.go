package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/releaseradar/internal/models"
	"github.com/desertthunder/releaseradar/internal/tasks"
)

// maxStatusLines bounds the rolling per-artist status log.
const maxStatusLines = 8

// maxSummaryRows bounds the release listing in the final view.
const maxSummaryRows = 20

// Model represents the tracking run TUI state.
type Model struct {
	ctx          context.Context
	engine       *tasks.TrackerEngine
	artistIDs    []string
	opts         tasks.TrackOpts
	width        int
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	current      tasks.ProgressUpdate
	statusLines  []string
	result       *tasks.TrackResult
	err          error
	done         bool
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.quit}}
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	result *tasks.TrackResult
	err    error
}

// NewModel creates a new tracking run model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.TrackerEngine, artistIDs []string, opts tasks.TrackOpts) *Model {
	return &Model{
		ctx:       ctx,
		engine:    engine,
		artistIDs: artistIDs,
		opts:      opts,
		bar:       progress.New(progress.WithDefaultGradient()),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the tracking run in the background.
func (m *Model) Init() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.TrackAll(m.ctx, m.progressChan, m.artistIDs, m.opts)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil

	case progressUpdateMsg:
		m.current = tasks.ProgressUpdate(msg)
		m.pushStatus(m.current)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the progress or result view.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Tracking failed: %v\n", m.err))
	}
	if m.done {
		return m.renderResult()
	}
	return m.renderProgress()
}

// Result returns the run outcome once the program has finished.
func (m *Model) Result() (*tasks.TrackResult, error) {
	return m.result, m.err
}

// pushStatus appends a per-artist status line, keeping a rolling window.
func (m *Model) pushStatus(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.ArtistDone, tasks.ArtistFailed:
		m.statusLines = append(m.statusLines, update.Message)
		if len(m.statusLines) > maxStatusLines {
			m.statusLines = m.statusLines[len(m.statusLines)-maxStatusLines:]
		}
	}
}

func (m *Model) renderProgress() string {
	title := styles.title.Render("Tracking Releases")

	var percent float64
	if m.current.Total > 0 {
		percent = float64(m.current.Step) / float64(m.current.Total)
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n\n")
	b.WriteString(m.current.Message)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(m.statusLines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))

	return b.String()
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return styles.err.Render("No result available\n")
	}

	title := styles.ok.Render(fmt.Sprintf("✓ Found %d releases", len(m.result.Releases)))
	info := fmt.Sprintf(
		"\nArtists: %d tracked, %d with releases\nAPI calls: %d\nDuration: %s\n",
		m.result.ArtistsTracked,
		m.result.ProcessedCount,
		m.result.APICallsMade,
		m.result.Duration.Round(0),
	)

	var b strings.Builder
	b.WriteString(title)
	b.WriteString(info)

	for i, release := range m.result.Releases {
		if i == maxSummaryRows {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(m.result.Releases)-maxSummaryRows))
			break
		}
		b.WriteString(fmt.Sprintf("  [%s] %s - %s (%s)\n",
			release.ReleaseDate.Format(models.DateOnly),
			release.ArtistName,
			release.TrackName,
			release.AlbumName,
		))
	}

	if len(m.result.MissingArtistIDs) > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("\nNo recent releases: %s\n", strings.Join(m.result.MissingArtistIDs, ", "))))
	}

	return b.String()
}

// waitForProgress blocks for the next progress update or run completion.
func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return runCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return runCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}
