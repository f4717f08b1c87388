package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TargetListView ViewState = iota
	ConfirmView
	SyncView
	ResultView
)

type targetsFetchedMsg struct {
	targets []models.PlaylistRef
}

type progressUpdateMsg tasks.ProgressUpdate

type syncCompleteMsg struct {
	result *tasks.SyncRunResult
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	target       services.TargetService
	engine       tasks.SyncEngine
	marker       string
	width        int
	height       int
	targetList   list.Model
	targets      []models.PlaylistRef
	dryRun       bool
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.SyncRunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, target services.TargetService, engine tasks.SyncEngine, marker string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title

	return &Model{
		ctx:     ctx,
		view:    TargetListView,
		target:  target,
		engine:  engine,
		marker:  marker,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by listing the flagged sync targets.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchTargets(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.targetList.Width() == 0 {
			m.targetList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TargetListView:
			return m.handleTargetListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case targetsFetchedMsg:
		m.targets = msg.targets
		items := make([]list.Item, len(msg.targets))
		for i, pl := range msg.targets {
			items[i] = targetItem{playlist: pl, marker: m.marker}
		}
		m.targetList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.targetList.Title = "Apple Music Sync Targets"
		m.targetList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TargetListView:
		return m.renderTargetList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleTargetListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if len(m.targets) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.targetList, cmd = m.targetList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = TargetListView
		return m, nil
	case "d":
		m.dryRun = !m.dryRun
		return m, nil
	case "y":
		m.view = SyncView
		return m, tea.Batch(m.startSync(), m.spinner.Tick)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = TargetListView
		m.result = nil
		m.err = nil
		return m, m.fetchTargets()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == TargetListView {
		m.targetList, cmd = m.targetList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchTargets() tea.Cmd {
	return func() tea.Msg {
		return targetsFetchedMsg{targets: m.target.SyncTargets(m.ctx)}
	}
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.Run(m.ctx, m.progressChan, tasks.SyncRunOpts{DryRun: m.dryRun})
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			m.progressChan = nil
			return syncCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderTargetList() string {
	if len(m.targets) == 0 {
		title := styles.title.Render("Apple Music Sync Targets")
		empty := styles.warn.Render(fmt.Sprintf("No playlists carry the %q marker.", m.marker))
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
		return fmt.Sprintf("%s\n%s\n\n%s", title, empty, helpView)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.targetList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync %d playlists from Spotify?", len(m.targets)))

	mode := "append resolved tracks"
	if m.dryRun {
		mode = styles.warn.Render("dry run (resolve only, append nothing)")
	}
	info := fmt.Sprintf("\nMode: %s\n", mode)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.dry, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing Playlists")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchTargets:
		phase = "Listing sync targets..."
	case tasks.IndexSource:
		phase = "Indexing Spotify playlists..."
	case tasks.FetchTracks:
		phase = fmt.Sprintf("Fetching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ResolveTracks:
		phase = fmt.Sprintf("Resolving tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.AppendTracks:
		phase = fmt.Sprintf("Appending tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.PlaylistDone:
		phase = fmt.Sprintf("Finished playlist %d/%d", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s", title, m.spinner.View(), phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete")
	if m.result.DryRun {
		title = styles.ok.Render("✓ Dry Run Complete")
	}

	info := fmt.Sprintf(
		"\nPlaylists: %d synced, %d skipped\nTracks: %d resolved, %d appended",
		m.result.Matched,
		m.result.Skipped,
		m.result.TotalResolved,
		m.result.TotalAppended,
	)

	var unresolved string
	if m.result.TotalUnresolved > 0 {
		unresolved = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d tracks had no catalog match:", m.result.TotalUnresolved)))
		for _, pr := range m.result.Playlists {
			for _, track := range pr.UnresolvedTracks {
				unresolved += fmt.Sprintf("\n  • %s (%s)", track.ISRC, track.Meta.Album)
			}
		}
	}

	var failures string
	for _, pr := range m.result.Playlists {
		if pr.Err != nil {
			failures += fmt.Sprintf("\n%s", styles.err.Render(fmt.Sprintf("%s: %v", pr.Target.Name, pr.Err)))
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s%s%s\n\n%s", title, info, unresolved, failures, helpView)
}
