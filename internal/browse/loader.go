package browse

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobsync/internal/model"
)

// Data is what the browser shows: recent jobs and recent runs.
type Data struct {
	Jobs []model.VerifiedJob
	Runs []model.RunLog
}

// Load reads the most recent limit jobs and runs from lister.
func Load(ctx context.Context, lister model.JobLister, limit int) (Data, error) {
	jobs, err := lister.RecentJobs(ctx, limit)
	if err != nil {
		return Data{}, fmt.Errorf("loading jobs: %w", err)
	}
	runs, err := lister.RecentRuns(ctx, limit)
	if err != nil {
		return Data{}, fmt.Errorf("loading runs: %w", err)
	}
	return Data{Jobs: jobs, Runs: runs}, nil
}

type loadDoneMsg struct {
	data Data
	err  error
}

type loaderModel struct {
	label   string
	loadFn  func(ctx context.Context) (Data, error)
	spinner spinner.Model
	result  Data
	err     error
	done    bool
}

func newLoaderModel(label string, loadFn func(ctx context.Context) (Data, error)) loaderModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	return loaderModel{label: label, loadFn: loadFn, spinner: s}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doLoad(), m.spinner.Tick)
}

func (m loaderModel) doLoad() tea.Cmd {
	loadFn := m.loadFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		data, err := loadFn(ctx)
		return loadDoneMsg{data: data, err: err}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg:
		m.result = msg.data
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Loading %s...\n", m.spinner.View(), m.label)
}

// RunLoader shows a spinner while loading. It renders inline (no alt screen).
func RunLoader(label string, loadFn func(ctx context.Context) (Data, error)) (Data, error) {
	p := tea.NewProgram(newLoaderModel(label, loadFn))
	result, err := p.Run()
	if err != nil {
		return Data{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
