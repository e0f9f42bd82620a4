package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobsync/internal/model"
)

// Lines per item in either pane (title + subtitle + blank separator).
const itemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

const (
	paneJobs = 0
	paneRuns = 1
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	lowConfidenceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))
)

type browseModel struct {
	jobs          []model.VerifiedJob
	runs          []model.RunLog
	category      string
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	view           viewState
	detailJob      model.VerifiedJob
	detailViewport viewport.Model

	wantQuit bool
}

func newBrowseModel(jobs []model.VerifiedJob, runs []model.RunLog, category string) browseModel {
	return browseModel{jobs: jobs, runs: runs, category: category}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	if m.activePane == paneJobs {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(jobURL(m.detailJob))
		return m, nil
	case "s":
		if m.detailJob.SourceLink != "" {
			openURL(m.detailJob.SourceLink)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *browseModel) moveCursor(delta int) {
	if m.activePane == paneJobs {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.jobs)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.runs)-1, 0))
	}
}

func (m *browseModel) ensureCursorVisible() {
	vp := &m.leftViewport
	cursor := m.leftCursor
	if m.activePane == paneRuns {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	top := cursor * itemHeight
	bottom := top + itemHeight - 1

	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

// Only jobs have a detail view; runs are fully shown in their pane.
func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	if m.activePane != paneJobs || len(m.jobs) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailJob = m.jobs[m.leftCursor]
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *browseModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.leftViewport.SetContent(renderJobs(m.jobs, m.leftCursor, m.activePane == paneJobs))
	m.rightViewport.SetContent(renderRuns(m.runs, m.rightCursor, m.activePane == paneRuns))
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" %s Jobs (%d)", m.category, len(m.jobs))
	rightHeader := fmt.Sprintf(" Runs (%d)", len(m.runs))

	leftHeaderRendered := inactiveHeaderStyle.Render(leftHeader)
	rightHeaderRendered := inactiveHeaderStyle.Render(rightHeader)
	leftBorder := inactiveBorderStyle.Width(paneWidth)
	rightBorder := inactiveBorderStyle.Width(paneWidth)
	if m.activePane == paneJobs {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
	} else {
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Render(m.leftViewport.View()), " ", rightBorder.Render(m.rightViewport.View()))

	statusText := fmt.Sprintf(" %d jobs | %d runs | %d approved in last run    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.jobs), len(m.runs), lastApproved(m.runs))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusText := " o open official notice  s open source  esc/backspace back  ↑/↓ scroll  q quit"
	statusBar := statusBarStyle.Width(m.width).Render(statusText)
	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	j := m.detailJob
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	wrapWidth := max(m.width-24, 20)

	addField("Post", wordWrap(j.PostName, wrapWidth))
	addField("Organization", wordWrap(j.Organization, wrapWidth))
	addField("Category", j.Category)
	if j.Vacancies > 0 {
		addField("Vacancies", fmt.Sprintf("%d", j.Vacancies))
	}
	addField("Qualification", wordWrap(j.Qualification, wrapWidth))
	addField("Age Limit", j.AgeLimit)
	addField("Fee", wordWrap(j.Fee, wrapWidth))

	b.WriteByte('\n')
	addField("Start Date", j.StartDate)
	addField("Last Date", j.LastDate)
	addField("Exam Date", j.ExamDate)

	b.WriteByte('\n')
	addField("Confidence", fmt.Sprintf("%d%%", j.AIConfidence))
	addField("Source", j.Source)
	addField("Status", j.Status)
	if !j.CreatedAt.IsZero() {
		addField("Stored At", j.CreatedAt.Local().Format("2006-01-02 15:04 MST"))
	}
	addField("Content Hash", j.ContentHash)

	b.WriteByte('\n')
	addField("Official Link", j.OfficialLink)
	if j.SourceLink != j.OfficialLink {
		addField("Source Link", j.SourceLink)
	}

	return b.String()
}

func renderJobs(jobs []model.VerifiedJob, cursor int, isActive bool) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt, subtitleSt, prefix := itemStyles(isActive && i == cursor)

		title := j.PostName
		if title == "" {
			title = "(untitled)"
		}
		b.WriteString(prefix)
		b.WriteString(titleSt.Render(title))
		b.WriteByte('\n')

		lastDate := j.LastDate
		if lastDate == "" {
			lastDate = "n/a"
		}
		conf := fmt.Sprintf("%d%%", j.AIConfidence)
		if j.AIConfidence < 70 {
			conf = lowConfidenceStyle.Render(conf)
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · last %s · ", j.Organization, lastDate)))
		b.WriteString(conf)
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderRuns(runs []model.RunLog, cursor int, isActive bool) string {
	if len(runs) == 0 {
		return "  (no runs)"
	}

	var b strings.Builder
	for i, r := range runs {
		titleSt, subtitleSt, prefix := itemStyles(isActive && i == cursor)

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(r.Timestamp.Local().Format("2006-01-02 15:04:05")))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%d collected · %d processed · %d approved · %s",
			r.ItemsCollected, r.ItemsProcessed, r.ItemsApproved, formatSeconds(r.Duration))))
		b.WriteByte('\n')

		if i < len(runs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func itemStyles(selected bool) (lipgloss.Style, lipgloss.Style, string) {
	if selected {
		return selectedTitleStyle, selectedSubtitleStyle, "> "
	}
	return itemTitleStyle, itemSubtitleStyle, "  "
}

// lastApproved returns the approved count of the newest run, or 0.
func lastApproved(runs []model.RunLog) int {
	if len(runs) == 0 {
		return 0
	}
	return runs[0].ItemsApproved
}

func formatSeconds(s float64) string {
	return (time.Duration(s * float64(time.Second))).Round(100 * time.Millisecond).String()
}

// jobURL prefers the official notice and falls back to the source page.
func jobURL(j model.VerifiedJob) string {
	if j.OfficialLink != "" {
		return j.OfficialLink
	}
	return j.SourceLink
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
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

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunBrowseTUI launches the split-pane browser over stored jobs and runs.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the category picker.
func RunBrowseTUI(jobs []model.VerifiedJob, runs []model.RunLog, category string) (bool, error) {
	p := tea.NewProgram(newBrowseModel(jobs, runs, category), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(browseModel)
	return final.wantQuit, nil
}
