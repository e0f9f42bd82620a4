package browse

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobsync/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// AllCategories is the picker entry that shows every job.
const AllCategories = "All"

// CategoryCount is one picker entry.
type CategoryCount struct {
	Category string
	Count    int
}

// CountCategories returns AllCategories first, then each category present in
// jobs ordered by descending count and then name.
func CountCategories(jobs []model.VerifiedJob) []CategoryCount {
	counts := make(map[string]int)
	for _, j := range jobs {
		counts[j.Category]++
	}
	out := make([]CategoryCount, 0, len(counts)+1)
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return append([]CategoryCount{{Category: AllCategories, Count: len(jobs)}}, out...)
}

// FilterByCategory returns the jobs in category; AllCategories returns jobs.
func FilterByCategory(jobs []model.VerifiedJob, category string) []model.VerifiedJob {
	if category == AllCategories {
		return jobs
	}
	var out []model.VerifiedJob
	for _, j := range jobs {
		if j.Category == category {
			out = append(out, j)
		}
	}
	return out
}

type pickerModel struct {
	categories []CategoryCount
	cursor     int
	chosen     int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.categories)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Stored jobs: select a category")
	s += "\n"

	for i, c := range m.categories {
		label := fmt.Sprintf("%s (%d)", c.Category, c.Count)
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunCategoryPicker shows an interactive category selector.
// Returns the index of the chosen entry, or a negative value if the user quit.
func RunCategoryPicker(categories []CategoryCount) (int, error) {
	m := pickerModel{
		categories: categories,
		chosen:     -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	return final.chosen, nil
}
