package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depmap/pkg/analyzer"
	"github.com/matzehuels/depmap/pkg/depgraph"
)

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listCursorStyle = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
)

// browseRow is one package in the browse table.
type browseRow struct {
	Name  string
	Repo  string
	Rdeps int
	Deps  int
}

// BrowseModel is the bubbletea model of depmap browse: a scrollable table
// of packages ranked by dependents, with a detail view on enter.
type BrowseModel struct {
	Rows   []browseRow
	Cursor int
	Offset int
	Height int

	// Detail is the analysis shown for the selected row, nil in the list.
	Detail *analyzer.PackageAnalysis

	analyze func(name string) (analyzer.PackageAnalysis, bool)
}

// NewBrowseModel lists the top n packages of g by recursive dependents.
func NewBrowseModel(g *depgraph.Graph, an *analyzer.Analyzer, n int) BrowseModel {
	deps := g.RecursiveCounts(false)
	var rows []browseRow
	for _, r := range g.MostDepended(n) {
		rec, _ := g.Package(r.Name)
		rows = append(rows, browseRow{Name: r.Name, Repo: rec.Repo, Rdeps: r.Count, Deps: deps[r.Name]})
	}
	return BrowseModel{Rows: rows, Height: 15, analyze: an.AnalyzePackage}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Detail != nil {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "esc", "enter", "backspace":
				m.Detail = nil
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Rows) == 0 || m.analyze == nil {
				return m, nil
			}
			if pa, ok := m.analyze(m.Rows[m.Cursor].Name); ok {
				m.Detail = &pa
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-7, 5)
	}
	return m, nil
}

func (m BrowseModel) View() string {
	if m.Detail != nil {
		return m.detailView()
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Most depended packages"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("", "Package", "Repo", "Dependents", "Dependencies").
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if m.Offset+row == m.Cursor {
				return listCursorStyle.Padding(0, 1)
			}
			if col == 2 {
				return base.Foreground(colorDim)
			}
			return base
		})
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := " "
		if i == m.Cursor {
			cursor = "▸"
		}
		t.Row(cursor, r.Name, r.Repo, strconv.Itoa(r.Rdeps), strconv.Itoa(r.Deps))
	}

	b.WriteString(t.Render())
	b.WriteString("\n")
	if len(m.Rows) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))
	}
	return b.String()
}

func (m BrowseModel) detailView() string {
	d := m.Detail
	key := lipgloss.NewStyle().Foreground(colorGray).Width(16)
	line := func(k string, v any) string {
		return key.Render(k) + " " + StyleValue.Render(fmt.Sprint(v)) + "\n"
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(d.Name+" "+d.Version) + "\n\n")
	b.WriteString(line("Repository", d.Repo))
	b.WriteString(line("Direct deps", d.DirectDeps))
	b.WriteString(line("Total deps", d.TotalDeps))
	b.WriteString(line("Direct rdeps", d.DirectRdeps))
	b.WriteString(line("Total rdeps", d.TotalRdeps))
	b.WriteString(line("Depth", d.Depth))
	b.WriteString(line("Core", d.IsCore))
	b.WriteString("\n" + listDimStyle.Render("esc back  q quit"))
	return b.String()
}

func (c *CLI) browseCommand() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the most depended packages interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			m := NewBrowseModel(g, analyzer.New(g, c.Config.Analysis.Options()), top)
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 200, "number of packages to list")
	return cmd
}
