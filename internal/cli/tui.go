package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/comictools/pkg/document"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LayerListModel - Interactive layer selection
// =============================================================================

// layerRow is one entry of the layer list.
type layerRow struct {
	layer *document.Layer
	depth int
}

// LayerListModel is the bubbletea model for interactive layer selection.
// Every layer is listed in stacking order; only pixel layers can be chosen.
type LayerListModel struct {
	rows     []layerRow
	Cursor   int
	Selected *document.Layer
	Height   int
	Offset   int
}

// NewLayerListModel creates a layer list for doc with the cursor on the
// first pixel layer.
func NewLayerListModel(doc *document.Document) LayerListModel {
	var rows []layerRow
	doc.Walk(func(l *document.Layer, depth int) bool {
		rows = append(rows, layerRow{layer: l, depth: depth})
		return true
	})

	m := LayerListModel{rows: rows, Height: 15}
	for i, r := range rows {
		if selectable(r.layer) {
			m.Cursor = i
			break
		}
	}
	return m
}

// HasSelectable reports whether any listed layer can be chosen.
func (m LayerListModel) HasSelectable() bool {
	for _, r := range m.rows {
		if selectable(r.layer) {
			return true
		}
	}
	return false
}

func selectable(l *document.Layer) bool {
	return l.Kind == document.KindPixel
}

func (m LayerListModel) Init() tea.Cmd {
	return nil
}

func (m LayerListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
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
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.rows) == 0 {
				return m, nil
			}
			l := m.rows[m.Cursor].layer
			if !selectable(l) {
				return m, nil
			}
			m.Selected = l
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m LayerListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Input Layer"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		l := r.layer

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		visible := "✓"
		if !l.Visible {
			visible = ""
		}

		size := "—"
		if !l.IsGroup() {
			size = fmt.Sprintf("%d×%d", l.Width, l.Height)
		}

		name := strings.Repeat("  ", r.depth) + l.Name
		rows = append(rows, []string{cursor, name, l.Kind.String(), size, visible})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Layer", "Kind", "Size", "Visible").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			idx := m.Offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			ok := selectable(m.rows[idx].layer)
			base := lipgloss.NewStyle()
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			if ok {
				return base.Foreground(colorGreen)
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows))))

	return b.String()
}
