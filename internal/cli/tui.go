package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/comfyscope/pkg/workflow"
)

// maxCellLen bounds the widget column so long prompts do not wrap the table.
const maxCellLen = 60

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "browse <image>",
		Short: "Browse the nodes of an embedded workflow interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], noCache)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, path string, noCache bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	image, err := readImage(path)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := runner.Execute(ctx, pipelineOptions(cfg, path, image))
	if err != nil {
		return err
	}

	model := NewNodeListModel(path, res.Extraction.Workflow, cfg.Classify.Options())
	_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// NodeListModel - Interactive node table
// =============================================================================

// NodeRow is one table row.
type NodeRow struct {
	ID       string
	Type     string
	Polarity workflow.Polarity
	Widget   string
}

// NodeListModel is the bubbletea model for browsing workflow nodes.
type NodeListModel struct {
	Title  string
	Rows   []NodeRow
	Cursor int
	Height int
	Offset int
}

// NewNodeListModel builds one row per node, in workflow order.
func NewNodeListModel(title string, wf *workflow.Workflow, opts workflow.ClassifyOptions) NodeListModel {
	polarities := workflow.Polarities(wf.Nodes, wf.Links, opts)
	rows := make([]NodeRow, len(wf.Nodes))
	for i, n := range wf.Nodes {
		id := "—"
		if n.HasID() {
			id = strconv.FormatInt(n.ID, 10)
		}
		typ := n.Type
		if typ == "" {
			typ = "(untyped)"
		}
		rows[i] = NodeRow{ID: id, Type: typ, Polarity: polarities[i], Widget: n.Widget(0)}
	}
	return NodeListModel{Title: title, Rows: rows, Height: 15}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  no nodes"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		pol := r.Polarity.String()
		if pol == "" {
			pol = "—"
		}
		rows = append(rows, []string{cursor, r.ID, r.Type, pol, truncateCell(r.Widget)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Type", "Polarity", "Widget").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}

			base := lipgloss.NewStyle()
			switch m.Rows[idx].Polarity {
			case workflow.PolarityPositive:
				base = base.Foreground(colorGreen)
			case workflow.PolarityNegative:
				base = base.Foreground(colorRed)
			default:
				base = base.Foreground(colorGray)
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

func truncateCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxCellLen {
		return string(r[:maxCellLen-1]) + "…"
	}
	return s
}
