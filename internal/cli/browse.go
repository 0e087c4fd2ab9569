package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/auri-app/auri/pkg/emotion"
	"github.com/auri-app/auri/pkg/pipeline"
	"github.com/auri-app/auri/pkg/render"
)

// Browser key steps.
const (
	zoomStep = 1.25
	panStep  = 20.0
)

// browseKeyMap holds the browser's bindings and feeds the help line.
type browseKeyMap struct {
	Up, Down key.Binding
	Select   key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	PanLeft  key.Binding
	PanRight key.Binding
	PanUp    key.Binding
	PanDown  key.Binding
	Reset    key.Binding
	Save     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var browseKeys = browseKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("⏎", "select")),
	ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	PanLeft:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
	PanRight: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
	PanUp:    key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "pan up")),
	PanDown:  key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "pan down")),
	Reset:    key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset view")),
	Save:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save svg")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.ZoomIn, k.ZoomOut, k.Save, k.Help, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.ZoomIn, k.ZoomOut, k.Reset},
		{k.PanLeft, k.PanRight, k.PanUp, k.PanDown},
		{k.Save, k.Help, k.Quit},
	}
}

// BrowseModel is the bubbletea model for exploring a bubble layout. It mirrors
// the interactive bubble view: bubbles can be focused and selected, and the
// canvas zoomed and panned.
type BrowseModel struct {
	Layout   render.Layout
	Viewport render.Viewport
	Cursor   int

	// Selected is the label chosen with enter, or "" for none.
	Selected string

	// Saved is set when the user quits with "w" to write the view.
	Saved bool

	help help.Model
}

// NewBrowseModel creates a browser over l with the identity viewport.
func NewBrowseModel(l render.Layout) BrowseModel {
	return BrowseModel{Layout: l, Viewport: render.Identity, help: help.New()}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := browseKeys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Save):
		m.Saved = true
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.Up):
		m.Cursor = max(m.Cursor-1, 0)
	case key.Matches(msg, k.Down):
		m.Cursor = max(min(m.Cursor+1, len(m.Layout.Bubbles)-1), 0)
	case key.Matches(msg, k.Select):
		if len(m.Layout.Bubbles) == 0 {
			break
		}
		label := m.Layout.Bubbles[m.Cursor].Label
		if m.Selected == label {
			m.Selected = ""
		} else {
			m.Selected = label
		}
	case key.Matches(msg, k.ZoomIn):
		m.Viewport = m.Viewport.Zoom(zoomStep)
	case key.Matches(msg, k.ZoomOut):
		m.Viewport = m.Viewport.Zoom(1 / zoomStep)
	case key.Matches(msg, k.PanLeft):
		m.Viewport = m.Viewport.Pan(-panStep, 0)
	case key.Matches(msg, k.PanRight):
		m.Viewport = m.Viewport.Pan(panStep, 0)
	case key.Matches(msg, k.PanUp):
		m.Viewport = m.Viewport.Pan(0, -panStep)
	case key.Matches(msg, k.PanDown):
		m.Viewport = m.Viewport.Pan(0, panStep)
	case key.Matches(msg, k.Reset):
		m.Viewport = render.Identity
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Emotion Bubbles"))
	b.WriteString("\n")
	b.WriteString(m.help.View(browseKeys))
	b.WriteString("\n\n")

	if len(m.Layout.Bubbles) == 0 {
		b.WriteString(StyleDim.Render("  No emotions to show"))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, len(m.Layout.Bubbles))
	for i, bb := range m.Layout.Bubbles {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		sx, sy := m.Viewport.Apply(bb.X, bb.Y, m.Layout.Width, m.Layout.Height)
		note := ""
		switch {
		case bb.Label == m.Selected:
			note = "selected"
		case bb.Overflow:
			note = "overlaps"
		}
		rows[i] = []string{
			cursor + swatch(bb.Color),
			bb.Label,
			fmt.Sprint(bb.Frequency),
			fmt.Sprintf("%.0f", bb.Size*m.Viewport.Scale),
			fmt.Sprintf("%.0f, %.0f", sx, sy),
			note,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("", "Emotion", "Count", "Size", "Position", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if row >= len(m.Layout.Bubbles) {
				return lipgloss.NewStyle()
			}
			bb := m.Layout.Bubbles[row]
			switch {
			case col == 1 && row == m.Cursor:
				return valenceStyle(bb.Label).Bold(true)
			case col == 1:
				return valenceStyle(bb.Label)
			case col == 5 && bb.Overflow && bb.Label != m.Selected:
				return StyleWarning
			case col == 5:
				return StyleSuccess
			case row == m.Cursor:
				return StyleValue
			default:
				return StyleDim
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s  %s  %s\n",
		StyleDim.Render(fmt.Sprintf("[%d/%d]", m.Cursor+1, len(m.Layout.Bubbles))),
		StyleDim.Render(fmt.Sprintf("zoom %.2fx", m.Viewport.Scale)),
		StyleDim.Render(fmt.Sprintf("pan %.0f, %.0f", m.Viewport.OffsetX, m.Viewport.OffsetY)))
	return b.String()
}

// browseCommand creates the browse command, an interactive bubble explorer.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		output string
		filter string
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "browse [layout.json]",
		Short: "Explore the bubble layout interactively",
		Long: `Explore the bubble layout interactively.

Without arguments the layout is computed from your journal; otherwise the
given layout.json is loaded. Select a bubble with enter, zoom with +/- and
pan with the arrow keys. Press w to save the current view as an SVG.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				l   render.Layout
				err error
			)
			if len(args) == 1 {
				l, err = loadLayout(args[0])
			} else {
				opts := c.layoutDefaults()
				flags.apply(cmd, &opts)
				if opts.Filter, err = emotion.ParseFilter(filter); err != nil {
					return err
				}
				l, err = c.journalLayout(ctx, opts)
			}
			if err != nil {
				return err
			}
			return c.runBrowse(ctx, l, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "bubbles.svg", "file written when saving with w")
	cmd.Flags().StringVar(&filter, "filter", "all", "emotions to include: all, positive, negative")
	flags.register(cmd)

	return cmd
}

func loadLayout(path string) (render.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return render.Layout{}, fmt.Errorf("read layout %s: %w", path, err)
	}
	return render.ParseLayout(data)
}

// journalLayout counts the journal's emotions and lays them out.
func (c *CLI) journalLayout(ctx context.Context, opts pipeline.Options) (render.Layout, error) {
	store, err := c.openStore(ctx)
	if err != nil {
		return render.Layout{}, fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return render.Layout{}, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	runner.Store = store

	counts, err := runner.Aggregate(ctx, opts)
	if err != nil {
		return render.Layout{}, err
	}
	return runner.ComputeLayout(ctx, counts, opts)
}

func (c *CLI) runBrowse(ctx context.Context, l render.Layout, output string) error {
	final, err := tea.NewProgram(NewBrowseModel(l), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	m, ok := final.(BrowseModel)
	if !ok || !m.Saved {
		return nil
	}

	svg := render.RenderSVG(m.Layout, render.WithViewport(m.Viewport), render.WithSelected(m.Selected))
	if err := writeOutput(output, svg); err != nil {
		return err
	}
	printSuccess("Saved view")
	printFile(output)
	return nil
}
