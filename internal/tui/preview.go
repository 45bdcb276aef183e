// internal/tui/preview.go
//
// Preview is a read-only pager over the rendered roadmap. It follows The Elm
// Architecture like every bubbletea program:
//
// 1. Model: the viewport plus the Markdown it shows
// 2. Update: resize and key messages
// 3. View: header, viewport, footer

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 1
	footerHeight = 1
	maxWrap      = 100
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

// RenderMarkdown styles markdown for a terminal of the given width. An empty
// style picks one from the terminal background.
func RenderMarkdown(markdown string, width int, style string) (string, error) {
	if width <= 0 || width > maxWrap {
		width = maxWrap
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("tui: create markdown renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("tui: render markdown: %w", err)
	}
	return out, nil
}

// PreviewOption customizes a Preview.
type PreviewOption func(*Preview)

// WithStyle fixes the glamour style instead of detecting it.
func WithStyle(style string) PreviewOption {
	return func(p *Preview) {
		p.style = style
	}
}

// Preview shows rendered Markdown in a scrollable viewport.
type Preview struct {
	title    string
	markdown string
	style    string
	viewport viewport.Model
	ready    bool
	err      error
}

// NewPreview builds a pager for markdown.
func NewPreview(title, markdown string, opts ...PreviewOption) Preview {
	p := Preview{title: title, markdown: markdown}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Init implements tea.Model.
func (p Preview) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Preview) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		}
	case tea.WindowSizeMsg:
		height := max(msg.Height-headerHeight-footerHeight, 1)
		if !p.ready {
			p.viewport = viewport.New(msg.Width, height)
			p.ready = true
		} else {
			p.viewport.Width = msg.Width
			p.viewport.Height = height
		}
		content, err := RenderMarkdown(p.markdown, msg.Width-2, p.style)
		if err != nil {
			p.err = err
			content = p.markdown
		}
		p.viewport.SetContent(content)
		return p, nil
	}
	if !p.ready {
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// View implements tea.Model.
func (p Preview) View() string {
	if !p.ready {
		return "loading..."
	}
	header := titleStyle.Render(p.title) + helpStyle.Render(fmt.Sprintf("  %3.f%%", p.viewport.ScrollPercent()*100))
	footer := helpStyle.Render("↑/↓ pgup/pgdn scroll • q quit")
	if p.err != nil {
		footer = errStyle.Render(p.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, p.viewport.View(), footer)
}

// Err returns the last rendering error, if any.
func (p Preview) Err() error {
	return p.err
}
