// Package review implements the interactive rewrite session used by the
// run and scan commands. It walks pending rewrites one at a time, shows
// each as a diff with surrounding context, and collects the accepted ones
// so the caller can apply them once the session ends.
package review

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Xuanwo/ast-grep/pkg/printer"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// contextLines is how many unchanged lines are shown on each side of a
// rewrite.
const contextLines = 3

// Item is one pending rewrite. Items are presented in the order the
// caller supplies them.
type Item struct {
	File string
	Diff printer.Diff
}

// Model is the bubbletea model for a review session.
type Model struct {
	items    []Item
	cursor   int
	accepted []bool
	aborted  bool

	width  int
	height int
}

// New builds a review session over the given rewrites.
func New(items []Item) Model {
	return Model{
		items:    items,
		accepted: make([]bool, len(items)),
	}
}

// Run drives a review session on the terminal and returns the final
// model. Check Aborted before applying the accepted rewrites.
func Run(items []Item) (Model, error) {
	p := tea.NewProgram(New(items), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Model{}, fmt.Errorf("failed to run review session: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return Model{}, fmt.Errorf("unexpected final model type %T", final)
	}
	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("ast-grep review")
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, defaultKeys.ForceQuit):
			m.aborted = true
			return m, tea.Quit

		case key.Matches(msg, defaultKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, defaultKeys.Accept):
			if m.cursor < len(m.items) {
				m.accepted[m.cursor] = true
			}
			return m.advance()

		case key.Matches(msg, defaultKeys.Skip):
			return m.advance()

		case key.Matches(msg, defaultKeys.AcceptAll):
			for i := m.cursor; i < len(m.items); i++ {
				m.accepted[i] = true
			}
			m.cursor = len(m.items)
			return m, tea.Quit
		}
	}

	return m, nil
}

// advance moves to the next rewrite and quits after the last one.
func (m Model) advance() (tea.Model, tea.Cmd) {
	m.cursor++
	if m.cursor >= len(m.items) {
		return m, tea.Quit
	}
	return m, nil
}

// Aborted reports whether the session ended with a force quit. All
// rewrites are discarded when it returns true.
func (m Model) Aborted() bool {
	return m.aborted
}

// Accepted returns the accepted rewrites grouped by file. Within each
// file the presentation order is preserved.
func (m Model) Accepted() map[string][]printer.Diff {
	out := make(map[string][]printer.Diff)
	for i, item := range m.items {
		if m.accepted[i] {
			out[item.File] = append(out[item.File], item.Diff)
		}
	}
	return out
}

// View implements tea.Model.
func (m Model) View() string {
	if m.cursor >= len(m.items) {
		return statusBarStyle.Render(" nothing left to review")
	}

	item := m.items[m.cursor]
	start := item.Diff.NodeMatch.Range().Start
	header := fmt.Sprintf("%s %s",
		titleStyle.Render(fmt.Sprintf(" rewrite %d/%d ", m.cursor+1, len(m.items))),
		locationStyle.Render(fmt.Sprintf("%s:%d:%d", item.File, start.Line+1, start.Column+1)))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		diffView(item.Diff),
		"",
		m.statusView())
}

// diffView renders a rewrite as full deleted and inserted lines with
// context on both sides.
func diffView(d printer.Diff) string {
	source := d.NodeMatch.Doc().Content()
	span := d.NodeMatch.Span()
	lineStart, lineEnd := lineBounds(source, span)

	var b strings.Builder
	for _, line := range tailLines(linesBefore(source, lineStart), contextLines) {
		b.WriteString(contextLineStyle.Render("  " + line))
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(string(source[lineStart:lineEnd]), "\n") {
		b.WriteString(deletedLineStyle.Render("- " + line))
		b.WriteByte('\n')
	}
	for _, line := range replacedLines(source, span, lineStart, lineEnd, d.Replacement) {
		b.WriteString(insertedLineStyle.Render("+ " + line))
		b.WriteByte('\n')
	}
	for _, line := range headLines(linesAfter(source, lineEnd), contextLines) {
		b.WriteString(contextLineStyle.Render("  " + line))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) statusView() string {
	accepted := 0
	for _, a := range m.accepted {
		if a {
			accepted++
		}
	}
	left := statusBarStyle.Render(fmt.Sprintf(" %d accepted | %d skipped", accepted, m.cursor-accepted))
	help := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		helpKeyStyle.Render("a"), helpDescStyle.Render("accept"),
		helpKeyStyle.Render("s"), helpDescStyle.Render("skip"),
		helpKeyStyle.Render("A"), helpDescStyle.Render("accept rest"),
		helpKeyStyle.Render("q"), helpDescStyle.Render("quit"))
	return left + "   " + help
}

// lineBounds widens a byte span to the start of its first line and the
// end of its last line, newline excluded.
func lineBounds(source []byte, span types.ByteSpan) (int, int) {
	start := bytes.LastIndexByte(source[:span.Start], '\n') + 1
	end := len(source)
	if i := bytes.IndexByte(source[span.End:], '\n'); i >= 0 {
		end = span.End + i
	}
	return start, end
}

// replacedLines renders the lines the rewrite produces: the surrounding
// text of the affected lines with the replacement spliced in. A rewrite
// that deletes its lines outright yields no inserted lines.
func replacedLines(source []byte, span types.ByteSpan, lineStart, lineEnd int, replacement string) []string {
	var b strings.Builder
	b.Write(source[lineStart:span.Start])
	b.WriteString(replacement)
	b.Write(source[span.End:lineEnd])
	if b.Len() == 0 {
		return nil
	}
	return strings.Split(b.String(), "\n")
}

func linesBefore(source []byte, start int) []string {
	if start == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(source[:start]), "\n"), "\n")
}

func linesAfter(source []byte, end int) []string {
	if end >= len(source) {
		return nil
	}
	s := strings.TrimPrefix(string(source[end:]), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func headLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func tailLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}
