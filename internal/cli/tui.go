package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pengpongpang/deepbrain/pkg/engine"
	"github.com/pengpongpang/deepbrain/pkg/forest"
	"github.com/pengpongpang/deepbrain/pkg/mindmap"
)

// Outline styles
var (
	outlineSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	outlineNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	outlineDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	outlineBadgeStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	outlineStatusStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	outlineErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// Input modes for the outline editor.
const (
	modeNormal = iota
	modeAdd
	modeRename
)

// =============================================================================
// outlineModel - Interactive mindmap outline
// =============================================================================

// outlineModel is the bubbletea model for browsing and editing a mindmap
// document. All structural edits go through the engine so the outline
// can never enter an invalid state.
type outlineModel struct {
	eng  *engine.Engine
	doc  *mindmap.Document
	path string

	snap   *engine.Snapshot
	cursor int
	offset int
	height int

	mode  int
	input string

	dirty       bool
	confirmQuit bool
	status      string
	errMsg      string
}

// newOutlineModel creates an outline over a live engine.
func newOutlineModel(eng *engine.Engine, doc *mindmap.Document, path string) outlineModel {
	return outlineModel{
		eng:    eng,
		doc:    doc,
		path:   path,
		snap:   eng.Snapshot(),
		height: 15,
	}
}

func (m outlineModel) Init() tea.Cmd {
	return nil
}

func (m outlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m.updateInput(msg), nil
		}
		return m.updateNormal(msg)
	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

// updateNormal handles keys in browse mode.
func (m outlineModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "q" && key != "ctrl+c" {
		m.confirmQuit = false
	}
	m.status, m.errMsg = "", ""

	switch key {
	case "q", "ctrl+c", "esc":
		if m.dirty && !m.confirmQuit {
			m.confirmQuit = true
			m.status = "unsaved changes, press q again to discard"
			return m, nil
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}

	case "down", "j":
		if m.cursor < len(m.snap.Nodes)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}

	case " ", "enter":
		n, ok := m.current()
		if !ok || !n.HasChildren {
			break
		}
		snap, err := m.eng.ToggleCollapse(n.ID)
		if err != nil {
			m.errMsg = err.Error()
			break
		}
		m.applySnapshot(snap)

	case "a":
		if _, ok := m.current(); ok {
			m.mode = modeAdd
			m.input = ""
		}

	case "r":
		if n, ok := m.current(); ok {
			m.mode = modeRename
			m.input = n.Label
		}

	case "x":
		n, ok := m.current()
		if !ok {
			break
		}
		if n.IsRoot {
			m.errMsg = "cannot delete the root"
			break
		}
		m.applySnapshot(m.eng.DeleteNode(n.ID))
		m.status = fmt.Sprintf("deleted %q", n.Label)

	case "s":
		if err := m.save(); err != nil {
			m.errMsg = err.Error()
		} else {
			m.status = "saved " + m.path
		}
	}

	return m, nil
}

// updateInput handles keys while entering a label.
func (m outlineModel) updateInput(msg tea.KeyMsg) outlineModel {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.mode = modeNormal
		m.input = ""

	case "enter":
		return m.commitInput()

	case "backspace":
		if len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}

	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		case tea.KeySpace:
			m.input += " "
		}
	}
	return m
}

// commitInput applies the entered label in the current mode.
func (m outlineModel) commitInput() outlineModel {
	label := strings.TrimSpace(m.input)
	mode := m.mode
	m.mode = modeNormal
	m.input = ""

	if label == "" {
		return m
	}
	n, ok := m.current()
	if !ok {
		return m
	}

	switch mode {
	case modeAdd:
		child := forest.Node{ID: mindmap.NewNodeID(), Label: label}
		snap, err := m.eng.AddNode(child, n.ID)
		if err != nil {
			m.errMsg = err.Error()
			return m
		}
		m.applySnapshot(snap)
		m.cursorTo(child.ID)
		m.status = fmt.Sprintf("added %q", label)

	case modeRename:
		snap, err := m.eng.UpdateNode(n.ID, forest.Patch{Label: &label})
		if err != nil {
			m.errMsg = err.Error()
			return m
		}
		m.applySnapshot(snap)
		m.status = fmt.Sprintf("renamed to %q", label)
	}
	return m
}

// current returns the node under the cursor.
func (m *outlineModel) current() (forest.VisibleNode, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Nodes) {
		return forest.VisibleNode{}, false
	}
	return m.snap.Nodes[m.cursor], true
}

// applySnapshot installs a new snapshot, clamps the cursor, and marks
// the document dirty.
func (m *outlineModel) applySnapshot(snap *engine.Snapshot) {
	m.snap = snap
	m.dirty = true
	if m.cursor >= len(snap.Nodes) {
		m.cursor = len(snap.Nodes) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
}

// cursorTo moves the cursor to the row holding id, if visible.
func (m *outlineModel) cursorTo(id string) {
	for i, n := range m.snap.Nodes {
		if n.ID == id {
			m.cursor = i
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
			return
		}
	}
}

// save writes the engine state back to the document file.
func (m *outlineModel) save() error {
	m.doc.SetRaw(m.eng.Raw())
	if err := mindmap.WriteDocumentFile(m.doc, m.path); err != nil {
		return fmt.Errorf("save %s: %w", m.path, err)
	}
	m.dirty = false
	return nil
}

func (m outlineModel) View() string {
	var b strings.Builder

	title := m.doc.Title
	if m.dirty {
		title += " " + outlineBadgeStyle.Render("•")
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(outlineDimStyle.Render("↑/↓ navigate  ␣ collapse  a add  r rename  x delete  s save  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.snap.Nodes) {
		end = len(m.snap.Nodes)
	}

	for i := m.offset; i < end; i++ {
		n := m.snap.Nodes[i]

		marker := "· "
		switch {
		case n.Collapsed:
			marker = "▸ "
		case n.HasChildren:
			marker = "▾ "
		}

		line := strings.Repeat("  ", n.Level) + marker + n.Label
		if n.Collapsed {
			line += outlineDimStyle.Render(" …")
		}

		if i == m.cursor {
			b.WriteString(outlineSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + outlineNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch m.mode {
	case modeAdd:
		b.WriteString(outlineDimStyle.Render("new child: ") + m.input + "▌")
	case modeRename:
		b.WriteString(outlineDimStyle.Render("rename: ") + m.input + "▌")
	default:
		switch {
		case m.errMsg != "":
			b.WriteString(outlineErrorStyle.Render(iconError + " " + m.errMsg))
		case m.status != "":
			b.WriteString(outlineStatusStyle.Render(iconSuccess + " " + m.status))
		default:
			b.WriteString(outlineDimStyle.Render(fmt.Sprintf("[%d/%d]", m.cursor+1, len(m.snap.Nodes))))
		}
	}
	b.WriteString("\n")

	return b.String()
}
