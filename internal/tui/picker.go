package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/slotted/internal/slots"
)

const pickerVisible = 15

// SlotPickerResult holds the slot the user selected manually.
type SlotPickerResult struct {
	Slot     *slots.Slot
	Canceled bool
}

type slotPickerModel struct {
	candidates []slots.Slot
	labels     []string
	scores     []int
	filtered   []int // indices into candidates
	cursor     int
	filter     textinput.Model
	degraded   bool
	done       bool
	canceled   bool
}

// SlotPickerApp is the manual-selection fallback: an interactive, filterable
// list of candidate slots shown when command resolution finds no match.
type SlotPickerApp struct {
	picker slotPickerModel
	result *SlotPickerResult
}

func NewSlotPickerApp(candidates []slots.Slot, summary string, degraded bool) *SlotPickerApp {
	return &SlotPickerApp{
		picker: newSlotPicker(candidates, summary, degraded),
	}
}

func (a *SlotPickerApp) Init() tea.Cmd {
	return a.picker.Init()
}

func (a *SlotPickerApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := a.picker.Update(msg)
	a.picker = m.(slotPickerModel)

	if a.picker.done || a.picker.canceled {
		a.result = a.picker.Result()
		return a, tea.Quit
	}

	return a, cmd
}

func (a *SlotPickerApp) View() string {
	return a.picker.View()
}

func (a *SlotPickerApp) GetResult() *SlotPickerResult {
	return a.result
}

func newSlotPicker(candidates []slots.Slot, summary string, degraded bool) slotPickerModel {
	ti := textinput.New()
	ti.Placeholder = "Filter slots (e.g. friday, apr 11, 15:00)..."
	ti.Focus()

	labels := make([]string, len(candidates))
	scores := make([]int, len(candidates))
	filtered := make([]int, len(candidates))
	for i, s := range candidates {
		labels[i] = s.Start.UTC().Format("Mon Jan 2 15:04")
		scores[i] = slots.Score(s, summary)
		filtered[i] = i
	}

	return slotPickerModel{
		candidates: candidates,
		labels:     labels,
		scores:     scores,
		filtered:   filtered,
		filter:     ti,
		degraded:   degraded,
	}
}

func (m slotPickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m slotPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			return m, nil
		case "enter":
			if len(m.filtered) > 0 {
				m.done = true
			}
			return m, nil
		case "up", "ctrl+k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	prevFilter := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)

	// Re-filter on text change
	if m.filter.Value() != prevFilter {
		m.applyFilter()
	}

	return m, cmd
}

func (m *slotPickerModel) applyFilter() {
	query := strings.ToLower(m.filter.Value())
	m.filtered = m.filtered[:0]
	for i, label := range m.labels {
		if query == "" || strings.Contains(strings.ToLower(label), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m slotPickerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Pick a slot"))
	b.WriteString("\n")
	if m.degraded {
		b.WriteString(warningStyle.Render("Calendar unavailable, showing slots from stand-in busy data."))
		b.WriteString("\n")
	}
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.candidates) == 0 {
		b.WriteString(subtitleStyle.Render("No open slots in the search window."))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("Esc: cancel"))
		return b.String()
	}

	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("  No slots match filter"))
		b.WriteString("\n")
	} else {
		start := 0
		if m.cursor >= pickerVisible {
			start = m.cursor - pickerVisible + 1
		}
		end := min(start+pickerVisible, len(m.filtered))

		for vi := start; vi < end; vi++ {
			idx := m.filtered[vi]
			line := fmt.Sprintf("%s  %s",
				m.labels[idx],
				dimStyle.Render(fmt.Sprintf("(score %d)", m.scores[idx])),
			)
			if vi == m.cursor {
				b.WriteString(selectedStyle.Render("> ") + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}

		if end < len(m.filtered) {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(m.filtered)-end)))
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render("\n↑/↓: move, Enter: select, Esc: cancel"))
	return b.String()
}

func (m slotPickerModel) Result() *SlotPickerResult {
	if m.canceled || len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return &SlotPickerResult{Canceled: true}
	}
	slot := m.candidates[m.filtered[m.cursor]]
	return &SlotPickerResult{Slot: &slot}
}
