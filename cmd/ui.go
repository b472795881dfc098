package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fabagent/cli/pkg/powerbi"
)

// ----- Styles -----
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginLeft(1)
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	agentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginLeft(2)
)

var errAborted = fmt.Errorf("aborted")

// ----- Credential form -----

// fieldSpec describes one input of the credential form. value is read for
// the pre-filled state and written back when the form completes.
type fieldSpec struct {
	label    string
	value    *string
	secret   bool
	optional bool
}

type formModel struct {
	title   string
	fields  []fieldSpec
	inputs  []textinput.Model
	focus   int
	done    bool
	aborted bool
}

func newFormModel(title string, fields []fieldSpec) formModel {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 200
		ti.SetValue(*f.value)
		if f.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		if i == 0 {
			ti.Focus()
		}
		inputs[i] = ti
	}
	return formModel{title: title, fields: fields, inputs: inputs}
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			value := strings.TrimSpace(m.inputs[m.focus].Value())
			if value == "" && !m.fields[m.focus].optional {
				return m, nil
			}
			if m.focus == len(m.inputs)-1 {
				m.done = true
				return m, tea.Quit
			}
			return m.moveFocus(m.focus + 1)
		case "tab", "down":
			return m.moveFocus((m.focus + 1) % len(m.inputs))
		case "shift+tab", "up":
			return m.moveFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m formModel) moveFocus(to int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = to
	return m, m.inputs[m.focus].Focus()
}

func (m formModel) View() string {
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render(m.title) + "\n\n")
	for i, f := range m.fields {
		label := fmt.Sprintf("  %-15s: ", f.label)
		b.WriteString(label + m.inputs[i].View() + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("enter to confirm each field, esc to cancel") + "\n")
	return b.String()
}

// promptFields runs the credential form for every spec whose value is still
// empty. Pre-filled specs are skipped entirely.
func promptFields(title string, specs []fieldSpec) error {
	var open []fieldSpec
	for _, s := range specs {
		if strings.TrimSpace(*s.value) == "" {
			open = append(open, s)
		}
	}
	if len(open) == 0 {
		return nil
	}

	final, err := tea.NewProgram(newFormModel(title, open)).Run()
	if err != nil {
		return fmt.Errorf("running credential form: %w", err)
	}
	m, ok := final.(formModel)
	if !ok || m.aborted || !m.done {
		return errAborted
	}
	for i, f := range m.fields {
		*f.value = strings.TrimSpace(m.inputs[i].Value())
	}
	return nil
}

// ----- Dataset picker -----

type datasetItem struct {
	dataset powerbi.Dataset
}

func (i datasetItem) Title() string       { return i.dataset.Name }
func (i datasetItem) Description() string { return i.dataset.Id }
func (i datasetItem) FilterValue() string { return i.dataset.Name }

type pickerModel struct {
	list    list.Model
	choice  *powerbi.Dataset
	aborted bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			if i, ok := m.list.SelectedItem().(datasetItem); ok {
				m.choice = &i.dataset
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		h, v := lipgloss.NewStyle().Margin(1, 2).GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return "\n" + m.list.View()
}

// selectDataset lets the user pick one semantic model from the workspace.
func selectDataset(datasets []powerbi.Dataset) (*powerbi.Dataset, error) {
	items := make([]list.Item, len(datasets))
	for i, ds := range datasets {
		items[i] = datasetItem{ds}
	}
	lst := list.New(items, list.NewDefaultDelegate(), 0, 0)
	lst.Title = "Select Semantic Model"
	lst.SetShowStatusBar(false)

	final, err := tea.NewProgram(pickerModel{list: lst}, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("running dataset picker: %w", err)
	}
	m, ok := final.(pickerModel)
	if !ok || m.aborted || m.choice == nil {
		return nil, errAborted
	}
	return m.choice, nil
}
