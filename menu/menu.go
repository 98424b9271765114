// Package menu is the interactive configuration menu entered from the
// boot-time key combo. It edits the persisted config in place; the
// supervisor saves and re-applies it when the menu exits.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gridfighter/config"
)

// Menu runs the configuration TUI.
type Menu struct{}

// Run blocks until the user exits the menu.
func (Menu) Run(cfg *config.Config) error {
	p := tea.NewProgram(newModel(cfg))
	_, err := p.Run()
	return err
}

type field int

const (
	fieldChannel field = iota
	fieldDeviceMode
	fieldBanking
	fieldBaseNote
	fieldVelocity
	fieldKeypressLights
	fieldCombos
	fieldRotate
	fieldInvert1
	fieldInvert2
	fieldInvert3
	fieldInvert4
	fieldCount
)

var fieldNames = [fieldCount]string{
	"MIDI channel",
	"Device mode",
	"Banking",
	"Base note",
	"Velocity",
	"Keypress lights",
	"Combos",
	"Rotated mount",
	"Invert slider 1",
	"Invert slider 2",
	"Invert slider 3",
	"Invert slider 4",
}

type model struct {
	cfg      *config.Config
	cursor   field
	quitting bool
}

func newModel(cfg *config.Config) model {
	return model{cfg: cfg}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "enter", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < fieldCount-1 {
				m.cursor++
			}
		case "left", "h":
			m.adjust(-1)
		case "right", "l", " ":
			m.adjust(1)
		}
	}
	return m, nil
}

func (m *model) adjust(delta int) {
	c := m.cfg
	switch m.cursor {
	case fieldChannel:
		c.Channel = uint8(int(c.Channel)+delta+16) % 16
	case fieldDeviceMode:
		c.DeviceMode = cycleMode(c.DeviceMode, delta)
	case fieldBanking:
		c.Banking = cycleBanking(c.Banking, delta)
	case fieldBaseNote:
		c.BaseNote = clamp7(int(c.BaseNote) + delta)
	case fieldVelocity:
		c.Velocity = clamp7(int(c.Velocity) + delta)
	case fieldKeypressLights:
		c.KeypressLights = !c.KeypressLights
	case fieldCombos:
		c.Combos = !c.Combos
	case fieldRotate:
		c.Rotate = !c.Rotate
	default:
		i := int(m.cursor - fieldInvert1)
		c.InvertSliders[i] = !c.InvertSliders[i]
	}
}

func cycleMode(m config.DeviceMode, delta int) config.DeviceMode {
	order := []config.DeviceMode{config.ModeDefault, config.ModeTraktor, config.ModeAbleton}
	return order[(indexOf(order, m)+delta+len(order))%len(order)]
}

func cycleBanking(b config.Banking, delta int) config.Banking {
	order := []config.Banking{config.BankingOff, config.BankingInternal, config.BankingExternal}
	return order[(indexOf(order, b)+delta+len(order))%len(order)]
}

func indexOf[T comparable](order []T, v T) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return 0
}

func clamp7(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

func (m model) value(f field) string {
	c := m.cfg
	switch f {
	case fieldChannel:
		return fmt.Sprintf("%d", c.Channel+1)
	case fieldDeviceMode:
		return string(c.DeviceMode)
	case fieldBanking:
		return string(c.Banking)
	case fieldBaseNote:
		return fmt.Sprintf("%d", c.BaseNote)
	case fieldVelocity:
		return fmt.Sprintf("%d", c.Velocity)
	case fieldKeypressLights:
		return onOff(c.KeypressLights)
	case fieldCombos:
		return onOff(c.Combos)
	case fieldRotate:
		return onOff(c.Rotate)
	default:
		return onOff(c.InvertSliders[f-fieldInvert1])
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render("gridfighter setup"))
	out.WriteString("\n\n")

	for f := field(0); f < fieldCount; f++ {
		line := fmt.Sprintf("  %-16s %s", fieldNames[f], m.value(f))
		if f == m.cursor {
			line = selectedStyle.Render(line)
		}
		out.WriteString(line)
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("jk:move  hl:change  enter:save and exit"))
	out.WriteString("\n")
	return out.String()
}
