package dukptcmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
)

const (
	fieldTypeRadio = iota
	fieldTypeHex
)

type option struct {
	value       string
	description string
}

type fieldConfig struct {
	name        string
	description string
	fieldType   int
	options     []option // For radio fields.
	selected    int      // For radio fields.
	hexValue    string   // For hex fields.
	hexDigits   int      // For hex fields.
	masked      bool     // For hex fields.
}

type deriveModel struct {
	currentField int
	fields       []fieldConfig
	key          []byte
	err          error
	done         bool
	cancelled    bool
}

// newDeriveModel creates the TUI model used to derive a key interactively.
func newDeriveModel() deriveModel {
	usageOptions := make([]option, 0, len(dukpt.KeyUsages()))
	for _, u := range dukpt.KeyUsages() {
		usageOptions = append(usageOptions, option{u.String(), u.Description()})
	}

	return deriveModel{
		fields: []fieldConfig{
			{
				name:        "BDK",
				description: "Base Derivation Key",
				fieldType:   fieldTypeHex,
				hexDigits:   32,
				masked:      true,
			},
			{
				name:        "KSN",
				description: "Key Serial Number",
				fieldType:   fieldTypeHex,
				hexDigits:   20,
			},
			{
				name:        "Usage",
				description: "Key Usage",
				fieldType:   fieldTypeRadio,
				options:     usageOptions,
			},
		},
	}
}

// Init initializes the model.
func (m deriveModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (m deriveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	current := &m.fields[m.currentField]

	switch keyMsg.String() {
	case "ctrl+c", "q":
		m.cancelled = true

		return m, tea.Quit
	case "enter":
		if current.fieldType == fieldTypeHex && len(current.hexValue) != current.hexDigits {
			return m, nil
		}
		if m.currentField >= len(m.fields)-1 {
			m.derive()
			m.done = true

			return m, tea.Quit
		}
		m.currentField++
	case "tab":
		if m.currentField < len(m.fields)-1 {
			m.currentField++
		}
	case "shift+tab":
		if m.currentField > 0 {
			m.currentField--
		}
	case "up":
		if current.fieldType == fieldTypeRadio && current.selected > 0 {
			current.selected--
		}
	case "down":
		if current.fieldType == fieldTypeRadio && current.selected < len(current.options)-1 {
			current.selected++
		}
	case "backspace":
		if current.fieldType == fieldTypeHex && len(current.hexValue) > 0 {
			current.hexValue = current.hexValue[:len(current.hexValue)-1]
		}
	default:
		s := keyMsg.String()
		if current.fieldType == fieldTypeHex && len(s) == 1 && isHexDigit(s[0]) &&
			len(current.hexValue) < current.hexDigits {
			current.hexValue += strings.ToUpper(s)
		}
	}

	return m, nil
}

// derive computes the key from the current field values.
func (m *deriveModel) derive() {
	bdk, err := hex.DecodeString(m.fields[0].hexValue)
	if err != nil {
		m.err = fmt.Errorf("invalid BDK hex: %w", err)

		return
	}
	ksn, err := hex.DecodeString(m.fields[1].hexValue)
	if err != nil {
		m.err = fmt.Errorf("invalid KSN hex: %w", err)

		return
	}

	m.key, m.err = dukpt.DeriveKey(bdk, ksn, m.usage())
}

func (m deriveModel) usage() dukpt.KeyUsage {
	return dukpt.KeyUsages()[m.fields[2].selected]
}

// View renders the current state of the model.
func (m deriveModel) View() string {
	if m.cancelled {
		return "Operation cancelled.\n"
	}
	if m.done {
		return ""
	}

	s := "Derive DUKPT Key\n"
	s += strings.Repeat("=", 50) + "\n\n"
	s += fmt.Sprintf("Field %d of %d\n\n", m.currentField+1, len(m.fields))

	current := m.fields[m.currentField]
	s += fmt.Sprintf("▶ %s: %s\n\n", current.name, current.description)

	switch current.fieldType {
	case fieldTypeRadio:
		for j, opt := range current.options {
			selector := "  ○ "
			if j == current.selected {
				selector = "  ● "
			}
			s += fmt.Sprintf("%s%s - %s\n", selector, opt.value, opt.description)
		}
	case fieldTypeHex:
		s += fmt.Sprintf("  [ %-*s ] %d/%d\n",
			current.hexDigits, current.display(), len(current.hexValue), current.hexDigits)
	}

	s += "\n"
	if m.currentField > 0 {
		s += "Completed fields:\n"
		for i := 0; i < m.currentField; i++ {
			f := m.fields[i]
			if f.fieldType == fieldTypeRadio {
				s += fmt.Sprintf("  %s: %s\n", f.name, f.options[f.selected].value)
			} else {
				s += fmt.Sprintf("  %s: %s\n", f.name, f.display())
			}
		}
		s += "\n"
	}

	s += "Navigation:\n"
	s += "  0-9, A-F: Enter hex digits\n"
	s += "  ↑/↓: Select usage\n"
	s += "  Tab/Shift+Tab: Next/Previous field\n"
	s += "  Enter: Confirm and continue\n"
	s += "  q or Ctrl+C: Quit\n"

	return s
}

func (f fieldConfig) display() string {
	if f.masked {
		return strings.Repeat("*", len(f.hexValue))
	}

	return f.hexValue
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func newTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Derive a key interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := tea.NewProgram(newDeriveModel(),
				tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("tui: %w", err)
			}

			m := final.(deriveModel)
			if m.cancelled {
				return nil
			}
			if m.err != nil {
				return fmt.Errorf("derive key: %w", m.err)
			}

			cmd.Printf("Usage: %s\n", m.usage())

			return printKey(cmd, "Key", m.key)
		},
	}
}

