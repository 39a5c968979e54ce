package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DCC-EX/EX-Installer-sub000/internal/fileman"
	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/prefs"
	"github.com/DCC-EX/EX-Installer-sub000/internal/products"
)

// SelectProductModel offers the product menu, filtered to products the
// selected device can run.
type SelectProductModel struct {
	shared *Shared

	choices []products.Product
	cursor  int
	errMsg  string
}

// NewSelectProductModel builds the menu. Only products supporting the
// selected board are offered; with no board selected yet the full table
// is shown.
func NewSelectProductModel(shared *Shared) SelectProductModel {
	var choices []products.Product
	for _, p := range products.All {
		if shared.FQBN != "" && !p.SupportsFQBN(shared.FQBN) {
			continue
		}
		choices = append(choices, p)
	}

	m := SelectProductModel{shared: shared, choices: choices}

	// Preselect whatever the user installed last time
	for i, p := range choices {
		if p.Key == shared.Prefs.SelectedProduct {
			m.cursor = i
			break
		}
	}
	return m
}

func (m SelectProductModel) Init() tea.Cmd {
	return nil
}

// Update handles menu navigation and selection.
func (m SelectProductModel) Update(msg tea.Msg, width, height int) (SelectProductModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.cursor >= len(m.choices) {
			return m, nil
		}
		return m.selectProduct(m.choices[m.cursor])
	case "esc", "b":
		return m, func() tea.Msg { return goBackMsg{} }
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m SelectProductModel) selectProduct(p products.Product) (SelectProductModel, tea.Cmd) {
	dir, err := fileman.InstallDir(p.Key)
	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}

	m.shared.Product = p
	m.shared.InstallDir = dir

	m.shared.Prefs.SelectedProduct = p.Key
	if err := prefs.Save(m.shared.Prefs); err != nil {
		logging.Warn("could not save preferences: " + err.Error())
	}

	return m, transitionCmd(nextScreen(ScreenSelectProduct))
}

// View renders the product menu.
func (m SelectProductModel) View(width, height int) string {
	var b strings.Builder

	b.WriteString(RenderTitle("Select the product to install"))
	b.WriteString("\n")

	if m.shared.DeviceName != "" {
		b.WriteString(SubtitleStyle.Render("Device: " + m.shared.DeviceName))
		b.WriteString("\n\n")
	}

	if len(m.choices) == 0 {
		b.WriteString(RenderError("No products support the selected device"))
		b.WriteString("\n")
	}
	for i, p := range m.choices {
		b.WriteString(RenderMenuItem(p.Name, i == m.cursor))
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(RenderError(m.errMsg))
		b.WriteString("\n")
	}

	return RenderApplicationContainer(b.String(), "↑/↓ move • enter select • b back • q quit", width, height)
}
