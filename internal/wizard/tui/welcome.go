package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/version"
)

// welcomeChoice is one entry on the welcome menu.
type welcomeChoice struct {
	label  string
	screen Screen
}

// WelcomeModel is the wizard's landing screen: version, a pointer at
// the log file, and the entry points into the flow.
type WelcomeModel struct {
	shared  *Shared
	choices []welcomeChoice
	cursor  int
}

// NewWelcomeModel creates the welcome screen model.
func NewWelcomeModel(shared *Shared) WelcomeModel {
	return WelcomeModel{
		shared: shared,
		choices: []welcomeChoice{
			{"Install firmware on a device", ScreenManageCLI},
			{"Open the serial monitor", ScreenMonitor},
		},
	}
}

// Init implements tea.Model for the screen.
func (m WelcomeModel) Init() tea.Cmd {
	return nil
}

// Update handles screen input.
func (m WelcomeModel) Update(msg tea.Msg, width, height int) (WelcomeModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
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
			return m, transitionCmd(m.choices[m.cursor].screen)
		case "q", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

// View renders the screen.
func (m WelcomeModel) View(width, height int) string {
	var b strings.Builder

	b.WriteString(RenderTitle("Welcome to EX-Installer"))
	b.WriteString("\n")
	b.WriteString("This wizard installs DCC-EX firmware onto your Arduino-class device:\n")
	b.WriteString("it sets up the Arduino CLI, fetches the firmware source, builds your\n")
	b.WriteString("configuration, and uploads the result.\n\n")
	b.WriteString(SubtitleStyle.Render("Version " + version.Full()))
	b.WriteString("\n")
	if path := logging.LogPath(); path != "" {
		b.WriteString(SubtitleStyle.Render("Log file: " + path))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, choice := range m.choices {
		b.WriteString(RenderMenuItem(choice.label, i == m.cursor))
		b.WriteString("\n")
	}

	help := "↑/↓ move • enter select • q quit"
	return RenderApplicationContainer(b.String(), help, width, height)
}
