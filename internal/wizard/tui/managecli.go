package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DCC-EX/EX-Installer-sub000/internal/arduino"
	"github.com/DCC-EX/EX-Installer-sub000/internal/products"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

// cliPhase is one step of the Arduino CLI setup sequence. Phases run
// strictly in order; an error stops the sequence where it stands.
type cliPhase int

const (
	cliPhaseIdle cliPhase = iota
	cliPhaseVersion
	cliPhasePlatforms
	cliPhaseDownload
	cliPhaseInstall
	cliPhaseConfig
	cliPhaseUpdateIndex
	cliPhaseInstallPackages
	cliPhaseInstallLibraries
	cliPhaseUpgrade
	cliPhaseListBoards
	cliPhaseDone
	cliPhaseFailed
)

func (p cliPhase) String() string {
	switch p {
	case cliPhaseIdle:
		return "idle"
	case cliPhaseVersion:
		return "checking version"
	case cliPhasePlatforms:
		return "listing platforms"
	case cliPhaseDownload:
		return "downloading"
	case cliPhaseInstall:
		return "installing"
	case cliPhaseConfig:
		return "configuring"
	case cliPhaseUpdateIndex:
		return "updating index"
	case cliPhaseInstallPackages:
		return "installing packages"
	case cliPhaseInstallLibraries:
		return "installing libraries"
	case cliPhaseUpgrade:
		return "upgrading platforms"
	case cliPhaseListBoards:
		return "scanning for devices"
	case cliPhaseDone:
		return "done"
	case cliPhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("cliPhase(%d)", p)
	}
}

// running reports whether a worker owns the screen right now.
func (p cliPhase) running() bool {
	return p != cliPhaseIdle && p != cliPhaseDone && p != cliPhaseFailed
}

// ManageCLIModel installs or refreshes the Arduino CLI: download and
// extract when missing, then configuration, index update, platform
// packages, library dependencies, upgrade, and a first device scan.
type ManageCLIModel struct {
	shared *Shared

	phase   cliPhase
	runner  *tasks.Runner
	spinner spinner.Model

	// Extra platforms the user wants installed, toggled on the idle view
	selected map[string]bool

	pendingPackages  []arduino.Platform
	pendingLibraries []string

	installedVersion string
	archivePath      string
	progress         []string
	errMsg           string
}

// NewManageCLIModel creates the screen model.
func NewManageCLIModel(shared *Shared) ManageCLIModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	selected := make(map[string]bool)
	for _, p := range arduino.ExtraPlatforms {
		selected[p.Name] = true
	}

	m := ManageCLIModel{
		shared:   shared,
		phase:    cliPhaseIdle,
		spinner:  s,
		selected: selected,
	}
	// An installed CLI gets probed for its version straight away
	if shared.CLI.IsInstalled() {
		m.phase = cliPhaseVersion
		m.runner = shared.CLI.Version()
	}
	return m
}

// Init starts envelope delivery for the initial version probe.
func (m ManageCLIModel) Init() tea.Cmd {
	if m.runner != nil {
		return tea.Batch(listenEnvelopes(ScreenManageCLI, m.runner.Messages()), m.spinner.Tick)
	}
	return m.spinner.Tick
}

// Update handles screen input and worker envelopes.
func (m ManageCLIModel) Update(msg tea.Msg, width, height int) (ManageCLIModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case envMsg:
		if msg.screen != ScreenManageCLI {
			return m, nil
		}
		if !msg.env.Status.Terminal() {
			m.progress = appendProgress(m.progress, msg.env)
			return m, listenEnvelopes(ScreenManageCLI, m.runner.Messages())
		}
		return m.advance(msg.env)
	}

	return m, nil
}

func (m ManageCLIModel) handleKey(msg tea.KeyMsg) (ManageCLIModel, tea.Cmd) {
	if m.phase.running() {
		return m, nil
	}

	switch msg.String() {
	case "i", "r":
		return m.startSetup()
	case "1", "2":
		idx := int(msg.String()[0] - '1')
		if idx < len(arduino.ExtraPlatforms) {
			name := arduino.ExtraPlatforms[idx].Name
			m.selected[name] = !m.selected[name]
		}
	case "enter", "n":
		if m.phase == cliPhaseDone || (m.phase == cliPhaseIdle && m.shared.CLI.IsInstalled()) {
			return m, transitionCmd(nextScreen(ScreenManageCLI))
		}
	case "esc", "b":
		return m, func() tea.Msg { return goBackMsg{} }
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// startSetup begins the full sequence: from the download when the CLI
// is missing, or straight at configuration for a refresh.
func (m ManageCLIModel) startSetup() (ManageCLIModel, tea.Cmd) {
	m.errMsg = ""
	m.progress = nil
	m.pendingPackages = nil
	for _, p := range arduino.ExtraPlatforms {
		if m.selected[p.Name] {
			m.pendingPackages = append(m.pendingPackages, p)
		}
	}
	m.pendingLibraries = products.LibraryDependencies()

	if !m.shared.CLI.IsInstalled() {
		m.phase = cliPhaseDownload
		m.runner = m.shared.CLI.Download()
	} else {
		m.phase = cliPhaseConfig
		m.runner = m.shared.CLI.InitConfig()
	}
	return m, listenEnvelopes(ScreenManageCLI, m.runner.Messages())
}

// advance moves the phase machine forward on a terminal envelope.
func (m ManageCLIModel) advance(env tasks.Envelope) (ManageCLIModel, tea.Cmd) {
	if env.Status == tasks.StatusError {
		// The version probe failing just means no usable CLI; anything
		// else stops the sequence.
		if m.phase == cliPhaseVersion || m.phase == cliPhasePlatforms {
			m.phase = cliPhaseIdle
			return m, nil
		}
		m.phase = cliPhaseFailed
		m.errMsg = env.Text()
		return m, nil
	}

	switch m.phase {
	case cliPhaseVersion:
		if doc, ok := env.Data.(map[string]any); ok {
			if v, ok := doc["VersionString"].(string); ok {
				m.installedVersion = v
			}
		}
		m.phase = cliPhasePlatforms
		m.runner = m.shared.CLI.Platforms()

	case cliPhasePlatforms:
		m.phase = cliPhaseIdle
		return m, nil

	case cliPhaseDownload:
		m.archivePath = env.Text()
		m.phase = cliPhaseInstall
		m.runner = m.shared.CLI.Install(m.archivePath)

	case cliPhaseInstall:
		m.phase = cliPhaseConfig
		m.runner = m.shared.CLI.InitConfig()

	case cliPhaseConfig:
		m.phase = cliPhaseUpdateIndex
		m.runner = m.shared.CLI.UpdateIndex()

	case cliPhaseUpdateIndex, cliPhaseInstallPackages:
		if len(m.pendingPackages) > 0 {
			next := m.pendingPackages[0]
			m.pendingPackages = m.pendingPackages[1:]
			m.phase = cliPhaseInstallPackages
			m.runner = m.shared.CLI.InstallPackage(next.ID)
		} else {
			return m.advanceToLibraries()
		}

	case cliPhaseInstallLibraries:
		return m.advanceToLibraries()

	case cliPhaseUpgrade:
		m.phase = cliPhaseListBoards
		m.runner = m.shared.CLI.ListBoards()

	case cliPhaseListBoards:
		m.phase = cliPhaseDone
		return m, nil

	default:
		return m, nil
	}

	return m, listenEnvelopes(ScreenManageCLI, m.runner.Messages())
}

// advanceToLibraries installs the next pending library, or moves on to
// the platform upgrade when none remain.
func (m ManageCLIModel) advanceToLibraries() (ManageCLIModel, tea.Cmd) {
	if len(m.pendingLibraries) > 0 {
		next := m.pendingLibraries[0]
		m.pendingLibraries = m.pendingLibraries[1:]
		m.phase = cliPhaseInstallLibraries
		m.runner = m.shared.CLI.InstallLibrary(next)
	} else {
		m.phase = cliPhaseUpgrade
		m.runner = m.shared.CLI.UpgradePlatforms()
	}
	return m, listenEnvelopes(ScreenManageCLI, m.runner.Messages())
}

// View renders the screen.
func (m ManageCLIModel) View(width, height int) string {
	var b strings.Builder

	b.WriteString(RenderTitle("Manage the Arduino CLI"))
	b.WriteString("\n")

	if m.shared.CLI.IsInstalled() {
		state := "Arduino CLI is installed"
		if m.installedVersion != "" {
			state += " (version " + m.installedVersion + ")"
		}
		b.WriteString(SuccessStyle.Render(state))
	} else {
		b.WriteString(WarningStyle.Render("Arduino CLI is not installed"))
	}
	b.WriteString("\n\n")

	b.WriteString("Additional platforms:\n")
	for i, p := range arduino.ExtraPlatforms {
		mark := "[ ]"
		if m.selected[p.Name] {
			mark = "[x]"
		}
		b.WriteString(MenuItemStyle.Render(fmt.Sprintf("%d. %s %s", i+1, mark, p.Name)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.phase.running():
		b.WriteString(m.spinner.View())
		b.WriteString(" " + m.phase.String() + "...\n")
		b.WriteString(renderProgress(m.progress))
	case m.phase == cliPhaseDone:
		b.WriteString(RenderSuccess("Arduino CLI is ready"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Detected %d attached device(s).\n", len(m.shared.CLI.DetectedDevices)))
	case m.phase == cliPhaseFailed:
		b.WriteString(RenderError(m.errMsg))
		b.WriteString("\n")
	}

	help := "i install/refresh • 1/2 toggle platform • enter continue • b back • q quit"
	if m.phase.running() {
		help = "setup in progress..."
	}
	return RenderApplicationContainer(b.String(), help, width, height)
}

// appendProgress keeps the most recent progress lines for display.
func appendProgress(progress []string, env tasks.Envelope) []string {
	text := env.Text()
	if text == "" {
		return progress
	}
	progress = append(progress, text)
	const keep = 8
	if len(progress) > keep {
		progress = progress[len(progress)-keep:]
	}
	return progress
}

func renderProgress(progress []string) string {
	if len(progress) == 0 {
		return ""
	}
	return OutputStyle.Render(strings.Join(progress, "\n")) + "\n"
}
