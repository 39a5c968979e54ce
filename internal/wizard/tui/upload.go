package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DCC-EX/EX-Installer-sub000/internal/discovery"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

// uploadPhase tracks the compile-and-upload screen.
type uploadPhase int

const (
	uploadPhaseAttach uploadPhase = iota
	uploadPhaseCompile
	uploadPhaseUpload
	uploadPhaseDone
	uploadPhaseScanning
	uploadPhaseFailed
)

func (p uploadPhase) String() string {
	switch p {
	case uploadPhaseAttach:
		return "Attaching the device"
	case uploadPhaseCompile:
		return "Compiling"
	case uploadPhaseUpload:
		return "Uploading"
	case uploadPhaseScanning:
		return "Scanning for WiFi CommandStations"
	default:
		return ""
	}
}

// UploadModel compiles the configured working copy and uploads it to
// the selected device, streaming the toolchain output. Afterwards a
// network scan can look for the freshly started CommandStation.
type UploadModel struct {
	shared *Shared

	phase    uploadPhase
	runner   *tasks.Runner
	spinner  spinner.Model
	progress []string
	found    []discovery.CommandStation
	errMsg   string
}

// NewUploadModel attaches the sketch to the selected device, then the
// phase machine compiles and uploads it.
func NewUploadModel(shared *Shared) UploadModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := UploadModel{shared: shared, spinner: s}

	if shared.Device == nil {
		m.phase = uploadPhaseFailed
		m.errMsg = "No device selected"
		return m
	}
	m.phase = uploadPhaseAttach
	m.runner = shared.CLI.Attach(shared.FQBN, shared.Device.Port, shared.InstallDir)
	return m
}

// Init starts envelope delivery for the compile.
func (m UploadModel) Init() tea.Cmd {
	if m.runner != nil {
		return tea.Batch(listenEnvelopes(ScreenUpload, m.runner.Messages()), m.spinner.Tick)
	}
	return m.spinner.Tick
}

// Update handles screen input and worker envelopes.
func (m UploadModel) Update(msg tea.Msg, width, height int) (UploadModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case envMsg:
		if msg.screen != ScreenUpload {
			return m, nil
		}
		if !msg.env.Status.Terminal() {
			m.appendProgress(msg.env.Text())
			return m, listenEnvelopes(ScreenUpload, m.runner.Messages())
		}
		return m.advance(msg.env)
	}

	return m, nil
}

// advance moves attach to compile, compile to upload, and upload to
// done.
func (m UploadModel) advance(env tasks.Envelope) (UploadModel, tea.Cmd) {
	if env.Status == tasks.StatusError {
		m.phase = uploadPhaseFailed
		m.errMsg = env.Text()
		return m, nil
	}

	switch m.phase {
	case uploadPhaseAttach:
		m.phase = uploadPhaseCompile
		m.progress = nil
		m.runner = m.shared.CLI.Compile(m.shared.FQBN, m.shared.InstallDir)
		return m, listenEnvelopes(ScreenUpload, m.runner.Messages())

	case uploadPhaseCompile:
		m.phase = uploadPhaseUpload
		m.progress = nil
		m.runner = m.shared.CLI.Upload(m.shared.FQBN, m.shared.Device.Port, m.shared.InstallDir)
		return m, listenEnvelopes(ScreenUpload, m.runner.Messages())

	case uploadPhaseUpload:
		m.phase = uploadPhaseDone
		return m, nil

	case uploadPhaseScanning:
		if stations, ok := env.Data.([]discovery.CommandStation); ok {
			m.found = stations
		}
		m.phase = uploadPhaseDone
		return m, nil
	}

	return m, nil
}

func (m UploadModel) handleKey(msg tea.KeyMsg) (UploadModel, tea.Cmd) {
	switch m.phase {
	case uploadPhaseDone:
		switch msg.String() {
		case "enter", "m":
			return m, transitionCmd(nextScreen(ScreenUpload))
		case "s":
			scanner := discovery.NewScanner()
			m.phase = uploadPhaseScanning
			m.found = nil
			m.runner = scanner.RunScan()
			return m, tea.Batch(listenEnvelopes(ScreenUpload, m.runner.Messages()), m.spinner.Tick)
		case "esc", "b":
			return m, func() tea.Msg { return goBackMsg{} }
		case "q":
			return m, tea.Quit
		}

	case uploadPhaseFailed:
		switch msg.String() {
		case "r":
			if m.shared.Device == nil {
				return m, nil
			}
			m.phase = uploadPhaseAttach
			m.errMsg = ""
			m.progress = nil
			m.runner = m.shared.CLI.Attach(m.shared.FQBN, m.shared.Device.Port, m.shared.InstallDir)
			return m, tea.Batch(listenEnvelopes(ScreenUpload, m.runner.Messages()), m.spinner.Tick)
		case "esc", "b":
			return m, func() tea.Msg { return goBackMsg{} }
		case "q":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *UploadModel) appendProgress(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	m.progress = append(m.progress, line)
	if len(m.progress) > 8 {
		m.progress = m.progress[len(m.progress)-8:]
	}
}

// View renders the screen.
func (m UploadModel) View(width, height int) string {
	var b strings.Builder

	b.WriteString(RenderTitle(fmt.Sprintf("Load %s onto your device", m.shared.Product.Name)))
	b.WriteString("\n")

	switch m.phase {
	case uploadPhaseAttach, uploadPhaseCompile, uploadPhaseUpload, uploadPhaseScanning:
		b.WriteString(m.spinner.View())
		b.WriteString(" " + m.phase.String() + "...\n\n")
		for _, line := range m.progress {
			b.WriteString(OutputStyle.Render(line))
			b.WriteString("\n")
		}

	case uploadPhaseDone:
		b.WriteString(RenderSuccess(fmt.Sprintf("%s %s loaded onto %s",
			m.shared.Product.Name, m.shared.ProductVersion, m.shared.Device.Port)))
		b.WriteString("\n\n")
		if len(m.found) > 0 {
			b.WriteString("WiFi CommandStations found:\n")
			for _, cs := range m.found {
				b.WriteString("  " + cs.Name + " at " + cs.Address() + "\n")
			}
			b.WriteString("\n")
		}
		b.WriteString("Press enter to open the serial monitor, or s to scan for WiFi CommandStations.\n")

	case uploadPhaseFailed:
		b.WriteString(RenderError(m.errMsg))
		b.WriteString("\n\n")
		for _, line := range m.progress {
			b.WriteString(OutputStyle.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\nPress r to retry.\n")
	}

	return RenderApplicationContainer(b.String(), "enter monitor • s scan • b back • q quit", width, height)
}
