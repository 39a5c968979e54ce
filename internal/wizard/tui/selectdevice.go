package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DCC-EX/EX-Installer-sub000/internal/arduino"
	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/prefs"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

// devicePhase tracks the select-device screen: a board scan, then the
// port list, with a board picker for ports the scan could not identify.
type devicePhase int

const (
	devicePhaseScanning devicePhase = iota
	devicePhaseList
	devicePhasePickBoard
	devicePhaseFailed
)

// SelectDeviceModel lets the user pick the attached device to install
// onto. Unknown and ambiguous ports ask the user to name the board.
type SelectDeviceModel struct {
	shared *Shared

	phase   devicePhase
	runner  *tasks.Runner
	spinner spinner.Model

	cursor      int
	boardCursor int
	errMsg      string
}

// NewSelectDeviceModel creates the screen model and starts a scan.
func NewSelectDeviceModel(shared *Shared) SelectDeviceModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return SelectDeviceModel{
		shared:  shared,
		phase:   devicePhaseScanning,
		runner:  shared.CLI.ListBoards(),
		spinner: s,
	}
}

// Init starts envelope delivery for the scan.
func (m SelectDeviceModel) Init() tea.Cmd {
	return tea.Batch(listenEnvelopes(ScreenSelectDevice, m.runner.Messages()), m.spinner.Tick)
}

// Update handles screen input and worker envelopes.
func (m SelectDeviceModel) Update(msg tea.Msg, width, height int) (SelectDeviceModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case envMsg:
		if msg.screen != ScreenSelectDevice {
			return m, nil
		}
		if !msg.env.Status.Terminal() {
			return m, listenEnvelopes(ScreenSelectDevice, m.runner.Messages())
		}
		if msg.env.Status == tasks.StatusError {
			m.phase = devicePhaseFailed
			m.errMsg = msg.env.Text()
			return m, nil
		}
		m.phase = devicePhaseList
		m.cursor = 0
		return m, nil
	}

	return m, nil
}

func (m SelectDeviceModel) handleKey(msg tea.KeyMsg) (SelectDeviceModel, tea.Cmd) {
	devices := m.shared.CLI.DetectedDevices

	switch m.phase {
	case devicePhaseList:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(devices)-1 {
				m.cursor++
			}
		case "enter", " ":
			if m.cursor >= len(devices) {
				return m, nil
			}
			device := devices[m.cursor]
			if device.Known() {
				return m.selectBoard(device, device.MatchingBoards[0])
			}
			m.phase = devicePhasePickBoard
			m.boardCursor = 0
		case "r":
			m.phase = devicePhaseScanning
			m.runner = m.shared.CLI.ListBoards()
			return m, tea.Batch(listenEnvelopes(ScreenSelectDevice, m.runner.Messages()), m.spinner.Tick)
		case "esc", "b":
			return m, func() tea.Msg { return goBackMsg{} }
		case "q":
			return m, tea.Quit
		}

	case devicePhasePickBoard:
		options := m.boardOptions()
		switch msg.String() {
		case "up", "k":
			if m.boardCursor > 0 {
				m.boardCursor--
			}
		case "down", "j":
			if m.boardCursor < len(options)-1 {
				m.boardCursor++
			}
		case "enter", " ":
			if m.boardCursor < len(options) {
				return m.selectBoard(m.shared.CLI.DetectedDevices[m.cursor], options[m.boardCursor])
			}
		case "esc":
			m.phase = devicePhaseList
		}

	case devicePhaseFailed:
		switch msg.String() {
		case "r":
			m.phase = devicePhaseScanning
			m.errMsg = ""
			m.runner = m.shared.CLI.ListBoards()
			return m, tea.Batch(listenEnvelopes(ScreenSelectDevice, m.runner.Messages()), m.spinner.Tick)
		case "esc", "b":
			return m, func() tea.Msg { return goBackMsg{} }
		case "q":
			return m, tea.Quit
		}
	}

	return m, nil
}

// boardOptions lists the candidates for the highlighted port: the
// scan's matches when ambiguous, the full supported table when unknown.
func (m SelectDeviceModel) boardOptions() []arduino.MatchingBoard {
	device := m.shared.CLI.DetectedDevices[m.cursor]
	if device.Ambiguous() {
		return device.MatchingBoards
	}
	options := make([]arduino.MatchingBoard, len(arduino.SupportedBoards))
	for i, b := range arduino.SupportedBoards {
		options[i] = arduino.MatchingBoard{Name: b.Name, FQBN: b.FQBN}
	}
	return options
}

// selectBoard records the chosen device and board and advances.
func (m SelectDeviceModel) selectBoard(device arduino.Device, board arduino.MatchingBoard) (SelectDeviceModel, tea.Cmd) {
	m.shared.Device = &device
	m.shared.DeviceName = board.Name
	m.shared.FQBN = board.FQBN
	m.shared.DCCEXDevice = arduino.DCCEXDevices[board.Name]
	m.shared.CLI.SelectedDevice = m.cursor

	m.shared.Prefs.LastDevicePort = device.Port
	if err := prefs.Save(m.shared.Prefs); err != nil {
		logging.Warn("could not save preferences: " + err.Error())
	}

	return m, transitionCmd(nextScreen(ScreenSelectDevice))
}

// View renders the screen.
func (m SelectDeviceModel) View(width, height int) string {
	var b strings.Builder

	b.WriteString(RenderTitle("Select your device"))
	b.WriteString("\n")

	switch m.phase {
	case devicePhaseScanning:
		b.WriteString(m.spinner.View())
		b.WriteString(" Scanning for attached devices...\n")

	case devicePhaseList:
		devices := m.shared.CLI.DetectedDevices
		if len(devices) == 0 {
			b.WriteString("No devices found. Connect your device and press r to rescan.\n")
			break
		}
		for i, d := range devices {
			label := d.Port + " — " + describeDevice(d)
			b.WriteString(RenderMenuItem(label, i == m.cursor))
			b.WriteString("\n")
		}

	case devicePhasePickBoard:
		device := m.shared.CLI.DetectedDevices[m.cursor]
		if device.Ambiguous() {
			b.WriteString(fmt.Sprintf("Multiple matches for %s, pick your board:\n\n", device.Port))
		} else {
			b.WriteString(fmt.Sprintf("Could not identify %s, pick your board:\n\n", device.Port))
		}
		for i, option := range m.boardOptions() {
			b.WriteString(RenderMenuItem(option.Name, i == m.boardCursor))
			b.WriteString("\n")
		}

	case devicePhaseFailed:
		b.WriteString(RenderError(m.errMsg))
		b.WriteString("\n")
	}

	help := "↑/↓ move • enter select • r rescan • b back • q quit"
	if m.phase == devicePhaseScanning {
		help = "scanning..."
	}
	return RenderApplicationContainer(b.String(), help, width, height)
}

// describeDevice summarizes a scan result for the port list.
func describeDevice(d arduino.Device) string {
	switch {
	case d.Known():
		return d.MatchingBoards[0].Name
	case d.Ambiguous():
		return fmt.Sprintf("%d possible matches", len(d.MatchingBoards))
	default:
		return "unknown device"
	}
}
