package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DCC-EX/EX-Installer-sub000/internal/monitor"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

const monitorScrollback = 500

// MonitorModel is the serial monitor screen: device output scrolls
// with the interesting fragments highlighted, and a command line sends
// DCC-EX native commands to the device.
type MonitorModel struct {
	shared *Shared

	mon    *monitor.Monitor
	runner *tasks.Runner
	input  textinput.Model

	lines  []string
	errMsg string
}

// NewMonitorModel opens the serial port and starts streaming. The port
// comes from the selected device, falling back to the last port used.
func NewMonitorModel(shared *Shared) MonitorModel {
	ti := textinput.New()
	ti.Placeholder = "Command to send, e.g. <s>"
	ti.CharLimit = 128
	ti.Focus()

	m := MonitorModel{shared: shared, input: ti}

	port := shared.Prefs.LastDevicePort
	if shared.Device != nil {
		port = shared.Device.Port
	}
	if port == "" {
		m.errMsg = "No device selected and no port remembered from a previous run"
		return m
	}

	baud := shared.Prefs.MonitorBaud
	if baud == 0 {
		baud = 115200
	}

	mon, err := monitor.Open(port, baud)
	if err != nil {
		m.errMsg = err.Error()
		return m
	}
	m.mon = mon
	m.runner = mon.Stream()
	return m
}

// Init starts envelope delivery for the stream.
func (m MonitorModel) Init() tea.Cmd {
	if m.runner != nil {
		return tea.Batch(listenEnvelopes(ScreenMonitor, m.runner.Messages()), textinput.Blink)
	}
	return textinput.Blink
}

// Update handles device output and command entry.
func (m MonitorModel) Update(msg tea.Msg, width, height int) (MonitorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.close()
			return m, func() tea.Msg { return goBackMsg{} }
		case "enter":
			command := strings.TrimSpace(m.input.Value())
			if command != "" && m.mon != nil {
				if err := m.mon.Send(command); err != nil {
					m.errMsg = err.Error()
				} else {
					m.appendLine("> " + command)
				}
			}
			m.input.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case envMsg:
		if msg.screen != ScreenMonitor {
			return m, nil
		}
		if !msg.env.Status.Terminal() {
			m.appendLine(msg.env.Text())
			return m, listenEnvelopes(ScreenMonitor, m.runner.Messages())
		}
		if msg.env.Status == tasks.StatusError {
			m.errMsg = msg.env.Text()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *MonitorModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > monitorScrollback {
		m.lines = m.lines[len(m.lines)-monitorScrollback:]
	}
}

// close stops the stream and releases the port.
func (m *MonitorModel) close() {
	if m.mon != nil {
		m.mon.Close()
		m.mon = nil
	}
}

// View renders the scrollback tail and the command line.
func (m MonitorModel) View(width, height int) string {
	var b strings.Builder

	title := "Serial monitor"
	if m.mon != nil {
		b.WriteString(RenderTitle(title + " — " + m.mon.Port()))
	} else {
		b.WriteString(RenderTitle(title))
	}
	b.WriteString("\n")

	visible := height - 10
	if visible < 5 {
		visible = 5
	}
	lines := m.lines
	if len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	for _, line := range lines {
		b.WriteString(highlightLine(line))
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(RenderError(m.errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	return RenderApplicationContainer(b.String(), "enter send command • esc back", width, height)
}

// highlightLine styles the fragments the highlight table matches.
func highlightLine(line string) string {
	spans := monitor.FindSpans(line)
	if len(spans) == 0 {
		return line
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	var b strings.Builder
	last := 0
	for _, span := range spans {
		if span.Start < last {
			continue
		}
		b.WriteString(line[last:span.Start])
		b.WriteString(MonitorTagStyle(string(span.Tag)).Render(line[span.Start:span.End]))
		last = span.End
	}
	b.WriteString(line[last:])
	return b.String()
}
