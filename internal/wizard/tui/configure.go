package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DCC-EX/EX-Installer-sub000/internal/arduino"
	"github.com/DCC-EX/EX-Installer-sub000/internal/fileman"
	"github.com/DCC-EX/EX-Installer-sub000/internal/generator"
	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/version"
)

// fieldKind is the widget type of one configuration form field.
type fieldKind int

const (
	fieldToggle fieldKind = iota
	fieldChoice
	fieldText
	fieldSave
)

// formField is one row of the configuration form. Text fields own a
// textinput, choices cycle through options, toggles flip.
type formField struct {
	key      string
	label    string
	kind     fieldKind
	on       bool
	options  []string
	selected int
	input    textinput.Model
}

func toggleField(key, label string, on bool) formField {
	return formField{key: key, label: label, kind: fieldToggle, on: on}
}

func choiceField(key, label string, options []string) formField {
	return formField{key: key, label: label, kind: fieldChoice, options: options}
}

func textField(key, label, value string) formField {
	ti := textinput.New()
	ti.SetValue(value)
	ti.CharLimit = 64
	return formField{key: key, label: label, kind: fieldText, input: ti}
}

// ConfigureModel is the per-product configuration form. Saving runs
// the product's generator and writes the configuration files into the
// working copy.
type ConfigureModel struct {
	shared *Shared

	fields []formField
	cursor int
	errs   []string
	saved  []string
}

// NewConfigureModel builds the form for the selected product.
func NewConfigureModel(shared *Shared) ConfigureModel {
	m := ConfigureModel{shared: shared}

	switch shared.Product.Key {
	case "ex_commandstation":
		m.fields = commandStationFields(shared)
	case "ex_ioexpander":
		m.fields = ioExpanderFields()
	case "ex_turntable":
		m.fields = turntableFields()
	}
	m.fields = append(m.fields,
		textField("usedir", "Copy existing config from (optional)", ""),
		formField{key: "save", label: "Write configuration", kind: fieldSave})

	m.cursor = m.firstVisible()
	m.focusCursor()
	return m
}

func commandStationFields(shared *Shared) []formField {
	drivers, err := motorDriverOptions(shared)
	if err != nil {
		logging.Warn("could not read motor drivers: " + err.Error())
	}

	displays := make([]string, 0, len(generator.Displays)+1)
	displays = append(displays, "None")
	for name := range generator.Displays {
		displays = append(displays, name)
	}
	sort.Strings(displays[1:])

	return []formField{
		choiceField("motor", "Motor driver", drivers),
		choiceField("display", "Display", displays),
		toggleField("wifi", "Enable WiFi", false),
		choiceField("wifimode", "WiFi mode", []string{"Access point", "Connect to network"}),
		textField("ssid", "Network name", ""),
		textField("password", "Network password", ""),
		textField("hostname", "WiFi hostname", "dccex"),
		textField("channel", "WiFi channel", "1"),
		toggleField("ethernet", "Enable Ethernet", false),
		toggleField("current", "Override current limit", false),
		textField("currentval", "Current limit (mA)", ""),
		toggleField("eeprom", "Disable EEPROM support", false),
		toggleField("prog", "Disable programming track", false),
		toggleField("poweron", "Turn track power on at startup", false),
		toggleField("tracks", "Configure track outputs", false),
		choiceField("trackamode", "Track A mode", generator.TrackManagerModes),
		textField("trackaloco", "Track A loco/cab ID", ""),
		choiceField("trackbmode", "Track B mode", generator.TrackManagerModes),
		textField("trackbloco", "Track B loco/cab ID", ""),
	}
}

func ioExpanderFields() []formField {
	return []formField{
		textField("i2c", "I2C address", "0x65"),
		toggleField("diag", "Enable diagnostic output", false),
		textField("diagdelay", "Diagnostic interval (seconds)", "5"),
		choiceField("testmode", "Hardware test", []string{"None", "Analogue inputs", "Digital inputs", "Digital outputs", "Input pullups"}),
		toggleField("pullups", "Disable I2C pullups", false),
	}
}

func turntableFields() []formField {
	return []formField{
		textField("i2c", "I2C address", "0x60"),
		choiceField("mode", "Operating mode", []string{"Turntable", "Traverser"}),
		choiceField("home", "Home sensor active state", []string{"LOW", "HIGH"}),
		choiceField("limit", "Limit sensor active state", []string{"LOW", "HIGH"}),
		toggleField("phase", "Automatic phase switching", true),
		textField("angle", "Phase switch angle", "45"),
		choiceField("stepper", "Stepper driver", generator.StepperDrivers),
		textField("speed", "Stepper maximum speed", "200"),
		textField("accel", "Stepper acceleration", "25"),
		toggleField("idle", "Disable outputs when idle", false),
	}
}

// motorDriverOptions parses the working copy's motor driver table,
// restricted by the selected DCC-EX device when there is one.
func motorDriverOptions(shared *Shared) ([]string, error) {
	content, err := fileman.ReadTextFile(filepath.Join(shared.InstallDir, "MotorDrivers.h"))
	if err != nil {
		return nil, err
	}
	drivers := generator.ParseMotorDrivers(content)

	codes := make([]string, 0, len(arduino.DCCEXDevices))
	for _, code := range arduino.DCCEXDevices {
		codes = append(codes, code)
	}
	return generator.FilterMotorDrivers(drivers, shared.DCCEXDevice, codes), nil
}

func (m ConfigureModel) Init() tea.Cmd {
	return textinput.Blink
}

// fieldValue returns a text field's current value by key.
func (m ConfigureModel) fieldValue(key string) string {
	for _, f := range m.fields {
		if f.key == key {
			if f.kind == fieldText {
				return strings.TrimSpace(f.input.Value())
			}
			if f.kind == fieldChoice && len(f.options) > 0 {
				return f.options[f.selected]
			}
		}
	}
	return ""
}

// fieldOn returns a toggle field's state by key.
func (m ConfigureModel) fieldOn(key string) bool {
	for _, f := range m.fields {
		if f.key == key {
			return f.on
		}
	}
	return false
}

// fieldVisible hides fields that only apply with certain other
// selections enabled.
func (m ConfigureModel) fieldVisible(f formField) bool {
	switch f.key {
	case "wifimode", "password", "hostname", "channel":
		return m.fieldOn("wifi")
	case "ssid":
		return m.fieldOn("wifi") && m.fieldValue("wifimode") == "Connect to network"
	case "currentval":
		return m.fieldOn("current")
	case "trackamode", "trackbmode":
		return m.fieldOn("tracks")
	case "trackaloco":
		return m.fieldOn("tracks") && strings.HasPrefix(m.fieldValue("trackamode"), "DC")
	case "trackbloco":
		return m.fieldOn("tracks") && strings.HasPrefix(m.fieldValue("trackbmode"), "DC")
	case "limit":
		return m.fieldValue("mode") == "Traverser"
	case "angle":
		return m.fieldOn("phase")
	}
	return true
}

func (m ConfigureModel) firstVisible() int {
	for i, f := range m.fields {
		if m.fieldVisible(f) {
			return i
		}
	}
	return 0
}

// focusCursor focuses the text input under the cursor and blurs the
// rest.
func (m *ConfigureModel) focusCursor() {
	for i := range m.fields {
		if m.fields[i].kind != fieldText {
			continue
		}
		if i == m.cursor {
			m.fields[i].input.Focus()
		} else {
			m.fields[i].input.Blur()
		}
	}
}

func (m *ConfigureModel) moveCursor(delta int) {
	i := m.cursor
	for {
		i += delta
		if i < 0 || i >= len(m.fields) {
			return
		}
		if m.fieldVisible(m.fields[i]) {
			m.cursor = i
			m.focusCursor()
			return
		}
	}
}

// Update handles form navigation, editing and saving.
func (m ConfigureModel) Update(msg tea.Msg, width, height int) (ConfigureModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.cursor < len(m.fields) && m.fields[m.cursor].kind == fieldText {
			var cmd tea.Cmd
			m.fields[m.cursor].input, cmd = m.fields[m.cursor].input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	field := &m.fields[m.cursor]

	switch key.String() {
	case "up", "shift+tab":
		m.moveCursor(-1)
		return m, nil
	case "down", "tab":
		m.moveCursor(1)
		return m, nil
	case "esc":
		return m, func() tea.Msg { return goBackMsg{} }
	case "ctrl+q":
		return m, tea.Quit
	case "enter", " ":
		switch field.kind {
		case fieldToggle:
			field.on = !field.on
			return m, nil
		case fieldChoice:
			if len(field.options) > 0 {
				field.selected = (field.selected + 1) % len(field.options)
			}
			return m, nil
		case fieldSave:
			return m.save()
		}
	case "left":
		if field.kind == fieldChoice && len(field.options) > 0 {
			field.selected = (field.selected + len(field.options) - 1) % len(field.options)
			return m, nil
		}
	case "right":
		if field.kind == fieldChoice && len(field.options) > 0 {
			field.selected = (field.selected + 1) % len(field.options)
			return m, nil
		}
	}

	if field.kind == fieldText {
		var cmd tea.Cmd
		field.input, cmd = field.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// save runs the product generator and writes the configuration files.
// With an existing-config directory given, the user's own files are
// copied in instead of generating.
func (m ConfigureModel) save() (ConfigureModel, tea.Cmd) {
	m.errs = nil
	m.saved = nil

	if dir := m.fieldValue("usedir"); dir != "" {
		return m.copyExisting(dir)
	}

	var files map[string][]string
	var errs []string

	switch m.shared.Product.Key {
	case "ex_commandstation":
		files, errs = m.commandStationConfig()
	case "ex_ioexpander":
		lines, generr := m.ioExpanderOptions().Generate()
		files, errs = map[string][]string{"myConfig.h": lines}, generr
	case "ex_turntable":
		lines, generr := m.turntableOptions().Generate()
		files, errs = map[string][]string{"config.h": lines}, generr
	}

	if len(errs) > 0 {
		m.errs = errs
		return m, nil
	}

	dir := m.shared.InstallDir
	existing := fileman.ConfigFiles(dir, m.shared.Product.ConfigPatterns())
	fileman.DeleteConfigFiles(dir, existing)

	for name, lines := range files {
		if len(lines) == 0 {
			continue
		}
		header := fileman.GeneratedBy(name, version.Version, m.shared.Product.Name, m.shared.ProductVersion)
		if err := fileman.WriteConfigFile(filepath.Join(dir, name), header, lines); err != nil {
			m.errs = append(m.errs, err.Error())
			return m, nil
		}
		m.saved = append(m.saved, name)
	}

	return m, transitionCmd(nextScreen(ScreenConfigure))
}

// copyExisting copies the user's own configuration files into the
// working copy. Every minimum config file must be present in the
// source directory.
func (m ConfigureModel) copyExisting(sourceDir string) (ConfigureModel, tea.Cmd) {
	found := fileman.ConfigFiles(sourceDir, m.shared.Product.ConfigPatterns())

	for _, required := range m.shared.Product.MinimumConfigFiles {
		present := false
		for _, name := range found {
			if name == required {
				present = true
				break
			}
		}
		if !present {
			m.errs = append(m.errs, fmt.Sprintf("%s does not contain %s", sourceDir, required))
		}
	}
	if len(m.errs) > 0 {
		return m, nil
	}

	existing := fileman.ConfigFiles(m.shared.InstallDir, m.shared.Product.ConfigPatterns())
	fileman.DeleteConfigFiles(m.shared.InstallDir, existing)

	if failed := fileman.CopyConfigFiles(sourceDir, m.shared.InstallDir, found); len(failed) > 0 {
		m.errs = append(m.errs, "could not copy: "+strings.Join(failed, ", "))
		return m, nil
	}
	m.saved = found
	return m, transitionCmd(nextScreen(ScreenConfigure))
}

func (m ConfigureModel) commandStationConfig() (map[string][]string, []string) {
	channel, err := strconv.Atoi(m.fieldValue("channel"))
	if err != nil {
		channel = 0
	}

	cs := generator.CommandStation{
		MotorDriver:          m.fieldValue("motor"),
		EnableWiFi:           m.fieldOn("wifi"),
		WiFiSSID:             m.fieldValue("ssid"),
		WiFiPassword:         m.fieldValue("password"),
		WiFiHostname:         m.fieldValue("hostname"),
		WiFiChannel:          channel,
		EnableEthernet:       m.fieldOn("ethernet"),
		OverrideCurrentLimit: m.fieldOn("current"),
		CurrentLimit:         m.fieldValue("currentval"),
		DisableEEPROM:        m.fieldOn("eeprom"),
		DisableProg:          m.fieldOn("prog"),
	}
	if display := m.fieldValue("display"); display != "None" {
		cs.Display = display
	}
	if m.fieldValue("wifimode") == "Connect to network" {
		cs.WiFiMode = generator.WiFiStation
	}

	lines, errs := cs.Generate()
	if errs == nil {
		lines = append(append([]string{}, generator.DefaultConfigLines...), lines...)
	}

	auto := generator.Automation{
		PowerOn:         m.fieldOn("poweron"),
		ConfigureTracks: m.fieldOn("tracks"),
		TrackAMode:      m.fieldValue("trackamode"),
		TrackALocoID:    m.fieldValue("trackaloco"),
		TrackBMode:      m.fieldValue("trackbmode"),
		TrackBLocoID:    m.fieldValue("trackbloco"),
	}
	autoLines, autoErrs := auto.Generate()
	errs = append(errs, autoErrs...)

	if len(errs) > 0 {
		return nil, errs
	}
	return map[string][]string{"config.h": lines, "myAutomation.h": autoLines}, nil
}

func (m ConfigureModel) ioExpanderOptions() generator.IOExpander {
	testModes := map[string]generator.TestMode{
		"None":            generator.TestNone,
		"Analogue inputs": generator.TestAnalogue,
		"Digital inputs":  generator.TestInput,
		"Digital outputs": generator.TestOutput,
		"Input pullups":   generator.TestPullup,
	}
	return generator.IOExpander{
		I2CAddress:        parseI2CAddress(m.fieldValue("i2c")),
		EnableDiag:        m.fieldOn("diag"),
		DiagDelay:         m.fieldValue("diagdelay"),
		TestMode:          testModes[m.fieldValue("testmode")],
		DisableI2CPullups: m.fieldOn("pullups"),
	}
}

func (m ConfigureModel) turntableOptions() generator.Turntable {
	mode := generator.ModeTurntable
	if m.fieldValue("mode") == "Traverser" {
		mode = generator.ModeTraverser
	}
	return generator.Turntable{
		I2CAddress:       parseI2CAddress(m.fieldValue("i2c")),
		Mode:             mode,
		HomeSensorState:  generator.SensorState(m.fieldValue("home")),
		LimitSensorState: generator.SensorState(m.fieldValue("limit")),
		PhaseSwitching:   m.fieldOn("phase"),
		PhaseSwitchAngle: m.fieldValue("angle"),
		StepperDriver:    m.fieldValue("stepper"),
		StepperSpeed:     m.fieldValue("speed"),
		StepperAccel:     m.fieldValue("accel"),
		DisableOutputs:   m.fieldOn("idle"),
	}
}

// parseI2CAddress accepts both 0x-prefixed hex and plain decimal.
// Unparseable input returns -1, which the generators reject as out of
// range.
func parseI2CAddress(s string) int {
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return -1
	}
	return int(n)
}

// View renders the form.
func (m ConfigureModel) View(width, height int) string {
	var b strings.Builder

	b.WriteString(RenderTitle("Configure " + m.shared.Product.Name))
	b.WriteString("\n")

	for i, f := range m.fields {
		if !m.fieldVisible(f) {
			continue
		}
		b.WriteString(m.renderField(f, i == m.cursor))
		b.WriteString("\n")
	}

	if len(m.errs) > 0 {
		b.WriteString("\n")
		for _, e := range m.errs {
			b.WriteString(RenderError(e))
			b.WriteString("\n")
		}
	}

	return RenderApplicationContainer(b.String(),
		"↑/↓ move • enter toggle/select • esc back", width, height)
}

func (m ConfigureModel) renderField(f formField, selected bool) string {
	var value string
	switch f.kind {
	case fieldToggle:
		value = "[ ]"
		if f.on {
			value = "[x]"
		}
	case fieldChoice:
		if len(f.options) > 0 {
			value = "< " + f.options[f.selected] + " >"
		} else {
			value = "(none available)"
		}
	case fieldText:
		value = f.input.View()
	case fieldSave:
		return RenderMenuItem(f.label, selected)
	}

	line := fmt.Sprintf("%-32s %s", f.label, value)
	return RenderMenuItem(line, selected)
}
