package arduino

import (
	"sort"
)

// SupportedBoard pairs a friendly device name with its fully qualified
// board name. The slice is ordered for menu display.
type SupportedBoard struct {
	Name string
	FQBN string
}

// SupportedBoards lists the devices the installer can target, used to
// offer a manual choice when a detected device is unknown.
var SupportedBoards = []SupportedBoard{
	{Name: "Arduino Mega or Mega 2560", FQBN: "arduino:avr:mega"},
	{Name: "Arduino Uno", FQBN: "arduino:avr:uno"},
	{Name: "Arduino Nano", FQBN: "arduino:avr:nano"},
	{Name: "DCC-EX EX-CSB1", FQBN: "esp32:esp32:esp32"},
	{Name: "ESP32 Dev Kit", FQBN: "esp32:esp32:esp32"},
	{Name: "STMicroelectronics Nucleo F411RE", FQBN: "STMicroelectronics:stm32:Nucleo_64:pnum=NUCLEO_F411RE"},
	{Name: "STMicroelectronics Nucleo F446RE", FQBN: "STMicroelectronics:stm32:Nucleo_64:pnum=NUCLEO_F446RE"},
}

// DCCEXDevices maps DCC-EX branded hardware names to the device code
// used to preselect motor driver definitions.
var DCCEXDevices = map[string]string{
	"DCC-EX EX-CSB1": "EXCSB1",
}

// Platform is an additional board platform the CLI must know about
// before its packages can be installed.
type Platform struct {
	Name string
	ID   string
	URL  string
}

// ExtraPlatforms lists the non-default board platforms required by the
// supported devices, with their board manager index URLs.
var ExtraPlatforms = []Platform{
	{
		Name: "Espressif ESP32",
		ID:   "esp32:esp32@2.0.17",
		URL:  "https://raw.githubusercontent.com/espressif/arduino-esp32/gh-pages/package_esp32_index.json",
	},
	{
		Name: "STMicroelectronics Nucleo/STM32",
		ID:   "STMicroelectronics:stm32",
		URL:  "https://github.com/stm32duino/BoardManagerFiles/raw/main/package_stmicroelectronics_index.json",
	},
}

// MatchingBoard is one board identification for a detected port.
type MatchingBoard struct {
	Name string
	FQBN string
}

// Device is a serial port together with whatever boards the CLI
// matched against it. Zero matches means an unknown device, more than
// one means the user has to pick.
type Device struct {
	Port           string
	MatchingBoards []MatchingBoard
}

// Known reports whether exactly one board was matched.
func (d Device) Known() bool {
	return len(d.MatchingBoards) == 1
}

// Ambiguous reports whether multiple candidate boards were matched.
func (d Device) Ambiguous() bool {
	return len(d.MatchingBoards) > 1
}

// FQBNFor returns the board code for a supported device name, or ""
// when the name is not supported.
func FQBNFor(name string) string {
	for _, b := range SupportedBoards {
		if b.Name == name {
			return b.FQBN
		}
	}
	return ""
}

// ParseBoardList converts decoded `board list` output into devices.
// Both the bare array form and the newer object form with a
// detected_ports key are accepted; ports with no address are skipped.
func ParseBoardList(data any) []Device {
	entries, ok := data.([]any)
	if !ok {
		if doc, isMap := data.(map[string]any); isMap {
			entries, _ = doc["detected_ports"].([]any)
		}
	}

	var devices []Device
	for _, entry := range entries {
		port, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		dev := Device{Port: portAddress(port)}
		if dev.Port == "" {
			continue
		}
		boards, _ := port["matching_boards"].([]any)
		for _, raw := range boards {
			board, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name, _ := board["name"].(string)
			fqbn, _ := board["fqbn"].(string)
			dev.MatchingBoards = append(dev.MatchingBoards, MatchingBoard{Name: name, FQBN: fqbn})
		}
		devices = append(devices, dev)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Port < devices[j].Port })
	return devices
}

func portAddress(entry map[string]any) string {
	if port, ok := entry["port"].(map[string]any); ok {
		if addr, ok := port["address"].(string); ok {
			return addr
		}
	}
	if addr, ok := entry["address"].(string); ok {
		return addr
	}
	return ""
}
