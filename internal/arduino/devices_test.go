package arduino

import (
	"encoding/json"
	"testing"
)

const boardListSample = `[
  {
    "port": {"address": "/dev/ttyACM0", "protocol": "serial"},
    "matching_boards": [
      {"name": "Arduino Mega or Mega 2560", "fqbn": "arduino:avr:mega"}
    ]
  },
  {
    "port": {"address": "/dev/ttyUSB0", "protocol": "serial"}
  },
  {
    "port": {"address": "/dev/ttyUSB1", "protocol": "serial"},
    "matching_boards": [
      {"name": "Arduino Nano", "fqbn": "arduino:avr:nano"},
      {"name": "Arduino Duemilanove or Diecimila", "fqbn": "arduino:avr:diecimila"}
    ]
  }
]`

func TestParseBoardList(t *testing.T) {
	var data any
	if err := json.Unmarshal([]byte(boardListSample), &data); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}

	devices := ParseBoardList(data)
	if len(devices) != 3 {
		t.Fatalf("len(devices) = %d, want 3", len(devices))
	}

	if !devices[0].Known() {
		t.Errorf("%s should be a known device", devices[0].Port)
	}
	if got := devices[0].MatchingBoards[0].FQBN; got != "arduino:avr:mega" {
		t.Errorf("FQBN = %q, want arduino:avr:mega", got)
	}
	if devices[1].Known() || devices[1].Ambiguous() {
		t.Errorf("%s should be unknown", devices[1].Port)
	}
	if !devices[2].Ambiguous() {
		t.Errorf("%s should be ambiguous with 2 matches", devices[2].Port)
	}
}

func TestParseBoardListObjectForm(t *testing.T) {
	var data any
	doc := `{"detected_ports": [{"port": {"address": "COM3"}, "matching_boards": [{"name": "Arduino Uno", "fqbn": "arduino:avr:uno"}]}]}`
	if err := json.Unmarshal([]byte(doc), &data); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	devices := ParseBoardList(data)
	if len(devices) != 1 || devices[0].Port != "COM3" {
		t.Fatalf("devices = %+v, want single COM3 entry", devices)
	}
}

func TestParseBoardListNotAList(t *testing.T) {
	if devices := ParseBoardList("No output"); devices != nil {
		t.Errorf("ParseBoardList(string) = %v, want nil", devices)
	}
}

func TestFQBNFor(t *testing.T) {
	if got := FQBNFor("ESP32 Dev Kit"); got != "esp32:esp32:esp32" {
		t.Errorf("FQBNFor(ESP32 Dev Kit) = %q", got)
	}
	if got := FQBNFor("Commodore 64"); got != "" {
		t.Errorf("FQBNFor(unsupported) = %q, want empty", got)
	}
}

func TestDCCEXDevicePreselection(t *testing.T) {
	if DCCEXDevices["DCC-EX EX-CSB1"] != "EXCSB1" {
		t.Error("EX-CSB1 should map to the EXCSB1 device code")
	}
}
