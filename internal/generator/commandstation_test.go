package generator

import (
	"strings"
	"testing"
)

func TestCommandStationGenerate(t *testing.T) {
	t.Run("motor driver only", func(t *testing.T) {
		opts := CommandStation{MotorDriver: "STANDARD_MOTOR_SHIELD"}
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		if len(lines) != 1 {
			t.Fatalf("len(lines) = %d, want 1: %v", len(lines), lines)
		}
		if lines[0] != "#define MOTOR_SHIELD_TYPE STANDARD_MOTOR_SHIELD" {
			t.Errorf("lines[0] = %q", lines[0])
		}
		for _, line := range lines {
			if strings.Contains(line, "DRIVER") {
				t.Errorf("no display line expected, got %q", line)
			}
		}
	})

	t.Run("missing motor driver", func(t *testing.T) {
		lines, errs := CommandStation{}.Generate()
		if lines != nil {
			t.Errorf("lines = %v, want nil on validation failure", lines)
		}
		if len(errs) != 1 || errs[0] != "Motor driver not set" {
			t.Errorf("errs = %v", errs)
		}
	})

	t.Run("display selected", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver: "EX8874_SHIELD",
			Display:     "OLED 128 x 64",
		}
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		if !containsLine(lines, "#define OLED_DRIVER 128,64") {
			t.Errorf("lines = %v, want OLED driver line", lines)
		}
	})

	t.Run("station mode without SSID", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:  "STANDARD_MOTOR_SHIELD",
			EnableWiFi:   true,
			WiFiMode:     WiFiStation,
			WiFiHostname: "dccex",
			WiFiChannel:  1,
		}
		lines, errs := opts.Generate()
		if lines != nil {
			t.Errorf("lines = %v, want nil", lines)
		}
		found := false
		for _, e := range errs {
			if strings.Contains(e, "SSID") {
				found = true
			}
		}
		if !found {
			t.Errorf("errs = %v, want an SSID error", errs)
		}
	})

	t.Run("station mode", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:  "STANDARD_MOTOR_SHIELD",
			EnableWiFi:   true,
			WiFiMode:     WiFiStation,
			WiFiSSID:     "HomeNet",
			WiFiPassword: "secret",
			WiFiHostname: "dccex",
			WiFiChannel:  6,
		}
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		for _, want := range []string{
			`#define WIFI_HOSTNAME "dccex"`,
			`#define WIFI_SSID "HomeNet"`,
			`#define WIFI_PASSWORD "secret"`,
			"#define ENABLE_WIFI true",
			"#define WIFI_CHANNEL 6",
		} {
			if !containsLine(lines, want) {
				t.Errorf("lines missing %q: %v", want, lines)
			}
		}
	})

	t.Run("access point placeholders", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:  "STANDARD_MOTOR_SHIELD",
			EnableWiFi:   true,
			WiFiMode:     WiFiAccessPoint,
			WiFiHostname: "dccex",
			WiFiChannel:  1,
		}
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		if !containsLine(lines, `#define WIFI_SSID "Your network name"`) {
			t.Errorf("lines = %v, want placeholder SSID", lines)
		}
		if !containsLine(lines, `#define WIFI_PASSWORD "Your network passwd"`) {
			t.Errorf("lines = %v, want placeholder password", lines)
		}
	})

	t.Run("access point password length", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:  "STANDARD_MOTOR_SHIELD",
			EnableWiFi:   true,
			WiFiMode:     WiFiAccessPoint,
			WiFiPassword: "short",
			WiFiHostname: "dccex",
			WiFiChannel:  1,
		}
		_, errs := opts.Generate()
		if len(errs) != 1 || !strings.Contains(errs[0], "between 8 and 64") {
			t.Errorf("errs = %v", errs)
		}
	})

	t.Run("invalid password characters", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:  "STANDARD_MOTOR_SHIELD",
			EnableWiFi:   true,
			WiFiMode:     WiFiStation,
			WiFiSSID:     "HomeNet",
			WiFiPassword: `pass"word\`,
			WiFiHostname: "dccex",
			WiFiChannel:  1,
		}
		_, errs := opts.Generate()
		if len(errs) != 2 {
			t.Errorf("errs = %v, want backslash and quote errors", errs)
		}
	})

	t.Run("wifi and ethernet exclusive", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:    "STANDARD_MOTOR_SHIELD",
			EnableWiFi:     true,
			WiFiMode:       WiFiAccessPoint,
			WiFiHostname:   "dccex",
			WiFiChannel:    1,
			EnableEthernet: true,
		}
		_, errs := opts.Generate()
		if len(errs) != 1 || !strings.Contains(errs[0], "Ethernet and WiFi") {
			t.Errorf("errs = %v", errs)
		}
	})

	t.Run("ethernet only", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:    "STANDARD_MOTOR_SHIELD",
			EnableEthernet: true,
		}
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		if !containsLine(lines, "#define ENABLE_ETHERNET true") {
			t.Errorf("lines = %v", lines)
		}
	})

	t.Run("invalid wifi channel", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:  "STANDARD_MOTOR_SHIELD",
			EnableWiFi:   true,
			WiFiMode:     WiFiAccessPoint,
			WiFiHostname: "dccex",
			WiFiChannel:  12,
		}
		_, errs := opts.Generate()
		if len(errs) != 1 || !strings.Contains(errs[0], "1 to 11") {
			t.Errorf("errs = %v", errs)
		}
	})

	t.Run("current limit and switches", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:          "EX8874_SHIELD",
			OverrideCurrentLimit: true,
			CurrentLimit:         "3000",
			DisableEEPROM:        true,
			DisableProg:          true,
		}
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		for _, want := range []string{
			"#define MAX_CURRENT 3000",
			"#define DISABLE_EEPROM",
			"#define DISABLE_PROG",
		} {
			if !containsLine(lines, want) {
				t.Errorf("lines missing %q: %v", want, lines)
			}
		}
	})

	t.Run("non-numeric current limit", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:          "EX8874_SHIELD",
			OverrideCurrentLimit: true,
			CurrentLimit:         "lots",
		}
		_, errs := opts.Generate()
		if len(errs) != 1 || !strings.Contains(errs[0], "number in mA") {
			t.Errorf("errs = %v", errs)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		opts := CommandStation{
			MotorDriver:  "STANDARD_MOTOR_SHIELD",
			EnableWiFi:   true,
			WiFiMode:     WiFiStation,
			WiFiSSID:     "HomeNet",
			WiFiPassword: "secret",
			WiFiHostname: "dccex",
			WiFiChannel:  6,
		}
		first, _ := opts.Generate()
		second, _ := opts.Generate()
		if strings.Join(first, "\n") != strings.Join(second, "\n") {
			t.Error("Generate() is not deterministic")
		}
	})
}

func containsLine(lines []string, want string) bool {
	for _, line := range lines {
		if line == want {
			return true
		}
	}
	return false
}
