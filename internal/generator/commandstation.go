// Package generator builds firmware configuration header lines from
// user selections. Every generator is a pure function over its options
// struct: it returns either the configuration lines to write or the
// validation errors preventing them, and never touches the filesystem.
package generator

import (
	"fmt"
	"strconv"
	"strings"
)

// WiFiMode selects how the CommandStation joins a network.
type WiFiMode int

const (
	// WiFiAccessPoint has the CommandStation run its own network.
	WiFiAccessPoint WiFiMode = iota
	// WiFiStation joins an existing wireless network.
	WiFiStation
)

// Displays maps display menu names to their config.h lines.
var Displays = map[string]string{
	"LCD 16 columns x 2 rows": "#define LCD_DRIVER 0x27,16,2",
	"LCD 20 columns x 4 rows": "#define LCD_DRIVER 0x27,20,4",
	"OLED 128 x 32":           "#define OLED_DRIVER 128,32",
	"OLED 128 x 64":           "#define OLED_DRIVER 128,64",
	"OLED 132 x 64":           "#define OLED_DRIVER 132,64",
}

// TrackManagerModes lists the selectable operating modes for each
// track output.
var TrackManagerModes = []string{"MAIN", "PROG", "DC", "DCX"}

// DefaultConfigLines are always written to config.h ahead of the
// generated options.
var DefaultConfigLines = []string{
	"#define IP_PORT 2560",
	"#define SCROLLMODE 1",
}

// CommandStation holds the config.h options for EX-CommandStation.
type CommandStation struct {
	MotorDriver string
	Display     string

	EnableWiFi   bool
	WiFiMode     WiFiMode
	WiFiSSID     string
	WiFiPassword string
	WiFiHostname string
	WiFiChannel  int

	EnableEthernet bool

	OverrideCurrentLimit bool
	CurrentLimit         string

	DisableEEPROM bool
	DisableProg   bool
}

// Generate validates the options and returns the config.h lines, or
// the validation errors when any option is unset or out of range.
func (o CommandStation) Generate() (lines []string, errs []string) {
	if o.MotorDriver == "" {
		errs = append(errs, "Motor driver not set")
	} else {
		lines = append(lines, "#define MOTOR_SHIELD_TYPE "+o.MotorDriver)
	}

	if o.Display != "" {
		line, ok := Displays[o.Display]
		if !ok {
			errs = append(errs, fmt.Sprintf("Unknown display type %q", o.Display))
		} else {
			lines = append(lines, line)
		}
	}

	if o.EnableWiFi && o.EnableEthernet {
		errs = append(errs, "Can not have both Ethernet and WiFi enabled")
	}

	if o.EnableWiFi {
		lines = append(lines, fmt.Sprintf("#define WIFI_HOSTNAME %q", o.WiFiHostname))
		switch o.WiFiMode {
		case WiFiAccessPoint:
			lines = append(lines, `#define WIFI_SSID "Your network name"`)
			if o.WiFiPassword == "" {
				lines = append(lines, `#define WIFI_PASSWORD "Your network passwd"`)
			} else if issues := wifiPasswordErrors(o.WiFiPassword, true); len(issues) > 0 {
				errs = append(errs, issues...)
			} else {
				lines = append(lines, fmt.Sprintf("#define WIFI_PASSWORD %q", o.WiFiPassword))
			}
		case WiFiStation:
			if o.WiFiSSID == "" {
				errs = append(errs, "WiFi SSID/name not set")
			} else {
				lines = append(lines, fmt.Sprintf("#define WIFI_SSID %q", o.WiFiSSID))
			}
			if issues := wifiPasswordErrors(o.WiFiPassword, false); len(issues) > 0 {
				errs = append(errs, issues...)
			} else {
				lines = append(lines, fmt.Sprintf("#define WIFI_PASSWORD %q", o.WiFiPassword))
			}
		}
		if !o.EnableEthernet {
			lines = append(lines, "#define ENABLE_WIFI true")
		}
		if o.WiFiChannel < 1 || o.WiFiChannel > 11 {
			errs = append(errs, "WiFi channel must be from 1 to 11")
		} else {
			lines = append(lines, fmt.Sprintf("#define WIFI_CHANNEL %d", o.WiFiChannel))
		}
	}

	if o.EnableEthernet && !o.EnableWiFi {
		lines = append(lines, "#define ENABLE_ETHERNET true")
	}

	if o.OverrideCurrentLimit {
		if _, err := strconv.Atoi(o.CurrentLimit); err != nil {
			errs = append(errs, "Current limit must be a number in mA")
		} else {
			lines = append(lines, "#define MAX_CURRENT "+o.CurrentLimit)
		}
	}

	if o.DisableEEPROM {
		lines = append(lines, "#define DISABLE_EEPROM")
	}
	if o.DisableProg {
		lines = append(lines, "#define DISABLE_PROG")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return lines, nil
}

// wifiPasswordErrors validates a WiFi password. Access point networks
// require a WPA length; both modes reject characters the generated
// header cannot carry.
func wifiPasswordErrors(password string, accessPoint bool) []string {
	var errs []string
	if accessPoint && (len(password) < 8 || len(password) > 64) {
		errs = append(errs, "WiFi Password must be between 8 and 64 characters")
	}
	if strings.Contains(password, `\`) {
		errs = append(errs, `WiFi password cannot contain \`)
	}
	if strings.Contains(password, `"`) {
		errs = append(errs, `WiFi password cannot contain "`)
	}
	return errs
}
