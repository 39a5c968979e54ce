package generator

import (
	"regexp"
	"strings"
)

// motorDriverPattern matches one driver definition in MotorDrivers.h,
// capturing the definition name ahead of its display string.
var motorDriverPattern = regexp.MustCompile(`^.+?\s(.+?)\sF\(".+?"\).*$`)

// ParseMotorDrivers extracts the motor driver definition names from
// MotorDrivers.h content.
func ParseMotorDrivers(content string) []string {
	var drivers []string
	for _, line := range strings.Split(content, "\n") {
		if m := motorDriverPattern.FindStringSubmatch(line); m != nil {
			drivers = append(drivers, m[1])
		}
	}
	return drivers
}

// FilterMotorDrivers narrows a driver list to what the selected
// hardware can use. With a DCC-EX device code only that device's
// drivers remain; otherwise every device-specific driver is removed so
// generic boards see only generic drivers.
func FilterMotorDrivers(drivers []string, deviceCode string, deviceCodes []string) []string {
	var filtered []string
	for _, driver := range drivers {
		if deviceCode != "" {
			if strings.HasPrefix(driver, deviceCode+"_") {
				filtered = append(filtered, driver)
			}
			continue
		}
		specific := false
		for _, code := range deviceCodes {
			if strings.HasPrefix(driver, code+"_") {
				specific = true
				break
			}
		}
		if !specific {
			filtered = append(filtered, driver)
		}
	}
	return filtered
}
