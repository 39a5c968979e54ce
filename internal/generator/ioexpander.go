package generator

import (
	"fmt"
	"strconv"
)

// TestMode selects the EX-IOExpander hardware self-test, if any.
type TestMode int

const (
	TestNone TestMode = iota
	TestAnalogue
	TestInput
	TestOutput
	TestPullup
)

var testModeLines = map[TestMode]string{
	TestAnalogue: "#define TEST_MODE ANALOGUE_TEST",
	TestInput:    "#define TEST_MODE INPUT_TEST",
	TestOutput:   "#define TEST_MODE OUTPUT_TEST",
	TestPullup:   "#define TEST_MODE PULLUP_TEST",
}

// IOExpander holds the myConfig.h options for EX-IOExpander.
type IOExpander struct {
	I2CAddress        int
	EnableDiag        bool
	DiagDelay         string
	TestMode          TestMode
	DisableI2CPullups bool
}

// Generate validates the options and returns the myConfig.h lines.
func (o IOExpander) Generate() (lines []string, errs []string) {
	if o.I2CAddress < 0x08 || o.I2CAddress > 0x77 {
		errs = append(errs, "I²C address must be between 0x8 and 0x77")
	} else {
		lines = append(lines, fmt.Sprintf("#define I2C_ADDRESS 0x%02X", o.I2CAddress))
	}

	if o.EnableDiag {
		lines = append(lines, "#define DIAG")
	}
	if _, err := strconv.Atoi(o.DiagDelay); err != nil {
		errs = append(errs, "Diagnostic display interval must be in whole seconds")
	} else {
		lines = append(lines, "#define DIAG_CONFIG_DELAY "+o.DiagDelay)
	}

	if line, ok := testModeLines[o.TestMode]; ok {
		lines = append(lines, line)
	}
	if o.DisableI2CPullups {
		lines = append(lines, "#define DISABLE_I2C_PULLUPS")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return lines, nil
}
