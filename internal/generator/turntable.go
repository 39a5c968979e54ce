package generator

import (
	"fmt"
	"strconv"
)

// TurntableMode selects whether the device rotates a turntable or
// slides a traverser.
type TurntableMode int

const (
	ModeTurntable TurntableMode = iota
	ModeTraverser
)

// SensorState is the electrical level a sensor reports when triggered.
type SensorState string

const (
	SensorLow  SensorState = "LOW"
	SensorHigh SensorState = "HIGH"
)

// StepperDrivers lists the supported stepper controller definitions.
var StepperDrivers = []string{"ULN2003_HALF_CW", "ULN2003_FULL_CW", "A4988", "DRV8825", "TMC2208"}

// Turntable holds the config.h options for EX-Turntable.
type Turntable struct {
	I2CAddress       int
	Mode             TurntableMode
	HomeSensorState  SensorState
	LimitSensorState SensorState

	PhaseSwitching   bool
	PhaseSwitchAngle string

	StepperDriver  string
	StepperSpeed   string
	StepperAccel   string
	DisableOutputs bool
}

// Generate validates the options and returns the config.h lines.
func (o Turntable) Generate() (lines []string, errs []string) {
	if o.I2CAddress < 0x08 || o.I2CAddress > 0x77 {
		errs = append(errs, "I²C address must be between 0x8 and 0x77")
	} else {
		lines = append(lines, fmt.Sprintf("#define I2C_ADDRESS 0x%02X", o.I2CAddress))
	}

	if o.Mode == ModeTraverser {
		lines = append(lines, "#define TURNTABLE_EX_MODE TRAVERSER")
		if o.LimitSensorState != SensorLow && o.LimitSensorState != SensorHigh {
			errs = append(errs, "Limit sensor active state must be LOW or HIGH")
		} else {
			lines = append(lines, "#define LIMIT_SENSOR_ACTIVE_STATE "+string(o.LimitSensorState))
		}
	} else {
		lines = append(lines, "#define TURNTABLE_EX_MODE TURNTABLE")
	}

	if o.HomeSensorState != SensorLow && o.HomeSensorState != SensorHigh {
		errs = append(errs, "Home sensor active state must be LOW or HIGH")
	} else {
		lines = append(lines, "#define HOME_SENSOR_ACTIVE_STATE "+string(o.HomeSensorState))
	}

	if o.PhaseSwitching {
		lines = append(lines, "#define PHASE_SWITCHING AUTO")
		if angle, err := strconv.Atoi(o.PhaseSwitchAngle); err != nil || angle < 0 || angle > 180 {
			errs = append(errs, "Phase switch angle must be from 0 to 180 degrees")
		} else {
			lines = append(lines, "#define PHASE_SWITCH_ANGLE "+o.PhaseSwitchAngle)
		}
	} else {
		lines = append(lines, "#define PHASE_SWITCHING MANUAL")
	}

	if !validStepperDriver(o.StepperDriver) {
		errs = append(errs, "Stepper driver not set")
	} else {
		lines = append(lines, "#define STEPPER_DRIVER "+o.StepperDriver)
	}
	if _, err := strconv.Atoi(o.StepperSpeed); err != nil {
		errs = append(errs, "Stepper maximum speed must be a whole number")
	} else {
		lines = append(lines, "#define STEPPER_MAX_SPEED "+o.StepperSpeed)
	}
	if _, err := strconv.Atoi(o.StepperAccel); err != nil {
		errs = append(errs, "Stepper acceleration must be a whole number")
	} else {
		lines = append(lines, "#define STEPPER_ACCELERATION "+o.StepperAccel)
	}
	if o.DisableOutputs {
		lines = append(lines, "#define DISABLE_OUTPUTS_IDLE")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return lines, nil
}

func validStepperDriver(driver string) bool {
	for _, d := range StepperDrivers {
		if d == driver {
			return true
		}
	}
	return false
}
