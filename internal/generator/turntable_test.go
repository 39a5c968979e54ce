package generator

import (
	"strings"
	"testing"
)

func TestTurntableGenerate(t *testing.T) {
	valid := Turntable{
		I2CAddress:      0x60,
		Mode:            ModeTurntable,
		HomeSensorState: SensorLow,
		StepperDriver:   "ULN2003_HALF_CW",
		StepperSpeed:    "200",
		StepperAccel:    "25",
	}

	t.Run("turntable mode", func(t *testing.T) {
		lines, errs := valid.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		for _, want := range []string{
			"#define I2C_ADDRESS 0x60",
			"#define TURNTABLE_EX_MODE TURNTABLE",
			"#define HOME_SENSOR_ACTIVE_STATE LOW",
			"#define PHASE_SWITCHING MANUAL",
			"#define STEPPER_DRIVER ULN2003_HALF_CW",
			"#define STEPPER_MAX_SPEED 200",
			"#define STEPPER_ACCELERATION 25",
		} {
			if !containsLine(lines, want) {
				t.Errorf("lines missing %q: %v", want, lines)
			}
		}
		if containsLine(lines, "#define LIMIT_SENSOR_ACTIVE_STATE LOW") {
			t.Error("limit sensor line only applies to traverser mode")
		}
	})

	t.Run("traverser needs limit sensor", func(t *testing.T) {
		opts := valid
		opts.Mode = ModeTraverser
		_, errs := opts.Generate()
		if len(errs) != 1 || !strings.Contains(errs[0], "Limit sensor") {
			t.Errorf("errs = %v", errs)
		}

		opts.LimitSensorState = SensorHigh
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		if !containsLine(lines, "#define TURNTABLE_EX_MODE TRAVERSER") ||
			!containsLine(lines, "#define LIMIT_SENSOR_ACTIVE_STATE HIGH") {
			t.Errorf("lines = %v", lines)
		}
	})

	t.Run("phase switching angle", func(t *testing.T) {
		opts := valid
		opts.PhaseSwitching = true
		opts.PhaseSwitchAngle = "45"
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		if !containsLine(lines, "#define PHASE_SWITCHING AUTO") ||
			!containsLine(lines, "#define PHASE_SWITCH_ANGLE 45") {
			t.Errorf("lines = %v", lines)
		}

		opts.PhaseSwitchAngle = "181"
		if _, errs := opts.Generate(); len(errs) != 1 {
			t.Errorf("errs = %v, want angle range error", errs)
		}
	})

	t.Run("invalid stepper settings", func(t *testing.T) {
		opts := valid
		opts.StepperDriver = "WARP_DRIVE"
		opts.StepperSpeed = "fast"
		_, errs := opts.Generate()
		if len(errs) != 2 {
			t.Errorf("errs = %v, want driver and speed errors", errs)
		}
	})
}
