package generator

import (
	"reflect"
	"strings"
	"testing"
)

func TestAutomationGenerate(t *testing.T) {
	t.Run("nothing enabled", func(t *testing.T) {
		lines, errs := Automation{}.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		if len(lines) != 0 {
			t.Errorf("lines = %v, want none", lines)
		}
	})

	t.Run("power on only", func(t *testing.T) {
		lines, errs := Automation{PowerOn: true}.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		want := []string{"AUTOSTART", "POWERON", "DONE", ""}
		if !reflect.DeepEqual(lines, want) {
			t.Errorf("lines = %v, want %v", lines, want)
		}
	})

	t.Run("main and prog tracks", func(t *testing.T) {
		opts := Automation{
			ConfigureTracks: true,
			TrackAMode:      "MAIN",
			TrackALocoID:    "1",
			TrackBMode:      "PROG",
			TrackBLocoID:    "1",
		}
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		want := []string{"AUTOSTART", "SET_TRACK(A,MAIN)", "SET_TRACK(B,PROG)", "DONE", ""}
		if !reflect.DeepEqual(lines, want) {
			t.Errorf("lines = %v, want %v", lines, want)
		}
	})

	t.Run("DC track gets loco and roster", func(t *testing.T) {
		opts := Automation{
			PowerOn:         true,
			ConfigureTracks: true,
			TrackAMode:      "DC",
			TrackALocoID:    "3",
			TrackBMode:      "DCX",
			TrackBLocoID:    "10293",
		}
		lines, errs := opts.Generate()
		if errs != nil {
			t.Fatalf("Generate() errs = %v", errs)
		}
		want := []string{
			"AUTOSTART",
			"POWERON",
			"SETLOCO(3) SET_TRACK(A,DC)",
			"SETLOCO(10293) SET_TRACK(B,DCX)",
			"DONE",
			"",
			`ROSTER(3,"DC TRACK A","/* /")`,
			`ROSTER(10293,"DC TRACK B","/* /")`,
		}
		if !reflect.DeepEqual(lines, want) {
			t.Errorf("lines = %v, want %v", lines, want)
		}
	})

	t.Run("loco ID out of range", func(t *testing.T) {
		opts := Automation{
			ConfigureTracks: true,
			TrackAMode:      "DC",
			TrackALocoID:    "0",
			TrackBMode:      "MAIN",
			TrackBLocoID:    "10294",
		}
		lines, errs := opts.Generate()
		if lines != nil {
			t.Errorf("lines = %v, want nil", lines)
		}
		if len(errs) != 2 {
			t.Fatalf("errs = %v, want 2", errs)
		}
		if !strings.Contains(errs[0], "Track A") || !strings.Contains(errs[1], "Track B") {
			t.Errorf("errs = %v", errs)
		}
	})

	t.Run("non-numeric loco ID", func(t *testing.T) {
		opts := Automation{
			ConfigureTracks: true,
			TrackAMode:      "MAIN",
			TrackALocoID:    "three",
			TrackBMode:      "MAIN",
			TrackBLocoID:    "1",
		}
		_, errs := opts.Generate()
		if len(errs) != 1 || !strings.Contains(errs[0], "1 to 10293") {
			t.Errorf("errs = %v", errs)
		}
	})
}
