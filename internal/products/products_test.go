package products

import "testing"

func TestByKey(t *testing.T) {
	t.Run("known product", func(t *testing.T) {
		p := ByKey("ex_commandstation")
		if p == nil {
			t.Fatal("Expected product for ex_commandstation")
		}
		if p.Name != "EX-CommandStation" {
			t.Errorf("Expected EX-CommandStation, got %s", p.Name)
		}
		if p.DefaultBranch != "master" {
			t.Errorf("Expected master branch, got %s", p.DefaultBranch)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		if p := ByKey("ex_flux_capacitor"); p != nil {
			t.Errorf("Expected nil, got %v", p)
		}
	})
}

func TestSupportsFQBN(t *testing.T) {
	cs := ByKey("ex_commandstation")
	tt := ByKey("ex_turntable")

	if !cs.SupportsFQBN("esp32:esp32:esp32") {
		t.Error("EX-CommandStation should support ESP32")
	}
	if tt.SupportsFQBN("esp32:esp32:esp32") {
		t.Error("EX-Turntable should not support ESP32")
	}
}

func TestConfigPatterns(t *testing.T) {
	cs := ByKey("ex_commandstation")
	patterns := cs.ConfigPatterns()

	if patterns[0] != "config.h" {
		t.Errorf("Expected config.h first, got %s", patterns[0])
	}
	if len(patterns) != 3 {
		t.Errorf("Expected 3 patterns, got %d", len(patterns))
	}

	// ConfigPatterns must not alias the underlying table
	patterns[0] = "mutated"
	if cs.MinimumConfigFiles[0] != "config.h" {
		t.Error("ConfigPatterns leaked a mutable reference to the product table")
	}
}

func TestIsEditable(t *testing.T) {
	for _, name := range EditableFiles {
		if !IsEditable(name) {
			t.Errorf("IsEditable(%q) = false", name)
		}
	}
	if IsEditable("myHal.cpp") {
		t.Error("myHal.cpp should not be directly editable")
	}
	if IsEditable("Config.h") {
		t.Error("File name matching must be exact")
	}
}
