// Package prefs persists installer preferences between runs as a YAML
// file under the installer base directory.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/DCC-EX/EX-Installer-sub000/internal/fileman"
)

const (
	prefsDirName  = "user-config"
	prefsFileName = "ex-installer-preferences.yaml"
)

// Preferences holds the remembered user choices. Zero value is a valid
// first-run state.
type Preferences struct {
	// SelectedProduct is the key of the last product installed
	SelectedProduct string `yaml:"selected_product,omitempty"`
	// AdvancedConfig re-enables the advanced configuration screen
	AdvancedConfig bool `yaml:"advanced_config"`
	// LastDevicePort is the serial port last uploaded to
	LastDevicePort string `yaml:"last_device_port,omitempty"`
	// MonitorBaud is the serial monitor baud rate
	MonitorBaud int `yaml:"monitor_baud,omitempty"`
}

var fileMutex sync.Mutex

// Path returns the full path of the preferences file.
func Path() (string, error) {
	base, err := fileman.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, prefsDirName, prefsFileName), nil
}

// Load reads the preferences file. A missing file returns defaults, not
// an error.
func Load() (*Preferences, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	fileMutex.Lock()
	defer fileMutex.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read preferences: %w", err)
	}

	p := defaults()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("could not parse preferences: %w", err)
	}
	return p, nil
}

// Save writes the preferences file, creating the user-config directory
// when needed.
func Save(p *Preferences) error {
	path, err := Path()
	if err != nil {
		return err
	}

	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := fileman.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("could not encode preferences: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write preferences: %w", err)
	}
	return nil
}

func defaults() *Preferences {
	return &Preferences{MonitorBaud: 115200}
}
