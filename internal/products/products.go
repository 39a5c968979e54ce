// Package products holds the static descriptor table for the firmware
// products the installer can set up. The table is read-only and loaded
// at startup; everything else in the application keys off it.
package products

// Product describes one installable firmware product.
type Product struct {
	// Key is the stable identifier used for directories and preferences
	Key string
	// Name is the display name
	Name string
	// RepoName is the GitHub owner/repo shorthand
	RepoName string
	// RepoURL is the clone URL; the remote is always "origin"
	RepoURL string
	// DefaultBranch is checked out before version selection
	DefaultBranch string
	// SupportedFQBNs lists the fully qualified board names the product
	// can be compiled for
	SupportedFQBNs []string
	// MinimumConfigFiles must all exist before compiling
	MinimumConfigFiles []string
	// OtherConfigPatterns are regexes (with one capture group) or plain
	// filenames matching optional user configuration files
	OtherConfigPatterns []string
	// ArduinoLibraries are installed alongside the platform packages
	ArduinoLibraries []string
	// Logo is the banner shown on product screens
	Logo string
}

// All is the product table, in menu order.
var All = []Product{
	{
		Key:           "ex_commandstation",
		Name:          "EX-CommandStation",
		RepoName:      "DCC-EX/CommandStation-EX",
		RepoURL:       "https://github.com/DCC-EX/CommandStation-EX.git",
		DefaultBranch: "master",
		SupportedFQBNs: []string{
			"arduino:avr:uno",
			"arduino:avr:nano",
			"arduino:avr:nano:cpu=atmega328",
			"arduino:avr:mega",
			"esp32:esp32:esp32",
			"STMicroelectronics:stm32:Nucleo_64:pnum=NUCLEO_F411RE",
			"STMicroelectronics:stm32:Nucleo_64:pnum=NUCLEO_F446RE",
		},
		MinimumConfigFiles: []string{"config.h"},
		OtherConfigPatterns: []string{
			`^my.*\.[^?]*example\.cpp$|(^my.*\.cpp$)`,
			`^my.*\.[^?]*example\.h$|(^my.*\.h$)`,
		},
		Logo: "EX-CommandStation",
	},
	{
		Key:           "ex_ioexpander",
		Name:          "EX-IOExpander",
		RepoName:      "DCC-EX/EX-IOExpander",
		RepoURL:       "https://github.com/DCC-EX/EX-IOExpander.git",
		DefaultBranch: "main",
		SupportedFQBNs: []string{
			"arduino:avr:uno",
			"arduino:avr:nano",
			"arduino:avr:nano:cpu=atmega328",
			"arduino:avr:mega",
			"STMicroelectronics:stm32:Nucleo_64:pnum=NUCLEO_F411RE",
		},
		MinimumConfigFiles: []string{"myConfig.h"},
		Logo:               "EX-IOExpander",
	},
	{
		Key:           "ex_turntable",
		Name:          "EX-Turntable",
		RepoName:      "DCC-EX/EX-Turntable",
		RepoURL:       "https://github.com/DCC-EX/EX-Turntable.git",
		DefaultBranch: "main",
		SupportedFQBNs: []string{
			"arduino:avr:uno",
			"arduino:avr:nano",
			"arduino:avr:nano:cpu=atmega328",
		},
		MinimumConfigFiles: []string{"config.h"},
		Logo:               "EX-Turntable",
	},
}

// EditableFiles are the configuration files the wizard offers for direct
// text editing after generation.
var EditableFiles = []string{"config.h", "myAutomation.h"}

// IsEditable reports whether name is one of the directly editable
// configuration files.
func IsEditable(name string) bool {
	for _, f := range EditableFiles {
		if f == name {
			return true
		}
	}
	return false
}

// LibraryDependencies collects every Arduino library any product needs,
// deduplicated, for the CLI setup step.
func LibraryDependencies() []string {
	seen := make(map[string]bool)
	var libraries []string
	for _, p := range All {
		for _, lib := range p.ArduinoLibraries {
			if !seen[lib] {
				seen[lib] = true
				libraries = append(libraries, lib)
			}
		}
	}
	return libraries
}

// ByKey returns the product with the given key, or nil when unknown.
func ByKey(key string) *Product {
	for i := range All {
		if All[i].Key == key {
			return &All[i]
		}
	}
	return nil
}

// ByName returns the product with the given display name, or nil.
func ByName(name string) *Product {
	for i := range All {
		if All[i].Name == name {
			return &All[i]
		}
	}
	return nil
}

// ConfigPatterns returns the product's minimum config filenames plus its
// optional config patterns, the order fileman.ConfigFiles expects.
func (p *Product) ConfigPatterns() []string {
	patterns := append([]string{}, p.MinimumConfigFiles...)
	return append(patterns, p.OtherConfigPatterns...)
}

// SupportsFQBN reports whether the product can be installed on the
// given fully qualified board name.
func (p *Product) SupportsFQBN(fqbn string) bool {
	for _, f := range p.SupportedFQBNs {
		if f == fqbn {
			return true
		}
	}
	return false
}
