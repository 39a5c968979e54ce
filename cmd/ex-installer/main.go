// Ex-installer installs DCC-EX firmware products onto Arduino-class
// devices.
//
// It manages its own copy of the Arduino CLI, clones the product
// source repositories, generates the configuration headers from user
// selections, and compiles and uploads the result. A serial monitor
// with DCC-EX aware highlighting is built in.
//
// Usage:
//
//	ex-installer [command] [flags]
//
// Running without arguments launches the interactive wizard.
// See 'ex-installer --help' for the scripted commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DCC-EX/EX-Installer-sub000/internal/fileman"
	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var debugLogging bool

var rootCmd = &cobra.Command{
	Use:   "ex-installer",
	Short: "DCC-EX firmware installer",
	Long: `The installer for DCC-EX firmware products.

Sets up the Arduino CLI, downloads the product source, generates the
configuration files, and loads the firmware onto your device.

If no command is specified, the interactive wizard will launch
automatically.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logDir, err := fileman.LogDir()
		if err != nil {
			return err
		}
		return logging.Initialize(logDir, debugLogging)
	},
	RunE: runWizard,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Log at debug level")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ex-installer %s (commit: %s)\n", version.Version, version.Commit)
	},
}
