package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DCC-EX/EX-Installer-sub000/internal/arduino"
	"github.com/DCC-EX/EX-Installer-sub000/internal/fileman"
	"github.com/DCC-EX/EX-Installer-sub000/internal/generator"
	"github.com/DCC-EX/EX-Installer-sub000/internal/prefs"
	"github.com/DCC-EX/EX-Installer-sub000/internal/products"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
	"github.com/DCC-EX/EX-Installer-sub000/internal/version"
	"github.com/DCC-EX/EX-Installer-sub000/internal/wizard/ui"
)

var (
	// generate flags
	motorDriver    string
	displayType    string
	wifiMode       string
	wifiSSID       string
	wifiPassword   string
	wifiChannel    int
	enableEthernet bool
	currentLimit   string
	disableEEPROM  bool
	disableProg    bool
	powerOn        bool
	trackAMode     string
	trackALoco     string
	trackBMode     string
	trackBLoco     string
	i2cAddress     string
	enableDiag     bool
	diagDelay      string
	disablePullups bool
	traverser      bool
	homeState      string
	limitState     string
	manualPhase    bool
	phaseAngle     string
	stepperDriver  string
	stepperSpeed   string
	stepperAccel   string
	disableIdle    bool
	productVersion string

	// upload flags
	uploadPort string
	uploadFQBN string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(uploadCmd)
}

// checkCmd reports the state of the managed Arduino CLI.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the Arduino CLI installation",
	Long: `Report whether the managed Arduino CLI is installed, its version,
and the board platforms it has available.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cli, err := arduino.New()
	if err != nil {
		return err
	}

	fmt.Printf("Arduino CLI path: %s\n", cli.Path())
	if !cli.IsInstalled() {
		fmt.Println("Arduino CLI is not installed. Run 'ex-installer setup'.")
		return nil
	}

	p := ui.NewStepPrinter()
	env := p.RunStep(cli.Version())
	if env.Status == tasks.StatusError {
		return fmt.Errorf("%s", env.Text())
	}
	if doc, ok := env.Data.(map[string]any); ok {
		if v, ok := doc["VersionString"].(string); ok {
			fmt.Printf("\nInstalled version: %s\n", v)
		}
	}

	if env = p.RunStep(cli.Platforms()); env.Status == tasks.StatusError {
		return fmt.Errorf("%s", env.Text())
	}
	return nil
}

// generateCmd writes a product's configuration files from flags.
var generateCmd = &cobra.Command{
	Use:   "generate <product>",
	Short: "Generate configuration files for a product",
	Long: `Generate a product's configuration files into its working copy from
command line options, without the wizard. The same validation applies:
nothing is written unless every option is acceptable.`,
	Example: `  # Minimal EX-CommandStation config
  ex-installer generate ex_commandstation --motor-driver STANDARD_MOTOR_SHIELD

  # WiFi access point with track power on at startup
  ex-installer generate ex_commandstation --motor-driver EX8874_SHIELD \
    --wifi-mode ap --wifi-password mysecret1 --power-on

  # EX-Turntable in traverser mode
  ex-installer generate ex_turntable --traverser --stepper A4988`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&motorDriver, "motor-driver", "", "Motor driver definition name")
	f.StringVar(&displayType, "display", "", "Display type, e.g. 'OLED 128 x 64'")
	f.StringVar(&wifiMode, "wifi-mode", "", "WiFi mode: ap or station")
	f.StringVar(&wifiSSID, "wifi-ssid", "", "Network name for station mode")
	f.StringVar(&wifiPassword, "wifi-password", "", "Network password")
	f.IntVar(&wifiChannel, "wifi-channel", 1, "WiFi channel (1-11)")
	f.BoolVar(&enableEthernet, "ethernet", false, "Enable Ethernet")
	f.StringVar(&currentLimit, "current-limit", "", "Override the current limit in mA")
	f.BoolVar(&disableEEPROM, "disable-eeprom", false, "Disable EEPROM support")
	f.BoolVar(&disableProg, "disable-prog", false, "Disable the programming track")
	f.BoolVar(&powerOn, "power-on", false, "Turn track power on at startup")
	f.StringVar(&trackAMode, "track-a", "", "Track A mode (MAIN, PROG, DC, DCX)")
	f.StringVar(&trackALoco, "track-a-loco", "", "Track A loco/cab ID for DC modes")
	f.StringVar(&trackBMode, "track-b", "", "Track B mode (MAIN, PROG, DC, DCX)")
	f.StringVar(&trackBLoco, "track-b-loco", "", "Track B loco/cab ID for DC modes")
	f.StringVar(&i2cAddress, "i2c-address", "", "I2C address, e.g. 0x65")
	f.BoolVar(&enableDiag, "diag", false, "Enable diagnostic output")
	f.StringVar(&diagDelay, "diag-delay", "5", "Diagnostic interval in seconds")
	f.BoolVar(&disablePullups, "disable-pullups", false, "Disable I2C pullups")
	f.BoolVar(&traverser, "traverser", false, "Traverser mode instead of turntable")
	f.StringVar(&homeState, "home-state", "LOW", "Home sensor active state (LOW or HIGH)")
	f.StringVar(&limitState, "limit-state", "LOW", "Limit sensor active state (LOW or HIGH)")
	f.BoolVar(&manualPhase, "manual-phase", false, "Manual phase switching")
	f.StringVar(&phaseAngle, "phase-angle", "45", "Automatic phase switch angle (0-180)")
	f.StringVar(&stepperDriver, "stepper", "ULN2003_HALF_CW", "Stepper driver definition")
	f.StringVar(&stepperSpeed, "stepper-speed", "200", "Stepper maximum speed")
	f.StringVar(&stepperAccel, "stepper-accel", "25", "Stepper acceleration")
	f.BoolVar(&disableIdle, "disable-idle", false, "Disable outputs when idle")
	f.StringVar(&productVersion, "product-version", "local", "Version stamped into the header")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	product := products.ByKey(args[0])
	if product == nil {
		product = products.ByName(args[0])
	}
	if product == nil {
		return fmt.Errorf("unknown product %q", args[0])
	}

	dir, err := fileman.InstallDir(product.Key)
	if err != nil {
		return err
	}
	if !fileman.IsValidDir(dir) {
		return fmt.Errorf("%s has no working copy, run 'ex-installer versions %s' first", product.Name, product.Key)
	}

	var files map[string][]string
	var errs []string
	switch product.Key {
	case "ex_commandstation":
		files, errs = commandStationFromFlags()
	case "ex_ioexpander":
		lines, generr := ioExpanderFromFlags("0x65").Generate()
		files, errs = map[string][]string{"myConfig.h": lines}, generr
	case "ex_turntable":
		lines, generr := turntableFromFlags().Generate()
		files, errs = map[string][]string{"config.h": lines}, generr
	}

	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(cmd.ErrOrStderr(), e)
		}
		return fmt.Errorf("configuration not valid, nothing written")
	}

	existing := fileman.ConfigFiles(dir, product.ConfigPatterns())
	fileman.DeleteConfigFiles(dir, existing)

	for name, lines := range files {
		if len(lines) == 0 {
			continue
		}
		header := fileman.GeneratedBy(name, version.Version, product.Name, productVersion)
		if err := fileman.WriteConfigFile(filepath.Join(dir, name), header, lines); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", filepath.Join(dir, name))
	}
	return nil
}

func commandStationFromFlags() (map[string][]string, []string) {
	cs := generator.CommandStation{
		MotorDriver:          motorDriver,
		Display:              displayType,
		EnableWiFi:           wifiMode != "",
		WiFiSSID:             wifiSSID,
		WiFiPassword:         wifiPassword,
		WiFiHostname:         "dccex",
		WiFiChannel:          wifiChannel,
		EnableEthernet:       enableEthernet,
		OverrideCurrentLimit: currentLimit != "",
		CurrentLimit:         currentLimit,
		DisableEEPROM:        disableEEPROM,
		DisableProg:          disableProg,
	}
	if strings.EqualFold(wifiMode, "station") {
		cs.WiFiMode = generator.WiFiStation
	}

	lines, errs := cs.Generate()
	if errs == nil {
		lines = append(append([]string{}, generator.DefaultConfigLines...), lines...)
	}

	auto := generator.Automation{
		PowerOn:         powerOn,
		ConfigureTracks: trackAMode != "" || trackBMode != "",
		TrackAMode:      trackAMode,
		TrackALocoID:    trackALoco,
		TrackBMode:      trackBMode,
		TrackBLocoID:    trackBLoco,
	}
	autoLines, autoErrs := auto.Generate()
	errs = append(errs, autoErrs...)

	if len(errs) > 0 {
		return nil, errs
	}
	return map[string][]string{"config.h": lines, "myAutomation.h": autoLines}, nil
}

func ioExpanderFromFlags(defaultAddress string) generator.IOExpander {
	address := i2cAddress
	if address == "" {
		address = defaultAddress
	}
	return generator.IOExpander{
		I2CAddress:        parseAddressFlag(address),
		EnableDiag:        enableDiag,
		DiagDelay:         diagDelay,
		DisableI2CPullups: disablePullups,
	}
}

func turntableFromFlags() generator.Turntable {
	address := i2cAddress
	if address == "" {
		address = "0x60"
	}
	mode := generator.ModeTurntable
	if traverser {
		mode = generator.ModeTraverser
	}
	return generator.Turntable{
		I2CAddress:       parseAddressFlag(address),
		Mode:             mode,
		HomeSensorState:  generator.SensorState(homeState),
		LimitSensorState: generator.SensorState(limitState),
		PhaseSwitching:   !manualPhase,
		PhaseSwitchAngle: phaseAngle,
		StepperDriver:    stepperDriver,
		StepperSpeed:     stepperSpeed,
		StepperAccel:     stepperAccel,
		DisableOutputs:   disableIdle,
	}
}

func parseAddressFlag(s string) int {
	var n int
	if _, err := fmt.Sscanf(s, "0x%x", &n); err == nil {
		return n
	}
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
		return n
	}
	return -1
}

// uploadCmd compiles and uploads a product's working copy.
var uploadCmd = &cobra.Command{
	Use:   "upload <product>",
	Short: "Compile and upload a product to a device",
	Long: `Compile the product's working copy for a board and upload the result
over the given serial port. The configuration files must already exist;
use the wizard or 'ex-installer generate' to create them.`,
	Example: `  # Upload EX-CommandStation to a Mega
  ex-installer upload ex_commandstation --fqbn arduino:avr:mega --port /dev/ttyACM0

  # Board name works in place of the FQBN
  ex-installer upload ex_commandstation --fqbn "Arduino Uno" --port COM3`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadFQBN, "fqbn", "", "Board FQBN or supported device name")
	uploadCmd.Flags().StringVar(&uploadPort, "port", "", "Serial port (defaults to the last device used)")
	uploadCmd.MarkFlagRequired("fqbn")
}

func runUpload(cmd *cobra.Command, args []string) error {
	product := products.ByKey(args[0])
	if product == nil {
		product = products.ByName(args[0])
	}
	if product == nil {
		return fmt.Errorf("unknown product %q", args[0])
	}

	fqbn := uploadFQBN
	if resolved := arduino.FQBNFor(fqbn); resolved != "" {
		fqbn = resolved
	}
	if !product.SupportsFQBN(fqbn) {
		return fmt.Errorf("%s does not support board %s", product.Name, fqbn)
	}

	preferences, err := prefs.Load()
	if err != nil {
		return err
	}
	port := uploadPort
	if port == "" {
		port = preferences.LastDevicePort
	}
	if port == "" {
		return fmt.Errorf("no port given and none remembered, use --port")
	}

	dir, err := fileman.InstallDir(product.Key)
	if err != nil {
		return err
	}
	for _, required := range product.MinimumConfigFiles {
		if _, err := fileman.ReadTextFile(filepath.Join(dir, required)); err != nil {
			return fmt.Errorf("%s is missing, generate the configuration first", required)
		}
	}

	cli, err := arduino.New()
	if err != nil {
		return err
	}

	p := ui.NewStepPrinter()
	if env := p.RunStep(cli.Attach(fqbn, port, dir)); env.Status == tasks.StatusError {
		return fmt.Errorf("%s", env.Text())
	}
	if env := p.RunStep(cli.Compile(fqbn, dir)); env.Status == tasks.StatusError {
		return fmt.Errorf("%s", env.Text())
	}
	if env := p.RunStep(cli.Upload(fqbn, port, dir)); env.Status == tasks.StatusError {
		return fmt.Errorf("%s", env.Text())
	}

	preferences.LastDevicePort = port
	if err := prefs.Save(preferences); err != nil {
		return err
	}

	fmt.Printf("\n%s loaded onto %s. Run 'ex-installer monitor' to watch it start.\n", product.Name, port)
	return nil
}
