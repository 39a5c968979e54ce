package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/DCC-EX/EX-Installer-sub000/internal/arduino"
	"github.com/DCC-EX/EX-Installer-sub000/internal/discovery"
	"github.com/DCC-EX/EX-Installer-sub000/internal/fileman"
	"github.com/DCC-EX/EX-Installer-sub000/internal/gitclient"
	"github.com/DCC-EX/EX-Installer-sub000/internal/monitor"
	"github.com/DCC-EX/EX-Installer-sub000/internal/prefs"
	"github.com/DCC-EX/EX-Installer-sub000/internal/products"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
	"github.com/DCC-EX/EX-Installer-sub000/internal/wizard/tui"
	"github.com/DCC-EX/EX-Installer-sub000/internal/wizard/ui"
)

var (
	scanTimeout int
	monitorPort string
	monitorBaud int
	listenAddr  string
)

func init() {
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(boardsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(wizardCmd)
}

// wizardCmd launches the interactive TUI wizard, also the default when
// no subcommand is given.
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Launch the interactive installer wizard",
	Long: `Launch the interactive wizard.

The wizard walks through the whole installation: Arduino CLI setup,
device selection, product and version selection, configuration, and
the upload itself.`,
	RunE: runWizard,
}

func runWizard(cmd *cobra.Command, args []string) error {
	cli, err := arduino.New()
	if err != nil {
		return err
	}
	preferences, err := prefs.Load()
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewAppModel(cli, gitclient.New(), preferences), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("wizard error: %w", err)
	}
	return nil
}

// setupCmd installs or refreshes the managed Arduino CLI without the
// wizard.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install or refresh the Arduino CLI and platforms",
	Long: `Install the managed Arduino CLI, register the extra board
platforms, and install the platform packages and libraries the
supported products need. Safe to re-run; an existing installation is
refreshed and upgraded.`,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	cli, err := arduino.New()
	if err != nil {
		return err
	}
	p := ui.NewStepPrinter()

	if !cli.IsInstalled() {
		env := p.RunStep(cli.Download())
		if env.Status == tasks.StatusError {
			return fmt.Errorf("%s", env.Text())
		}
		archive, _ := env.Data.(string)
		if env = p.RunStep(cli.Install(archive)); env.Status == tasks.StatusError {
			return fmt.Errorf("%s", env.Text())
		}
	}

	steps := []func() *tasks.Runner{
		cli.InitConfig,
		cli.UpdateIndex,
	}
	for _, platform := range arduino.ExtraPlatforms {
		id := platform.ID
		steps = append(steps, func() *tasks.Runner { return cli.InstallPackage(id) })
	}
	for _, library := range products.LibraryDependencies() {
		lib := library
		steps = append(steps, func() *tasks.Runner { return cli.InstallLibrary(lib) })
	}
	steps = append(steps, cli.UpgradePlatforms)

	for _, step := range steps {
		if env := p.RunStep(step()); env.Status == tasks.StatusError {
			return fmt.Errorf("%s", env.Text())
		}
	}

	fmt.Println("\nArduino CLI ready. Run 'ex-installer boards' to scan for devices.")
	return nil
}

// boardsCmd scans for attached devices.
var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List attached devices",
	Long: `Scan the serial ports for attached devices and report what the
Arduino CLI identified on each one.`,
	RunE: runBoards,
}

func runBoards(cmd *cobra.Command, args []string) error {
	cli, err := arduino.New()
	if err != nil {
		return err
	}
	p := ui.NewStepPrinter()

	env := p.RunStep(cli.ListBoards())
	if env.Status == tasks.StatusError {
		return fmt.Errorf("%s", env.Text())
	}

	if len(cli.DetectedDevices) == 0 {
		fmt.Println("\nNo devices found. Connect your device and check its USB cable.")
		return nil
	}

	fmt.Printf("\nFound %d device(s):\n\n", len(cli.DetectedDevices))
	for _, device := range cli.DetectedDevices {
		fmt.Printf("  %s\n", device.Port)
		switch {
		case len(device.MatchingBoards) == 0:
			fmt.Println("    unknown device")
		default:
			for _, board := range device.MatchingBoards {
				fmt.Printf("    %s (%s)\n", board.Name, board.FQBN)
			}
		}
	}
	return nil
}

// scanCmd looks for WiFi CommandStations on the local network.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the network for WiFi CommandStations",
	Long: `Scan for running CommandStations using mDNS/DNS-SD discovery and
display each one with its address and metadata.`,
	RunE: runNetworkScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runNetworkScan(cmd *cobra.Command, args []string) error {
	scanner := &discovery.Scanner{Timeout: time.Duration(scanTimeout) * time.Second}
	p := ui.NewStepPrinter()

	env := p.RunStep(scanner.RunScan())
	if env.Status == tasks.StatusError {
		return fmt.Errorf("%s", env.Text())
	}

	stations, _ := env.Data.([]discovery.CommandStation)
	if len(stations) == 0 {
		fmt.Println("\nNo CommandStations found.")
		fmt.Println("WiFi CommandStations announce themselves once track power is on.")
		return nil
	}

	fmt.Printf("\nFound %d CommandStation(s):\n\n", len(stations))
	for _, cs := range stations {
		fmt.Printf("  %s at %s\n", cs.Name, cs.Address())
		for key, value := range cs.Metadata {
			fmt.Printf("    %s: %s\n", key, value)
		}
	}
	return nil
}

// versionsCmd lists the installable releases of a product.
var versionsCmd = &cobra.Command{
	Use:   "versions <product>",
	Short: "List the installable versions of a product",
	Long: `Clone or update the product source repository and list its release
versions, newest first. The product is named by key or display name,
for example ex_commandstation or EX-CommandStation.`,
	Args: cobra.ExactArgs(1),
	RunE: runVersions,
}

func runVersions(cmd *cobra.Command, args []string) error {
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

	client := gitclient.New()
	p := ui.NewStepPrinter()

	if !client.IsRepo(dir) {
		env := p.RunStep(client.RunClone(product.RepoURL, dir))
		if env.Status == tasks.StatusError {
			return fmt.Errorf("%s", env.Text())
		}
	}

	repo, err := client.Open(dir)
	if err != nil {
		return err
	}
	changes, err := client.LocalChanges(repo)
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		return fmt.Errorf("%s has local changes, commit or revert them before continuing:\n  %s",
			dir, strings.Join(changes, "\n  "))
	}
	if err := client.CheckoutBranch(repo, product.DefaultBranch); err != nil {
		return err
	}
	if env := p.RunStep(client.RunPull(repo, product.DefaultBranch)); env.Status == tasks.StatusError {
		return fmt.Errorf("%s", env.Text())
	}

	versions, err := client.ListVersions(repo)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Printf("\nNo releases found for %s.\n", product.Name)
		return nil
	}

	latestProd, _ := gitclient.LatestProd(versions)
	latestDevel, _ := gitclient.LatestDevel(versions)

	fmt.Printf("\n%s versions:\n\n", product.Name)
	for _, v := range versions {
		switch v.Tag {
		case latestProd.Tag:
			fmt.Printf("  %s  (latest release)\n", v.Tag)
		case latestDevel.Tag:
			fmt.Printf("  %s  (latest development build)\n", v.Tag)
		default:
			fmt.Printf("  %s\n", v.Tag)
		}
	}
	return nil
}

// monitorCmd attaches a plain-text serial monitor to a device.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Open the serial monitor",
	Long: `Attach to a device's serial port and print its output. Lines typed
on standard input are sent to the device as commands.

With --listen, a WebSocket endpoint at ws://<addr>/monitor rebroadcasts
every line to connected clients, so the device output can be watched
from a browser or another tool.`,
	Example: `  # Monitor the device found last run
  ex-installer monitor

  # Monitor an explicit port at 9600 baud
  ex-installer monitor --port /dev/ttyUSB0 --baud 9600

  # Rebroadcast the output on a WebSocket
  ex-installer monitor --listen 127.0.0.1:8765`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorPort, "port", "", "Serial port (defaults to the last device used)")
	monitorCmd.Flags().IntVar(&monitorBaud, "baud", 0, "Baud rate (defaults to the saved preference)")
	monitorCmd.Flags().StringVar(&listenAddr, "listen", "", "Rebroadcast output on a WebSocket at this address")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	preferences, err := prefs.Load()
	if err != nil {
		return err
	}

	port := monitorPort
	if port == "" {
		port = preferences.LastDevicePort
	}
	if port == "" {
		return fmt.Errorf("no port given and none remembered, use --port")
	}

	baud := monitorBaud
	if baud == 0 {
		baud = preferences.MonitorBaud
	}
	if baud == 0 {
		baud = 115200
	}

	mon, err := monitor.Open(port, baud)
	if err != nil {
		return err
	}
	defer mon.Close()

	var server *monitor.Server
	if listenAddr != "" {
		server = monitor.NewServer()
		if err := server.Start(listenAddr); err != nil {
			return err
		}
		defer server.Close()
		fmt.Printf("Rebroadcasting on ws://%s/monitor\n", server.Addr())
	}

	fmt.Printf("Monitoring %s at %d baud. Type commands to send, Ctrl-C to quit.\n\n", port, baud)

	// Stdin lines become device commands
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			command := strings.TrimSpace(scanner.Text())
			if command == "" {
				continue
			}
			if err := mon.Send(command); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
				return
			}
		}
	}()

	runner := mon.Stream()
	for env := range runner.Messages() {
		if env.Status.Terminal() {
			if env.Status == tasks.StatusError {
				return fmt.Errorf("%s", env.Text())
			}
			return nil
		}
		line := env.Text()
		fmt.Println(line)
		if server != nil {
			server.Broadcast(line)
		}
	}
	return nil
}
