package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DCC-EX/EX-Installer-sub000/internal/arduino"
	"github.com/DCC-EX/EX-Installer-sub000/internal/gitclient"
	"github.com/DCC-EX/EX-Installer-sub000/internal/prefs"
	"github.com/DCC-EX/EX-Installer-sub000/internal/products"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenWelcome       Screen = "welcome"
	ScreenManageCLI     Screen = "managecli"
	ScreenSelectDevice  Screen = "selectdevice"
	ScreenSelectProduct Screen = "selectproduct"
	ScreenSelectVersion Screen = "selectversion"
	ScreenConfigure     Screen = "configure"
	ScreenUpload        Screen = "upload"
	ScreenMonitor       Screen = "monitor"
)

// Messages for screen transitions
type screenTransitionMsg struct {
	screen Screen
}

type goBackMsg struct{}

// envMsg delivers one worker envelope to the screen that started the
// operation.
type envMsg struct {
	screen Screen
	env    tasks.Envelope
}

// listenEnvelopes waits for the next envelope on a runner channel. The
// receiving screen re-issues it until the terminal envelope arrives, so
// progress flows into the update loop without polling.
func listenEnvelopes(screen Screen, ch <-chan tasks.Envelope) tea.Cmd {
	return func() tea.Msg {
		env, ok := <-ch
		if !ok {
			return nil
		}
		return envMsg{screen: screen, env: env}
	}
}

// Shared is the state every screen can reach: the injected clients and
// the selections made so far.
type Shared struct {
	CLI   *arduino.CLI
	Git   *gitclient.Client
	Prefs *prefs.Preferences

	// Device selection
	Device     *arduino.Device
	DeviceName string
	FQBN       string
	// Device code for DCC-EX branded hardware, "" for generic boards
	DCCEXDevice string

	// Product selection
	Product        products.Product
	ProductVersion string
	InstallDir     string
}

// AppModel is the top-level coordinator model that manages screen
// transitions. Screen models own their phase machines; AppModel owns
// the ordering between screens.
type AppModel struct {
	CurrentScreen  Screen
	PreviousScreen Screen

	Shared *Shared

	WelcomeModel       WelcomeModel
	ManageCLIModel     ManageCLIModel
	SelectDeviceModel  SelectDeviceModel
	SelectProductModel SelectProductModel
	SelectVersionModel SelectVersionModel
	ConfigureModel     ConfigureModel
	UploadModel        UploadModel
	MonitorModel       MonitorModel

	Width  int
	Height int
}

// NewAppModel creates the wizard starting at the welcome screen.
func NewAppModel(cli *arduino.CLI, git *gitclient.Client, preferences *prefs.Preferences) AppModel {
	shared := &Shared{CLI: cli, Git: git, Prefs: preferences}
	return AppModel{
		CurrentScreen: ScreenWelcome,
		Shared:        shared,
		WelcomeModel:  NewWelcomeModel(shared),
	}
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	return m.WelcomeModel.Init()
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m.updateCurrentScreen(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case screenTransitionMsg:
		return m.transitionTo(msg.screen)

	case goBackMsg:
		return m.goBack()
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.CurrentScreen {
	case ScreenWelcome:
		m.WelcomeModel, cmd = m.WelcomeModel.Update(msg, m.Width, m.Height)
	case ScreenManageCLI:
		m.ManageCLIModel, cmd = m.ManageCLIModel.Update(msg, m.Width, m.Height)
	case ScreenSelectDevice:
		m.SelectDeviceModel, cmd = m.SelectDeviceModel.Update(msg, m.Width, m.Height)
	case ScreenSelectProduct:
		m.SelectProductModel, cmd = m.SelectProductModel.Update(msg, m.Width, m.Height)
	case ScreenSelectVersion:
		m.SelectVersionModel, cmd = m.SelectVersionModel.Update(msg, m.Width, m.Height)
	case ScreenConfigure:
		m.ConfigureModel, cmd = m.ConfigureModel.Update(msg, m.Width, m.Height)
	case ScreenUpload:
		m.UploadModel, cmd = m.UploadModel.Update(msg, m.Width, m.Height)
	case ScreenMonitor:
		m.MonitorModel, cmd = m.MonitorModel.Update(msg, m.Width, m.Height)
	}

	return m, cmd
}

// transitionTo transitions to a new screen, constructing its model
// fresh so every visit starts from the screen's initial phase.
func (m AppModel) transitionTo(screen Screen) (tea.Model, tea.Cmd) {
	m.PreviousScreen = m.CurrentScreen
	m.CurrentScreen = screen

	var cmd tea.Cmd
	switch screen {
	case ScreenWelcome:
		m.WelcomeModel = NewWelcomeModel(m.Shared)
		cmd = m.WelcomeModel.Init()
	case ScreenManageCLI:
		m.ManageCLIModel = NewManageCLIModel(m.Shared)
		cmd = m.ManageCLIModel.Init()
	case ScreenSelectDevice:
		m.SelectDeviceModel = NewSelectDeviceModel(m.Shared)
		cmd = m.SelectDeviceModel.Init()
	case ScreenSelectProduct:
		m.SelectProductModel = NewSelectProductModel(m.Shared)
		cmd = m.SelectProductModel.Init()
	case ScreenSelectVersion:
		m.SelectVersionModel = NewSelectVersionModel(m.Shared)
		cmd = m.SelectVersionModel.Init()
	case ScreenConfigure:
		m.ConfigureModel = NewConfigureModel(m.Shared)
		cmd = m.ConfigureModel.Init()
	case ScreenUpload:
		m.UploadModel = NewUploadModel(m.Shared)
		cmd = m.UploadModel.Init()
	case ScreenMonitor:
		m.MonitorModel = NewMonitorModel(m.Shared)
		cmd = m.MonitorModel.Init()
	}

	return m, cmd
}

// nextScreen returns the screen that follows each wizard step.
func nextScreen(current Screen) Screen {
	switch current {
	case ScreenWelcome:
		return ScreenManageCLI
	case ScreenManageCLI:
		return ScreenSelectDevice
	case ScreenSelectDevice:
		return ScreenSelectProduct
	case ScreenSelectProduct:
		return ScreenSelectVersion
	case ScreenSelectVersion:
		return ScreenConfigure
	case ScreenConfigure:
		return ScreenUpload
	case ScreenUpload:
		return ScreenMonitor
	default:
		return ScreenWelcome
	}
}

// previousScreen returns the screen a back action lands on.
func previousScreen(current Screen) Screen {
	switch current {
	case ScreenManageCLI:
		return ScreenWelcome
	case ScreenSelectDevice:
		return ScreenManageCLI
	case ScreenSelectProduct:
		return ScreenSelectDevice
	case ScreenSelectVersion:
		return ScreenSelectProduct
	case ScreenConfigure:
		return ScreenSelectVersion
	case ScreenUpload:
		return ScreenConfigure
	// Returning to the upload screen would restart the compile, so the
	// monitor backs out to the start
	case ScreenMonitor:
		return ScreenWelcome
	default:
		return ScreenWelcome
	}
}

// goBack returns to the previous wizard step.
func (m AppModel) goBack() (tea.Model, tea.Cmd) {
	if m.CurrentScreen == ScreenWelcome {
		return m, tea.Quit
	}
	return m.transitionTo(previousScreen(m.CurrentScreen))
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenWelcome:
		return m.WelcomeModel.View(m.Width, m.Height)
	case ScreenManageCLI:
		return m.ManageCLIModel.View(m.Width, m.Height)
	case ScreenSelectDevice:
		return m.SelectDeviceModel.View(m.Width, m.Height)
	case ScreenSelectProduct:
		return m.SelectProductModel.View(m.Width, m.Height)
	case ScreenSelectVersion:
		return m.SelectVersionModel.View(m.Width, m.Height)
	case ScreenConfigure:
		return m.ConfigureModel.View(m.Width, m.Height)
	case ScreenUpload:
		return m.UploadModel.View(m.Width, m.Height)
	case ScreenMonitor:
		return m.MonitorModel.View(m.Width, m.Height)
	default:
		return "Unknown screen"
	}
}

// transitionCmd builds the message that moves the wizard to a screen.
func transitionCmd(screen Screen) tea.Cmd {
	return func() tea.Msg { return screenTransitionMsg{screen: screen} }
}
