package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	git "github.com/go-git/go-git/v5"

	"github.com/DCC-EX/EX-Installer-sub000/internal/fileman"
	"github.com/DCC-EX/EX-Installer-sub000/internal/gitclient"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

// versionPhase tracks the select-version screen from working-copy setup
// through the version checkout.
type versionPhase int

const (
	versionPhaseClone versionPhase = iota
	versionPhasePrepare
	versionPhaseSelect
	versionPhaseCheckout
	versionPhaseFailed
)

// SelectVersionModel prepares the product working copy and lets the
// user pick the release to install. The latest production release is
// preselected.
type SelectVersionModel struct {
	shared *Shared

	phase   versionPhase
	runner  *tasks.Runner
	spinner spinner.Model

	repo     *git.Repository
	versions []gitclient.Version
	cursor   int
	errMsg   string
}

// NewSelectVersionModel validates the install directory and starts the
// clone or update.
func NewSelectVersionModel(shared *Shared) SelectVersionModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	m := SelectVersionModel{shared: shared, spinner: s}

	dir := shared.InstallDir
	product := shared.Product

	if !shared.Git.IsRepo(dir) {
		if fileman.IsValidDir(dir) && !fileman.DirIsEmpty(dir) {
			m.phase = versionPhaseFailed
			m.errMsg = fmt.Sprintf("%s exists but is not a %s working copy", dir, product.Name)
			return m
		}
		m.phase = versionPhaseClone
		m.runner = shared.Git.RunClone(product.RepoURL, dir)
		return m
	}

	repo, err := shared.Git.Open(dir)
	if err != nil {
		m.phase = versionPhaseFailed
		m.errMsg = err.Error()
		return m
	}
	if err := shared.Git.ValidateRemote(repo, product.RepoURL); err != nil {
		m.phase = versionPhaseFailed
		m.errMsg = err.Error()
		return m
	}

	m.repo = repo
	m.phase = versionPhasePrepare
	m.runner = m.prepareRunner()
	return m
}

// prepareRunner updates an existing working copy. A working copy with
// local modifications halts the flow before any checkout or pull, so
// the user's edits are never touched.
func (m SelectVersionModel) prepareRunner() *tasks.Runner {
	repo := m.repo
	branch := m.shared.Product.DefaultBranch
	client := m.shared.Git

	return tasks.Run(tasks.ClassRepo, "Get latest software updates", func() (any, error) {
		changes, err := client.LocalChanges(repo)
		if err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			return nil, fmt.Errorf("local changes found, commit or revert them before continuing: %s",
				strings.Join(changes, ", "))
		}
		if err := client.CheckoutBranch(repo, branch); err != nil {
			return nil, err
		}
		return nil, client.Pull(repo, branch)
	})
}

// Init starts envelope delivery for whichever runner the constructor
// created.
func (m SelectVersionModel) Init() tea.Cmd {
	if m.runner != nil {
		return tea.Batch(listenEnvelopes(ScreenSelectVersion, m.runner.Messages()), m.spinner.Tick)
	}
	return m.spinner.Tick
}

// Update handles screen input and worker envelopes.
func (m SelectVersionModel) Update(msg tea.Msg, width, height int) (SelectVersionModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case envMsg:
		if msg.screen != ScreenSelectVersion {
			return m, nil
		}
		if !msg.env.Status.Terminal() {
			return m, listenEnvelopes(ScreenSelectVersion, m.runner.Messages())
		}
		return m.advance(msg.env)
	}

	return m, nil
}

// advance moves the setup state machine along on a terminal envelope.
func (m SelectVersionModel) advance(env tasks.Envelope) (SelectVersionModel, tea.Cmd) {
	if env.Status == tasks.StatusError {
		m.phase = versionPhaseFailed
		m.errMsg = env.Text()
		return m, nil
	}

	switch m.phase {
	case versionPhaseClone:
		repo, ok := env.Data.(*git.Repository)
		if !ok {
			m.phase = versionPhaseFailed
			m.errMsg = "clone did not return a repository"
			return m, nil
		}
		m.repo = repo
		m.phase = versionPhasePrepare
		m.runner = m.prepareRunner()
		return m, listenEnvelopes(ScreenSelectVersion, m.runner.Messages())

	case versionPhasePrepare:
		return m.listVersions()

	case versionPhaseCheckout:
		m.shared.ProductVersion = m.versions[m.cursor].Tag
		return m, transitionCmd(nextScreen(ScreenSelectVersion))
	}

	return m, nil
}

// listVersions reads the release tags and preselects the latest
// production release.
func (m SelectVersionModel) listVersions() (SelectVersionModel, tea.Cmd) {
	versions, err := m.shared.Git.ListVersions(m.repo)
	if err != nil {
		m.phase = versionPhaseFailed
		m.errMsg = err.Error()
		return m, nil
	}
	if len(versions) == 0 {
		m.phase = versionPhaseFailed
		m.errMsg = fmt.Sprintf("no releases found for %s", m.shared.Product.Name)
		return m, nil
	}

	m.versions = versions
	m.phase = versionPhaseSelect
	if latest, ok := gitclient.LatestProd(versions); ok {
		for i, v := range versions {
			if v.Tag == latest.Tag {
				m.cursor = i
				break
			}
		}
	}
	return m, nil
}

func (m SelectVersionModel) handleKey(msg tea.KeyMsg) (SelectVersionModel, tea.Cmd) {
	switch m.phase {
	case versionPhaseSelect:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.versions)-1 {
				m.cursor++
			}
		case "enter", " ":
			v := m.versions[m.cursor]
			m.phase = versionPhaseCheckout
			m.runner = tasks.Run(tasks.ClassRepo, "Switch to "+v.Tag, func() (any, error) {
				return nil, m.shared.Git.CheckoutVersion(m.repo, v)
			})
			return m, tea.Batch(listenEnvelopes(ScreenSelectVersion, m.runner.Messages()), m.spinner.Tick)
		case "esc", "b":
			return m, func() tea.Msg { return goBackMsg{} }
		case "q":
			return m, tea.Quit
		}

	case versionPhaseFailed:
		switch msg.String() {
		case "esc", "b":
			return m, func() tea.Msg { return goBackMsg{} }
		case "q":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the screen.
func (m SelectVersionModel) View(width, height int) string {
	var b strings.Builder

	b.WriteString(RenderTitle("Select the " + m.shared.Product.Name + " version"))
	b.WriteString("\n")

	switch m.phase {
	case versionPhaseClone:
		b.WriteString(m.spinner.View())
		b.WriteString(" Downloading " + m.shared.Product.Name + "...\n")

	case versionPhasePrepare:
		b.WriteString(m.spinner.View())
		b.WriteString(" Getting the latest software updates...\n")

	case versionPhaseSelect:
		for i, v := range m.versions {
			label := v.Tag
			if latest, ok := gitclient.LatestProd(m.versions); ok && v.Tag == latest.Tag {
				label += " (latest release)"
			} else if latest, ok := gitclient.LatestDevel(m.versions); ok && v.Tag == latest.Tag {
				label += " (latest development build)"
			}
			b.WriteString(RenderMenuItem(label, i == m.cursor))
			b.WriteString("\n")
		}

	case versionPhaseCheckout:
		b.WriteString(m.spinner.View())
		b.WriteString(" Switching versions...\n")

	case versionPhaseFailed:
		b.WriteString(RenderError(m.errMsg))
		b.WriteString("\n")
	}

	return RenderApplicationContainer(b.String(), "↑/↓ move • enter select • b back • q quit", width, height)
}
