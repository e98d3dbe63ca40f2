package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/silver-ai/business/dashboard/domain"
	"github.com/fd1az/silver-ai/internal/asset"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Waiting for the first frame
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	phase        Phase
	welcomeStart time.Time
	startupTime  time.Time

	width    int
	height   int
	quitting bool

	frame    *domain.Frame
	currency *asset.Asset
	registry *asset.Registry

	// refreshPending is set between a refresh key press and the frame
	// (or rejection) that answers it.
	refreshPending bool

	spinner spinner.Model
	help    help.Model
	keys    KeyMap
}

// New creates a new TUI model. The registry resolves frame currencies.
func New(registry *asset.Registry) Model {
	now := time.Now()
	return Model{
		phase:        PhaseWelcome,
		welcomeStart: now,
		startupTime:  now,
		registry:     registry,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		help:         help.New(),
		keys:         DefaultKeyMap(),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// refreshCmd asks the controller for a cycle off the update loop.
func refreshCmd() tea.Cmd {
	return func() tea.Msg {
		if OnRefresh == nil || !OnRefresh() {
			return RefreshRejectedMsg{}
		}
		return nil
	}
}

// CanRefresh reports whether the refresh key is live.
func (m Model) CanRefresh() bool {
	return m.phase == PhaseDashboard &&
		!m.refreshPending &&
		m.frame != nil &&
		!m.frame.State.Busy()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to startup
		if m.phase == PhaseWelcome {
			m.startModules()
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Refresh):
			if !m.CanRefresh() {
				return m, nil
			}
			m.refreshPending = true
			return m, refreshCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.startModules()
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case FrameMsg:
		f := msg.Frame
		m.frame = &f
		m.refreshPending = false
		if m.registry != nil {
			if c, ok := m.registry.Get(f.Currency); ok {
				m.currency = c
			}
		}
		if m.phase != PhaseWelcome {
			m.phase = PhaseDashboard
		}

	case RefreshRejectedMsg:
		m.refreshPending = false
	}

	return m, nil
}

func (m *Model) startModules() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder
	b.WriteString(Render(*m.frame, m.currency, m.width, m.spinner.View()))
	b.WriteString("\n")

	keys := m.keys
	keys.Refresh.SetEnabled(m.CanRefresh())
	b.WriteString(HelpStyle.Render(m.help.View(keys)))

	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorSilver)
	accentStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ███████╗██╗██╗    ██╗   ██╗███████╗██████╗
   ██╔════╝██║██║    ██║   ██║██╔════╝██╔══██╗
   ███████╗██║██║    ██║   ██║█████╗  ██████╔╝
   ╚════██║██║██║    ╚██╗ ██╔╝██╔══╝  ██╔══██╗
   ███████║██║███████╗╚████╔╝ ███████╗██║  ██║
   ╚══════╝╚═╝╚══════╝ ╚═══╝  ╚══════╝╚═╝  ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(accentStyle.Render("              P R I C E   ·   A I"))
	sb.WriteString("\n\n\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("              Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("        Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the screen shown until the first frame arrives.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorSilver)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  Silver Price AI"))
	sb.WriteString("\n\n")
	sb.WriteString("  " + m.spinner.View() + " Starting up...")
	sb.WriteString("\n\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")
	return sb.String()
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
var OnStartModules func()

// OnRefresh requests a refresh cycle. It returns false when one is already running.
var OnRefresh func() bool

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
