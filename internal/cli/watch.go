package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/emergence/pkg/blob"
	"github.com/matzehuels/emergence/pkg/config"
	"github.com/matzehuels/emergence/pkg/render/term"
	"github.com/matzehuels/emergence/pkg/sim"
)

// chromeRows is the number of terminal rows used by the header and footer.
const chromeRows = 2

var (
	watchHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	watchDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	watchErrStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// watchCommand creates the watch command, an interactive terminal view.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		cf   configFlags
		mode string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the simulation live in the terminal",
		Long: `Watch the simulation live in the terminal.

Click a blob to drill into it: the blob is hidden and its children appear.
Clicking inside the children's parent region again brings the parent back.
Right click resets the view to the root.

Keys: space pause, . step, 0-9 reveal depth, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}
			o := runOpts{mode: mode}
			m, err := o.growthMode()
			if err != nil {
				return err
			}
			s, err := sim.New(cfg, sim.WithLogger(loggerFromContext(cmd.Context())), sim.WithMode(m))
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), s, cfg)
		},
	}

	cf.bind(cmd)
	cmd.Flags().StringVar(&mode, "mode", "grow", "formation mode: grow, ring")

	return cmd
}

func runWatch(ctx context.Context, s *sim.Simulation, cfg config.Config) error {
	// The logger would draw over the alternate screen.
	logger := loggerFromContext(ctx)
	level := logger.GetLevel()
	logger.SetLevel(log.FatalLevel)
	defer logger.SetLevel(level)

	p := tea.NewProgram(newWatchModel(ctx, s, cfg),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(watchModel); ok && m.err != nil {
		return m.err
	}
	return nil
}

// =============================================================================
// watchModel - Live simulation view
// =============================================================================

type tickMsg time.Time

// watchModel is the bubbletea model driving a simulation.
type watchModel struct {
	ctx    context.Context
	sim    *sim.Simulation
	every  time.Duration
	canvas *term.Canvas

	width, height int
	paused        bool
	pressButton   blob.Button
	pressed       bool
	status        string
	err           error
}

func newWatchModel(ctx context.Context, s *sim.Simulation, cfg config.Config) watchModel {
	return watchModel{
		ctx:    ctx,
		sim:    s,
		every:  time.Duration(cfg.TickSeconds() * float64(time.Second)),
		width:  80,
		height: 24,
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.every, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.err != nil {
			return m, nil
		}
		if !m.paused {
			m = m.step()
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space":
			m.paused = !m.paused
		case ".":
			if m.paused {
				m = m.step()
			}
		case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
			depth := int(msg.String()[0] - '0')
			m.status = fmt.Sprintf("revealed %d at depth %d", m.sim.Reveal(depth), depth)
			m = m.redraw()
		}

	case tea.MouseMsg:
		m = m.mouse(msg).redraw()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m = m.redraw()
	}
	return m, nil
}

// step advances the simulation one tick and redraws.
func (m watchModel) step() watchModel {
	if err := m.sim.Tick(m.ctx); err != nil {
		m.err = err
	}
	return m.redraw()
}

func (m watchModel) redraw() watchModel {
	m.canvas = term.Fit(m.sim.Scene(), m.width, max(m.height-chromeRows, 1))
	return m
}

// mouse turns terminal mouse events into pointer events at the world point
// under the cursor.
func (m watchModel) mouse(msg tea.MouseMsg) watchModel {
	if m.canvas == nil {
		return m
	}
	p := m.canvas.ToWorld(msg.X, msg.Y-1)
	ev := blob.PointerEvent{Shift: msg.Shift, Time: time.Now()}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			ev.Button = blob.ButtonPrimary
		case tea.MouseButtonRight:
			m.sim.ContextMenu()
			m.status = "reset to root"
			return m
		default:
			return m
		}
		m.pressed, m.pressButton = true, ev.Button
		m.sim.PointerDown(p, ev)

	case tea.MouseActionRelease:
		if !m.pressed {
			return m
		}
		// Most terminals do not report which button was released.
		ev.Button = m.pressButton
		m.pressed = false
		if id, ok := m.sim.PointerUp(p, ev); ok {
			m.status = "toggled " + id
		}
	}
	return m
}

func (m watchModel) View() string {
	var b strings.Builder

	st := statsOf(m.sim)
	header := watchHeaderStyle.Render(appName) + " " +
		watchDimStyle.Render(strings.Join(st.line(), " · "))
	if st.steady {
		header += " " + StyleSuccess.Render("steady")
	}
	if m.paused {
		header += " " + StyleWarning.Render("paused")
	}
	b.WriteString(header)
	b.WriteString("\n")

	if m.canvas != nil {
		b.WriteString(m.canvas.String())
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(watchErrStyle.Render(iconError + " " + m.err.Error()))
	case m.status != "":
		b.WriteString(watchDimStyle.Render(m.status))
	default:
		b.WriteString(watchDimStyle.Render(fmt.Sprintf("click drill in · right click reset · space pause · q quit · %s fps",
			humanize.Comma(int64(time.Second/max(m.every, time.Millisecond))))))
	}
	return b.String()
}
