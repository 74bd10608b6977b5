package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/edaniels/golog"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/mimic-robotics/mimic/pkg/base"
	"github.com/mimic-robotics/mimic/pkg/camera"
	"github.com/mimic-robotics/mimic/pkg/composite"
	"github.com/mimic-robotics/mimic/pkg/config"
	"github.com/mimic-robotics/mimic/pkg/input"
	"github.com/mimic-robotics/mimic/pkg/robot"
	"github.com/mimic-robotics/mimic/pkg/teleop"
)

type TeleoperateCommand struct {
	Hz     int    `long:"hz" default:"30" description:"Control loop frequency"`
	Config string `long:"config" description:"Config file (default mimic.json)"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Twist component colors for the chart.
var twistSeries = []struct {
	name  string
	color string
}{
	{"vx", "46"},     // green
	{"vy", "51"},     // cyan
	{"omega", "201"}, // magenta
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type teleopModel struct {
	ctrl     *teleop.Controller
	chart    *streamlinechart.Model
	width    int
	height   int
	logs     []string
	pose     base.Pose
	twist    base.Twist
	quitting bool
}

func (m *teleopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func (m *teleopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *teleopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialTeleopModel(ctrl *teleop.Controller) teleopModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-1.5, 1.5),
	)

	for _, s := range twistSeries {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color))
		chart.SetDataSetStyles(s.name, runes.ThinLineStyle, style)
	}

	return teleopModel{
		ctrl:  ctrl,
		chart: &chart,
	}
}

func (m teleopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		state := teleop.State(msg)
		if state.Error == nil {
			m.pose = state.Pose
			m.twist = state.Commanded
			m.chart.PushDataSet("vx", state.Commanded.VX)
			m.chart.PushDataSet("vy", state.Commanded.VY)
			m.chart.PushDataSet("omega", state.Commanded.Omega)
			m.chart.DrawAll()
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m teleopModel) View() string {
	if m.quitting {
		return "Teleoperation stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("mimic teleoperate"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	sb.WriteString(statusStyle.Render(fmt.Sprintf(
		"  pose x=%.2f y=%.2f th=%.2f  cmd vx=%.2f vy=%.2f w=%.2f",
		m.pose.X, m.pose.Y, m.pose.Theta,
		m.twist.VX, m.twist.VY, m.twist.Omega)))
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9"))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press ctrl+c to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, s := range twistSeries {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(s.color)).Bold(true)
		items = append(items, colorStyle.Render("━━")+" base_"+s.name)
	}
	items = append(items, statusStyle.Render("w/a/s/d move  q/e rotate (keyboard mode)"))
	return strings.Join(items, "  ")
}

func (c *TeleoperateCommand) Execute(args []string) error {
	path := c.Config
	if path == "" {
		path = config.DefaultConfigFile
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "No configuration found. Run 'mimic setup' first.")
		os.Exit(1)
	}
	if !cfg.IsCalibrated() {
		fmt.Fprintln(os.Stderr, "Arms not calibrated. Run 'mimic setup' first.")
		os.Exit(1)
	}

	fmt.Printf("Loaded configuration from %s\n", path)

	logger := golog.NewDevelopmentLogger("mimic")

	leader, follower, err := buildComposites(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build rig: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := leader.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect leader: %v", err)
	}
	if err := follower.Connect(ctx); err != nil {
		leader.Disconnect()
		log.Fatalf("Failed to connect follower: %v", err)
	}

	hz := c.Hz
	if cfg.Hz > 0 {
		hz = cfg.Hz
	}
	ctrl := teleop.NewController(leader, follower, teleop.Config{Hz: hz}, logger)
	defer ctrl.Close()

	go func() {
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()

	p := tea.NewProgram(initialTeleopModel(ctrl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}

// buildComposites assembles the leader and follower from config. Composition
// is static: what the config lists is what the session gets.
func buildComposites(cfg *config.Config, logger golog.Logger) (*composite.Leader, *composite.Follower, error) {
	src, err := input.New(cfg.Input, logger.Named("input"))
	if err != nil {
		return nil, nil, err
	}

	leader := composite.NewLeader(
		robot.NewArm(cfg.Left.Leader, logger.Named("left_leader")),
		robot.NewArm(cfg.Right.Leader, logger.Named("right_leader")),
		src,
		cfg.Input.Mode == "keyboard",
		logger.Named("leader"),
	)

	cams := make([]camera.Camera, 0, len(cfg.Cameras))
	for _, camCfg := range cfg.Cameras {
		cams = append(cams, camera.NewWebcam(camCfg, logger.Named("camera")))
	}

	follower := composite.NewFollower(
		robot.NewArm(cfg.Left.Follower, logger.Named("left_follower")),
		robot.NewArm(cfg.Right.Follower, logger.Named("right_follower")),
		base.NewDriver(cfg.Base.Port, logger.Named("base")),
		cams,
		logger.Named("follower"),
	)

	return leader, follower, nil
}
