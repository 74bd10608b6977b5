package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/mimic-robotics/mimic/pkg/config"
	"github.com/mimic-robotics/mimic/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct{}

// armRoles in the order they are assigned during identification.
var armRoles = []string{"left_leader", "left_follower", "right_leader", "right_follower"}

func roleLabel(role string) string {
	switch role {
	case "left_leader":
		return "Left leader (moved by hand)"
	case "left_follower":
		return "Left follower"
	case "right_leader":
		return "Right leader (moved by hand)"
	case "right_follower":
		return "Right follower"
	}
	return role
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("mimic Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	// Step 1: Scan for arms and assign the four roles
	cfg, armPorts := scanForArms()

	// Step 2: Calibrate each arm
	for _, role := range armRoles {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render(fmt.Sprintf("━━━ Calibrating %s arm ━━━", role)))
		fmt.Println()
		calibrateArm(armConfigFor(cfg, role), role)

		// Save after each arm so an aborted run keeps its progress.
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
	}

	// Step 3: Base serial port
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Base ━━━"))
	cfg.Base.Port = chooseBasePort(armPorts)

	// Step 4: Input source for base control
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Base control input ━━━"))
	cfg.Input.Mode = chooseInputMode()

	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", config.DefaultConfigFile)
	fmt.Println()
	fmt.Println("Start teleoperation with: " + headerStyle.Render("mimic teleoperate"))

	return nil
}

func armConfigFor(cfg *config.Config, role string) *robot.ArmConfig {
	switch role {
	case "left_leader":
		return &cfg.Left.Leader
	case "left_follower":
		return &cfg.Left.Follower
	case "right_leader":
		return &cfg.Right.Leader
	case "right_follower":
		return &cfg.Right.Follower
	}
	panic("unknown arm role " + role)
}

// scanForArms finds every SO-100 arm, wiggles each in turn and asks the user
// which role it plays. Returns the config skeleton and the set of ports that
// are arms (so the base port chooser can exclude them).
func scanForArms() (*config.Config, map[string]bool) {
	fmt.Println("Scanning for robot arms...")
	fmt.Println()

	arms := findArms()

	if len(arms) < len(armRoles) {
		fmt.Printf("Found %d arm(s); this rig needs %d.\n", len(arms), len(armRoles))
		fmt.Println("Make sure all four arms are connected and powered on.")
		os.Exit(1)
	}

	fmt.Printf("Found %d arm(s). Let's identify them...\n\n", len(arms))

	cfg := &config.Config{}
	armPorts := make(map[string]bool)
	assigned := make(map[string]string) // role -> port

	for _, arm := range arms {
		armPorts[arm.port] = true

		role := identifyArmWithWiggle(arm, assigned)
		if role == "" {
			continue
		}
		assigned[role] = arm.port
		armConfigFor(cfg, role).Port = arm.port

		if len(assigned) == len(armRoles) {
			break
		}
	}

	fmt.Println()

	if len(assigned) < len(armRoles) {
		fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━"))
		for _, role := range armRoles {
			if assigned[role] == "" {
				fmt.Printf("%s arm not identified.\n", role)
			}
		}
		fmt.Println()
		fmt.Println("All four arms are required for teleoperation.")
		os.Exit(1)
	}

	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Arms identified:"))
	for _, role := range armRoles {
		fmt.Printf("  %-15s %s\n", role+":", assigned[role])
	}

	// Followers hold position against gravity; leaders go limp on
	// disconnect so they can be parked by hand.
	cfg.Left.Leader.DisableTorqueOnDisconnect = true
	cfg.Right.Leader.DisableTorqueOnDisconnect = true
	cfg.Left.Follower.DisableTorqueOnDisconnect = true
	cfg.Right.Follower.DisableTorqueOnDisconnect = true

	return cfg, armPorts
}

func chooseBasePort(armPorts map[string]bool) string {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		os.Exit(1)
	}

	var options []huh.Option[string]
	for _, port := range ports {
		if armPorts[port] || strings.Contains(port, "Bluetooth") {
			continue
		}
		options = append(options, huh.NewOption(port, port))
	}
	if len(options) == 0 {
		fmt.Println("No free serial port left for the base.")
		fmt.Println("Connect the base microcontroller and re-run setup.")
		os.Exit(1)
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the mecanum base on?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port
}

func chooseInputMode() string {
	var mode string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How do you want to drive the base?").
				Options(
					huh.NewOption("Keyboard (w/a/s/d move, q/e rotate)", "keyboard"),
					huh.NewOption("Xbox controller", "xbox"),
					huh.NewOption("Joystick", "joystick"),
				).
				Value(&mode),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return mode
}

func calibrateArm(armConfig *robot.ArmConfig, armName string) {
	fmt.Printf("Calibrating %s arm on %s\n", armName, armConfig.Port)
	fmt.Println()

	bus, servos, err := connectToArm(armConfig.Port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to arm: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Disable all servos so the user can move the arm freely
	ctx := context.Background()
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	motors := robot.AllMotors()
	calibration := make(robot.Calibration)

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move each joint to its minimum AND maximum positions.")
	fmt.Println("Explore the full range of motion for all joints.")
	fmt.Println()

	curPositions := make(map[robot.MotorName]int)
	minPositions := make(map[robot.MotorName]int)
	maxPositions := make(map[robot.MotorName]int)
	for i, motorName := range motors {
		servoID := i + 1
		servo := servoMap[servoID]
		pos, _ := servo.Position(ctx)
		curPositions[motorName] = pos
		minPositions[motorName] = pos
		maxPositions[motorName] = pos
	}

	model := newCalibrationModel(motors, servoMap, curPositions, minPositions, maxPositions)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}

	cm := finalModel.(calibrationModel)
	for _, name := range motors {
		minPositions[name] = cm.minPositions[name]
		maxPositions[name] = cm.maxPositions[name]
	}

	fmt.Println()

	for i, motorName := range motors {
		servoID := i + 1
		calibration[motorName] = robot.MotorCalibration{
			ID:       servoID,
			RangeMin: minPositions[motorName],
			RangeMax: maxPositions[motorName],
		}
	}

	armConfig.Calibration = calibration
	fmt.Println()
	fmt.Printf("%s arm calibrated.\n", armName)
}

type armInfo struct {
	port   string
	servos []feetech.FoundServo
	bus    *feetech.Bus
}

func findArms() []armInfo {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var arms []armInfo

	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)

		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: 1_000_000,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			cancel()
			continue
		}

		servos, err := bus.Scan(ctx, 1, 6)
		cancel()

		if err != nil {
			bus.Close()
			continue
		}

		if isSOArm(servos) {
			fmt.Printf("  Found SO-100 arm on %s\n", port)
			arms = append(arms, armInfo{
				port:   port,
				servos: servos,
				bus:    bus,
			})
		} else {
			bus.Close()
		}
	}

	return arms
}

func isSOArm(servos []feetech.FoundServo) bool {
	if len(servos) != 6 {
		return false
	}

	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}

	for i := 1; i <= 6; i++ {
		if !ids[i] {
			return false
		}
	}

	return true
}

func identifyArmWithWiggle(arm armInfo, assigned map[string]string) string {
	defer arm.bus.Close()

	ctx := context.Background()

	// Wiggle servo ID 1 (shoulder_pan) so the user can tell arms apart
	var servo *feetech.Servo
	for _, s := range arm.servos {
		if s.ID == 1 {
			servo = feetech.NewServo(arm.bus, s.ID, s.Model)
			break
		}
	}

	if servo == nil {
		return ""
	}

	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading position: %v\n", err)
		return ""
	}

	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo: %v\n", err)
		return ""
	}

	fmt.Printf("\n  Wiggling arm on %s...\n", arm.port)

	// Single gentle, slow movement
	wiggleAmount := 30
	moveTimeMs := 500
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos-wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)

	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)

	servo.Disable(ctx)

	var options []huh.Option[string]
	for _, role := range armRoles {
		if assigned[role] == "" {
			options = append(options, huh.NewOption(roleLabel(role), role))
		}
	}
	options = append(options, huh.NewOption("Skip this arm", "skip"))

	var role string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Which arm is on %s?", arm.port)).
				Description("The arm that just wiggled").
				Options(options...).
				Value(&role),
		),
	)

	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	if role == "skip" {
		return ""
	}

	return role
}

func connectToArm(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, 6)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}

	if !isSOArm(servos) {
		bus.Close()
		return nil, nil, fmt.Errorf("not an SO-100 arm (expected 6 servos with IDs 1-6)")
	}

	return bus, servos, nil
}

// Calibration TUI model
type calibrationModel struct {
	motors       []robot.MotorName
	servoMap     map[int]*feetech.Servo
	curPositions map[robot.MotorName]int
	minPositions map[robot.MotorName]int
	maxPositions map[robot.MotorName]int
	quitting     bool
}

type tickMsg time.Time

func newCalibrationModel(
	motors []robot.MotorName,
	servoMap map[int]*feetech.Servo,
	curPositions, minPositions, maxPositions map[robot.MotorName]int,
) calibrationModel {
	return calibrationModel{
		motors:       motors,
		servoMap:     servoMap,
		curPositions: curPositions,
		minPositions: minPositions,
		maxPositions: maxPositions,
	}
}

func (m calibrationModel) Init() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for i, motorName := range m.motors {
			servoID := i + 1
			servo := m.servoMap[servoID]
			pos, err := servo.Position(ctx)
			if err != nil {
				continue
			}
			m.curPositions[motorName] = pos
			if pos < m.minPositions[motorName] {
				m.minPositions[motorName] = pos
			}
			if pos > m.maxPositions[motorName] {
				m.maxPositions[motorName] = pos
			}
		}
		return m, tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableMotorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.motors))
	ranges := make([]int, 0, len(m.motors))
	for _, motorName := range m.motors {
		rangeSize := m.maxPositions[motorName] - m.minPositions[motorName]
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			string(motorName),
			fmt.Sprintf("%d", m.curPositions[motorName]),
			fmt.Sprintf("%d", m.minPositions[motorName]),
			fmt.Sprintf("%d", m.maxPositions[motorName]),
			fmt.Sprintf("%d", rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Motor", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableMotorStyle
			case 1:
				return tableCurrentStyle
			case 4:
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Move each joint through its full range. Press Enter when done."))
	sb.WriteString("\n")

	return sb.String()
}
