package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-beatmaker/ai"
	"go-beatmaker/drums"
	"go-beatmaker/midi"
	"go-beatmaker/sequencer"
	"go-beatmaker/theme"
	"go-beatmaker/widgets"
)

// mode selects how key presses are interpreted
type mode int

const (
	modeNormal mode = iota
	// typing an AI prompt
	modePrompt
	// typing a BPM value
	modeTempo
	// waiting for y/n on clear all
	modeConfirm
)

// maxTempoDigits keeps typed BPM values within sequencer.MaxEntryTempo
const maxTempoDigits = 3

// presetKeys maps function keys to the built-in presets
var presetKeys = map[string]string{
	"f1": "Classic House",
	"f2": "Trap Banger",
	"f3": "Boom Bap",
	"f4": "Dark Techno",
}

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager // nil when MIDI input is disabled
	Theme     *theme.Theme
	ExportDir string

	ctx    context.Context
	cancel context.CancelFunc

	track    int
	mode     mode
	input    string
	status   string
	warn     bool
	devices  map[string]bool
	quitting bool
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

// GenerateMsg carries the outcome of an AI request
type GenerateMsg struct {
	Prompt string
	Genre  string
	Err    error
}

func NewModel(ctx context.Context, manager *sequencer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Theme:     th,
		ctx:       ctx,
		cancel:    cancel,
		devices:   make(map[string]bool),
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

// generate runs an AI request off the UI goroutine
func generate(ctx context.Context, manager *sequencer.Manager, prompt string) tea.Cmd {
	return func() tea.Msg {
		genre, err := manager.Generate(ctx, prompt)
		return GenerateMsg{Prompt: prompt, Genre: genre, Err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Manager),
		ListenForDevices(m.DeviceMgr),
	)
}

func (m Model) selected() drums.Instrument {
	return drums.All[m.track]
}

func (m *Model) setStatus(warn bool, format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.warn = warn
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modePrompt, modeTempo:
			return m.updateInput(msg)
		case modeConfirm:
			m.mode = modeNormal
			if msg.String() == "y" || msg.String() == "Y" {
				m.Manager.ClearAll()
				m.setStatus(false, "Cleared all tracks")
			} else {
				m.status = ""
			}
			return m, nil
		}
		return m.updateNormal(msg)

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case GenerateMsg:
		switch {
		case msg.Err == nil && msg.Genre != "":
			m.setStatus(false, "AI: %s", msg.Genre)
		case msg.Err == nil:
			m.setStatus(false, "AI pattern applied")
		case errors.Is(msg.Err, context.Canceled):
			m.status = ""
		case errors.Is(msg.Err, sequencer.ErrBusy):
			m.setStatus(true, "AI is still thinking...")
		default:
			m.setStatus(true, "%s", ai.Message(msg.Err))
		}
		return m, nil

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.devices[event.ID] = true
			m.Manager.AttachController(m.ctx, event.Controller)
			m.setStatus(false, "Connected %s", event.ID)
		case midi.DeviceDisconnected:
			delete(m.devices, event.ID)
			m.setStatus(false, "Disconnected %s", event.ID)
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.cancel()
		m.Manager.Close()
		return m, tea.Quit

	case " ":
		if err := m.Manager.TogglePlay(); err != nil {
			m.setStatus(true, "Audio engine unavailable")
		} else {
			m.status = ""
		}

	case "h", "left":
		m.Manager.MoveCursor(-1)
	case "l", "right":
		m.Manager.MoveCursor(1)
	case "H":
		m.Manager.MoveCursor(-sequencer.StepsPerBar)
	case "L":
		m.Manager.MoveCursor(sequencer.StepsPerBar)
	case "k", "up":
		m.track = (m.track + drums.Count - 1) % drums.Count
	case "j", "down":
		m.track = (m.track + 1) % drums.Count

	case "x", "enter":
		m.Manager.ToggleStep(m.selected(), m.Manager.Cursor())

	case "1", "2", "3", "4", "5", "6":
		m.Manager.TriggerPad(drums.All[int(key[0]-'1')])
	case "f":
		m.Manager.TriggerPad(m.selected())

	case "+", "=":
		m.Manager.NudgeTempo(1)
	case "-", "_":
		m.Manager.NudgeTempo(-1)
	case "t":
		if bpm, ok := m.Manager.Tap(); ok {
			m.setStatus(false, "Tap tempo %d BPM", bpm)
		} else {
			m.setStatus(false, "Tap again...")
		}
	case "b":
		m.mode = modeTempo
		m.input = ""

	case "f1", "f2", "f3", "f4":
		name := presetKeys[key]
		if err := m.Manager.LoadPreset(name); err != nil {
			m.setStatus(true, "%v", err)
		} else {
			m.setStatus(false, "Loaded %s", name)
		}

	case "c":
		m.Manager.ClearTrack(m.selected())
		m.setStatus(false, "Cleared %s", m.selected().Name())
	case "C":
		if m.Manager.Pattern().Empty() {
			m.setStatus(false, "Nothing to clear")
			break
		}
		m.mode = modeConfirm
		m.setStatus(true, "Clear all tracks? (y/n)")
	case "d":
		if !m.Manager.DeleteNoteAt(m.selected(), m.Manager.Cursor()) {
			m.setStatus(false, "No recorded note under cursor")
		}

	case "e":
		path, err := m.Manager.ExportFile(m.ExportDir)
		if err != nil {
			m.setStatus(true, "Export failed: %v", err)
		} else {
			m.setStatus(false, "Exported %s", path)
		}

	case "g":
		if m.Manager.Generating() {
			m.setStatus(true, "AI is still thinking...")
			break
		}
		m.mode = modePrompt
		m.input = ""

	case "m":
		if muted, ok := m.Manager.ToggleMute(); ok {
			if muted {
				m.setStatus(false, "Muted")
			} else {
				m.setStatus(false, "Unmuted")
			}
		}
	}
	return m, nil
}

// updateInput handles the single-line editor used for prompts and BPM entry
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNormal
		m.input = ""
		return m, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.input)
		wasPrompt := m.mode == modePrompt
		m.mode = modeNormal
		m.input = ""
		if text == "" {
			return m, nil
		}
		if wasPrompt {
			m.setStatus(false, "AI is composing...")
			return m, generate(m.ctx, m.Manager, text)
		}
		bpm, err := strconv.Atoi(text)
		if err != nil || !m.Manager.EnterTempo(bpm) {
			m.setStatus(true, "Invalid tempo %q", text)
		}
		return m, nil

	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}

	case tea.KeySpace:
		if m.mode == modePrompt {
			m.input += " "
		}

	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if m.mode == modeTempo && (r < '0' || r > '9' || len(m.input) >= maxTempoDigits) {
				continue
			}
			m.input += string(r)
		}

	case tea.KeyCtrlC:
		m.mode = modeNormal
		m.input = ""
	}
	return m, nil
}

var keyHelp = []widgets.KeyBinding{
	{Key: "space", Desc: "play"},
	{Key: "hjkl", Desc: "nav"},
	{Key: "x", Desc: "toggle"},
	{Key: "1-6", Desc: "pads"},
	{Key: "+/-", Desc: "tempo"},
	{Key: "t", Desc: "tap"},
	{Key: "b", Desc: "bpm"},
	{Key: "F1-F4", Desc: "presets"},
	{Key: "c/C", Desc: "clear"},
	{Key: "d", Desc: "del note"},
	{Key: "e", Desc: "export"},
	{Key: "g", Desc: "ai"},
	{Key: "m", Desc: "mute"},
	{Key: "q", Desc: "quit"},
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	pattern := m.Manager.Pattern()
	playing := m.Manager.Playing()
	step := m.Manager.Step()
	cursor := m.Manager.Cursor()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	if m.warn {
		statusStyle = statusStyle.Foreground(m.Theme.Warning())
	}
	inputStyle := lipgloss.NewStyle().
		Foreground(m.Theme.FG()).
		Background(m.Theme.Surface()).
		Padding(0, 1)

	playState := "STOP"
	if playing {
		playState = "PLAY"
	}
	engine := ""
	if m.Manager.Muted() {
		engine = "  MUTED"
	}
	if m.Manager.Generating() {
		engine += "  AI…"
	}
	if n := len(m.devices); n > 0 {
		engine += fmt.Sprintf("  pads:%d", n)
	}

	header := headerStyle.Render(fmt.Sprintf("go-beatmaker  %s  %3dbpm  step:%02d  bar:%d%s",
		playState, pattern.Tempo, step+1, step/sequencer.StepsPerBar+1, engine))

	// Grid
	var grid strings.Builder
	grid.WriteString(widgets.RenderRuler(m.Theme, sequencer.TotalSteps, sequencer.StepsPerBar))
	grid.WriteString("\n")
	for i, inst := range drums.All {
		track := pattern.Track(inst)
		cells := make([]widgets.Cell, sequencer.TotalSteps)
		for s := range cells {
			cells[s] = widgets.Cell{
				Active:   track.Steps[s],
				Notes:    len(track.NotesIn(s)),
				Cursor:   s == cursor && i == m.track,
				Playhead: playing && s == step,
			}
		}
		grid.WriteString(widgets.RenderTrackRow(m.Theme, widgets.TrackRow{
			Label:       inst.Name(),
			Color:       m.Theme.Instrument(inst),
			Selected:    i == m.track,
			Cells:       cells,
			StepsPerBar: sequencer.StepsPerBar,
		}))
		grid.WriteString("\n")
	}

	// Pads
	pads := make([]widgets.Pad, drums.Count)
	for i, inst := range drums.All {
		pads[i] = widgets.Pad{
			Key:   strconv.Itoa(i + 1),
			Label: inst.Name(),
			Color: inst.Color(),
			Lit:   i == m.track,
		}
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(grid.String())
	out.WriteString("\n")
	out.WriteString(widgets.RenderPadRow(pads))
	out.WriteString("\n\n")

	switch m.mode {
	case modePrompt:
		out.WriteString(inputStyle.Render("Describe a beat: " + m.input + "█"))
		out.WriteString("\n")
		out.WriteString(dimStyle.Render("enter:generate  esc:cancel"))
	case modeTempo:
		out.WriteString(inputStyle.Render("BPM: " + m.input + "█"))
		out.WriteString("\n")
		out.WriteString(dimStyle.Render("enter:set  esc:cancel"))
	default:
		out.WriteString(dimStyle.Render(widgets.RenderKeyLine(keyHelp)))
	}

	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(statusStyle.Render(m.status))
	}

	return out.String()
}
