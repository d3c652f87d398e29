package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep"
	"golang.org/x/sync/errgroup"

	"go-beatmaker/ai"
	"go-beatmaker/audio"
	"go-beatmaker/config"
	"go-beatmaker/debug"
	"go-beatmaker/drums"
	"go-beatmaker/midi"
	"go-beatmaker/sequencer"
	"go-beatmaker/theme"
	"go-beatmaker/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Debug {
		if path, err := config.LogPath(); err == nil {
			if err := debug.Enable(path); err != nil {
				fmt.Printf("debug log disabled: %v\n", err)
			}
		}
	}
	defer debug.Disable()

	kit := drums.GetKit(cfg.Kit)

	// Sound engine
	var engine sequencer.Engine
	switch cfg.Output {
	case config.OutputMIDI:
		engine = midi.NewOutputEngine(cfg.MIDIOutPort, kit)
	default:
		engine = audio.NewEngine(beep.SampleRate(cfg.SampleRate), cfg.Buffer())
	}
	debug.Log("main", "output %s, kit %s, %d bpm", cfg.Output, kit.Name, cfg.LastTempo)

	gen := ai.NewGeminiClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Endpoint,
		time.Duration(cfg.AI.TimeoutS)*time.Second)

	manager := sequencer.NewManager(engine, sequencer.Options{
		Tempo:     cfg.LastTempo,
		LookAhead: cfg.LookAhead(),
		Interval:  cfg.Interval(),
		Debounce:  cfg.Debounce(),
		Kit:       kit,
		Generator: gen,
	})

	// MIDI input controllers are performance pads (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(cfg.MIDIInPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deviceMgr.Run(ctx)
		return nil
	})

	th := theme.Default()
	if cfg.Palette != "" {
		if palette, err := theme.LoadGPL(cfg.Palette); err != nil {
			debug.Log("main", "palette: %v, using built-in", err)
		} else {
			th = theme.New(palette)
		}
	}

	m := tui.NewModel(ctx, manager, deviceMgr, th)
	m.ExportDir = cfg.ResolveExportDir()
	p := tea.NewProgram(m, tea.WithAltScreen())

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})

	err = g.Wait()
	manager.Close()
	if a, ok := engine.(*audio.Engine); ok {
		a.Suspend()
	}

	cfg.LastTempo = manager.Tempo()
	if serr := cfg.Save(); serr != nil {
		debug.Log("main", "save config: %v", serr)
	}
	return err
}
