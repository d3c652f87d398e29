package main

import (
	"fmt"
	"os"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-beatmaker/drums"
	"go-beatmaker/midi"
	"go-beatmaker/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "export":
		if len(os.Args) < 4 {
			usage()
			os.Exit(2)
		}
		err = exportPreset(os.Args[2], os.Args[3])
	case "inspect":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		err = inspect(os.Args[2])
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("beattool - go-beatmaker helpers")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                    - List all MIDI ports")
	fmt.Println("  export <preset> <file>  - Write a preset as a .mid file")
	fmt.Println("  inspect <file>          - Print tempo and notes of a .mid file")
	fmt.Println("")
	fmt.Println("Presets:")
	for _, p := range sequencer.Presets {
		fmt.Printf("  %s (%d bpm)\n", p.Name, p.Tempo)
	}
}

func listPorts() error {
	fmt.Println("(waiting up to 3 seconds...)")
	outs, ins, err := midi.ListPorts(3 * time.Second)
	if err != nil {
		fmt.Println("Fix on macOS: sudo killall coreaudiod midiserver")
		return err
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range ins {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range outs {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func exportPreset(name, path string) error {
	preset, ok := sequencer.FindPreset(name)
	if !ok {
		return fmt.Errorf("%w: %q", sequencer.ErrUnknownPreset, name)
	}
	store := sequencer.NewStore(preset.Tempo)
	store.LoadPreset(preset)

	data := sequencer.ExportMIDI(store.Snapshot())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%s, %d bpm, %d bytes)\n", path, preset.Name, preset.Tempo, len(data))
	return nil
}

func inspect(path string) error {
	s, err := smf.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("Resolution: %v\n", s.TimeFormat)
	fmt.Printf("Tracks:     %d\n", len(s.Tracks))

	gm := drums.GetKit(drums.DefaultKit)
	for ti, track := range s.Tracks {
		fmt.Printf("\n=== Track %d ===\n", ti)
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)

			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				fmt.Printf("  %6d  tempo %.2f bpm\n", abs, bpm)
				continue
			}

			var ch, key, vel uint8
			if gomidi.Message(ev.Message).GetNoteOn(&ch, &key, &vel) {
				label := "?"
				if inst, ok := gm.Lookup(key); ok {
					label = inst.Name()
				}
				fmt.Printf("  %6d  ch%-2d note %3d vel %3d  %s\n", abs, ch+1, key, vel, label)
			}
		}
	}
	return nil
}
