package main

import (
	"errors"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"go-beatmaker/sequencer"
)

func TestExportPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boom.mid")
	if err := exportPreset("boom bap", path); err != nil {
		t.Fatal(err)
	}
	s, err := smf.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(s.Tracks) != 1 {
		t.Errorf("tracks = %d", len(s.Tracks))
	}
	if err := inspect(path); err != nil {
		t.Errorf("inspect: %v", err)
	}
}

func TestExportUnknownPreset(t *testing.T) {
	err := exportPreset("polka", filepath.Join(t.TempDir(), "x.mid"))
	if !errors.Is(err, sequencer.ErrUnknownPreset) {
		t.Errorf("err = %v, want ErrUnknownPreset", err)
	}
}
