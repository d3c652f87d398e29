package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-beatmaker/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// DeviceManager handles hot-plug detection of MIDI input controllers
type DeviceManager struct {
	filter      string // substring match on port name, empty = all ports
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
	scanTimeout time.Duration

	listInputs func() []string
	connect    func(name string) (Controller, error)
}

// NewDeviceManager creates a device manager that attaches input ports whose
// name contains filter
func NewDeviceManager(filter string) *DeviceManager {
	return &DeviceManager{
		filter:      strings.ToLower(filter),
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		scanTimeout: 3 * time.Second,
		listInputs:  inputNames,
		connect:     connectKeyboard,
	}
}

func inputNames() []string {
	var names []string
	for _, p := range gomidi.GetInPorts() {
		names = append(names, p.String())
	}
	return names
}

func connectKeyboard(name string) (Controller, error) {
	in, err := gomidi.FindInPort(name)
	if err != nil {
		return nil, err
	}
	return NewKeyboardController(name, in)
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Controllers returns a snapshot of connected controllers
func (dm *DeviceManager) Controllers() map[string]Controller {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	copy := make(map[string]Controller, len(dm.controllers))
	for k, v := range dm.controllers {
		copy[k] = v
	}
	return copy
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	// Initial scan
	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

func (dm *DeviceManager) wants(name string) bool {
	lower := strings.ToLower(name)
	// loopback ports would echo our own output back as input
	if strings.Contains(lower, "through") {
		return false
	}
	return dm.filter == "" || strings.Contains(lower, dm.filter)
}

func (dm *DeviceManager) scan(ctx context.Context) {
	// Get current MIDI ports with timeout (CoreMIDI can hang)
	ch := make(chan []string, 1)
	go func() {
		ch <- dm.listInputs()
	}()

	var names []string
	select {
	case names = <-ch:
	case <-time.After(dm.scanTimeout):
		debug.Log("devices", "port scan timed out")
		return
	}

	// Build map of what we see now
	seenIDs := make(map[string]bool)

	for _, name := range names {
		if !dm.wants(name) {
			continue
		}
		seenIDs[name] = true

		dm.mu.RLock()
		_, exists := dm.controllers[name]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		ctrl, err := dm.connect(name)
		if err != nil {
			debug.Log("devices", "connect %q: %v", name, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[name] = ctrl
		dm.mu.Unlock()

		debug.Log("devices", "connected %q", name)
		dm.emit(ctx, DeviceEvent{Type: DeviceConnected, Controller: ctrl, ID: name})
	}

	// Check for disconnects
	dm.mu.Lock()
	var gone []string
	for id, c := range dm.controllers {
		if !seenIDs[id] {
			c.Close()
			delete(dm.controllers, id)
			gone = append(gone, id)
		}
	}
	dm.mu.Unlock()

	for _, id := range gone {
		debug.Log("devices", "disconnected %q", id)
		dm.emit(ctx, DeviceEvent{Type: DeviceDisconnected, ID: id})
	}
}

func (dm *DeviceManager) emit(ctx context.Context, ev DeviceEvent) {
	select {
	case dm.events <- ev:
	case <-ctx.Done():
	}
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}
