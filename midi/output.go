package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-beatmaker/debug"
	"go-beatmaker/drums"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrNoPort is returned when the configured output port can't be found.
var ErrNoPort = errors.New("midi output port not found")

// gateTime is how long a triggered drum note is held before note-off
const gateTime = 100 * time.Millisecond

// Sender delivers one message to an open port.
type Sender func(gomidi.Message) error

// OutputEngine plays instruments as notes on an external MIDI device. Its
// clock is wall time since the first successful Init.
type OutputEngine struct {
	portName string
	kit      drums.DrumKit
	channel  uint8

	open func(name string) (Sender, error)
	now  func() time.Time

	mu    sync.Mutex
	send  Sender
	epoch time.Time
}

// NewOutputEngine creates an engine targeting portName (first port if empty).
func NewOutputEngine(portName string, kit drums.DrumKit) *OutputEngine {
	return &OutputEngine{
		portName: portName,
		kit:      kit,
		channel:  DrumChannel,
		open:     openPort,
		now:      time.Now,
	}
}

// openPort finds and opens an output port by (partial) name
func openPort(name string) (Sender, error) {
	outs := gomidi.GetOutPorts()
	var port drivers.Out
	for _, p := range outs {
		if name == "" || strings.Contains(strings.ToLower(p.String()), strings.ToLower(name)) {
			port = p
			break
		}
	}
	if port == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoPort, name)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", port.String(), err)
	}
	return send, nil
}

// Init opens the port once. Later calls are cheap and return the first result.
func (o *OutputEngine) Init() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.send != nil {
		return nil
	}
	send, err := o.open(o.portName)
	if err != nil {
		debug.Log("midi-out", "init failed: %v", err)
		return err
	}
	o.send = send
	o.epoch = o.now()
	debug.Log("midi-out", "opened port %q", o.portName)
	return nil
}

// CurrentTime returns seconds since the port was opened.
func (o *OutputEngine) CurrentTime() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.send == nil {
		return 0
	}
	return o.now().Sub(o.epoch).Seconds()
}

// Play triggers inst immediately.
func (o *OutputEngine) Play(inst drums.Instrument) {
	o.mu.Lock()
	send := o.send
	o.mu.Unlock()
	if send == nil {
		return
	}
	o.trigger(send, inst)
}

// PlayAt schedules inst for clock time at without blocking.
func (o *OutputEngine) PlayAt(inst drums.Instrument, at float64) {
	o.mu.Lock()
	send := o.send
	var delay time.Duration
	if send != nil {
		delay = time.Duration((at - o.now().Sub(o.epoch).Seconds()) * float64(time.Second))
	}
	o.mu.Unlock()
	if send == nil {
		return
	}
	if delay <= 0 {
		o.trigger(send, inst)
		return
	}
	time.AfterFunc(delay, func() { o.trigger(send, inst) })
}

func (o *OutputEngine) trigger(send Sender, inst drums.Instrument) {
	note := o.kit.Note(inst)
	if err := send(gomidi.NoteOn(o.channel, note, 100)); err != nil {
		debug.Log("midi-out", "send note on %d: %v", note, err)
		return
	}
	time.AfterFunc(gateTime, func() {
		send(gomidi.NoteOff(o.channel, note))
	})
}

// ListPorts returns output and input port names. The driver can hang on some
// systems, so the scan gives up after timeout.
func ListPorts(timeout time.Duration) (outs, ins []string, err error) {
	type result struct {
		outs []string
		ins  []string
	}
	ch := make(chan result, 1)
	go func() {
		var r result
		for _, p := range gomidi.GetOutPorts() {
			r.outs = append(r.outs, p.String())
		}
		for _, p := range gomidi.GetInPorts() {
			r.ins = append(r.ins, p.String())
		}
		ch <- r
	}()

	select {
	case r := <-ch:
		return r.outs, r.ins, nil
	case <-time.After(timeout):
		return nil, nil, fmt.Errorf("midi port scan timed out after %s", timeout)
	}
}
