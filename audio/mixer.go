package audio

import (
	"container/heap"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
)

// voice is a finite streamer waiting for its first output sample
type voice struct {
	start int64
	s     beep.Streamer
}

type voiceQueue []*voice

func (q voiceQueue) Len() int           { return len(q) }
func (q voiceQueue) Less(i, j int) bool { return q[i].start < q[j].start }
func (q voiceQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *voiceQueue) Push(x any)        { *q = append(*q, x.(*voice)) }
func (q *voiceQueue) Pop() any {
	old := *q
	n := len(old)
	v := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return v
}

// clockedMixer is the streamer handed to the speaker. It counts every sample
// it renders; that count is the engine clock. Voices start on the exact
// sample they were scheduled for.
type clockedMixer struct {
	mu      sync.Mutex
	pos     int64
	pending voiceQueue
	active  []beep.Streamer
	tmp     [][2]float64

	clock atomic.Int64
	muted atomic.Bool
}

func newClockedMixer() *clockedMixer {
	return &clockedMixer{}
}

// Position returns the number of samples rendered so far.
func (m *clockedMixer) Position() int64 {
	return m.clock.Load()
}

// Schedule queues s to begin at sample start. Starts in the past begin at
// the next rendered sample.
func (m *clockedMixer) Schedule(start int64, s beep.Streamer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if start < m.pos {
		start = m.pos
	}
	heap.Push(&m.pending, &voice{start: start, s: s})
}

// Pending returns the number of voices that have not started yet.
func (m *clockedMixer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *clockedMixer) Stream(samples [][2]float64) (n int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(samples)
	end := m.pos + int64(len(samples))

	live := m.active[:0]
	for _, s := range m.active {
		if m.mixInto(samples, s) {
			live = append(live, s)
		}
	}
	for i := len(live); i < len(m.active); i++ {
		m.active[i] = nil
	}
	m.active = live

	for len(m.pending) > 0 && m.pending[0].start < end {
		v := heap.Pop(&m.pending).(*voice)
		off := int(v.start - m.pos)
		if off < 0 {
			off = 0
		}
		if m.mixInto(samples[off:], v.s) {
			m.active = append(m.active, v.s)
		}
	}

	m.pos = end
	m.clock.Store(end)

	if m.muted.Load() {
		clear(samples)
	}
	return len(samples), true
}

func (m *clockedMixer) Err() error {
	return nil
}

// mixInto adds s into dst and reports whether s has more to give.
func (m *clockedMixer) mixInto(dst [][2]float64, s beep.Streamer) bool {
	if cap(m.tmp) < len(dst) {
		m.tmp = make([][2]float64, len(dst))
	}
	buf := m.tmp[:len(dst)]
	filled := 0
	for filled < len(buf) {
		n, ok := s.Stream(buf[filled:])
		for i := filled; i < filled+n; i++ {
			dst[i][0] += buf[i][0]
			dst[i][1] += buf[i][1]
		}
		filled += n
		if !ok {
			return false
		}
		if n == 0 {
			break
		}
	}
	return true
}
