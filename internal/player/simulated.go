package player

import (
	"log/slog"
	"sync"
	"time"

	"github.com/JStephens858/amperfyHack/internal/catalog"
)

// Simulated is an in-process Player that advances elapsed time on a ticker
// and auto-advances to the next queued song. It pushes change notifications,
// so the telemetry publisher observes it without polling.
type Simulated struct {
	mu        sync.Mutex
	queue     []catalog.Song
	index     int
	playing   bool
	elapsed   int
	context   Context
	listeners []func()

	stop chan struct{}
	once sync.Once
}

// NewSimulated returns a stopped player with an empty queue.
func NewSimulated() *Simulated {
	return &Simulated{stop: make(chan struct{})}
}

// Start runs the 1s elapsed ticker until Close is called.
func (p *Simulated) Start() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.tick()
			}
		}
	}()
}

// Close stops the ticker.
func (p *Simulated) Close() {
	p.once.Do(func() { close(p.stop) })
}

func (p *Simulated) tick() {
	p.mu.Lock()
	if !p.playing || p.index >= len(p.queue) {
		p.mu.Unlock()
		return
	}
	p.elapsed++
	ended := p.elapsed >= p.queue[p.index].DurationSeconds
	p.mu.Unlock()

	if ended {
		p.Next()
	}
}

func (p *Simulated) CurrentSong() (catalog.Song, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index < 0 || p.index >= len(p.queue) {
		return catalog.Song{}, false
	}
	return p.queue[p.index], true
}

func (p *Simulated) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Simulated) ElapsedSeconds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elapsed
}

func (p *Simulated) DurationSeconds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index < 0 || p.index >= len(p.queue) {
		return 0
	}
	return p.queue[p.index].DurationSeconds
}

func (p *Simulated) Context() Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.context
}

func (p *Simulated) Play(candidates []catalog.Song, startIndex int, ctx Context) {
	if len(candidates) == 0 {
		return
	}
	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex >= len(candidates) {
		startIndex = len(candidates) - 1
	}

	p.mu.Lock()
	p.queue = candidates
	p.index = startIndex
	p.elapsed = 0
	p.playing = true
	p.context = ctx
	song := p.queue[p.index]
	p.mu.Unlock()

	slog.Info("[Player] playing", "song", song.Title, "context", ctx.Name)
	p.notify()
}

func (p *Simulated) TogglePlayPause() {
	p.mu.Lock()
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return
	}
	p.playing = !p.playing
	p.mu.Unlock()
	p.notify()
}

func (p *Simulated) Next() {
	p.skip(1)
}

func (p *Simulated) Previous() {
	p.skip(-1)
}

// skip moves within the queue, wrapping at both ends.
func (p *Simulated) skip(delta int) {
	p.mu.Lock()
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return
	}
	p.index = (p.index + delta + len(p.queue)) % len(p.queue)
	p.elapsed = 0
	p.mu.Unlock()
	p.notify()
}

func (p *Simulated) OnPlaybackChanged(fn func()) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

func (p *Simulated) notify() {
	p.mu.Lock()
	listeners := make([]func(), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

var (
	_ Player   = (*Simulated)(nil)
	_ Notifier = (*Simulated)(nil)
)
