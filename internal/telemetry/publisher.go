// Package telemetry observes playback transitions and pushes songStarted,
// songStopped, and playbackProgress frames to the display.
package telemetry

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/JStephens858/amperfyHack/internal/catalog"
	"github.com/JStephens858/amperfyHack/internal/player"
	"github.com/JStephens858/amperfyHack/internal/protocol"
	"github.com/JStephens858/amperfyHack/internal/session"
)

// Sender is the outbound frame gate, satisfied by *session.Session.
type Sender interface {
	Send(data []byte) error
}

// observation is one snapshot of the player, taken whole so that frames for
// the previous song are built from its own elapsed position and scope, not
// the already-advanced live state.
type observation struct {
	song    catalog.Song
	has     bool
	playing bool
	elapsed int
	ctx     player.Context
}

// Publisher turns player-state changes into telemetry frames. It keeps no
// playback history beyond the last observation; that is enough to derive
// every transition.
type Publisher struct {
	player   player.Player
	sender   Sender
	interval time.Duration
	log      *slog.Logger

	// onTelemetry mirrors every outbound frame to the local UI.
	onTelemetry func(protocol.MessageKind, protocol.Telemetry)

	mu   sync.Mutex
	last observation

	stop chan struct{}
	once sync.Once
}

// New creates a publisher pushing frames through sender every interval
// while a song plays.
func New(p player.Player, sender Sender, interval time.Duration, log *slog.Logger) *Publisher {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		player:   p,
		sender:   sender,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// OnTelemetry registers the UI mirror callback. Must be set before Start.
func (p *Publisher) OnTelemetry(fn func(protocol.MessageKind, protocol.Telemetry)) {
	p.onTelemetry = fn
}

// Start begins observing the player. Players that push change notifications
// are subscribed directly; anything else is polled on the progress interval.
// Either way the cadence ticker runs, emitting progress frames only while
// playing.
func (p *Publisher) Start() {
	if n, ok := p.player.(player.Notifier); ok {
		n.OnPlaybackChanged(p.Observe)
	} else {
		go p.pollLoop()
	}
	go p.progressLoop()
}

// Stop halts the cadence and poll timers.
func (p *Publisher) Stop() {
	p.once.Do(func() { close(p.stop) })
}

func (p *Publisher) pollLoop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.Observe()
		}
	}
}

func (p *Publisher) progressLoop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.Tick()
		}
	}
}

// Observe compares the player's state against the last observation and
// emits the transition frames. A stopped frame for the previous song always
// precedes the started frame for a new one, built from the previous
// snapshot so it carries that song's elapsed position and scope.
func (p *Publisher) Observe() {
	song, has := p.player.CurrentSong()
	cur := observation{
		song:    song,
		has:     has,
		playing: has && p.player.IsPlaying(),
		elapsed: p.player.ElapsedSeconds(),
		ctx:     p.player.Context(),
	}

	p.mu.Lock()
	prev := p.last
	p.last = cur
	p.mu.Unlock()

	switch {
	case !cur.has:
		if prev.has && prev.playing {
			p.emit(protocol.KindSongStopped, asStopped(prev))
		}

	case !prev.has || cur.song.ID != prev.song.ID:
		if prev.has && prev.playing {
			p.emit(protocol.KindSongStopped, asStopped(prev))
		}
		if cur.playing {
			p.emit(protocol.KindSongStarted, cur)
		}

	case cur.playing != prev.playing:
		if cur.playing {
			// Resume counts as a fresh start of the same song.
			p.emit(protocol.KindSongStarted, cur)
		} else {
			p.emit(protocol.KindSongStopped, asStopped(cur))
		}
	}
}

// Tick emits one playbackProgress frame when a song is actively playing and
// is a no-op otherwise. Elapsed is read live; everything else comes from the
// last observation.
func (p *Publisher) Tick() {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if !last.playing {
		return
	}
	last.elapsed = p.player.ElapsedSeconds()
	p.emit(protocol.KindPlaybackProgress, last)
}

func asStopped(o observation) observation {
	o.playing = false
	return o
}

func (p *Publisher) emit(kind protocol.MessageKind, o observation) {
	tel := protocol.Telemetry{
		SongID:          o.song.ID,
		Title:           protocol.TruncateTitle(o.song.Title),
		Artist:          protocol.TruncateName(o.song.Artist),
		Album:           protocol.TruncateName(o.song.Album),
		DurationSeconds: o.song.DurationSeconds,
		ElapsedSeconds:  o.elapsed,
		IsPlaying:       o.playing,
	}
	if o.ctx.IsScoped() {
		tel.ContextKind = o.ctx.Kind
		tel.ContextID = o.ctx.ID
	}

	env, err := protocol.NewEnvelope(kind, tel)
	if err != nil {
		p.log.Error("[Telemetry] build envelope", "kind", kind, "error", err)
		return
	}
	data, err := protocol.Encode(env)
	if err != nil {
		p.log.Error("[Telemetry] encode", "kind", kind, "error", err)
		return
	}
	if err := p.sender.Send(data); err != nil && !errors.Is(err, session.ErrNotReady) {
		p.log.Warn("[Telemetry] send failed", "kind", kind, "error", err)
	}
	if p.onTelemetry != nil {
		p.onTelemetry(kind, tel)
	}
}
