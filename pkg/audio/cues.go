// Package audio plays the short interaction cues of the exhibit: a hover sound when a
// prompt appears and open/close sounds for the shared display.
package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"organtour/pkg/config"
	"organtour/pkg/event"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// Cue names a sound.
type Cue string

const (
	CueHover Cue = "hover"
	CueOpen  Cue = "open"
	CueClose Cue = "close"
)

// outputRate is the fixed mixer rate; every cue is resampled to it at load time.
const outputRate = beep.SampleRate(48000)

var outputFormat = beep.Format{SampleRate: outputRate, NumChannels: 2, Precision: 2}

// CuePlayer holds decoded cues in memory and plays them on demand. It is safe for
// concurrent use.
type CuePlayer struct {
	mu          sync.Mutex
	out         Output
	initialized bool
	enabled     bool
	volume      float64
	buffers     map[Cue]*beep.Buffer
	played      map[Cue]int
}

// NewCuePlayer creates an enabled player at full volume. A nil out plays through the
// system speaker.
func NewCuePlayer(out Output) *CuePlayer {
	if out == nil {
		out = SpeakerOutput{}
	}
	return &CuePlayer{
		out:     out,
		enabled: true,
		volume:  1.0,
		buffers: make(map[Cue]*beep.Buffer),
		played:  make(map[Cue]int),
	}
}

// CuePaths maps configured cue files to cue names. Empty paths are left out.
func CuePaths(cfg config.CueConfig) map[Cue]string {
	paths := make(map[Cue]string, 3)
	for cue, p := range map[Cue]string{CueHover: cfg.Hover, CueOpen: cfg.Open, CueClose: cfg.Close} {
		if p != "" {
			paths[cue] = p
		}
	}
	return paths
}

// Load decodes every cue file into memory. Cues that fail to load are skipped and
// reported together; the rest remain playable.
func (p *CuePlayer) Load(paths map[Cue]string) error {
	var errs []error
	for cue, path := range paths {
		buf, err := loadBuffer(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("cue %s: %w", cue, err))
			continue
		}
		p.mu.Lock()
		p.buffers[cue] = buf
		p.mu.Unlock()
		slog.Debug("Audio: cue loaded", "cue", cue, "path", path, "duration", outputRate.D(buf.Len()))
	}
	return errors.Join(errs...)
}

func loadBuffer(path string) (*beep.Buffer, error) {
	streamer, format, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != outputRate {
		s = beep.Resample(3, format.SampleRate, outputRate, streamer)
	}
	buf := beep.NewBuffer(outputFormat)
	buf.Append(s)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("read cue: %w", err)
	}
	return buf, nil
}

// SetEnabled mutes or unmutes all cues.
func (p *CuePlayer) SetEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = on
}

// SetVolume sets the master level, 0..100. Values outside the range are clamped.
// The level applies to cues started afterwards.
func (p *CuePlayer) SetVolume(level int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = float64(clampLevel(level)) / 100
}

// Volume returns the linear level in [0,1].
func (p *CuePlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Has reports whether cue is loaded.
func (p *CuePlayer) Has(cue Cue) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.buffers[cue]
	return ok
}

// Play starts cue without blocking. It returns false when the player is disabled, the
// cue is not loaded or the output could not be initialized.
func (p *CuePlayer) Play(cue Cue) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return false
	}
	buf, ok := p.buffers[cue]
	if !ok {
		return false
	}
	if err := p.ensureInitialized(); err != nil {
		slog.Error("Audio: output unavailable", "error", err)
		return false
	}

	vol := &effects.Volume{
		Streamer: buf.Streamer(0, buf.Len()),
		Base:     2,
		Volume:   volumeToPower(p.volume),
		Silent:   p.volume <= 0.01,
	}
	p.out.Play(vol)
	p.played[cue]++
	return true
}

// Played returns how many times cue was started.
func (p *CuePlayer) Played(cue Cue) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played[cue]
}

func (p *CuePlayer) ensureInitialized() error {
	if p.initialized {
		return nil
	}
	if err := p.out.Init(outputRate, outputRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init output: %w", err)
	}
	p.initialized = true
	slog.Debug("Audio: output initialized", "rate", outputRate)
	return nil
}

// BindCues plays the hover cue when a prompt appears and the open and close cues on
// display events. The returned function removes the subscription.
func BindCues(bus *event.Bus, p *CuePlayer) (unsubscribe func()) {
	return bus.Subscribe(func(ev event.Event) {
		switch ev.Type {
		case event.PromptShown:
			p.Play(CueHover)
		case event.DisplayOpened:
			p.Play(CueOpen)
		case event.DisplayClosed:
			p.Play(CueClose)
		}
	}, event.PromptShown, event.DisplayOpened, event.DisplayClosed)
}
