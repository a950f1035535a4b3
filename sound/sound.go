// Package sound plays audio in response to play_sound and set_bg_sound
// events.
package sound

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"github.com/ursa-engine/ursa/event"
)

// ErrSound is wrapped by every error of this package.
var ErrSound = errors.New("sound error")

const sampleRate = beep.SampleRate(44100)

// SoundListener doesn't listen to sounds; it listens to events and plays
// sounds. Register it for play_sound and set_bg_sound. A play_sound event
// plays its named sound once; set_bg_sound replaces the looping background
// sound, or stops it when the name is empty.
//
// Sounds are wav files registered by name up front. All playback goes
// through one mixer on one speaker, so a single listener serves the whole
// program.
type SoundListener struct {
	mu      sync.Mutex
	sounds  map[string]*beep.Buffer
	mixer   *beep.Mixer
	bgCtrl  *beep.Ctrl
	bgName  string
	started bool
}

// NewSoundListener builds a silent listener; call Init to open the
// speaker.
func NewSoundListener() *SoundListener {
	return &SoundListener{
		sounds: make(map[string]*beep.Buffer),
		mixer:  &beep.Mixer{},
	}
}

// Init opens the speaker and attaches the mixer. Without it the listener
// keeps its bookkeeping but stays silent, which is also the headless-test
// mode.
func (s *SoundListener) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return fmt.Errorf("%w: %v", ErrSound, err)
	}
	speaker.Play(s.mixer)
	s.started = true
	return nil
}

// Close stops all playback and closes the speaker.
func (s *SoundListener) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	s.bgCtrl = nil
	s.bgName = ""
	s.started = false
}

// RegisterSound loads a wav file under a name. Sounds recorded at another
// sample rate are resampled on load.
func (s *SoundListener) RegisterSound(name, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		return fmt.Errorf("%w: empty sound name", ErrSound)
	}
	if _, ok := s.sounds[name]; ok {
		return fmt.Errorf("%w: duplicate sound name %q", ErrSound, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSound, err)
	}
	defer f.Close()
	streamer, format, err := wav.Decode(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSound, path, err)
	}
	defer streamer.Close()
	buf := beep.NewBuffer(beep.Format{
		SampleRate:  sampleRate,
		NumChannels: format.NumChannels,
		Precision:   format.Precision,
	})
	if format.SampleRate == sampleRate {
		buf.Append(streamer)
	} else {
		buf.Append(beep.Resample(4, format.SampleRate, sampleRate, streamer))
	}
	s.sounds[name] = buf
	return nil
}

// Sounds returns the registered sound names.
func (s *SoundListener) Sounds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.sounds))
	for name := range s.sounds {
		names = append(names, name)
	}
	return names
}

// Play plays a registered sound once, for callers that want a sound
// without going through the queue.
func (s *SoundListener) Play(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.sounds[name]
	if !ok {
		return fmt.Errorf("%w: nonexistent sound %q requested", ErrSound, name)
	}
	if !s.started {
		return nil
	}
	speaker.Lock()
	s.mixer.Add(buf.Streamer(0, buf.Len()))
	speaker.Unlock()
	return nil
}

// SetBackground replaces the looping background sound; an empty name just
// stops the current one.
func (s *SoundListener) SetBackground(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buf *beep.Buffer
	if name != "" {
		var ok bool
		if buf, ok = s.sounds[name]; !ok {
			return fmt.Errorf("%w: nonexistent sound %q requested", ErrSound, name)
		}
	}
	if s.started {
		speaker.Lock()
		if s.bgCtrl != nil {
			s.bgCtrl.Streamer = nil
		}
		if buf != nil {
			s.bgCtrl = &beep.Ctrl{
				Streamer: beep.Loop(-1, buf.Streamer(0, buf.Len())),
			}
			s.mixer.Add(s.bgCtrl)
		} else {
			s.bgCtrl = nil
		}
		speaker.Unlock()
	}
	s.bgName = name
	return nil
}

// Background returns the current background sound name, empty when none.
func (s *SoundListener) Background() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bgName
}

// OnEvent plays the requested sounds. Requests for unknown names are
// logged and dropped; a missing sound is an asset problem, not a reason to
// stop the loop.
func (s *SoundListener) OnEvent(ev event.Event) []event.Event {
	switch ev.Type {
	case event.TypePlaySound:
		if name, ok := ev.Value.(string); ok {
			if err := s.Play(name); err != nil {
				log.Printf("sound: %v", err)
			}
		}
	case event.TypeSetBGSound:
		if name, ok := ev.Value.(string); ok {
			if err := s.SetBackground(name); err != nil {
				log.Printf("sound: %v", err)
			}
		}
	}
	return nil
}

var _ event.Listener = (*SoundListener)(nil)
