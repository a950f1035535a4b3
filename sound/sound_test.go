package sound

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/ursa-engine/ursa/event"
)

// writeWav writes a short silent wav file and returns its path.
func writeWav(t *testing.T, rate beep.SampleRate) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sound.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating wav: %v", err)
	}
	defer f.Close()
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Silence(256), format); err != nil {
		t.Fatalf("encoding wav: %v", err)
	}
	return path
}

func TestRegisterSound(t *testing.T) {
	l := NewSoundListener()
	path := writeWav(t, sampleRate)
	if err := l.RegisterSound("step", path); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := l.RegisterSound("step", path); !errors.Is(err, ErrSound) {
		t.Errorf("duplicate name should fail, got %v", err)
	}
	if err := l.RegisterSound("", path); !errors.Is(err, ErrSound) {
		t.Errorf("empty name should fail, got %v", err)
	}
	if err := l.RegisterSound("broken", "no/such/file.wav"); !errors.Is(err, ErrSound) {
		t.Errorf("missing file should fail, got %v", err)
	}
	if names := l.Sounds(); len(names) != 1 || names[0] != "step" {
		t.Errorf("registered sounds: %v", names)
	}
}

func TestRegisterSoundResamples(t *testing.T) {
	l := NewSoundListener()
	if err := l.RegisterSound("slow", writeWav(t, 22050)); err != nil {
		t.Errorf("off-rate wav should load via resampling: %v", err)
	}
}

func TestRegisterSoundRejectsGarbage(t *testing.T) {
	l := NewSoundListener()
	path := filepath.Join(t.TempDir(), "noise.wav")
	os.WriteFile(path, []byte("definitely not a wav"), 0o644)
	if err := l.RegisterSound("noise", path); !errors.Is(err, ErrSound) {
		t.Errorf("garbage file should fail to decode, got %v", err)
	}
}

func TestPlayUnknownSound(t *testing.T) {
	l := NewSoundListener()
	if err := l.Play("phantom"); !errors.Is(err, ErrSound) {
		t.Errorf("unknown sound: %v", err)
	}
}

// The speaker is never opened in tests, so playback is bookkeeping only.
func TestBackgroundSoundEvents(t *testing.T) {
	l := NewSoundListener()
	if err := l.RegisterSound("theme", writeWav(t, sampleRate)); err != nil {
		t.Fatalf("register: %v", err)
	}
	l.OnEvent(event.Event{Type: event.TypeSetBGSound, Value: "theme"})
	if l.Background() != "theme" {
		t.Errorf("background: %q", l.Background())
	}
	// Unknown names are dropped without changing the current sound.
	l.OnEvent(event.Event{Type: event.TypeSetBGSound, Value: "phantom"})
	if l.Background() != "theme" {
		t.Errorf("unknown background request should not stick: %q", l.Background())
	}
	l.OnEvent(event.Event{Type: event.TypeSetBGSound, Value: ""})
	if l.Background() != "" {
		t.Errorf("empty name should stop the background sound: %q", l.Background())
	}
	// One-shot requests are accepted silently.
	l.OnEvent(event.Event{Type: event.TypePlaySound, Value: "theme"})
}
