package notify

import (
	"github.com/gen2brain/beeep"
)

// Two-tone cue: C5 then E5.
const (
	toneLow   = 523.25
	toneHigh  = 659.25
	toneMilli = 150
)

// BeepCue plays the two-tone alert through the system speaker.
type BeepCue struct{}

func (BeepCue) Play() error {
	if err := beeep.Beep(toneLow, toneMilli); err != nil {
		return err
	}
	return beeep.Beep(toneHigh, toneMilli)
}

// DesktopSink raises a desktop notification for each toast.
type DesktopSink struct{}

func (DesktopSink) Notify(t Toast) error {
	return beeep.Notify(Header, t.String(), "")
}
