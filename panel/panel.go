// Package panel defines the hardware collaborator boundary of the control
// core: debounced key input, the expansion port, the LED driver chip and the
// watchdog. The core reads each input once per cycle and treats it as an
// eventually-consistent snapshot; the implementations are responsible for
// atomic-enough updates behind these interfaces.
package panel

// Snapshot is one debounced reading of a key bank: the current bitmask plus
// the keydown/keyup edges against the previous reading.
type Snapshot struct {
	State uint16
	Down  uint16
	Up    uint16
}

// Edges returns the snapshot that follows prev when the bank now reads
// state.
func Edges(prev Snapshot, state uint16) Snapshot {
	return Snapshot{
		State: state,
		Down:  state &^ prev.State,
		Up:    prev.State &^ state,
	}
}

// KeyScanner supplies the debounced 16-key grid state.
type KeyScanner interface {
	// Keys returns the latest snapshot and advances the edge bookkeeping.
	// Call exactly once per cycle.
	Keys() Snapshot

	// Peek returns the raw keystate without touching edge bookkeeping.
	// Used for the one-shot boot-time diagnostic read.
	Peek() uint16

	// Settle folds the current state into the previous state so that keys
	// already held do not register as fresh keydowns on the next Keys call.
	Settle()
}

// ExpansionPort supplies the four digital expansion pins and the four
// analog channels, and drives the four indicator LEDs next to the pins.
type ExpansionPort interface {
	// Pins returns the digital pin snapshot (bits 0..3) and advances its
	// edge bookkeeping. Call exactly once per cycle.
	Pins() Snapshot

	// ReadADC returns one raw 10-bit sample for the channel. The analog
	// filter calls this several times per cycle and averages.
	ReadADC(channel int) uint16

	// SetIndicator drives the four expansion indicator LEDs (bits 0..3).
	SetIndicator(mask uint8)
}

// LEDDriver drives the 16 grid LEDs and the ground-effect indicator.
type LEDDriver interface {
	SetState(mask uint16)
	SetGroundFX(on bool)
}

// Watchdog is the hardware liveness contract. Once enabled it must be Reset
// periodically or the device hard-resets; that forced reset is the sole
// recovery path for a wedged cycle.
type Watchdog interface {
	Enable()
	Reset()
}

// Bootloader enters firmware-update mode. Only the decision to enter is
// made by the core; the mechanics live behind this interface.
type Bootloader interface {
	Enter()
}

// SysexSink reassembles variable-length sysex messages from single bytes.
// The core forwards raw stream bytes and signals message end; it never
// interprets the payload.
type SysexSink interface {
	Read(b uint8)
	End()
}

// NopWatchdog satisfies Watchdog without any hardware behind it.
type NopWatchdog struct{}

func (NopWatchdog) Enable() {}
func (NopWatchdog) Reset()  {}

// DiscardSysex drops all sysex bytes.
type DiscardSysex struct{}

func (DiscardSysex) Read(uint8) {}
func (DiscardSysex) End()       {}
