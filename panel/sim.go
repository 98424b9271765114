package panel

import "sync"

// Sim is a software panel: every collaborator interface backed by plain
// state. The binary uses it when no hardware is attached and the tests use
// it to script input and observe output. Input setters may be called from
// another goroutine; the per-cycle reads see a consistent snapshot.
type Sim struct {
	mu sync.Mutex

	keys     uint16
	prevKeys uint16
	pins     uint16
	prevPins uint16
	adc      [4]uint16

	// Observable outputs.
	LEDs      uint16
	Indicator uint8
	GroundFX  bool

	WatchdogEnabled bool
	WatchdogResets  int

	BootloaderEntered bool

	SysexBytes    []uint8
	SysexMessages int
}

// NewSim returns a panel with everything released and centered.
func NewSim() *Sim {
	return &Sim{}
}

// SetKeys replaces the full 16-key state.
func (s *Sim) SetKeys(mask uint16) {
	s.mu.Lock()
	s.keys = mask
	s.mu.Unlock()
}

// PressKey sets one grid key down.
func (s *Sim) PressKey(i int) {
	s.mu.Lock()
	s.keys |= 1 << i
	s.mu.Unlock()
}

// ReleaseKey lets one grid key up.
func (s *Sim) ReleaseKey(i int) {
	s.mu.Lock()
	s.keys &^= 1 << i
	s.mu.Unlock()
}

// SetPins replaces the digital expansion pin state (bits 0..3).
func (s *Sim) SetPins(mask uint16) {
	s.mu.Lock()
	s.pins = mask & 0x000F
	s.mu.Unlock()
}

// SetADC sets the raw 10-bit sample a channel will read.
func (s *Sim) SetADC(channel int, value uint16) {
	s.mu.Lock()
	if channel >= 0 && channel < len(s.adc) {
		s.adc[channel] = value & 0x03FF
	}
	s.mu.Unlock()
}

func (s *Sim) Keys() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Edges(Snapshot{State: s.prevKeys}, s.keys)
	s.prevKeys = s.keys
	return snap
}

func (s *Sim) Peek() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys
}

func (s *Sim) Settle() {
	s.mu.Lock()
	s.prevKeys = s.keys
	s.mu.Unlock()
}

func (s *Sim) Pins() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Edges(Snapshot{State: s.prevPins}, s.pins)
	s.prevPins = s.pins
	return snap
}

func (s *Sim) ReadADC(channel int) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel < 0 || channel >= len(s.adc) {
		return 0
	}
	return s.adc[channel]
}

func (s *Sim) SetIndicator(mask uint8) {
	s.mu.Lock()
	s.Indicator = mask & 0x0F
	s.mu.Unlock()
}

func (s *Sim) SetState(mask uint16) {
	s.mu.Lock()
	s.LEDs = mask
	s.mu.Unlock()
}

func (s *Sim) SetGroundFX(on bool) {
	s.mu.Lock()
	s.GroundFX = on
	s.mu.Unlock()
}

func (s *Sim) Enable() {
	s.mu.Lock()
	s.WatchdogEnabled = true
	s.mu.Unlock()
}

func (s *Sim) Reset() {
	s.mu.Lock()
	s.WatchdogResets++
	s.mu.Unlock()
}

func (s *Sim) Enter() {
	s.mu.Lock()
	s.BootloaderEntered = true
	s.mu.Unlock()
}

func (s *Sim) Read(b uint8) {
	s.mu.Lock()
	s.SysexBytes = append(s.SysexBytes, b)
	s.mu.Unlock()
}

func (s *Sim) End() {
	s.mu.Lock()
	s.SysexMessages++
	s.mu.Unlock()
}

// Frame returns the grid LED state, for assertions.
func (s *Sim) Frame() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LEDs
}
