package core

import (
	"context"
	"time"

	"gridfighter/config"
	"gridfighter/debug"
	"gridfighter/midi"
	"gridfighter/panel"
)

// Menu is the interactive configuration menu entered from boot dispatch. It
// edits cfg in place; the supervisor persists and re-applies it afterwards.
type Menu interface {
	Run(cfg *config.Config) error
}

// Collaborators are the external interfaces the supervisor drives. Sysex,
// Watchdog, Bootloader, Combos and Menu may be nil; missing ones degrade to
// no-ops.
type Collaborators struct {
	Transport  midi.Transport
	Keys       panel.KeyScanner
	Expansion  panel.ExpansionPort
	LEDs       panel.LEDDriver
	Watchdog   panel.Watchdog
	Bootloader panel.Bootloader
	Sysex      panel.SysexSink
	Combos     ComboRecognizer
	Menu       Menu
}

// LED patterns for the transport lifecycle, shown while the endpoint is not
// carrying traffic.
const (
	ledsDisconnected uint16 = 0x0001
	ledsEnumerating  uint16 = 0x0002
	ledsConfigured   uint16 = 0x0004
	ledsSetupFailed  uint16 = 0x0008
)

// lifecycleLEDs maps a not-up link state to its diagnostic pattern.
func lifecycleLEDs(link midi.LinkState) uint16 {
	switch link {
	case midi.LinkEnumerating:
		return ledsEnumerating
	case midi.LinkFailed:
		return ledsSetupFailed
	}
	return ledsDisconnected
}

// cyclePeriod paces the steady-state loop. Each cycle must finish well
// inside the watchdog window.
const cyclePeriod = time.Millisecond

// Supervisor owns the cycle loop: it sequences the pipeline components in
// fixed order every iteration, tracks the transport lifecycle and is the
// only party allowed to pet the watchdog.
type Supervisor struct {
	cfg *config.Config

	out    midi.Transport
	keys   panel.KeyScanner
	exp    panel.ExpansionPort
	leds   panel.LEDDriver
	dog    panel.Watchdog
	boot   panel.Bootloader
	sysex  panel.SysexSink
	combos ComboRecognizer
	menu   Menu

	state   State
	filter  *AnalogFilter
	emitter *Emitter
	policy  BankPolicy

	keypressLights bool
	combosEnabled  bool

	configured bool // transport is up and the watchdog is armed
	dogArmed   bool
	alive      bool // set by Cycle, consumed by Run before petting the watchdog

	lastLink  midi.LinkState // last lifecycle code shown on the LEDs
	linkShown bool

	sleep func(time.Duration)
}

// NewSupervisor wires a supervisor from the configuration and its
// collaborators.
func NewSupervisor(cfg *config.Config, c Collaborators) *Supervisor {
	s := &Supervisor{
		cfg:    cfg,
		out:    c.Transport,
		keys:   c.Keys,
		exp:    c.Expansion,
		leds:   c.LEDs,
		dog:    c.Watchdog,
		boot:   c.Bootloader,
		sysex:  c.Sysex,
		combos: c.Combos,
		menu:   c.Menu,
		sleep:  time.Sleep,
	}
	if s.dog == nil {
		s.dog = panel.NopWatchdog{}
	}
	if s.sysex == nil {
		s.sysex = panel.DiscardSysex{}
	}
	s.applyConfig()
	return s
}

// applyConfig rebuilds the per-cycle components from the current config.
func (s *Supervisor) applyConfig() {
	mode := ParseDeviceMode(s.cfg.DeviceMode)
	banking := ParseBankingMode(s.cfg.Banking)

	s.policy = BankPolicy{Mode: banking, Base: s.cfg.BaseNote}
	s.filter = NewAnalogFilter(s.cfg.InvertSliders, s.cfg.Rotate)
	s.emitter = NewEmitter(s.out, s.cfg.Channel, mode, s.cfg.Velocity)
	s.keypressLights = s.cfg.KeypressLights
	s.combosEnabled = s.cfg.Combos

	debug.Log("core", "config applied: channel=%d mode=%s banking=%s base=%d",
		s.cfg.Channel, mode, banking, s.cfg.BaseNote)
}

// ReloadConfig re-reads the persisted configuration and applies it. Wired
// to config-sysex receipt by the binary.
func (s *Supervisor) ReloadConfig() {
	cfg, err := config.Load()
	if err != nil {
		debug.Log("core", "config reload failed: %v", err)
		return
	}
	*s.cfg = *cfg
	s.applyConfig()
}

// State exposes the owned state for inspection. Callers outside the cycle
// must treat it as read-only.
func (s *Supervisor) State() *State {
	return &s.state
}

// Cycle runs one full pipeline iteration. It records liveness on every path
// taken, including the not-configured one; a cycle that wedges records
// nothing and the watchdog fires.
func (s *Supervisor) Cycle() {
	if link := s.out.State(); link != midi.LinkUp {
		s.configured = false
		if !s.linkShown || link != s.lastLink {
			s.linkShown = true
			s.lastLink = link
			s.leds.SetState(lifecycleLEDs(link))
			debug.Log("core", "transport %s", link)
		}
		s.alive = true
		return
	}
	s.linkShown = false
	if !s.configured {
		s.onTransportUp()
	}

	// 1. Drain inbound MIDI into the ledger, flasher counter and sysex
	// sink.
	s.emitter.DrainInbound(&s.state, s.out, s.sysex)

	// 2. Expansion port: digital pin notes, then conditioned analog.
	pins := s.exp.Pins()
	s.emitter.EmitDigital(&s.state, pins, s.policy.Mode)
	readings := s.filter.Update(s.exp.ReadADC)
	s.emitter.EmitAnalog(&s.state, readings)

	// 3. Grid keys: bank selection first, then the banked notes.
	keys := s.keys.Keys()
	bankKeys, grid, offset, count := s.policy.Route(keys, pins)
	if s.policy.Mode == BankingOff {
		s.state.Bank = 0
	} else {
		UpdateBanks(&s.state, s.emitter, bankKeys)
	}
	s.emitter.EmitGrid(&s.state, grid, s.policy, s.state.Bank, offset, count)

	// 4. Combo gestures.
	if s.combosEnabled {
		s.emitter.RunCombos(&s.state, s.combos, keys)
	}

	// 5. One flush per cycle, after all emission.
	s.out.Flush()

	// 6. Full LED recompute.
	frame := RenderLEDs(&s.state, s.policy, s.state.Bank, keys, pins, s.keypressLights)
	s.leds.SetState(frame.Grid)
	s.exp.SetIndicator(frame.Indicator)

	// 7. Ground-effect flasher.
	if on, set := AdvanceGroundFX(&s.state); set {
		s.leds.SetGroundFX(on)
	}

	s.alive = true
}

func (s *Supervisor) onTransportUp() {
	s.configured = true

	// Short flash so the lifecycle state is visible before the pipeline
	// takes the LEDs over.
	s.leds.SetState(ledsConfigured)
	s.sleep(40 * time.Millisecond)
	s.leds.SetState(0x0000)

	if !s.dogArmed {
		s.dog.Enable()
		s.dogArmed = true
	}
	debug.Log("core", "transport up, watchdog armed")
}

// Run is the steady-state loop. The watchdog is petted only when the
// preceding cycle recorded liveness; stale liveness is never reused.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.Cycle()

		if s.alive {
			s.dog.Reset()
			s.alive = false
		}

		s.sleep(cyclePeriod)
	}
}
