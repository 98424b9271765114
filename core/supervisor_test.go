package core

import (
	"context"
	"testing"
	"time"

	"gridfighter/config"
	"gridfighter/midi"
	"gridfighter/panel"
)

func newTestSupervisor(cfg *config.Config) (*Supervisor, *midi.Loopback, *panel.Sim) {
	out := &midi.Loopback{}
	sim := panel.NewSim()
	s := NewSupervisor(cfg, Collaborators{
		Transport:  out,
		Keys:       sim,
		Expansion:  sim,
		LEDs:       sim,
		Watchdog:   sim,
		Bootloader: sim,
		Sysex:      sim,
	})
	s.sleep = func(time.Duration) {}
	return s, out, sim
}

// sent returns the packets flushed since the previous call.
func sent(out *midi.Loopback, mark *int) []midi.Packet {
	pkts := out.Sent[*mark:]
	*mark = len(out.Sent)
	return pkts
}

func TestSupervisorCycle(t *testing.T) {
	t.Run("grid key to note, ledger and LED", func(t *testing.T) {
		s, out, sim := newTestSupervisor(config.DefaultConfig())

		sim.PressKey(5)
		s.Cycle()

		if !sim.WatchdogEnabled {
			t.Error("watchdog not armed on first configured cycle")
		}
		if out.Flushes != 1 {
			t.Errorf("flushes: got %d, want 1", out.Flushes)
		}
		want := midi.NoteOn(0, 41, 127)
		if len(out.Sent) != 1 || out.Sent[0] != want {
			t.Fatalf("packets: got %v, want [%v]", out.Sent, want)
		}
		if !s.State().Notes.On(41) {
			t.Error("ledger missed note 41")
		}
		if sim.Frame() != 1<<5 {
			t.Errorf("LEDs: got %#x, want %#x", sim.Frame(), uint16(1<<5))
		}

		sim.ReleaseKey(5)
		s.Cycle()
		if got := out.Sent[1:]; len(got) != 1 || got[0] != midi.NoteOff(0, 41) {
			t.Errorf("release packets: got %v", got)
		}
		if sim.Frame() != 0 {
			t.Errorf("LEDs after release: got %#x, want 0", sim.Frame())
		}
	})

	t.Run("transport lifecycle", func(t *testing.T) {
		s, out, sim := newTestSupervisor(config.DefaultConfig())

		s.Cycle()
		out.Down = true
		s.Cycle()
		if sim.Frame() != 0x0001 {
			t.Errorf("disconnect code: got %#x, want 0x0001", sim.Frame())
		}
		if out.Flushes != 1 {
			t.Errorf("flushed while down: %d flushes", out.Flushes)
		}

		out.Down = false
		sim.PressKey(0)
		s.Cycle()
		if want := midi.NoteOn(0, 36, 127); out.Sent[len(out.Sent)-1] != want {
			t.Errorf("after reconnect: got %v, want %v", out.Sent, want)
		}
	})

	t.Run("lifecycle diagnostics", func(t *testing.T) {
		s, out, sim := newTestSupervisor(config.DefaultConfig())

		// No endpoint at power-on: the disconnect code shows on the very
		// first cycle, not only after a later drop.
		out.Down = true
		s.Cycle()
		if sim.Frame() != 0x0001 {
			t.Errorf("detached: got %#x, want 0x0001", sim.Frame())
		}

		out.Down = false
		out.Link = midi.LinkEnumerating
		s.Cycle()
		if sim.Frame() != 0x0002 {
			t.Errorf("enumerating: got %#x, want 0x0002", sim.Frame())
		}

		out.Link = midi.LinkFailed
		s.Cycle()
		if sim.Frame() != 0x0008 {
			t.Errorf("setup failed: got %#x, want 0x0008", sim.Frame())
		}

		// An unchanged phase does not rewrite the LEDs every cycle.
		sim.SetState(0xBEEF)
		s.Cycle()
		if sim.Frame() != 0xBEEF {
			t.Errorf("steady phase repainted: got %#x", sim.Frame())
		}

		out.Link = midi.LinkUp
		s.Cycle()
		if !sim.WatchdogEnabled {
			t.Error("watchdog not armed after recovery")
		}

		// A later drop shows the code again.
		out.Down = true
		s.Cycle()
		if sim.Frame() != 0x0001 {
			t.Errorf("drop after recovery: got %#x, want 0x0001", sim.Frame())
		}
	})

	t.Run("traktor slider sweep", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.DeviceMode = config.ModeTraktor
		s, out, sim := newTestSupervisor(cfg)
		mark := 0

		// Resting near the bottom: primary CC plus a note-off for the
		// endpoint note, since the previous value starts inside the tick.
		sim.SetADC(0, 40)
		s.Cycle()
		got := sent(out, &mark)
		want := []midi.Packet{
			midi.ControlChange(0, 16, 2),
			midi.NoteOff(0, 100),
		}
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Fatalf("cycle 1: got %v, want %v", got, want)
		}

		// Into the bottom tick: the endpoint note fires, no CC.
		sim.SetADC(0, 16)
		s.Cycle()
		got = sent(out, &mark)
		if len(got) != 1 || got[0] != midi.NoteOn(0, 100, 127) {
			t.Fatalf("cycle 2: got %v", got)
		}
		if !s.State().Notes.On(100) {
			t.Error("ledger missed the endpoint note")
		}

		// Back out of the tick.
		sim.SetADC(0, 40)
		s.Cycle()
		got = sent(out, &mark)
		if len(got) != 2 || got[1] != midi.NoteOff(0, 100) {
			t.Fatalf("cycle 3: got %v", got)
		}

		// Holding still emits nothing.
		s.Cycle()
		if got = sent(out, &mark); len(got) != 0 {
			t.Errorf("idle cycle: got %v", got)
		}
	})

	t.Run("internal banking", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Banking = config.BankingInternal
		s, out, sim := newTestSupervisor(cfg)
		mark := 0

		sim.PressKey(2)
		s.Cycle()
		got := sent(out, &mark)
		if len(got) != 1 || got[0] != midi.NoteOn(0, 2, 127) {
			t.Fatalf("bank select: got %v", got)
		}
		if s.State().Bank != 2 {
			t.Errorf("bank: got %d, want 2", s.State().Bank)
		}
		if sim.Frame() != 1<<2 {
			t.Errorf("bank light: got %#x, want %#x", sim.Frame(), uint16(1<<2))
		}
		sim.ReleaseKey(2)
		s.Cycle()
		sent(out, &mark)

		// Key 6 in bank 2: note 36 + 2*12 + (6-4) = 62.
		sim.PressKey(6)
		s.Cycle()
		got = sent(out, &mark)
		if len(got) != 1 || got[0] != midi.NoteOn(0, 62, 127) {
			t.Fatalf("banked note: got %v", got)
		}
		if sim.Frame() != uint16(1<<2|1<<6) {
			t.Errorf("LEDs: got %#x, want %#x", sim.Frame(), uint16(1<<2|1<<6))
		}
	})

	t.Run("external banking", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Banking = config.BankingExternal
		s, out, sim := newTestSupervisor(cfg)
		mark := 0

		// Pin 1 selects bank 1; no digital note may leak out.
		sim.SetPins(0x0002)
		s.Cycle()
		got := sent(out, &mark)
		if len(got) != 1 || got[0] != midi.NoteOn(0, 1, 127) {
			t.Fatalf("pin bank select: got %v", got)
		}
		if sim.Indicator != 1<<1 {
			t.Errorf("indicator: got %#x, want %#x", sim.Indicator, uint8(1<<1))
		}

		// Key 3 in bank 1: note 36 + 16 + 3 = 55.
		sim.PressKey(3)
		s.Cycle()
		got = sent(out, &mark)
		if len(got) != 1 || got[0] != midi.NoteOn(0, 55, 127) {
			t.Fatalf("banked note: got %v", got)
		}
	})

	t.Run("combo gesture", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Combos = true
		out := &midi.Loopback{}
		sim := panel.NewSim()
		rec := &scriptedRecognizer{action: ComboBDown}
		s := NewSupervisor(cfg, Collaborators{
			Transport: out,
			Keys:      sim,
			Expansion: sim,
			LEDs:      sim,
			Combos:    rec,
		})
		s.sleep = func(time.Duration) {}

		sim.SetKeys(0x0030)
		s.Cycle()
		last := out.Sent[len(out.Sent)-1]
		if want := midi.NoteOn(0, 9, 127); last != want {
			t.Errorf("combo note: got %v, want %v", last, want)
		}
		if rec.state != 0x0030 {
			t.Errorf("recognizer saw state %#x, want 0x0030", rec.state)
		}
	})

	t.Run("inbound notes light remote LEDs", func(t *testing.T) {
		s, out, sim := newTestSupervisor(config.DefaultConfig())

		out.Push(midi.NoteOn(0, 40, 90))
		s.Cycle()
		// Note 40 is key 4 with banking off.
		if sim.Frame() != 1<<4 {
			t.Errorf("LEDs: got %#x, want %#x", sim.Frame(), uint16(1<<4))
		}
		if len(out.Sent) != 0 {
			t.Errorf("echoed packets: %v", out.Sent)
		}
	})

	t.Run("clock drives the ground effect", func(t *testing.T) {
		s, out, sim := newTestSupervisor(config.DefaultConfig())

		s.Cycle() // counter 0: on
		if !sim.GroundFX {
			t.Error("beat one not lit")
		}
		out.Push(midi.RealTime(midi.RealTimeClock))
		s.Cycle() // counter 1: off
		if sim.GroundFX {
			t.Error("tick one still lit")
		}
	})
}

type menuStub struct {
	runs  int
	apply func(*config.Config)
}

func (m *menuStub) Run(cfg *config.Config) error {
	m.runs++
	if m.apply != nil {
		m.apply(cfg)
	}
	return nil
}

func TestBoot(t *testing.T) {
	t.Run("firmware update", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		s, _, sim := newTestSupervisor(config.DefaultConfig())

		sim.SetKeys(0x9009)
		if got := s.Boot(); got != BootFirmwareUpdate {
			t.Fatalf("action: got %v, want BootFirmwareUpdate", got)
		}
		if !sim.BootloaderEntered {
			t.Error("bootloader not entered")
		}
		if sim.Frame() != 0xA5A5 {
			t.Errorf("LEDs: got %#x, want 0xA5A5", sim.Frame())
		}
	})

	t.Run("menu", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		cfg := config.DefaultConfig()
		out := &midi.Loopback{}
		sim := panel.NewSim()
		menu := &menuStub{apply: func(c *config.Config) { c.Channel = 5 }}
		s := NewSupervisor(cfg, Collaborators{
			Transport: out,
			Keys:      sim,
			Expansion: sim,
			LEDs:      sim,
			Menu:      menu,
		})
		s.sleep = func(time.Duration) {}

		sim.SetKeys(0x0001)
		if got := s.Boot(); got != BootMenu {
			t.Fatalf("action: got %v, want BootMenu", got)
		}
		if menu.runs != 1 {
			t.Errorf("menu runs: got %d, want 1", menu.runs)
		}
		// The edited config is applied and announced to the host.
		if s.emitter.Channel != 5 {
			t.Errorf("emitter channel: got %d, want 5", s.emitter.Channel)
		}
		if len(out.Sent) == 0 || out.Sent[0].Data1 != 0xF0 {
			t.Errorf("config dump: got %v", out.Sent)
		}
		saved, err := config.Load()
		if err != nil || saved.Channel != 5 {
			t.Errorf("persisted channel: got %v, %v", saved, err)
		}

		// The held boot key must not fire as a keydown afterwards.
		s.Cycle()
		for _, p := range out.Sent {
			if p.CIN == midi.CINNoteOn {
				t.Errorf("boot key leaked a note: %v", p)
			}
		}
	})

	t.Run("factory reset", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		cfg := config.DefaultConfig()
		cfg.Channel = 9
		cfg.Banking = config.BankingInternal
		out := &midi.Loopback{}
		sim := panel.NewSim()
		menu := &menuStub{}
		s := NewSupervisor(cfg, Collaborators{
			Transport: out,
			Keys:      sim,
			Expansion: sim,
			LEDs:      sim,
			Menu:      menu,
		})
		s.sleep = func(time.Duration) {}

		sim.SetKeys(0x1248)
		if got := s.Boot(); got != BootFactoryReset {
			t.Fatalf("action: got %v, want BootFactoryReset", got)
		}
		if cfg.Channel != 0 || cfg.Banking != config.BankingOff {
			t.Errorf("config not reset: %+v", cfg)
		}
		if menu.runs != 1 {
			t.Errorf("menu runs: got %d, want 1", menu.runs)
		}
		saved, err := config.Load()
		if err != nil || saved.Channel != 0 {
			t.Errorf("persisted config: got %v, %v", saved, err)
		}
	})

	t.Run("anything else boots normally", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		s, out, sim := newTestSupervisor(config.DefaultConfig())

		sim.SetKeys(0x1249)
		if got := s.Boot(); got != BootNormal {
			t.Fatalf("action: got %v, want BootNormal", got)
		}
		if len(out.Sent) != 0 {
			t.Errorf("packets during normal boot: %v", out.Sent)
		}
	})
}

func TestRunPetsWatchdog(t *testing.T) {
	s, _, sim := newTestSupervisor(config.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cycles := 0
	s.sleep = func(time.Duration) {
		cycles++
		if cycles >= 3 {
			cancel()
		}
	}

	s.Run(ctx)

	if sim.WatchdogResets == 0 {
		t.Error("watchdog never petted")
	}
	if !sim.WatchdogEnabled {
		t.Error("watchdog never armed")
	}
}
