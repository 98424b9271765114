package core

import (
	"time"

	"gridfighter/debug"
	"gridfighter/midi"
)

// BootAction is the one-shot boot-time diagnostic decision.
type BootAction uint8

const (
	BootNormal BootAction = iota
	BootFirmwareUpdate
	BootMenu
	BootFactoryReset
)

// Boot-time key combos, matched as exact 16-bit keystate patterns:
//
//	0x9009  # . . #   firmware update
//	        . . . .
//	        . . . .
//	        # . . #
//
//	0x0001  # . . .   configuration menu
//
//	0x1248  . . . #   factory reset, then menu
//	        . . # .
//	        . # . .
//	        # . . .
const (
	bootComboBootloader   = 0x9009
	bootComboMenu         = 0x0001
	bootComboFactoryReset = 0x1248
)

// bootSettle masks a board quirk: the shift registers need time after a
// hard reset before the keys read correctly.
const bootSettle = 1500 * time.Millisecond

// Boot runs the one-shot diagnostic dispatch before the steady-state loop:
// power-on light show, settling delay, a single raw keystate read, then the
// literal pattern match. Any unrecognized pattern proceeds to normal
// startup.
func (s *Supervisor) Boot() BootAction {
	s.lightShow()
	s.sleep(bootSettle)

	state := s.keys.Peek()
	switch state {
	case bootComboBootloader:
		debug.Log("boot", "firmware update requested")
		s.leds.SetState(0xA5A5)
		if s.boot != nil {
			s.boot.Enter()
		}
		return BootFirmwareUpdate

	case bootComboMenu:
		debug.Log("boot", "menu requested")
		// Settle first so the held boot key does not count as a fresh
		// keydown inside the menu.
		s.keys.Settle()
		s.runMenu()
		return BootMenu

	case bootComboFactoryReset:
		debug.Log("boot", "factory reset requested")
		s.factoryReset()
		s.keys.Settle()
		s.runMenu()
		return BootFactoryReset
	}

	return BootNormal
}

// lightShow walks a bit across the grid to signal we are alive.
func (s *Supervisor) lightShow() {
	for i := 0; i < 16; i++ {
		s.leds.SetState(1 << i)
		s.sleep(15 * time.Millisecond)
	}
	s.leds.SetState(0x0000)
}

func (s *Supervisor) factoryReset() {
	if err := s.cfg.FactoryReset(); err != nil {
		debug.Log("boot", "factory reset save failed: %v", err)
	}
	s.applyConfig()

	// Flash to signal success.
	s.leds.SetState(0xFFFF)
	s.sleep(100 * time.Millisecond)
	s.leds.SetState(0x0000)
	s.sleep(100 * time.Millisecond)
	s.leds.SetState(0xFFFF)
	s.sleep(100 * time.Millisecond)
	s.leds.SetState(0x0000)

	s.sendConfigDump()
}

func (s *Supervisor) runMenu() {
	if s.menu == nil {
		return
	}
	if err := s.menu.Run(s.cfg); err != nil {
		debug.Log("boot", "menu aborted: %v", err)
	}
	if err := s.cfg.Save(); err != nil {
		debug.Log("boot", "config save failed: %v", err)
	}
	s.applyConfig()
	s.sendConfigDump()
}

// sendConfigDump streams the current configuration to the host as a sysex
// message so editors can pick up changes made on the device.
func (s *Supervisor) sendConfigDump() {
	for _, p := range midi.SysexPackets(s.cfg.SysexDump()) {
		s.out.Send(p)
	}
	s.out.Flush()
}
