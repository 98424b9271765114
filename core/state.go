// Package core is the per-cycle control pipeline of the grid controller:
// analog conditioning, the note-state ledger, bank addressing, MIDI
// emission, LED rendering and the supervising cycle loop.
package core

import "gridfighter/config"

// BankingMode selects which input, if any, addresses the four note banks.
type BankingMode uint8

const (
	BankingOff BankingMode = iota
	BankingInternal
	BankingExternal
)

func (m BankingMode) String() string {
	switch m {
	case BankingInternal:
		return "internal"
	case BankingExternal:
		return "external"
	}
	return "off"
}

// DeviceMode selects host-specific emission conventions.
type DeviceMode uint8

const (
	ModeDefault DeviceMode = iota
	ModeTraktor
	ModeAbleton
)

func (m DeviceMode) String() string {
	switch m {
	case ModeTraktor:
		return "traktor"
	case ModeAbleton:
		return "ableton"
	}
	return "default"
}

// ParseBankingMode converts the persisted config value.
func ParseBankingMode(b config.Banking) BankingMode {
	switch b {
	case config.BankingInternal:
		return BankingInternal
	case config.BankingExternal:
		return BankingExternal
	}
	return BankingOff
}

// ParseDeviceMode converts the persisted config value.
func ParseDeviceMode(m config.DeviceMode) DeviceMode {
	switch m {
	case config.ModeTraktor:
		return ModeTraktor
	case config.ModeAbleton:
		return ModeAbleton
	}
	return ModeDefault
}

// Fixed points of the note numbering contract. Host-side mappings depend on
// these exactly:
//
//	0..3     bank indicator notes (internal banking)
//	4..7     digital expansion notes
//	8..12    combo gesture notes
//	100..107 analog endpoint notes, two per channel
//	16..23   analog CCs, two per channel
//
// Grid notes start at the configurable base note and span 16 (banking off),
// 12 per bank (internal) or 16 per bank (external).
const (
	NoteBank    uint8 = 0
	NoteDigital uint8 = 4
	NoteCombo   uint8 = 8
	NoteAnalog  uint8 = 100
	CCAnalog    uint8 = 16
)

// NoteState is the ledger: the last seen velocity for each of the 128 MIDI
// note numbers. A nonzero entry is the one and only definition of
// "currently sounding"; every component consults and mutates note state
// here, never privately.
type NoteState [128]uint8

// Set records a velocity. Zero is a note off.
func (n *NoteState) Set(note, velocity uint8) {
	if note < 128 {
		n[note] = velocity
	}
}

// Velocity returns the recorded velocity for a note.
func (n *NoteState) Velocity(note uint8) uint8 {
	if note >= 128 {
		return 0
	}
	return n[note]
}

// On reports whether the note is currently sounding.
func (n *NoteState) On(note uint8) bool {
	return n.Velocity(note) > 0
}

// Reset silences every note.
func (n *NoteState) Reset() {
	*n = NoteState{}
}

// State is the mutable data that survives across cycles: the ledger, the
// selected bank and the ground-effect tick counter. The supervisor owns it;
// components receive it by reference for the duration of one cycle and must
// not retain it.
type State struct {
	Notes NoteState

	// Bank is the selected bank, 0..3. Meaningful only when banking is on;
	// exactly one bank is always selected then, bank 0 at mode entry.
	Bank uint8

	// GroundFX counts MIDI clock ticks since the last transport start or
	// stop. The flasher wraps it.
	GroundFX int
}
