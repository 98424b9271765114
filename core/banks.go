package core

import "gridfighter/panel"

// BankPolicy is the single point of truth for key/note addressing under a
// banking topology. Both the emitter and the LED renderer go through it, so
// the two can never disagree about which LED belongs to which note.
//
// The note windows per topology:
//
//	off       grid keys 0..15        -> base .. base+15
//	internal  grid keys 4..15        -> base + bank*12 .. base + bank*12+11
//	          keys 0..3 select banks; indicator notes 0..3
//	external  grid keys 0..15        -> base + bank*16 .. base + bank*16+15
//	          expansion pins select banks
type BankPolicy struct {
	Mode BankingMode
	Base uint8
}

// KeyToNote maps a physical key index (already including the key offset) to
// its MIDI note under the selected bank.
func (p BankPolicy) KeyToNote(bank, key uint8) uint8 {
	switch p.Mode {
	case BankingInternal:
		return p.Base + bank*12 + (key - 4)
	case BankingExternal:
		return p.Base + bank*16 + key
	}
	return p.Base + key
}

// NoteToKey is the inverse mapping, used by the LED renderer. The note must
// lie inside the selected bank's window.
func (p BankPolicy) NoteToKey(note uint8) uint8 {
	switch p.Mode {
	case BankingInternal:
		return (note-p.Base)%12 + 4
	case BankingExternal:
		return (note - p.Base) % 16
	}
	return note - p.Base
}

// Route splits a cycle's inputs into the bank-select snapshot and the grid
// snapshot for the topology, plus the key offset and count of the grid
// window. Internal banking takes the bottom four grid keys for bank
// selection and shifts the remaining twelve down; external banking takes
// the expansion pins and leaves the grid whole.
func (p BankPolicy) Route(keys, pins panel.Snapshot) (bank, grid panel.Snapshot, offset, count uint8) {
	switch p.Mode {
	case BankingInternal:
		grid = panel.Snapshot{
			State: keys.State >> 4,
			Down:  keys.Down >> 4,
			Up:    keys.Up >> 4,
		}
		return keys, grid, 4, 12
	case BankingExternal:
		return pins, keys, 0, 16
	}
	return panel.Snapshot{}, keys, 0, 16
}

// UpdateBanks runs one cycle of the bank-select state machine against the
// routed bank-select snapshot. Bank indicator notes are the bank numbers
// themselves (0..3).
//
// Rules, in order:
//   - On any bank-select keydown the lowest-indexed pressed bank wins.
//   - If the selection moves while the old bank's key is still held, the
//     old indicator gets a forced NoteOff first, so no two indicators are
//     ever on at once.
//   - The new bank's NoteOn is sent every time its key is pressed, even
//     when already selected, re-affirming state for the host.
//   - A keyup sends NoteOff only if it is the selected bank's key.
func UpdateBanks(st *State, em *Emitter, bankKeys panel.Snapshot) {
	if bankKeys.Down&0x000F != 0 {
		newBank := uint8(0)
		for bit := uint16(1); bankKeys.Down&bit == 0 && newBank < 3; bit <<= 1 {
			newBank++
		}
		if st.Bank != newBank && bankKeys.State&(1<<st.Bank) != 0 {
			em.StreamNote(st, NoteBank+st.Bank, false)
		}
		em.StreamNote(st, NoteBank+newBank, true)
		st.Bank = newBank
	}

	if bankKeys.Up&0x000F != 0 {
		if bankKeys.Up&(1<<st.Bank) != 0 {
			em.StreamNote(st, NoteBank+st.Bank, false)
		}
	}
}
