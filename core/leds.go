package core

import "gridfighter/panel"

// LedFrame is one cycle's complete LED output: the 16 grid LEDs and the
// four expansion indicator LEDs. Frames are recomputed from scratch every
// cycle; there is no incremental update path, so a stale LED is always a
// rendering bug, never a timing artifact.
type LedFrame struct {
	Grid      uint16
	Indicator uint8
}

// RenderLEDs rebuilds the LED frame from the ledger, the selected bank and
// the live key state.
func RenderLEDs(st *State, p BankPolicy, bank uint8, keys, pins panel.Snapshot, keypressLights bool) LedFrame {
	var f LedFrame

	switch p.Mode {
	case BankingInternal:
		// Bottom four LEDs show the selection, one-hot. At least one bank
		// is always selected.
		f.Grid = 1 << bank

		base := p.Base + bank*12
		for n := base; n < base+12; n++ {
			if st.Notes.On(n) {
				f.Grid |= 1 << p.NoteToKey(n)
			}
		}

		// Keypress lights apply to the twelve note keys only, never the
		// bank-select keys.
		if keypressLights {
			f.Grid |= keys.State & 0xFFF0
		}

		f.Indicator = digitalIndicator(st)

	case BankingExternal:
		// Bank indication moves to the expansion indicators; the whole
		// grid belongs to the bank's notes.
		f.Indicator = 1 << bank

		base := p.Base + bank*16
		for i := uint8(0); i < 16; i++ {
			if st.Notes.On(base + i) {
				f.Grid |= 1 << p.NoteToKey(base+i)
			}
		}

		if keypressLights {
			f.Grid |= keys.State
		}

	default:
		for i := uint8(0); i < 16; i++ {
			if st.Notes.On(p.Base + i) {
				f.Grid |= 1 << p.NoteToKey(p.Base+i)
			}
		}

		if keypressLights {
			f.Grid |= keys.State
		}

		// Live pin state always shows on the indicators, independent of
		// the keypress-light setting.
		f.Indicator = digitalIndicator(st) | uint8(pins.State&0x0F)
	}

	return f
}

// digitalIndicator mirrors the ledger state of the four digital notes.
func digitalIndicator(st *State) uint8 {
	var mask uint8
	for i := uint8(0); i < 4; i++ {
		if st.Notes.On(NoteDigital + i) {
			mask |= 1 << i
		}
	}
	return mask
}

// groundFXWrap is the pattern length in MIDI clock ticks: one beat on,
// three beats off, at 24 ticks per beat.
const groundFXWrap = 24

// AdvanceGroundFX evaluates the flasher for this cycle. It returns the
// indicator level and whether to apply it; on the wrap tick the counter
// resets and the previous level is left alone.
func AdvanceGroundFX(st *State) (on, set bool) {
	switch {
	case st.GroundFX == 0:
		return true, true
	case st.GroundFX < 8:
		return false, true
	case st.GroundFX < groundFXWrap:
		return true, true
	default:
		st.GroundFX = 0
		return false, false
	}
}
