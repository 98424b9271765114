package core

import (
	"testing"

	"gridfighter/midi"
	"gridfighter/panel"
)

type scriptedRecognizer struct {
	action ComboAction
	down   uint16
	up     uint16
	state  uint16
}

func (r *scriptedRecognizer) Recognize(down, up, state uint16) ComboAction {
	r.down, r.up, r.state = down, up, state
	return r.action
}

func TestRunCombos(t *testing.T) {
	t.Run("gesture notes", func(t *testing.T) {
		cases := []struct {
			action ComboAction
			note   uint8
			on     bool
		}{
			{ComboADown, 8, true},
			{ComboARelease, 8, false},
			{ComboCDown, 10, true},
			{ComboERelease, 12, false},
		}
		for _, c := range cases {
			em, out, st := newTestEmitter(ModeDefault)
			em.RunCombos(st, &scriptedRecognizer{action: c.action}, panel.Snapshot{})
			got := out.Queued()
			var want midi.Packet
			if c.on {
				want = midi.NoteOn(0, c.note, 127)
			} else {
				want = midi.NoteOff(0, c.note)
			}
			if len(got) != 1 || got[0] != want {
				t.Errorf("action %d: got %v, want %v", c.action, got, want)
			}
			if st.Notes.On(c.note) != c.on {
				t.Errorf("action %d: ledger note %d on=%v", c.action, c.note, st.Notes.On(c.note))
			}
		}
	})

	t.Run("no verdict means no output", func(t *testing.T) {
		em, out, st := newTestEmitter(ModeDefault)
		em.RunCombos(st, &scriptedRecognizer{action: ComboNone}, panel.Snapshot{})
		if got := out.Queued(); len(got) != 0 {
			t.Errorf("packets: got %v", got)
		}
		em.RunCombos(st, nil, panel.Snapshot{})
		if got := out.Queued(); len(got) != 0 {
			t.Errorf("nil recognizer: got %v", got)
		}
	})

	t.Run("edges reach the recognizer", func(t *testing.T) {
		em, _, st := newTestEmitter(ModeDefault)
		rec := &scriptedRecognizer{}
		em.RunCombos(st, rec, panel.Snapshot{State: 0x00F0, Down: 0x0010, Up: 0x0100})
		if rec.down != 0x0010 || rec.up != 0x0100 || rec.state != 0x00F0 {
			t.Errorf("saw down=%#x up=%#x state=%#x", rec.down, rec.up, rec.state)
		}
	})
}
