package core

import "gridfighter/panel"

// ComboAction is the recognizer's verdict for one cycle. Down and Release
// variants alternate so the gesture index is (action-1)/2.
type ComboAction uint8

const (
	ComboNone ComboAction = iota
	ComboADown
	ComboARelease
	ComboBDown
	ComboBRelease
	ComboCDown
	ComboCRelease
	ComboDDown
	ComboDRelease
	ComboEDown
	ComboERelease
)

// ComboRecognizer classifies multi-key gestures from one cycle's key edges
// and state. Recognition itself is external to the core; this is only the
// consumption side.
type ComboRecognizer interface {
	Recognize(down, up, state uint16) ComboAction
}

// RunCombos queries the recognizer once and maps its verdict onto the five
// reserved gesture notes (8..12), updating the ledger and emitting the
// note like any other local event.
func (e *Emitter) RunCombos(st *State, rec ComboRecognizer, keys panel.Snapshot) {
	if rec == nil {
		return
	}
	action := rec.Recognize(keys.Down, keys.Up, keys.State)
	if action == ComboNone || action > ComboERelease {
		return
	}
	idx := (uint8(action) - 1) / 2
	down := (uint8(action)-1)%2 == 0
	e.StreamNote(st, NoteCombo+idx, down)
}
