package core

import (
	"gridfighter/midi"
	"gridfighter/panel"
)

const (
	// Dead-zone thresholds on the 7-bit analog value. Inside [low,high] the
	// primary CC tracks the slider; at the ends the Traktor endpoint notes
	// fire.
	analogLow  = 3
	analogHigh = 127 - analogLow
)

// Emitter turns key, analog and bank transitions into ledger writes and
// outbound MIDI packets, per the device mode. It is the only producer of
// locally generated notes; everything it emits goes through the ledger.
type Emitter struct {
	Channel  uint8
	Mode     DeviceMode
	Velocity uint8

	out midi.Transport

	// Last value sent on each Traktor secondary CC, so re-entering the
	// lower half sends exactly one zero.
	secondCC [NumAnalog]uint8
}

// NewEmitter builds an emitter writing to out.
func NewEmitter(out midi.Transport, channel uint8, mode DeviceMode, velocity uint8) *Emitter {
	return &Emitter{
		Channel:  channel,
		Mode:     mode,
		Velocity: velocity,
		out:      out,
	}
}

// StreamNote records the note in the ledger and queues the matching NoteOn
// or NoteOff. This is the single mutation point for locally generated
// notes.
func (e *Emitter) StreamNote(st *State, note uint8, on bool) {
	if on {
		st.Notes.Set(note, e.Velocity)
		e.out.Send(midi.NoteOn(e.Channel, note, e.Velocity))
	} else {
		st.Notes.Set(note, 0)
		e.out.Send(midi.NoteOff(e.Channel, note))
	}
}

// StreamCC queues a control change on the configured channel.
func (e *Emitter) StreamCC(controller, value uint8) {
	e.out.Send(midi.ControlChange(e.Channel, controller, value))
}

// DrainInbound applies every pending host packet: System Real-Time drives
// the ground-effect counter (channel-less, always processed), sysex bytes
// are forwarded to the sink untouched, and note messages on our channel
// update the ledger. Everything else is silently ignored.
func (e *Emitter) DrainInbound(st *State, in midi.Transport, sysex panel.SysexSink) {
	var p midi.Packet
	for in.Receive(&p) {
		switch p.CIN {
		case midi.CINSingleByte:
			switch p.Data1 {
			case midi.RealTimeClock:
				st.GroundFX++
			case midi.RealTimeStart, midi.RealTimeStop:
				st.GroundFX = 0
			}

		case midi.CINSysexStart:
			sysex.Read(p.Data1)
			sysex.Read(p.Data2)
			sysex.Read(p.Data3)
		case midi.CINSysexEnd1:
			sysex.Read(p.Data1)
			sysex.End()
		case midi.CINSysexEnd2:
			sysex.Read(p.Data1)
			sysex.Read(p.Data2)
			sysex.End()
		case midi.CINSysexEnd3:
			sysex.Read(p.Data1)
			sysex.Read(p.Data2)
			sysex.Read(p.Data3)
			sysex.End()

		default:
			if p.Channel() != e.Channel {
				continue
			}
			// A NoteOn velocity may be zero; the ledger write is the same
			// either way, and the LEDs depend on it being zero for offs.
			switch p.CIN {
			case midi.CINNoteOn:
				st.Notes.Set(p.Data2, p.Data3)
			case midi.CINNoteOff:
				st.Notes.Set(p.Data2, 0)
			}
		}
	}
}

// EmitDigital generates the fixed notes 4..7 from the digital expansion
// pins. External banking repurposes the pins for bank selection, so no
// digital notes are generated there.
func (e *Emitter) EmitDigital(st *State, pins panel.Snapshot, banking BankingMode) {
	if banking == BankingExternal {
		return
	}
	for i := uint8(0); i < 4; i++ {
		bit := uint16(1) << i
		if pins.Down&bit != 0 {
			e.StreamNote(st, NoteDigital+i, true)
		}
		if pins.Up&bit != 0 {
			e.StreamNote(st, NoteDigital+i, false)
		}
	}
}

// EmitAnalog sends the CC and endpoint-note events for one cycle's filtered
// readings. Each channel owns two adjacent CCs and two adjacent notes:
//
//	0  3             64           124 127
//	|--|-------------|-------------|--|   full range
//	   |0=======================127|      CC A
//	                 |0=========105|      CC B (Traktor)
//	|__|on____________________________|   note A (Traktor)
//	|off___________________________|on|   note B (Traktor)
func (e *Emitter) EmitAnalog(st *State, readings [NumAnalog]AnalogReading) {
	for i := range readings {
		r := readings[i]
		if !r.Changed {
			continue
		}

		ccA := CCAnalog + 2*uint8(i)
		ccB := ccA + 1
		noteA := NoteAnalog + 2*uint8(i)
		noteB := noteA + 1

		if r.Value >= analogLow && r.Value <= analogHigh {
			e.StreamCC(ccA, Remap(r.Value, analogLow, analogHigh, 0, 127))

			if e.Mode == ModeTraktor {
				if r.Value >= 64 {
					e.secondCC[i] = Remap(r.Value, 64, analogHigh, 0, 105)
					e.StreamCC(ccB, e.secondCC[i])
				} else if e.secondCC[i] > 0 {
					// Zero the secondary CC once when entering the lower
					// range, never repeatedly.
					e.secondCC[i] = 0
					e.StreamCC(ccB, 0)
				}
			}
		}

		// Endpoint notes fire on entering or leaving the bottom and top
		// ticks of the range.
		if e.Mode == ModeTraktor {
			switch {
			case r.Value <= analogLow && r.Prev > analogLow:
				e.StreamNote(st, noteA, true)
			case r.Value > analogLow && r.Prev <= analogLow:
				e.StreamNote(st, noteA, false)
			case r.Value >= analogHigh && r.Prev < analogHigh:
				e.StreamNote(st, noteB, true)
			case r.Value < analogHigh && r.Prev >= analogHigh:
				e.StreamNote(st, noteB, false)
			}
		}
	}
}

// EmitGrid generates the banked grid notes from this cycle's key edges. In
// Ableton mode every note is also mirrored as a raw CC on the adjacent
// channel so a host can treat the grid as a momentary control surface
// without remapping note numbers.
func (e *Emitter) EmitGrid(st *State, grid panel.Snapshot, p BankPolicy, bank, offset, count uint8) {
	for i := uint8(0); i < count; i++ {
		bit := uint16(1) << i
		if grid.Down&bit != 0 {
			note := p.KeyToNote(bank, i+offset)
			if e.Mode == ModeAbleton {
				e.out.Send(midi.ControlChange(e.Channel+1, note, 127))
			}
			e.StreamNote(st, note, true)
		}
		if grid.Up&bit != 0 {
			note := p.KeyToNote(bank, i+offset)
			e.StreamNote(st, note, false)
			if e.Mode == ModeAbleton {
				e.out.Send(midi.ControlChange(e.Channel+1, note, 0))
			}
		}
	}
}
