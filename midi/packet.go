package midi

// USB-MIDI event packets carry a 4-bit Code Index Number (CIN) followed by
// up to three bytes of MIDI data. The CIN tells us what the packet holds and
// how many of the data bytes are valid:
//
//	0x2 = 2-byte System Common
//	0x3 = 3-byte System Common
//	0x4 = 3-byte Sysex starts or continues
//	0x5 = 1-byte System Common or Sysex ends
//	0x6 = 2-byte Sysex ends
//	0x7 = 3-byte Sysex ends
//	0x8 = Note Off
//	0x9 = Note On
//	0xA = Poly KeyPress
//	0xB = Control Change
//	0xC = Program Change
//	0xD = Channel Pressure
//	0xE = PitchBend Change
//	0xF = 1-byte message (System Real-Time)
const (
	CINSysexStart    uint8 = 0x4
	CINSysexEnd1     uint8 = 0x5
	CINSysexEnd2     uint8 = 0x6
	CINSysexEnd3     uint8 = 0x7
	CINNoteOff       uint8 = 0x8
	CINNoteOn        uint8 = 0x9
	CINControlChange uint8 = 0xB
	CINSingleByte    uint8 = 0xF
)

// System Real-Time status bytes. These are channel-less and arrive in
// CINSingleByte packets.
const (
	RealTimeClock uint8 = 0xF8
	RealTimeStart uint8 = 0xFA
	RealTimeStop  uint8 = 0xFC
)

// Packet is a single USB-MIDI event packet. Data1 is the status byte for
// channel voice messages; for sysex packets all three data bytes are raw
// stream bytes.
type Packet struct {
	CIN   uint8
	Data1 uint8
	Data2 uint8
	Data3 uint8
}

// Channel returns the MIDI channel of a channel voice packet (the low
// nibble of the status byte).
func (p Packet) Channel() uint8 {
	return p.Data1 & 0x0F
}

// NoteOn builds a Note On packet.
func NoteOn(channel, note, velocity uint8) Packet {
	return Packet{CIN: CINNoteOn, Data1: 0x90 | channel&0x0F, Data2: note, Data3: velocity}
}

// NoteOff builds a Note Off packet.
func NoteOff(channel, note uint8) Packet {
	return Packet{CIN: CINNoteOff, Data1: 0x80 | channel&0x0F, Data2: note}
}

// ControlChange builds a CC packet.
func ControlChange(channel, controller, value uint8) Packet {
	return Packet{CIN: CINControlChange, Data1: 0xB0 | channel&0x0F, Data2: controller, Data3: value}
}

// RealTime builds a single-byte System Real-Time packet.
func RealTime(status uint8) Packet {
	return Packet{CIN: CINSingleByte, Data1: status}
}

// SysexPackets frames a sysex body (without the 0xF0/0xF7 markers) into a
// sequence of USB-MIDI packets using the start/continue/end CINs.
func SysexPackets(body []byte) []Packet {
	msg := make([]byte, 0, len(body)+2)
	msg = append(msg, 0xF0)
	msg = append(msg, body...)
	msg = append(msg, 0xF7)

	var out []Packet
	for len(msg) > 3 {
		out = append(out, Packet{CIN: CINSysexStart, Data1: msg[0], Data2: msg[1], Data3: msg[2]})
		msg = msg[3:]
	}
	switch len(msg) {
	case 1:
		out = append(out, Packet{CIN: CINSysexEnd1, Data1: msg[0]})
	case 2:
		out = append(out, Packet{CIN: CINSysexEnd2, Data1: msg[0], Data2: msg[1]})
	case 3:
		out = append(out, Packet{CIN: CINSysexEnd3, Data1: msg[0], Data2: msg[1], Data3: msg[2]})
	}
	return out
}

// PacketsFromMessage converts a wire-format MIDI message into USB-MIDI
// packets. Channel voice messages map directly (the CIN equals the status
// high nibble); sysex messages are split across start/end packets.
func PacketsFromMessage(msg []byte) []Packet {
	if len(msg) == 0 {
		return nil
	}

	if msg[0] == 0xF0 {
		var out []Packet
		rest := msg
		for len(rest) > 3 {
			out = append(out, Packet{CIN: CINSysexStart, Data1: rest[0], Data2: rest[1], Data3: rest[2]})
			rest = rest[3:]
		}
		switch len(rest) {
		case 1:
			out = append(out, Packet{CIN: CINSysexEnd1, Data1: rest[0]})
		case 2:
			out = append(out, Packet{CIN: CINSysexEnd2, Data1: rest[0], Data2: rest[1]})
		case 3:
			out = append(out, Packet{CIN: CINSysexEnd3, Data1: rest[0], Data2: rest[1], Data3: rest[2]})
		}
		return out
	}

	if msg[0] >= 0xF8 {
		return []Packet{{CIN: CINSingleByte, Data1: msg[0]}}
	}

	p := Packet{CIN: msg[0] >> 4, Data1: msg[0]}
	if len(msg) > 1 {
		p.Data2 = msg[1]
	}
	if len(msg) > 2 {
		p.Data3 = msg[2]
	}
	return []Packet{p}
}
