package config

// Sysex manufacturer prefix for configuration dumps. Extended (3-byte) ID.
var SysexID = []byte{0x00, 0x01, 0x79}

const sysexDumpCommand = 0x01

// SysexDump encodes the configuration as the body of a sysex message
// (manufacturer ID, a dump command byte, then one 7-bit byte per field).
// The host reads this back after menu exit or a factory reset.
func (c *Config) SysexDump() []byte {
	body := make([]byte, 0, len(SysexID)+10)
	body = append(body, SysexID...)
	body = append(body, sysexDumpCommand)
	body = append(body,
		c.Channel&0x0F,
		modeByte(c.DeviceMode),
		bankingByte(c.Banking),
		c.BaseNote&0x7F,
		c.Velocity&0x7F,
		flagByte(c.KeypressLights),
		flagByte(c.Combos),
		flagByte(c.Rotate),
		invertByte(c.InvertSliders),
	)
	return body
}

func modeByte(m DeviceMode) byte {
	switch m {
	case ModeTraktor:
		return 1
	case ModeAbleton:
		return 2
	}
	return 0
}

func bankingByte(b Banking) byte {
	switch b {
	case BankingInternal:
		return 1
	case BankingExternal:
		return 2
	}
	return 0
}

func flagByte(on bool) byte {
	if on {
		return 1
	}
	return 0
}

func invertByte(inv [4]bool) byte {
	var b byte
	for i, on := range inv {
		if on {
			b |= 1 << i
		}
	}
	return b
}
