package midi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gridfighter/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// PortTransport is a Transport backed by a real MIDI port pair. It handles
// hot-plug: Run scans for a port matching the configured name, opens it when
// it appears and drops to not-ready when it disappears. The control loop
// only ever sees the Ready/Receive/Send/Flush surface.
type PortTransport struct {
	match string // case-insensitive substring of the port name

	mu       sync.Mutex
	inPort   drivers.In
	outPort  drivers.Out
	send     func(msg gomidi.Message) error
	stopFunc func()

	link    atomic.Uint32 // LinkState
	inbound chan Packet

	outbox   []Packet
	sysexBuf []byte // outbound sysex bytes collected across packets

	pollRate time.Duration
}

// NewPortTransport creates a transport that will attach to the first MIDI
// port whose name contains match (case-insensitive).
func NewPortTransport(match string) *PortTransport {
	t := &PortTransport{
		match:    match,
		inbound:  make(chan Packet, 256),
		pollRate: time.Second,
	}
	t.link.Store(uint32(LinkDown))
	return t
}

// State reports the endpoint lifecycle phase. A failed attach sticks until
// the port disappears or a later attach succeeds.
func (t *PortTransport) State() LinkState {
	return LinkState(t.link.Load())
}

// Receive pops one pending inbound packet without blocking.
func (t *PortTransport) Receive(p *Packet) bool {
	select {
	case pkt := <-t.inbound:
		*p = pkt
		return true
	default:
		return false
	}
}

// Send queues a packet for the next Flush.
func (t *PortTransport) Send(p Packet) {
	t.mu.Lock()
	t.outbox = append(t.outbox, p)
	t.mu.Unlock()
}

// Flush converts the queued packets to wire messages and sends them.
func (t *PortTransport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.send == nil {
		t.outbox = t.outbox[:0]
		return nil
	}

	var firstErr error
	for _, p := range t.outbox {
		if err := t.sendPacket(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	t.outbox = t.outbox[:0]
	return firstErr
}

func (t *PortTransport) sendPacket(p Packet) error {
	switch p.CIN {
	case CINNoteOn:
		return t.send(gomidi.NoteOn(p.Channel(), p.Data2, p.Data3))
	case CINNoteOff:
		return t.send(gomidi.NoteOff(p.Channel(), p.Data2))
	case CINControlChange:
		return t.send(gomidi.ControlChange(p.Channel(), p.Data2, p.Data3))
	case CINSysexStart:
		t.sysexBuf = append(t.sysexBuf, p.Data1, p.Data2, p.Data3)
		return nil
	case CINSysexEnd1, CINSysexEnd2, CINSysexEnd3:
		t.sysexBuf = append(t.sysexBuf, p.Data1)
		if p.CIN >= CINSysexEnd2 {
			t.sysexBuf = append(t.sysexBuf, p.Data2)
		}
		if p.CIN == CINSysexEnd3 {
			t.sysexBuf = append(t.sysexBuf, p.Data3)
		}
		body := trimSysexMarkers(t.sysexBuf)
		t.sysexBuf = nil
		return t.send(gomidi.SysEx(body))
	}
	return nil
}

// trimSysexMarkers strips the 0xF0/0xF7 framing bytes so the body can be
// handed to gomidi.SysEx, which adds its own.
func trimSysexMarkers(b []byte) []byte {
	if len(b) > 0 && b[0] == 0xF0 {
		b = b[1:]
	}
	if i := len(b) - 1; i >= 0 && b[i] == 0xF7 {
		b = b[:i]
	}
	return b
}

// Run is the hot-plug scan loop (blocking - run in goroutine). It keeps the
// transport attached to a matching port pair for as long as one is present.
func (t *PortTransport) Run(ctx context.Context) {
	ticker := time.NewTicker(t.pollRate)
	defer ticker.Stop()

	t.scan()

	for {
		select {
		case <-ctx.Done():
			t.close()
			return
		case <-ticker.C:
			t.scan()
		}
	}
}

func (t *PortTransport) scan() {
	inPorts := gomidi.GetInPorts()
	outPorts := gomidi.GetOutPorts()

	t.mu.Lock()
	open := t.inPort != nil
	name := ""
	if open {
		name = t.inPort.String()
	}
	t.mu.Unlock()

	if open {
		for _, p := range inPorts {
			if p.String() == name {
				return // still there, nothing to do
			}
		}
		debug.Log("usb", "port disappeared: %s", name)
		t.close()
		return
	}

	matched := false
	for i, inPort := range inPorts {
		if !strings.Contains(strings.ToLower(inPort.String()), strings.ToLower(t.match)) {
			continue
		}
		matched = true
		t.link.Store(uint32(LinkEnumerating))
		var outPort drivers.Out
		for j, op := range outPorts {
			if strings.EqualFold(op.String(), inPort.String()) {
				outPort = outPorts[j]
				break
			}
		}
		if err := t.open(inPorts[i], outPort); err != nil {
			t.link.Store(uint32(LinkFailed))
			debug.Log("usb", "open %s: %v", inPort.String(), err)
			continue
		}
		debug.Log("usb", "attached: %s", inPort.String())
		return
	}
	if !matched {
		t.link.Store(uint32(LinkDown))
	}
}

func (t *PortTransport) open(inPort drivers.In, outPort drivers.Out) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		t.send = send
		t.outPort = outPort
	}

	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		for _, p := range PacketsFromMessage(msg) {
			select {
			case t.inbound <- p:
			default:
				// inbound queue full, drop rather than block the driver
			}
		}
	}, gomidi.UseSysEx())
	if err != nil {
		t.send = nil
		t.outPort = nil
		return fmt.Errorf("open input: %w", err)
	}

	t.inPort = inPort
	t.stopFunc = stop
	t.link.Store(uint32(LinkUp))
	return nil
}

func (t *PortTransport) close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.link.Store(uint32(LinkDown))
	if t.stopFunc != nil {
		t.stopFunc()
		t.stopFunc = nil
	}
	t.inPort = nil
	t.outPort = nil
	t.send = nil
	t.outbox = t.outbox[:0]
	t.sysexBuf = nil
}
