package midi

// LinkState is the endpoint lifecycle phase. Only LinkUp carries traffic;
// the core shows a diagnostic LED pattern for each of the others.
type LinkState uint8

const (
	LinkUp          LinkState = iota
	LinkDown                  // no matching endpoint present
	LinkEnumerating           // endpoint found, attach in progress
	LinkFailed                // attach failed, waiting for replug
)

func (s LinkState) String() string {
	switch s {
	case LinkUp:
		return "up"
	case LinkEnumerating:
		return "enumerating"
	case LinkFailed:
		return "failed"
	}
	return "down"
}

// Transport is the USB-MIDI endpoint boundary. The control core polls it
// once per cycle: inbound packets are drained non-blocking at the top of the
// cycle, outbound packets are queued during the cycle and pushed to the host
// by a single Flush at the end.
type Transport interface {
	// State reports the endpoint lifecycle phase. While not LinkUp the
	// core stays in its not-configured state and processes nothing.
	State() LinkState

	// Receive fills p with the next pending inbound packet. It never
	// blocks; false means the inbound queue is empty.
	Receive(p *Packet) bool

	// Send queues an outbound packet for the next Flush.
	Send(p Packet)

	// Flush pushes all queued outbound packets to the host.
	Flush() error
}
