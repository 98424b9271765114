package midi

// Loopback is an in-memory Transport for tests and offline runs. Inbound
// packets are primed with Push; outbound packets stay in an internal queue
// until Flush moves them to Sent, so callers can observe the per-cycle flush
// boundary.
type Loopback struct {
	Down    bool      // simulate a detached endpoint
	Link    LinkState // finer-grained lifecycle override
	Sent    []Packet
	Flushes int

	pending []Packet
	queue   []Packet
}

// Push queues inbound packets for the core to receive.
func (l *Loopback) Push(pkts ...Packet) {
	l.pending = append(l.pending, pkts...)
}

func (l *Loopback) State() LinkState {
	if l.Down {
		return LinkDown
	}
	return l.Link
}

func (l *Loopback) Ready() bool {
	return l.State() == LinkUp
}

func (l *Loopback) Receive(p *Packet) bool {
	if len(l.pending) == 0 {
		return false
	}
	*p = l.pending[0]
	l.pending = l.pending[1:]
	return true
}

func (l *Loopback) Send(p Packet) {
	l.queue = append(l.queue, p)
}

func (l *Loopback) Flush() error {
	l.Sent = append(l.Sent, l.queue...)
	l.queue = nil
	l.Flushes++
	return nil
}

// Queued returns the outbound packets not yet flushed.
func (l *Loopback) Queued() []Packet {
	return l.queue
}
