package core

const (
	// NumAnalog is the number of analog channels on the expansion port.
	NumAnalog = 4

	// analogSamples raw reads are averaged per channel per cycle to smooth
	// sampling noise.
	analogSamples = 4

	// hysteresis is the minimum change, in raw 10-bit units, for a new
	// sample to count as user movement rather than ADC jitter.
	hysteresis = 8

	adcFullScale = 1024
)

// Remap rescales value from [from,to] into [lo,hi] with clamping: inputs
// below from return lo, above to return hi, and everything between is
// linearly interpolated with truncating unsigned arithmetic. Used for the
// 3..124 -> 0..127 dead-zone remap and the mode-specific secondary ranges;
// the truncation semantics are part of the host contract.
func Remap(value, from, to, lo, hi uint8) uint8 {
	if value < from {
		return lo
	}
	if value > to {
		return hi
	}
	numer := uint16(value-from) * uint16(hi-lo)
	denom := uint16(to - from)
	return lo + uint8(numer/denom)
}

// AnalogReading is one channel's conditioned result for a cycle.
type AnalogReading struct {
	Value   uint8 // 7-bit control value
	Prev    uint8 // previous 7-bit control value
	Changed bool
}

type analogChannel struct {
	invert bool
	prev   uint16 // last accepted 10-bit sample
}

// AnalogFilter conditions the raw analog channels: average, optional
// polarity inversion, hysteresis, then truncation to 7 bits.
type AnalogFilter struct {
	channels [NumAnalog]analogChannel
}

// NewAnalogFilter builds a filter with per-channel inversion flags. rotate
// suppresses inversion entirely, since a rotated unit already flips the
// sliders.
func NewAnalogFilter(invert [NumAnalog]bool, rotate bool) *AnalogFilter {
	f := &AnalogFilter{}
	for i := range f.channels {
		f.channels[i].invert = invert[i] && !rotate
	}
	return f
}

// Update samples every channel through read and returns the conditioned
// readings. read is called analogSamples times per channel. A channel's
// accepted sample only advances when its truncated 7-bit value changed, so
// slow drifts below the truncation step keep comparing against the last
// value that was actually reported.
func (f *AnalogFilter) Update(read func(channel int) uint16) [NumAnalog]AnalogReading {
	var out [NumAnalog]AnalogReading

	for i := range f.channels {
		ch := &f.channels[i]

		var sum uint16
		for s := 0; s < analogSamples; s++ {
			sum += read(i)
		}
		value := sum / analogSamples

		// Inversion must happen before hysteresis or it reintroduces the
		// noise the hysteresis is there to suppress.
		if ch.invert {
			value = adcFullScale - value
		}

		diff := int(value) - int(ch.prev)
		if diff < 0 {
			diff = -diff
		}
		if diff < hysteresis {
			value = ch.prev
		}

		// Drop the bottom three bits of the 10-bit sample, giving the
		// 7-bit control value changes are judged on.
		out[i] = AnalogReading{
			Value: uint8(value >> 3),
			Prev:  uint8(ch.prev >> 3),
		}
		out[i].Changed = out[i].Value != out[i].Prev

		if out[i].Changed {
			ch.prev = value
		}
	}

	return out
}
