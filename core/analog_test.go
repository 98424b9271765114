package core

import "testing"

func TestRemap(t *testing.T) {
	t.Run("clamps", func(t *testing.T) {
		if got := Remap(0, 3, 124, 0, 127); got != 0 {
			t.Errorf("below from: got %d, want 0", got)
		}
		if got := Remap(2, 3, 124, 0, 127); got != 0 {
			t.Errorf("below from: got %d, want 0", got)
		}
		if got := Remap(127, 3, 124, 0, 127); got != 127 {
			t.Errorf("above to: got %d, want 127", got)
		}
		if got := Remap(3, 3, 124, 0, 127); got != 0 {
			t.Errorf("at from: got %d, want 0", got)
		}
		if got := Remap(124, 3, 124, 0, 127); got != 127 {
			t.Errorf("at to: got %d, want 127", got)
		}
	})

	t.Run("midpoint", func(t *testing.T) {
		// (64-3)*127/121 truncates to 64.
		if got := Remap(64, 3, 124, 0, 127); got != 64 {
			t.Errorf("got %d, want 64", got)
		}
	})

	t.Run("monotonic", func(t *testing.T) {
		prev := uint8(0)
		for v := uint8(3); v <= 124; v++ {
			got := Remap(v, 3, 124, 0, 127)
			if got < prev {
				t.Fatalf("remap(%d)=%d < remap(%d)=%d", v, got, v-1, prev)
			}
			prev = got
		}
	})

	t.Run("secondary range", func(t *testing.T) {
		if got := Remap(64, 64, 124, 0, 105); got != 0 {
			t.Errorf("low end: got %d, want 0", got)
		}
		if got := Remap(124, 64, 124, 0, 105); got != 105 {
			t.Errorf("high end: got %d, want 105", got)
		}
		if got := Remap(100, 64, 124, 0, 105); got != 63 {
			t.Errorf("interior: got %d, want 63", got)
		}
	})
}

// fixedADC returns the same raw sample for every read of a channel.
func fixedADC(values [NumAnalog]uint16) func(int) uint16 {
	return func(ch int) uint16 { return values[ch] }
}

func TestAnalogFilter(t *testing.T) {
	t.Run("averages subsamples", func(t *testing.T) {
		f := NewAnalogFilter([NumAnalog]bool{}, false)
		samples := []uint16{96, 104, 100, 100} // mean 100
		i := 0
		out := f.Update(func(ch int) uint16 {
			if ch != 0 {
				return 0
			}
			v := samples[i%len(samples)]
			i++
			return v
		})
		if out[0].Value != 100>>3 {
			t.Errorf("value: got %d, want %d", out[0].Value, 100>>3)
		}
		if !out[0].Changed {
			t.Error("expected changed")
		}
	})

	t.Run("hysteresis", func(t *testing.T) {
		f := NewAnalogFilter([NumAnalog]bool{}, false)
		f.Update(fixedADC([NumAnalog]uint16{100}))

		// A 7-unit wiggle is jitter, not movement.
		out := f.Update(fixedADC([NumAnalog]uint16{107}))
		if out[0].Changed {
			t.Errorf("diff 7 accepted: value %d", out[0].Value)
		}
		if out[0].Value != 100>>3 {
			t.Errorf("got %d, want previous %d", out[0].Value, 100>>3)
		}

		// Exactly the threshold passes.
		out = f.Update(fixedADC([NumAnalog]uint16{108}))
		if !out[0].Changed {
			t.Error("diff 8 rejected")
		}
		if out[0].Value != 108>>3 {
			t.Errorf("got %d, want %d", out[0].Value, 108>>3)
		}
	})

	t.Run("rejected sample keeps comparison point", func(t *testing.T) {
		f := NewAnalogFilter([NumAnalog]bool{}, false)
		f.Update(fixedADC([NumAnalog]uint16{512}))

		// A rejected wiggle must not move the comparison point: after the
		// jitter read, a real move is still judged against 512.
		f.Update(fixedADC([NumAnalog]uint16{517}))
		out := f.Update(fixedADC([NumAnalog]uint16{520}))
		if !out[0].Changed {
			t.Error("movement of 8 from the accepted sample was dropped")
		}
		if out[0].Prev != 512>>3 {
			t.Errorf("prev: got %d, want %d", out[0].Prev, 512>>3)
		}
	})

	t.Run("inversion", func(t *testing.T) {
		f := NewAnalogFilter([NumAnalog]bool{true}, false)
		out := f.Update(fixedADC([NumAnalog]uint16{256}))
		if out[0].Value != uint8((1024-256)>>3) {
			t.Errorf("got %d, want %d", out[0].Value, (1024-256)>>3)
		}
	})

	t.Run("rotate suppresses inversion", func(t *testing.T) {
		f := NewAnalogFilter([NumAnalog]bool{true}, true)
		out := f.Update(fixedADC([NumAnalog]uint16{256}))
		if out[0].Value != 256>>3 {
			t.Errorf("got %d, want %d", out[0].Value, 256>>3)
		}
	})
}
