package mdc

import "testing"

const testSampleRate = 48000

func encodeToSamples(t *testing.T, load func(e *Encoder)) []float64 {
	t.Helper()
	enc, err := NewEncoder(testSampleRate)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	load(enc)

	var samples []float64
	buf := make([]float64, 256)
	for {
		n := enc.GetSamples(buf)
		if n == 0 {
			break
		}
		samples = append(samples, buf[:n]...)
	}

	// Trailing silence gives the bit-clock bank room to flush the
	// tail of the transmission.
	for i := 0; i < 10*256; i++ {
		samples = append(samples, 0)
	}
	return samples
}

func TestEncodeDecodeSinglePacket(t *testing.T) {
	samples := encodeToSamples(t, func(e *Encoder) {
		e.SetPacket(0x12, 0x34, 0x5678)
	})

	dec, err := NewDecoder(testSampleRate)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	type event struct {
		good           int
		op, arg        byte
		unitID         uint16
		e0, e1, e2, e3 byte
	}
	var events []event
	dec.SetCallback(func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any) {
		events = append(events, event{good, op, arg, unitID, extra[0], extra[1], extra[2], extra[3]})
	}, nil)

	ProcessSamples(dec, samples)

	if len(events) != 1 {
		t.Fatalf("expected exactly 1 decode event, got %d", len(events))
	}
	ev := events[0]
	if ev.good != 1 || ev.op != 0x12 || ev.arg != 0x34 || ev.unitID != 0x5678 {
		t.Errorf("decoded %+v, want good=1 op=12 arg=34 unit=5678", ev)
	}
}

func TestEncodeDecodeDoublePacket(t *testing.T) {
	samples := encodeToSamples(t, func(e *Encoder) {
		e.SetDoublePacket(0x55, 0x34, 0x5678, 0x0a, 0x0b, 0x0c, 0x0d)
	})

	dec, err := NewDecoder(testSampleRate)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	var singles, doubles int
	var lastDouble [4]byte
	var lastOp, lastArg byte
	var lastUnit uint16
	dec.SetCallback(func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any) {
		switch good {
		case 1:
			singles++
		case 2:
			doubles++
			lastDouble = extra
			lastOp, lastArg, lastUnit = op, arg, unitID
		}
	}, nil)

	ProcessSamples(dec, samples)

	if singles != 0 {
		t.Errorf("expected no single-packet events for a double packet, got %d", singles)
	}
	if doubles != 1 {
		t.Fatalf("expected exactly 1 double-packet event, got %d", doubles)
	}
	if lastOp != 0x55 || lastArg != 0x34 || lastUnit != 0x5678 {
		t.Errorf("decoded op=%02x arg=%02x unit=%04x, want 55 34 5678", lastOp, lastArg, lastUnit)
	}
	want := [4]byte{0x0a, 0x0b, 0x0c, 0x0d}
	if lastDouble != want {
		t.Errorf("extras = %v, want %v", lastDouble, want)
	}
}

func TestEncodeDecodeBackToBackDoubles(t *testing.T) {
	enc, err := NewEncoder(testSampleRate)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	var samples []float64
	buf := make([]float64, 256)
	const repeats = 9
	for r := 0; r < repeats; r++ {
		enc.SetDoublePacket(0x35, 0x01, 0x0203, 0x0a, 0x0b, 0x0c, 0x0d)
		for {
			n := enc.GetSamples(buf)
			if n == 0 {
				break
			}
			samples = append(samples, buf[:n]...)
		}
	}
	for i := 0; i < 10*256; i++ {
		samples = append(samples, 0)
	}

	dec, err := NewDecoder(testSampleRate)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	var doubles int
	dec.SetCallback(func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any) {
		if good == 2 {
			doubles++
		}
	}, nil)

	ProcessSamples(dec, samples)

	if doubles != repeats {
		t.Errorf("got %d double-packet events, want %d", doubles, repeats)
	}
}

func TestGetPacketDrainedByCallback(t *testing.T) {
	samples := encodeToSamples(t, func(e *Encoder) {
		e.SetPacket(0x12, 0x34, 0x5678)
	})

	dec, err := NewDecoder(testSampleRate)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	dec.SetCallback(func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any) {}, nil)

	ProcessSamples(dec, samples)

	if _, ok := dec.GetPacket(); ok {
		t.Error("GetPacket should report nothing ready once a callback drained the latch")
	}
}

func TestEncodeDecodePolarityInversion(t *testing.T) {
	samples := encodeToSamples(t, func(e *Encoder) {
		e.SetPacket(0x12, 0x34, 0x5678)
	})
	inverted := make([]float64, len(samples))
	for i, v := range samples {
		inverted[i] = -v
	}

	dec, err := NewDecoder(testSampleRate)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	var events int
	var gotOp, gotArg byte
	var gotUnit uint16
	dec.SetCallback(func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any) {
		if good == 1 {
			events++
			gotOp, gotArg, gotUnit = op, arg, unitID
		}
	}, nil)

	ProcessSamples(dec, inverted)

	if events != 1 {
		t.Fatalf("expected 1 decode event on inverted samples, got %d", events)
	}
	if gotOp != 0x12 || gotArg != 0x34 || gotUnit != 0x5678 {
		t.Errorf("decoded op=%02x arg=%02x unit=%04x, want 12 34 5678", gotOp, gotArg, gotUnit)
	}
}

func TestDecodeNoiseFloorProducesNoEvents(t *testing.T) {
	dec, err := NewDecoder(testSampleRate)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	var events int
	dec.SetCallback(func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any) {
		events++
	}, nil)

	zeros := make([]float64, testSampleRate)
	ProcessSamples(dec, zeros)

	noise := make([]float64, testSampleRate)
	seed := 0.01
	for i := range noise {
		// a small deterministic pseudo-noise sequence, not all-equal so
		// the hysteresis detector sees some edges without ever
		// resembling a real burst.
		if i%2 == 0 {
			noise[i] = seed
		} else {
			noise[i] = -seed
		}
	}
	ProcessSamples(dec, noise)

	if events != 0 {
		t.Errorf("expected 0 decode events on silence/noise, got %d", events)
	}

	// A real packet should still decode afterward: the noise floor
	// must not have corrupted decoder state.
	samples := encodeToSamples(t, func(e *Encoder) {
		e.SetPacket(0x21, 0x43, 0x0102)
	})
	ProcessSamples(dec, samples)
	if events != 1 {
		t.Errorf("expected 1 decode event after real packet following noise, got %d", events)
	}
}

func TestProcessSamplesSplitInvariant(t *testing.T) {
	samples := encodeToSamples(t, func(e *Encoder) {
		e.SetPacket(0x12, 0x34, 0x5678)
	})

	type event struct {
		good    int
		op, arg byte
		unitID  uint16
	}

	run := func(chunks [][]float64) []event {
		dec, err := NewDecoder(testSampleRate)
		if err != nil {
			t.Fatalf("NewDecoder: %v", err)
		}
		var events []event
		dec.SetCallback(func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any) {
			events = append(events, event{good, op, arg, unitID})
		}, nil)
		for _, c := range chunks {
			ProcessSamples(dec, c)
		}
		return events
	}

	whole := run([][]float64{samples})

	mid := len(samples) / 3
	split := run([][]float64{samples[:mid], samples[mid:]})

	if len(whole) != len(split) {
		t.Fatalf("split feeding produced %d events, whole feeding produced %d", len(split), len(whole))
	}
	for i := range whole {
		if whole[i] != split[i] {
			t.Errorf("event %d differs: whole=%+v split=%+v", i, whole[i], split[i])
		}
	}
}

func TestFourPointModeDecodesSinglePacket(t *testing.T) {
	samples := encodeToSamples(t, func(e *Encoder) {
		e.SetPacket(0x12, 0x34, 0x5678)
	})

	dec, err := NewDecoder(testSampleRate, WithDemodMode(ModeFourPoint))
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	var events int
	var gotOp byte
	dec.SetCallback(func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any) {
		if good == 1 {
			events++
			gotOp = op
		}
	}, nil)

	ProcessSamples(dec, samples)

	if events != 1 {
		t.Fatalf("four-point mode: expected 1 decode event, got %d", events)
	}
	if gotOp != 0x12 {
		t.Errorf("four-point mode: decoded op=%02x, want 12", gotOp)
	}
}
