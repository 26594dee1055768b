package mdc

import (
	"encoding/binary"
	"fmt"
)

// CallbackFunc receives a decoded packet as it is produced, inline from
// within ProcessSamples. good is 1 for a single packet or 2 for the
// second block of a double packet; extra holds the four extension
// bytes when good is 2, and is the zero value otherwise.
type CallbackFunc func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any)

// MetricsSink receives decode-path counters. *mdcmetrics.Collector
// implements this; it is defined here, rather than imported, so that
// pkg/mdc carries no dependency on pkg/mdcmetrics.
type MetricsSink interface {
	CRCFailed()
	BlockAccepted()
	PacketDelivered(good int)
}

// Decoder recovers MDC-1200 packets from a stream of PCM samples. It
// holds a bank of phase-staggered bit-clock recoverers feeding a
// shared sync/capture/dispatch pipeline. A Decoder is not safe for
// concurrent use; ProcessSamples must be called from a single
// goroutine at a time, matching the original's single-threaded,
// callback-in-line contract. Separate Decoder handles share no state
// and may be used from different goroutines without coordination.
type Decoder struct {
	format SampleFormat
	mode   DemodMode

	incr     float64
	hyst     float64
	gdThresh int

	slots []*slot

	level     int
	lastValue float64

	good     int
	inDouble bool
	result   Packet

	callback CallbackFunc
	ctx      any

	metrics MetricsSink
}

// Option configures a Decoder at construction time. Encoders take
// EncoderOption instead.
type Option func(*decoderConfig)

type decoderConfig struct {
	format    SampleFormat
	mode      DemodMode
	slotCount int
	gdThresh  int
	hyst      float64
	metrics   MetricsSink
}

// WithSampleFormat selects the wire sample format.
func WithSampleFormat(f SampleFormat) Option {
	return func(c *decoderConfig) { c.format = f }
}

// WithDemodMode selects the bit-decision algorithm.
func WithDemodMode(m DemodMode) Option {
	return func(c *decoderConfig) { c.mode = m }
}

// WithSlotCount overrides the number of phase-staggered decode slots.
func WithSlotCount(n int) Option {
	return func(c *decoderConfig) { c.slotCount = n }
}

// WithGDThresh overrides the sync-word Hamming-distance lock threshold.
func WithGDThresh(t int) Option {
	return func(c *decoderConfig) { c.gdThresh = t }
}

// WithHysteresis overrides the zero-crossing edge detector's threshold.
func WithHysteresis(h float64) Option {
	return func(c *decoderConfig) { c.hyst = h }
}

// WithMetrics attaches a counter sink to the decoder's CRC-failure,
// accepted-block and delivery events. Sync locks are not reported.
func WithMetrics(m MetricsSink) Option {
	return func(c *decoderConfig) { c.metrics = m }
}

// NewDecoder builds a Decoder for the given sample rate. sampleRate
// must be positive.
func NewDecoder(sampleRate int, opts ...Option) (*Decoder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("mdc: sample rate must be positive, got %d", sampleRate)
	}

	cfg := decoderConfig{
		format:    SampleFloat,
		mode:      ModeDifferentiator,
		slotCount: DefaultSlotCount,
		gdThresh:  DefaultGDThresh,
		hyst:      DefaultHysteresis,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.slotCount <= 0 {
		return nil, fmt.Errorf("mdc: slot count must be positive, got %d", cfg.slotCount)
	}

	d := &Decoder{
		format:   cfg.format,
		mode:     cfg.mode,
		incr:     TwoPi * BitRate / float64(sampleRate),
		hyst:     cfg.hyst,
		gdThresh: cfg.gdThresh,
		metrics:  cfg.metrics,
	}
	d.slots = make([]*slot, cfg.slotCount)
	for i := range d.slots {
		d.slots[i] = newSlot(i, cfg.slotCount)
	}
	return d, nil
}

// SetCallback installs fn to be invoked inline from ProcessSamples
// whenever a packet (or the second block of a double packet) is
// decoded. ctx is passed through unchanged, matching the original's
// opaque void* context parameter.
func (d *Decoder) SetCallback(fn CallbackFunc, ctx any) {
	d.callback = fn
	d.ctx = ctx
}

// GetPacket returns the most recently decoded single packet and clears
// the latch. ok is false if no single packet is currently latched.
func (d *Decoder) GetPacket() (Packet, bool) {
	if d.good != 1 {
		return Packet{}, false
	}
	p := d.result
	d.good = 0
	return p, true
}

// GetDoublePacket returns the most recently decoded double packet
// (including its extension bytes) and clears the latch. ok is false
// if no double packet is currently latched.
func (d *Decoder) GetDoublePacket() (Packet, bool) {
	if d.good != 2 {
		return Packet{}, false
	}
	p := d.result
	d.good = 0
	return p, true
}

// Sample is the set of wire representations ProcessSamples accepts.
// The decoder normalizes whichever one is configured via
// WithSampleFormat into its internal [-1,+1] floating-point domain;
// Go has no compile-time format switch so this is expressed as a type
// parameter rather than the original's build-time macro selection.
type Sample interface {
	~uint8 | ~uint16 | ~int16 | ~float32 | ~float64
}

func normalizeSample[T Sample](format SampleFormat, v T) float64 {
	raw := float64(v)
	switch format {
	case SampleU8:
		return (raw - 128.0) / 256.0
	case SampleU16:
		return (raw - 32768.0) / 65536.0
	case SampleS16:
		return raw / 65536.0
	default:
		return raw
	}
}

// ProcessSamples feeds n samples through the decoder's front end and
// bit-clock bank. It returns the same tri-state the original's
// mdc_decoder_process_samples does: 0 if nothing new is latched, 1 if
// a single packet became available, 2 if a double packet became
// available. If a callback is installed, newly decoded packets are
// delivered to it inline and the latch is cleared before return, so
// the return value reflects only packets that arrived with no
// callback to consume them.
func ProcessSamples[T Sample](d *Decoder, samples []T) int {
	for _, raw := range samples {
		value := normalizeSample(d.format, raw)
		d.tick(value)
	}
	return d.good
}

// ProcessFloat64Samples is a convenience, non-generic entry point for
// the common float64 case.
func (d *Decoder) ProcessFloat64Samples(samples []float64) int {
	return ProcessSamples(d, samples)
}

func (d *Decoder) tick(value float64) {
	switch d.mode {
	case ModeFourPoint:
		d.tickFourPoint(value)
	default:
		d.tickDifferentiator(value)
	}
}

func (d *Decoder) tickDifferentiator(value float64) {
	delta := value - d.lastValue
	d.lastValue = value

	if d.level == 0 {
		if delta > d.hyst {
			d.level = 1
			for _, s := range d.slots {
				s.zc++
			}
		}
	} else {
		if delta < -d.hyst {
			d.level = 0
			for _, s := range d.slots {
				s.zc++
			}
		}
	}

	for _, s := range d.slots {
		s.theta += d.incr
		if s.theta >= TwoPi {
			s.theta -= TwoPi
			if s.zcProc(d.gdThresh) {
				d.dispatch(s)
			}
			s.zc = 0
		}
	}
}

func (d *Decoder) tickFourPoint(value float64) {
	for _, s := range d.slots {
		s.theta += 5 * d.incr
		if s.theta >= TwoPi {
			s.theta -= TwoPi
			s.nlstep++
			if s.nlstep > 9 {
				s.nlstep = 0
			}
			s.ring[s.nlstep] = value
			if s.nlProc(d.gdThresh) {
				d.dispatch(s)
			}
		}
	}
}

// dispatch implements the frame-capture and double-packet dispatch
// logic (_procbits in the original), including the
// "indouble gating" subtlety: once any slot's first-stage capture
// announces a double packet, every other slot that completes a
// CRC-valid first-stage capture while that flag is set is promoted
// straight to CAPTURE_SECOND, without its opcode being consulted.
func (d *Decoder) dispatch(s *slot) {
	block, ok := checkBlockCRC(s.bits)
	if !ok {
		s.state = stateIdle
		if d.metrics != nil {
			d.metrics.CRCFailed()
		}
		return
	}
	if d.metrics != nil {
		d.metrics.BlockAccepted()
	}

	switch {
	case s.state == stateCaptureSecond:
		d.result.Extra0 = block[0]
		d.result.Extra1 = block[1]
		d.result.Extra2 = block[2]
		d.result.Extra3 = block[3]
		for _, other := range d.slots {
			other.state = stateIdle
		}
		d.good = 2
		d.inDouble = false

	case !d.inDouble:
		d.result = Packet{
			Op:     block[0],
			Arg:    block[1],
			UnitID: binary.BigEndian.Uint16(block[2:4]),
			CRC:    uint16(block[4])<<8 | uint16(block[5]),
		}
		if isDoubleOpcode(block[0]) {
			d.result.Double = true
			d.inDouble = true
			s.state = stateCaptureSecond
			s.count = 0
			s.clearBits()
		} else {
			d.good = 1
			for _, other := range d.slots {
				other.state = stateIdle
			}
		}

	default:
		// Another slot already owns the pending double packet's first
		// block; this slot races it for the second.
		s.state = stateCaptureSecond
		s.count = 0
		s.clearBits()
	}

	if d.good != 0 {
		if d.metrics != nil {
			d.metrics.PacketDelivered(d.good)
		}
		if d.callback != nil {
			extra := [4]byte{}
			if d.good == 2 {
				extra = [4]byte{d.result.Extra0, d.result.Extra1, d.result.Extra2, d.result.Extra3}
			}
			d.callback(d.good, d.result.Op, d.result.Arg, d.result.UnitID, extra, d.ctx)
			d.good = 0
		}
	}
}
