package mdc

import (
	"fmt"
	"math"
)

const (
	// defaultPreambleBytes / maxPreambleBytes bound the run of 0x00
	// bytes sent ahead of the sync word to prime the receiver's AGC
	// and bit clock. The maximum matches the original's fixed frame
	// buffer headroom (14+14+5 payload bytes plus 7 of preamble).
	defaultPreambleBytes = 3
	maxPreambleBytes     = 7

	// ampFull and ampAttenuated are the two output amplitudes the
	// original encoder can be built to emit; full amplitude is opt-in
	// (MDC_ENCODE_FULL_AMPLITUDE in the original, WithFullAmplitude
	// here), since many deployments deliberately run MDC bursts below
	// full deviation.
	ampAttenuated = 0.68
	ampFull       = 1.00
)

// encoderConfig holds Encoder construction options. It is distinct
// from decoderConfig because the Encoder and Decoder share no fields;
// each has its own option function type (EncoderOption, Option).
type encoderConfig struct {
	fillFinal     bool
	fullAmplitude bool
}

// EncoderOption configures an Encoder at construction time.
type EncoderOption func(*encoderConfig)

// WithFillFinal makes GetSamples zero-pad the final, partially-filled
// caller buffer to its full length instead of returning a short
// count, mirroring the original's commented-out FILL_FINAL behavior.
func WithFillFinal() EncoderOption {
	return func(c *encoderConfig) { c.fillFinal = true }
}

// WithFullAmplitude emits the MSK waveform at +-1.00 instead of the
// default +-0.68, mirroring the original's commented-out
// MDC_ENCODE_FULL_AMPLITUDE build flag.
func WithFullAmplitude() EncoderOption {
	return func(c *encoderConfig) { c.fullAmplitude = true }
}

// Encoder renders an MDC-1200 packet into a stream of PCM samples.
// An Encoder holds one pending packet at a time; call SetPacket or
// SetDoublePacket to load a new one once GetSamples reports the
// current one exhausted.
type Encoder struct {
	amplitude     float64
	fillFinal     bool
	preambleBytes int

	// bitBuf holds the full bit-serialized transmission: preamble,
	// sync word, interleaved first block and, for double packets, the
	// interleaved second block directly after the first.
	bitBuf []int
	bitPos int
	loaded bool

	// MSK phase accumulator state. The waveform is continuous-phase
	// FSK at 1200 Hz (bit unchanged) or 1800 Hz (bit toggled): theta
	// advances by incr or 1.5*incr per sample, where incr is the
	// 1200 Hz phase step. xorb is the differentially-encoded tone
	// select for the current bit; lastBit is the differential
	// encoder's previous logical bit.
	theta         float64
	incr          float64
	xorb          int
	lastBit       int
	bitLoaded     bool
	bitClock      float64
	samplesPerBit float64
}

// NewEncoder builds an Encoder for the given output sample rate.
func NewEncoder(sampleRate int, opts ...EncoderOption) (*Encoder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("mdc: sample rate must be positive, got %d", sampleRate)
	}
	cfg := encoderConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	amp := ampAttenuated
	if cfg.fullAmplitude {
		amp = ampFull
	}

	return &Encoder{
		amplitude:     amp,
		fillFinal:     cfg.fillFinal,
		preambleBytes: defaultPreambleBytes,
		incr:          TwoPi * BitRate / float64(sampleRate),
		samplesPerBit: float64(sampleRate) / BitRate,
	}, nil
}

// SetPreamble sets the number of 0x00 preamble bytes transmitted ahead
// of the sync word on the next SetPacket/SetDoublePacket. Longer
// preambles give a receiver's AGC and bit clock more time to settle.
func (e *Encoder) SetPreamble(lengthBytes int) error {
	if lengthBytes < 0 || lengthBytes > maxPreambleBytes {
		return fmt.Errorf("mdc: preamble length must be in [0, %d], got %d", maxPreambleBytes, lengthBytes)
	}
	e.preambleBytes = lengthBytes
	return nil
}

// SetPacket loads a single-block packet for encoding.
func (e *Encoder) SetPacket(op, arg byte, unitID uint16) {
	block := buildHeaderBlock(op, arg, unitID)
	e.bitBuf = assembleTransmission(block, nil, e.preambleBytes)
	e.bitPos = 0
	e.loaded = true
	e.resetModulator()
}

// SetDoublePacket loads a double-block packet: a header block plus a
// four-byte extension block.
func (e *Encoder) SetDoublePacket(op, arg byte, unitID uint16, extra0, extra1, extra2, extra3 byte) {
	header := buildHeaderBlock(op, arg, unitID)
	extra := buildExtraBlock(extra0, extra1, extra2, extra3)
	e.bitBuf = assembleTransmission(header, &extra, e.preambleBytes)
	e.bitPos = 0
	e.loaded = true
	e.resetModulator()
}

func (e *Encoder) resetModulator() {
	e.theta = 0
	e.xorb = 0
	e.lastBit = 0
	e.bitLoaded = false
	e.bitClock = 0
}

// assembleTransmission bit-serializes the preamble, sync word, and one
// or two interleaved payload blocks. Bits are MSB-first
// within the preamble and sync bytes and follow the block's own
// wire-order interleaving for the payload, matching the decoder's
// expectations in interleave.go/frame.go.
func assembleTransmission(header [frameBytes]byte, extra *[frameBytes]byte, preambleBytes int) []int {
	var bits []int

	// Preamble: a run of zero bits, which the differential modulator
	// renders as a steady 1200 Hz tone for the receiver's hysteresis
	// edge detector and bit clock to settle against.
	for i := 0; i < preambleBytes*8; i++ {
		bits = append(bits, 0)
	}

	bits = appendSyncWord(bits)
	bits = appendBlock(bits, header)

	// A double packet's second block follows the first back-to-back,
	// sharing its preamble and sync word: the receiving slot moves
	// straight from the first block's CRC check into capturing the
	// next 112 bits.
	if extra != nil {
		bits = appendBlock(bits, *extra)
	}

	return bits
}

func appendSyncWord(bits []int) []int {
	for _, b := range syncWordBytes {
		for i := 0; i < 8; i++ {
			bits = append(bits, boolToInt(readBit([]byte{b}, i)))
		}
	}
	return bits
}

func appendBlock(bits []int, block [frameBytes]byte) []int {
	logical := blockToLogicalBits(block)
	wire := interleave(logical)
	for _, b := range wire {
		bits = append(bits, b)
	}
	return bits
}

// GetSamples renders up to len(buf) PCM samples from the loaded
// transmission into buf, returning the number written. It returns 0
// once the transmission is exhausted and no packet has been
// (re)loaded since.
func (e *Encoder) GetSamples(buf []float64) int {
	if !e.loaded {
		return 0
	}

	n := 0
	for n < len(buf) {
		if e.bitPos >= len(e.bitBuf) {
			if e.fillFinal {
				for ; n < len(buf); n++ {
					buf[n] = 0
				}
			}
			e.loaded = false
			break
		}

		if !e.bitLoaded {
			// Differential encoding: a logical bit that differs from
			// its predecessor selects the 1800 Hz tone (which the
			// receiver counts as three edges per bit period and decodes
			// as a toggle); an unchanged bit selects 1200 Hz.
			b := e.bitBuf[e.bitPos]
			if b != e.lastBit {
				e.xorb = 1
				e.lastBit = b
			} else {
				e.xorb = 0
			}
			e.bitLoaded = true
		}

		buf[n] = e.sample()
		n++

		if e.xorb != 0 {
			e.theta += 1.5 * e.incr
		} else {
			e.theta += e.incr
		}
		if e.theta >= TwoPi {
			e.theta -= TwoPi
		}

		// Fractional bit-clock accumulation keeps the transmitted bit
		// rate exact at sample rates that are not a multiple of 1200.
		e.bitClock++
		if e.bitClock >= e.samplesPerBit {
			e.bitClock -= e.samplesPerBit
			e.bitPos++
			e.bitLoaded = false
		}
	}
	return n
}

func (e *Encoder) sample() float64 {
	return e.amplitude * math.Sin(e.theta)
}
