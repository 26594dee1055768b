// Package mdc implements the MDC-1200 MSK signaling protocol: a 1200
// bit/s Minimum-Shift-Keyed in-band data burst carried on analog
// narrowband FM voice channels. It provides an Encoder that turns a
// small opcode/argument/unit-ID packet into a stream of PCM samples,
// and a Decoder that ingests PCM samples and reports any MDC-1200
// packets found within them.
//
// Based on mdc_encode.c/mdc_decode.c by Matthew Kaufman.
package mdc

import "math"

// SampleFormat selects how raw integer/float samples map onto the
// modem's internal [-1, +1] floating point representation.
type SampleFormat int

const (
	// SampleU8 treats each sample as an unsigned byte offset by 128.
	SampleU8 SampleFormat = iota
	// SampleU16 treats each sample as an unsigned 16-bit word offset by 32768.
	SampleU16
	// SampleS16 treats each sample as a signed 16-bit word.
	SampleS16
	// SampleFloat passes samples through unchanged.
	SampleFloat
)

// DemodMode selects the bit-decision algorithm used by the decoder's
// bit-clock bank.
type DemodMode int

const (
	// ModeDifferentiator is the zero-crossing/differentiator variant:
	// a hysteresis edge detector feeds an edge counter consulted once
	// per bit period.
	ModeDifferentiator DemodMode = iota
	// ModeFourPoint is the four-point correlator variant: a 10-sample
	// ring per slot is combined with fixed weights at two points in
	// the bit period.
	ModeFourPoint
)

const (
	// TwoPi is 2*pi, matching the original decoder's TWOPI constant.
	TwoPi = 2.0 * math.Pi

	// BitRate is the MDC-1200 signaling rate in bits per second.
	BitRate = 1200.0

	// DefaultSlotCount is the number of phase-staggered decode slots
	// (MDC_ND in the original), a good default trading CPU for
	// bit-clock lock-in probability.
	DefaultSlotCount = 5

	// DefaultGDThresh is the maximum Hamming distance between the
	// receive window and the sync word that still counts as a lock
	// (MDC_GDTHRESH in the original).
	DefaultGDThresh = 5

	// DefaultHysteresis is the zero-crossing detector's hysteresis
	// threshold for the normalized sample delta.
	DefaultHysteresis = 3.0 / 256.0

	// frameBits is the length, in bits, of one 14-byte payload block
	// after interleaving (7 rows * 16 columns).
	frameBits = 112

	// frameBytes is the length, in bytes, of one payload block:
	// 4 data bytes + 2 CRC bytes + 7 FEC bytes.
	frameBytes = 14

	// syncBits is the length, in bits, of the sync preamble.
	syncBits = 40
)

// syncWordHigh/syncWordLow hold the 40-bit sync word constant split
// into an 8-bit high part and a 32-bit low part, matching the
// decoder's synchigh/synclow shift registers.
const (
	syncWordHigh uint32 = 0x07
	syncWordLow  uint32 = 0x092A446F
)

// syncWordBytes is the 5-byte, MSB-first wire form of the sync word,
// transmitted once, immediately before the first payload block; a
// double packet's second block follows the first without a sync word
// of its own.
var syncWordBytes = [5]byte{0x07, 0x09, 0x2A, 0x44, 0x6F}

// doubleOpcodes is the fixed set of opcodes whose first block
// announces a following second (double-packet) block. This is a
// protocol design constant, not configuration.
var doubleOpcodes = map[byte]bool{
	0x35: true,
	0x55: true,
}

// Packet is the logical payload of a single or double MDC-1200
// transmission.
type Packet struct {
	Op     byte
	Arg    byte
	UnitID uint16

	// CRC is the raw little-endian CRC word read from the wire for
	// the header block, exposed for callers that want to log it. The
	// original reference decoder stores it byte-swapped from the
	// wire's actual low-byte-first order; this is reproduced exactly
	// since it's a diagnostic field, not something re-validated.
	CRC uint16

	// Double is true if Extra0..Extra3 carry a second block's payload.
	Double bool
	Extra0 byte
	Extra1 byte
	Extra2 byte
	Extra3 byte
}

func isDoubleOpcode(op byte) bool {
	return doubleOpcodes[op]
}
