package testhelpers

import (
	"testing"

	"github.com/dbehnke/mdc1200-modem/pkg/logger"
	"github.com/dbehnke/mdc1200-modem/pkg/mdc"
)

// ModemSuite provides infrastructure for integration tests: a debug
// logger and helpers for running a full encode pass without each test
// repeating the drain loop.
type ModemSuite struct {
	T      *testing.T
	Logger *logger.Logger
}

// NewModemSuite creates a new modem integration test suite
func NewModemSuite(t *testing.T) *ModemSuite {
	log := logger.New(logger.Config{
		Level:  "debug",
		Format: "text",
	})

	return &ModemSuite{
		T:      t,
		Logger: log,
	}
}

// EncodeSingle drains a fully-encoded single packet into a sample
// slice, with trailing silence appended so a decoder can flush its
// bit-clock bank.
func (s *ModemSuite) EncodeSingle(sampleRate int, op, arg byte, unitID uint16) []float64 {
	s.T.Helper()
	enc, err := mdc.NewEncoder(sampleRate)
	if err != nil {
		s.T.Fatalf("NewEncoder: %v", err)
	}
	enc.SetPacket(op, arg, unitID)
	return s.drain(enc, sampleRate)
}

// EncodeDouble is EncodeSingle for a double packet.
func (s *ModemSuite) EncodeDouble(sampleRate int, op, arg byte, unitID uint16, extras [4]byte) []float64 {
	s.T.Helper()
	enc, err := mdc.NewEncoder(sampleRate)
	if err != nil {
		s.T.Fatalf("NewEncoder: %v", err)
	}
	enc.SetDoublePacket(op, arg, unitID, extras[0], extras[1], extras[2], extras[3])
	return s.drain(enc, sampleRate)
}

func (s *ModemSuite) drain(enc *mdc.Encoder, sampleRate int) []float64 {
	var samples []float64
	buf := make([]float64, 512)
	for {
		n := enc.GetSamples(buf)
		if n == 0 {
			break
		}
		samples = append(samples, buf[:n]...)
	}
	return append(samples, make([]float64, sampleRate/10)...)
}
