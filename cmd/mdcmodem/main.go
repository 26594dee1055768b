// Command mdcmodem is a thin reference harness around pkg/mdc: it
// encodes a packet to a WAV file, or decodes one back out of a WAV
// file, using pkg/mdcconfig for tuning parameters and pkg/logger for
// status output. The modem itself lives entirely in pkg/mdc; this
// binary only demonstrates it.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dbehnke/mdc1200-modem/pkg/logger"
	"github.com/dbehnke/mdc1200-modem/pkg/mdc"
	"github.com/dbehnke/mdc1200-modem/pkg/mdcconfig"
	"github.com/dbehnke/mdc1200-modem/pkg/mdcmetrics"
	"github.com/dbehnke/mdc1200-modem/pkg/wav"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	mode := flag.String("mode", "", "encode or decode")
	configFile := flag.String("config", "", "Path to configuration file (optional)")
	out := flag.String("out", "packet.wav", "Output WAV path (encode mode)")
	in := flag.String("in", "", "Input WAV path (decode mode)")
	op := flag.String("op", "0x12", "Opcode, as hex (encode mode)")
	arg := flag.String("arg", "0x00", "Argument, as hex (encode mode)")
	unitID := flag.String("unit", "0x0001", "Unit ID, as hex (encode mode)")
	extra := flag.String("extra", "", "4 comma-separated hex bytes for a double packet (encode mode)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mdcmodem %s (%s)\n", version, gitCommit)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})

	cfg, err := mdcconfig.Load(*configFile)
	if err != nil {
		log.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}
	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Info("configuration loaded",
		logger.String("sample_format", cfg.Modem.SampleFormat),
		logger.String("demod_mode", cfg.Modem.DemodMode),
		logger.Int("slot_count", cfg.Modem.SlotCount))

	switch *mode {
	case "encode":
		if err := runEncode(cfg, log, *out, *op, *arg, *unitID, *extra); err != nil {
			log.Error("encode failed", logger.Error(err))
			os.Exit(1)
		}
	case "decode":
		if *in == "" {
			log.Error("decode mode requires -in")
			os.Exit(1)
		}
		if err := runDecode(cfg, log, *in); err != nil {
			log.Error("decode failed", logger.Error(err))
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: mdcmodem -mode=encode|decode [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}
}

func runEncode(cfg *mdcconfig.Config, log *logger.Logger, out, opStr, argStr, unitStr, extraStr string) error {
	op, err := parseByte(opStr)
	if err != nil {
		return fmt.Errorf("op: %w", err)
	}
	arg, err := parseByte(argStr)
	if err != nil {
		return fmt.Errorf("arg: %w", err)
	}
	unit, err := parseUint16(unitStr)
	if err != nil {
		return fmt.Errorf("unit: %w", err)
	}

	var encOpts []mdc.EncoderOption
	if cfg.Modem.FillFinal {
		encOpts = append(encOpts, mdc.WithFillFinal())
	}
	if cfg.Modem.FullAmplitude {
		encOpts = append(encOpts, mdc.WithFullAmplitude())
	}

	enc, err := mdc.NewEncoder(cfg.Modem.SampleRate, encOpts...)
	if err != nil {
		return fmt.Errorf("new encoder: %w", err)
	}

	if extraStr == "" {
		enc.SetPacket(op, arg, unit)
		log.Info("loaded single packet", logger.Uint32("op", uint32(op)), logger.Uint32("arg", uint32(arg)), logger.Uint32("unit_id", uint32(unit)))
	} else {
		e0, e1, e2, e3, err := parseExtras(extraStr)
		if err != nil {
			return fmt.Errorf("extra: %w", err)
		}
		enc.SetDoublePacket(op, arg, unit, e0, e1, e2, e3)
		log.Info("loaded double packet", logger.Uint32("op", uint32(op)), logger.Uint32("arg", uint32(arg)), logger.Uint32("unit_id", uint32(unit)))
	}

	var samples []int
	buf := make([]float64, 1024)
	for {
		n := enc.GetSamples(buf)
		if n == 0 {
			break
		}
		for i := 0; i < n; i++ {
			samples = append(samples, floatToS16(buf[i]))
		}
	}

	if err := wav.WriteFile(out, cfg.Modem.SampleRate, samples); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	log.Info("wrote samples", logger.String("path", out), logger.Int("count", len(samples)))
	return nil
}

func runDecode(cfg *mdcconfig.Config, log *logger.Logger, in string) error {
	samples, rate, err := wav.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read wav: %w", err)
	}

	decOpts := []mdc.Option{
		WithSampleFormatFromString(cfg.Modem.SampleFormat),
		mdc.WithSlotCount(cfg.Modem.SlotCount),
		mdc.WithGDThresh(cfg.Modem.GDThresh),
		mdc.WithHysteresis(cfg.Modem.Hysteresis),
	}
	var collector *mdcmetrics.Collector
	if cfg.Metrics.Enabled {
		collector = mdcmetrics.NewCollector()
		decOpts = append(decOpts, mdc.WithMetrics(collector))
	}
	if cfg.Modem.DemodMode == "fourpoint" {
		decOpts = append(decOpts, mdc.WithDemodMode(mdc.ModeFourPoint))
	}

	dec, err := mdc.NewDecoder(rate, decOpts...)
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}

	var delivered int
	dec.SetCallback(func(good int, op, arg byte, unitID uint16, extra [4]byte, ctx any) {
		delivered++
		if good == 2 {
			log.Info("decoded double packet",
				logger.Uint32("op", uint32(op)), logger.Uint32("arg", uint32(arg)),
				logger.Uint32("unit_id", uint32(unitID)),
				logger.Uint32("extra0", uint32(extra[0])), logger.Uint32("extra1", uint32(extra[1])),
				logger.Uint32("extra2", uint32(extra[2])), logger.Uint32("extra3", uint32(extra[3])))
		} else {
			log.Info("decoded single packet",
				logger.Uint32("op", uint32(op)), logger.Uint32("arg", uint32(arg)),
				logger.Uint32("unit_id", uint32(unitID)))
		}
	}, nil)

	s16 := make([]int16, len(samples))
	for i, v := range samples {
		s16[i] = int16(v)
	}
	mdc.ProcessSamples(dec, s16)

	fields := []logger.Field{logger.Int("delivered", delivered)}
	if collector != nil {
		snap := collector.Snapshot()
		fields = append(fields,
			logger.Uint64("crc_failures", snap.CRCFailures),
			logger.Uint64("blocks_accepted", snap.BlocksAccepted))
	}
	log.Info("decode complete", fields...)
	return nil
}

// WithSampleFormatFromString resolves the CLI/config sample-format
// string into an mdc.Option, defaulting to signed 16-bit (the format
// pkg/wav always produces).
func WithSampleFormatFromString(s string) mdc.Option {
	switch s {
	case "u8":
		return mdc.WithSampleFormat(mdc.SampleU8)
	case "u16":
		return mdc.WithSampleFormat(mdc.SampleU16)
	case "float":
		return mdc.WithSampleFormat(mdc.SampleFloat)
	default:
		return mdc.WithSampleFormat(mdc.SampleS16)
	}
}

func floatToS16(v float64) int {
	s := v * 32767.0
	if s > 32767.0 {
		s = 32767.0
	}
	if s < -32768.0 {
		s = -32768.0
	}
	return int(s)
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(trimHex(s), 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(trimHex(s), 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func trimHex(s string) string {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

func parseExtras(s string) (e0, e1, e2, e3 byte, err error) {
	var parts [4]string
	n := 0
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if n >= 4 {
				return 0, 0, 0, 0, fmt.Errorf("expected 4 comma-separated bytes, got more")
			}
			parts[n] = s[start:i]
			n++
			start = i + 1
		}
	}
	if n != 4 {
		return 0, 0, 0, 0, fmt.Errorf("expected 4 comma-separated bytes, got %d", n)
	}
	bs := make([]byte, 4)
	for i, p := range parts {
		b, perr := parseByte(p)
		if perr != nil {
			return 0, 0, 0, 0, perr
		}
		bs[i] = b
	}
	return bs[0], bs[1], bs[2], bs[3], nil
}
