package mdcconfig

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_UsesDefaults_WhenNoFile(t *testing.T) {
	viper.Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Modem.SampleRate != 22050 {
		t.Errorf("expected Modem.SampleRate default 22050, got %d", cfg.Modem.SampleRate)
	}
	if cfg.Modem.SlotCount != 5 {
		t.Errorf("expected Modem.SlotCount default 5, got %d", cfg.Modem.SlotCount)
	}
	if cfg.Modem.SampleFormat != "s16" {
		t.Errorf("expected Modem.SampleFormat default s16, got %q", cfg.Modem.SampleFormat)
	}
	if cfg.Modem.DemodMode != "differentiator" {
		t.Errorf("expected Modem.DemodMode default differentiator, got %q", cfg.Modem.DemodMode)
	}
	if cfg.Logging.Level == "" {
		t.Errorf("expected Logging.Level to be set (default info)")
	}
	if !cfg.Metrics.Enabled {
		t.Errorf("expected Metrics.Enabled default true")
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Run("non-positive sample rate", func(t *testing.T) {
		cfg := &Config{Modem: ModemConfig{SampleRate: 0, SlotCount: 1, SampleFormat: "s16", DemodMode: "differentiator"}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for non-positive modem.sample_rate")
		}
	})

	t.Run("non-positive slot count", func(t *testing.T) {
		cfg := &Config{Modem: ModemConfig{SampleRate: 8000, SlotCount: 0, SampleFormat: "s16", DemodMode: "differentiator"}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for non-positive modem.slot_count")
		}
	})

	t.Run("unknown sample format", func(t *testing.T) {
		cfg := &Config{Modem: ModemConfig{SampleRate: 8000, SlotCount: 5, SampleFormat: "bogus", DemodMode: "differentiator"}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for unknown modem.sample_format")
		}
	})

	t.Run("unknown demod mode", func(t *testing.T) {
		cfg := &Config{Modem: ModemConfig{SampleRate: 8000, SlotCount: 5, SampleFormat: "s16", DemodMode: "bogus"}}
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for unknown modem.demod_mode")
		}
	})
}
