package wav

import (
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")

	samples := []int{0, 1000, -1000, 32767, -32768, 0}
	const sampleRate = 8000

	if err := WriteFile(path, sampleRate, samples); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, rate, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if rate != sampleRate {
		t.Errorf("expected sample rate %d, got %d", sampleRate, rate)
	}
	if len(got) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}
