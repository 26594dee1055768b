package mdcmetrics

import "testing"

func TestNewCollector(t *testing.T) {
	collector := NewCollector()
	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
}

func TestCollector_CRCFailed(t *testing.T) {
	collector := NewCollector()

	collector.CRCFailed()
	collector.CRCFailed()

	snap := collector.Snapshot()
	if snap.CRCFailures != 2 {
		t.Errorf("Expected 2 CRC failures, got %d", snap.CRCFailures)
	}
}

func TestCollector_BlockAccepted(t *testing.T) {
	collector := NewCollector()

	collector.BlockAccepted()

	snap := collector.Snapshot()
	if snap.BlocksAccepted != 1 {
		t.Errorf("Expected 1 accepted block, got %d", snap.BlocksAccepted)
	}
}

func TestCollector_PacketDelivered(t *testing.T) {
	collector := NewCollector()

	collector.PacketDelivered(1)
	collector.PacketDelivered(1)
	collector.PacketDelivered(2)
	collector.PacketDelivered(0) // unrecognized status, should not count

	snap := collector.Snapshot()
	if snap.SinglesDelivered != 2 {
		t.Errorf("Expected 2 singles delivered, got %d", snap.SinglesDelivered)
	}
	if snap.DoublesDelivered != 1 {
		t.Errorf("Expected 1 double delivered, got %d", snap.DoublesDelivered)
	}
}

func TestCollector_Reset(t *testing.T) {
	collector := NewCollector()

	collector.CRCFailed()
	collector.BlockAccepted()
	collector.PacketDelivered(1)

	collector.Reset()

	snap := collector.Snapshot()
	if snap != (Snapshot{}) {
		t.Errorf("Expected zeroed snapshot after Reset, got %+v", snap)
	}
}
