package storage

import (
	"testing"
	"time"

	"github.com/user/routerpulse/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetHistory(t *testing.T) {
	store := NewSampleStorage(openTestDB(t))
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	snapshot := &model.MetricsSnapshot{
		Timestamp: base,
		System:    &model.SystemInfo{Hostname: "gw", CPUPercent: 12.5},
		Interfaces: []model.InterfaceStats{
			{Interface: "br0", RxMbps: 10, TxMbps: 2, RxBytes: 1000, TxBytes: 200, Timestamp: base},
			{Interface: "eth0", RxMbps: 1, TxMbps: 1, Timestamp: base},
		},
	}
	if err := store.SaveSnapshot(snapshot); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	samples, err := store.GetHistory("br0", base.Add(-time.Minute))
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	if samples[0].RxBytes != 1000 || samples[0].RxMbps != 10 {
		t.Errorf("sample = %+v", samples[0])
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
}

func TestPrune(t *testing.T) {
	store := NewSampleStorage(openTestDB(t))
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		snapshot := &model.MetricsSnapshot{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Interfaces: []model.InterfaceStats{
				{Interface: "br0", Timestamp: base.Add(time.Duration(i) * time.Hour)},
			},
		}
		if err := store.SaveSnapshot(snapshot); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	removed, err := store.Prune(base.Add(3 * time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("pruned %d rows, want 3", removed)
	}

	count, _ := store.Count()
	if count != 2 {
		t.Errorf("Count after prune = %d, want 2", count)
	}
}

func TestGetHistoryUnknownKey(t *testing.T) {
	store := NewSampleStorage(openTestDB(t))

	samples, err := store.GetHistory("wg0", time.Time{})
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(samples) != 0 {
		t.Errorf("unknown key returned %d samples", len(samples))
	}
}
