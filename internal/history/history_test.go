package history

import (
	"testing"
	"time"

	"github.com/user/routerpulse/internal/model"
)

func sampleAt(key string, t time.Time) model.InterfaceStats {
	return model.InterfaceStats{
		Interface: key,
		RxMbps:    1.5,
		TxMbps:    0.5,
		Timestamp: t,
	}
}

func TestAppendBounded(t *testing.T) {
	store := NewStore(60)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		store.Append(sampleAt("br0", base.Add(time.Duration(i)*time.Second)))
		if got := store.Len("br0"); got > 60 {
			t.Fatalf("after %d inserts buffer has %d samples, capacity is 60", i+1, got)
		}
	}

	if got := store.Len("br0"); got != 60 {
		t.Fatalf("Len = %d, want 60", got)
	}
}

func TestEvictionOrder(t *testing.T) {
	store := NewStore(60)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// t=0..65, one sample per second, 66 total.
	for i := 0; i <= 65; i++ {
		store.Append(sampleAt("br0", base.Add(time.Duration(i)*time.Second)))
	}

	buf := store.Get("br0")
	if len(buf) != 60 {
		t.Fatalf("len = %d, want 60", len(buf))
	}
	if want := base.Add(6 * time.Second); !buf[0].Timestamp.Equal(want) {
		t.Errorf("first sample at %v, want %v (first 6 evicted)", buf[0].Timestamp, want)
	}
	if want := base.Add(65 * time.Second); !buf[len(buf)-1].Timestamp.Equal(want) {
		t.Errorf("last sample at %v, want %v", buf[len(buf)-1].Timestamp, want)
	}
	for i := 1; i < len(buf); i++ {
		if !buf[i].Timestamp.After(buf[i-1].Timestamp) {
			t.Fatalf("samples out of arrival order at index %d", i)
		}
	}
}

func TestKeysIndependent(t *testing.T) {
	store := NewStore(3)
	now := time.Now()

	store.Append(sampleAt("br0", now))
	store.Append(sampleAt("eth0", now))
	store.Append(sampleAt("br0", now.Add(time.Second)))

	if store.Len("br0") != 2 || store.Len("eth0") != 1 {
		t.Errorf("per-key lengths = %d/%d, want 2/1", store.Len("br0"), store.Len("eth0"))
	}
	if store.Len("wg0") != 0 {
		t.Errorf("unknown key has %d samples", store.Len("wg0"))
	}
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore(10)
	store.Append(sampleAt("br0", time.Now()))

	buf := store.Get("br0")
	buf[0].Interface = "mutated"

	if got, _ := store.Latest("br0"); got.Interface != "br0" {
		t.Errorf("store mutated through Get result")
	}
}

func TestAppendAllAtomic(t *testing.T) {
	store := NewStore(60)
	now := time.Now()

	store.AppendAll([]model.InterfaceStats{
		sampleAt("br0", now),
		sampleAt("eth0", now),
		sampleAt("wg0", now),
	})

	for _, key := range []string{"br0", "eth0", "wg0"} {
		if store.Len(key) != 1 {
			t.Errorf("key %s has %d samples, want 1", key, store.Len(key))
		}
	}
}

func TestClear(t *testing.T) {
	store := NewStore(10)
	store.Append(sampleAt("br0", time.Now()))
	store.Clear()

	if store.Len("br0") != 0 {
		t.Errorf("buffer survived Clear")
	}
	if len(store.Keys()) != 0 {
		t.Errorf("keys survived Clear")
	}
}

func TestLatest(t *testing.T) {
	store := NewStore(10)
	if _, ok := store.Latest("br0"); ok {
		t.Fatal("Latest on empty store reported a sample")
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.Append(sampleAt("br0", base))
	store.Append(sampleAt("br0", base.Add(time.Second)))

	got, ok := store.Latest("br0")
	if !ok {
		t.Fatal("Latest reported no sample")
	}
	if !got.Timestamp.Equal(base.Add(time.Second)) {
		t.Errorf("Latest returned %v, want newest sample", got.Timestamp)
	}
}
