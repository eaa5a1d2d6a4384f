package view

import (
	"testing"
	"time"
)

func ips(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.IP
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDefaultSortNumericIPOrder(t *testing.T) {
	rows := []Row{
		{IP: "10.0.0.9"},
		{IP: "10.0.0.10"},
		{IP: "10.0.0.2"},
	}

	got := ips(Project(rows, Filter{}, SortSpec{}))
	want := []string{"10.0.0.2", "10.0.0.9", "10.0.0.10"}
	if !equalStrings(got, want) {
		t.Errorf("default sort = %v, want %v", got, want)
	}
}

func TestSelectNumericColumnDefaultsDescending(t *testing.T) {
	s := SortSpec{}.Select(ColRxMB)
	if s.Column != ColRxMB || !s.Desc {
		t.Errorf("Select(rx_mb) = %+v, want descending", s)
	}

	// Re-selecting toggles.
	s = s.Select(ColRxMB)
	if s.Desc {
		t.Errorf("re-select did not toggle to ascending")
	}
}

func TestSelectStringColumnDefaultsAscending(t *testing.T) {
	s := SortSpec{Column: ColRxMB, Desc: true}.Select(ColName)
	if s.Column != ColName || s.Desc {
		t.Errorf("Select(name) = %+v, want ascending", s)
	}

	s = s.Select(ColName)
	if !s.Desc {
		t.Errorf("re-select did not toggle to descending")
	}
}

func TestSortByBandwidthDescending(t *testing.T) {
	rows := []Row{
		{IP: "10.0.0.1", RxMB: 5},
		{IP: "10.0.0.2", RxMB: 50},
		{IP: "10.0.0.3", RxMB: 0.5},
	}

	got := ips(Project(rows, Filter{}, SortSpec{}.Select(ColRxMB)))
	want := []string{"10.0.0.2", "10.0.0.1", "10.0.0.3"}
	if !equalStrings(got, want) {
		t.Errorf("rx_mb descending = %v, want %v", got, want)
	}
}

func TestBooleanTrueSortsFirstAscending(t *testing.T) {
	rows := []Row{
		{IP: "10.0.0.1", Online: false},
		{IP: "10.0.0.2", Online: true},
		{IP: "10.0.0.3", Online: false},
	}

	got := Project(rows, Filter{}, SortSpec{Column: ColOnline})
	if !got[0].Online {
		t.Errorf("ascending online sort put %v first, want online device", got[0].IP)
	}
	// Equal keys keep original relative order.
	if got[1].IP != "10.0.0.1" || got[2].IP != "10.0.0.3" {
		t.Errorf("offline devices reordered: %v", ips(got))
	}
}

func TestStableSortPreservesOrderOnTies(t *testing.T) {
	rows := []Row{
		{IP: "10.0.0.1", Name: "a", RxMB: 1},
		{IP: "10.0.0.2", Name: "b", RxMB: 1},
		{IP: "10.0.0.3", Name: "c", RxMB: 1},
		{IP: "10.0.0.4", Name: "d", RxMB: 2},
	}

	got := ips(Project(rows, Filter{}, SortSpec{Column: ColRxMB, Desc: true}))
	want := []string{"10.0.0.4", "10.0.0.1", "10.0.0.2", "10.0.0.3"}
	if !equalStrings(got, want) {
		t.Errorf("tied rows reordered: %v, want %v", got, want)
	}
}

func TestFreeTextMatchesAnyField(t *testing.T) {
	rows := []Row{
		{IP: "10.0.0.1", Name: "laptop", MAC: "aa:bb:cc:00:11:22"},
		{IP: "10.0.0.2", Name: "phone", MAC: "dd:ee:ff:33:44:55"},
		{IP: "192.168.4.7", Name: "printer", MAC: "11:22:33:aa:bb:cc"},
	}

	// Case-insensitive, matches name OR IP OR MAC.
	if got := Project(rows, Filter{Query: "LAPTOP"}, SortSpec{}); len(got) != 1 || got[0].Name != "laptop" {
		t.Errorf("name query matched %v", ips(got))
	}
	if got := Project(rows, Filter{Query: "192.168"}, SortSpec{}); len(got) != 1 || got[0].Name != "printer" {
		t.Errorf("ip query matched %v", ips(got))
	}
	if got := Project(rows, Filter{Query: "dd:ee"}, SortSpec{}); len(got) != 1 || got[0].Name != "phone" {
		t.Errorf("mac query matched %v", ips(got))
	}
	if got := Project(rows, Filter{Query: "toaster"}, SortSpec{}); len(got) != 0 {
		t.Errorf("bogus query matched %v", ips(got))
	}
}

func TestCategoricalFiltersAndWithQuery(t *testing.T) {
	rows := []Row{
		{IP: "10.0.0.1", Name: "cam-garage", Network: "iot", Online: true, Static: true},
		{IP: "10.0.0.2", Name: "cam-porch", Network: "iot", Online: false, Static: false},
		{IP: "10.0.0.3", Name: "cam-attic", Network: "lan", Online: true, Static: false},
	}

	got := Project(rows, Filter{Query: "cam", Network: "iot", Status: "online"}, SortSpec{})
	if len(got) != 1 || got[0].IP != "10.0.0.1" {
		t.Errorf("combined filter matched %v, want only 10.0.0.1", ips(got))
	}

	got = Project(rows, Filter{Type: "dhcp"}, SortSpec{})
	if len(got) != 2 {
		t.Errorf("dhcp filter matched %d rows, want 2", len(got))
	}
}

func TestSortByLastSeen(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{IP: "10.0.0.1", LastSeen: base.Add(2 * time.Hour)},
		{IP: "10.0.0.2", LastSeen: base},
		{IP: "10.0.0.3", LastSeen: base.Add(time.Hour)},
	}

	// Timestamp is not a numeric/bandwidth column: first select is ascending.
	s := SortSpec{}.Select(ColLastSeen)
	if s.Desc {
		t.Fatalf("last_seen first select should be ascending")
	}
	got := ips(Project(rows, Filter{}, s))
	want := []string{"10.0.0.2", "10.0.0.3", "10.0.0.1"}
	if !equalStrings(got, want) {
		t.Errorf("last_seen ascending = %v, want %v", got, want)
	}
}

func TestIPSortKeyFallback(t *testing.T) {
	rows := []Row{
		{IP: "fe80::1"},
		{IP: "10.0.0.1"},
	}
	// Must not panic on non-IPv4 addresses.
	Project(rows, Filter{}, SortSpec{})

	if ipSortKey("10.0.0.9") >= ipSortKey("10.0.0.10") {
		t.Errorf("octet padding broken")
	}
	if ipSortKey("not-an-ip") != "not-an-ip" {
		t.Errorf("non-IP values must compare as-is")
	}
	if ipSortKey("10.0.0.999") != "10.0.0.999" {
		t.Errorf("out-of-range octet must fall back to raw compare")
	}
}
