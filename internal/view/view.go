// Package view builds the sortable, filterable device table from inventory
// metadata, live rates and bandwidth aggregates.
package view

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row is one entry of the device/interface table.
type Row struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	IP       string    `json:"ip"`
	MAC      string    `json:"mac"`
	Network  string    `json:"network"`
	Online   bool      `json:"online"`
	Static   bool      `json:"static"`
	RxMB     float64   `json:"rx_mb"`
	TxMB     float64   `json:"tx_mb"`
	RxMbps   float64   `json:"rx_mbps"`
	TxMbps   float64   `json:"tx_mbps"`
	LastSeen time.Time `json:"last_seen"`
}

// Sortable columns.
const (
	ColName     = "name"
	ColIP       = "ip"
	ColMAC      = "mac"
	ColNetwork  = "network"
	ColOnline   = "online"
	ColStatic   = "static"
	ColRxMB     = "rx_mb"
	ColTxMB     = "tx_mb"
	ColRxMbps   = "rx_mbps"
	ColTxMbps   = "tx_mbps"
	ColLastSeen = "last_seen"
)

var numericColumns = map[string]bool{
	ColRxMB:   true,
	ColTxMB:   true,
	ColRxMbps: true,
	ColTxMbps: true,
}

// SortSpec selects the active sort column and direction. The zero value
// means no explicit sort: ascending by numeric IP order.
type SortSpec struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// Select applies the column-selection policy: picking a new column resets
// the direction to that column's default (descending for numeric/bandwidth
// columns, ascending otherwise); re-selecting the active column toggles.
func (s SortSpec) Select(column string) SortSpec {
	if s.Column == column {
		s.Desc = !s.Desc
		return s
	}
	return SortSpec{Column: column, Desc: numericColumns[column]}
}

// Filter holds the free-text query and the categorical filters. The query
// matches if any searched field (name, IP, MAC) contains it, combined with
// AND against every set categorical filter.
type Filter struct {
	Query   string
	Network string
	Status  string // "online" or "offline"
	Type    string // "static" or "dhcp"
}

func (f Filter) matches(r Row) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.IP), q) &&
			!strings.Contains(strings.ToLower(r.MAC), q) {
			return false
		}
	}
	if f.Network != "" && r.Network != f.Network {
		return false
	}
	switch f.Status {
	case "online":
		if !r.Online {
			return false
		}
	case "offline":
		if r.Online {
			return false
		}
	}
	switch f.Type {
	case "static":
		if !r.Static {
			return false
		}
	case "dhcp":
		if r.Static {
			return false
		}
	}
	return true
}

// Project filters and sorts the rows. Sorting is stable so equal keys keep
// their relative order between refreshes.
func Project(rows []Row, f Filter, s SortSpec) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.matches(r) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], s.Column)
		if s.Desc {
			return c > 0
		}
		return c < 0
	})

	return out
}

// compare orders two rows by column under ascending direction. Boolean
// columns order true before false ascending, a fixed convention.
func compare(a, b Row, column string) int {
	switch column {
	case ColName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case ColMAC:
		return strings.Compare(strings.ToLower(a.MAC), strings.ToLower(b.MAC))
	case ColNetwork:
		return strings.Compare(a.Network, b.Network)
	case ColOnline:
		return compareBool(a.Online, b.Online)
	case ColStatic:
		return compareBool(a.Static, b.Static)
	case ColRxMB:
		return compareFloat(a.RxMB, b.RxMB)
	case ColTxMB:
		return compareFloat(a.TxMB, b.TxMB)
	case ColRxMbps:
		return compareFloat(a.RxMbps, b.RxMbps)
	case ColTxMbps:
		return compareFloat(a.TxMbps, b.TxMbps)
	case ColLastSeen:
		return a.LastSeen.Compare(b.LastSeen)
	default:
		// ColIP and the no-sort default.
		return strings.Compare(ipSortKey(a.IP), ipSortKey(b.IP))
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return -1
	}
	return 1
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ipSortKey zero-pads each dotted-quad octet to three digits so
// "10.0.0.9" orders before "10.0.0.10". Non-IPv4 values are compared as-is.
func ipSortKey(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ip
	}
	padded := make([]string, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return ip
		}
		padded[i] = fmt.Sprintf("%03d", n)
	}
	return strings.Join(padded, ".")
}
