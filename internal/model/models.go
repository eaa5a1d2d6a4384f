// Package model defines core data structures for routerpulse.
package model

import "time"

// MetricsSnapshot is one point-in-time bundle pushed by the router over the
// stream channel. Snapshots are immutable once decoded.
type MetricsSnapshot struct {
	System      *SystemInfo      `json:"system"`
	Interfaces  []InterfaceStats `json:"interfaces"`
	Services    []ServiceStatus  `json:"services"`
	DHCPClients []DHCPLease      `json:"dhcp_clients"`
	DNSStats    []DNSMetrics     `json:"dns_stats"`
	Timestamp   time.Time        `json:"timestamp"`
}

// SystemInfo holds router-level gauges from a snapshot.
type SystemInfo struct {
	Hostname      string  `json:"hostname"`
	Version       string  `json:"version"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemPercent    float64 `json:"mem_percent"`
	LoadAvg       float64 `json:"load_avg"`
}

// InterfaceStats is one per-interface sample. Interface is the stable
// entity key (physical or bridge interface name, e.g. "br0").
type InterfaceStats struct {
	Interface string    `json:"interface"`
	RxMbps    float64   `json:"rx_mbps"`
	TxMbps    float64   `json:"tx_mbps"`
	RxBytes   uint64    `json:"rx_bytes"`
	TxBytes   uint64    `json:"tx_bytes"`
	Timestamp time.Time `json:"timestamp"`
}

// ServiceStatus reports whether a router service is running.
type ServiceStatus struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
}

// DHCPLease represents a lease entry from the router's DHCP server.
type DHCPLease struct {
	MAC      string    `json:"mac"`
	IP       string    `json:"ip"`
	Hostname string    `json:"hostname"`
	Static   bool      `json:"static"`
	Expire   time.Time `json:"expire"`
}

// DNSMetrics holds per-resolver DNS statistics from a snapshot.
type DNSMetrics struct {
	Server    string  `json:"server"`
	Queries   uint64  `json:"queries"`
	Blocked   uint64  `json:"blocked"`
	LatencyMs float64 `json:"latency_ms"`
}

// Device is the inventory metadata for one known device, fetched from the
// router's inventory endpoint on its own polling cadence.
type Device struct {
	MAC      string    `json:"mac"`
	IP       string    `json:"ip"`
	Name     string    `json:"name"`
	Network  string    `json:"network"`
	Static   bool      `json:"static"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}

// SamplePoint is one downsampled historical sample returned by the router's
// historical-query endpoint. RxBytes/TxBytes are the bytes transferred inside
// the sample's bucket, not running counters.
type SamplePoint struct {
	Timestamp time.Time `json:"timestamp"`
	RxBytes   uint64    `json:"rx_bytes"`
	TxBytes   uint64    `json:"tx_bytes"`
	RxMbps    float64   `json:"rx_mbps"`
	TxMbps    float64   `json:"tx_mbps"`
}

// BandwidthAggregate is the reduced per-entity total for one time window.
type BandwidthAggregate struct {
	RxTotalMB float64 `json:"rx_total_mb"`
	TxTotalMB float64 `json:"tx_total_mb"`
}
