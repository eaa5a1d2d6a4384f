package storage

import (
	"fmt"
	"time"

	"github.com/user/routerpulse/internal/model"
)

// SampleStorage persists snapshot samples for offline review.
type SampleStorage struct {
	db *DB
}

// NewSampleStorage creates a sample storage handler.
func NewSampleStorage(db *DB) *SampleStorage {
	return &SampleStorage{db: db}
}

// SaveSnapshot archives every interface sample of one snapshot plus the
// system gauges, in a single transaction.
func (s *SampleStorage) SaveSnapshot(snapshot *model.MetricsSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin archive tx: %w", err)
	}

	for _, iface := range snapshot.Interfaces {
		ts := iface.Timestamp
		if ts.IsZero() {
			ts = snapshot.Timestamp
		}
		_, err := tx.Exec(
			`INSERT INTO interface_samples (interface, rx_mbps, tx_mbps, rx_bytes, tx_bytes, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			iface.Interface, iface.RxMbps, iface.TxMbps, iface.RxBytes, iface.TxBytes, ts)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert interface sample: %w", err)
		}
	}

	if snapshot.System != nil {
		_, err := tx.Exec(
			`INSERT INTO system_samples (hostname, cpu_percent, mem_percent, load_avg, timestamp)
			 VALUES (?, ?, ?, ?, ?)`,
			snapshot.System.Hostname, snapshot.System.CPUPercent,
			snapshot.System.MemPercent, snapshot.System.LoadAvg, snapshot.Timestamp)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert system sample: %w", err)
		}
	}

	return tx.Commit()
}

// GetHistory returns archived samples for one interface since a given time,
// oldest first.
func (s *SampleStorage) GetHistory(key string, since time.Time) ([]model.InterfaceStats, error) {
	rows, err := s.db.Query(
		`SELECT interface, rx_mbps, tx_mbps, rx_bytes, tx_bytes, timestamp
		 FROM interface_samples
		 WHERE interface = ? AND timestamp >= ?
		 ORDER BY timestamp ASC`, key, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived samples: %w", err)
	}
	defer rows.Close()

	var samples []model.InterfaceStats
	for rows.Next() {
		var sample model.InterfaceStats
		if err := rows.Scan(
			&sample.Interface, &sample.RxMbps, &sample.TxMbps,
			&sample.RxBytes, &sample.TxBytes, &sample.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan archived sample: %w", err)
		}
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}

// Prune deletes archived samples older than the cutoff and returns how many
// rows were removed.
func (s *SampleStorage) Prune(before time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"interface_samples", "system_samples"} {
		result, err := s.db.Exec(
			fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table), before)
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// Count returns the number of archived interface samples.
func (s *SampleStorage) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM interface_samples").Scan(&count)
	return count, err
}
