// Package daemon wires the telemetry core together and owns its lifecycle:
// the stream session, the polling jobs and the local dashboard API.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/user/routerpulse/internal/aggregate"
	"github.com/user/routerpulse/internal/backend"
	"github.com/user/routerpulse/internal/history"
	"github.com/user/routerpulse/internal/inventory"
	"github.com/user/routerpulse/internal/model"
	"github.com/user/routerpulse/internal/storage"
	"github.com/user/routerpulse/internal/stream"
	"github.com/user/routerpulse/internal/timerange"
	"github.com/user/routerpulse/internal/util"
)

// BandwidthWindows are the named windows kept refreshed for the dashboard
// summary cards.
var BandwidthWindows = []string{"5m", "30m", "1h", "1d"}

// Daemon owns the long-lived telemetry state.
type Daemon struct {
	config    *util.Config
	backend   *backend.Client
	history   *history.Store
	stream    *stream.Client
	inventory *inventory.Cache
	windows   map[string]*aggregate.Aggregator
	scheduler *Scheduler
	db        *storage.DB
	archive   *storage.SampleStorage

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	running   bool
	startTime time.Time
}

// New creates a daemon from configuration.
func New(cfg *util.Config) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	client := backend.NewClient(cfg.RouterURL, cfg.APIToken)
	store := history.NewStore(cfg.HistoryPoints)

	d := &Daemon{
		config:    cfg,
		backend:   client,
		history:   store,
		inventory: inventory.NewCache(client),
		windows:   make(map[string]*aggregate.Aggregator),
		ctx:       ctx,
		cancel:    cancel,
	}

	for _, w := range BandwidthWindows {
		d.windows[w] = aggregate.NewAggregator(client)
	}

	d.stream = stream.NewClient(stream.Config{
		RouterURL:  cfg.RouterURL,
		StreamPath: cfg.StreamPath,
		Token:      cfg.APIToken,
		MinBackoff: cfg.ReconnectMinDelay,
		MaxBackoff: cfg.ReconnectMaxDelay,
	}, store)

	if cfg.ArchiveEnabled {
		db, err := storage.Open(cfg.DataDir)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		d.db = db
		d.archive = storage.NewSampleStorage(db)
		d.stream.OnSnapshot(func(snapshot *model.MetricsSnapshot) {
			if err := d.archive.SaveSnapshot(snapshot); err != nil {
				util.Warn("Failed to archive snapshot: %v", err)
			}
		})
	}

	d.scheduler = NewScheduler(ctx)
	d.registerJobs()

	return d, nil
}

func (d *Daemon) registerJobs() {
	d.scheduler.AddJob(&Job{
		Name:     "inventory-refresh",
		Interval: d.config.InventoryInterval,
		Run:      d.inventory.Refresh,
	})

	d.scheduler.AddJob(&Job{
		Name:     "bandwidth-windows",
		Interval: d.config.BandwidthInterval,
		Run:      d.refreshWindows,
	})

	if d.archive != nil {
		d.scheduler.AddJob(&Job{
			Name:     "archive-prune",
			Interval: d.config.PruneInterval,
			Run:      d.pruneArchive,
		})
	}
}

// refreshWindows refreshes every named bandwidth window in one pass. A
// superseded result is not an error; it just means a newer refresh won.
func (d *Daemon) refreshWindows(ctx context.Context) error {
	keys := d.inventory.Keys()
	if len(keys) == 0 {
		return nil
	}

	var firstErr error
	for name, agg := range d.windows {
		rng, err := timerange.Parse(name)
		if err != nil {
			continue
		}
		if _, err := agg.Refresh(ctx, rng, keys); err != nil {
			if err == aggregate.ErrStale {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (d *Daemon) pruneArchive(ctx context.Context) error {
	cutoff := time.Now().Add(-d.config.ArchiveRetention)
	removed, err := d.archive.Prune(cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		util.Debug("Pruned %d archived samples", removed)
	}
	return nil
}

// Start launches the stream session and the scheduler.
func (d *Daemon) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	util.Info("Daemon starting...")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.stream.Run(d.ctx)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.scheduler.Run()
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.handleSignals()
	}()

	util.Info("Daemon started with PID %d", os.Getpid())
	return nil
}

// Wait blocks until all daemon goroutines have finished.
func (d *Daemon) Wait() {
	d.wg.Wait()
}

// Stop tears the session down: the stream transitions to closed, history is
// cleared and all jobs stop.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	util.Info("Daemon stopping...")
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		util.Info("Daemon stopped gracefully")
	case <-time.After(30 * time.Second):
		util.Warn("Daemon stop timed out")
	}

	if d.db != nil {
		d.db.Close()
	}
	return nil
}

func (d *Daemon) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		util.Info("Received signal: %v", sig)
		d.Stop()
	case <-d.ctx.Done():
	}
}

// Status is the daemon state exposed through the local API.
type Status struct {
	Running          bool        `json:"running"`
	PID              int         `json:"pid"`
	StartTime        time.Time   `json:"start_time"`
	Uptime           string      `json:"uptime"`
	Stream           string      `json:"stream"`
	DeviceKeys       int         `json:"device_keys"`
	InventoryUpdated time.Time   `json:"inventory_updated"`
	InventoryError   string      `json:"inventory_error,omitempty"`
	ArchivedSamples  int         `json:"archived_samples,omitempty"`
	Jobs             []JobStatus `json:"jobs"`
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	st := Status{
		Running:          d.running,
		PID:              os.Getpid(),
		StartTime:        d.startTime,
		Uptime:           time.Since(d.startTime).Round(time.Second).String(),
		Stream:           d.stream.Status().String(),
		DeviceKeys:       len(d.inventory.Keys()),
		InventoryUpdated: d.inventory.UpdatedAt(),
		Jobs:             d.scheduler.JobStatuses(),
	}
	if err := d.inventory.LastErr(); err != nil {
		st.InventoryError = err.Error()
	}
	if d.archive != nil {
		if n, err := d.archive.Count(); err == nil {
			st.ArchivedSamples = n
		}
	}
	return st
}

// History returns the rolling history store.
func (d *Daemon) History() *history.Store { return d.history }

// Stream returns the stream client.
func (d *Daemon) Stream() *stream.Client { return d.stream }

// Inventory returns the inventory cache.
func (d *Daemon) Inventory() *inventory.Cache { return d.inventory }

// Backend returns the router API client.
func (d *Daemon) Backend() *backend.Client { return d.backend }

// Window returns the aggregator of one named bandwidth window, or nil.
func (d *Daemon) Window(name string) *aggregate.Aggregator { return d.windows[name] }

// Archive returns the telemetry archive, or nil when archiving is disabled.
func (d *Daemon) Archive() *storage.SampleStorage { return d.archive }

// Config returns the configuration.
func (d *Daemon) Config() *util.Config { return d.config }
