// Package aggregate reduces historical per-entity samples into bandwidth
// totals for the device and interface tables.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/user/routerpulse/internal/model"
	"github.com/user/routerpulse/internal/timerange"
)

// ErrStale marks a result that arrived after a newer request was issued.
// Callers discard it without surfacing anything.
var ErrStale = errors.New("superseded aggregation result")

const bytesPerMB = 1 << 20

// Querier is the historical-query collaborator.
type Querier interface {
	HistoricalQuery(ctx context.Context, keys []string, rng timerange.Spec, interval timerange.Interval) (map[string][]model.SamplePoint, error)
}

// Reduce sums the raw byte samples of one entity and converts to MB. Bytes
// are summed before conversion; summing already-computed Mbps values would
// double-count unevenly sampled intervals.
func Reduce(samples []model.SamplePoint) model.BandwidthAggregate {
	var rxBytes, txBytes uint64
	for _, s := range samples {
		rxBytes += s.RxBytes
		txBytes += s.TxBytes
	}
	return model.BandwidthAggregate{
		RxTotalMB: float64(rxBytes) / bytesPerMB,
		TxTotalMB: float64(txBytes) / bytesPerMB,
	}
}

// FetchWindow fetches one range in a single batched call and reduces it per
// entity. Every requested key gets an entry; keys without samples get a zero
// aggregate.
func FetchWindow(ctx context.Context, q Querier, rng timerange.Spec, keys []string) (map[string]model.BandwidthAggregate, error) {
	interval := timerange.SelectInterval(rng)
	samples, err := q.HistoricalQuery(ctx, keys, rng, interval)
	if err != nil {
		return nil, fmt.Errorf("bandwidth fetch for range %s failed: %w", rng, err)
	}

	result := make(map[string]model.BandwidthAggregate, len(keys))
	for _, key := range keys {
		result[key] = Reduce(samples[key])
	}
	return result, nil
}

// Aggregator owns the bandwidth aggregates for one view. Refresh requests
// can complete out of order; only the most recently issued request is
// allowed to publish, so a slow response never overwrites a newer one.
type Aggregator struct {
	querier Querier
	gen     atomic.Uint64

	mu       sync.RWMutex
	results  map[string]model.BandwidthAggregate
	rng      timerange.Spec
	interval timerange.Interval
}

// NewAggregator creates an aggregator backed by the given querier.
func NewAggregator(q Querier) *Aggregator {
	return &Aggregator{
		querier: q,
		results: make(map[string]model.BandwidthAggregate),
	}
}

// Refresh issues a new aggregation request for the given range. The result
// is published atomically as a whole; if a newer Refresh was issued while
// this one was in flight, the result is discarded and ErrStale returned.
// A transport failure leaves the previously published results untouched.
func (a *Aggregator) Refresh(ctx context.Context, rng timerange.Spec, keys []string) (map[string]model.BandwidthAggregate, error) {
	gen := a.gen.Add(1)
	interval := timerange.SelectInterval(rng)

	result, err := FetchWindow(ctx, a.querier, rng, keys)
	if err != nil {
		if gen != a.gen.Load() {
			return nil, ErrStale
		}
		return nil, err
	}

	a.mu.Lock()
	if gen != a.gen.Load() {
		a.mu.Unlock()
		return nil, ErrStale
	}
	a.results = result
	a.rng = rng
	a.interval = interval
	a.mu.Unlock()

	return copyAggregates(result), nil
}

// Results returns the last published aggregates and the range/interval they
// were computed for.
func (a *Aggregator) Results() (map[string]model.BandwidthAggregate, timerange.Spec, timerange.Interval) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyAggregates(a.results), a.rng, a.interval
}

func copyAggregates(in map[string]model.BandwidthAggregate) map[string]model.BandwidthAggregate {
	out := make(map[string]model.BandwidthAggregate, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
