package pipeline

import (
	"fmt"
	"sync"
	"time"

	"signalengine/src/model"
)

// DuplicateFilter rejects alerts that are semantically identical to one
// already accepted inside the replay window, and alerts whose declared
// timestamp is too old to be a live event. State is process-local; a
// restart empties the window, which only risks admitting one replay per
// fingerprint and keeps the hot path free of DB reads.
type DuplicateFilter struct {
	mu   sync.Mutex
	seen map[string]time.Time

	window      time.Duration
	maxAge      time.Duration
	granularity time.Duration
	now         func() time.Time
}

func NewDuplicateFilter(cfg Config) *DuplicateFilter {
	return &DuplicateFilter{
		seen:        make(map[string]time.Time),
		window:      cfg.ReplayWindow,
		maxAge:      cfg.ReplayMaxAge,
		granularity: cfg.FingerprintGranularity,
		now:         time.Now,
	}
}

// Check inspects a normalized signal and either admits it (recording its
// fingerprint) or returns ErrReplayTooOld / ErrDuplicateSignal. The age
// check runs first: a stale capture is rejected even when its fingerprint
// is novel.
func (f *DuplicateFilter) Check(sig *model.Signal) error {
	now := f.now()

	if f.maxAge > 0 && now.Sub(sig.ClientTime) > f.maxAge {
		return fmt.Errorf("%w: declared %s", ErrReplayTooOld, sig.ClientTime.Format(time.RFC3339))
	}

	key := f.fingerprint(sig)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.prune(now)

	if acceptedAt, ok := f.seen[key]; ok && now.Sub(acceptedAt) <= f.window {
		return ErrDuplicateSignal
	}

	f.seen[key] = now
	return nil
}

func (f *DuplicateFilter) fingerprint(sig *model.Signal) string {
	rounded := sig.ClientTime.Truncate(f.granularity).Unix()
	return fmt.Sprintf("%d|%s|%s|%.8f|%.8f|%d",
		sig.StrategyID, sig.Direction, sig.Kind, sig.Price, sig.Quantity, rounded)
}

// prune drops fingerprints that fell out of the replay window. Called with
// the mutex held.
func (f *DuplicateFilter) prune(now time.Time) {
	for key, acceptedAt := range f.seen {
		if now.Sub(acceptedAt) > f.window {
			delete(f.seen, key)
		}
	}
}
