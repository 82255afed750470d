package drafts

import (
	"context"
	"sync"
	"time"

	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/metrics"
)

// DefaultDelay is how long the editor must be idle before a draft is written
const DefaultDelay = 600 * time.Millisecond

// saveTimeout bounds a single background write
const saveTimeout = 5 * time.Second

// Autosaver debounces draft writes: each snapshot for a draft replaces the previous
// pending one and restarts the delay, so only the last snapshot of a burst of edits
// is written
type Autosaver struct {
	store Store
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingSave
	wg      sync.WaitGroup
}

type pendingSave struct {
	visitor string
	key     string
	data    []byte
	timer   *time.Timer
}

func NewAutosaver(store Store, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Autosaver{
		store:   store,
		delay:   delay,
		pending: make(map[string]*pendingSave),
	}
}

// Schedule queues a snapshot of a draft to be written once the delay elapses
// without another snapshot for the same draft
func (a *Autosaver) Schedule(visitor string, key string, data []byte) {
	id := Key(visitor, key)
	p := &pendingSave{visitor: visitor, key: key, data: data}

	a.mu.Lock()
	defer a.mu.Unlock()
	if prev, ok := a.pending[id]; ok {
		prev.timer.Stop()
	}
	a.pending[id] = p
	p.timer = time.AfterFunc(a.delay, func() {
		a.fire(id, p)
	})
}

// fire writes p if it is still the latest snapshot of its draft
func (a *Autosaver) fire(id string, p *pendingSave) {
	a.mu.Lock()
	if a.pending[id] != p {
		a.mu.Unlock()
		return
	}
	delete(a.pending, id)
	a.wg.Add(1)
	a.mu.Unlock()

	defer a.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	a.save(ctx, p)
}

func (a *Autosaver) save(ctx context.Context, p *pendingSave) error {
	err := a.store.Save(ctx, p.visitor, p.key, p.data)
	metrics.RecordDraftSave(err)
	if err != nil {
		logging.With("drafts").Error().Err(err).Str("key", p.key).Msg("failed to autosave draft")
	}
	return err
}

// Load returns the latest snapshot of a draft, whether or not it has been written yet
func (a *Autosaver) Load(ctx context.Context, visitor string, key string) ([]byte, bool, error) {
	a.mu.Lock()
	p, ok := a.pending[Key(visitor, key)]
	a.mu.Unlock()
	if ok {
		return p.data, true, nil
	}
	return a.store.Load(ctx, visitor, key)
}

// Discard drops any pending snapshot of a draft and deletes the stored one
func (a *Autosaver) Discard(ctx context.Context, visitor string, key string) error {
	id := Key(visitor, key)
	a.mu.Lock()
	if p, ok := a.pending[id]; ok {
		p.timer.Stop()
		delete(a.pending, id)
	}
	a.mu.Unlock()
	return a.store.Delete(ctx, visitor, key)
}

// Flush immediately writes every pending snapshot and waits for in-flight writes to
// finish. It returns the first error encountered.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	pending := a.pending
	a.pending = make(map[string]*pendingSave)
	for _, p := range pending {
		p.timer.Stop()
	}
	a.mu.Unlock()

	var firstErr error
	for _, p := range pending {
		if err := a.save(ctx, p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.wg.Wait()
	return firstErr
}
