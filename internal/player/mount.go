package player

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/radioconexion/site/internal/logging"
	"github.com/radioconexion/site/internal/metadata"
	"github.com/radioconexion/site/internal/metrics"
)

// Mount is one browser's attachment to the player: while it is mounted, the player
// receives metadata on that browser's behalf and the displayed listener count drifts
type Mount struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Mount attaches a UI to the player. It re-syncs the playing flag from the element
// (playback may have started or stopped while nothing was mounted), opens one
// metadata subscription and starts the listener simulation. Both stop when Unmount is
// called or ctx ends; the element is never touched.
func (p *Player) Mount(ctx context.Context) *Mount {
	p.syncPlaying()
	metrics.PlayerMounts.Inc()

	ctx, cancel := context.WithCancel(ctx)
	m := &Mount{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	var wg errgroup.Group
	wg.Go(func() error {
		return p.subscribe(ctx)
	})
	wg.Go(func() error {
		p.simulateListeners(ctx)
		return nil
	})
	go func() {
		if err := wg.Wait(); err != nil {
			logging.With("player").Warn().Err(err).Msg("metadata subscription ended")
		}
		metrics.PlayerMounts.Dec()
		close(m.done)
	}()
	return m
}

// Unmount stops the mount's metadata subscription and listener simulation, and waits
// for both to finish
func (m *Mount) Unmount() {
	m.cancel()
	<-m.done
}

// subscribe runs a single metadata subscription. When the channel closes or fails it
// is not reopened; the last values received remain in effect.
func (p *Player) subscribe(ctx context.Context) error {
	err := metadata.Subscribe(ctx, p.metadataClient, p.metadataURL, func(m metadata.Message) {
		p.ApplyMetadata(m)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Player) simulateListeners(ctx context.Context) {
	ticker := time.NewTicker(p.listenerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.AdjustListeners(p.listenerDelta())
		}
	}
}
