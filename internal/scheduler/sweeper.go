package scheduler

import (
	"context"
	"time"

	"github.com/artwall/artwall/internal/service"
	"github.com/artwall/artwall/pkg/log"
)

// StorySweeper periodically deletes expired stories and their media.
type StorySweeper struct {
	stories  service.StoryService
	interval time.Duration
}

// NewStorySweeper creates a sweeper that runs at the given interval.
func NewStorySweeper(stories service.StoryService, interval time.Duration) *StorySweeper {
	return &StorySweeper{
		stories:  stories,
		interval: interval,
	}
}

// Run sweeps once immediately, then on every tick until ctx is
// canceled.
func (s *StorySweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			l := log.L()
			l.Info().Msg("story sweeper stopped")
			return
		}
	}
}

func (s *StorySweeper) sweep(ctx context.Context) {
	l := log.L()
	n, err := s.stories.SweepExpired(ctx)
	if err != nil {
		l.Error().Err(err).Msg("story sweep failed")
		return
	}
	if n > 0 {
		l.Info().Int("removed", n).Msg("expired stories removed")
	}
}
