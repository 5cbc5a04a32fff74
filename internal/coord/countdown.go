package coord

import (
	"context"
	"time"

	"github.com/abelbrown/skydeck/internal/derive"
	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/otel"
)

func (c *Coordinator) watchCountdown(ctx context.Context) {
	ticker := time.NewTicker(c.opts.CountdownTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckCountdown(c.opts.Now())
		}
	}
}

// CheckCountdown evaluates the first upcoming launch against now. The first
// time a given launch instant is reached, the upcoming-launches feed is
// refreshed once. If the feed is mid-fetch at that moment the latch is
// re-armed and the next tick tries again.
func (c *Coordinator) CheckCountdown(now time.Time) derive.Remaining {
	s, ok := c.State(model.FeedLaunchesUpcoming)
	if !ok {
		return derive.Remaining{Expired: true}
	}
	launch, ok := derive.FirstLaunch(s.Data)
	if !ok {
		return derive.Remaining{Expired: true}
	}
	return c.latch.Observe(launch.Time, now)
}

func (c *Coordinator) onLaunchExpired(target time.Time) {
	started := c.Refresh(model.FeedLaunchesUpcoming)
	if !started {
		c.latch.Reset(target)
	}
	logging.Info("launch countdown expired", "target", target.Format(time.RFC3339), "refresh", started)
	c.opts.Events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindCountdownExpire,
		Comp:  "coord",
		Feed:  model.FeedLaunchesUpcoming,
		Extra: map[string]any{"target": target.UTC().Format(time.RFC3339), "refresh": started},
	})
}
