package orchestrator

import (
	"context"
	"time"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/internal/pkg/metrics"
)

const (
	defaultEffectQueueSize = 1024
	defaultEffectTimeout   = 10 * time.Second
	effectDrainTimeout     = 5 * time.Second
)

// effect is a side effect of a committed mutation. Exactly one field is set.
type effect struct {
	event   *core.Event
	archive *model.Mission
}

func (e effect) kind() string {
	if e.archive != nil {
		return "archive"
	}
	return "event"
}

// WithEffectQueue sets how many pending notifications and archive uploads are buffered
// before new ones are dropped.
func WithEffectQueue(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.effectQueueSize = size
		}
	}
}

// WithEffectTimeout bounds a single notification or archive upload.
func WithEffectTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.effectTimeout = d
		}
	}
}

func (o *Orchestrator) notify(ev core.Event) {
	if o.notifier == nil {
		return
	}
	o.enqueue(effect{event: &ev})
}

func (o *Orchestrator) archive(m *model.Mission) {
	if o.archiver == nil {
		return
	}
	o.enqueue(effect{archive: m})
}

// enqueue never blocks: a full queue drops the effect.
func (o *Orchestrator) enqueue(e effect) {
	select {
	case o.effects <- e:
	default:
		metrics.EffectsDropped.WithLabelValues(e.kind()).Inc()
		o.logger.Warn("Side effect queue full, dropping", "kind", e.kind())
	}
}

// Start delivers queued notifications and archive uploads in commit order until ctx is done,
// then flushes what is still queued within a short grace period. Call it once.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.logger.Info("Side effect worker started", "queue", cap(o.effects))
	base := context.WithoutCancel(ctx)

	for {
		select {
		case e := <-o.effects:
			o.apply(base, e)
		case <-ctx.Done():
			o.drain(base)
			return nil
		}
	}
}

func (o *Orchestrator) drain(base context.Context) {
	ctx, cancel := context.WithTimeout(base, effectDrainTimeout)
	defer cancel()

	for {
		select {
		case e := <-o.effects:
			o.apply(ctx, e)
		default:
			return
		}
		if ctx.Err() != nil {
			o.logger.Warn("Side effects left undelivered at shutdown", "count", len(o.effects))
			return
		}
	}
}

func (o *Orchestrator) apply(parent context.Context, e effect) {
	ctx, cancel := context.WithTimeout(parent, o.effectTimeout)
	defer cancel()

	switch {
	case e.event != nil:
		if err := o.notifier.Notify(ctx, *e.event); err != nil {
			o.logger.Error(err, "Failed to publish mission event", "missionID", e.event.MissionID, "type", string(e.event.Type))
		}
	case e.archive != nil:
		m := e.archive
		if err := o.archiver.Archive(ctx, m); err != nil {
			metrics.MissionArchives.WithLabelValues("error").Inc()
			o.logger.Error(err, "Failed to archive mission", "missionID", m.ID, "status", string(m.Status))
			return
		}
		metrics.MissionArchives.WithLabelValues("ok").Inc()
		o.logger.Info("Mission archived", "missionID", m.ID, "status", string(m.Status))
	}
}
