package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/live-timetable-api/pkg/jobs"
)

// ChangeKind names the layer a mutation touched.
type ChangeKind string

const (
	ChangeOverride     ChangeKind = "override"
	ChangeWeekReset    ChangeKind = "week_reset"
	ChangeAbsence      ChangeKind = "absence"
	ChangeMakeup       ChangeKind = "makeup"
	ChangeSpecialEvent ChangeKind = "special_event"
)

// ChangeChannel is the pub/sub channel carrying change messages.
const ChangeChannel = "timetable:changes"

const changeJobType = "timetable.change"

// Change tells subscribers that a schedule week must be re-fetched. An empty WeekStart means every
// week of the schedule.
type Change struct {
	ScheduleID string     `json:"schedule_id"`
	WeekStart  string     `json:"week_start,omitempty"`
	Kind       ChangeKind `json:"kind"`
	ResourceID string     `json:"resource_id,omitempty"`
	At         time.Time  `json:"at"`
}

type changeBroker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) <-chan []byte
}

type bundleInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// ChangeNotifierConfig sizes the delivery queue.
type ChangeNotifierConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// ChangeNotifier delivers change notifications in the background: it drops the cached bundles of the
// schedule and then publishes the change.
type ChangeNotifier struct {
	queue   *jobs.Queue
	cache   bundleInvalidator
	broker  changeBroker
	metrics *MetricsService
	logger  *zap.Logger
}

// NewChangeNotifier builds the notifier and its queue. Call Start before Notify.
func NewChangeNotifier(cache bundleInvalidator, broker changeBroker, metrics *MetricsService, logger *zap.Logger, cfg ChangeNotifierConfig) *ChangeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &ChangeNotifier{cache: cache, broker: broker, metrics: metrics, logger: logger}
	n.queue = jobs.NewQueue("timetable-changes", n.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return n
}

// Start launches the delivery workers.
func (n *ChangeNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the workers.
func (n *ChangeNotifier) Stop() {
	n.queue.Stop()
}

// Notify drops the schedule's cached bundles right away, so the mutating caller's next read is
// fresh, and schedules the rest of the delivery. The queued job clears the cache again before
// publishing, covering bundles cached by reads that were in flight during the mutation. Changes for
// the same schedule week that arrive while one is still queued are folded into it. If the queue
// refuses the job the change is delivered inline.
func (n *ChangeNotifier) Notify(ctx context.Context, change Change) {
	if n == nil {
		return
	}
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}
	if n.cache != nil {
		if err := n.cache.Invalidate(ctx, BundlePattern(change.ScheduleID)); err != nil {
			n.logger.Warn("bundle invalidation failed, leaving it to the queued delivery", zap.String("schedule_id", change.ScheduleID), zap.Error(err))
		}
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    changeJobType,
		Key:     change.ScheduleID + ":" + change.WeekStart,
		Payload: change,
	}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("change queue unavailable, delivering inline", zap.String("schedule_id", change.ScheduleID), zap.Error(err))
		if err := n.deliver(ctx, change); err != nil {
			n.logger.Error("change delivery failed", zap.String("schedule_id", change.ScheduleID), zap.Error(err))
		}
	}
}

// Subscribe streams decoded changes until ctx is done.
func (n *ChangeNotifier) Subscribe(ctx context.Context) <-chan Change {
	out := make(chan Change, 16)
	if n.broker == nil {
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out
	}
	raw := n.broker.Subscribe(ctx, ChangeChannel)
	go func() {
		defer close(out)
		for payload := range raw {
			var change Change
			if err := json.Unmarshal(payload, &change); err != nil {
				n.logger.Warn("discarding malformed change message", zap.Error(err))
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (n *ChangeNotifier) handle(ctx context.Context, job jobs.Job) error {
	change, ok := job.Payload.(Change)
	if !ok {
		n.metrics.RecordNotification("invalid")
		n.logger.Error("unexpected change payload", zap.String("job_id", job.ID))
		return nil
	}
	return n.deliver(ctx, change)
}

func (n *ChangeNotifier) deliver(ctx context.Context, change Change) error {
	if n.cache != nil {
		if err := n.cache.Invalidate(ctx, BundlePattern(change.ScheduleID)); err != nil {
			n.metrics.RecordNotification("failed")
			return fmt.Errorf("invalidate bundle cache: %w", err)
		}
	}
	if n.broker != nil {
		if err := n.broker.Publish(ctx, ChangeChannel, change); err != nil {
			n.metrics.RecordNotification("failed")
			return fmt.Errorf("publish change: %w", err)
		}
	}
	n.metrics.RecordNotification("delivered")
	return nil
}
