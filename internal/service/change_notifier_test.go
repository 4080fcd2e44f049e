package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callerKey struct{}

type invalidatorStub struct {
	mu          sync.Mutex
	patterns    []string
	fromCallers int
	err         error
}

func (s *invalidatorStub) Invalidate(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	if ctx.Value(callerKey{}) != nil {
		s.fromCallers++
	}
	return s.err
}

func (s *invalidatorStub) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.patterns...)
}

type brokerStub struct {
	mu        sync.Mutex
	published []interface{}
	stream    chan []byte
}

func (b *brokerStub) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, message)
	return nil
}

func (b *brokerStub) Subscribe(ctx context.Context, channel string) <-chan []byte {
	return b.stream
}

func (b *brokerStub) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

func TestChangeNotifierInvalidatesThenPublishes(t *testing.T) {
	cache := &invalidatorStub{}
	broker := &brokerStub{}
	notifier := NewChangeNotifier(cache, broker, nil, nil, ChangeNotifierConfig{Workers: 1})
	notifier.Start(context.Background())
	defer notifier.Stop()

	notifier.Notify(context.Background(), Change{ScheduleID: "sched-1", WeekStart: "2025-03-10", Kind: ChangeOverride})

	require.Eventually(t, func() bool { return broker.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"timetable:bundle:sched-1:*", "timetable:bundle:sched-1:*"}, cache.seen())
	change := broker.published[0].(Change)
	assert.Equal(t, ChangeOverride, change.Kind)
	assert.False(t, change.At.IsZero())
}

func TestChangeNotifierDeliversInlineWhenNotStarted(t *testing.T) {
	cache := &invalidatorStub{}
	broker := &brokerStub{}
	notifier := NewChangeNotifier(cache, broker, nil, nil, ChangeNotifierConfig{})

	notifier.Notify(context.Background(), Change{ScheduleID: "sched-1", Kind: ChangeSpecialEvent})
	assert.Equal(t, 1, broker.count())
	assert.Len(t, cache.seen(), 2)
}

func TestChangeNotifierInvalidatesBeforeReturning(t *testing.T) {
	cache := &invalidatorStub{}
	broker := &brokerStub{}
	notifier := NewChangeNotifier(cache, broker, nil, nil, ChangeNotifierConfig{Workers: 1})
	notifier.Start(context.Background())
	defer notifier.Stop()

	ctx := context.WithValue(context.Background(), callerKey{}, "override-save")
	notifier.Notify(ctx, Change{ScheduleID: "sched-1", WeekStart: "2025-03-10", Kind: ChangeOverride})

	cache.mu.Lock()
	fromCallers := cache.fromCallers
	cache.mu.Unlock()
	assert.Equal(t, 1, fromCallers)
	require.Eventually(t, func() bool { return broker.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestChangeNotifierPublishesWhenInlineInvalidationFails(t *testing.T) {
	cache := &invalidatorStub{err: errors.New("redis down")}
	broker := &brokerStub{}
	notifier := NewChangeNotifier(cache, broker, nil, nil, ChangeNotifierConfig{Workers: 1})
	notifier.Start(context.Background())
	defer notifier.Stop()

	notifier.Notify(context.Background(), Change{ScheduleID: "sched-1", Kind: ChangeOverride})

	require.Eventually(t, func() bool { return len(cache.seen()) >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, broker.count())
}

func TestChangeNotifierSkipsPublishWhenInvalidationFails(t *testing.T) {
	cache := &invalidatorStub{err: errors.New("redis down")}
	broker := &brokerStub{}
	notifier := NewChangeNotifier(cache, broker, nil, nil, ChangeNotifierConfig{})

	err := notifier.deliver(context.Background(), Change{ScheduleID: "sched-1"})
	require.Error(t, err)
	assert.Equal(t, 0, broker.count())
}

func TestChangeNotifierSubscribeDecodes(t *testing.T) {
	stream := make(chan []byte, 2)
	notifier := NewChangeNotifier(nil, &brokerStub{stream: stream}, nil, nil, ChangeNotifierConfig{})

	payload, err := json.Marshal(Change{ScheduleID: "sched-1", Kind: ChangeMakeup})
	require.NoError(t, err)
	stream <- []byte("not json")
	stream <- payload
	close(stream)

	changes := notifier.Subscribe(context.Background())
	got, ok := <-changes
	require.True(t, ok)
	assert.Equal(t, ChangeMakeup, got.Kind)
	_, ok = <-changes
	assert.False(t, ok)
}
