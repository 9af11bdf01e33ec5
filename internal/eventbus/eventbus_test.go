package eventbus

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(eventType, source string, priority int) *Envelope {
	return &Envelope{
		ID:        fmt.Sprintf("ev-%s-%d", eventType, time.Now().UnixNano()),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Priority:  priority,
		Payload:   []byte(`{}`),
	}
}

type collector struct {
	mu  sync.Mutex
	evs []*Envelope
}

func (c *collector) handle(ctx context.Context, ev *Envelope) {
	c.mu.Lock()
	c.evs = append(c.evs, ev)
	c.mu.Unlock()
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.evs)
}

func TestMemoryBusDelivery(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var c collector
	_, err := bus.Subscribe(ctx, Filter{}, c.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, envelope(EventBlocksChanged, "editor", 5)))
	require.NoError(t, bus.Publish(ctx, envelope(EventViewChanged, "editor", 3)))

	require.Eventually(t, func() bool { return c.count() == 2 }, time.Second, 5*time.Millisecond)

	stats := bus.Metrics()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(0), stats.Dropped)
}

func TestMemoryBusTypeFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var c collector
	_, err := bus.Subscribe(ctx, Filter{Types: []string{EventProjectSaved}}, c.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, envelope(EventBlocksChanged, "editor", 5)))
	require.NoError(t, bus.Publish(ctx, envelope(EventProjectSaved, "editor", 5)))
	require.NoError(t, bus.Publish(ctx, envelope(EventLevelChanged, "editor", 3)))

	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 5*time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, EventProjectSaved, c.evs[0].EventType)
}

func TestMemoryBusSourceFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var c collector
	_, err := bus.Subscribe(ctx, Filter{Sources: []string{"editor"}}, c.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, envelope(EventBlocksChanged, "editor", 5)))
	require.NoError(t, bus.Publish(ctx, envelope(EventBlocksChanged, "importer", 5)))

	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 5*time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, "editor", c.evs[0].Source)
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)
	ctx := context.Background()

	var c collector
	sub, err := bus.Subscribe(ctx, Filter{}, c.handle)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, envelope(EventBlocksChanged, "editor", 5)))
	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 5*time.Millisecond)

	sub.Unsubscribe()
	require.NoError(t, bus.Publish(ctx, envelope(EventBlocksChanged, "editor", 5)))

	// Даем циклу доставки время: событие не должно прийти
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, c.count())
}

func TestMemoryBusDropsLowPriorityWhenFull(t *testing.T) {
	// Буфер на одно событие и ни одного потребителя, который бы его разгребал
	bus := NewMemoryBus(1)
	ctx := context.Background()

	// Первое событие занимает буфер (цикл доставки может успеть его снять,
	// поэтому заполняем с запасом низкоприоритетными)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		_ = bus.Publish(ctx, envelope(EventBlocksChanged, "editor", 1))
		if bus.Metrics().Dropped > 0 {
			break
		}
	}

	assert.Greater(t, bus.Metrics().Dropped, uint64(0), "Переполнение дропает события низкого приоритета")
}

func TestMemoryBusHighPriorityWaitsForSpace(t *testing.T) {
	bus := NewMemoryBus(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Высокий приоритет при переполнении ждет места либо отмены контекста;
	// ошибкой может завершиться только по таймауту
	for i := 0; i < 100; i++ {
		if err := bus.Publish(ctx, envelope(EventBlocksChanged, "editor", 9)); err != nil {
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			return
		}
	}
}
