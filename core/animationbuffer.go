package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/signspell/core/animation"
	"go.opentelemetry.io/otel/metric"
)

// CapacityPolicy decides what happens to units that do not fit into a full
// playback queue.
type CapacityPolicy int

const (
	// CapacityDropNewest drops an incoming batch that does not fit.
	CapacityDropNewest CapacityPolicy = iota
	// CapacityDropOldest evicts the oldest queued units to make room for an
	// incoming batch. A batch larger than the capacity is dropped.
	CapacityDropOldest
	// CapacityUnbounded never drops, the queue grows with the backlog.
	CapacityUnbounded
)

func (p CapacityPolicy) String() string {
	switch p {
	case CapacityDropNewest:
		return "drop-newest"
	case CapacityDropOldest:
		return "drop-oldest"
	case CapacityUnbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("CapacityPolicy(%d)", int(p))
	}
}

// ParseCapacityPolicy parses the names returned by [CapacityPolicy.String].
func ParseCapacityPolicy(name string) (CapacityPolicy, error) {
	switch name {
	case "drop-newest", "":
		return CapacityDropNewest, nil
	case "drop-oldest":
		return CapacityDropOldest, nil
	case "unbounded":
		return CapacityUnbounded, nil
	}
	return CapacityDropNewest, fmt.Errorf("unknown capacity policy %q", name)
}

const (
	DefaultCapacity       = 4096
	DefaultCapacityPolicy = CapacityDropNewest

	minRingSize = 16
)

type appendResult struct {
	appended []animation.Unit
	dropped  []animation.Unit
	skipped  []error

	evicted int
}

// animationBuffer is a FIFO ring buffer. A whole batch is applied in a single
// critical section so a concurrent dequeue sees all of it or none of it.
type animationBuffer struct {
	mu sync.Mutex

	units []animation.Unit
	head  int
	size  int

	capacity int
	policy   CapacityPolicy

	unitsAppended metric.Int64Counter
	unitsDropped  metric.Int64Counter
	queueDepth    metric.Int64UpDownCounter
}

func newAnimationBuffer(capacity int, policy CapacityPolicy) *animationBuffer {
	if capacity <= 0 {
		policy = CapacityUnbounded
	}

	b := &animationBuffer{capacity: capacity, policy: policy}

	var err error
	if b.unitsAppended, err = meter.Int64Counter("signspell.animation.units_appended",
		metric.WithDescription("Animation units appended to the playback queue")); err != nil {
		logger.Warn("failed to create units appended counter", "error", err)
	}
	if b.unitsDropped, err = meter.Int64Counter("signspell.animation.units_dropped",
		metric.WithDescription("Animation units dropped by the capacity policy")); err != nil {
		logger.Warn("failed to create units dropped counter", "error", err)
	}
	if b.queueDepth, err = meter.Int64UpDownCounter("signspell.animation.queue_depth",
		metric.WithDescription("Animation units waiting for playback")); err != nil {
		logger.Warn("failed to create queue depth counter", "error", err)
	}

	return b
}

// Append enqueues the valid units of batch in order. Malformed units are
// skipped and reported, they never fail the whole batch.
func (b *animationBuffer) Append(batch []animation.Unit) appendResult {
	var result appendResult
	if len(batch) == 0 {
		return result
	}

	var copied []animation.Unit
	if err := copier.CopyWithOption(&copied, &batch, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("failed to copy animation batch, appending shared units", "error", err)
		copied = batch
	}

	valid := make([]animation.Unit, 0, len(copied))
	for _, unit := range copied {
		if err := unit.Validate(); err != nil {
			result.skipped = append(result.skipped, err)
			continue
		}
		valid = append(valid, unit)
	}

	// bounded policies take or reject the batch as a whole
	b.mu.Lock()
	switch b.policy {
	case CapacityDropNewest:
		if len(valid) > b.capacity-b.size {
			result.dropped, valid = valid, nil
		}
	case CapacityDropOldest:
		if len(valid) > b.capacity {
			result.dropped, valid = valid, nil
			break
		}
		for b.size+len(valid) > b.capacity {
			unit, _ := b.popLocked()
			result.dropped = append(result.dropped, unit)
			result.evicted++
		}
	}
	for _, unit := range valid {
		b.pushLocked(unit)
	}
	b.mu.Unlock()

	result.appended = valid
	b.record(result)

	for _, err := range result.skipped {
		logger.Warn("skipped malformed animation unit", "error", err)
	}
	if len(result.dropped) > 0 {
		logger.Warn("animation queue full, dropped units",
			"policy", b.policy.String(),
			"capacity", b.capacity,
			"dropped", len(result.dropped))
	}

	return result
}

// Dequeue removes the oldest unit. It never waits for a future append.
func (b *animationBuffer) Dequeue() (animation.Unit, bool) {
	unit, _, ok := b.take()
	return unit, ok
}

// take is Dequeue that also reports the queue length left right after the
// removal.
func (b *animationBuffer) take() (animation.Unit, int, bool) {
	b.mu.Lock()
	unit, ok := b.popLocked()
	remaining := b.size
	b.mu.Unlock()

	if ok && b.queueDepth != nil {
		b.queueDepth.Add(context.Background(), -1)
	}
	return unit, remaining, ok
}

func (b *animationBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *animationBuffer) record(result appendResult) {
	ctx := context.Background()
	if b.unitsAppended != nil && len(result.appended) > 0 {
		b.unitsAppended.Add(ctx, int64(len(result.appended)))
	}
	if b.unitsDropped != nil && len(result.dropped) > 0 {
		b.unitsDropped.Add(ctx, int64(len(result.dropped)))
	}
	if delta := int64(len(result.appended) - result.evicted); b.queueDepth != nil && delta != 0 {
		b.queueDepth.Add(ctx, delta)
	}
}

// pushLocked must be called with b.mu held.
func (b *animationBuffer) pushLocked(unit animation.Unit) {
	if b.size == len(b.units) {
		b.growLocked()
	}
	b.units[(b.head+b.size)%len(b.units)] = unit
	b.size++
}

// popLocked must be called with b.mu held.
func (b *animationBuffer) popLocked() (animation.Unit, bool) {
	if b.size == 0 {
		return animation.Unit{}, false
	}

	unit := b.units[b.head]
	b.units[b.head] = animation.Unit{}
	b.head = (b.head + 1) % len(b.units)
	b.size--
	return unit, true
}

func (b *animationBuffer) growLocked() {
	newSize := max(len(b.units)*2, minRingSize)
	if b.policy != CapacityUnbounded && b.capacity > 0 {
		newSize = min(newSize, b.capacity)
		newSize = max(newSize, b.size+1)
	}

	grown := make([]animation.Unit, newSize)
	for i := range b.size {
		grown[i] = b.units[(b.head+i)%len(b.units)]
	}
	b.units = grown
	b.head = 0
}
