package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/koscakluka/signspell/core/animation"
)

func unit(label string) animation.Unit {
	return animation.Unit{Label: label, Animation: json.RawMessage(fmt.Sprintf(`{"word":%q}`, label))}
}

func units(labels ...string) []animation.Unit {
	batch := make([]animation.Unit, len(labels))
	for i, label := range labels {
		batch[i] = unit(label)
	}
	return batch
}

func drainLabels(b *animationBuffer) []string {
	var labels []string
	for {
		unit, ok := b.Dequeue()
		if !ok {
			return labels
		}
		labels = append(labels, unit.Label)
	}
}

func assertLabels(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected labels %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected labels %v, got %v", want, got)
		}
	}
}

func TestAnimationBufferIsFIFOAcrossBatches(t *testing.T) {
	b := newAnimationBuffer(0, CapacityUnbounded)

	b.Append(units("a", "b"))
	b.Append(nil)
	b.Append(units("c"))
	b.Append(units("d", "e", "f"))

	assertLabels(t, drainLabels(b), "a", "b", "c", "d", "e", "f")
}

func TestAnimationBufferDequeueEmptyDoesNotMutate(t *testing.T) {
	b := newAnimationBuffer(0, CapacityUnbounded)

	for range 3 {
		if got, ok := b.Dequeue(); ok {
			t.Fatalf("expected empty dequeue, got %+v", got)
		}
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d", b.Len())
	}

	b.Append(units("a"))
	if b.Len() != 1 {
		t.Fatalf("expected one queued unit after empty dequeues, got %d", b.Len())
	}
}

func TestAnimationBufferSizeLaw(t *testing.T) {
	for n := range 8 {
		for k := 0; k <= n; k++ {
			b := newAnimationBuffer(0, CapacityUnbounded)
			labels := make([]string, n)
			for i := range labels {
				labels[i] = fmt.Sprintf("w%d", i)
			}
			b.Append(units(labels...))
			for range k {
				b.Dequeue()
			}
			if got := b.Len(); got != n-k {
				t.Fatalf("n=%d k=%d: expected %d remaining, got %d", n, k, n-k, got)
			}
		}
	}
}

func TestAnimationBufferWrapsAroundRing(t *testing.T) {
	b := newAnimationBuffer(0, CapacityUnbounded)

	var want []string
	next := 0
	for round := range 20 {
		batch := make([]string, round%7+1)
		for i := range batch {
			batch[i] = fmt.Sprintf("w%d", next)
			next++
		}
		b.Append(units(batch...))
		want = append(want, batch...)

		for range round % 5 {
			unit, ok := b.Dequeue()
			if !ok {
				t.Fatalf("expected a unit in round %d", round)
			}
			if unit.Label != want[0] {
				t.Fatalf("round %d: expected %q, got %q", round, want[0], unit.Label)
			}
			want = want[1:]
		}
	}

	assertLabels(t, drainLabels(b), want...)
}

func TestAnimationBufferSkipsMalformedUnits(t *testing.T) {
	b := newAnimationBuffer(0, CapacityUnbounded)

	result := b.Append([]animation.Unit{
		unit("a"),
		{Label: "", Animation: json.RawMessage(`{}`)},
		{Label: "no-payload"},
		unit("b"),
	})

	if len(result.skipped) != 2 {
		t.Fatalf("expected 2 skipped units, got %d", len(result.skipped))
	}
	if len(result.appended) != 2 {
		t.Fatalf("expected 2 appended units, got %d", len(result.appended))
	}
	assertLabels(t, drainLabels(b), "a", "b")
}

func TestAnimationBufferDropNewestRejectsWholeBatch(t *testing.T) {
	b := newAnimationBuffer(3, CapacityDropNewest)

	b.Append(units("a", "b"))
	result := b.Append(units("c", "d", "e"))

	if len(result.appended) != 0 {
		t.Fatalf("expected nothing appended from an oversized batch, got %d", len(result.appended))
	}
	assertLabels(t, labels(result.dropped), "c", "d", "e")

	result = b.Append(units("f"))
	assertLabels(t, labels(result.appended), "f")
	assertLabels(t, drainLabels(b), "a", "b", "f")
}

func TestAnimationBufferDropOldest(t *testing.T) {
	b := newAnimationBuffer(3, CapacityDropOldest)

	b.Append(units("a", "b"))
	result := b.Append(units("c", "d"))

	assertLabels(t, labels(result.dropped), "a")
	if result.evicted != 1 {
		t.Fatalf("expected 1 evicted unit, got %d", result.evicted)
	}
	assertLabels(t, labels(result.appended), "c", "d")
	assertLabels(t, drainLabels(b), "b", "c", "d")
}

func TestAnimationBufferDropOldestBatchLargerThanCapacity(t *testing.T) {
	b := newAnimationBuffer(2, CapacityDropOldest)

	b.Append(units("a"))
	result := b.Append(units("b", "c", "d"))

	if len(result.appended) != 0 || result.evicted != 0 {
		t.Fatalf("expected the batch to be rejected without evictions, got %d appended and %d evicted",
			len(result.appended), result.evicted)
	}
	assertLabels(t, labels(result.dropped), "b", "c", "d")
	assertLabels(t, drainLabels(b), "a")
}

func TestAnimationBufferBoundedBatchesAreAllOrNothing(t *testing.T) {
	for _, policy := range []CapacityPolicy{CapacityDropNewest, CapacityDropOldest} {
		t.Run(policy.String(), func(t *testing.T) {
			b := newAnimationBuffer(5, policy)

			for i := range 10 {
				batch := []string{fmt.Sprintf("%d-first", i), fmt.Sprintf("%d-second", i)}
				result := b.Append(units(batch...))
				switch len(result.appended) {
				case 0:
					assertLabels(t, labels(result.dropped), batch...)
				case 2:
				default:
					t.Fatalf("batch %d partially appended: %v", i, labels(result.appended))
				}
				if b.Len() > 5 {
					t.Fatalf("queue grew past capacity: %d", b.Len())
				}
			}

			// a batch that made it in is queued whole, its second unit right
			// after its first
			queued := drainLabels(b)
			for i, label := range queued {
				var n int
				var part string
				if _, err := fmt.Sscanf(label, "%d-%s", &n, &part); err != nil {
					t.Fatalf("unexpected label %q", label)
				}
				if part == "first" && (i+1 >= len(queued) || queued[i+1] != fmt.Sprintf("%d-second", n)) {
					t.Fatalf("batch %d split in queue %v", n, queued)
				}
			}
		})
	}
}

func TestAnimationBufferNonPositiveCapacityIsUnbounded(t *testing.T) {
	b := newAnimationBuffer(0, CapacityDropNewest)

	batch := make([]string, 100)
	for i := range batch {
		batch[i] = fmt.Sprintf("w%d", i)
	}
	result := b.Append(units(batch...))

	if len(result.dropped) != 0 {
		t.Fatalf("expected no dropped units, got %d", len(result.dropped))
	}
	if b.Len() != 100 {
		t.Fatalf("expected 100 queued units, got %d", b.Len())
	}
}

func TestAnimationBufferAppendIsAtomicForConcurrentDequeue(t *testing.T) {
	const batches = 200
	b := newAnimationBuffer(0, CapacityUnbounded)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range batches {
			b.Append(units(fmt.Sprintf("%d-first", i), fmt.Sprintf("%d-second", i)))
		}
	}()

	var seen []string
	for len(seen) < batches*2 {
		b.mu.Lock()
		size := b.size
		b.mu.Unlock()
		// a dequeue must only ever observe whole batches
		if size%2 != 0 && len(seen)%2 == 0 {
			t.Fatalf("observed a partially appended batch, queue size %d", size)
		}
		if unit, ok := b.Dequeue(); ok {
			seen = append(seen, unit.Label)
		}
	}
	wg.Wait()

	for i := range batches {
		if seen[2*i] != fmt.Sprintf("%d-first", i) || seen[2*i+1] != fmt.Sprintf("%d-second", i) {
			t.Fatalf("expected batch %d in order, got %q %q", i, seen[2*i], seen[2*i+1])
		}
	}
}

func TestAnimationBufferBoundedAppendIsAtomicForConcurrentDequeue(t *testing.T) {
	const batches = 200
	b := newAnimationBuffer(4, CapacityDropNewest)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range batches {
			b.Append(units(fmt.Sprintf("%d-first", i), fmt.Sprintf("%d-second", i)))
		}
	}()

	var seen []string
	draining := true
	for draining {
		select {
		case <-done:
			draining = false
		default:
		}
		b.mu.Lock()
		size := b.size
		b.mu.Unlock()
		if size%2 != 0 && len(seen)%2 == 0 {
			t.Fatalf("observed a partially appended batch, queue size %d", size)
		}
		if unit, ok := b.Dequeue(); ok {
			seen = append(seen, unit.Label)
		}
	}
	seen = append(seen, drainLabels(b)...)

	if len(seen)%2 != 0 {
		t.Fatalf("expected whole batches only, got %d units", len(seen))
	}
	for i := 0; i < len(seen); i += 2 {
		var n int
		if _, err := fmt.Sscanf(seen[i], "%d-first", &n); err != nil {
			t.Fatalf("expected a batch to start at %d, got %q", i, seen[i])
		}
		if seen[i+1] != fmt.Sprintf("%d-second", n) {
			t.Fatalf("batch %d split: %q followed by %q", n, seen[i], seen[i+1])
		}
	}
}

func TestParseCapacityPolicy(t *testing.T) {
	for _, policy := range []CapacityPolicy{CapacityDropNewest, CapacityDropOldest, CapacityUnbounded} {
		parsed, err := ParseCapacityPolicy(policy.String())
		if err != nil {
			t.Fatalf("expected %q to parse, got %v", policy, err)
		}
		if parsed != policy {
			t.Fatalf("expected %v, got %v", policy, parsed)
		}
	}

	if _, err := ParseCapacityPolicy("block"); err == nil {
		t.Fatalf("expected unknown policy to fail")
	}
}
