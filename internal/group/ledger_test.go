package group

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourvia/groupbooking-api/internal/domain"
)

func newTestLedger(t *testing.T, offeringID uint, target int) *Ledger {
	t.Helper()

	l := NewLedger(100 * time.Millisecond)
	l.Register(domain.Offering{
		ID:                 offeringID,
		TargetParticipants: target,
		Status:             domain.OfferingActive,
		BasePrice:          100,
	})

	return l
}

func TestLedger_CapacityInvariant(t *testing.T) {
	const target = 10
	const attempts = 100

	l := newTestLedger(t, 1, target)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes, fulls int

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := l.Increment(1)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case err == ErrOfferingFull:
				fulls++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, target, successes)
	assert.Equal(t, attempts-target, fulls)

	snap, err := l.Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, target, snap.Count)
	assert.Equal(t, domain.OfferingFull, snap.Status)
}

func TestLedger_MonotonicDistinctCounts(t *testing.T) {
	const target = 50

	l := newTestLedger(t, 1, target)

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]bool)

	for i := 0; i < target; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			snap, err := l.Increment(1)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[snap.Count], "count %d observed twice", snap.Count)
			seen[snap.Count] = true
		}()
	}
	wg.Wait()

	for c := 1; c <= target; c++ {
		assert.True(t, seen[c], "count %d never observed", c)
	}
}

func TestLedger_StatusFlipsAtomically(t *testing.T) {
	const target = 20

	l := newTestLedger(t, 1, target)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			snap, err := l.Snapshot(1)
			if !assert.NoError(t, err) {
				return
			}
			if snap.Count == snap.Target {
				assert.Equal(t, domain.OfferingFull, snap.Status,
					"observed count == target with status %q", snap.Status)
				return
			}
		}
	}()

	for i := 0; i < target; i++ {
		_, err := l.Increment(1)
		require.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("observer never saw the group fill up")
	}
}

func TestLedger_BecameFullOnlyOnFinalIncrement(t *testing.T) {
	l := newTestLedger(t, 1, 3)

	for i := 1; i <= 3; i++ {
		snap, err := l.Increment(1)
		require.NoError(t, err)
		assert.Equal(t, i == 3, snap.BecameFull)
	}
}

func TestLedger_OfferingsLockIndependently(t *testing.T) {
	l := NewLedger(500 * time.Millisecond)
	l.Register(domain.Offering{ID: 1, TargetParticipants: 5, Status: domain.OfferingActive})
	l.Register(domain.Offering{ID: 2, TargetParticipants: 5, Status: domain.OfferingActive})

	unlock, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlock()

	// Offering 1 is held; offering 2 must not be affected.
	start := time.Now()
	unlock2, err := l.Lock(context.Background(), 2)
	require.NoError(t, err)
	unlock2()

	assert.Less(t, time.Since(start), 100*time.Millisecond,
		"lock on an idle offering blocked behind an unrelated one")
}

func TestLedger_LockTimesOutBusy(t *testing.T) {
	l := newTestLedger(t, 1, 5)

	unlock, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestLedger_LockHonorsContext(t *testing.T) {
	l := NewLedger(time.Minute)
	l.Register(domain.Offering{ID: 1, TargetParticipants: 5, Status: domain.OfferingActive})

	unlock, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLedger_IncrementErrors(t *testing.T) {
	l := NewLedger(0)
	l.Register(domain.Offering{ID: 1, TargetParticipants: 1, Status: domain.OfferingActive})
	l.Register(domain.Offering{ID: 2, TargetParticipants: 5, Status: domain.OfferingExpired})
	l.Register(domain.Offering{ID: 3, TargetParticipants: 5, Status: domain.OfferingCompleted})

	_, err := l.Increment(1)
	require.NoError(t, err)
	_, err = l.Increment(1)
	assert.ErrorIs(t, err, ErrOfferingFull)

	_, err = l.Increment(2)
	assert.ErrorIs(t, err, ErrOfferingNotJoinable)
	_, err = l.Increment(3)
	assert.ErrorIs(t, err, ErrOfferingNotJoinable)

	_, err = l.Increment(99)
	assert.ErrorIs(t, err, ErrOfferingNotFound)
}

func TestLedger_DecrementReopensFullGroup(t *testing.T) {
	l := newTestLedger(t, 1, 2)

	_, err := l.Increment(1)
	require.NoError(t, err)
	snap, err := l.Increment(1)
	require.NoError(t, err)
	require.Equal(t, domain.OfferingFull, snap.Status)

	snap, err = l.Decrement(1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, domain.OfferingActive, snap.Status)

	// And joinable again.
	snap, err = l.Increment(1)
	require.NoError(t, err)
	assert.True(t, snap.BecameFull)
}

func TestLedger_DecrementErrors(t *testing.T) {
	l := newTestLedger(t, 1, 2)

	_, err := l.Decrement(1)
	assert.ErrorIs(t, err, ErrNoParticipants)

	_, err = l.Decrement(42)
	assert.ErrorIs(t, err, ErrOfferingNotFound)
}

func TestLedger_ForgetRemovesOffering(t *testing.T) {
	l := newTestLedger(t, 1, 2)

	l.Forget(1)

	_, err := l.Snapshot(1)
	assert.ErrorIs(t, err, ErrOfferingNotFound)
}
