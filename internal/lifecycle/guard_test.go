package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGuard_OneWayTransition(t *testing.T) {
	g := NewGuard()
	require.True(t, g.Active())

	g.Teardown()
	require.False(t, g.Active())

	// Teardown is idempotent and never resets.
	g.Teardown()
	require.False(t, g.Active())
}

func TestGuard_DoGatesCallbacks(t *testing.T) {
	g := NewGuard()

	ran := false
	require.True(t, g.Do(func() { ran = true }))
	require.True(t, ran)

	g.Teardown()

	ran = false
	require.False(t, g.Do(func() { ran = true }))
	require.False(t, ran)
}

func TestGuard_DoneClosesOnTeardown(t *testing.T) {
	g := NewGuard()

	select {
	case <-g.Done():
		t.Fatal("Done closed before teardown")
	default:
	}

	g.Teardown()

	select {
	case <-g.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after teardown")
	}
}

func TestGuard_AfterFuncDroppedPostTeardown(t *testing.T) {
	g := NewGuard()

	fired := make(chan struct{}, 1)
	g.AfterFunc(20*time.Millisecond, func() {
		fired <- struct{}{}
	})
	g.Teardown()

	select {
	case <-fired:
		t.Fatal("timer callback fired after teardown")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestGuard_AfterFuncFiresWhileActive(t *testing.T) {
	g := NewGuard()

	fired := make(chan struct{}, 1)
	g.AfterFunc(10*time.Millisecond, func() {
		fired <- struct{}{}
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer callback never fired")
	}
}
