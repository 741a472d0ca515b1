package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func TestFakeClock_Advance(t *testing.T) {
	c := Fake(epoch)
	c.Advance(90 * time.Minute)
	assert.Equal(t, epoch.Add(90*time.Minute), c.Now())
}

func TestFakeClock_Ticker(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Minute)
	require.Equal(t, 1, c.PendingCount())

	c.Advance(30 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("ticker fired early")
	default:
	}

	c.Advance(30 * time.Second)
	select {
	case at := <-ticker.C:
		assert.Equal(t, epoch.Add(time.Minute), at)
	default:
		t.Fatal("ticker did not fire")
	}

	// missed intervals collapse into one tick
	c.Advance(5 * time.Minute)
	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("unexpected second tick")
	default:
	}

	ticker.Stop()
	assert.Zero(t, c.PendingCount())
	c.Advance(time.Hour)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFakeClock_After(t *testing.T) {
	c := Fake(epoch)
	ch := c.After(time.Second)
	c.Advance(time.Second)
	assert.Equal(t, epoch.Add(time.Second), <-ch)
	assert.Zero(t, c.PendingCount())

	immediate := c.After(0)
	assert.Equal(t, c.Now(), <-immediate)
}

func TestFakeClock_WaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-c.After(time.Minute)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Minute)
	<-done
}

func TestFakeClock_SetBackwards(t *testing.T) {
	c := Fake(epoch)
	ticker := c.NewTicker(time.Minute)
	c.Set(epoch.Add(-time.Hour))
	assert.Equal(t, epoch.Add(-time.Hour), c.Now())
	select {
	case <-ticker.C:
		t.Fatal("ticker fired on backwards jump")
	default:
	}
}

func TestReal(t *testing.T) {
	c := Real()
	before := time.Now()
	assert.False(t, c.Now().Before(before))
	ticker := c.NewTicker(time.Millisecond)
	<-ticker.C
	ticker.Stop()
}
