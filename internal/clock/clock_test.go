package clock

import (
	"testing"
	"time"
)

func TestFakeAdvanceAndSleep(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	if !c.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, c.Now())
	}

	c.Advance(2 * time.Minute)
	c.Sleep(30 * time.Millisecond)

	want := start.Add(2*time.Minute + 30*time.Millisecond)
	if !c.Now().Equal(want) {
		t.Fatalf("expected %v, got %v", want, c.Now())
	}
	sleeps := c.Sleeps()
	if len(sleeps) != 1 || sleeps[0] != 30*time.Millisecond {
		t.Fatalf("unexpected sleeps %v", sleeps)
	}
}

func TestRealNowMovesForward(t *testing.T) {
	c := Real()
	a := c.Now()
	c.Sleep(time.Millisecond)
	if !c.Now().After(a) {
		t.Fatalf("expected real clock to advance")
	}
}
