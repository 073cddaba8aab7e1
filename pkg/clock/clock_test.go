package clock

import (
	"testing"
	"time"
)

func TestFake_NowAndAdvance(t *testing.T) {
	start := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	if !fake.Now().Equal(start) {
		t.Errorf("Expected start time, got %v", fake.Now())
	}

	fake.Advance(90 * time.Minute)
	if want := start.Add(90 * time.Minute); !fake.Now().Equal(want) {
		t.Errorf("Expected %v after advance, got %v", want, fake.Now())
	}
}

func TestFake_SetNeverMovesBackwards(t *testing.T) {
	start := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	fake.Set(start.Add(-time.Hour))
	if !fake.Now().Equal(start) {
		t.Errorf("Backwards Set moved the clock to %v", fake.Now())
	}

	fake.Set(start.Add(time.Hour))
	if !fake.Now().Equal(start.Add(time.Hour)) {
		t.Errorf("Forward Set did not move the clock, got %v", fake.Now())
	}
}

func TestFake_AfterFiresAtDeadline(t *testing.T) {
	fake := NewFake(time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC))

	ch := fake.After(time.Second)
	select {
	case <-ch:
		t.Fatal("Timer fired before the deadline")
	default:
	}

	fake.Advance(500 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("Timer fired halfway to the deadline")
	default:
	}

	fake.Advance(500 * time.Millisecond)
	select {
	case fired := <-ch:
		if !fired.Equal(fake.Now()) {
			t.Errorf("Timer delivered %v, clock says %v", fired, fake.Now())
		}
	default:
		t.Fatal("Timer did not fire at the deadline")
	}
}

func TestFake_AfterNonPositiveFiresImmediately(t *testing.T) {
	fake := NewFake(time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC))

	select {
	case <-fake.After(0):
	default:
		t.Fatal("Zero-duration timer did not fire immediately")
	}
}

func TestFake_MultipleWaitersFireInDeadlineOrder(t *testing.T) {
	fake := NewFake(time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC))

	late := fake.After(2 * time.Second)
	early := fake.After(time.Second)

	fake.Advance(time.Second)
	select {
	case <-early:
	default:
		t.Fatal("Early timer did not fire")
	}
	select {
	case <-late:
		t.Fatal("Late timer fired early")
	default:
	}

	fake.Advance(time.Second)
	select {
	case <-late:
	default:
		t.Fatal("Late timer did not fire")
	}
}

func TestSystem_NowIsMonotonic(t *testing.T) {
	clk := System()
	a := clk.Now()
	b := clk.Now()
	if b.Before(a) {
		t.Errorf("System clock went backwards: %v then %v", a, b)
	}
}
