package policy

import (
	"testing"
	"time"
)

func TestSlidingCounter_WeightedEstimate(t *testing.T) {
	// Fill the first window with 10 admissions, then probe halfway into
	// the next: estimate starts at 10*0.5 = 5, leaving room for exactly 5.
	p := Params{Limit: 10, Window: 10 * time.Second}
	var st State
	var out Outcome

	for i := 0; i < 10; i++ {
		st, out = Step(SlidingCounter, p, st, base.Add(time.Second), 1)
		if !out.Allowed {
			t.Fatalf("warmup call %d: expected admission", i)
		}
	}
	st, out = Step(SlidingCounter, p, st, base.Add(time.Second), 1)
	if out.Allowed {
		t.Fatal("11th call in the first window should be denied")
	}

	mid := base.Add(15 * time.Second)
	allowed := 0
	for i := 0; i < 8; i++ {
		st, out = Step(SlidingCounter, p, st, mid, 1)
		if out.Allowed {
			allowed++
		}
	}
	if allowed != 5 {
		t.Fatalf("admitted %d at 50%% overlap, want 5", allowed)
	}
}

func TestSlidingCounter_RolloverShiftsCounts(t *testing.T) {
	p := Params{Limit: 100, Window: 10 * time.Second}
	var st State
	for i := 0; i < 7; i++ {
		st, _ = Step(SlidingCounter, p, st, base, 1)
	}

	st, _ = Step(SlidingCounter, p, st, base.Add(10*time.Second), 1)
	if st.PrevCount != 7 {
		t.Errorf("prevCount = %d after rollover, want 7", st.PrevCount)
	}
	if st.Count != 1 {
		t.Errorf("count = %d after rollover, want 1", st.Count)
	}
}

func TestSlidingCounter_SkippedWindowZeroesPrevious(t *testing.T) {
	p := Params{Limit: 5, Window: 10 * time.Second}
	var st State
	for i := 0; i < 5; i++ {
		st, _ = Step(SlidingCounter, p, st, base, 1)
	}

	// Two full windows later the old count must not haunt the estimate.
	_, out := Step(SlidingCounter, p, st, base.Add(25*time.Second), 1)
	if !out.Allowed {
		t.Fatal("expected admission after an idle window")
	}
	if out.Remaining != 4 {
		t.Errorf("remaining = %d, want 4", out.Remaining)
	}
}

func TestSlidingCounter_DenialPointsAtWindowEnd(t *testing.T) {
	p := Params{Limit: 1, Window: 10 * time.Second}
	st, _ := Step(SlidingCounter, p, State{}, base.Add(2*time.Second), 1)
	_, out := Step(SlidingCounter, p, st, base.Add(3*time.Second), 1)
	if out.Allowed {
		t.Fatal("second call should be denied")
	}
	if want := 7 * time.Second; out.RetryAfter != want {
		t.Errorf("retryAfter = %v, want %v", out.RetryAfter, want)
	}
}
