package engine

import (
	"context"
	"testing"
	"time"
)

func TestRunnerStepAdvancesHours(t *testing.T) {
	e := testEngine(t, 10)
	r := NewRunner(e, e.NewWorld(), time.Second, 1)

	var fired int
	r.OnResult = func(*Result) { fired++ }

	last := r.Step(3)
	if fired != 3 {
		t.Fatalf("OnResult fired %d times, want 3", fired)
	}
	if last.State.Hour != 9 {
		t.Fatalf("hour after 3 steps from 6 = %d, want 9", last.State.Hour)
	}
	snap := r.Snapshot()
	if snap.Hour != 9 || snap.Tick != 3 {
		t.Fatalf("snapshot hour/tick = %d/%d, want 9/3", snap.Hour, snap.Tick)
	}
}

func TestRunnerSnapshotIsIndependent(t *testing.T) {
	e := testEngine(t, 10)
	r := NewRunner(e, e.NewWorld(), time.Second, 1)

	snap := r.Snapshot()
	snap.Agents[0].Name = "Changed"
	snap.Metrics.Morale = 1

	live := r.Snapshot()
	if live.Agents[0].Name == "Changed" || live.Metrics.Morale == 1 {
		t.Fatal("snapshot shares memory with the live state")
	}
}

func TestRunnerPauseBlocksTheLoop(t *testing.T) {
	e := testEngine(t, 10)
	r := NewRunner(e, e.NewWorld(), time.Millisecond, 1)
	r.SetPaused(true)

	ticked := make(chan struct{}, 64)
	r.OnResult = func(*Result) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-ticked:
		t.Fatal("paused runner ticked")
	case <-time.After(50 * time.Millisecond):
	}

	r.SetPaused(false)
	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("unpaused runner never ticked")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}

func TestRunnerInjectAppearsInState(t *testing.T) {
	e := testEngine(t, 10)
	r := NewRunner(e, e.NewWorld(), time.Second, 1)

	ev := r.Inject("drill", "The watch ran a gate drill at noon")
	st := r.Snapshot()
	if len(st.Events) == 0 || st.Events[0].ID != ev.ID {
		t.Fatal("injected event not at the head of the log")
	}
	if st.Events[0].Category != "drill" {
		t.Fatalf("injected category = %q", st.Events[0].Category)
	}
}
