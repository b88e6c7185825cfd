package wizard

import (
	"testing"
	"time"
)

func TestSessions_Lifecycle(t *testing.T) {
	store := NewSessions(time.Hour, 0)

	sess, err := store.Create(ModeCreate, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session has no ID")
	}
	if sess.State.Current != StepSource {
		t.Errorf("create mode starts at %v, want Source", sess.State.Current)
	}

	got, ok := store.Get(sess.ID)
	if !ok {
		t.Fatal("session not found after create")
	}

	// Snapshot must not alias the stored state.
	got.State.Completed[StepReview] = true
	fresh, _ := store.Get(sess.ID)
	if fresh.State.Completed[StepReview] {
		t.Error("snapshot mutation leaked into the store")
	}

	next := got.State.WithDetails(JobDetails{Name: "x", Strategy: StrategyInsert, BatchSize: 500})
	if !store.Put(sess.ID, next) {
		t.Fatal("Put failed for existing session")
	}
	updated, _ := store.Get(sess.ID)
	if updated.State.Details.Name != "x" {
		t.Error("Put did not replace state")
	}

	store.Delete(sess.ID)
	if _, ok := store.Get(sess.ID); ok {
		t.Error("session still present after delete")
	}
}

func TestSessions_EditModeSeeding(t *testing.T) {
	store := NewSessions(time.Hour, 0)

	prior := validState()
	prior.Details.Name = "existing job"

	sess, err := store.Create(ModeEdit, &prior)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.State.Mode != ModeEdit {
		t.Errorf("mode = %v, want edit", sess.State.Mode)
	}
	if sess.State.Current != StepJobDetails {
		t.Errorf("edit mode starts at %v, want Job Details", sess.State.Current)
	}
	if !sess.State.Completed[StepSource] {
		t.Error("source step should be pre-completed in edit mode")
	}
	if sess.State.Details.Name != "existing job" {
		t.Error("prior state not carried into the session")
	}
}

func TestSessions_Limit(t *testing.T) {
	store := NewSessions(time.Hour, 2)

	for i := 0; i < 2; i++ {
		if _, err := store.Create(ModeCreate, nil); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := store.Create(ModeCreate, nil); err == nil {
		t.Error("expected session limit error")
	}
}

func TestSessions_SizeObserverTracksSweep(t *testing.T) {
	store := NewSessions(time.Minute, 0)

	now := time.Now()
	store.now = func() time.Time { return now }

	var observed int
	store.SetSizeObserver(func(n int) { observed = n })
	if observed != 0 {
		t.Fatalf("registration reported %d, want 0", observed)
	}

	stale, _ := store.Create(ModeCreate, nil)
	if observed != 1 {
		t.Errorf("after create observed %d, want 1", observed)
	}

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	store.Create(ModeCreate, nil)
	if observed != 2 {
		t.Errorf("after second create observed %d, want 2", observed)
	}

	// The sweeper must report through the same channel as the handlers,
	// otherwise the count drifts high until the next create or delete.
	if n := store.sweep(); n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}
	if observed != 1 {
		t.Errorf("after sweep observed %d, want 1", observed)
	}
	if _, ok := store.Get(stale.ID); ok {
		t.Error("stale session survived the sweep")
	}

	store.Delete(stale.ID) // already gone; size unchanged
	if observed != 1 {
		t.Errorf("after no-op delete observed %d, want 1", observed)
	}
}

func TestSessions_Sweep(t *testing.T) {
	store := NewSessions(time.Minute, 0)

	now := time.Now()
	store.now = func() time.Time { return now }

	stale, _ := store.Create(ModeCreate, nil)

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	live, _ := store.Create(ModeCreate, nil)

	if n := store.sweep(); n != 1 {
		t.Fatalf("swept %d sessions, want 1", n)
	}
	if _, ok := store.Get(stale.ID); ok {
		t.Error("stale session survived the sweep")
	}
	if _, ok := store.Get(live.ID); !ok {
		t.Error("live session was swept")
	}
}
