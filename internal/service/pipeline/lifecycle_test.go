package pipeline

import (
	"errors"
	"testing"
)

func TestLifecycle_HappyPath(t *testing.T) {
	lc := NewLifecycle("sess-1")

	if lc.State() != StateReceived {
		t.Fatalf("expected initial state RECEIVED, got %s", lc.State())
	}

	order := []State{StateTranscribing, StateLabeling, StateSummarizing, StateEmbedding, StateStoring, StateDone}
	for _, next := range order {
		if err := lc.Advance(next); err != nil {
			t.Fatalf("Advance(%s): %v", next, err)
		}
	}

	if !lc.IsDone() {
		t.Error("expected lifecycle to be done")
	}
	if !lc.State().IsTerminal() {
		t.Error("expected DONE to be terminal")
	}
}

func TestLifecycle_CannotSkip(t *testing.T) {
	lc := NewLifecycle("sess-1")

	err := lc.Advance(StateLabeling)
	if !errors.Is(err, ErrTransitionSkips) {
		t.Fatalf("expected skip error, got %v", err)
	}
	if lc.State() != StateReceived {
		t.Errorf("state should be unchanged after rejected transition, got %s", lc.State())
	}
}

func TestLifecycle_CannotGoBackward(t *testing.T) {
	lc := NewLifecycle("sess-1")
	if err := lc.Advance(StateTranscribing); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if err := lc.Advance(StateTranscribing); !errors.Is(err, ErrTransitionBackward) {
		t.Fatalf("expected backward error for same state, got %v", err)
	}
	if err := lc.Advance(StateReceived); !errors.Is(err, ErrTransitionBackward) {
		t.Fatalf("expected backward error, got %v", err)
	}
}

func TestLifecycle_FailFromAnyState(t *testing.T) {
	lc := NewLifecycle("sess-1")
	_ = lc.Advance(StateTranscribing)
	_ = lc.Advance(StateLabeling)

	if !lc.Fail() {
		t.Fatal("expected Fail to succeed from LABELING")
	}
	if lc.State() != StateFailed {
		t.Errorf("expected FAILED, got %s", lc.State())
	}

	// Terminal: no further transitions, no double fail.
	if err := lc.Advance(StateSummarizing); !errors.Is(err, ErrLifecycleTerminal) {
		t.Errorf("expected terminal error, got %v", err)
	}
	if lc.Fail() {
		t.Error("expected Fail to be a no-op on terminal state")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateReceived, "RECEIVED"},
		{StateTranscribing, "TRANSCRIBING"},
		{StateLabeling, "LABELING"},
		{StateSummarizing, "SUMMARIZING"},
		{StateEmbedding, "EMBEDDING"},
		{StateStoring, "STORING"},
		{StateDone, "DONE"},
		{StateFailed, "FAILED"},
		{State(99), "UNKNOWN(99)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}
